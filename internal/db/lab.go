package db

import (
	"database/sql"
	"fmt"
)

// Lab represents a lab and its institution-level metadata. TimeZone, when
// set, is a UTC-offset string of the form "UTC±HH".
type Lab struct {
	LabName     string  `json:"lab_name"`
	Institution *string `json:"institution"`
	Address     *string `json:"address"`
	TimeZone    *string `json:"time_zone"`
}

// CreateLab inserts a new lab.
func (db *DB) CreateLab(lab *Lab) error {
	_, err := db.Exec(
		`INSERT INTO lab (lab_name, institution, address, time_zone) VALUES (?, ?, ?, ?)`,
		lab.LabName, lab.Institution, lab.Address, lab.TimeZone,
	)
	if err != nil {
		return fmt.Errorf("failed to create lab: %w", err)
	}
	return nil
}

// GetLab retrieves a lab by name.
func (db *DB) GetLab(labName string) (*Lab, error) {
	var lab Lab
	err := db.QueryRow(
		`SELECT lab_name, institution, address, time_zone FROM lab WHERE lab_name = ?`,
		labName,
	).Scan(&lab.LabName, &lab.Institution, &lab.Address, &lab.TimeZone)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lab %q: %w", labName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lab: %w", err)
	}

	return &lab, nil
}

// ListLabs retrieves all labs ordered by name.
func (db *DB) ListLabs() ([]Lab, error) {
	rows, err := db.Query(`SELECT lab_name, institution, address, time_zone FROM lab ORDER BY lab_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query labs: %w", err)
	}
	defer rows.Close()

	var labs []Lab
	for rows.Next() {
		var lab Lab
		if err := rows.Scan(&lab.LabName, &lab.Institution, &lab.Address, &lab.TimeZone); err != nil {
			return nil, fmt.Errorf("failed to scan lab: %w", err)
		}
		labs = append(labs, lab)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labs: %w", err)
	}

	return labs, nil
}

// LabsForSubject returns the labs a subject is affiliated with, joined
// through the affiliation table. When labName is non-empty the result is
// restricted to that lab, which is how an ambiguous affiliation gets
// narrowed by the caller's session key.
func (db *DB) LabsForSubject(subjectID, labName string) ([]Lab, error) {
	query := `
		SELECT l.lab_name, l.institution, l.address, l.time_zone
		FROM lab l
		JOIN subject_lab sl ON l.lab_name = sl.lab_name
		WHERE sl.subject_id = ?
	`
	args := []any{subjectID}
	if labName != "" {
		query += ` AND l.lab_name = ?`
		args = append(args, labName)
	}
	query += ` ORDER BY l.lab_name ASC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query labs for subject: %w", err)
	}
	defer rows.Close()

	var labs []Lab
	for rows.Next() {
		var lab Lab
		if err := rows.Scan(&lab.LabName, &lab.Institution, &lab.Address, &lab.TimeZone); err != nil {
			return nil, fmt.Errorf("failed to scan lab: %w", err)
		}
		labs = append(labs, lab)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labs: %w", err)
	}

	return labs, nil
}
