package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Subject represents one experimental subject.
type Subject struct {
	SubjectID   string     `json:"subject_id"`
	Sex         string     `json:"sex"`
	Species     *string    `json:"species"`
	Description *string    `json:"description"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

// CreateSubject inserts a new subject. Sex defaults to "U" (unknown) when
// left empty.
func (db *DB) CreateSubject(subject *Subject) error {
	if subject.Sex == "" {
		subject.Sex = "U"
	}

	var dob *string
	if subject.DateOfBirth != nil {
		formatted := formatTime(*subject.DateOfBirth)
		dob = &formatted
	}

	_, err := db.Exec(
		`INSERT INTO subject (subject_id, sex, species, description, date_of_birth)
		 VALUES (?, ?, ?, ?, ?)`,
		subject.SubjectID, subject.Sex, subject.Species, subject.Description, dob,
	)
	if err != nil {
		return fmt.Errorf("failed to create subject: %w", err)
	}
	return nil
}

// GetSubject retrieves a subject by its identifier.
func (db *DB) GetSubject(subjectID string) (*Subject, error) {
	query := `
		SELECT subject_id, sex, species, description, date_of_birth
		FROM subject
		WHERE subject_id = ?
	`

	var subject Subject
	var dob *string
	err := db.QueryRow(query, subjectID).Scan(
		&subject.SubjectID,
		&subject.Sex,
		&subject.Species,
		&subject.Description,
		&dob,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("subject %q: %w", subjectID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	if dob != nil {
		parsed, err := parseTime(*dob)
		if err != nil {
			return nil, err
		}
		subject.DateOfBirth = &parsed
	}

	return &subject, nil
}

// ListSubjects retrieves all subjects ordered by identifier.
func (db *DB) ListSubjects() ([]Subject, error) {
	rows, err := db.Query(
		`SELECT subject_id, sex, species, description, date_of_birth
		 FROM subject ORDER BY subject_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		var subject Subject
		var dob *string
		if err := rows.Scan(
			&subject.SubjectID,
			&subject.Sex,
			&subject.Species,
			&subject.Description,
			&dob,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		if dob != nil {
			parsed, err := parseTime(*dob)
			if err != nil {
				return nil, err
			}
			subject.DateOfBirth = &parsed
		}
		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subjects: %w", err)
	}

	return subjects, nil
}

// AffiliateSubject records that a subject belongs to a lab. A subject may
// belong to more than one lab.
func (db *DB) AffiliateSubject(subjectID, labName string) error {
	_, err := db.Exec(
		`INSERT INTO subject_lab (subject_id, lab_name) VALUES (?, ?)`,
		subjectID, labName,
	)
	if err != nil {
		return fmt.Errorf("failed to affiliate subject %q with lab %q: %w", subjectID, labName, err)
	}
	return nil
}
