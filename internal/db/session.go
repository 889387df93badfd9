package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Session is one recording session, identified by subject and start time.
type Session struct {
	SubjectID string    `json:"subject_id"`
	Start     time.Time `json:"session_start"`
}

// SessionKey restricts session lookups. Zero-valued fields are
// unconstrained. Lab does not restrict the session table itself; it narrows
// the lab affiliation query for subjects that belong to more than one lab.
type SessionKey struct {
	Subject string     `json:"subject,omitempty"`
	Start   *time.Time `json:"session_start,omitempty"`
	Lab     string     `json:"lab,omitempty"`
}

// Values returns the constrained key values in declaration order, timestamps
// rendered RFC 3339. Used to build human-readable session identifiers.
func (k SessionKey) Values() []string {
	var vals []string
	if k.Subject != "" {
		vals = append(vals, k.Subject)
	}
	if k.Start != nil {
		vals = append(vals, formatTime(*k.Start))
	}
	if k.Lab != "" {
		vals = append(vals, k.Lab)
	}
	return vals
}

func (k SessionKey) sessionWhere() (string, []any) {
	var clauses []string
	var args []any
	if k.Subject != "" {
		clauses = append(clauses, "subject_id = ?")
		args = append(args, k.Subject)
	}
	if k.Start != nil {
		clauses = append(clauses, "session_start = ?")
		args = append(args, formatTime(*k.Start))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Key returns the fully constrained key identifying this session.
func (s Session) Key() SessionKey {
	start := s.Start
	return SessionKey{Subject: s.SubjectID, Start: &start}
}

// CreateSession inserts a new session. The start time is normalized to UTC
// at second precision before storage.
func (db *DB) CreateSession(session *Session) error {
	_, err := db.Exec(
		`INSERT INTO session (subject_id, session_start) VALUES (?, ?)`,
		session.SubjectID, formatTime(session.Start),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	session.Start = session.Start.UTC().Truncate(time.Second)
	return nil
}

// ResolveSessionKey resolves key to exactly one stored session.
// Zero matches return ErrNotFound; more than one returns ErrAmbiguous.
func (db *DB) ResolveSessionKey(key SessionKey) (*Session, error) {
	where, args := key.sessionWhere()
	query := `SELECT subject_id, session_start FROM session` + where +
		` ORDER BY subject_id, session_start LIMIT 2`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var matches []Session
	for rows.Next() {
		var subjectID, startRaw string
		if err := rows.Scan(&subjectID, &startRaw); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		start, err := parseTime(startRaw)
		if err != nil {
			return nil, err
		}
		matches = append(matches, Session{SubjectID: subjectID, Start: start})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no session matches key: %w", ErrNotFound)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("session key matches more than one session: %w", ErrAmbiguous)
	}
}

// ListSessions returns all sessions ordered by subject and start time.
func (db *DB) ListSessions() ([]Session, error) {
	rows, err := db.Query(`SELECT subject_id, session_start FROM session ORDER BY subject_id, session_start`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var subjectID, startRaw string
		if err := rows.Scan(&subjectID, &startRaw); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		start, err := parseTime(startRaw)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, Session{SubjectID: subjectID, Start: start})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// SessionWithNote fetches a session's start time and note. The note is
// left-joined: a session without one yields the empty string.
func (db *DB) SessionWithNote(session Session) (start time.Time, note string, err error) {
	query := `
		SELECT s.session_start, COALESCE(n.note, '')
		FROM session s
		LEFT JOIN session_note n
			ON s.subject_id = n.subject_id AND s.session_start = n.session_start
		WHERE s.subject_id = ? AND s.session_start = ?
	`

	var startRaw string
	err = db.QueryRow(query, session.SubjectID, formatTime(session.Start)).Scan(&startRaw, &note)
	if err == sql.ErrNoRows {
		return time.Time{}, "", fmt.Errorf("session not found: %w", ErrNotFound)
	}
	if err != nil {
		return time.Time{}, "", fmt.Errorf("failed to get session: %w", err)
	}

	start, err = parseTime(startRaw)
	if err != nil {
		return time.Time{}, "", err
	}
	return start, note, nil
}

// SetSessionNote inserts or replaces the free-text note for a session.
func (db *DB) SetSessionNote(session Session, note string) error {
	_, err := db.Exec(
		`INSERT INTO session_note (subject_id, session_start, note) VALUES (?, ?, ?)
		 ON CONFLICT(subject_id, session_start) DO UPDATE SET note = excluded.note`,
		session.SubjectID, formatTime(session.Start), note,
	)
	if err != nil {
		return fmt.Errorf("failed to set session note: %w", err)
	}
	return nil
}

// AddSessionExperimenters appends experimenter names to a session,
// preserving the order given.
func (db *DB) AddSessionExperimenters(session Session, names ...string) error {
	var next int
	err := db.QueryRow(
		`SELECT COALESCE(MAX(position), -1) + 1 FROM session_experimenter
		 WHERE subject_id = ? AND session_start = ?`,
		session.SubjectID, formatTime(session.Start),
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("failed to get experimenter position: %w", err)
	}

	for i, name := range names {
		_, err := db.Exec(
			`INSERT INTO session_experimenter (subject_id, session_start, position, experimenter)
			 VALUES (?, ?, ?, ?)`,
			session.SubjectID, formatTime(session.Start), next+i, name,
		)
		if err != nil {
			return fmt.Errorf("failed to add experimenter %q: %w", name, err)
		}
	}
	return nil
}

// SessionExperimenters returns the experimenter names for a session in
// insertion order. A session without experimenters returns a nil slice.
func (db *DB) SessionExperimenters(session Session) ([]string, error) {
	rows, err := db.Query(
		`SELECT experimenter FROM session_experimenter
		 WHERE subject_id = ? AND session_start = ? ORDER BY position ASC`,
		session.SubjectID, formatTime(session.Start),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query experimenters: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan experimenter: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating experimenters: %w", err)
	}

	return names, nil
}
