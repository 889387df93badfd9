// Package nwb defines the in-memory metadata artifact handed to an external
// NWB serializer. The types here carry metadata only; the container format
// itself is out of scope.
package nwb

import "time"

// Subject holds subject-level metadata attached to a File.
// Only SubjectID is guaranteed; the remaining fields depend on whether a
// subject provider was available when the file was assembled.
type Subject struct {
	SubjectID   string     `json:"subject_id"`
	Sex         string     `json:"sex,omitempty"`
	Species     string     `json:"species,omitempty"`
	Description string     `json:"description,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

// File aggregates session-level metadata for one recording session.
// SessionStartTime is always an unambiguous instant; its location is UTC
// unless a lab timezone re-localized it for display.
type File struct {
	SessionID          string    `json:"session_id"`
	Identifier         string    `json:"identifier"`
	SessionDescription string    `json:"session_description"`
	SessionStartTime   time.Time `json:"session_start_time"`
	Experimenter       []string  `json:"experimenter,omitempty"`
	Subject            *Subject  `json:"subject,omitempty"`
	Institution        *string   `json:"institution,omitempty"`
	Lab                *string   `json:"lab,omitempty"`
}
