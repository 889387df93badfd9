package export

import (
	"errors"
	"fmt"

	"github.com/neuro-elements/session-export/internal/db"
	"github.com/neuro-elements/session-export/internal/nwb"
)

// SubjectProvider supplies subject-level metadata for the export. Whether a
// provider is active is decided at configuration time, not probed mid-export.
type SubjectProvider interface {
	Active() bool
	SubjectToNWB(subjectID string) (*nwb.Subject, error)
}

// LabProvider supplies lab-level metadata joined through a subject's lab
// affiliations, restricted by the caller's session key.
type LabProvider interface {
	Active() bool
	LabsForSession(subjectID string, key db.SessionKey) ([]db.Lab, error)
}

// NoSubjects is the absent subject provider. With it configured, callers
// must pass an explicit subject id to SessionToNWB.
type NoSubjects struct{}

func (NoSubjects) Active() bool { return false }

func (NoSubjects) SubjectToNWB(string) (*nwb.Subject, error) {
	return nil, errors.New("no subject provider configured")
}

// NoLabs is the absent lab provider.
type NoLabs struct{}

func (NoLabs) Active() bool { return false }

func (NoLabs) LabsForSession(string, db.SessionKey) ([]db.Lab, error) {
	return nil, errors.New("no lab provider configured")
}

// StoreSubjects translates subjects straight out of the metadata store.
type StoreSubjects struct {
	DB *db.DB
}

func (s StoreSubjects) Active() bool { return s.DB != nil }

func (s StoreSubjects) SubjectToNWB(subjectID string) (*nwb.Subject, error) {
	subject, err := s.DB.GetSubject(subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to translate subject: %w", err)
	}

	out := &nwb.Subject{
		SubjectID:   subject.SubjectID,
		Sex:         subject.Sex,
		DateOfBirth: subject.DateOfBirth,
	}
	if subject.Species != nil {
		out.Species = *subject.Species
	}
	if subject.Description != nil {
		out.Description = *subject.Description
	}
	return out, nil
}

// StoreLabs resolves lab metadata from the metadata store's affiliation
// table.
type StoreLabs struct {
	DB *db.DB
}

func (l StoreLabs) Active() bool { return l.DB != nil }

func (l StoreLabs) LabsForSession(subjectID string, key db.SessionKey) ([]db.Lab, error) {
	return l.DB.LabsForSubject(subjectID, key.Lab)
}
