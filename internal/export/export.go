// Package export assembles the in-memory NWB metadata artifact for a single
// session: one synchronous pass over the metadata store plus the configured
// subject and lab providers.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/neuro-elements/session-export/internal/db"
	"github.com/neuro-elements/session-export/internal/nwb"
	"github.com/neuro-elements/session-export/internal/timeutil"
)

// Sentinel errors for the aggregator's fatal conditions. The session lookup
// itself surfaces db.ErrNotFound / db.ErrAmbiguous.
var (
	// ErrSubjectIDRequired is returned when no subject provider is
	// configured and the caller did not supply a subject id.
	ErrSubjectIDRequired = errors.New("subject_id is required when no subject provider is configured")

	// ErrLabAmbiguous is returned when a session's subject belongs to more
	// than one lab and the session key does not say which.
	ErrLabAmbiguous = errors.New("multiple labs associated with this session")
)

// Exporter performs the session-to-NWB translation. Providers are fixed at
// construction; pass NoSubjects / NoLabs for deployments without them.
// displayTZ is a "UTC±HH" fallback for re-localizing start times when no lab
// record supplies a timezone; empty leaves them in UTC.
type Exporter struct {
	db        *db.DB
	subjects  SubjectProvider
	labs      LabProvider
	displayTZ string
}

// New creates an Exporter over the given store. Nil providers mean absent.
func New(database *db.DB, subjects SubjectProvider, labs LabProvider, displayTZ string) *Exporter {
	if subjects == nil {
		subjects = NoSubjects{}
	}
	if labs == nil {
		labs = NoLabs{}
	}
	return &Exporter{db: database, subjects: subjects, labs: labs, displayTZ: displayTZ}
}

// SessionToNWB gathers session- and subject-level metadata for the session
// matching key and returns the NWB file artifact.
//
// subjectID is only consulted when no subject provider is configured; it
// then becomes the artifact's minimal subject record.
//
// Field mappings:
//
//	session key                      -> File.SessionID
//	session_note.note                -> File.SessionDescription
//	session.session_start (UTC)      -> File.SessionStartTime
//	session_experimenter.experimenter -> File.Experimenter
//	subject                          -> File.Subject
//	lab.institution                  -> File.Institution
//	lab.lab_name                     -> File.Lab
//	lab.time_zone                    -> File.SessionStartTime location
func (e *Exporter) SessionToNWB(key db.SessionKey, subjectID string) (*nwb.File, error) {
	// ensure the key resolves to exactly one session
	session, err := e.db.ResolveSessionKey(key)
	if err != nil {
		return nil, err
	}

	file := &nwb.File{
		SessionID:  strings.Join(session.Key().Values(), "_"),
		Identifier: uuid.New().String(),
	}

	start, note, err := e.db.SessionWithNote(*session)
	if err != nil {
		return nil, err
	}
	file.SessionStartTime = start.UTC()
	file.SessionDescription = note

	experimenters, err := e.db.SessionExperimenters(*session)
	if err != nil {
		return nil, err
	}
	// nil when none: the serializer treats an empty list and an absent
	// field differently
	file.Experimenter = experimenters

	localized := false
	if e.subjects.Active() {
		subject, err := e.subjects.SubjectToNWB(session.SubjectID)
		if err != nil {
			return nil, err
		}
		file.Subject = subject

		if e.labs.Active() {
			localized, err = e.applyLab(file, session.SubjectID, key)
			if err != nil {
				return nil, err
			}
		}
	} else {
		if subjectID == "" {
			return nil, fmt.Errorf("cannot infer subject for session %q: %w", file.SessionID, ErrSubjectIDRequired)
		}
		file.Subject = &nwb.Subject{SubjectID: subjectID}
	}

	if !localized && e.displayTZ != "" {
		loc, err := timeutil.ParseUTCOffset(e.displayTZ)
		if err != nil {
			return nil, fmt.Errorf("display timezone: %w", err)
		}
		file.SessionStartTime = file.SessionStartTime.In(loc)
	}

	return file, nil
}

// applyLab copies institution and lab name onto the file and, when the lab
// carries a UTC±HH timezone, re-expresses the start time in that offset.
// The instant itself never changes. Reports whether it localized the start
// time.
func (e *Exporter) applyLab(file *nwb.File, subjectID string, key db.SessionKey) (bool, error) {
	labs, err := e.labs.LabsForSession(subjectID, key)
	if err != nil {
		return false, err
	}

	switch len(labs) {
	case 0:
		// no affiliation on record; leave the lab fields absent
		return false, nil
	case 1:
	default:
		return false, fmt.Errorf("%w. Try restricting your session key to specify lab", ErrLabAmbiguous)
	}

	lab := labs[0]
	file.Institution = lab.Institution
	labName := lab.LabName
	file.Lab = &labName

	if lab.TimeZone != nil && timeutil.IsUTCOffset(*lab.TimeZone) {
		loc, err := timeutil.ParseUTCOffset(*lab.TimeZone)
		if err != nil {
			return false, fmt.Errorf("lab %q: %w", lab.LabName, err)
		}
		file.SessionStartTime = file.SessionStartTime.In(loc)
		return true, nil
	}

	return false, nil
}
