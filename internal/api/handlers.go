package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/neuro-elements/session-export/internal/db"
	"github.com/neuro-elements/session-export/internal/export"
	"github.com/neuro-elements/session-export/internal/httputil"
	"github.com/neuro-elements/session-export/internal/version"
)

// sessionRef identifies one session in request payloads.
type sessionRef struct {
	SubjectID string    `json:"subject_id"`
	Start     time.Time `json:"session_start"`
}

func (r sessionRef) validate() error {
	if r.SubjectID == "" {
		return fmt.Errorf("subject_id is required")
	}
	if r.Start.IsZero() {
		return fmt.Errorf("session_start is required")
	}
	return nil
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions, err := s.db.ListSessions()
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, sessions)
	case http.MethodPost:
		var ref sessionRef
		if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
			httputil.BadRequest(w, "invalid JSON body")
			return
		}
		if err := ref.validate(); err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		session := db.Session{SubjectID: ref.SubjectID, Start: ref.Start}
		if err := s.db.CreateSession(&session); err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.Created(w, session)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handleSessionNote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var body struct {
		sessionRef
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}
	if err := body.validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	session := db.Session{SubjectID: body.SubjectID, Start: body.Start}
	if err := s.db.SetSessionNote(session, body.Note); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSessionExperimenters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var body struct {
		sessionRef
		Experimenters []string `json:"experimenters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}
	if err := body.validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if len(body.Experimenters) == 0 {
		httputil.BadRequest(w, "experimenters is required")
		return
	}

	session := db.Session{SubjectID: body.SubjectID, Start: body.Start}
	if err := s.db.AddSessionExperimenters(session, body.Experimenters...); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSubjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		subjects, err := s.db.ListSubjects()
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, subjects)
	case http.MethodPost:
		var subject db.Subject
		if err := json.NewDecoder(r.Body).Decode(&subject); err != nil {
			httputil.BadRequest(w, "invalid JSON body")
			return
		}
		if subject.SubjectID == "" {
			httputil.BadRequest(w, "subject_id is required")
			return
		}
		if err := s.db.CreateSubject(&subject); err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.Created(w, subject)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handleAffiliation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var body struct {
		SubjectID string `json:"subject_id"`
		LabName   string `json:"lab_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}
	if body.SubjectID == "" || body.LabName == "" {
		httputil.BadRequest(w, "subject_id and lab_name are required")
		return
	}

	if err := s.db.AffiliateSubject(body.SubjectID, body.LabName); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

func (s *Server) handleLabs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		labs, err := s.db.ListLabs()
		if err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.WriteJSONOK(w, labs)
	case http.MethodPost:
		var lab db.Lab
		if err := json.NewDecoder(r.Body).Decode(&lab); err != nil {
			httputil.BadRequest(w, "invalid JSON body")
			return
		}
		if lab.LabName == "" {
			httputil.BadRequest(w, "lab_name is required")
			return
		}
		if err := s.db.CreateLab(&lab); err != nil {
			httputil.InternalServerError(w, err.Error())
			return
		}
		httputil.Created(w, lab)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleExport runs the session-to-NWB aggregation for the session matching
// the query parameters and returns the artifact as JSON.
//
// Query parameters: subject, start (RFC 3339), lab, subject_id.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	key := db.SessionKey{
		Subject: q.Get("subject"),
		Lab:     q.Get("lab"),
	}
	if raw := q.Get("start"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid start %q: must be RFC 3339", raw))
			return
		}
		key.Start = &start
	}

	file, err := s.exporter.SessionToNWB(key, q.Get("subject_id"))
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			httputil.NotFound(w, err.Error())
		case errors.Is(err, db.ErrAmbiguous), errors.Is(err, export.ErrLabAmbiguous):
			httputil.Conflict(w, err.Error())
		case errors.Is(err, export.ErrSubjectIDRequired):
			httputil.BadRequest(w, err.Error())
		default:
			httputil.InternalServerError(w, err.Error())
		}
		return
	}

	httputil.WriteJSONOK(w, file)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, version.Info())
}
