package db

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestCreateAndResolveSession(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	start := time.Date(2023, 5, 11, 14, 30, 0, 0, time.UTC)
	created := createTestSession(t, db, "subject5", start)

	resolved, err := db.ResolveSessionKey(created.Key())
	if err != nil {
		t.Fatalf("ResolveSessionKey failed: %v", err)
	}

	if resolved.SubjectID != "subject5" {
		t.Errorf("expected subject ID 'subject5', got %q", resolved.SubjectID)
	}
	if !resolved.Start.Equal(start) {
		t.Errorf("expected start %v, got %v", start, resolved.Start)
	}
}

func TestCreateSessionNormalizesStart(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2023, 5, 11, 9, 30, 0, 123456789, loc)
	session := createTestSession(t, db, "subject5", local)

	if session.Start.Location() != time.UTC {
		t.Errorf("expected UTC start after create, got %v", session.Start.Location())
	}
	want := time.Date(2023, 5, 11, 14, 30, 0, 0, time.UTC)
	if !session.Start.Equal(want) {
		t.Errorf("expected %v, got %v", want, session.Start)
	}
}

func TestResolveSessionKeyNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	_, err := db.ResolveSessionKey(SessionKey{Subject: "missing"})
	if err == nil {
		t.Fatal("expected error resolving missing session, got nil")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveSessionKeyAmbiguous(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	createTestSession(t, db, "subject5", time.Date(2023, 5, 11, 9, 0, 0, 0, time.UTC))
	createTestSession(t, db, "subject5", time.Date(2023, 5, 12, 9, 0, 0, 0, time.UTC))

	_, err := db.ResolveSessionKey(SessionKey{Subject: "subject5"})
	if err == nil {
		t.Fatal("expected error resolving ambiguous key, got nil")
	}
	if !errors.Is(err, ErrAmbiguous) {
		t.Errorf("expected ErrAmbiguous, got %v", err)
	}
}

func TestResolveSessionKeyNarrowedByStart(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	createTestSession(t, db, "subject5", time.Date(2023, 5, 11, 9, 0, 0, 0, time.UTC))
	second := createTestSession(t, db, "subject5", time.Date(2023, 5, 12, 9, 0, 0, 0, time.UTC))

	key := SessionKey{Subject: "subject5", Start: timePtr(second.Start)}
	resolved, err := db.ResolveSessionKey(key)
	if err != nil {
		t.Fatalf("ResolveSessionKey failed: %v", err)
	}
	if !resolved.Start.Equal(second.Start) {
		t.Errorf("expected start %v, got %v", second.Start, resolved.Start)
	}
}

func TestResolveSessionKeyIgnoresLab(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	// Lab in the key narrows affiliation lookups, not session matching.
	session := createTestSession(t, db, "subject5", time.Date(2023, 5, 11, 9, 0, 0, 0, time.UTC))

	key := session.Key()
	key.Lab = "LabA"
	resolved, err := db.ResolveSessionKey(key)
	if err != nil {
		t.Fatalf("ResolveSessionKey failed: %v", err)
	}
	if resolved.SubjectID != "subject5" {
		t.Errorf("expected subject ID 'subject5', got %q", resolved.SubjectID)
	}
}

func TestSessionKeyValues(t *testing.T) {
	start := time.Date(2023, 5, 11, 9, 0, 0, 0, time.UTC)
	key := SessionKey{Subject: "subject5", Start: &start, Lab: "LabA"}

	got := strings.Join(key.Values(), "_")
	want := "subject5_2023-05-11T09:00:00Z_LabA"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if vals := (SessionKey{}).Values(); vals != nil {
		t.Errorf("expected nil values for empty key, got %v", vals)
	}
}

func TestListSessions(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	createTestSession(t, db, "subject5", time.Date(2023, 5, 12, 9, 0, 0, 0, time.UTC))
	createTestSession(t, db, "subject5", time.Date(2023, 5, 11, 9, 0, 0, 0, time.UTC))
	createTestSession(t, db, "subject1", time.Date(2023, 5, 13, 9, 0, 0, 0, time.UTC))

	sessions, err := db.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	// Ordered by subject, then start.
	if sessions[0].SubjectID != "subject1" {
		t.Errorf("expected first session for 'subject1', got %q", sessions[0].SubjectID)
	}
	if !sessions[1].Start.Before(sessions[2].Start) {
		t.Errorf("expected sessions ordered by start, got %v then %v", sessions[1].Start, sessions[2].Start)
	}
}

func TestSessionWithNote(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	session := createTestSession(t, db, "subject5", time.Date(2023, 5, 11, 9, 0, 0, 0, time.UTC))

	// Without a note the left join yields the empty string.
	start, note, err := db.SessionWithNote(session)
	if err != nil {
		t.Fatalf("SessionWithNote failed: %v", err)
	}
	if note != "" {
		t.Errorf("expected empty note, got %q", note)
	}
	if !start.Equal(session.Start) {
		t.Errorf("expected start %v, got %v", session.Start, start)
	}

	if err := db.SetSessionNote(session, "baseline recording"); err != nil {
		t.Fatalf("SetSessionNote failed: %v", err)
	}
	_, note, err = db.SessionWithNote(session)
	if err != nil {
		t.Fatalf("SessionWithNote failed: %v", err)
	}
	if note != "baseline recording" {
		t.Errorf("expected note 'baseline recording', got %q", note)
	}

	// Setting again replaces the note.
	if err := db.SetSessionNote(session, "re-run after probe adjustment"); err != nil {
		t.Fatalf("SetSessionNote failed: %v", err)
	}
	_, note, err = db.SessionWithNote(session)
	if err != nil {
		t.Fatalf("SessionWithNote failed: %v", err)
	}
	if note != "re-run after probe adjustment" {
		t.Errorf("expected replaced note, got %q", note)
	}
}

func TestSessionWithNoteNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	missing := Session{SubjectID: "ghost", Start: time.Date(2023, 5, 11, 9, 0, 0, 0, time.UTC)}
	_, _, err := db.SessionWithNote(missing)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionExperimentersOrder(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	session := createTestSession(t, db, "subject5", time.Date(2023, 5, 11, 9, 0, 0, 0, time.UTC))

	if err := db.AddSessionExperimenters(session, "Smith", "Jones"); err != nil {
		t.Fatalf("AddSessionExperimenters failed: %v", err)
	}
	if err := db.AddSessionExperimenters(session, "Garcia"); err != nil {
		t.Fatalf("AddSessionExperimenters failed: %v", err)
	}

	names, err := db.SessionExperimenters(session)
	if err != nil {
		t.Fatalf("SessionExperimenters failed: %v", err)
	}
	want := []string{"Smith", "Jones", "Garcia"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestSessionExperimentersEmpty(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	session := createTestSession(t, db, "subject5", time.Date(2023, 5, 11, 9, 0, 0, 0, time.UTC))

	names, err := db.SessionExperimenters(session)
	if err != nil {
		t.Fatalf("SessionExperimenters failed: %v", err)
	}
	if names != nil {
		t.Errorf("expected nil slice for session without experimenters, got %v", names)
	}
}
