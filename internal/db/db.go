package db

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

// timeFormat is how session timestamps are stored. All stored instants are
// UTC at second precision so primary-key string comparisons are exact.
const timeFormat = time.RFC3339

type DB struct {
	*sql.DB
}

// NewDB opens the sqlite database at path and ensures the base schema exists.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS subject (
			subject_id        TEXT PRIMARY KEY,
			sex               TEXT NOT NULL DEFAULT 'U',
			species           TEXT,
			description       TEXT,
			date_of_birth     TEXT,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS lab (
			lab_name          TEXT PRIMARY KEY,
			institution       TEXT,
			address           TEXT,
			time_zone         TEXT,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS subject_lab (
			subject_id        TEXT NOT NULL,
			lab_name          TEXT NOT NULL,
			PRIMARY KEY (subject_id, lab_name),
			FOREIGN KEY(subject_id) REFERENCES subject(subject_id),
			FOREIGN KEY(lab_name) REFERENCES lab(lab_name)
		);
		CREATE TABLE IF NOT EXISTS session (
			subject_id        TEXT NOT NULL,
			session_start     TEXT NOT NULL,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (subject_id, session_start),
			FOREIGN KEY(subject_id) REFERENCES subject(subject_id)
		);
		CREATE TABLE IF NOT EXISTS session_note (
			subject_id        TEXT NOT NULL,
			session_start     TEXT NOT NULL,
			note              TEXT NOT NULL,
			PRIMARY KEY (subject_id, session_start),
			FOREIGN KEY(subject_id, session_start) REFERENCES session(subject_id, session_start)
		);
		CREATE TABLE IF NOT EXISTS session_experimenter (
			subject_id        TEXT NOT NULL,
			session_start     TEXT NOT NULL,
			position          INTEGER NOT NULL,
			experimenter      TEXT NOT NULL,
			PRIMARY KEY (subject_id, session_start, position),
			FOREIGN KEY(subject_id, session_start) REFERENCES session(subject_id, session_start)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// OpenDB opens the database without running schema initialization.
// The migrate subcommands use this because migrations manage the schema.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}

// AttachAdminRoutes mounts the debug surface: a tailSQL browser over the
// metadata store and an on-demand backup download.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	// create a tailSQL instance and point it to our DB
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://sessions.db", db.DB, &tailsql.DBOptions{
		Label: "Session Metadata DB",
	})

	// mount the tailSQL server on the debug /tailsql path
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}

		// close the backup file after sending it
		// and remove it from the filesystem
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()

		// Copy the backup file content to the gzip writer
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
