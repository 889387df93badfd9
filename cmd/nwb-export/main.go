// Command nwb-export runs the session-to-NWB metadata aggregation once and
// writes the resulting artifact as JSON.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/neuro-elements/session-export/internal/config"
	"github.com/neuro-elements/session-export/internal/db"
	"github.com/neuro-elements/session-export/internal/export"
)

func main() {
	var dbPath string
	var subject string
	var startStr string
	var lab string
	var subjectID string
	var configPath string
	var outPath string

	flag.StringVar(&dbPath, "db", "sessions.db", "path to sqlite metadata db")
	flag.StringVar(&subject, "subject", "", "subject id component of the session key")
	flag.StringVar(&startStr, "start", "", "session start time component of the session key (RFC3339)")
	flag.StringVar(&lab, "lab", "", "lab name to narrow the session key when a subject has multiple lab affiliations")
	flag.StringVar(&subjectID, "subject-id", "", "explicit subject id, required when the subject provider is disabled")
	flag.StringVar(&configPath, "config", "", "path to export config JSON")
	flag.StringVar(&outPath, "o", "", "write the artifact to this file instead of stdout")
	flag.Parse()

	if subject == "" && startStr == "" {
		log.Fatalf("at least one of -subject or -start must be provided")
	}

	key := db.SessionKey{Subject: subject, Lab: lab}
	if startStr != "" {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			log.Fatalf("invalid start: %v", err)
		}
		key.Start = &start
	}

	cfg := config.EmptyExportConfig()
	if configPath != "" {
		var err error
		cfg, err = config.LoadExportConfig(configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	dbConn, err := db.NewDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	var subjects export.SubjectProvider = export.NoSubjects{}
	var labs export.LabProvider = export.NoLabs{}
	if cfg.GetSubjectProvider() {
		subjects = export.StoreSubjects{DB: dbConn}
	}
	if cfg.GetLabProvider() {
		labs = export.StoreLabs{DB: dbConn}
	}

	exporter := export.New(dbConn, subjects, labs, cfg.GetDisplayTimeZone())

	file, err := exporter.SessionToNWB(key, subjectID)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(file); err != nil {
		log.Fatalf("encode artifact: %v", err)
	}
}
