package nwb

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// Absent optional fields must be omitted entirely, not serialized as null or
// empty values; downstream serializers distinguish absent from empty.
func TestFileOmitsAbsentFields(t *testing.T) {
	file := File{
		SessionID:        "subject5_2023-05-11T14:30:00Z",
		Identifier:       "8e2f0a6e-0000-0000-0000-000000000000",
		SessionStartTime: time.Date(2023, 5, 11, 14, 30, 0, 0, time.UTC),
	}

	data, err := json.Marshal(file)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	for _, field := range []string{"experimenter", "subject", "institution", "lab"} {
		if strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("expected %q to be omitted, got %s", field, data)
		}
	}
	if !strings.Contains(string(data), `"session_description":""`) {
		t.Errorf("expected empty session_description to be present, got %s", data)
	}
}

func TestFileCarriesOffsetStartTime(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	file := File{SessionStartTime: time.Date(2023, 5, 11, 14, 30, 0, 0, time.UTC).In(loc)}

	data, err := json.Marshal(file)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), "2023-05-11T09:30:00-05:00") {
		t.Errorf("expected offset-preserving timestamp, got %s", data)
	}
}
