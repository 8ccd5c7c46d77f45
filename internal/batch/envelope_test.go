package batch

import (
	"testing"
)

func TestParseEnvelopeTopLevel(t *testing.T) {
	raw := []byte(`{
        "experimentId": "exp-42",
        "fingerprints": [
            {"fingerprintId": "fp-1"},
            {"fingerprintId": 77},
            {"fingerprintId": "fp-3"}
        ]
    }`)

	env, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if env.ExperimentID != "exp-42" {
		t.Errorf("experiment id = %q, want exp-42", env.ExperimentID)
	}
	if len(env.CandidateIDs) != 3 {
		t.Fatalf("got %d candidate ids, want 3", len(env.CandidateIDs))
	}
	if env.CandidateIDs[0] != "fp-1" {
		t.Errorf("first id = %v, want fp-1", env.CandidateIDs[0])
	}
	if id, ok := env.CandidateIDs[1].(int64); !ok || id != 77 {
		t.Errorf("second id = %v (%T), want int64 77", env.CandidateIDs[1], env.CandidateIDs[1])
	}

	strs := env.CandidateIDStrings()
	if strs[1] != "77" {
		t.Errorf("string-cast id = %q, want 77", strs[1])
	}
}

func TestParseEnvelopeNestedUnderData(t *testing.T) {
	raw := []byte(`{
        "data": {
            "experimentId": "exp-nested",
            "fingerprints": [{"fingerprintId": "fp-1"}]
        }
    }`)

	env, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if env.ExperimentID != "exp-nested" {
		t.Errorf("experiment id = %q, want exp-nested", env.ExperimentID)
	}
	if len(env.CandidateIDs) != 1 || env.CandidateIDs[0] != "fp-1" {
		t.Errorf("candidate ids = %v", env.CandidateIDs)
	}
}

func TestParseEnvelopeSynthesizesExperimentID(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"fingerprints": [{"fingerprintId": "fp-1"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if env.ExperimentID == "" {
		t.Error("expected synthesized experiment id")
	}

	second, err := ParseEnvelope([]byte(`{"fingerprints": [{"fingerprintId": "fp-1"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if second.ExperimentID == env.ExperimentID {
		t.Error("synthesized ids should be unique per batch")
	}
}

func TestParseEnvelopeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":               `{`,
		"no fingerprints":        `{"experimentId": "x"}`,
		"fingerprints not array": `{"fingerprints": {"fingerprintId": "fp-1"}}`,
	}
	for name, raw := range cases {
		if _, err := ParseEnvelope([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseEnvelopeSkipsEntriesWithoutID(t *testing.T) {
	raw := []byte(`{
        "experimentId": "exp-skip",
        "fingerprints": [
            {"fingerprintId": "a"},
            {"other": "x"},
            "not an object",
            {"fingerprintId": "  "},
            {"fingerprintId": "b"}
        ]
    }`)

	env, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(env.CandidateIDs) != 2 || env.CandidateIDs[0] != "a" || env.CandidateIDs[1] != "b" {
		t.Fatalf("candidate ids = %v, want [a b]", env.CandidateIDs)
	}
	if env.Skipped != 3 {
		t.Errorf("skipped = %d, want 3", env.Skipped)
	}
}

func TestParseEnvelopeFractionalNumericID(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"fingerprints": [{"fingerprintId": 12.5}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id, ok := env.CandidateIDs[0].(float64); !ok || id != 12.5 {
		t.Errorf("id = %v (%T), want float64 12.5", env.CandidateIDs[0], env.CandidateIDs[0])
	}
}
