package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Envelope is a parsed inbound batch request. CandidateIDs preserves the
// ids exactly as they appeared in the JSON (strings stay strings, numbers
// stay numbers) so store verification can match either representation.
type Envelope struct {
	ExperimentID string
	CandidateIDs []any
	// Skipped counts fingerprints entries that carried no usable
	// fingerprintId and were dropped during parsing.
	Skipped int
}

// CandidateIDStrings returns the candidate ids rendered as strings, in
// envelope order.
func (e *Envelope) CandidateIDStrings() []string {
	ids := make([]string, len(e.CandidateIDs))
	for i, id := range e.CandidateIDs {
		ids[i] = fmt.Sprintf("%v", id)
	}
	return ids
}

// ParseEnvelope decodes an inbound batch request. The fingerprints array
// may sit at the top level or nested under "data"; each entry carries a
// fingerprintId that may be a string or a number. Entries without a usable
// fingerprintId are dropped, not fatal: the rest of the batch still
// processes. A missing experimentId is synthesized so every batch can be
// tracked through to its result.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var doc map[string]any
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode batch envelope: %w", err)
	}

	entries, ok := fingerprintEntries(doc)
	if !ok {
		return nil, fmt.Errorf("batch envelope has no fingerprints array")
	}

	env := &Envelope{}
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			env.Skipped++
			continue
		}
		id, ok := candidateID(obj)
		if !ok {
			env.Skipped++
			continue
		}
		env.CandidateIDs = append(env.CandidateIDs, id)
	}

	env.ExperimentID = experimentID(doc)
	if env.ExperimentID == "" {
		env.ExperimentID = uuid.NewString()
	}
	return env, nil
}

func fingerprintEntries(doc map[string]any) ([]any, bool) {
	if entries, ok := doc["fingerprints"].([]any); ok {
		return entries, true
	}
	if data, ok := doc["data"].(map[string]any); ok {
		if entries, ok := data["fingerprints"].([]any); ok {
			return entries, true
		}
	}
	return nil, false
}

func candidateID(entry map[string]any) (any, bool) {
	value, ok := entry["fingerprintId"]
	if !ok {
		return nil, false
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, false
		}
		return v, true
	case json.Number:
		// Keep numeric ids numeric; verification casts them when needed.
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		if f, err := v.Float64(); err == nil {
			return f, true
		}
		return v.String(), true
	default:
		return nil, false
	}
}

func experimentID(doc map[string]any) string {
	if id, ok := doc["experimentId"].(string); ok && strings.TrimSpace(id) != "" {
		return id
	}
	if data, ok := doc["data"].(map[string]any); ok {
		if id, ok := data["experimentId"].(string); ok && strings.TrimSpace(id) != "" {
			return id
		}
	}
	return ""
}
