package fingerprint

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Document is a raw fingerprint document as stored: arbitrary nested JSON.
type Document map[string]any

// ParseDocument decodes raw JSON into a Document. Numbers are kept as
// json.Number so integer identifiers survive without float rounding.
func ParseDocument(raw []byte) (Document, error) {
	var doc Document
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// StatsBlock locates the statistics mapping at
// fingerprint.recordSet[0].field[0].statistics, accepting both casings of
// the top-level raw-fingerprint key. The second return is false when any
// path segment is missing, not a container, or an empty list.
func (d Document) StatsBlock() (map[string]any, bool) {
	field, ok := d.firstField()
	if !ok {
		return nil, false
	}
	stats, ok := field["statistics"].(map[string]any)
	if !ok {
		return nil, false
	}
	return stats, true
}

// FieldBlock locates the first field mapping of the first record.
func (d Document) FieldBlock() (map[string]any, bool) {
	return d.firstField()
}

func (d Document) firstField() (map[string]any, bool) {
	raw, ok := d["RawFingerprintJson"].(map[string]any)
	if !ok {
		raw, ok = d["rawFingerprintJson"].(map[string]any)
	}
	if !ok {
		return nil, false
	}
	fp, ok := raw["fingerprint"].(map[string]any)
	if !ok {
		return nil, false
	}
	records, ok := fp["recordSet"].([]any)
	if !ok || len(records) == 0 {
		return nil, false
	}
	first, ok := records[0].(map[string]any)
	if !ok {
		return nil, false
	}
	fields, ok := first["field"].([]any)
	if !ok || len(fields) == 0 {
		return nil, false
	}
	field, ok := fields[0].(map[string]any)
	if !ok {
		return nil, false
	}
	return field, true
}

// ExtractStats builds the canonical statistic vector for the document. The
// second return reports whether a statistics block was present at all.
func (d Document) ExtractStats() (StatisticVector, bool) {
	stats, ok := d.StatsBlock()
	if !ok {
		return StatisticVector{}, false
	}
	return VectorFromStats(stats), true
}

// ExtractField builds the field descriptor for the document, degrading to
// empty values when the path is absent. Name defaults to "Unknown" only
// when the field block carries no name key at all; a present empty name
// stays empty.
func (d Document) ExtractField() FieldDescriptor {
	field, ok := d.FieldBlock()
	if !ok {
		return FieldDescriptor{}
	}
	name := "Unknown"
	if value, present := field["name"]; present {
		name = stringValue(value)
	}
	return FieldDescriptor{
		FieldID:     stringValue(field["@id"]),
		Name:        name,
		Description: stringValue(field["description"]),
		DataType:    stringValue(field["dataType"]),
		Unit:        stringValue(field["unit"]),
	}
}

// VectorFromStats maps a raw statistics block onto the ten canonical slots,
// zero-filling anything missing. Percentiles are nested under "percentiles".
func VectorFromStats(stats map[string]any) StatisticVector {
	vector := StatisticVector{
		Min:         numberValue(stats["min"]),
		Max:         numberValue(stats["max"]),
		Mean:        numberValue(stats["mean"]),
		Median:      numberValue(stats["median"]),
		StdDev:      numberValue(stats["stdDev"]),
		UniqueCount: numberValue(stats["uniqueCount"]),
		NullCount:   numberValue(stats["nullCount"]),
	}
	if percentiles, ok := stats["percentiles"].(map[string]any); ok {
		vector.P25 = numberValue(percentiles["p25"])
		vector.P50 = numberValue(percentiles["p50"])
		vector.P75 = numberValue(percentiles["p75"])
	}
	return vector
}

// PercentilesFromStats maps a raw percentiles block (p25/p50/p75 at the
// top level) onto a vector carrying only the percentile slots.
func PercentilesFromStats(percentiles map[string]any) StatisticVector {
	return StatisticVector{
		P25: numberValue(percentiles["p25"]),
		P50: numberValue(percentiles["p50"]),
		P75: numberValue(percentiles["p75"]),
	}
}

func numberValue(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
