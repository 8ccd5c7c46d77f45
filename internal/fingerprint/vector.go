package fingerprint

import "strings"

// StatisticVector is the canonical ten-slot statistic record for one data
// field. Slots absent from the source document are zero.
type StatisticVector struct {
	Min         float64
	Max         float64
	Mean        float64
	Median      float64
	StdDev      float64
	UniqueCount float64
	NullCount   float64
	P25         float64
	P50         float64
	P75         float64
}

// Values returns the statistics in their fixed canonical order:
// min, max, mean, median, stdDev, uniqueCount, nullCount, p25, p50, p75.
func (v StatisticVector) Values() []float64 {
	return []float64{
		v.Min,
		v.Max,
		v.Mean,
		v.Median,
		v.StdDev,
		v.UniqueCount,
		v.NullCount,
		v.P25,
		v.P50,
		v.P75,
	}
}

// PercentileValues returns the lighter-weight percentile triple [p25, p50, p75].
func (v StatisticVector) PercentileValues() []float64 {
	return []float64{v.P25, v.P50, v.P75}
}

// IsZero reports whether every slot is zero, which is what extraction
// produces for documents with no statistics block.
func (v StatisticVector) IsZero() bool {
	return v == StatisticVector{}
}

// FieldDescriptor carries the identifying metadata of a data field.
type FieldDescriptor struct {
	FieldID     string
	Name        string
	Description string
	DataType    string
	Unit        string
}

// LastSegment returns the final '/'-delimited segment of the field id,
// which by convention is the human field name.
func (d FieldDescriptor) LastSegment() string {
	if d.FieldID == "" {
		return ""
	}
	segments := strings.Split(d.FieldID, "/")
	return segments[len(segments)-1]
}

// Fingerprint pairs an identifier with its extracted statistics and field
// descriptor. HasStats distinguishes a genuinely empty statistics block
// from an all-zero one.
type Fingerprint struct {
	ID       string
	Stats    StatisticVector
	HasStats bool
	Field    FieldDescriptor
}
