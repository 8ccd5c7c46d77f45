package analysis

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ShouldCompareFields decides whether two field identifiers are similar
// enough to warrant a statistical comparison. Identifiers are hierarchical
// '/'-separated paths whose last segment is the human field name; the gate
// accepts exact identifier matches, case-folded last-segment matches, and
// substring relations between the folded segments. Field identifiers vary
// across datasets, so approximate concept matching is intentional: it lets
// dataset/UserAge match other/age while still rejecting unrelated fields
// whose numeric statistics happen to be close.
func ShouldCompareFields(candidateFieldID, rootFieldID string) bool {
	if candidateFieldID == "" || rootFieldID == "" {
		return false
	}
	if candidateFieldID == rootFieldID {
		return true
	}

	candidateName := foldSegment(candidateFieldID)
	rootName := foldSegment(rootFieldID)
	if candidateName == rootName {
		return true
	}
	return strings.Contains(rootName, candidateName) || strings.Contains(candidateName, rootName)
}

func foldSegment(fieldID string) string {
	segments := strings.Split(fieldID, "/")
	return cases.Lower(language.Und).String(segments[len(segments)-1])
}
