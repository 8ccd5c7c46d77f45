// Package analysis implements the fingerprint similarity engine: the
// field-compatibility gate that decides whether two fields are comparable
// at all, the 1-Wasserstein distance between statistic vectors, and the
// candidate ranker that selects the closest and farthest candidates
// against a set of root fingerprints.
package analysis
