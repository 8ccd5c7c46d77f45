// Package fingerprint defines the fingerprint document model and the
// extraction rules that turn loosely shaped store documents into canonical
// statistic vectors and field descriptors. Extraction never fails: missing
// or ill-typed path segments degrade to zero values so a malformed document
// yields an empty-but-valid fingerprint.
package fingerprint
