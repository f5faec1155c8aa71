// Package harness launches the external parsing tool under a heap limit.
package harness

// Outcome is the memory search result for a single input file.
type Outcome struct {
	File  string `json:"file"`
	MemMB int    `json:"mem"`
}

// Exceeded reports whether the outcome is the sentinel recorded when no
// probe up to maxMB succeeded.
func (o Outcome) Exceeded(maxMB int) bool {
	return o.MemMB == ExceededSentinel(maxMB)
}

// ExceededSentinel returns the value recorded for files that still fail
// at maxMB.
func ExceededSentinel(maxMB int) int {
	return 2 * maxMB
}
