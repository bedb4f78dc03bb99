// Package classify follows a server-side classification job from the client:
// it starts the job, then polls status and incremental image updates until
// every image settles in a terminal state.
package classify

// Summary is the per-status image count reported by the batch status
// endpoint. The sum of all counts equals the batch size at every
// observation; convergence toward terminal states is expected but not
// enforced client-side.
type Summary struct {
	Staged      int `json:"staged"`
	Uploaded    int `json:"uploaded"`
	Classifying int `json:"classifying"`
	Assigned    int `json:"assigned"`
	Rejected    int `json:"rejected"`
	Unmatched   int `json:"unmatched"`
	InvalidEXIF int `json:"invalid_exif"`
	Duplicate   int `json:"duplicate"`
}

// Total is the batch size implied by the summary.
func (s Summary) Total() int {
	return s.Staged + s.Uploaded + s.Classifying + s.Assigned +
		s.Rejected + s.Unmatched + s.InvalidEXIF + s.Duplicate
}

// Pending counts images that have not reached a terminal state yet.
func (s Summary) Pending() int {
	return s.Staged + s.Uploaded + s.Classifying
}

// Done reports whether every image of a non-empty batch is terminal.
func (s Summary) Done() bool {
	return s.Total() > 0 && s.Pending() == 0
}
