package autoprice

// ProgressTracker counts completed steps of a run.
// It is not safe for concurrent use; a run has a single writer.
type ProgressTracker struct {
	total     int
	completed int
}

// NewProgressTracker returns a tracker expecting total steps.
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{total: max(total, 0)}
}

// Update records n more completed steps. Non-positive n is ignored, so the
// count never decreases.
func (p *ProgressTracker) Update(n int) {
	if n > 0 {
		p.completed += n
	}
}

// Progress returns the completed share as a percentage, or 0 when the
// tracker expects no steps.
func (p *ProgressTracker) Progress() float64 {
	if p.total == 0 {
		return 0
	}
	return 100 * float64(p.completed) / float64(p.total)
}

// Completed returns the number of completed steps.
func (p *ProgressTracker) Completed() int { return p.completed }

// Total returns the number of expected steps.
func (p *ProgressTracker) Total() int { return p.total }
