package autoprice

import "testing"

func TestProgressTracker(t *testing.T) {
	t.Parallel()

	t.Run("starts at zero", func(t *testing.T) {
		t.Parallel()
		p := NewProgressTracker(12)
		if p.Progress() != 0 || p.Completed() != 0 || p.Total() != 12 {
			t.Errorf("got progress=%v completed=%d total=%d", p.Progress(), p.Completed(), p.Total())
		}
	})

	t.Run("reaches 100 after all steps", func(t *testing.T) {
		t.Parallel()
		docs := 5
		p := NewProgressTracker(2*docs + 2)
		for range 2*docs + 2 {
			p.Update(1)
		}
		if p.Progress() != 100 {
			t.Errorf("Progress() = %v, want 100", p.Progress())
		}
	})

	t.Run("partial", func(t *testing.T) {
		t.Parallel()
		p := NewProgressTracker(4)
		p.Update(1)
		if p.Progress() != 25 {
			t.Errorf("Progress() = %v, want 25", p.Progress())
		}
		p.Update(2)
		if p.Progress() != 75 {
			t.Errorf("Progress() = %v, want 75", p.Progress())
		}
	})

	t.Run("never decreases", func(t *testing.T) {
		t.Parallel()
		p := NewProgressTracker(4)
		p.Update(2)
		p.Update(-1)
		p.Update(0)
		if p.Completed() != 2 {
			t.Errorf("Completed() = %d, want 2", p.Completed())
		}
	})

	t.Run("zero total", func(t *testing.T) {
		t.Parallel()
		p := NewProgressTracker(0)
		p.Update(3)
		if p.Progress() != 0 {
			t.Errorf("Progress() = %v, want 0", p.Progress())
		}
	})

	t.Run("negative total clamps", func(t *testing.T) {
		t.Parallel()
		if got := NewProgressTracker(-3).Total(); got != 0 {
			t.Errorf("Total() = %d, want 0", got)
		}
	})
}
