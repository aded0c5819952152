package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/alnah/go-autoprice"
)

// progressDisplay draws run progress on a terminal. Disabled displays
// ignore every event.
type progressDisplay struct {
	w       io.Writer
	enabled bool
	bar     *progressbar.ProgressBar
}

func newProgressDisplay(w io.Writer, enabled bool) *progressDisplay {
	return &progressDisplay{w: w, enabled: enabled}
}

// update is an autoprice.ProgressFunc. The bar is created once the run
// knows how many steps it has.
func (d *progressDisplay) update(p autoprice.Progress) {
	if !d.enabled || p.Total == 0 {
		return
	}
	label := fmt.Sprintf("%-11s", p.Stage)
	if d.bar == nil {
		d.bar = progressbar.NewOptions(p.Total,
			progressbar.OptionSetWriter(d.w),
			progressbar.OptionSetDescription(label),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
	}
	d.bar.Describe(label)
	_ = d.bar.Set(p.Completed)
}

// finish clears the bar from the terminal.
func (d *progressDisplay) finish() {
	if d.bar != nil {
		_ = d.bar.Finish()
	}
}
