package tui

import (
	"time"

	"github.com/sadopc/shiftr/internal/clock"
)

// timerModel holds the latest live status of the acting employee. The
// controller computes every figure; the model only keeps the last one.
type timerModel struct {
	status clock.LiveStatus
}

func (t *timerModel) apply(st clock.LiveStatus) {
	t.status = st
}

func (t *timerModel) reset() {
	t.status = clock.LiveStatus{}
}

func (t timerModel) running() bool {
	return t.status.State != clock.Inactive
}

func (t timerModel) onBreak() bool {
	return t.status.State == clock.OnBreak
}

func (t timerModel) work() time.Duration    { return t.status.Totals.Work }
func (t timerModel) breaks() time.Duration  { return t.status.Totals.Break }
func (t timerModel) session() time.Duration { return t.status.Totals.Session }

func (t timerModel) taskTitle() string { return t.status.TaskTitle }

func (t timerModel) taskElapsed() time.Duration { return t.status.TaskElapsed }

// indicator is the short state label shown in the dashboard and footer.
func (t timerModel) indicator() string {
	switch t.status.State {
	case clock.OnBreak:
		return warningStyle.Render("⏸  ON BREAK")
	case clock.ActiveWithTask:
		return successStyle.Render("●  WORKING")
	case clock.ActiveNoTask:
		return highlightStyle.Render("●  CHECKED IN")
	}
	return mutedStyle.Render("■  CHECKED OUT")
}
