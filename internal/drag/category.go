package drag

import "time"

// CategoryEngine is the parallel, simpler machine for reordering the
// category tabs. There is no merge semantics and no nesting: hovering
// only ever tracks an insertion point among siblings. Dragging is
// disabled entirely while a single category exists.
type CategoryEngine struct {
	cfg   Config
	tabs  []Card
	phase Phase

	sourceID    string
	pressedAt   time.Time
	index       int
	dropHandled bool
}

// NewCategoryEngine creates an idle category drag machine.
func NewCategoryEngine(cfg Config) *CategoryEngine {
	return &CategoryEngine{cfg: cfg, index: -1}
}

// SetLayout replaces the tab layout snapshot, in display order.
func (e *CategoryEngine) SetLayout(tabs []Card) {
	e.tabs = tabs
}

// Phase returns the current session phase.
func (e *CategoryEngine) Phase() Phase {
	return e.phase
}

// Index returns the current insertion index, or -1 when not dragging.
func (e *CategoryEngine) Index() int {
	return e.index
}

// Press records the pointer going down on a tab.
func (e *CategoryEngine) Press(t time.Time, tabID string) {
	if e.phase != PhaseIdle || len(e.tabs) < 2 {
		return
	}
	e.phase = PhasePressed
	e.sourceID = tabID
	e.pressedAt = t
}

// DragStart begins the session after the long-press dwell.
func (e *CategoryEngine) DragStart(t time.Time) bool {
	if e.phase != PhasePressed || t.Sub(e.pressedAt) < e.cfg.LongPress {
		e.Reset()
		return false
	}
	e.phase = PhaseDragging
	return true
}

// Move tracks the insertion point: the number of other tabs whose
// center lies left of the pointer.
func (e *CategoryEngine) Move(t time.Time, p Point) {
	if e.phase != PhaseDragging {
		return
	}
	index := 0
	for i := range e.tabs {
		if e.tabs[i].ID == e.sourceID {
			continue
		}
		if e.tabs[i].Rect.Center().X < p.X {
			index++
		}
	}
	e.index = index
}

// Drop completes the session, returning a reorder command or none.
func (e *CategoryEngine) Drop(t time.Time) Command {
	if e.dropHandled || e.phase != PhaseDragging || e.index < 0 {
		return Command{Kind: CommandNone}
	}
	e.dropHandled = true
	e.phase = PhaseDropped
	return Command{Kind: CommandReorder, SourceID: e.sourceID, Index: e.index}
}

// Cancel aborts the session.
func (e *CategoryEngine) Cancel(t time.Time) {
	if e.phase == PhaseIdle {
		return
	}
	e.phase = PhaseCancelled
	e.index = -1
}

// Reset returns the machine to idle.
func (e *CategoryEngine) Reset() {
	e.phase = PhaseIdle
	e.sourceID = ""
	e.index = -1
	e.dropHandled = false
}
