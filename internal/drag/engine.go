// Package drag interprets a stream of pointer events against the grid
// layout and decides what a drop means: reorder, merge two cards into a
// new folder, or move into an existing folder. The engine is a pure
// state machine; events carry their own timestamps and rendering is the
// caller's concern.
package drag

import "time"

// Phase is the drag session state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePressed
	PhaseDragging
	PhaseMergeIntent
	PhaseDropped
	PhaseCancelled
)

// Config holds the gesture tunables. Durations gate intent changes so a
// jittery pointer does not flicker between classifications.
type Config struct {
	LongPress           time.Duration // press-and-hold before a drag may start
	MergeZoneInset      float64       // fraction of each edge forming the central merge zone
	MergeDwell          time.Duration // continuous hover over the same merge zone before locking
	MergeCooldown       time.Duration // once locked, suppress re-evaluation for this long
	PlaceholderThrottle time.Duration // minimum interval between placeholder recomputes
	SideHysteresis      float64       // fraction of card width around the midpoint that keeps the last side
}

// DefaultConfig returns the gesture timings used by the grid.
func DefaultConfig() Config {
	return Config{
		LongPress:           90 * time.Millisecond,
		MergeZoneInset:      0.31,
		MergeDwell:          120 * time.Millisecond,
		MergeCooldown:       220 * time.Millisecond,
		PlaceholderThrottle: 80 * time.Millisecond,
		SideHysteresis:      0.20,
	}
}

// CommandKind classifies what a completed drop asks the tree to do.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandReorder
	CommandMergeNewFolder
	CommandMoveIntoFolder
)

// Command is the outcome of a drop. Index is only meaningful for
// CommandReorder and counts positions in the visible list with the
// dragged card excluded.
type Command struct {
	Kind     CommandKind
	SourceID string
	TargetID string
	Index    int
}

// Placeholder marks the current reorder insertion point.
type Placeholder struct {
	Valid bool
	Index int // insertion index in the visible list, source excluded
}

// Engine runs one drag session over a snapshot of card layouts.
type Engine struct {
	cfg   Config
	cards []Card

	phase    Phase
	sourceID string

	pressedAt time.Time

	// Merge intent tracking.
	mergeCandidate string
	mergeSince     time.Time
	mergeTarget    string
	lockedUntil    time.Time

	// Placeholder tracking.
	placeholder   Placeholder
	lastNearestID string
	lastBefore    bool
	lastComputed  time.Time

	dropHandled bool
}

// NewEngine creates an idle engine with the given tunables.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// SetLayout replaces the card layout snapshot. The slice order must
// match the visible list order.
func (e *Engine) SetLayout(cards []Card) {
	e.cards = cards
}

// Phase returns the current session phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// SourceID returns the ID of the card being dragged, if any.
func (e *Engine) SourceID() string {
	return e.sourceID
}

// MergeTarget returns the locked merge target, or "" outside merge
// intent.
func (e *Engine) MergeTarget() string {
	return e.mergeTarget
}

// Placeholder returns the current reorder insertion point. It is
// invalid while merge intent is active.
func (e *Engine) Placeholder() Placeholder {
	return e.placeholder
}

// Press records the pointer going down on a card at time t. The drag
// only arms after the long-press dwell.
func (e *Engine) Press(t time.Time, cardID string) {
	if e.phase != PhaseIdle {
		return
	}
	e.phase = PhasePressed
	e.sourceID = cardID
	e.pressedAt = t
}

// Release handles the pointer going up before a drag started.
func (e *Engine) Release(t time.Time) {
	if e.phase == PhasePressed {
		e.reset()
	}
}

// DragStart begins the drag session. It is ignored unless the pointer
// has been held on the card for at least the long-press dwell.
func (e *Engine) DragStart(t time.Time) bool {
	if e.phase != PhasePressed {
		return false
	}
	if t.Sub(e.pressedAt) < e.cfg.LongPress {
		e.reset()
		return false
	}
	e.phase = PhaseDragging
	return true
}

// Move feeds a pointer position at time t. It updates merge intent and
// the reorder placeholder.
func (e *Engine) Move(t time.Time, p Point) {
	if e.phase != PhaseDragging && e.phase != PhaseMergeIntent {
		return
	}

	hover := e.cardAt(p)
	if hover != nil {
		inner := hover.Rect.Inset(e.cfg.MergeZoneInset)
		if inner.Contains(p) {
			e.trackMergeDwell(t, hover.ID)
			return
		}
	}

	// Edge zone or open grid: fall back to reordering, but an active
	// merge lock holds until its cooldown expires.
	if e.phase == PhaseMergeIntent {
		if t.Before(e.lockedUntil) {
			return
		}
		e.phase = PhaseDragging
		e.mergeTarget = ""
	}
	e.mergeCandidate = ""
	e.updatePlaceholder(t, p)
}

// trackMergeDwell accumulates hover time over a single card's merge
// zone and locks merge intent once the dwell threshold passes.
func (e *Engine) trackMergeDwell(t time.Time, cardID string) {
	if e.phase == PhaseMergeIntent {
		if e.mergeTarget == cardID {
			return
		}
		// The lock also suppresses re-targeting onto another card.
		if t.Before(e.lockedUntil) {
			return
		}
	}
	if e.mergeCandidate != cardID {
		e.mergeCandidate = cardID
		e.mergeSince = t
		return
	}
	if t.Sub(e.mergeSince) >= e.cfg.MergeDwell {
		e.phase = PhaseMergeIntent
		e.mergeTarget = cardID
		e.lockedUntil = t.Add(e.cfg.MergeCooldown)
		// Merge intent removes the reorder placeholder.
		e.placeholder = Placeholder{}
		e.lastNearestID = ""
	}
}

// updatePlaceholder recomputes the insertion point from the nearest
// card, throttled and with side hysteresis around the card midpoint.
func (e *Engine) updatePlaceholder(t time.Time, p Point) {
	if e.placeholder.Valid && t.Sub(e.lastComputed) < e.cfg.PlaceholderThrottle {
		return
	}

	nearest, pos := e.nearestCard(p)
	if nearest == nil {
		// Empty grid (or only the dragged card): drop at the end.
		e.placeholder = Placeholder{Valid: true, Index: e.visibleCount()}
		e.lastComputed = t
		return
	}

	center := nearest.Rect.Center()
	before := p.X < center.X
	if nearest.ID == e.lastNearestID {
		band := nearest.Rect.W * e.cfg.SideHysteresis / 2
		if p.X > center.X-band && p.X < center.X+band {
			before = e.lastBefore
		}
	}

	index := pos
	if !before {
		index++
	}
	e.placeholder = Placeholder{Valid: true, Index: index}
	e.lastNearestID = nearest.ID
	e.lastBefore = before
	e.lastComputed = t
}

// Drop completes the session and returns the resulting command. A
// session produces at most one command; duplicate drop events yield
// CommandNone.
func (e *Engine) Drop(t time.Time) Command {
	if e.dropHandled || (e.phase != PhaseDragging && e.phase != PhaseMergeIntent) {
		return Command{Kind: CommandNone}
	}
	e.dropHandled = true
	merged := e.phase == PhaseMergeIntent
	target := e.mergeTarget
	placeholder := e.placeholder
	source := e.sourceID
	e.phase = PhaseDropped

	if merged && target != "" && target != source {
		if card := e.cardByID(target); card != nil && card.IsFolder {
			return Command{Kind: CommandMoveIntoFolder, SourceID: source, TargetID: target}
		}
		return Command{Kind: CommandMergeNewFolder, SourceID: source, TargetID: target}
	}
	if placeholder.Valid {
		return Command{Kind: CommandReorder, SourceID: source, Index: placeholder.Index}
	}
	return Command{Kind: CommandNone, SourceID: source}
}

// Cancel aborts the session without structural change.
func (e *Engine) Cancel(t time.Time) {
	if e.phase == PhaseIdle {
		return
	}
	e.phase = PhaseCancelled
	e.mergeTarget = ""
	e.placeholder = Placeholder{}
}

// Reset returns the engine to idle for the next session.
func (e *Engine) Reset() {
	e.reset()
}

func (e *Engine) reset() {
	e.phase = PhaseIdle
	e.sourceID = ""
	e.mergeCandidate = ""
	e.mergeTarget = ""
	e.placeholder = Placeholder{}
	e.lastNearestID = ""
	e.lastBefore = false
	e.dropHandled = false
}

// cardAt returns the card under the pointer, skipping the dragged card.
func (e *Engine) cardAt(p Point) *Card {
	for i := range e.cards {
		if e.cards[i].ID == e.sourceID {
			continue
		}
		if e.cards[i].Rect.Contains(p) {
			return &e.cards[i]
		}
	}
	return nil
}

// cardByID looks a card up by ID.
func (e *Engine) cardByID(id string) *Card {
	for i := range e.cards {
		if e.cards[i].ID == id {
			return &e.cards[i]
		}
	}
	return nil
}

// nearestCard returns the card whose center is closest to p and its
// position among the visible cards (source excluded).
func (e *Engine) nearestCard(p Point) (*Card, int) {
	var best *Card
	bestPos := -1
	bestDist := 0.0
	pos := 0
	for i := range e.cards {
		if e.cards[i].ID == e.sourceID {
			continue
		}
		d := distance(p, e.cards[i].Rect.Center())
		if best == nil || d < bestDist {
			best = &e.cards[i]
			bestPos = pos
			bestDist = d
		}
		pos++
	}
	return best, bestPos
}

// visibleCount returns the number of cards excluding the dragged one.
func (e *Engine) visibleCount() int {
	n := 0
	for i := range e.cards {
		if e.cards[i].ID != e.sourceID {
			n++
		}
	}
	return n
}
