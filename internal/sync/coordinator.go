// Package sync coordinates persistence of the bookmark document across
// local storage and an optional remote destination. Saves are debounced
// so bursts of edits collapse into one write; the local store is always
// written first and remains authoritative when the remote fails.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/nikbrunner/tabdeck/internal/remote"
	"github.com/nikbrunner/tabdeck/internal/storage"
)

// DefaultDebounce is the save coalescing window.
const DefaultDebounce = 50 * time.Millisecond

// DefaultWarnCooldown limits how often a failing destination is
// reported to the user.
const DefaultWarnCooldown = 8 * time.Second

// Severity grades a notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

// Notification is a user-facing message about a sync destination.
type Notification struct {
	Destination string
	Severity    Severity
	Message     string
}

// NotifyFunc receives notifications; it must not block.
type NotifyFunc func(Notification)

// Options configures a Coordinator. Data, Local and Scheduler are
// required; Remote is nil in local-only mode.
type Options struct {
	Data      *model.AppData
	Local     storage.Store
	Remote    remote.Remote
	Scheduler Scheduler
	Notify    NotifyFunc

	// OnGistCreated is called with the gist ID assigned on first store,
	// so the caller can persist it into settings.
	OnGistCreated func(id string)

	Debounce     time.Duration
	WarnCooldown time.Duration
	Timeout      time.Duration

	// Now is overridable for cooldown tests.
	Now func() time.Time
}

// SaveOptions tunes a single Save call.
type SaveOptions struct {
	// Immediate bypasses the debounce window and supersedes any pending
	// debounced save.
	Immediate bool
	// NotifyOnError propagates remote failures to the caller instead of
	// swallowing them after the warning.
	NotifyOnError bool
}

type pendingSave struct {
	cancel        func() bool
	waiters       []chan error
	notifyOnError bool
}

// Coordinator owns the in-memory document and schedules its writes.
type Coordinator struct {
	local  storage.Store
	remote remote.Remote
	sched  Scheduler
	notify NotifyFunc
	onGist func(string)

	debounce     time.Duration
	warnCooldown time.Duration
	timeout      time.Duration
	now          func() time.Time

	mu       stdsync.Mutex
	data     *model.AppData
	pending  *pendingSave
	lastWarn map[string]time.Time
	syncing  bool
	gistID   string
}

// NewCoordinator wires a coordinator from opts, applying defaults for
// zero durations.
func NewCoordinator(opts Options) *Coordinator {
	c := &Coordinator{
		local:        opts.Local,
		remote:       opts.Remote,
		sched:        opts.Scheduler,
		notify:       opts.Notify,
		onGist:       opts.OnGistCreated,
		debounce:     opts.Debounce,
		warnCooldown: opts.WarnCooldown,
		timeout:      opts.Timeout,
		now:          opts.Now,
		data:         opts.Data,
		lastWarn:     map[string]time.Time{},
	}
	if c.debounce <= 0 {
		c.debounce = DefaultDebounce
	}
	if c.warnCooldown <= 0 {
		c.warnCooldown = DefaultWarnCooldown
	}
	if c.timeout <= 0 {
		c.timeout = remote.DefaultTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.notify == nil {
		c.notify = func(Notification) {}
	}
	if c.data == nil {
		c.data = model.DefaultData()
	}
	if g, ok := c.remote.(*remote.GistClient); ok {
		c.gistID = g.ID()
	}
	return c
}

// Data returns the live document. Callers mutate it through the model
// operations and then request a Save.
func (c *Coordinator) Data() *model.AppData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

// Save persists the document. Debounced calls within the window
// coalesce into one write and all their channels resolve together;
// Immediate cancels any pending write and runs now. The returned
// channel receives exactly one result.
func (c *Coordinator) Save(opts SaveOptions) <-chan error {
	ch := make(chan error, 1)

	c.mu.Lock()
	if opts.Immediate {
		waiters := []chan error{ch}
		notifyOnError := opts.NotifyOnError
		if c.pending != nil {
			c.pending.cancel()
			waiters = append(waiters, c.pending.waiters...)
			notifyOnError = notifyOnError || c.pending.notifyOnError
			c.pending = nil
		}
		c.mu.Unlock()

		err := c.performSave(notifyOnError)
		for _, w := range waiters {
			w <- err
		}
		return ch
	}

	if c.pending != nil {
		// Restart the window so rapid edits keep coalescing.
		c.pending.cancel()
		c.pending.waiters = append(c.pending.waiters, ch)
		c.pending.notifyOnError = c.pending.notifyOnError || opts.NotifyOnError
		c.pending.cancel = c.sched.Schedule(c.debounce, c.firePending)
		c.mu.Unlock()
		return ch
	}

	p := &pendingSave{
		waiters:       []chan error{ch},
		notifyOnError: opts.NotifyOnError,
	}
	p.cancel = c.sched.Schedule(c.debounce, c.firePending)
	c.pending = p
	c.mu.Unlock()
	return ch
}

// firePending runs the debounced write when the timer elapses.
func (c *Coordinator) firePending() {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	c.mu.Unlock()
	if p == nil {
		return
	}

	err := c.performSave(p.notifyOnError)
	for _, w := range p.waiters {
		w <- err
	}
}

// Flush drains any pending debounced save synchronously. Call it on
// teardown so the last edits reach disk.
func (c *Coordinator) Flush() error {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	c.mu.Unlock()
	if p == nil {
		return nil
	}
	p.cancel()

	err := c.performSave(p.notifyOnError)
	for _, w := range p.waiters {
		w <- err
	}
	return err
}

// performSave writes a snapshot locally and then to the remote. A local
// failure is always returned; a remote failure raises a cooldown-gated
// warning and is returned only when notifyOnError is set.
func (c *Coordinator) performSave(notifyOnError bool) error {
	c.mu.Lock()
	snapshot, err := cloneData(c.data)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if err := c.local.SaveData(snapshot); err != nil {
		c.warn("local", err)
		return fmt.Errorf("save local snapshot: %w", err)
	}
	if c.remote == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.remote.Store(ctx, snapshot); err != nil {
		c.warn(c.remote.Name(), err)
		if notifyOnError {
			return fmt.Errorf("store to %s: %w", c.remote.Name(), err)
		}
		return nil
	}
	c.reportGistID()
	return nil
}

// reportGistID surfaces a freshly assigned gist ID once.
func (c *Coordinator) reportGistID() {
	g, ok := c.remote.(*remote.GistClient)
	if !ok {
		return
	}
	id := g.ID()

	c.mu.Lock()
	changed := id != "" && id != c.gistID
	c.gistID = id
	c.mu.Unlock()

	if changed && c.onGist != nil {
		c.onGist(id)
	}
}

// warn notifies about a failing destination at most once per cooldown
// window. Network-class failures (offline, timeout) report quietly
// since the local snapshot stays authoritative; protocol failures are
// real warnings.
func (c *Coordinator) warn(destination string, err error) {
	now := c.now()

	c.mu.Lock()
	if last, ok := c.lastWarn[destination]; ok && now.Sub(last) < c.warnCooldown {
		c.mu.Unlock()
		return
	}
	c.lastWarn[destination] = now
	c.mu.Unlock()

	severity := SeverityWarning
	switch remote.Classify(err) {
	case remote.ClassNetwork, remote.ClassTimeout:
		severity = SeverityInfo
	}

	c.notify(Notification{
		Destination: destination,
		Severity:    severity,
		Message:     fmt.Sprintf("%s sync failed: %v", destination, err),
	})
}

// Reconcile fetches the remote document and swaps it in when its
// content hash differs from the live document at apply time. The active
// category selection stays local when it still exists remotely.
// Concurrent reconciles are collapsed: a second call while one is in
// flight reports no change.
func (c *Coordinator) Reconcile(ctx context.Context, notifyOnError bool) (bool, error) {
	if c.remote == nil {
		return false, nil
	}

	c.mu.Lock()
	if c.syncing {
		c.mu.Unlock()
		return false, nil
	}
	c.syncing = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.syncing = false
		c.mu.Unlock()
	}()

	fetched, err := c.remote.Fetch(ctx)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return false, nil
		}
		if notifyOnError {
			c.warn(c.remote.Name(), err)
		}
		return false, fmt.Errorf("fetch from %s: %w", c.remote.Name(), err)
	}

	c.mu.Lock()
	if fetched.Hash() == c.data.Hash() {
		c.mu.Unlock()
		return false, nil
	}
	if c.data.CategoryByID(c.data.ActiveCategory) != nil &&
		fetched.CategoryByID(c.data.ActiveCategory) != nil {
		fetched.ActiveCategory = c.data.ActiveCategory
	}
	fetched.EnsureActiveCategory()
	*c.data = *fetched
	c.mu.Unlock()

	if err := c.local.SaveData(fetched); err != nil {
		return true, fmt.Errorf("save reconciled snapshot: %w", err)
	}
	return true, nil
}

// Push overwrites the remote with the local document.
func (c *Coordinator) Push(ctx context.Context) error {
	if c.remote == nil {
		return fmt.Errorf("no remote destination configured")
	}

	c.mu.Lock()
	snapshot, err := cloneData(c.data)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if err := c.remote.Store(ctx, snapshot); err != nil {
		return fmt.Errorf("push to %s: %w", c.remote.Name(), err)
	}
	c.reportGistID()
	return nil
}

// Pull overwrites the local document with the remote one, discarding
// local changes.
func (c *Coordinator) Pull(ctx context.Context) error {
	if c.remote == nil {
		return fmt.Errorf("no remote destination configured")
	}

	fetched, err := c.remote.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("pull from %s: %w", c.remote.Name(), err)
	}

	c.mu.Lock()
	*c.data = *fetched
	c.mu.Unlock()

	if err := c.local.SaveData(fetched); err != nil {
		return fmt.Errorf("save pulled snapshot: %w", err)
	}
	return nil
}

// Merge combines the remote document into the local one and writes the
// result to both sides. Local entries win conflicts; remote-only
// entries are appended.
func (c *Coordinator) Merge(ctx context.Context) error {
	if c.remote == nil {
		return fmt.Errorf("no remote destination configured")
	}

	fetched, err := c.remote.Fetch(ctx)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return c.Push(ctx)
		}
		return fmt.Errorf("fetch from %s: %w", c.remote.Name(), err)
	}

	c.mu.Lock()
	merged := MergeSnapshots(c.data, fetched)
	*c.data = *merged
	snapshot, cloneErr := cloneData(c.data)
	c.mu.Unlock()
	if cloneErr != nil {
		return cloneErr
	}

	if err := c.local.SaveData(snapshot); err != nil {
		return fmt.Errorf("save merged snapshot: %w", err)
	}
	if err := c.remote.Store(ctx, snapshot); err != nil {
		return fmt.Errorf("store merged snapshot to %s: %w", c.remote.Name(), err)
	}
	c.reportGistID()
	return nil
}

// cloneData deep-copies the document so background writes never race
// with ongoing edits.
func cloneData(data *model.AppData) (*model.AppData, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot document: %w", err)
	}
	var clone model.AppData
	if err := json.Unmarshal(raw, &clone); err != nil {
		return nil, fmt.Errorf("snapshot document: %w", err)
	}
	return &clone, nil
}
