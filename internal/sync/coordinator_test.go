package sync

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/nikbrunner/tabdeck/internal/remote"
)

// fakeScheduler records scheduled tasks and fires them on demand.
type fakeScheduler struct {
	tasks []*fakeTask
}

type fakeTask struct {
	fn        func()
	cancelled bool
	fired     bool
}

func (s *fakeScheduler) Schedule(d time.Duration, fn func()) func() bool {
	t := &fakeTask{fn: fn}
	s.tasks = append(s.tasks, t)
	return func() bool {
		if t.fired {
			return false
		}
		t.cancelled = true
		return true
	}
}

// fire runs the most recently scheduled live task.
func (s *fakeScheduler) fire(t *testing.T) {
	t.Helper()
	for i := len(s.tasks) - 1; i >= 0; i-- {
		task := s.tasks[i]
		if !task.cancelled && !task.fired {
			task.fired = true
			task.fn()
			return
		}
	}
	t.Fatal("no live task to fire")
}

func (s *fakeScheduler) live() int {
	n := 0
	for _, task := range s.tasks {
		if !task.cancelled && !task.fired {
			n++
		}
	}
	return n
}

// memStore is an in-memory storage.Store.
type memStore struct {
	data    *model.AppData
	saves   int
	saveErr error
	blobs   map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{blobs: map[string][]byte{}}
}

func (s *memStore) LoadData() (*model.AppData, error) { return s.data, nil }

func (s *memStore) SaveData(data *model.AppData) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.data = data
	return nil
}

func (s *memStore) LoadBlob(key string) ([]byte, bool, error) {
	v, ok := s.blobs[key]
	return v, ok, nil
}

func (s *memStore) SaveBlob(key string, data []byte) error {
	s.blobs[key] = data
	return nil
}

// fakeRemote is an in-memory remote.Remote with injectable failures.
type fakeRemote struct {
	doc      *model.AppData
	stores   int
	storeErr error
	fetchErr error
}

func (r *fakeRemote) Name() string { return "fake" }

func (r *fakeRemote) Fetch(ctx context.Context) (*model.AppData, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	if r.doc == nil {
		return nil, remote.ErrNotFound
	}
	return cloneData(r.doc)
}

func (r *fakeRemote) Store(ctx context.Context, data *model.AppData) error {
	if r.storeErr != nil {
		return r.storeErr
	}
	r.stores++
	clone, err := cloneData(data)
	if err != nil {
		return err
	}
	r.doc = clone
	return nil
}

func testCoordinator(t *testing.T, rem remote.Remote) (*Coordinator, *memStore, *fakeScheduler) {
	t.Helper()
	store := newMemStore()
	sched := &fakeScheduler{}
	c := NewCoordinator(Options{
		Data:      model.DefaultData(),
		Local:     store,
		Remote:    rem,
		Scheduler: sched,
	})
	return c, store, sched
}

func recvErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(time.Second):
		t.Fatal("save channel never resolved")
		return nil
	}
}

func TestSave_DebounceCoalesces(t *testing.T) {
	c, store, sched := testCoordinator(t, nil)

	ch1 := c.Save(SaveOptions{})
	ch2 := c.Save(SaveOptions{})
	ch3 := c.Save(SaveOptions{})

	if store.saves != 0 {
		t.Fatalf("wrote before the window elapsed: %d saves", store.saves)
	}
	if sched.live() != 1 {
		t.Fatalf("live timers = %d, want 1", sched.live())
	}

	sched.fire(t)

	for i, ch := range []<-chan error{ch1, ch2, ch3} {
		if err := recvErr(t, ch); err != nil {
			t.Errorf("caller %d got error: %v", i, err)
		}
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1 coalesced write", store.saves)
	}
}

func TestSave_ImmediateSupersedesPending(t *testing.T) {
	c, store, sched := testCoordinator(t, nil)

	pending := c.Save(SaveOptions{})
	now := c.Save(SaveOptions{Immediate: true})

	if err := recvErr(t, now); err != nil {
		t.Fatalf("immediate save failed: %v", err)
	}
	if err := recvErr(t, pending); err != nil {
		t.Fatalf("pending caller must resolve with the immediate write: %v", err)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
	if sched.live() != 0 {
		t.Errorf("pending timer not cancelled")
	}
}

func TestFlush_DrainsPending(t *testing.T) {
	c, store, _ := testCoordinator(t, nil)

	ch := c.Save(SaveOptions{})
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if err := recvErr(t, ch); err != nil {
		t.Errorf("pending caller got error: %v", err)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}

	// Nothing pending: Flush is a no-op.
	if err := c.Flush(); err != nil {
		t.Fatalf("idle Flush failed: %v", err)
	}
	if store.saves != 1 {
		t.Errorf("idle flush wrote again")
	}
}

func TestSave_LocalFirstThenRemote(t *testing.T) {
	rem := &fakeRemote{}
	c, store, _ := testCoordinator(t, rem)

	if err := recvErr(t, c.Save(SaveOptions{Immediate: true})); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if store.saves != 1 || rem.stores != 1 {
		t.Errorf("saves local=%d remote=%d, want 1/1", store.saves, rem.stores)
	}
	if rem.doc.Hash() != c.Data().Hash() {
		t.Error("remote copy diverged from the live document")
	}
}

func TestSave_RemoteFailureIsNonFatal(t *testing.T) {
	rem := &fakeRemote{storeErr: errors.New("boom")}
	store := newMemStore()
	sched := &fakeScheduler{}

	var notes []Notification
	now := time.Unix(1000, 0)
	c := NewCoordinator(Options{
		Data:      model.DefaultData(),
		Local:     store,
		Remote:    rem,
		Scheduler: sched,
		Notify:    func(n Notification) { notes = append(notes, n) },
		Now:       func() time.Time { return now },
	})

	// Without NotifyOnError the caller sees success; the local write
	// still happened and a warning was raised.
	if err := recvErr(t, c.Save(SaveOptions{Immediate: true})); err != nil {
		t.Fatalf("remote failure must not fail the save: %v", err)
	}
	if store.saves != 1 {
		t.Errorf("local saves = %d, want 1", store.saves)
	}
	if len(notes) != 1 || notes[0].Severity != SeverityWarning {
		t.Fatalf("notifications = %+v, want one warning", notes)
	}

	// Inside the cooldown window the warning is suppressed.
	now = now.Add(3 * time.Second)
	err := recvErr(t, c.Save(SaveOptions{Immediate: true, NotifyOnError: true}))
	if err == nil {
		t.Fatal("NotifyOnError must surface the remote failure")
	}
	if len(notes) != 1 {
		t.Errorf("notifications = %d, want cooldown to suppress the second", len(notes))
	}

	// After the cooldown it fires again.
	now = now.Add(DefaultWarnCooldown)
	_ = recvErr(t, c.Save(SaveOptions{Immediate: true}))
	if len(notes) != 2 {
		t.Errorf("notifications = %d, want 2 after cooldown", len(notes))
	}
}

func TestSave_NotificationSeverityFollowsErrorClass(t *testing.T) {
	rem := &fakeRemote{}
	store := newMemStore()
	var notes []Notification
	now := time.Unix(1000, 0)
	c := NewCoordinator(Options{
		Data:      model.DefaultData(),
		Local:     store,
		Remote:    rem,
		Scheduler: &fakeScheduler{},
		Notify:    func(n Notification) { notes = append(notes, n) },
		Now:       func() time.Time { return now },
	})

	// A transport failure (offline endpoint) reports quietly.
	rem.storeErr = &url.Error{Op: "Put", URL: "https://dav.example.com/", Err: errors.New("connection refused")}
	_ = recvErr(t, c.Save(SaveOptions{Immediate: true}))
	if len(notes) != 1 || notes[0].Severity != SeverityInfo {
		t.Fatalf("network failure: notes = %+v, want one info", notes)
	}

	// So does a deadline hit.
	now = now.Add(DefaultWarnCooldown)
	rem.storeErr = context.DeadlineExceeded
	_ = recvErr(t, c.Save(SaveOptions{Immediate: true}))
	if len(notes) != 2 || notes[1].Severity != SeverityInfo {
		t.Fatalf("timeout: notes = %+v, want a second info", notes)
	}

	// A protocol failure is a real warning.
	now = now.Add(DefaultWarnCooldown)
	rem.storeErr = &remote.ProtocolError{Status: 500}
	_ = recvErr(t, c.Save(SaveOptions{Immediate: true}))
	if len(notes) != 3 || notes[2].Severity != SeverityWarning {
		t.Fatalf("protocol failure: notes = %+v, want a warning last", notes)
	}
}

func TestReconcile_SwapsOnDifferingHash(t *testing.T) {
	rem := &fakeRemote{}
	c, store, _ := testCoordinator(t, rem)

	remoteDoc, err := cloneData(c.Data())
	if err != nil {
		t.Fatal(err)
	}
	remoteDoc.Categories[0].Bookmarks = append(remoteDoc.Categories[0].Bookmarks,
		model.NewLink(model.NewLinkParams{Title: "Remote only", URL: "https://example.com"}))
	other := model.NewCategory("Remote")
	remoteDoc.Categories = append(remoteDoc.Categories, other)
	remoteDoc.ActiveCategory = other.ID
	rem.doc = remoteDoc

	localActive := c.Data().ActiveCategory
	changed, err := c.Reconcile(context.Background(), false)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !changed {
		t.Fatal("expected the remote document to be applied")
	}
	if c.Data().ActiveCategory != localActive {
		t.Error("active category must stay local when it still exists remotely")
	}
	if len(c.Data().Categories) != 2 {
		t.Errorf("categories = %d, want 2", len(c.Data().Categories))
	}
	if store.saves != 1 {
		t.Errorf("reconciled snapshot not written locally: saves = %d", store.saves)
	}
}

func TestReconcile_NoOpOnEqualHash(t *testing.T) {
	rem := &fakeRemote{}
	c, store, _ := testCoordinator(t, rem)

	doc, err := cloneData(c.Data())
	if err != nil {
		t.Fatal(err)
	}
	// Transient presentation fields differ but the content hash matches.
	doc.UIOpacity = 0.5
	rem.doc = doc

	changed, err := c.Reconcile(context.Background(), false)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if changed {
		t.Error("equal content hash must not swap the document")
	}
	if store.saves != 0 {
		t.Errorf("no-op reconcile wrote locally: saves = %d", store.saves)
	}
}

func TestReconcile_MissingRemoteIsQuiet(t *testing.T) {
	c, _, _ := testCoordinator(t, &fakeRemote{})
	changed, err := c.Reconcile(context.Background(), false)
	if err != nil || changed {
		t.Fatalf("empty remote: changed=%v err=%v, want false/nil", changed, err)
	}
}

func TestReconcile_FailureFallsBackSilently(t *testing.T) {
	rem := &fakeRemote{fetchErr: errors.New("offline")}
	store := newMemStore()
	var notes []Notification
	c := NewCoordinator(Options{
		Data:      model.DefaultData(),
		Local:     store,
		Remote:    rem,
		Scheduler: &fakeScheduler{},
		Notify:    func(n Notification) { notes = append(notes, n) },
	})

	changed, err := c.Reconcile(context.Background(), false)
	if changed || err == nil {
		t.Fatalf("changed=%v err=%v, want false and an error", changed, err)
	}
	if len(notes) != 0 {
		t.Errorf("silent reconcile must not notify, got %+v", notes)
	}

	if _, err := c.Reconcile(context.Background(), true); err == nil {
		t.Fatal("expected error")
	}
	if len(notes) != 1 {
		t.Errorf("notifyOnError reconcile must warn, got %d notes", len(notes))
	}
}

func TestPushPull(t *testing.T) {
	rem := &fakeRemote{}
	c, store, _ := testCoordinator(t, rem)

	if err := c.Push(context.Background()); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if rem.doc == nil || rem.doc.Hash() != c.Data().Hash() {
		t.Fatal("push did not copy the local document to the remote")
	}

	rem.doc.Categories[0].Name = "Renamed remotely"
	rem.doc.Categories[0].Bookmarks = nil

	if err := c.Pull(context.Background()); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}
	if c.Data().Categories[0].Name != "Renamed remotely" {
		t.Error("pull must overwrite the local document")
	}
	if store.saves == 0 {
		t.Error("pulled snapshot not written locally")
	}
}

func TestMerge_EmptyRemoteBecomesPush(t *testing.T) {
	rem := &fakeRemote{}
	c, _, _ := testCoordinator(t, rem)

	if err := c.Merge(context.Background()); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if rem.doc == nil {
		t.Fatal("merge against an empty remote must push the local document")
	}
}

func TestMergeSnapshots(t *testing.T) {
	shared := model.NewCategory("Shared")
	localOnly := model.NewLink(model.NewLinkParams{Title: "Local", URL: "https://l"})
	common := model.NewLink(model.NewLinkParams{Title: "Common", URL: "https://c"})
	shared.Bookmarks = []model.Node{localOnly, common}

	local := &model.AppData{Categories: []model.Category{shared}, ActiveCategory: shared.ID}

	remoteShared := model.Category{ID: shared.ID, Name: "Shared (remote rename)"}
	remoteCommon := common
	remoteCommon.Title = "Common (remote edit)"
	remoteOnly := model.NewLink(model.NewLinkParams{Title: "Remote", URL: "https://r"})
	remoteShared.Bookmarks = []model.Node{remoteCommon, remoteOnly}

	extraCat := model.NewCategory("Remote extra")
	// The local-only link also shows up inside the remote extra
	// category, as if it had been moved remotely; it must not duplicate.
	moved := localOnly
	extraCat.Bookmarks = []model.Node{
		moved,
		model.NewLink(model.NewLinkParams{Title: "Extra", URL: "https://e"}),
	}

	rem := &model.AppData{
		Categories:     []model.Category{remoteShared, extraCat},
		ActiveCategory: extraCat.ID,
	}

	merged := MergeSnapshots(local, rem)

	if merged.ActiveCategory != shared.ID {
		t.Error("active category must stay local")
	}
	if len(merged.Categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(merged.Categories))
	}
	if merged.Categories[0].Name != "Shared" {
		t.Error("local category name must win")
	}

	titles := map[string]int{}
	for _, links := range merged.AllLinks() {
		titles[links.Title]++
	}
	for _, want := range []string{"Local", "Common", "Remote", "Extra"} {
		if titles[want] != 1 {
			t.Errorf("link %q appears %d times, want exactly once", want, titles[want])
		}
	}
	if titles["Common (remote edit)"] != 0 {
		t.Error("local edit of a shared node must win")
	}

	// Deterministic: merging the same inputs twice hashes identically.
	if merged.Hash() != MergeSnapshots(local, rem).Hash() {
		t.Error("merge is not deterministic")
	}
}

func TestGistIDReported(t *testing.T) {
	// A coordinator around a gist remote reports the assigned ID once.
	var reported []string
	store := newMemStore()
	g := &gistIDRemote{}
	c := NewCoordinator(Options{
		Data:          model.DefaultData(),
		Local:         store,
		Remote:        g,
		Scheduler:     &fakeScheduler{},
		OnGistCreated: func(id string) { reported = append(reported, id) },
	})

	// Non-gist remotes never trigger the callback.
	if err := recvErr(t, c.Save(SaveOptions{Immediate: true})); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if len(reported) != 0 {
		t.Errorf("callback fired for a non-gist remote: %v", reported)
	}
}

// gistIDRemote is a plain remote; the ID callback must ignore it.
type gistIDRemote struct{ fakeRemote }
