package tui

import (
	"net/url"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/nikbrunner/tabdeck/internal/search"
)

// mode selects which input surface owns the keyboard.
type mode int

const (
	modeList mode = iota
	modeSearch
	modeAddURL
	modeRename
)

// App is the main bubbletea model for the bookmark deck.
type App struct {
	data   *model.AppData
	keys   KeyMap
	styles Styles

	// requestSave schedules a debounced save after a mutation; syncNow
	// forces an immediate one and returns a status line.
	requestSave func()
	syncNow     func() string

	// Navigation state
	folderStack []string // IDs of entered folders, outermost first
	cursor      int
	items       []Item

	mode    mode
	input   textinput.Model
	results []search.Result
	resCur  int

	status      string
	showHelp    bool
	lastKeyWasG bool

	width  int
	height int
}

// AppParams holds parameters for creating a new App.
type AppParams struct {
	Data        *model.AppData
	RequestSave func()        // optional
	SyncNow     func() string // optional
	Keys        *KeyMap       // optional, uses default if nil
	Styles      *Styles       // optional, uses default if nil
}

// NewApp creates a new App with the given parameters.
func NewApp(params AppParams) App {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}

	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}

	input := textinput.New()
	input.CharLimit = 512

	app := App{
		data:        params.Data,
		keys:        keys,
		styles:      styles,
		requestSave: params.RequestSave,
		syncNow:     params.SyncNow,
		input:       input,
		width:       80,
		height:      24,
	}

	app.refreshItems()
	return app
}

// currentList resolves the displayed node list: the active category
// root, or the children of the innermost entered folder. A folder that
// vanished underneath us (dissolve, remote reconcile) truncates the
// stack back to the last list that still exists.
func (a *App) currentList() []model.Node {
	list := a.data.Active().Bookmarks
	for depth, id := range a.folderStack {
		found := false
		for i := range list {
			if list[i].ID == id && list[i].IsFolder() {
				list = list[i].Children
				found = true
				break
			}
		}
		if !found {
			a.folderStack = a.folderStack[:depth]
			break
		}
	}
	return list
}

// refreshItems rebuilds the items slice from the current list.
func (a *App) refreshItems() {
	list := a.currentList()
	a.items = make([]Item, len(list))
	for i := range list {
		a.items[i] = Item{Node: &list[i]}
	}
	if a.cursor >= len(a.items) {
		a.cursor = len(a.items) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// Items returns the current list of items.
func (a App) Items() []Item {
	return a.items
}

// FolderStack returns the entered-folder trail.
func (a App) FolderStack() []string {
	return a.folderStack
}

// selected returns the item under the cursor, or false on an empty
// list.
func (a *App) selected() (Item, bool) {
	if len(a.items) == 0 || a.cursor >= len(a.items) {
		return Item{}, false
	}
	return a.items[a.cursor], true
}

// mutated schedules a save and rebuilds the list after a tree change.
func (a *App) mutated() {
	a.refreshItems()
	if a.requestSave != nil {
		a.requestSave()
	}
}

// parentFolderID returns the folder the displayed list belongs to, ""
// at a category root.
func (a *App) parentFolderID() string {
	if len(a.folderStack) == 0 {
		return ""
	}
	return a.folderStack[len(a.folderStack)-1]
}

// DataReloadedMsg signals that the document was swapped underneath the
// UI, e.g. by a background remote reconcile.
type DataReloadedMsg struct{}

// SyncWarningMsg carries a destination warning from the persistence
// layer into the status line.
type SyncWarningMsg string

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case DataReloadedMsg:
		a.refreshItems()
		a.status = "updated from remote"
		return a, nil

	case SyncWarningMsg:
		a.status = string(msg)
		return a, nil

	case tea.KeyMsg:
		if a.mode != modeList {
			return a.updateInput(msg)
		}
		return a.updateList(msg)
	}

	return a, nil
}

// updateList handles keys in normal list mode.
func (a App) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.status = ""

	// Handle gg sequence
	if key.Matches(msg, a.keys.Top) {
		if a.lastKeyWasG {
			a.cursor = 0
			a.lastKeyWasG = false
			return a, nil
		}
		a.lastKeyWasG = true
		return a, nil
	}
	a.lastKeyWasG = false

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.showHelp = !a.showHelp

	case key.Matches(msg, a.keys.Down):
		if len(a.items) > 0 && a.cursor < len(a.items)-1 {
			a.cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, a.keys.Bottom):
		if len(a.items) > 0 {
			a.cursor = len(a.items) - 1
		}

	case key.Matches(msg, a.keys.Right):
		if item, ok := a.selected(); ok && item.IsFolder() {
			a.folderStack = append(a.folderStack, item.ID())
			a.cursor = 0
			a.refreshItems()
		}

	case key.Matches(msg, a.keys.Left):
		if len(a.folderStack) > 0 {
			a.folderStack = a.folderStack[:len(a.folderStack)-1]
			a.cursor = 0
			a.refreshItems()
		}

	case key.Matches(msg, a.keys.NextCategory):
		a.switchCategory(1)

	case key.Matches(msg, a.keys.PrevCategory):
		a.switchCategory(-1)

	case key.Matches(msg, a.keys.MoveDown):
		a.moveSelected(1)

	case key.Matches(msg, a.keys.MoveUp):
		a.moveSelected(-1)

	case key.Matches(msg, a.keys.MergePair):
		a.mergeWithNext()

	case key.Matches(msg, a.keys.Delete):
		if item, ok := a.selected(); ok {
			parent := a.parentFolderID()
			if _, removed := a.data.RemoveByID(item.ID()); removed {
				if parent != "" {
					a.data.DissolveIfNeeded(parent)
				}
				a.mutated()
			}
		}

	case key.Matches(msg, a.keys.YankURL):
		if item, ok := a.selected(); ok && !item.IsFolder() {
			if err := clipboard.WriteAll(item.Node.URL); err != nil {
				a.status = "clipboard unavailable"
			} else {
				a.status = "yanked " + item.Node.URL
			}
		}

	case key.Matches(msg, a.keys.AddLink):
		a.mode = modeAddURL
		a.input.Placeholder = "https://"
		a.input.SetValue("")
		a.input.Focus()

	case key.Matches(msg, a.keys.Rename):
		if item, ok := a.selected(); ok {
			a.mode = modeRename
			a.input.Placeholder = ""
			a.input.SetValue(item.Title())
			a.input.Focus()
		}

	case key.Matches(msg, a.keys.Search):
		a.mode = modeSearch
		a.input.Placeholder = "search all links"
		a.input.SetValue("")
		a.input.Focus()
		a.results = nil
		a.resCur = 0

	case key.Matches(msg, a.keys.SyncNow):
		if a.syncNow != nil {
			a.status = a.syncNow()
		}
	}

	return a, nil
}

// updateInput handles keys while the text input or search overlay is
// open.
func (a App) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.closeInput()
		return a, nil

	case tea.KeyEnter:
		a.submitInput()
		return a, nil

	case tea.KeyDown, tea.KeyCtrlN:
		if a.mode == modeSearch && a.resCur < len(a.results)-1 {
			a.resCur++
		}
		return a, nil

	case tea.KeyUp, tea.KeyCtrlP:
		if a.mode == modeSearch && a.resCur > 0 {
			a.resCur--
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if a.mode == modeSearch {
		a.results = search.FuzzySearchLinks(a.data, a.input.Value())
		a.resCur = 0
	}
	return a, cmd
}

func (a *App) closeInput() {
	a.mode = modeList
	a.input.Blur()
	a.results = nil
}

// submitInput applies the pending input action.
func (a *App) submitInput() {
	value := a.input.Value()

	switch a.mode {
	case modeAddURL:
		if value != "" {
			title := value
			if u, err := url.Parse(value); err == nil && u.Host != "" {
				title = u.Host
			}
			a.data.AddLink(model.NewLinkParams{Title: title, URL: value})
			a.mutated()
		}

	case modeRename:
		if item, ok := a.selected(); ok && value != "" {
			if err := a.data.RenameNode(item.ID(), value); err == nil {
				a.mutated()
			}
		}

	case modeSearch:
		if a.resCur < len(a.results) {
			a.jumpTo(a.results[a.resCur].Link.ID)
		}
	}

	a.closeInput()
}

// jumpTo navigates to a link anywhere in the tree: switches the active
// category, descends into its ancestor folders, and places the cursor.
func (a *App) jumpTo(id string) {
	loc, ok := a.data.FindLocation(id)
	if !ok {
		return
	}
	a.data.ActiveCategory = loc.CategoryID
	a.folderStack = append([]string{}, loc.Ancestors...)
	a.refreshItems()
	a.cursor = loc.Index
	if a.cursor >= len(a.items) {
		a.cursor = 0
	}
}

// switchCategory moves the active category by delta, wrapping around.
func (a *App) switchCategory(delta int) {
	n := len(a.data.Categories)
	if n == 0 {
		return
	}
	cur := 0
	for i := range a.data.Categories {
		if a.data.Categories[i].ID == a.data.ActiveCategory {
			cur = i
			break
		}
	}
	next := (cur + delta + n) % n
	a.data.ActiveCategory = a.data.Categories[next].ID
	a.folderStack = nil
	a.cursor = 0
	a.refreshItems()
	if a.requestSave != nil {
		a.requestSave()
	}
}

// moveSelected reorders the item under the cursor within its list.
func (a *App) moveSelected(delta int) {
	item, ok := a.selected()
	if !ok {
		return
	}
	target := a.cursor + delta
	if target < 0 || target >= len(a.items) {
		return
	}
	err := a.data.MoveTo(item.ID(), a.data.ActiveCategory, a.parentFolderID(), target)
	if err != nil {
		return
	}
	a.cursor = target
	a.mutated()
}

// mergeWithNext folds the selected item and its next sibling into a
// new folder, mirroring the drop-on-card gesture.
func (a *App) mergeWithNext() {
	item, ok := a.selected()
	if !ok || a.cursor+1 >= len(a.items) {
		return
	}
	next := a.items[a.cursor+1]

	if next.IsFolder() {
		if err := a.data.MoveIntoFolder(item.ID(), next.ID()); err != nil {
			a.status = "cannot move into folder"
			return
		}
	} else {
		if _, err := a.data.CreateFolderFromPair(next.ID(), item.ID()); err != nil {
			a.status = "cannot create folder"
			return
		}
	}
	a.mutated()
}

// SetStatus puts a transient message into the status line, e.g. sync
// warnings pushed from the persistence layer.
func (a *App) SetStatus(status string) {
	a.status = status
}

// View implements tea.Model.
func (a App) View() string {
	return a.renderView()
}
