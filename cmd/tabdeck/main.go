package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nikbrunner/tabdeck/internal/checker"
	"github.com/nikbrunner/tabdeck/internal/config"
	"github.com/nikbrunner/tabdeck/internal/exporter"
	"github.com/nikbrunner/tabdeck/internal/icon"
	"github.com/nikbrunner/tabdeck/internal/importer"
	"github.com/nikbrunner/tabdeck/internal/model"
	"github.com/nikbrunner/tabdeck/internal/picker"
	"github.com/nikbrunner/tabdeck/internal/remote"
	"github.com/nikbrunner/tabdeck/internal/search"
	"github.com/nikbrunner/tabdeck/internal/storage"
	"github.com/nikbrunner/tabdeck/internal/sync"
	"github.com/nikbrunner/tabdeck/internal/tui"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "help", "--help", "-h":
			printHelp()
			return
		case "push":
			runRemoteCommand("push")
			return
		case "pull":
			runRemoteCommand("pull")
			return
		case "merge":
			runRemoteCommand("merge")
			return
		case "status":
			runStatus()
			return
		case "import":
			if len(os.Args) < 3 {
				fmt.Fprintf(os.Stderr, "Usage: tabdeck import <file.html>\n")
				os.Exit(1)
			}
			runImport(os.Args[2])
			return
		case "export":
			var outputPath string
			if len(os.Args) >= 3 {
				outputPath = os.Args[2]
			}
			runExport(outputPath)
			return
		case "check":
			runCheck()
			return
		case "background":
			if len(os.Args) < 3 {
				fmt.Fprintf(os.Stderr, "Usage: tabdeck background <image>\n")
				os.Exit(1)
			}
			runBackground(os.Args[2])
			return
		default:
			// Treat as search query (join all remaining args)
			query := strings.Join(os.Args[1:], " ")
			runQuickSearch(query)
			return
		}
	}

	// No args - run full TUI
	runTUI()
}

func printHelp() {
	help := `tabdeck - bookmark deck with folders, categories and sync

Usage:
  tabdeck               Open interactive TUI
  tabdeck <query>       Quick search → select → open
  tabdeck push          Overwrite the remote with the local document
  tabdeck pull          Overwrite the local document with the remote
  tabdeck merge         Merge remote into local, write both sides
  tabdeck status        Show storage mode and document summary
  tabdeck check         Probe all links for dead targets
  tabdeck background <image>  Set the page background image
  tabdeck import <file> Import bookmarks from Netscape HTML
  tabdeck export [path] Export bookmarks to Netscape HTML
  tabdeck help          Show this help

TUI Keybindings:
  Navigation:
    j/k         Move down/up
    h/l         Leave/enter folder
    gg/G        Jump to top/bottom
    tab         Switch category

  Editing:
    J/K         Reorder item
    f           Fold item into the next one (new folder / move into)
    a           Add link
    e           Rename
    d           Delete
    y           Yank URL to clipboard

  Other:
    /           Search all links
    s           Sync now
    ?           Help overlay
    q           Quit

Data Storage:
  ~/.config/tabdeck/        document, icon cache, settings
`
	fmt.Print(help)
}

// env bundles everything a command needs.
type env struct {
	settings     *config.Settings
	settingsPath string
	store        storage.Store
	data         *model.AppData
	icons        *icon.Cache
	coordinator  *sync.Coordinator
}

// loadEnv opens settings, local storage, the document and the
// coordinator wired to the configured remote destination.
func loadEnv(notify sync.NotifyFunc) (*env, error) {
	settingsPath, err := config.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("settings path: %w", err)
	}
	settings, err := config.Load(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	store, err := storage.OpenStore()
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}

	data, err := store.LoadData()
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if data == nil {
		data = model.DefaultData()
	}

	// Drop cached icons no bookmark references any more. A broken icon
	// cache never blocks startup.
	icons, err := icon.SweepCache(store, data)
	if err != nil {
		icons = icon.NewCache(0)
	}

	dest, err := openRemote(settings, store)
	if err != nil {
		return nil, err
	}

	e := &env{
		settings:     settings,
		settingsPath: settingsPath,
		store:        store,
		data:         data,
		icons:        icons,
	}
	e.coordinator = sync.NewCoordinator(sync.Options{
		Data:      data,
		Local:     store,
		Remote:    dest,
		Scheduler: sync.TimerScheduler{},
		Notify:    notify,
		OnGistCreated: func(id string) {
			e.settings.Gist.ID = id
			_ = config.Save(e.settingsPath, e.settings)
		},
		Debounce:     settings.SaveDebounce(),
		WarnCooldown: settings.WarnCooldown(),
		Timeout:      settings.RemoteTimeout(),
	})
	return e, nil
}

// openRemote builds the sync destination for the configured mode.
func openRemote(settings *config.Settings, store storage.Store) (remote.Remote, error) {
	switch settings.StorageMode {
	case config.ModeWebDAV:
		if settings.WebDAV.URL == "" {
			return nil, fmt.Errorf("webdav mode configured without a URL")
		}
		return remote.NewWebDAVClient(
			settings.WebDAV.URL,
			settings.WebDAV.Username,
			settings.WebDAV.Password,
			settings.RemoteTimeout(),
		), nil

	case config.ModeGist:
		if settings.Gist.Token == "" {
			return nil, fmt.Errorf("gist mode configured without a token")
		}
		return remote.NewGistClient(
			settings.Gist.Token,
			settings.Gist.ID,
			settings.Gist.Filename,
			"",
			settings.RemoteTimeout(),
		), nil

	case config.ModeBrowserSync:
		// The size-limited KV lives in the SQLite database. Reuse the
		// main store when it is already SQLite backed.
		if kv, ok := store.(*storage.SQLiteStore); ok {
			return remote.NewKVRemote(kv, "", 0), nil
		}
		dir, err := storage.DefaultDir()
		if err != nil {
			return nil, err
		}
		kv, err := storage.NewSQLiteStore(filepath.Join(dir, "tabdeck.db"))
		if err != nil {
			return nil, fmt.Errorf("open sync database: %w", err)
		}
		return remote.NewKVRemote(kv, "", 0), nil

	default:
		return nil, nil
	}
}

// runTUI runs the full interactive TUI.
func runTUI() {
	var program *tea.Program

	e, err := loadEnv(func(n sync.Notification) {
		if program != nil {
			program.Send(tui.SyncWarningMsg(n.Message))
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	app := tui.NewApp(tui.AppParams{
		Data: e.data,
		RequestSave: func() {
			e.coordinator.Save(sync.SaveOptions{})
		},
		SyncNow: func() string {
			if err := <-e.coordinator.Save(sync.SaveOptions{Immediate: true, NotifyOnError: true}); err != nil {
				return fmt.Sprintf("sync failed: %v", err)
			}
			return "synced"
		},
	})

	program = tea.NewProgram(app, tea.WithAltScreen())

	// Background reconcile: swap in a changed remote snapshot once the
	// UI is up.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.settings.RemoteTimeout())
		defer cancel()
		if changed, err := e.coordinator.Reconcile(ctx, false); err == nil && changed {
			program.Send(tui.DataReloadedMsg{})
		}
	}()

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}

	// Drain any pending debounced save before exit.
	if err := e.coordinator.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving bookmarks: %v\n", err)
		os.Exit(1)
	}
}

// runRemoteCommand executes push, pull or merge against the configured
// destination.
func runRemoteCommand(name string) {
	e, err := loadEnv(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.settings.RemoteTimeout())
	defer cancel()

	switch name {
	case "push":
		err = e.coordinator.Push(ctx)
	case "pull":
		err = e.coordinator.Pull(ctx)
	case "merge":
		err = e.coordinator.Merge(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s complete (%d categories, %d links)\n",
		name, len(e.data.Categories), len(e.data.AllLinks()))
}

// runQuickSearch performs a fuzzy search and opens the selected link.
func runQuickSearch(query string) {
	e, err := loadEnv(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	results := search.FuzzySearchLinks(e.data, query)
	if len(results) == 0 {
		fmt.Printf("No bookmarks found for '%s'\n", query)
		os.Exit(0)
	}

	var selected *model.Node

	if len(results) == 1 {
		selected = results[0].Link
		fmt.Printf("Opening: %s\n", selected.Title)
	} else {
		p := picker.New(results, query, e.data)
		program := tea.NewProgram(p)
		finalModel, err := program.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running picker: %v\n", err)
			os.Exit(1)
		}

		finalPicker := finalModel.(picker.Picker)
		if finalPicker.Cancelled() {
			os.Exit(0)
		}
		selected = finalPicker.SelectedLink()
	}

	if selected == nil {
		os.Exit(0)
	}
	openURL(selected.URL)
}

// openURL opens a URL in the default browser.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	}
	if cmd != nil {
		_ = cmd.Start()
	}
}

// runCheck probes every link and reports dead or unreachable targets.
func runCheck() {
	e, err := loadEnv(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	total := len(e.data.AllLinks())
	if total == 0 {
		fmt.Println("No links to check")
		return
	}
	fmt.Printf("Checking %d links...\n", total)

	results := checker.CheckLinks(e.data, 8, e.settings.RemoteTimeout(), nil, func(completed, total int) {
		fmt.Printf("\r%d/%d", completed, total)
	})
	fmt.Println()

	healthy := 0
	for _, r := range results {
		switch r.Status {
		case checker.Healthy:
			healthy++
		case checker.Dead:
			fmt.Printf("dead        %s (%d)\n", r.Link.URL, r.StatusCode)
		case checker.Unreachable:
			fmt.Printf("unreachable %s (%s)\n", r.Link.URL, r.Error)
		}
	}
	fmt.Printf("%d/%d healthy\n", healthy, total)
}

// runBackground stores an image as the page background: the bytes go
// into the background blob, the document records the file name.
func runBackground(imagePath string) {
	e, err := loadEnv(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	raw, err := os.ReadFile(imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading image: %v\n", err)
		os.Exit(1)
	}
	if err := e.store.SaveBlob(storage.BlobBackground, raw); err != nil {
		fmt.Fprintf(os.Stderr, "Error storing background: %v\n", err)
		os.Exit(1)
	}

	e.data.Background = model.Background{
		Mode:    model.BackgroundLocal,
		Image:   filepath.Base(imagePath),
		Opacity: e.data.Background.Opacity,
	}
	if e.data.Background.Opacity <= 0 {
		e.data.Background.Opacity = 1
	}

	if err := <-e.coordinator.Save(sync.SaveOptions{Immediate: true, NotifyOnError: true}); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving bookmarks: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Background set to %s (%d bytes)\n", e.data.Background.Image, len(raw))
}

// runStatus prints the storage mode and a document summary.
func runStatus() {
	e, err := loadEnv(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("mode:       %s\n", e.settings.StorageMode)
	fmt.Printf("categories: %d\n", len(e.data.Categories))
	fmt.Printf("links:      %d\n", len(e.data.AllLinks()))
	fmt.Printf("active:     %s\n", e.data.Active().Name)
	fmt.Printf("icons:      %d cached\n", e.icons.Len())
	fmt.Printf("hash:       %s\n", e.data.Hash())
}

// runImport handles the import subcommand: the parsed tree lands in a
// new category so nothing existing is disturbed.
func runImport(filePath string) {
	e, err := loadEnv(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	file, err := os.Open(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	nodes, err := importer.ParseHTMLBookmarks(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing HTML: %v\n", err)
		os.Exit(1)
	}
	if len(nodes) == 0 {
		fmt.Println("Nothing to import")
		return
	}

	cat := e.data.AddCategory("Imported")
	cat.Bookmarks = nodes

	if err := <-e.coordinator.Save(sync.SaveOptions{Immediate: true, NotifyOnError: true}); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving bookmarks: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d items into category %q\n", len(nodes), cat.Name)
}

// runExport handles the export subcommand.
func runExport(outputPath string) {
	if outputPath == "" {
		var err error
		outputPath, err = exporter.DefaultExportPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting default export path: %v\n", err)
			os.Exit(1)
		}
	}

	e, err := loadEnv(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	html := exporter.ExportHTML(e.data)
	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Exported %d categories, %d links to %s\n",
		len(e.data.Categories), len(e.data.AllLinks()), outputPath)
}
