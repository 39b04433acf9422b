package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/vanderheijden86/pedigree/pkg/api"
	"github.com/vanderheijden86/pedigree/pkg/config"
	"github.com/vanderheijden86/pedigree/pkg/export"
	"github.com/vanderheijden86/pedigree/pkg/model"
	"github.com/vanderheijden86/pedigree/pkg/store"
	"github.com/vanderheijden86/pedigree/pkg/store/postgres"
	"github.com/vanderheijden86/pedigree/pkg/store/sqlite"
	"github.com/vanderheijden86/pedigree/pkg/store/sqlstore"
	"github.com/vanderheijden86/pedigree/pkg/ui"
	"github.com/vanderheijden86/pedigree/pkg/watcher"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// cliFlags are the command line overrides of the config file.
type cliFlags struct {
	root        string
	backend     string
	db          string
	dsn         string
	remote      string
	addr        string
	id          string
	generations int
	exportMD    string
	exportSVG   string
	dateLayout  string
	noWatch     bool
}

func main() {
	var f cliFlags
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.StringVar(&f.root, "root", "", "Project directory holding .pedigree/ (default: search upwards from the current directory)")
	flag.StringVar(&f.backend, "backend", "", "Record store: sqlite, postgres or remote")
	flag.StringVar(&f.db, "db", "", "SQLite database file")
	flag.StringVar(&f.dsn, "dsn", "", "PostgreSQL connection string")
	flag.StringVar(&f.remote, "remote", "", "Base URL of a pv server (e.g. http://localhost:8080)")
	flag.StringVar(&f.addr, "addr", "", "Listen address for pv serve")
	flag.StringVar(&f.id, "id", "", "Open the pedigree of this horse id")
	flag.IntVar(&f.generations, "generations", 0, "Generations to fetch, including the horse itself")
	flag.StringVar(&f.exportMD, "export-md", "", "Export the pedigree of -id to a Markdown file")
	flag.StringVar(&f.exportSVG, "export-svg", "", "Export the pedigree of -id to an SVG file")
	flag.StringVar(&f.dateLayout, "date-layout", "", "Go date layout for birth dates (default: from the locale)")
	flag.BoolVar(&f.noWatch, "no-watch", false, "Do not reload when the database file changes")
	flag.Parse()

	if *help {
		fmt.Println("Usage: pv [options] [seed|serve]")
		fmt.Println("\nA terminal viewer for horse pedigrees.")
		fmt.Println("\nCommands:")
		fmt.Println("  (none)  interactive pedigree browser")
		fmt.Println("  seed    fill an empty store with a demo family")
		fmt.Println("  serve   serve the store over HTTP")
		fmt.Println("\nOptions:")
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("pv %s\n", version)
		os.Exit(0)
	}

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, f, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the config for the project and applies the flags.
func loadConfig(f cliFlags) (config.Config, error) {
	dir := f.root
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return config.Config{}, fmt.Errorf("get current directory: %w", err)
		}
		dir = cwd
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg, f)
	return cfg, cfg.Validate()
}

// applyFlags overrides config values with the flags that were set.
func applyFlags(cfg *config.Config, f cliFlags) {
	if f.backend != "" {
		cfg.Store.Backend = f.backend
	}
	if f.db != "" {
		cfg.Store.Path = f.db
	}
	if f.dsn != "" {
		cfg.Store.DSN = f.dsn
	}
	if f.remote != "" {
		cfg.Store.Remote = f.remote
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.dateLayout != "" {
		cfg.UI.DateLayout = f.dateLayout
	}
	if f.generations > 0 {
		cfg.UI.DefaultGenerations = f.generations
		cfg.UI.MaxGenerations = max(cfg.UI.MaxGenerations, f.generations)
	}
	if f.noWatch {
		off := false
		cfg.UI.Watch = &off
	}
}

func run(ctx context.Context, cfg config.Config, f cliFlags, args []string) error {
	command := ""
	if len(args) > 0 {
		command = args[0]
	}
	switch command {
	case "", "seed", "serve":
	default:
		return fmt.Errorf("unknown command %q (want seed or serve)", command)
	}

	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	switch {
	case command == "seed":
		if err := runSeed(ctx, s, os.Stdout); err != nil {
			return err
		}
		if localDatabase(cfg) {
			if err := config.EnsureGitignored(cfg.Root); err != nil {
				log.Printf("warning: could not update .gitignore: %v", err)
			}
		}
		return nil
	case command == "serve":
		return runServe(ctx, s, cfg.Server.Addr)
	case f.exportMD != "" || f.exportSVG != "":
		return runExport(ctx, s, cfg, f)
	case !term.IsTerminal(int(os.Stdout.Fd())):
		if f.id == "" {
			return errors.New("stdout is not a terminal; pass -id to print a pedigree")
		}
		return printTree(ctx, s, cfg, f.id, os.Stdout)
	default:
		return runTUI(ctx, s, cfg, f.id)
	}
}

// openStore builds the RecordStore selected by the config.
func openStore(ctx context.Context, sc config.StoreConfig) (store.RecordStore, error) {
	policy, err := store.ParseDeletePolicy(sc.DeletePolicy)
	if err != nil {
		return nil, err
	}
	opts := sqlstore.Options{DeletePolicy: policy}

	switch backend := sc.EffectiveBackend(); backend {
	case config.BackendSQLite:
		return sqlite.Open(ctx, sc.Path, opts)
	case config.BackendPostgres:
		if sc.DSN == "" {
			return nil, errors.New("postgres backend needs store.dsn or -dsn")
		}
		return postgres.Open(ctx, sc.DSN, opts)
	case config.BackendRemote:
		return api.NewClient(sc.Remote, nil)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// localDatabase reports whether the sqlite file lives in the project's
// .pedigree directory.
func localDatabase(cfg config.Config) bool {
	if cfg.Store.EffectiveBackend() != config.BackendSQLite || cfg.Root == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Join(cfg.Root, config.DirName), cfg.Store.Path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func runSeed(ctx context.Context, s store.RecordStore, out io.Writer) error {
	res, err := store.Seed(ctx, s)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d owners and %d horses.\n", len(res.Owners), len(res.Horses))
	var youngest model.Horse
	for _, h := range res.Horses {
		if youngest.ID == 0 || h.DateOfBirth.After(youngest.DateOfBirth) {
			youngest = h
		}
	}
	if youngest.ID != 0 {
		fmt.Fprintf(out, "Try: pv -id %d -generations 3\n", youngest.ID)
	}
	return nil
}

// runServe serves s until ctx is cancelled, then shuts down gracefully.
func runServe(ctx context.Context, s store.RecordStore, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(s),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("pv %s listening on %s", version, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// fetchTree loads the pedigree named by idParam at the configured depth.
func fetchTree(ctx context.Context, s store.RecordStore, cfg config.Config, idParam string) (*model.TreeNode, error) {
	if idParam == "" {
		return nil, errors.New("no horse given; pass -id")
	}
	id, err := model.ParseHorseID(idParam)
	if err != nil {
		return nil, err
	}
	return s.Tree(ctx, id, cfg.UI.DefaultGenerations)
}

func runExport(ctx context.Context, s store.RecordStore, cfg config.Config, f cliFlags) error {
	tree, err := fetchTree(ctx, s, cfg, f.id)
	if err != nil {
		return err
	}
	dates := export.NewDateFormatter(cfg.UI.DateLayout)
	if f.exportMD != "" {
		fmt.Printf("Exporting to %s...\n", f.exportMD)
		if err := export.SaveMarkdownToFile(tree, dates, f.exportMD); err != nil {
			return fmt.Errorf("export markdown: %w", err)
		}
	}
	if f.exportSVG != "" {
		fmt.Printf("Exporting to %s...\n", f.exportSVG)
		if err := export.SaveSVGToFile(tree, dates, f.exportSVG); err != nil {
			return fmt.Errorf("export svg: %w", err)
		}
	}
	fmt.Println("Done!")
	return nil
}

// printTree writes the fully expanded pedigree as plain text, for pipes.
func printTree(ctx context.Context, s store.RecordStore, cfg config.Config, idParam string, out io.Writer) error {
	tree, err := fetchTree(ctx, s, cfg, idParam)
	if err != nil {
		return err
	}
	return export.WriteText(out, tree, export.NewDateFormatter(cfg.UI.DateLayout))
}

// ignoreOwnWrites makes w report only commits from other processes.
func ignoreOwnWrites(ctx context.Context, w *watcher.Watcher, s store.RecordStore) error {
	ss, ok := s.(*sqlstore.Store)
	if !ok {
		return nil
	}
	d, err := sqlite.NewChangeDetector(ctx, ss.DB())
	if err != nil {
		return err
	}
	w.Filter(d.Changed)
	return nil
}

func runTUI(ctx context.Context, s store.RecordStore, cfg config.Config, initial string) error {
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o750); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		logFile, err := tea.LogToFile(cfg.Log.File, "pv")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	opts := ui.OptionsFromConfig(cfg.UI)
	opts.InitialHorse = initial

	if cfg.Store.EffectiveBackend() == config.BackendSQLite && cfg.UI.WatchEnabled() {
		w, err := watcher.New(cfg.Store.Path, watcher.DefaultDebounce)
		if err == nil {
			err = ignoreOwnWrites(ctx, w, s)
		}
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			log.Printf("warning: live reload disabled: %v", err)
		} else {
			defer w.Stop()
			opts.Changes = w.Changes()
		}
	}

	m := ui.NewModel(ctx, s, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running pv: %w", err)
	}
	return nil
}
