package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"image-vault/internal/catalog"
	"image-vault/internal/database"
	"image-vault/internal/ingest"
	"image-vault/internal/library"
	"image-vault/internal/logging"
	"image-vault/internal/media"
	"image-vault/internal/metrics"
	"image-vault/internal/startup"

	"golang.org/x/term"
)

// app carries everything a command needs.
type app struct {
	cfg     *startup.Config
	db      *database.Database
	lib     *library.Library
	catalog *catalog.Service

	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	isTerminal func() bool
}

type command struct {
	run         func(ctx context.Context, a *app, args []string) error
	summary     string
	destructive bool
}

var commands = map[string]command{
	"ingest":       {run: runIngest, summary: "Add image files to the library"},
	"list":         {run: runList, summary: "List images, optionally filtered and sorted"},
	"search":       {run: runSearch, summary: "Search names, categories and tags"},
	"show":         {run: runShow, summary: "Show one image's metadata"},
	"update":       {run: runUpdate, summary: "Rename, reclassify or relink one image"},
	"stats":        {run: runStats, summary: "Show library statistics"},
	"delete":       {run: runDelete, summary: "Delete images by id or by filter", destructive: true},
	"download":     {run: runDownload, summary: "Write images' compressed payloads to disk"},
	"categories":   {run: runCategories, summary: "List categories"},
	"add-category": {run: runAddCategory, summary: "Create a category"},
	"tags":         {run: runTags, summary: "List tags"},
	"add-tag":      {run: runAddTag, summary: "Create a tag with a random color"},
	"export":       {run: runExport, summary: "Write the whole library as a JSON document"},
	"import":       {run: runImport, summary: "Replace the library with a JSON document", destructive: true},
	"clear":        {run: runClear, summary: "Remove every image, category and tag", destructive: true},
}

var commandOrder = []string{
	"ingest", "list", "search", "show", "update", "stats", "delete", "download",
	"categories", "add-category", "tags", "add-tag", "export", "import", "clear",
}

func main() {
	// Create a context that cancels on interrupt signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stdinIsTerminal := func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, stdinIsTerminal))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, isTerminal func() bool) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	name := args[0]
	switch name {
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return 0
	case "version", "-version", "--version":
		startup.PrintBanner(stdout)
		return 0
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", sanitizeCommand(name))
		printUsage(stderr)
		return 1
	}

	logging.SetOutput(stderr)

	cfg, err := startup.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	a, closeApp, err := openApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintf(stderr, "Make sure %s_DATABASE_DIR is set correctly (current: %s)\n", startup.EnvPrefix, cfg.DatabaseDir)
		return 1
	}
	defer closeApp()

	a.stdin, a.stdout, a.stderr, a.isTerminal = stdin, stdout, stderr, isTerminal

	err = cmd.run(ctx, a, args[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errAborted):
		fmt.Fprintln(stderr, "Aborted.")
		return 1
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

// openApp initializes metrics, libvips and the database. The returned func
// releases them and writes the metrics textfile when configured.
func openApp(ctx context.Context, cfg *startup.Config) (*app, func(), error) {
	metrics.InitializeMetrics()

	if cfg.VipsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips unavailable, SVG sources will be rejected: %v", err)
		}
	}

	start := time.Now()
	db, fresh, err := database.New(ctx, cfg.DatabasePath, nil)
	if err != nil {
		media.ShutdownVips()
		return nil, nil, fmt.Errorf("failed to open library: %w", err)
	}
	startup.LogDatabaseInit(time.Since(start), fresh)

	collector := metrics.NewCollector(db, time.Minute)
	collector.Start()

	a := &app{
		cfg:     cfg,
		db:      db,
		lib:     library.New(db, ingest.New(media.NewTranscoder()), cfg.IngestOptions()),
		catalog: catalog.New(db),
	}

	closeApp := func() {
		collector.Stop()
		if cfg.MetricsTextfile != "" {
			collector.Collect(context.Background())
			if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
				logging.Warn("Failed to write metrics textfile: %v", err)
			}
		}
		if err := db.Close(); err != nil {
			logging.Warn("failed to close database: %v", err)
		}
		media.ShutdownVips()
	}

	return a, closeApp, nil
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Image Vault")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: imagevault <command> [flags] [args]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandOrder {
		cmd := commands[name]
		if cmd.destructive {
			fmt.Fprintf(w, "  %-13s %s (asks for confirmation)\n", name, cmd.summary)
			continue
		}
		fmt.Fprintf(w, "  %-13s %s\n", name, cmd.summary)
	}
	fmt.Fprintf(w, "  %-13s %s\n", "version", "Print version information")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'imagevault <command> -h' for command flags.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  %s_DATABASE_DIR - Path to database directory (default: ./data)\n", startup.EnvPrefix)
}
