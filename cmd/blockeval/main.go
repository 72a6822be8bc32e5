package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/blockeval/internal/api"
	"github.com/mattjoyce/blockeval/internal/auth"
	"github.com/mattjoyce/blockeval/internal/config"
	"github.com/mattjoyce/blockeval/internal/document"
	"github.com/mattjoyce/blockeval/internal/eval"
	"github.com/mattjoyce/blockeval/internal/events"
	"github.com/mattjoyce/blockeval/internal/journal"
	"github.com/mattjoyce/blockeval/internal/lock"
	"github.com/mattjoyce/blockeval/internal/log"
	"github.com/mattjoyce/blockeval/internal/queue"
	"github.com/mattjoyce/blockeval/internal/request"
	"github.com/mattjoyce/blockeval/internal/session"
	"github.com/mattjoyce/blockeval/internal/storage"
	"github.com/mattjoyce/blockeval/internal/tui/watch"
	watchpkg "github.com/mattjoyce/blockeval/internal/watch"
	"github.com/mattjoyce/blockeval/internal/workdir"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	if cmd == "--version" {
		return runVersion(args)
	}

	switch cmd {
	// --- NOUNS ---
	case "system":
		return runSystemNoun(args)
	case "config":
		return runConfigNoun(args)
	case "eval":
		return runEvalNoun(args)
	case "journal":
		return runJournalNoun(args)
	case "workdir":
		return runWorkdirNoun(args)

	// --- ROOT ALIASES ---
	case "start":
		return runStart(args)
	case "watch":
		return runWatch(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			printSystemStartHelp()
			return 0
		}
		return runStart(actionArgs)
	case "watch":
		if hasHelpFlag(actionArgs) {
			printSystemWatchHelp()
			return 0
		}
		return runWatch(actionArgs)
	case "help":
		printSystemNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "lock":
		if hasHelpFlag(actionArgs) {
			printConfigLockHelp()
			return 0
		}
		return runConfigLock(actionArgs)
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	case "help":
		printConfigNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func runEvalNoun(args []string) int {
	if len(args) < 1 {
		printEvalNounHelp(os.Stderr)
		return 1
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "run":
		if hasHelpFlag(actionArgs) {
			printEvalRunHelp()
			return 0
		}
		return runEvalRun(actionArgs)
	case "help":
		printEvalNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown eval action: %s\n", action)
		return 1
	}
}

func runJournalNoun(args []string) int {
	if len(args) < 1 {
		printJournalNounHelp(os.Stderr)
		return 1
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		if hasHelpFlag(actionArgs) {
			printJournalListHelp()
			return 0
		}
		return runJournalList(actionArgs)
	case "help":
		printJournalNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown journal action: %s\n", action)
		return 1
	}
}

func runWorkdirNoun(args []string) int {
	if len(args) < 1 {
		printWorkdirNounHelp(os.Stderr)
		return 1
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "cleanup":
		if hasHelpFlag(actionArgs) {
			printWorkdirCleanupHelp()
			return 0
		}
		return runWorkdirCleanup(actionArgs)
	case "help":
		printWorkdirNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown workdir action: %s\n", action)
		return 1
	}
}

// --- ACTION IMPLEMENTATIONS ---

func loadConfig(configPath string) (*config.Config, string, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			return nil, "", err
		}
		configPath = discovered
		fmt.Fprintf(os.Stderr, "Using discovered config: %s\n", configPath)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", err
	}
	return cfg, configPath, nil
}

// buildCoordinator wires the evaluation stack from config.
func buildCoordinator(ctx context.Context, cfg *config.Config) (*eval.Manager, *journal.Store, func(), error) {
	files, err := workdir.NewManager(cfg.Workdir.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("workdir: %w", err)
	}

	var (
		watcher queue.Watcher
		closers []func()
	)
	switch cfg.Watch.Backend {
	case "poll":
		p := watchpkg.NewPoller(cfg.Watch.PollInterval)
		watcher = p
		closers = append(closers, func() { _ = p.Close() })
	default:
		n, err := watchpkg.NewFSNotifier()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("fsnotify: %w", err)
		}
		watcher = n
		closers = append(closers, func() { _ = n.Close() })
	}

	db, err := storage.OpenSQLite(ctx, cfg.Journal.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open journal database: %w", err)
	}
	closers = append(closers, func() { _ = db.Close() })
	store := journal.NewStore(db)

	channels := eval.ChannelProviderFunc(func(key string) (session.Channel, error) {
		return session.NewTmuxChannel(key, cfg.Session.TargetPrefix, cfg.Session.TmuxPath), nil
	})

	hub := events.NewHub(256)
	mgr := eval.NewManager(
		request.NewBuilder(files), files, channels, watcher, hub,
		eval.WithJournal(store),
		eval.WithMaxLineLength(cfg.Eval.MaxLineLength),
	)

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return mgr, store, cleanup, nil
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, resolvedPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("blockeval starting", "version", version, "config", resolvedPath)

	pidLockPath := filepath.Join(filepath.Dir(cfg.Journal.Path), "blockeval.lock")
	pidLock, err := lock.AcquirePIDLock(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr, store, cleanup, err := buildCoordinator(ctx, cfg)
	if err != nil {
		logger.Error("failed to build coordinator", "error", err)
		return 1
	}
	defer cleanup()

	if cfg.Journal.Retention > 0 {
		if n, err := store.Prune(ctx, cfg.Journal.Retention); err != nil {
			logger.Warn("journal prune failed", "error", err)
		} else if n > 0 {
			logger.Info("journal pruned", "rows", n)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)

	if cfg.API.Enabled {
		tokens := make([]auth.TokenConfig, 0, len(cfg.API.Auth.Tokens))
		for _, t := range cfg.API.Auth.Tokens {
			tokens = append(tokens, auth.TokenConfig{
				Token:  t.Token,
				Scopes: t.Scopes,
			})
		}
		apiConfig := api.Config{
			Listen:         cfg.API.Listen,
			APIKey:         cfg.API.Auth.APIKey,
			Tokens:         tokens,
			MaxWaitTimeout: cfg.Eval.WaitTimeout,
		}
		apiServer := api.New(apiConfig, mgr, store, mgr.Hub(), log.WithComponent("api"))
		go func() {
			if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	} else {
		logger.Warn("API disabled; nothing will accept submissions", "hint", "set api.enabled: true")
	}

	logger.Info("blockeval running (press Ctrl+C to stop)")

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		cancel()
		return 1
	}

	logger.Info("blockeval stopped")
	return 0
}

// runEvalRun evaluates one block of an org file in place: submit, wait,
// write the document (with its new result section) back.
func runEvalRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	docPath := fs.String("doc", "", "Path to the org document")
	offset := fs.Int("offset", -1, "Byte offset inside the source block to evaluate")
	sessionKey := fs.String("session", session.NoSession, "Interpreter session key")
	mode := fs.String("mode", "value", "Result mode: value or output")
	timeout := fs.Duration("timeout", 0, "Wait timeout (default from config)")
	debugEcho := fs.Bool("debug", false, "Echo the generated request through the channel")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if *docPath == "" || *offset < 0 {
		fmt.Fprintln(os.Stderr, "Usage: blockeval eval run --doc FILE --offset N [flags]")
		return 1
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	log.Setup(cfg.Service.LogLevel)

	text, err := os.ReadFile(*docPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read document: %v\n", err)
		return 1
	}

	buf := document.NewBuffer(filepath.Base(*docPath), string(text))
	region, ok := buf.BlockAt(*offset)
	if !ok {
		fmt.Fprintf(os.Stderr, "Offset %d is not inside a source block\n", *offset)
		return 1
	}

	ctx := context.Background()
	mgr, _, cleanup, err := buildCoordinator(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build coordinator: %v\n", err)
		return 1
	}
	defer cleanup()

	sub, err := mgr.Submit(ctx, eval.SubmitSpec{
		Doc:         buf,
		Source:      region.Source,
		Mode:        request.ResultMode(*mode),
		SessionKey:  *sessionKey,
		AnchorStart: buf.NewPosition(region.Start),
		AnchorEnd:   buf.NewPosition(region.End),
		Debug:       *debugEcho,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Submit failed: %v\n", err)
		return 1
	}
	fmt.Println(sub.Placeholder)

	waitFor := *timeout
	if waitFor <= 0 {
		waitFor = cfg.Eval.WaitTimeout
	}
	if err := mgr.Wait(ctx, sub.ID, waitFor); err != nil {
		fmt.Fprintf(os.Stderr, "Wait failed: %v\n", err)
		return 1
	}

	if err := os.WriteFile(*docPath, []byte(buf.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write document: %v\n", err)
		return 1
	}
	fmt.Printf("Result written to %s\n", *docPath)
	return 0
}

func runJournalList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	limit := fs.Int("limit", 20, "Maximum entries to show")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.Journal.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open journal database: %v\n", err)
		return 1
	}
	defer db.Close()

	recs, err := journal.NewStore(db).Recent(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Journal query failed: %v\n", err)
		return 1
	}

	if *jsonOut {
		data, err := json.MarshalIndent(recs, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	if len(recs) == 0 {
		fmt.Println("No journal entries.")
		return 0
	}
	for _, rec := range recs {
		line := fmt.Sprintf("%s  %-10s  %s/%s  %s",
			rec.SubmittedAt.Format(time.RFC3339), rec.Status, rec.Doc, rec.Session, rec.ID)
		if rec.SkipReason != nil {
			line += "  (" + *rec.SkipReason + ")"
		}
		fmt.Println(line)
	}
	return 0
}

func runWorkdirCleanup(args []string) int {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	olderThan := fs.Duration("older-than", 0, "Delete request files older than this (default from config)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	age := *olderThan
	if age <= 0 {
		age = cfg.Workdir.CleanupOlderThan
	}

	files, err := workdir.NewManager(cfg.Workdir.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Workdir error: %v\n", err)
		return 1
	}

	report, err := files.Cleanup(context.Background(), age)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cleanup failed: %v\n", err)
		return 1
	}
	fmt.Printf("Deleted %d stale request file(s) under %s\n", report.DeletedFiles, files.BaseDir())
	return 0
}

func runConfigLock(args []string) int {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	path := *configPath
	if path == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		path = discovered
	}

	manifest, err := config.WriteChecksums(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lock failed: %v\n", err)
		return 1
	}

	for name, hash := range manifest.Hashes {
		fmt.Printf("locked %s  %s\n", name, hash)
	}
	fmt.Println("Status: configuration locked.")
	return 0
}

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	path := *configPath
	if path == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		path = discovered
	}

	// Syntax and policy first.
	if _, err := config.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "Config check FAILED: %v\n", err)
		return 1
	}

	result, err := config.VerifyIntegrity(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config check FAILED: %v\n", err)
		return 1
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "error: %s\n", e)
	}

	if !result.Passed {
		fmt.Println("Status: configuration check FAILED.")
		return 1
	}
	fmt.Println("Status: configuration check PASSED.")
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api-url", "http://localhost:8080", "Coordinator API URL")
	apiKey := fs.String("api-key", os.Getenv("BLOCKEVAL_API_KEY"), "API Bearer Token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: API key required. Use --api-key or BLOCKEVAL_API_KEY env var.")
		return 1
	}

	m := watch.New(*apiURL, *apiKey)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: blockeval version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("blockeval %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}

	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	resolvedCommit := strings.TrimSpace(gitCommit)
	if resolvedCommit == "" || resolvedCommit == "unknown" {
		resolvedCommit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if resolvedCommit != "" {
		info.Commit = shortenCommit(resolvedCommit)
	}

	resolvedBuildTime := strings.TrimSpace(buildDate)
	if resolvedBuildTime == "" || resolvedBuildTime == "unknown" {
		resolvedBuildTime = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if normalizedBuildTime, ok := normalizeBuildTimeUTC(resolvedBuildTime); ok {
		info.BuildTime = normalizedBuildTime
	}

	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func normalizeBuildTimeUTC(raw string) (string, bool) {
	if raw == "" || raw == "unknown" {
		return "", false
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", false
	}

	return t.UTC().Format(time.RFC3339), true
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func hasHelpFlag(args []string) bool {
	for _, a := range args {
		if a == "-h" || a == "--help" || a == "help" {
			return true
		}
	}
	return false
}

// --- HELP TEXT ---

func printUsage() {
	fmt.Print(`blockeval - Asynchronous source block evaluation coordinator

Usage:
  blockeval <noun> <action> [flags]

Core Resources (Nouns):
  system    Coordinator lifecycle and monitoring
  config    Configuration and integrity
  eval      Source block evaluation
  journal   Evaluation history
  workdir   Request file housekeeping

System Commands:
  system start      Start the coordinator service in foreground
  system watch      Real-time monitoring TUI

Config Commands:
  config lock       Authorize the configuration by writing integrity hashes
  config check      Validate configuration syntax and integrity

Eval Commands:
  eval run          Evaluate one source block of an org file in place

Journal Commands:
  journal list      Show recent evaluations

Workdir Commands:
  workdir cleanup   Delete stale request files

Other:
  version           Show version information
  help              Show this help
`)
}

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: blockeval system <start|watch> [flags]")
}

func printSystemStartHelp() {
	fmt.Println("Usage: blockeval system start [--config PATH]")
	fmt.Println("Start the coordinator service in the foreground.")
}

func printSystemWatchHelp() {
	fmt.Println("Usage: blockeval system watch [flags]")
	fmt.Println()
	fmt.Println("Real-time monitoring TUI.")
	fmt.Println("Shows coordinator health, evaluation queues, and the event stream.")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --api-url URL    Coordinator API URL (default: http://localhost:8080)")
	fmt.Println("  --api-key KEY    API Bearer Token (or BLOCKEVAL_API_KEY env var)")
	fmt.Println()
	fmt.Println("Keybindings:")
	fmt.Println("  q, Ctrl+C        Quit")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: blockeval config <lock|check> [flags]")
}

func printConfigLockHelp() {
	fmt.Println("Usage: blockeval config lock [--config PATH]")
	fmt.Println("Authorize the current configuration by regenerating its integrity hash.")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: blockeval config check [--config PATH]")
	fmt.Println("Validate configuration syntax, policy, and integrity.")
}

func printEvalNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: blockeval eval <run> [flags]")
}

func printEvalRunHelp() {
	fmt.Println("Usage: blockeval eval run --doc FILE --offset N [flags]")
	fmt.Println()
	fmt.Println("Evaluate the source block at the given byte offset and write the")
	fmt.Println("result section back into the file.")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --doc FILE       Org document to evaluate")
	fmt.Println("  --offset N       Byte offset inside the source block")
	fmt.Println("  --session KEY    Interpreter session key (default: none)")
	fmt.Println("  --mode MODE      Result mode: value or output (default: value)")
	fmt.Println("  --timeout D      Wait timeout (default from config)")
	fmt.Println("  --debug          Echo the generated request through the channel")
}

func printJournalNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: blockeval journal <list> [flags]")
}

func printJournalListHelp() {
	fmt.Println("Usage: blockeval journal list [--limit N] [--json]")
	fmt.Println("Show recent evaluations from the journal, newest first.")
}

func printWorkdirNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: blockeval workdir <cleanup> [flags]")
}

func printWorkdirCleanupHelp() {
	fmt.Println("Usage: blockeval workdir cleanup [--older-than D]")
	fmt.Println("Delete request files left behind by evaluations that never completed.")
}
