package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/blackmichael/bluesky-sweep/internal/bluesky"
	"github.com/blackmichael/bluesky-sweep/internal/config"
	"github.com/blackmichael/bluesky-sweep/internal/domain"
	"github.com/blackmichael/bluesky-sweep/internal/retry"
	"github.com/blackmichael/bluesky-sweep/internal/sweep"
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// stringList collects repeated -match flags.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func run() (int, error) {
	godotenv.Load()
	cfg := config.Load()

	var (
		handle         string
		password       string
		pds            string
		days           int
		preview        bool
		logFile        string
		patterns       stringList
		useRegex       bool
		after          string
		before         string
		backupFile     string
		includeReplies bool
		includeReposts bool
		verbose        bool
		quiet          bool
	)

	flag.StringVar(&handle, "handle", cfg.Handle, "BlueSky handle (e.g. user.bsky.social)")
	flag.StringVar(&password, "password", "", "App password; prefer the BLUESKY_APP_PASSWORD environment variable")
	flag.StringVar(&pds, "pds", cfg.PDS, "PDS service URL")
	flag.IntVar(&days, "days", 30, "Delete posts older than this many days")
	flag.BoolVar(&preview, "preview", true, "Only show what would be deleted without actually deleting")
	flag.StringVar(&logFile, "log-file", "", "Override log file name (defaults to preview_log.txt or deleted_posts_log.txt)")
	flag.Var(&patterns, "match", "Only delete posts containing this keyword or matching regex (repeatable)")
	flag.BoolVar(&useRegex, "regex", false, "Interpret -match patterns as regular expressions")
	flag.StringVar(&after, "after", "", "Only consider posts after this date (YYYY-MM-DD or ISO format)")
	flag.StringVar(&before, "before", "", "Only consider posts before this date (YYYY-MM-DD or ISO format)")
	flag.StringVar(&backupFile, "backup-file", "deleted_posts_backup.jsonl", "Backup deleted posts to this JSONL file")
	flag.BoolVar(&includeReplies, "include-replies", false, "Include replies (default: exclude)")
	flag.BoolVar(&includeReposts, "include-reposts", false, "Include reposts (default: exclude)")
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose output (debug logging)")
	flag.BoolVar(&quiet, "quiet", false, "Suppress most output except errors")
	flag.Parse()

	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	if os.Geteuid() == 0 {
		logger.Warn("it is not recommended to run this tool as root")
	}

	if handle == "" {
		h, err := promptLine("BlueSky handle: ")
		if err != nil {
			return 0, err
		}
		handle = h
	}
	if handle == "" {
		return 0, fmt.Errorf("a handle is required")
	}

	// the environment variable takes precedence; a flag value is visible in
	// the process list
	token := cfg.AppPassword
	if token == "" && password != "" {
		logger.Warn("SECURITY: passing the app password via -password exposes it in your process list; set BLUESKY_APP_PASSWORD instead")
		token = password
	}
	if token == "" {
		t, err := promptPassword("App password: ")
		if err != nil {
			return 0, err
		}
		token = t
	}
	if token == "" {
		return 0, fmt.Errorf("an app password is required")
	}

	criteriaCfg := domain.CriteriaConfig{
		Cutoff:         time.Now().UTC().AddDate(0, 0, -days),
		Patterns:       patterns,
		UseRegex:       useRegex,
		IncludeReplies: includeReplies,
		IncludeReposts: includeReposts,
	}
	if after != "" {
		t, err := dateparse.ParseIn(after, time.UTC)
		if err != nil {
			return 0, fmt.Errorf("parse -after date %q: %w", after, err)
		}
		t = t.UTC()
		criteriaCfg.After = &t
	}
	if before != "" {
		t, err := dateparse.ParseIn(before, time.UTC)
		if err != nil {
			return 0, fmt.Errorf("parse -before date %q: %w", before, err)
		}
		t = t.UTC()
		criteriaCfg.Before = &t
	}

	criteria, err := domain.NewCriteria(criteriaCfg)
	if err != nil {
		return 0, err
	}

	ctx := context.Background()
	client := bluesky.NewClient(pds, retry.DefaultPolicy(), logger)

	if err := client.Login(ctx, handle, token); err != nil {
		return 0, fmt.Errorf("login as %s: %w", handle, err)
	}
	logger.Info("authenticated", "handle", handle, "did", client.DID())
	logger.Info("scanning posts", "older_than_days", days, "preview", preview)

	if logFile == "" {
		if preview {
			logFile = "preview_log.txt"
		} else {
			logFile = "deleted_posts_log.txt"
		}
	}

	svc := sweep.New(client, client, logger)
	result, err := svc.Run(ctx, criteria, sweep.Options{
		Actor:      handle,
		Preview:    preview,
		LogFile:    logFile,
		BackupFile: backupFile,
		Quiet:      quiet,
	})
	if err != nil {
		return 0, err
	}

	printSummary(result, preview, logFile)

	if result.Failed > 0 {
		return 1, nil
	}
	return 0, nil
}

// printSummary always prints, regardless of verbosity settings.
func printSummary(result *domain.Result, preview bool, logFile string) {
	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()

	fmt.Println()
	fmt.Println(cyan("── Summary ──────────────────────────"))
	fmt.Printf(" Posts scanned   : %d\n", result.Scanned)
	fmt.Printf(" Posts matched   : %d\n", result.Matched)
	if !preview {
		fmt.Printf(" Posts deleted   : %s\n", green(result.Deleted))
		failures := fmt.Sprint(result.Failed)
		if result.Failed > 0 {
			failures = red(result.Failed)
		}
		fmt.Printf(" Delete failures : %s\n", failures)
	}
	fmt.Printf(" Log file        : %s\n", logFile)
	fmt.Println(cyan("──────────────────────────────────────"))
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo when stdin is a terminal.
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(prompt)
	}

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
