package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	kitlog "github.com/go-kit/log"

	"github.com/plantell/plantell/internal/config"
	"github.com/plantell/plantell/internal/dialect"
	"github.com/plantell/plantell/internal/diff"
	"github.com/plantell/plantell/internal/model"
	"github.com/plantell/plantell/internal/parser"
	"github.com/plantell/plantell/internal/render/html"
	"github.com/plantell/plantell/internal/render/tui"
	"github.com/plantell/plantell/internal/runner"
	"github.com/plantell/plantell/internal/translate"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "explain":
		err = explainCommand(args)
	case "run":
		err = runCommand(args)
	case "detect":
		err = detectCommand(args)
	case "diff":
		err = diffCommand(args)
	case "version":
		err = versionCommand(args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		_, _ = fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`plantell - narrate EXPLAIN plans in plain language

Usage:
  plantell <command> [options]

Commands:
  explain  Parse an EXPLAIN text plan and render the narrative (TUI or HTML)
  run      Execute EXPLAIN against a database and print the text plan
  detect   Report the dialect an explain text came from
  diff     Compare two text plans and emit a Markdown summary
  version  Show CLI version information

Use "plantell <command> -h" for command-specific help.`)
}

func applyConfigPath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("PLANTELL_CONFIG"))
	}
	return config.Apply(path)
}

func explainCommand(args []string) error {
	fs := flag.NewFlagSet("explain", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stdout, "Usage: plantell explain [--input plan.txt] [--mode tui|html] [--out file]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	var (
		input      = fs.String("input", "", "Path to the EXPLAIN text plan (stdin if omitted)")
		outPath    = fs.String("out", "", "Output path (stdout if omitted)")
		mode       = fs.String("mode", "tui", "Output mode: tui or html")
		title      = fs.String("title", "plan report", "Report title (HTML)")
		color      = fs.Bool("color", true, "Enable ANSI colors for TUI output")
		maxDepth   = fs.Int("max-depth", 0, "Limit tree depth (TUI)")
		warnings   = fs.Bool("warnings", true, "Show warnings (TUI)")
		includeCSS = fs.Bool("css", true, "Include inline styles (HTML)")
		configPath = fs.String("config", "", "Path to configuration file (JSON). Falls back to $PLANTELL_CONFIG")
	)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(os.Stdout)
			fs.Usage()
			return nil
		}
		return err
	}
	if err := applyConfigPath(*configPath); err != nil {
		return err
	}

	text, err := readInput(*input)
	if err != nil {
		return err
	}

	plan, err := dialect.Parse(text)
	if err != nil {
		return err
	}
	result := translate.Translate(plan.Root)

	target, closeTarget, err := openOutput(*outPath)
	if err != nil {
		return err
	}
	defer closeTarget()

	switch *mode {
	case "tui":
		return tui.Render(target, plan, result, tui.Options{
			EnableColor:  *color,
			MaxDepth:     *maxDepth,
			ShowWarnings: *warnings,
		})
	case "html":
		return html.Render(target, plan, result, html.Options{
			Title:         *title,
			IncludeStyles: *includeCSS,
		})
	default:
		return fmt.Errorf("unknown mode %q (expected tui or html)", *mode)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stdout, "Usage: plantell run --url <url> (--sql file.sql | --query \"SELECT ...\") [--out plan.txt]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	envURL := os.Getenv("DATABASE_URL")

	var (
		urlFlag   = fs.String("url", envURL, "PostgreSQL connection string; defaults to $DATABASE_URL")
		sqlPath   = fs.String("sql", "", "Path to the SQL file to EXPLAIN")
		inlineSQL = fs.String("query", "", "Inline SQL string to EXPLAIN")
		outPath   = fs.String("out", "", "Path to write the text plan (defaults to stdout)")
		analyze   = fs.Bool("analyze", true, "Use EXPLAIN (ANALYZE, BUFFERS): executes the query")
		timeout   = fs.Duration("timeout", 0, "Optional execution timeout, e.g. 45s")
		verbose   = fs.Bool("verbose", false, "Log connection and execution details to stderr")
	)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(os.Stdout)
			fs.Usage()
			return nil
		}
		return err
	}

	connection := strings.TrimSpace(*urlFlag)
	if connection == "" {
		return fmt.Errorf("--url is required or set $DATABASE_URL")
	}
	if *sqlPath != "" && *inlineSQL != "" {
		return fmt.Errorf("specify only one of --sql or --query")
	}

	var sqlText string
	switch {
	case *sqlPath != "":
		data, err := os.ReadFile(*sqlPath)
		if err != nil {
			return fmt.Errorf("read sql file: %w", err)
		}
		sqlText = string(data)
	case *inlineSQL != "":
		sqlText = *inlineSQL
	default:
		return fmt.Errorf("--sql or --query is required")
	}

	var logger kitlog.Logger
	if *verbose {
		logger = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	}

	ctx := context.Background()
	text, err := runner.Run(ctx, connection, sqlText, runner.Options{
		Timeout: *timeout,
		Analyze: *analyze,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if *outPath == "" {
		fmt.Println(text)
		return nil
	}
	return os.WriteFile(*outPath, []byte(text+"\n"), 0o644)
}

func detectCommand(args []string) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stdout, "Usage: plantell detect [--input plan.txt]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	input := fs.String("input", "", "Path to the explain text (stdin if omitted)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(os.Stdout)
			fs.Usage()
			return nil
		}
		return err
	}

	text, err := readInput(*input)
	if err != nil {
		return err
	}
	fmt.Println(string(dialect.Detect(text)))
	return nil
}

func diffCommand(args []string) error {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stdout, "Usage: plantell diff --base base.txt --target target.txt [--format md]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	var (
		basePath   = fs.String("base", "", "Path to baseline EXPLAIN text plan")
		targetPath = fs.String("target", "", "Path to target EXPLAIN text plan")
		format     = fs.String("format", "md", "Output format (md or json)")
		outPath    = fs.String("out", "", "Output path (stdout if omitted)")
		minDelta   = fs.Float64("min-delta", 0, "Minimum self-time delta in ms to report (default from config)")
		minPct     = fs.Float64("min-percent", 0, "Minimum percent change to report (default from config)")
		maxItems   = fs.Int("limit", 0, "Maximum rows per section (default from config)")
		configPath = fs.String("config", "", "Path to configuration file (JSON). Falls back to $PLANTELL_CONFIG")
	)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(os.Stdout)
			fs.Usage()
			return nil
		}
		return err
	}
	if err := applyConfigPath(*configPath); err != nil {
		return err
	}
	if *basePath == "" || *targetPath == "" {
		return fmt.Errorf("--base and --target are required")
	}

	base, err := loadPlan(*basePath)
	if err != nil {
		return fmt.Errorf("load base: %w", err)
	}
	target, err := loadPlan(*targetPath)
	if err != nil {
		return fmt.Errorf("load target: %w", err)
	}

	report, err := diff.Compare(base, target, diff.Options{
		MinSelfTimeDeltaMs: *minDelta,
		MinPercentChange:   *minPct,
		MaxItems:           *maxItems,
	})
	if err != nil {
		return err
	}

	switch *format {
	case "md", "markdown":
		content := report.Markdown()
		if *outPath == "" {
			fmt.Print(content)
			return nil
		}
		return os.WriteFile(*outPath, []byte(content), 0o644)
	case "json":
		payload, err := report.JSON()
		if err != nil {
			return err
		}
		if *outPath == "" {
			os.Stdout.Write(payload)
			os.Stdout.WriteString("\n")
			return nil
		}
		return os.WriteFile(*outPath, payload, 0o644)
	default:
		return fmt.Errorf("unsupported format %q", *format)
	}
}

func versionCommand(args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stdout, "Usage: plantell version [--short]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	short := fs.Bool("short", false, "Print only the version number")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(os.Stdout)
			fs.Usage()
			return nil
		}
		return err
	}

	v, meta := resolveVersion()
	if *short {
		fmt.Println(v)
		return nil
	}
	if meta != "" {
		fmt.Printf("plantell %s (%s)\n", v, meta)
	} else {
		fmt.Printf("plantell %s\n", v)
	}
	return nil
}

func resolveVersion() (string, string) {
	v := strings.TrimSpace(version)
	if v == "" {
		v = "dev"
	}

	var commit, buildTime string
	var dirty bool
	if info, ok := debug.ReadBuildInfo(); ok {
		if (v == "dev" || v == "(devel)") &&
			info.Main.Version != "" &&
			info.Main.Version != "(devel)" &&
			!strings.HasPrefix(info.Main.Version, "v0.0.0-") {
			v = info.Main.Version
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				commit = setting.Value
			case "vcs.time":
				buildTime = setting.Value
			case "vcs.modified":
				dirty = setting.Value == "true"
			}
		}
	}

	var details []string
	if commit != "" {
		short := commit
		if len(short) > 12 {
			short = short[:12]
		}
		if dirty {
			short += "*"
			dirty = false
		}
		details = append(details, fmt.Sprintf("commit %s", short))
	}
	if buildTime != "" {
		details = append(details, fmt.Sprintf("built %s", buildTime))
	}
	if dirty {
		details = append(details, "modified workspace")
	}

	return v, strings.Join(details, ", ")
}

func readInput(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func loadPlan(path string) (*model.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parser.Parse(string(data))
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}
