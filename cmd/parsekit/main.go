// parsekit is a command-line tool that compiles a parser from a grammar
// file and prints parse trees for the scripts it is given.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spetr/parsekit/builtin/backend/peg"
	"github.com/spetr/parsekit/builtin/backend/treesitter"
	"github.com/spetr/parsekit/internal/config"
	"github.com/spetr/parsekit/internal/watch"
	"github.com/spetr/parsekit/pkg/backend"
	"github.com/spetr/parsekit/pkg/tree"
	"github.com/spetr/parsekit/pkg/types"
)

var (
	version   = "0.1.0"
	logLevel  string
	logFormat string

	flagGrammar  string
	flagStart    string
	flagBackend  string
	flagLanguage string
	flagFormat   string
	flagColor    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "parsekit",
	Short: "Grammar-driven parse tree tool",
	Long: `parsekit compiles a parser from a grammar definition at runtime,
parses the script you name on the command line, and prints the
resulting parse tree.

Backends:
- peg         - built-in grammar interpreter (needs a grammar file)
- treesitter  - built-in languages (go, python, javascript, bash)`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("parsekit %s\n", version)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a script and print its parse tree",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runParse(args[0])
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Parse a script without printing the tree",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCheck(args[0])
	},
}

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "Print the token stream of a script",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runTokens(args[0])
	},
}

var grammarCmd = &cobra.Command{
	Use:   "grammar",
	Short: "Grammar management",
}

var grammarCheckCmd = &cobra.Command{
	Use:   "check <grammarfile>",
	Short: "Compile a grammar file and report problems",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runGrammarCheck(args[0])
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-parse and re-print the tree whenever the script or grammar changes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWatch(args[0])
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigInit()
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigValidate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	for _, cmd := range []*cobra.Command{parseCmd, checkCmd, tokensCmd, watchCmd} {
		cmd.Flags().StringVarP(&flagGrammar, "grammar", "g", "", "grammar file (overrides config)")
		cmd.Flags().StringVar(&flagStart, "start", "", "start rule (default \"start\")")
		cmd.Flags().StringVar(&flagBackend, "backend", "", "parser backend (peg, treesitter)")
		cmd.Flags().StringVar(&flagLanguage, "language", "", "built-in language for the treesitter backend")
	}
	for _, cmd := range []*cobra.Command{parseCmd, watchCmd} {
		cmd.Flags().StringVar(&flagFormat, "format", "", "output format (pretty, json)")
		cmd.Flags().StringVar(&flagColor, "color", "", "colorize output (auto, always, never)")
	}

	grammarCmd.AddCommand(grammarCheckCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(grammarCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

func setupLogging() {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// newRegistry registers the built-in backends.
func newRegistry() *backend.Registry {
	r := backend.NewRegistry()
	r.Register("peg", func(opts backend.Options) (backend.Backend, error) {
		return peg.New(peg.Config{Start: opts.Start}), nil
	})
	r.Register("treesitter", func(opts backend.Options) (backend.Backend, error) {
		return treesitter.New(treesitter.Config{Language: opts.Language}), nil
	})
	return r
}

// loadConfig loads .parsekit/config.yaml from the working directory and
// applies the command-line overrides.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, warnings, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		slog.Debug(w)
	}

	if flagGrammar != "" {
		cfg.Grammar.Path = flagGrammar
	}
	if flagStart != "" {
		cfg.Grammar.Start = flagStart
	}
	if flagBackend != "" {
		cfg.Backend.Name = flagBackend
	}
	if flagLanguage != "" {
		cfg.Backend.Language = flagLanguage
	}
	if flagFormat != "" {
		cfg.Output.Format = flagFormat
	}
	if flagColor != "" {
		cfg.Output.Color = flagColor
	}
	return cfg, nil
}

// buildParser compiles a parser according to cfg: it loads the grammar
// file for the peg backend and instantiates treesitter without one.
func buildParser(cfg *config.Config) (backend.Parser, error) {
	b, err := newRegistry().Create(cfg.Backend.Name, backend.Options{
		Start:    cfg.Grammar.Start,
		Language: cfg.Backend.Language,
	})
	if err != nil {
		return nil, err
	}

	grammarText := ""
	if cfg.Backend.Name == "peg" {
		if cfg.Grammar.Path == "" {
			return nil, fmt.Errorf("%w: no grammar configured (use --grammar or .parsekit/config.yaml)", types.ErrInvalidInvocation)
		}
		grammarText, err = readInput(cfg.Grammar.Path)
		if err != nil {
			return nil, err
		}
	}

	p, err := b.Compile(grammarText)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// readInput reads a whole input file; failures are resource errors.
func readInput(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", types.ErrResourceUnavailable, path, err)
	}
	return string(data), nil
}

func colorEnabled(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		return !color.NoColor
	}
}

// render writes the tree to stdout in the configured format.
func render(root *tree.Tree, cfg *config.Config) error {
	switch cfg.Output.Format {
	case "json":
		out, err := json.MarshalIndent(root, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	default:
		tree.Fprint(os.Stdout, root, tree.PrintOptions{Color: colorEnabled(cfg.Output.Color)})
	}
	return nil
}

// fatal prints the single diagnostic for the run and exits non-zero.
func fatal(err error) {
	slog.Error("fatal", "error", err)
	os.Exit(1)
}

// parseOnce runs the load-compile-load-parse sequence for one script.
func parseOnce(cfg *config.Config, script string) (*tree.Tree, error) {
	p, err := buildParser(cfg)
	if err != nil {
		return nil, err
	}
	source, err := readInput(script)
	if err != nil {
		return nil, err
	}
	return p.Parse(source)
}

func runParse(script string) {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}
	root, err := parseOnce(cfg, script)
	if err != nil {
		fatal(err)
	}
	if err := render(root, cfg); err != nil {
		fatal(err)
	}
}

func runCheck(script string) {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}
	root, err := parseOnce(cfg, script)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("%s: ok (%d nodes, depth %d)\n", script, root.NumNodes(), root.Depth())
}

func runTokens(script string) {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}
	p, err := buildParser(cfg)
	if err != nil {
		fatal(err)
	}
	source, err := readInput(script)
	if err != nil {
		fatal(err)
	}
	toks, err := p.Scan(source)
	if err != nil {
		fatal(err)
	}
	for _, tok := range toks {
		fmt.Printf("%d:%d\t%s\t%q\n", tok.Pos.Line, tok.Pos.Column, tok.Name, tok.Value)
	}
}

func runGrammarCheck(path string) {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}
	grammarText, err := readInput(path)
	if err != nil {
		fatal(err)
	}
	b := peg.New(peg.Config{Start: cfg.Grammar.Start})
	if _, err := b.Compile(grammarText); err != nil {
		fatal(err)
	}
	fmt.Printf("%s: ok\n", path)
}

func runWatch(script string) {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}

	rerun := func() {
		root, err := parseOnce(cfg, script)
		if err != nil {
			slog.Error("parse failed", "error", err)
			return
		}
		if err := render(root, cfg); err != nil {
			slog.Error("render failed", "error", err)
		}
	}
	rerun()

	files := []string{script}
	if cfg.Backend.Name == "peg" && cfg.Grammar.Path != "" {
		files = append(files, cfg.Grammar.Path)
	}

	w, err := watch.New(watch.Config{
		Files:    files,
		Debounce: time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
		OnChange: func(path string) {
			slog.Info("change detected", "path", path)
			rerun()
		},
	})
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Watch(ctx); err != nil {
		fatal(err)
	}
}

func runConfigInit() {
	cwd, err := os.Getwd()
	if err != nil {
		fatal(err)
	}
	if _, err := os.Stat(config.ConfigPath(cwd)); err == nil {
		fatal(fmt.Errorf("config already exists: %s", config.ConfigPath(cwd)))
	}
	if err := config.Save(cwd, config.DefaultConfig()); err != nil {
		fatal(err)
	}
	fmt.Printf("Created %s\n", config.ConfigPath(cwd))
}

func runConfigValidate() {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}
	errs := config.Validate(cfg)
	if len(errs) == 0 {
		fmt.Println("Configuration is valid")
		return
	}
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "- %v\n", e)
	}
	os.Exit(1)
}
