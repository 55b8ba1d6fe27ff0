package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jward/understory"
	"github.com/jward/understory/internal/store"
)

var (
	flagConfig    string
	flagOut       string
	flagDB        string
	flagLanguages string
	flagMaxDepth  int
	flagGitignore bool
	flagNoDocs    bool
	flagNoTypes   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "understory",
	Short:         "Language-neutral semantic analysis of multi-language codebases",
	Long:          "Understory parses Python, PHP, JavaScript and TypeScript sources into a semantic model: entities, relationships, and reconstructed call flows.",
	SilenceErrors: true,
	SilenceUsage:  true,
	// No Run — prints help by default.
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&flagConfig, "config", "", "YAML configuration file")
	analyzeCmd.Flags().StringVar(&flagOut, "out", "", "write the JSON snapshot to this file (default: stdout)")
	analyzeCmd.Flags().StringVar(&flagDB, "db", "", "also persist the snapshot to a SQLite database at this path")
	analyzeCmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. python,typescript)")
	analyzeCmd.Flags().IntVar(&flagMaxDepth, "max-depth", 0, "override flow.max_depth")
	analyzeCmd.Flags().BoolVar(&flagGitignore, "gitignore", false, "respect the project's .gitignore")
	analyzeCmd.Flags().BoolVar(&flagNoDocs, "no-docstrings", false, "skip documentation extraction")
	analyzeCmd.Flags().BoolVar(&flagNoTypes, "no-types", false, "skip type-annotation capture")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a project tree and emit the semantic model snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	start := time.Now()

	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(&cfg)

	result, err := understory.Analyze(context.Background(), root, cfg)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", root, err)
	}

	snap := result.Snapshot()
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	payload = append(payload, '\n')

	if flagOut != "" {
		if err := os.WriteFile(flagOut, payload, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", flagOut, err)
		}
	} else {
		os.Stdout.Write(payload)
	}

	if flagDB != "" {
		if err := persist(snap, flagDB); err != nil {
			return err
		}
	}

	sum := result.Summary()
	fmt.Fprintf(os.Stderr, "Analyzed %s in %s: %d modules, %d types, %d routines, %d diagnostics\n",
		root,
		time.Since(start).Round(time.Millisecond),
		sum.Entities["module"], sum.Entities["type"], sum.Entities["routine"],
		sum.Diagnostics,
	)
	if result.Incomplete() {
		fmt.Fprintln(os.Stderr, "Warning: analysis was cancelled; the model is incomplete")
	}
	return nil
}

func persist(snap *understory.Snapshot, dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()
	if err := st.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	if err := st.SaveSnapshot(snap); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	if err := st.SetMetadata("saved_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	return nil
}

// loadConfig reads the YAML configuration file over the defaults. The
// core itself never reads files; configuration loading is this command's
// job.
func loadConfig() (understory.Config, error) {
	cfg := understory.DefaultConfig()
	if flagConfig == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(flagConfig)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", flagConfig, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", flagConfig, err)
	}
	return cfg, nil
}

func applyFlags(cfg *understory.Config) {
	if flagLanguages != "" {
		enabled := make(map[string]bool)
		for _, lang := range strings.Split(flagLanguages, ",") {
			enabled[strings.TrimSpace(lang)] = true
		}
		if cfg.Languages == nil {
			cfg.Languages = make(map[string]understory.LanguageConfig)
		}
		for _, lang := range []string{"python", "php", "javascript", "typescript"} {
			lc := cfg.Languages[lang]
			on := enabled[lang]
			lc.Enabled = &on
			cfg.Languages[lang] = lc
		}
	}
	if flagMaxDepth > 0 {
		cfg.Flow.MaxDepth = flagMaxDepth
	}
	if flagGitignore {
		cfg.RespectGitignore = true
	}
	if flagNoDocs {
		cfg.DetectDocstrings = false
	}
	if flagNoTypes {
		cfg.DetectTypes = false
	}
}

func resolveRoot(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}
