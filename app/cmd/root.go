package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"codegen/app/config"
	"codegen/internal/domain/entity"
	"codegen/internal/infrastructure/store/filesystem"
)

const demoDescription = "You are an expert Python developer. Output ONLY valid Python 3 code (no explanation).\n" +
	"Write a function with signature: def add(a: int, b: int) -> int:\n" +
	"Return the sum of the two numbers. Return only code, no surrounding text or markdown fences."

type options struct {
	configPath string
	verbose    bool

	lang        string
	mode        string
	demo        bool
	outDir      string
	maxTokens   int
	temperature float64
	topP        float64
}

var (
	validStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	invalidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	fallbackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	noteStyle     = lipgloss.NewStyle().Faint(true)
)

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "codegen [description]",
		Short: "Generate code from a natural-language description",
		Long: `codegen turns a free-text description into Python, JavaScript, SQL or
HTML/CSS. Model output is cleaned up, syntax-checked and formatted; Python
requests that the model cannot answer get a heuristic fallback function.

Examples:
  codegen "a function that adds two numbers"
  codegen --lang sql --mode sql "ten most recent orders"
  codegen --demo
  codegen serve --config codegen.toml`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (.toml, .hcl or .json); defaults to $CODEGEN_CONFIG")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log at the configured level instead of warnings only")

	f := cmd.Flags()
	f.StringVarP(&opts.lang, "lang", "l", string(entity.LanguagePython), "target language: python, javascript, sql, html_css")
	f.StringVarP(&opts.mode, "mode", "m", string(entity.ModeFunction), "generation mode: function, class, api, test, sql")
	f.StringVar(&opts.mode, "type", string(entity.ModeFunction), "alias for --mode")
	f.BoolVar(&opts.demo, "demo", false, "run the built-in demo request")
	f.StringVarP(&opts.outDir, "out", "o", "", "also save the result under this directory")
	f.IntVar(&opts.maxTokens, "max-tokens", 0, "override sampling max tokens")
	f.Float64Var(&opts.temperature, "temperature", 0, "override sampling temperature")
	f.Float64Var(&opts.topP, "top-p", 0, "override sampling top_p")

	cmd.AddCommand(newServeCmd(opts))
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *options, args []string) error {
	description := strings.TrimSpace(strings.Join(args, " "))
	lang, mode := opts.lang, opts.mode
	if opts.demo {
		description, lang, mode = demoDescription, string(entity.LanguagePython), string(entity.ModeFunction)
	}
	if description == "" {
		return errors.New("provide a description or use --demo")
	}

	req, err := entity.NewGenerationRequest(description, mode, lang)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applySamplingFlags(cmd, opts, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := newLogger(cfg, opts.verbose, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	gen, err := newGenerator(cfg, logger)
	if err != nil {
		return err
	}
	res, err := gen.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.FormattedCode)
	printValidation(cmd.ErrOrStderr(), res)

	if opts.outDir != "" {
		repo, err := filesystem.NewFileRepository(opts.outDir)
		if err != nil {
			return err
		}
		job := entity.NewJob(req)
		path, err := repo.SaveArtifact(cmd.Context(), entity.NewArtifact(job.ID, res))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), noteStyle.Render("saved "+filepath.ToSlash(path)))
	}
	return nil
}

func applySamplingFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("max-tokens") {
		cfg.Sampling.MaxTokens = opts.maxTokens
	}
	if f.Changed("temperature") {
		cfg.Sampling.Temperature = opts.temperature
	}
	if f.Changed("top-p") {
		cfg.Sampling.TopP = opts.topP
	}
}

func printValidation(w io.Writer, res *entity.GenerationResult) {
	status := validStyle.Render(fmt.Sprintf("Validation: %t", res.Valid))
	if !res.Valid {
		status = invalidStyle.Render(fmt.Sprintf("Validation: %t", res.Valid))
	}
	line := status + " - " + res.ValidationMsg
	if res.Fallback {
		line += " " + fallbackStyle.Render("(fallback)")
	}
	fmt.Fprintln(w, line)
	if res.Notes != "" {
		fmt.Fprintln(w, noteStyle.Render(res.Notes))
	}
}
