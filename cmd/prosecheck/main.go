package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/kwrites/prosecheck/internal/fallback"
	"github.com/kwrites/prosecheck/internal/input"
	"github.com/kwrites/prosecheck/internal/llm"
	"github.com/kwrites/prosecheck/internal/profile"
	"github.com/kwrites/prosecheck/internal/render"
	"github.com/kwrites/prosecheck/internal/schema"
	"github.com/kwrites/prosecheck/internal/segment"
)

const version = "0.1.0"

// exitCodeBadInput is returned for unusable invocations: missing text,
// unknown goal, malformed locale, unknown output format. Evaluator failures
// are NOT an error exit; the fallback review is shown and the exit code is 0.
const exitCodeBadInput = 3

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	root := &cobra.Command{
		Use:           "prosecheck",
		Short:         "Writing feedback with highlighted issue spans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newReviewCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := 1
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		os.Exit(code)
	}
}

// reviewFlags holds everything runReview needs, so integration tests can
// call it without going through cobra.
type reviewFlags struct {
	file        string
	stdin       io.Reader
	provider    string
	model       string
	locale      string
	goal        string
	level       string
	format      string
	out         string
	maxTokens   int
	temperature float64
	offline     bool
	noColor     bool
	debug       bool
}

func newReviewCmd() *cobra.Command {
	var f reviewFlags
	cmd := &cobra.Command{
		Use:   "review [file]",
		Short: "Review a text file (or stdin) and show flagged spans",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				f.file = args[0]
			}
			f.stdin = cmd.InOrStdin()
			return runReview(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.provider, "provider", "anthropic", "evaluator provider: anthropic, openai, or google")
	cmd.Flags().StringVar(&f.model, "model", "claude-sonnet-4-5", "model name passed to the provider")
	cmd.Flags().StringVar(&f.locale, "locale", "en", "BCP 47 language tag of the text")
	cmd.Flags().StringVar(&f.goal, "goal", "general", "writing goal preset: general, academic, business, or casual")
	cmd.Flags().StringVar(&f.level, "level", "", "target reading level (default: the goal preset's)")
	cmd.Flags().StringVar(&f.format, "format", "text", "output format: text, markdown, or json")
	cmd.Flags().StringVar(&f.out, "out", "", "write output to this file instead of stdout")
	cmd.Flags().IntVar(&f.maxTokens, "max-tokens", 4096, "maximum evaluator response tokens")
	cmd.Flags().Float64Var(&f.temperature, "temperature", 0.2, "evaluator sampling temperature")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "skip the evaluator and run local checks only")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable ANSI colors in text output")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "print evaluator prompts to stderr")

	return cmd
}

// segmenter memoizes the last segmentation so repeated renders of the same
// (text, issues) pair do not recompute.
var segmenter segment.Memo

func runReview(ctx context.Context, f reviewFlags) error {
	text, err := input.Load(f.file, f.stdin)
	if err != nil {
		return &exitError{code: exitCodeBadInput, err: err}
	}

	prof, err := profile.Load(f.goal)
	if err != nil {
		return &exitError{code: exitCodeBadInput, err: err}
	}
	loc, err := language.Parse(f.locale)
	if err != nil {
		return &exitError{code: exitCodeBadInput, err: fmt.Errorf("invalid locale %q: %w", f.locale, err)}
	}
	level := f.level
	if level == "" {
		level = prof.DefaultLevel
	}
	switch f.format {
	case "text", "markdown", "json":
	default:
		return &exitError{code: exitCodeBadInput, err: fmt.Errorf("unknown format %q (want text, markdown, or json)", f.format)}
	}

	var review *schema.Review
	usedFallback := false
	if f.offline {
		review = fallback.Review(text)
		usedFallback = true
	} else {
		review, err = llm.Review(ctx, text, loc, prof, level, llm.Options{
			Provider:    f.provider,
			Model:       f.model,
			MaxTokens:   f.maxTokens,
			Temperature: f.temperature,
			Debug:       f.debug,
		})
		if err != nil {
			// Evaluator failure is never fatal: the text still renders with
			// the local checks substituted.
			fmt.Fprintf(os.Stderr, "prosecheck: evaluator unavailable (%v); showing local checks only\n", err)
			review = fallback.Review(text)
			usedFallback = true
		}
	}

	segs, problems := segmenter.Split(text, review.Issues)
	for _, p := range problems {
		fmt.Fprintf(os.Stderr, "prosecheck: %s\n", p)
	}

	reportSegs := make([]schema.Segment, len(segs))
	for i, s := range segs {
		reportSegs[i] = schema.Segment{Text: s.Text, Kind: s.Kind, Note: s.Note}
	}

	report := &schema.Report{
		Tool:     "prosecheck",
		Version:  version,
		RunID:    uuid.NewString(),
		Input:    schema.Input{Locale: loc.String(), Goal: prof.Name, Level: level},
		Review:   *review,
		Segments: reportSegs,
		Meta: schema.Meta{
			Model:       f.model,
			Temperature: f.temperature,
			Fallback:    usedFallback,
		},
	}

	var out string
	switch f.format {
	case "json":
		b, err := render.RenderJSON(report)
		if err != nil {
			return err
		}
		out = string(b) + "\n"
	case "markdown":
		out = render.RenderMarkdown(report, segs)
	default:
		out = render.RenderText(report, segs, !f.noColor)
	}

	if f.out == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(f.out, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
