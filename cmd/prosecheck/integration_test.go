//go:build integration

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kwrites/prosecheck/internal/llm"
	"github.com/kwrites/prosecheck/internal/schema"
)

// evaluatorMockResponse flags the leading misspelling in the fixture text.
const evaluatorMockResponse = `{
  "issues": [
    {"type": "spelling", "start": 0, "end": 3, "tip": "Spelling: 'The'."}
  ],
  "topTips": [
    {"title": "Proofread the first line", "why": "Readers judge early.", "examples": []}
  ]
}`

// mockMultiProvider returns successive responses from a list.
type mockMultiProvider struct {
	responses []string
	idx       int
}

func (m *mockMultiProvider) Complete(ctx context.Context, system, user string, maxTokens int, temp float64) (string, error) {
	if m.idx >= len(m.responses) {
		return "", fmt.Errorf("mock: no more responses")
	}
	r := m.responses[m.idx]
	m.idx++
	return r, nil
}

// errorProvider always returns an error from Complete.
type errorProvider struct{}

func (e *errorProvider) Complete(ctx context.Context, system, user string, maxTokens int, temp float64) (string, error) {
	return "", fmt.Errorf("simulated API error")
}

func injectMock(t *testing.T, responses []string) {
	t.Helper()
	orig := llm.NewProvider
	llm.NewProvider = func(providerName, model string) (llm.Provider, error) {
		return &mockMultiProvider{responses: responses}, nil
	}
	t.Cleanup(func() { llm.NewProvider = orig })
}

func injectErrProvider(t *testing.T) {
	t.Helper()
	orig := llm.NewProvider
	llm.NewProvider = func(providerName, model string) (llm.Provider, error) {
		return &errorProvider{}, nil
	}
	t.Cleanup(func() { llm.NewProvider = orig })
}

func writeFixture(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draft.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func baseFlags(t *testing.T, text string) reviewFlags {
	t.Helper()
	return reviewFlags{
		file:        writeFixture(t, text),
		provider:    "anthropic",
		model:       "mock",
		locale:      "en",
		goal:        "general",
		format:      "json",
		out:         filepath.Join(t.TempDir(), "out.json"),
		maxTokens:   4096,
		temperature: 0.2,
	}
}

func readReport(t *testing.T, path string) schema.Report {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var report schema.Report
	if err := json.Unmarshal(b, &report); err != nil {
		t.Fatalf("parse output JSON: %v", err)
	}
	return report
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func TestIntegration_EvaluatorReview(t *testing.T) {
	injectMock(t, []string{evaluatorMockResponse})
	f := baseFlags(t, "Teh cat was nice.")

	if err := runReview(context.Background(), f); err != nil {
		t.Fatalf("runReview: %v", err)
	}

	report := readReport(t, f.out)
	if report.Meta.Fallback {
		t.Error("evaluator succeeded; fallback must be false")
	}
	if len(report.Review.Issues) != 1 || report.Review.Issues[0].Kind != schema.KindSpelling {
		t.Errorf("issues: got %+v", report.Review.Issues)
	}
	if report.RunID == "" {
		t.Error("run id missing")
	}

	// The JSON document carries the segment partition, and it reconstructs
	// the reviewed text exactly.
	if len(report.Segments) != 2 || report.Segments[0].Kind != schema.KindSpelling {
		t.Fatalf("segments: got %+v", report.Segments)
	}
	var rebuilt strings.Builder
	for _, s := range report.Segments {
		rebuilt.WriteString(s.Text)
	}
	if rebuilt.String() != "Teh cat was nice." {
		t.Errorf("segments do not reconstruct the text: %q", rebuilt.String())
	}
}

func TestIntegration_Offline(t *testing.T) {
	f := baseFlags(t, "The the cat sat.")
	f.offline = true

	if err := runReview(context.Background(), f); err != nil {
		t.Fatalf("runReview: %v", err)
	}

	report := readReport(t, f.out)
	if !report.Meta.Fallback {
		t.Error("offline run must mark the report as fallback")
	}
	if len(report.Review.Issues) == 0 {
		t.Error("local checks should flag the repeated word")
	}
}

func TestIntegration_EvaluatorFailureFallsBack(t *testing.T) {
	injectErrProvider(t)
	f := baseFlags(t, "The the cat sat.")

	// Evaluator failure is non-blocking: exit 0, fallback review shown.
	if err := runReview(context.Background(), f); err != nil {
		t.Fatalf("expected fallback, got error: %v", err)
	}

	report := readReport(t, f.out)
	if !report.Meta.Fallback {
		t.Error("report must be marked as fallback after evaluator failure")
	}
}

func TestIntegration_MarkdownFormat(t *testing.T) {
	injectMock(t, []string{evaluatorMockResponse})
	f := baseFlags(t, "Teh cat was nice.")
	f.format = "markdown"
	f.out = filepath.Join(t.TempDir(), "out.md")

	if err := runReview(context.Background(), f); err != nil {
		t.Fatalf("runReview: %v", err)
	}
	b, err := os.ReadFile(f.out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(b), "**Teh**[^1]") {
		t.Errorf("markdown output missing annotated span:\n%s", b)
	}
}

func TestIntegration_EmptyInput_ExitsThree(t *testing.T) {
	f := baseFlags(t, "   \n")
	err := runReview(context.Background(), f)
	if code := exitCode(err); code != exitCodeBadInput {
		t.Errorf("expected exit %d (bad input), got %d: %v", exitCodeBadInput, code, err)
	}
}

func TestIntegration_UnknownGoal_ExitsThree(t *testing.T) {
	f := baseFlags(t, "Fine text.")
	f.goal = "poetry"
	err := runReview(context.Background(), f)
	if code := exitCode(err); code != exitCodeBadInput {
		t.Errorf("expected exit %d (bad input), got %d: %v", exitCodeBadInput, code, err)
	}
}

func TestIntegration_UnknownFormat_ExitsThree(t *testing.T) {
	f := baseFlags(t, "Fine text.")
	f.format = "yaml"
	err := runReview(context.Background(), f)
	if code := exitCode(err); code != exitCodeBadInput {
		t.Errorf("expected exit %d (bad input), got %d: %v", exitCodeBadInput, code, err)
	}
}
