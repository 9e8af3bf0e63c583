package fallback

import (
	"strings"
	"testing"

	"github.com/kwrites/prosecheck/internal/schema"
	"github.com/kwrites/prosecheck/internal/segment"
)

func TestReview_CleanText(t *testing.T) {
	r := Review("A short, clean sentence.")
	if r.Issues == nil {
		t.Fatal("Issues must be non-nil even when empty")
	}
	if len(r.Issues) != 0 {
		t.Errorf("clean text should produce no issues, got %+v", r.Issues)
	}
	if len(r.TopTips) == 0 {
		t.Error("fallback review must carry at least one top tip")
	}
	if r.Example != nil {
		t.Errorf("fallback review has no example rewrite, got %+v", r.Example)
	}
}

func TestReview_RepeatedWord(t *testing.T) {
	text := "The cat cat sat."
	r := Review(text)
	if len(r.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %+v", r.Issues)
	}
	issue := r.Issues[0]
	if issue.Kind != schema.KindGrammar {
		t.Errorf("kind: got %q, want grammar", issue.Kind)
	}
	if got := string([]rune(text)[issue.Start:issue.End]); got != "cat cat" {
		t.Errorf("flagged region: got %q, want %q", got, "cat cat")
	}
}

func TestReview_RepeatedWordCaseInsensitive(t *testing.T) {
	r := Review("It it happens.")
	if len(r.Issues) != 1 || r.Issues[0].Kind != schema.KindGrammar {
		t.Errorf("expected one grammar issue for \"It it\", got %+v", r.Issues)
	}
}

func TestReview_DoubledSpace(t *testing.T) {
	text := "Hello  world."
	r := Review(text)
	if len(r.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %+v", r.Issues)
	}
	issue := r.Issues[0]
	if issue.Kind != schema.KindStructure {
		t.Errorf("kind: got %q, want structure", issue.Kind)
	}
	if issue.Start != 5 || issue.End != 7 {
		t.Errorf("range: got [%d,%d), want [5,7)", issue.Start, issue.End)
	}
}

func TestReview_IndentationNotFlagged(t *testing.T) {
	r := Review("First line.\n    Indented line.")
	for _, issue := range r.Issues {
		if issue.Kind == schema.KindStructure {
			t.Errorf("indentation flagged as extra whitespace: %+v", issue)
		}
	}
}

func TestReview_OverlongSentence(t *testing.T) {
	long := "This sentence " + strings.Repeat("really ", 30) + "never ends."
	text := "Short one. " + long
	r := Review(text)

	var clarity *schema.Span
	for _, issue := range r.Issues {
		if issue.Kind == schema.KindClarity {
			clarity = issue
		}
	}
	if clarity == nil {
		t.Fatalf("expected a clarity issue for the long sentence, got %+v", r.Issues)
	}
	flagged := string([]rune(text)[clarity.Start:clarity.End])
	if !strings.HasPrefix(flagged, "This sentence") || !strings.HasSuffix(flagged, "ends.") {
		t.Errorf("flagged region should cover the long sentence only, got %q", flagged)
	}
}

func TestReview_IssuesSortedByStart(t *testing.T) {
	text := "Start start of it.  And the the end."
	r := Review(text)
	for i := 1; i < len(r.Issues); i++ {
		if r.Issues[i].Start < r.Issues[i-1].Start {
			t.Errorf("issues not sorted by start: %+v", r.Issues)
		}
	}
}

func TestReview_OffsetsFeedTheEngine(t *testing.T) {
	// Fallback offsets are rune offsets; the round trip through the engine
	// must reconstruct the text and flag real regions.
	text := "Héllo  héllo wörld wörld.  The end end."
	r := Review(text)
	if len(r.Issues) == 0 {
		t.Fatal("expected issues in messy text")
	}

	segs, problems := segment.Split(text, r.Issues)
	if len(problems) != 0 {
		t.Errorf("fallback produced malformed spans: %v", problems)
	}
	var rebuilt strings.Builder
	for _, s := range segs {
		rebuilt.WriteString(s.Text)
	}
	if rebuilt.String() != text {
		t.Errorf("reconstruction: got %q, want %q", rebuilt.String(), text)
	}
}
