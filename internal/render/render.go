// Package render produces output from a fully assembled schema.Report and
// its display segments. The segmentation engine decides where annotations
// begin and end; this package only decides what that looks like.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kwrites/prosecheck/internal/schema"
	"github.com/kwrites/prosecheck/internal/segment"
)

// RenderJSON produces a pretty-printed JSON representation of the report.
// The output round-trips through json.Unmarshal back to an equal Report.
func RenderJSON(report *schema.Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("render: nil report")
	}
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return b, nil
}

// ansi color per kind: hard errors warm, style issues cool.
var kindColor = map[schema.Kind]string{
	schema.KindSpelling:  "\x1b[31m", // red
	schema.KindGrammar:   "\x1b[33m", // yellow
	schema.KindClarity:   "\x1b[36m", // cyan
	schema.KindStructure: "\x1b[35m", // magenta
}

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
)

// RenderText produces terminal output: the annotated text with each flagged
// segment colored by kind and numbered, followed by the notes, top tips, and
// example rewrite. When color is false no escape codes are emitted.
func RenderText(report *schema.Report, segs []segment.Segment, color bool) string {
	if report == nil {
		return ""
	}
	var sb strings.Builder

	bold := func(s string) string {
		if color {
			return ansiBold + s + ansiReset
		}
		return s
	}

	sb.WriteString(bold("ProseCheck"))
	fmt.Fprintf(&sb, " — %d issue(s)", len(report.Review.Issues))
	if report.Meta.Fallback {
		sb.WriteString(" (evaluator unavailable; local checks only)")
	}
	sb.WriteString("\n\n")

	type note struct {
		n    int
		kind schema.Kind
		text string
	}
	var notes []note

	for _, s := range segs {
		if s.Plain() {
			sb.WriteString(s.Text)
			continue
		}
		if color {
			sb.WriteString(kindColor[s.Kind])
			sb.WriteString(s.Text)
			sb.WriteString(ansiReset)
		} else {
			sb.WriteString(s.Text)
		}
		if s.Note != "" {
			n := len(notes) + 1
			notes = append(notes, note{n: n, kind: s.Kind, text: s.Note})
			fmt.Fprintf(&sb, "[%d]", n)
		}
	}
	sb.WriteString("\n")

	if len(notes) > 0 {
		sb.WriteString("\n")
		for _, n := range notes {
			fmt.Fprintf(&sb, "  [%d] %s: %s\n", n.n, n.kind, n.text)
		}
	}

	if len(report.Review.TopTips) > 0 {
		sb.WriteString("\n")
		sb.WriteString(bold("Top tips"))
		sb.WriteString("\n")
		for _, t := range report.Review.TopTips {
			fmt.Fprintf(&sb, "  • %s — %s\n", t.Title, t.Why)
			for _, ex := range t.Examples {
				fmt.Fprintf(&sb, "      before: %s\n", ex.Before)
				fmt.Fprintf(&sb, "      after:  %s\n", ex.After)
			}
		}
	}

	if ex := report.Review.Example; ex != nil {
		sb.WriteString("\n")
		sb.WriteString(bold("Example rewrite"))
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "  before: %s\n", ex.Before)
		sb.WriteString("  after:  ")
		for _, p := range ex.AfterParts {
			if p.Bold {
				sb.WriteString(bold(p.Text))
			} else {
				sb.WriteString(p.Text)
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderMarkdown produces a GitHub-flavoured Markdown version of the review,
// suitable for PR comments. Flagged segments are emphasized and footnoted;
// every note present in the segments appears in the output.
func RenderMarkdown(report *schema.Report, segs []segment.Segment) string {
	if report == nil {
		return ""
	}
	var sb strings.Builder

	sb.WriteString("## ProseCheck Review\n\n")
	fmt.Fprintf(&sb, "**Locale:** %s | **Goal:** %s | **Level:** %s\n\n",
		report.Input.Locale, report.Input.Goal, report.Input.Level)
	if report.Meta.Fallback {
		sb.WriteString("> The evaluator was unavailable; this review was generated locally.\n\n")
	}

	sb.WriteString("### Annotated text\n\n")
	footnote := 0
	var footnotes []string
	for _, s := range segs {
		if s.Plain() {
			sb.WriteString(s.Text)
			continue
		}
		fmt.Fprintf(&sb, "**%s**", s.Text)
		if s.Note != "" {
			footnote++
			fmt.Fprintf(&sb, "[^%d]", footnote)
			footnotes = append(footnotes,
				fmt.Sprintf("[^%d]: **%s** — %s", footnote, s.Kind, mdEscape(s.Note)))
		}
	}
	sb.WriteString("\n\n")
	for _, fn := range footnotes {
		sb.WriteString(fn)
		sb.WriteString("\n")
	}
	if len(footnotes) > 0 {
		sb.WriteString("\n")
	}

	if len(report.Review.TopTips) > 0 {
		sb.WriteString("### Top tips\n\n")
		for _, t := range report.Review.TopTips {
			fmt.Fprintf(&sb, "<details>\n<summary><strong>%s</strong></summary>\n\n%s\n\n",
				mdEscape(t.Title), mdEscape(t.Why))
			for _, ex := range t.Examples {
				fmt.Fprintf(&sb, "- before: `%s`\n- after: `%s`\n", ex.Before, ex.After)
			}
			sb.WriteString("\n</details>\n\n")
		}
	}

	if ex := report.Review.Example; ex != nil {
		sb.WriteString("### Example rewrite\n\n")
		fmt.Fprintf(&sb, "**Before:** %s\n\n**After:** ", mdEscape(ex.Before))
		for _, p := range ex.AfterParts {
			if p.Bold {
				fmt.Fprintf(&sb, "**%s**", p.Text)
			} else {
				sb.WriteString(p.Text)
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// mdEscape replaces characters that would break the surrounding Markdown.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
