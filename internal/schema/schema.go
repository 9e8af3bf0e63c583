// Package schema defines all canonical data types for the ProseCheck review format.
package schema

import "fmt"

// Kind classifies an issue span. The set is closed: the evaluator contract
// and the segmentation engine both depend on it being a fixed enumeration,
// not a free string.
type Kind string

const (
	KindSpelling  Kind = "spelling"
	KindGrammar   Kind = "grammar"
	KindClarity   Kind = "clarity"
	KindStructure Kind = "structure"
)

// ParseKind converts a string to a Kind constant.
// Returns an error for values outside the enumeration.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSpelling, KindGrammar, KindClarity, KindStructure:
		return Kind(s), nil
	}
	return "", fmt.Errorf("schema: unknown kind %q", s)
}

// Span is one flagged region of the original text. Start and End are a
// half-open rune offset range, 0 <= Start <= End <= len(text); Start == End
// denotes a zero-width span. Spans are passed around as pointers because
// identity matters: two spans with identical fields are still distinct
// entities, and the segmentation engine closes exactly the span that opened.
type Span struct {
	Kind  Kind   `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Note  string `json:"tip,omitempty"`
}

// TipExample is a before/after pair illustrating a tip.
type TipExample struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

// Tip is one of the evaluator's general writing suggestions.
type Tip struct {
	Title    string       `json:"title"`
	Why      string       `json:"why"`
	Examples []TipExample `json:"examples"`
}

// RewritePart is a run of rewrite text, optionally emphasized.
type RewritePart struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Rewrite is the evaluator's optional example rewrite of one passage.
type Rewrite struct {
	Before     string        `json:"before"`
	AfterParts []RewritePart `json:"afterParts"`
}

// Review is the upstream evaluator contract: the JSON document the language
// model must return. Only Issues feeds the segmentation engine; TopTips and
// Example are rendered verbatim by the presentation layer.
type Review struct {
	Issues  []*Span  `json:"issues"`
	TopTips []Tip    `json:"topTips"`
	Example *Rewrite `json:"example,omitempty"`
}

// Segment is one display slice of the reviewed text as partitioned by the
// segmentation engine: a verbatim run governed by at most one issue. Kind is
// empty for plain text. Concatenating the Text fields of a report's segments
// in order yields the reviewed text exactly.
type Segment struct {
	Text string `json:"text"`
	Kind Kind   `json:"kind,omitempty"`
	Note string `json:"note,omitempty"`
}

// Input records the parameters used for this run.
type Input struct {
	Locale string `json:"locale"`
	Goal   string `json:"goal"`
	Level  string `json:"level"`
}

// Meta records information about the evaluator call. Fallback is true when
// the review was generated locally because the evaluator was unavailable.
type Meta struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Fallback    bool    `json:"fallback"`
}

// Report is the top-level output document: the review merged with locally
// computed fields, including the segment partition so JSON consumers do not
// have to re-derive it from the raw issues.
type Report struct {
	Tool     string    `json:"tool"`
	Version  string    `json:"version"`
	RunID    string    `json:"run_id"`
	Input    Input     `json:"input"`
	Review   Review    `json:"review"`
	Segments []Segment `json:"segments"`
	Meta     Meta      `json:"meta"`
}
