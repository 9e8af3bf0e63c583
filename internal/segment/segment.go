// Package segment implements the annotation segmentation engine: a pure,
// stateless transformation that partitions a block of text into an ordered
// sequence of non-overlapping display segments, each governed by at most one
// span. Spans may overlap, nest, cross, or coincide at boundaries; the engine
// resolves the geometry deterministically and never loses a character of the
// original text.
package segment

import (
	"fmt"
	"sort"

	"github.com/kwrites/prosecheck/internal/schema"
)

// Segment is a maximal run of the original text governed by at most one span.
// Kind is empty for plain (unannotated) text. Concatenating the Text fields
// of all segments in order reconstructs the input exactly.
type Segment struct {
	Text string
	Kind schema.Kind
	Note string
}

// Plain reports whether the segment carries no annotation.
func (s Segment) Plain() bool { return s.Kind == "" }

// Problem records one malformed span that was dropped or normalized while
// building boundary events. Problems are diagnostics, never fatal: one bad
// span must not prevent the rest of the text from rendering.
type Problem struct {
	Index   int    // position of the span in the caller's input order
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("span[%d]: %s", p.Index, p.Message)
}

// event is one boundary marker derived from a span: an open at its start
// offset or a close at its end offset.
type event struct {
	pos  int
	span *schema.Span
	open bool
}

// Split partitions text into segments according to spans. Offsets are rune
// offsets; out-of-range offsets are clamped to [0, len(text)] and inverted
// ranges are treated as zero-width at their start. Spans with a kind outside
// the schema enumeration (and nil spans) are dropped and reported as
// Problems. Split never fails: worst case the whole text comes back as one
// plain segment.
//
// The input spans are never mutated, and Split holds no state across calls;
// it is safe to call concurrently.
func Split(text string, spans []*schema.Span) ([]Segment, []Problem) {
	runes := []rune(text)
	events, problems := buildEvents(len(runes), spans)
	orderEvents(events)
	return sweep(runes, events), problems
}

// buildEvents converts each span into an open event at its clamped start and
// a close event at its clamped end. Both events reference the same *Span so
// the sweep can later remove exactly the entry that was opened.
func buildEvents(length int, spans []*schema.Span) ([]event, []Problem) {
	events := make([]event, 0, 2*len(spans))
	var problems []Problem
	for i, s := range spans {
		if s == nil {
			problems = append(problems, Problem{Index: i, Message: "nil span dropped"})
			continue
		}
		if _, err := schema.ParseKind(string(s.Kind)); err != nil {
			problems = append(problems, Problem{
				Index:   i,
				Message: fmt.Sprintf("unknown kind %q, span dropped", s.Kind),
			})
			continue
		}
		start := clamp(s.Start, 0, length)
		end := clamp(s.End, 0, length)
		if end < start {
			// Inverted range: normalize to zero-width at start.
			problems = append(problems, Problem{
				Index:   i,
				Message: fmt.Sprintf("inverted range [%d,%d) treated as zero-width", s.Start, s.End),
			})
			end = start
		}
		events = append(events, event{pos: start, span: s, open: true})
		events = append(events, event{pos: end, span: s, open: false})
	}
	return events, problems
}

// orderEvents sorts events by position ascending. At equal positions opens
// come before closes, so that a span opening exactly where another closes is
// treated as touching, not overlapping. The sort is stable: multiple opens
// (or closes) at the same position keep the caller's input order, making the
// output deterministic across runs.
func orderEvents(events []event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].pos != events[j].pos {
			return events[i].pos < events[j].pos
		}
		return events[i].open && !events[j].open
	})
}

// sweep walks the sorted events left to right, maintaining the collection of
// currently-open spans and emitting a segment each time the active set is
// about to change. The active collection is ordered by open time but removal
// is by identity, not stack discipline: spans may cross without nesting, and
// closing one must not disturb the others.
func sweep(runes []rune, events []event) []Segment {
	var segs []Segment
	var active []*schema.Span
	cursor := 0

	emit := func(to int) {
		if to <= cursor {
			return
		}
		seg := Segment{Text: string(runes[cursor:to])}
		if n := len(active); n > 0 {
			top := active[n-1] // most recently opened still-open span wins
			seg.Kind = top.Kind
			seg.Note = top.Note
		}
		segs = append(segs, seg)
		cursor = to
	}

	for _, ev := range events {
		emit(ev.pos)
		if ev.open {
			active = append(active, ev.span)
		} else {
			active = removeByIdentity(active, ev.span)
		}
	}
	emit(len(runes))

	return segs
}

// removeByIdentity removes the most recently opened occurrence of s from
// active, comparing pointers. Equal field values in a different span are not
// a match.
func removeByIdentity(active []*schema.Span, s *schema.Span) []*schema.Span {
	for i := len(active) - 1; i >= 0; i-- {
		if active[i] == s {
			return append(active[:i], active[i+1:]...)
		}
	}
	return active
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
