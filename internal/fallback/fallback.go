// Package fallback generates a substitute review locally when the evaluator
// is unreachable or returns unusable output. No LLM calls are made here: the
// heuristics are deterministic, and the result has the same shape as an
// evaluator review so the rest of the pipeline is unaffected.
package fallback

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/kwrites/prosecheck/internal/schema"
)

// maxSentenceWords is the word count above which a sentence is flagged.
const maxSentenceWords = 30

// Review builds a substitute review for text. All span offsets are rune
// offsets compatible with the segmentation engine. The result always has a
// non-nil Issues slice and at least one top tip so the rendered output is
// never empty.
func Review(text string) *schema.Review {
	runes := []rune(text)

	issues := []*schema.Span{}
	issues = append(issues, repeatedWords(runes)...)
	issues = append(issues, doubledSpaces(runes)...)
	issues = append(issues, overlongSentences(runes)...)

	// Deterministic presentation order regardless of which heuristic fired.
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Start < issues[j].Start })

	return &schema.Review{
		Issues: issues,
		TopTips: []schema.Tip{
			{
				Title: "Read it aloud",
				Why: "The evaluator is unavailable, so only mechanical checks ran. " +
					"Reading a draft aloud catches most of what they miss: missing words, " +
					"tangled clauses, and sentences you run out of breath on.",
				Examples: []schema.TipExample{
					{
						Before: "The report that was written by the team that was formed last quarter was reviewed.",
						After:  "Last quarter's team wrote the report, and we reviewed it.",
					},
				},
			},
		},
	}
}

// word is one scanned token with its half-open rune range.
type word struct {
	start, end int
	text       string
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

// scanWords tokenizes runes into words with rune offsets.
func scanWords(runes []rune) []word {
	var words []word
	start := -1
	for i, r := range runes {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, word{start: start, end: i, text: string(runes[start:i])})
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, word{start: start, end: len(runes), text: string(runes[start:])})
	}
	return words
}

// repeatedWords flags immediately repeated words ("the the") as grammar issues.
func repeatedWords(runes []rune) []*schema.Span {
	var spans []*schema.Span
	words := scanWords(runes)
	for i := 1; i < len(words); i++ {
		if strings.EqualFold(words[i].text, words[i-1].text) {
			spans = append(spans, &schema.Span{
				Kind:  schema.KindGrammar,
				Start: words[i-1].start,
				End:   words[i].end,
				Note:  fmt.Sprintf("%q is repeated.", words[i].text),
			})
		}
	}
	return spans
}

// doubledSpaces flags runs of two or more spaces as structure issues.
// Indentation after a newline is not flagged.
func doubledSpaces(runes []rune) []*schema.Span {
	var spans []*schema.Span
	i := 0
	for i < len(runes) {
		if runes[i] != ' ' {
			i++
			continue
		}
		j := i
		for j < len(runes) && runes[j] == ' ' {
			j++
		}
		atLineStart := i == 0 || runes[i-1] == '\n'
		if j-i >= 2 && !atLineStart {
			spans = append(spans, &schema.Span{
				Kind:  schema.KindStructure,
				Start: i,
				End:   j,
				Note:  "Extra whitespace.",
			})
		}
		i = j
	}
	return spans
}

// overlongSentences flags sentences longer than maxSentenceWords as clarity
// issues. Sentence boundaries are '.', '!', '?', or end of text.
func overlongSentences(runes []rune) []*schema.Span {
	var spans []*schema.Span
	start := 0
	count := 0
	inWord := false

	flush := func(end int) {
		for start < end && unicode.IsSpace(runes[start]) {
			start++
		}
		if count > maxSentenceWords && start < end {
			spans = append(spans, &schema.Span{
				Kind:  schema.KindClarity,
				Start: start,
				End:   end,
				Note:  fmt.Sprintf("This sentence runs %d words; consider splitting it.", count),
			})
		}
		start = end
		count = 0
		inWord = false
	}

	for i, r := range runes {
		if isWordRune(r) {
			if !inWord {
				count++
				inWord = true
			}
		} else {
			inWord = false
		}
		if r == '.' || r == '!' || r == '?' {
			flush(i + 1)
		}
	}
	flush(len(runes))

	return spans
}
