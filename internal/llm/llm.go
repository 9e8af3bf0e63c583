// Package llm handles evaluator provider communication, prompt construction,
// response validation, and the single repair attempt.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/text/language"

	"github.com/kwrites/prosecheck/internal/profile"
	"github.com/kwrites/prosecheck/internal/schema"
)

// ErrInvalidModelOutput is returned when both the initial and repair
// responses fail validation. The caller should fall back to a locally
// generated review.
var ErrInvalidModelOutput = errors.New("llm: invalid model output after repair attempt")

// Provider is the interface for evaluator backends.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// NewProvider is the factory for creating providers. It is a package-level
// variable so tests can replace it with a mock without modifying the call
// site. Tests must restore the original value; use t.Cleanup to do so safely.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

// Options configures a Review call.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Debug       bool
}

// ValidationError records a single validation failure on an evaluator response.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// Review builds a prompt, calls the evaluator, validates the response, and
// performs one repair attempt if validation fails. Returns the decoded
// review or an error.
func Review(
	ctx context.Context,
	text string,
	loc language.Tag,
	prof profile.Profile,
	level string,
	opts Options,
) (*schema.Review, error) {
	provider, err := NewProvider(opts.Provider, opts.Model)
	if err != nil {
		return nil, fmt.Errorf("llm: create provider: %w", err)
	}

	sysPrompt := buildSystemPrompt(loc, prof, level)
	userPrompt := buildUserPrompt(text)
	textLen := len([]rune(text))

	if opts.Debug {
		fmt.Fprintf(os.Stderr, "=== DEBUG: system prompt ===\n%s\n", sysPrompt)
		fmt.Fprintf(os.Stderr, "=== DEBUG: user prompt ===\n%s\n", userPrompt)
	}

	raw, err := provider.Complete(ctx, sysPrompt, userPrompt, opts.MaxTokens, opts.Temperature)
	if err != nil {
		return nil, fmt.Errorf("llm: complete: %w", err)
	}

	review, validationErrs := ValidateResponse(raw, textLen)
	if review != nil && !needsRepair(validationErrs) {
		// Non-fatal validation errors (dropped out-of-enum issues, suspect
		// ranges) were applied in-place by ValidateResponse.
		return review, nil
	}

	// One repair attempt: include the original prompt and the invalid
	// response so the evaluator has full context.
	repairPrompt := buildRepairPrompt(userPrompt, raw, validationErrs)
	raw2, err := provider.Complete(ctx, sysPrompt, repairPrompt, opts.MaxTokens, opts.Temperature)
	if err != nil {
		return nil, fmt.Errorf("llm: repair complete: %w", err)
	}

	review2, validationErrs2 := ValidateResponse(raw2, textLen)
	if review2 != nil && !needsRepair(validationErrs2) {
		return review2, nil
	}

	return nil, ErrInvalidModelOutput
}

// needsRepair returns true when validation errors include a parse or
// required-field failure that requires a retry.
func needsRepair(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Field == "json_parse" || e.Field == "required_field" {
			return true
		}
	}
	return false
}

// fenceRe matches a markdown code fence block (``` or ~~~) with an optional
// language tag and captures the content between the fences.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// openFenceRe matches only an opening fence line (no closing fence required).
// Used to strip orphaned opening fences from truncated responses.
var openFenceRe = regexp.MustCompile("^(?:`{3}|~{3})[^\\n]*\\n")

// stripMarkdownFences removes leading/trailing markdown code fences that
// models sometimes wrap around JSON output (e.g., "```json\n...\n```").
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Handle truncated fenced responses: strip the opening fence line only.
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

// invalidJSONEscapeRe matches a backslash followed by any character that is
// not a valid JSON string escape character. Models sometimes emit regex-like
// sequences (e.g. \d) unescaped inside JSON strings; this sanitizer converts
// them to properly double-escaped sequences so the parser accepts them.
var invalidJSONEscapeRe = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

func fixInvalidJSONEscapes(s string) string {
	return invalidJSONEscapeRe.ReplaceAllString(s, `\\$1`)
}

// ValidateResponse parses and validates the raw evaluator response against
// the review contract. Leading/trailing markdown fences are stripped before
// parsing. Fatal issues (parse failure, missing issues field) return a nil
// review. Non-fatal issues are applied in place: entries with a kind outside
// the schema enumeration are removed, and suspect index ranges are recorded
// but kept, since clamping is the segmentation engine's job. One bad issue
// never discards the rest of the review.
func ValidateResponse(raw string, textLen int) (*schema.Review, []ValidationError) {
	var errs []ValidationError

	raw = stripMarkdownFences(raw)

	var review schema.Review
	if err := json.Unmarshal([]byte(raw), &review); err != nil {
		fixed := fixInvalidJSONEscapes(raw)
		if err2 := json.Unmarshal([]byte(fixed), &review); err2 != nil {
			errs = append(errs, ValidationError{
				Field:   "json_parse",
				Message: err.Error(),
			})
			return nil, errs
		}
	}

	if review.Issues == nil {
		errs = append(errs, ValidationError{
			Field:   "required_field",
			Message: "issues is missing",
		})
		return nil, errs
	}
	if review.TopTips == nil {
		review.TopTips = []schema.Tip{}
	}

	kept := review.Issues[:0:0]
	for i, issue := range review.Issues {
		if issue == nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("issues[%d]", i),
				Message: "null entry removed",
			})
			continue
		}
		if _, err := schema.ParseKind(string(issue.Kind)); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("issues[%d].type", i),
				Message: fmt.Sprintf("invalid type %q, entry removed", issue.Kind),
			})
			continue
		}
		if issue.Start < 0 || issue.End > textLen || issue.End < issue.Start {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("issues[%d]", i),
				Message: fmt.Sprintf("range [%d,%d) outside text of length %d", issue.Start, issue.End, textLen),
			})
		}
		kept = append(kept, issue)
	}
	review.Issues = kept

	return &review, errs
}

// buildSystemPrompt assembles the evaluator system prompt.
func buildSystemPrompt(loc language.Tag, prof profile.Profile, level string) string {
	var sb strings.Builder

	sb.WriteString("You are ProseCheck, a writing evaluator.\n\n")

	sb.WriteString("Output ONLY valid JSON conforming to the schema below. " +
		"No prose, no markdown, no explanation outside the JSON.\n\n")

	fmt.Fprintf(&sb, "The text is written in %s. Target reading level: %s.\n\n",
		loc.String(), level)

	sb.WriteString("Issue start and end are character offsets into the text, " +
		"counted in Unicode characters, with end exclusive. " +
		"Never flag a region you cannot point to exactly.\n\n")

	if prof.SystemPromptAddendum != "" {
		sb.WriteString(prof.SystemPromptAddendum)
		sb.WriteString("\n\n")
	}

	sb.WriteString(outputSchema)

	return sb.String()
}

// outputSchema is the JSON schema fragment shown to the evaluator.
const outputSchema = `Output schema (JSON only):
{
  "issues": [
    {"type": "spelling|grammar|clarity|structure", "start": 0, "end": 3, "tip": "short explanation"}
  ],
  "topTips": [
    {"title": "...", "why": "...", "examples": [{"before": "...", "after": "..."}]}
  ],
  "example": {"before": "...", "afterParts": [{"text": "...", "bold": true}]}
}
The example field is optional. Emit at most three topTips.
`

// buildUserPrompt assembles the evaluator user prompt.
func buildUserPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("TEXT TO REVIEW:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nProduce the JSON review now.")
	return sb.String()
}

// buildRepairPrompt constructs the repair message. It includes the original
// user prompt and the previous invalid response so the evaluator has full
// context.
func buildRepairPrompt(originalUserPrompt, previousResponse string, errs []ValidationError) string {
	var sb strings.Builder
	sb.WriteString(originalUserPrompt)
	sb.WriteString("\n\nYour previous response was:\n")
	sb.WriteString(previousResponse)
	sb.WriteString("\n\nThat response was invalid. Errors:\n")
	for _, e := range errs {
		fmt.Fprintf(&sb, "  - %s\n", e.Error())
	}
	sb.WriteString("\nPlease output only the corrected JSON conforming to the schema. Do not repeat the error.")
	return sb.String()
}

// ── Provider dispatch ─────────────────────────────────────────────────────────

// defaultNewProvider dispatches to the appropriate provider implementation.
func defaultNewProvider(providerName, model string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "anthropic", "":
		return newAnthropicProvider(model)
	case "openai":
		return newOpenAIProvider(model)
	case "google":
		return newGoogleProvider(model)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", providerName)
	}
}

// ── Anthropic provider ───────────────────────────────────────────────────────

// anthropicProvider implements Provider using the Anthropic SDK.
// anthropic.Client is a value type; the SDK's NewClient returns it by value.
type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropicProvider(model string) (Provider, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("llm: ANTHROPIC_API_KEY environment variable not set")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &anthropicProvider{client: client, model: model}, nil
}

func (p *anthropicProvider) Complete(
	ctx context.Context,
	systemPrompt, userPrompt string,
	maxTokens int,
	temperature float64,
) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: messages.new: %w", err)
	}

	var parts []string
	for _, block := range msg.Content {
		// "text" is the only content type that carries assistant text output.
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("anthropic: response contained no text content blocks")
	}
	return strings.Join(parts, ""), nil
}
