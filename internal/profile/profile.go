// Package profile defines writing-goal presets that modulate evaluator prompt
// construction. Each profile provides a SystemPromptAddendum that is appended
// to the system prompt sent to the evaluator, plus a default target reading
// level used when the caller does not set one.
package profile

import "fmt"

// Profile describes one writing-goal preset.
type Profile struct {
	Name                 string
	Description          string
	SystemPromptAddendum string
	// DefaultLevel is the target reading level applied when the caller does
	// not pass one explicitly (e.g. "grade-8", "college").
	DefaultLevel string
}

// builtins is the registry of built-in profiles keyed by name.
var builtins = map[string]Profile{
	"general": {
		Name:        "general",
		Description: "Default profile; balanced feedback on all issue kinds.",
		SystemPromptAddendum: "Give balanced feedback. Flag spelling and grammar errors " +
			"precisely, and flag clarity or structure issues only when the problem is " +
			"concrete enough to explain in one sentence.",
		DefaultLevel: "grade-8",
	},
	"academic": {
		Name:        "academic",
		Description: "Academic writing; formal register, precise citations of weak claims.",
		SystemPromptAddendum: "The text is academic writing. Hold it to a formal register: " +
			"flag contractions, colloquialisms, and hedging without evidence as clarity " +
			"issues. Flag paragraphs that bury their topic sentence as structure issues.",
		DefaultLevel: "college",
	},
	"business": {
		Name:        "business",
		Description: "Business writing; concision and direct asks.",
		SystemPromptAddendum: "The text is business writing. Flag sentences longer than " +
			"25 words as clarity issues. Flag passive voice around requests or decisions " +
			"as clarity issues. The reader should know the ask within the first two sentences.",
		DefaultLevel: "grade-10",
	},
	"casual": {
		Name:        "casual",
		Description: "Casual writing; only hard errors, no style policing.",
		SystemPromptAddendum: "The text is casual writing. Flag only spelling and grammar " +
			"errors. Do not flag informal tone, sentence fragments used for effect, or " +
			"contractions.",
		DefaultLevel: "grade-6",
	},
}

// Load returns the named built-in profile or an error if the name is unknown.
func Load(name string) (Profile, error) {
	p, ok := builtins[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile: unknown profile %q (available: general, academic, business, casual)", name)
	}
	return p, nil
}
