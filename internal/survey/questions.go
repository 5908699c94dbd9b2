package survey

import (
	"regexp"
	"strconv"
	"strings"

	"eventpulse/internal/dataset"
)

// Kind tells the engine how to interpret answers to a question.
type Kind string

const (
	// FreeText answers are matched against brand variants or carried
	// through verbatim.
	FreeText Kind = "text"
	// Likert answers carry a leading 1-5 score ("5 - Very satisfied").
	Likert Kind = "likert"
)

// Question identifies one survey question by the prefix its text carries in
// the raw responses. Matching is by substring, so the prefix must be unique
// enough within the questionnaire ("10.1" vs "1.1 (Yes)").
type Question struct {
	Prefix string `yaml:"prefix"`
	Kind   Kind   `yaml:"kind"`
	Label  string `yaml:"label"`
}

// Questions is the declarative question table: every question the scoring
// engine reads, grouped by the block that consumes it.
type Questions struct {
	UnaidedRecall Question   `yaml:"unaided_recall"`
	AidedRecall   Question   `yaml:"aided_recall"`
	RecallReason  Question   `yaml:"recall_reason"`
	Aspects       []Question `yaml:"aspects"`
	Overall       Question   `yaml:"overall"`
	Positioning   []Question `yaml:"positioning"`
	Territories   []Question `yaml:"territories"`
	Relationship  []Question `yaml:"relationship"`
}

// Config carries the tunable parts of the scoring methodology.
type Config struct {
	// BrandVariants are the spellings (typos included) accepted as a brand
	// reference in free-text recall answers. Matching is case-insensitive.
	BrandVariants []string `yaml:"brand_variants"`

	// TopBoxThreshold is the minimum score counted by the Top-2-Box share.
	TopBoxThreshold float64 `yaml:"top_box_threshold"`

	Questions Questions `yaml:"questions"`
}

// DefaultConfig returns the deployed questionnaire and brand list.
func DefaultConfig() Config {
	return Config{
		BrandVariants: []string{
			"bb",
			"banco do brasil",
			"banco brasil",
			"bancobrasil",
			"bancodobrasil",
			"banco_brasil",
			"banco-brasil",
			"banco do br",
			"banco br",
			"bancobr",
			"b.b",
			"b b",
			"banco do brazil",
			"banco brazil",
			"bancobrazil",
			"bancobrasileiro",
			"banco brasileiro",
			"bando do brasil",
			"branco do brasil",
			"banco so brasil",
			"bamco do brasil",
		},
		TopBoxThreshold: 4,
		Questions: Questions{
			UnaidedRecall: Question{Prefix: "1.1 (Sim)", Kind: FreeText, Label: "Unaided brand recall"},
			AidedRecall:   Question{Prefix: "1.2 (Sim)", Kind: FreeText, Label: "Aided brand recall"},
			RecallReason:  Question{Prefix: "3.", Kind: FreeText, Label: "What makes you think that?"},
			Aspects: []Question{
				{Prefix: "4.a", Kind: Likert, Label: "Communication and promotion"},
				{Prefix: "4.b", Kind: Likert, Label: "Venue and atmosphere"},
				{Prefix: "4.c", Kind: Likert, Label: "Activities and content"},
			},
			Overall: Question{Prefix: "5.", Kind: Likert, Label: "Overall satisfaction"},
			Positioning: []Question{
				{Prefix: "6.", Kind: Likert, Label: "Connected to social-environmental needs"},
				{Prefix: "7.", Kind: Likert, Label: "Cares about me and sustainability"},
			},
			Territories: []Question{
				{Prefix: "8.", Kind: Likert, Label: "Promotes preservation and regeneration"},
				{Prefix: "9.", Kind: Likert, Label: "Fosters the sustainability debate"},
			},
			Relationship: []Question{
				{Prefix: "10.1", Kind: Likert, Label: "Intent to become a customer"},
				{Prefix: "10.2", Kind: Likert, Label: "Intent to deepen the relationship"},
			},
		},
	}
}

// Response is one entry of a survey's responses array.
type Response struct {
	Question string
	Answer   string
	Comment  string
}

// Responses extracts the structured response list from a raw survey row.
// Anything that is not an array of objects reads as empty.
func Responses(row dataset.Row) []Response {
	raw, ok := row[dataset.FieldResponses].([]any)
	if !ok {
		return nil
	}
	out := make([]Response, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var r Response
		r.Question, _ = entry["question"].(string)
		r.Answer, _ = entry["answer"].(string)
		r.Comment, _ = entry["comment"].(string)
		out = append(out, r)
	}
	return out
}

// FindAnswer returns the answer of the first response whose question text
// contains the prefix as a substring. A found-but-null answer reads as "".
func FindAnswer(responses []Response, prefix string) (string, bool) {
	for _, r := range responses {
		if r.Question != "" && strings.Contains(r.Question, prefix) {
			return r.Answer, true
		}
	}
	return "", false
}

var leadingNumber = regexp.MustCompile(`^(\d+)`)

// ExtractLeadingNumber parses the leading integer token of a coded answer,
// e.g. "5 - Very satisfied" yields 5.
func ExtractLeadingNumber(answer string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(answer))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return float64(n), true
}

// BrandMatcher answers whether a free-text response references the brand.
type BrandMatcher struct {
	variants []string
}

// NewBrandMatcher builds a case-insensitive matcher over the variant list.
func NewBrandMatcher(variants []string) *BrandMatcher {
	m := &BrandMatcher{variants: make([]string, 0, len(variants))}
	for _, v := range variants {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			m.variants = append(m.variants, v)
		}
	}
	return m
}

// Matches reports whether the text contains any brand variant.
func (m *BrandMatcher) Matches(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	for _, v := range m.variants {
		if strings.Contains(t, v) {
			return true
		}
	}
	return false
}
