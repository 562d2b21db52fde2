package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// MaxSuggestions caps the recommendation list.
const MaxSuggestions = 5

// Suggestion is one recommended sticker.
type Suggestion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Recommender suggests stickers that go with the current cart.
type Recommender struct {
	gen     Generator
	timeout time.Duration
	log     *zap.Logger
}

func NewRecommender(gen Generator, timeout time.Duration, log *zap.Logger) *Recommender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recommender{gen: gen, timeout: timeout, log: log}
}

var suggestionsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
		},
		Required: []string{"name", "description"},
	},
}

// Recommend returns up to MaxSuggestions items.  An empty cart makes no
// call.  Any failure yields an empty list.
func (r *Recommender) Recommend(ctx context.Context, names []string) []Suggestion {
	names = CleanNames(names)
	if len(names) == 0 {
		return []Suggestion{}
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	raw, err := r.gen.Generate(ctx, Request{Prompt: recommendPrompt(names), Schema: suggestionsSchema})
	if err != nil {
		r.log.Warn("recommendations unavailable", zap.Int("cart_items", len(names)), zap.Error(err))
		return []Suggestion{}
	}
	var got []Suggestion
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		r.log.Warn("recommendations unparseable", zap.Error(err))
		return []Suggestion{}
	}
	return filterSuggestions(got, names)
}

func recommendPrompt(names []string) string {
	return fmt.Sprintf("A shopper has these stickers in their cart: %s. "+
		"Suggest up to %d other sticker designs they might like. "+
		"Give each a short name and a one-sentence description.",
		strings.Join(names, "; "), MaxSuggestions)
}

// CleanNames trims, drops blanks and removes duplicates, keeping the
// first occurrence.
func CleanNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// filterSuggestions drops blank entries and items already in the cart.
func filterSuggestions(in []Suggestion, cart []string) []Suggestion {
	inCart := make(map[string]bool, len(cart))
	for _, n := range cart {
		inCart[strings.ToLower(n)] = true
	}
	out := make([]Suggestion, 0, len(in))
	for _, s := range in {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" || inCart[strings.ToLower(s.Name)] {
			continue
		}
		out = append(out, s)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}
