package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/SumanthChary/postpro-backend/internal/pkg/gemini"
)

var ErrEmptyContent = errors.New("post content is required")

// Generator is the slice of the Gemini client this service needs.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// Service builds prompts around user content, calls the generator once and
// parses the reply. Every operation except EnhancePost swallows upstream
// failures and returns a static fallback payload instead.
type Service struct {
	ai      Generator
	randInt func(n int) int
}

// NewService creates the AI proxy service.
func NewService(ai Generator) *Service {
	return &Service{ai: ai, randInt: rand.Intn}
}

// WithRand overrides the jitter source, used by tests.
func (s *Service) WithRand(randInt func(n int) int) *Service {
	s.randInt = randInt
	return s
}

// HashtagResult is the analyze-hashtags payload.
type HashtagResult struct {
	Hashtags []string `json:"hashtags"`
	Fallback bool     `json:"fallback,omitempty"`
}

// ViralityResult is the analyze-virality payload.
type ViralityResult struct {
	Score    int      `json:"score"`
	Insights []string `json:"insights"`
	Fallback bool     `json:"fallback,omitempty"`
}

// CTAResult is the generate-cta-suggestions payload.
type CTAResult struct {
	Suggestions []string `json:"suggestions"`
	Fallback    bool     `json:"fallback,omitempty"`
}

// ChatResult is the chat-assistant payload.
type ChatResult struct {
	Reply    string `json:"reply"`
	Fallback bool   `json:"fallback,omitempty"`
}

// EnhancePost rewrites the post for engagement. Unlike the other
// operations this one propagates failures; the handler surfaces them as 502
// (or 500 for a missing API key).
func (s *Service) EnhancePost(ctx context.Context, postContent, category string) (string, error) {
	if strings.TrimSpace(postContent) == "" {
		return "", ErrEmptyContent
	}

	prompt := fmt.Sprintf(`You are a social media expert. Rewrite the following %s post to maximize engagement.
Keep the author's voice, improve the hook, structure and call to action. Return only the rewritten post text.

Post:
%s`, categoryOrDefault(category), postContent)

	text, err := s.ai.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	return text, nil
}

// AnalyzeHashtags suggests hashtags for the post. Missing API key is
// surfaced as gemini.ErrNotConfigured (the handler returns 500 for this
// endpoint specifically); all other failures produce the static fallback.
func (s *Service) AnalyzeHashtags(ctx context.Context, postContent, category string) (*HashtagResult, error) {
	if strings.TrimSpace(postContent) == "" {
		return nil, ErrEmptyContent
	}
	if !s.ai.Configured() {
		return nil, gemini.ErrNotConfigured
	}

	prompt := fmt.Sprintf(`Suggest 8 high-reach hashtags for the following %s post.
Respond with a JSON array of strings only, each starting with '#'. No prose.

Post:
%s`, categoryOrDefault(category), postContent)

	text, err := s.ai.GenerateText(ctx, prompt)
	if err != nil {
		return &HashtagResult{Hashtags: fallbackList(fallbackHashtags), Fallback: true}, nil
	}

	var tags []string
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &tags); err != nil || len(tags) == 0 {
		return &HashtagResult{Hashtags: fallbackList(fallbackHashtags), Fallback: true}, nil
	}
	return &HashtagResult{Hashtags: tags}, nil
}

// AnalyzeVirality scores the post in [0,100]. Any failure, including a
// missing API key, yields a jittered fallback score in [60,90].
func (s *Service) AnalyzeVirality(ctx context.Context, postContent, category string) (*ViralityResult, error) {
	if strings.TrimSpace(postContent) == "" {
		return nil, ErrEmptyContent
	}

	prompt := fmt.Sprintf(`Score the viral potential of the following %s post from 0 to 100 and give up to 3 short insights.
Respond with JSON only: {"score": <number>, "insights": [<strings>]}.

Post:
%s`, categoryOrDefault(category), postContent)

	text, err := s.ai.GenerateText(ctx, prompt)
	if err != nil {
		return s.fallbackVirality(), nil
	}

	var out ViralityResult
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &out); err != nil || out.Score < 0 || out.Score > 100 {
		return s.fallbackVirality(), nil
	}
	return &out, nil
}

// GenerateCTASuggestions proposes calls to action. Any failure yields the
// static fallback list.
func (s *Service) GenerateCTASuggestions(ctx context.Context, postContent, category string) (*CTAResult, error) {
	if strings.TrimSpace(postContent) == "" {
		return nil, ErrEmptyContent
	}

	prompt := fmt.Sprintf(`Write 5 short call-to-action lines matching the tone of the following %s post.
Respond with a JSON array of strings only. No prose.

Post:
%s`, categoryOrDefault(category), postContent)

	text, err := s.ai.GenerateText(ctx, prompt)
	if err != nil {
		return &CTAResult{Suggestions: fallbackList(fallbackCTAs), Fallback: true}, nil
	}

	var ctas []string
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &ctas); err != nil || len(ctas) == 0 {
		return &CTAResult{Suggestions: fallbackList(fallbackCTAs), Fallback: true}, nil
	}
	return &CTAResult{Suggestions: ctas}, nil
}

// ChatAssistant answers a free-form question. Replies are plain text; any
// failure yields the static reply.
func (s *Service) ChatAssistant(ctx context.Context, message string) (*ChatResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.New("message is required")
	}

	prompt := fmt.Sprintf(`You are PostPro, a friendly social media growth assistant. Answer concisely.

Question:
%s`, message)

	text, err := s.ai.GenerateText(ctx, prompt)
	if err != nil {
		return &ChatResult{Reply: fallbackChatReply, Fallback: true}, nil
	}
	return &ChatResult{Reply: text}, nil
}

func (s *Service) fallbackVirality() *ViralityResult {
	score := fallbackScoreMin + s.randInt(fallbackScoreMax-fallbackScoreMin+1)
	return &ViralityResult{
		Score:    score,
		Insights: fallbackList(fallbackInsights),
		Fallback: true,
	}
}

func categoryOrDefault(category string) string {
	c := strings.TrimSpace(category)
	if c == "" {
		return "social media"
	}
	return c
}

func fallbackList(src []string) []string {
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// stripCodeFence removes a surrounding markdown fence the model sometimes
// wraps JSON replies in.
func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
