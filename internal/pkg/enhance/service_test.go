package enhance

import (
	"context"
	"errors"
	"testing"

	"github.com/SumanthChary/postpro-backend/internal/pkg/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply      string
	err        error
	configured bool
	prompts    []string
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) Configured() bool { return f.configured }

func TestEnhancePostPropagatesFailure(t *testing.T) {
	ai := &fakeGenerator{err: errors.New("upstream down"), configured: true}
	svc := NewService(ai)

	_, err := svc.EnhancePost(context.Background(), "my post", "business")
	assert.Error(t, err)
}

func TestEnhancePostReturnsRewrite(t *testing.T) {
	ai := &fakeGenerator{reply: "A better post", configured: true}
	svc := NewService(ai)

	out, err := svc.EnhancePost(context.Background(), "my post", "business")
	require.NoError(t, err)
	assert.Equal(t, "A better post", out)
	require.Len(t, ai.prompts, 1)
	assert.Contains(t, ai.prompts[0], "my post")
	assert.Contains(t, ai.prompts[0], "business")
}

func TestEnhancePostRequiresContent(t *testing.T) {
	svc := NewService(&fakeGenerator{configured: true})
	_, err := svc.EnhancePost(context.Background(), "  ", "")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestAnalyzeHashtagsParsesReply(t *testing.T) {
	ai := &fakeGenerator{reply: `["#golang","#dev"]`, configured: true}
	svc := NewService(ai)

	res, err := svc.AnalyzeHashtags(context.Background(), "post", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"#golang", "#dev"}, res.Hashtags)
	assert.False(t, res.Fallback)
}

func TestAnalyzeHashtagsStripsCodeFence(t *testing.T) {
	ai := &fakeGenerator{reply: "```json\n[\"#golang\"]\n```", configured: true}
	svc := NewService(ai)

	res, err := svc.AnalyzeHashtags(context.Background(), "post", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"#golang"}, res.Hashtags)
}

func TestAnalyzeHashtagsFallsBackOnGarbage(t *testing.T) {
	ai := &fakeGenerator{reply: "sorry, I can't do that", configured: true}
	svc := NewService(ai)

	res, err := svc.AnalyzeHashtags(context.Background(), "post", "")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.NotEmpty(t, res.Hashtags)
}

func TestAnalyzeHashtagsFallsBackOnUpstreamError(t *testing.T) {
	ai := &fakeGenerator{err: errors.New("boom"), configured: true}
	svc := NewService(ai)

	res, err := svc.AnalyzeHashtags(context.Background(), "post", "")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
}

func TestAnalyzeHashtagsMissingKeyIsAnError(t *testing.T) {
	// This endpoint surfaces a missing key as a hard error while its
	// siblings fall back; the behavior difference is intentional.
	ai := &fakeGenerator{configured: false}
	svc := NewService(ai)

	_, err := svc.AnalyzeHashtags(context.Background(), "post", "")
	assert.ErrorIs(t, err, gemini.ErrNotConfigured)
}

func TestAnalyzeViralityParsesReply(t *testing.T) {
	ai := &fakeGenerator{reply: `{"score": 84, "insights": ["strong hook"]}`, configured: true}
	svc := NewService(ai)

	res, err := svc.AnalyzeVirality(context.Background(), "post", "")
	require.NoError(t, err)
	assert.Equal(t, 84, res.Score)
	assert.False(t, res.Fallback)
}

func TestAnalyzeViralityFallbackScoreInRange(t *testing.T) {
	ai := &fakeGenerator{err: errors.New("boom"), configured: true}
	svc := NewService(ai)

	for seed := 0; seed < 31; seed++ {
		jitter := seed
		res, err := svc.WithRand(func(n int) int { return jitter % n }).
			AnalyzeVirality(context.Background(), "post", "")
		require.NoError(t, err)
		assert.True(t, res.Fallback)
		assert.GreaterOrEqual(t, res.Score, 60)
		assert.LessOrEqual(t, res.Score, 90)
	}
}

func TestAnalyzeViralityRejectsOutOfRangeScore(t *testing.T) {
	ai := &fakeGenerator{reply: `{"score": 400, "insights": []}`, configured: true}
	svc := NewService(ai).WithRand(func(n int) int { return 0 })

	res, err := svc.AnalyzeVirality(context.Background(), "post", "")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, 60, res.Score)
}

func TestGenerateCTASuggestionsFallsBack(t *testing.T) {
	ai := &fakeGenerator{reply: "not json", configured: true}
	svc := NewService(ai)

	res, err := svc.GenerateCTASuggestions(context.Background(), "post", "")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.NotEmpty(t, res.Suggestions)
}

func TestChatAssistantFallsBack(t *testing.T) {
	ai := &fakeGenerator{err: errors.New("boom"), configured: true}
	svc := NewService(ai)

	res, err := svc.ChatAssistant(context.Background(), "how do I grow?")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.NotEmpty(t, res.Reply)
}

func TestChatAssistantPlainText(t *testing.T) {
	ai := &fakeGenerator{reply: "Post consistently.", configured: true}
	svc := NewService(ai)

	res, err := svc.ChatAssistant(context.Background(), "how do I grow?")
	require.NoError(t, err)
	assert.Equal(t, "Post consistently.", res.Reply)
	assert.False(t, res.Fallback)
}
