package answer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
	"github.com/ternarybob/elo/internal/storage/memory"
)

type fakeChat struct {
	response string
	err      error
	calls    int
	lastReq  *interfaces.ChatRequest
}

func (f *fakeChat) GenerateContent(ctx context.Context, req *interfaces.ChatRequest) (*interfaces.ChatResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &interfaces.ChatResponse{Text: f.response, Model: "test-model"}, nil
}

type fakeAggregator struct {
	docs  []models.SourceDocument
	calls int
}

func (f *fakeAggregator) SearchLegal(ctx context.Context, query string) models.AggregationResult {
	f.calls++
	return models.AggregationResult{Documents: f.docs}
}

func (f *fakeAggregator) SearchAll(ctx context.Context, query string) models.AggregationResult {
	f.calls++
	return models.AggregationResult{Documents: f.docs}
}

func testConfig() *common.AnswerConfig {
	return &common.AnswerConfig{
		CacheTTL:        10 * time.Minute,
		StateTTL:        24 * time.Hour,
		MaxHistoryTurns: 4,
		MaxContextDocs:  5,
		SummaryLimit:    240,
	}
}

func newTestOrchestrator(chat *fakeChat, agg *fakeAggregator) (*Orchestrator, *memory.Store, *memory.Store) {
	cache := memory.NewStore()
	state := memory.NewStore()
	return NewOrchestrator(testConfig(), cache, state, agg, chat, arbor.NewLogger()), cache, state
}

func TestAnswerServesFromCacheOnRepeat(t *testing.T) {
	chat := &fakeChat{response: "Resposta sobre CPF."}
	orch, _, _ := newTestOrchestrator(chat, &fakeAggregator{})
	ctx := context.Background()

	req := interfaces.AnswerRequest{UserID: "u1", Flow: "civic", Text: "Como tirar CPF?"}

	first := orch.Answer(ctx, req)
	assert.True(t, first.Success)
	assert.False(t, first.Cached)
	assert.Equal(t, "Resposta sobre CPF.", first.Text)

	second := orch.Answer(ctx, req)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, chat.calls)
}

func TestAnswerCacheKeyNormalizesText(t *testing.T) {
	key1 := CacheKey("u1", "civic", "  Como Tirar   CPF?  ")
	key2 := CacheKey("u1", "civic", "como tirar cpf?")
	assert.Equal(t, key1, key2)

	other := CacheKey("u2", "civic", "como tirar cpf?")
	assert.NotEqual(t, key1, other)
}

func TestAnswerFallbackIsNeverCached(t *testing.T) {
	chat := &fakeChat{err: errors.New("model unavailable")}
	orch, _, _ := newTestOrchestrator(chat, &fakeAggregator{})
	ctx := context.Background()

	req := interfaces.AnswerRequest{UserID: "u1", Flow: "civic", Text: "pergunta qualquer"}

	result := orch.Answer(ctx, req)
	assert.False(t, result.Success)
	assert.Equal(t, FallbackMessage, result.Text)

	result = orch.Answer(ctx, req)
	assert.False(t, result.Cached)
	assert.Equal(t, 2, chat.calls)
}

func TestAnswerCivicGroundingHeuristic(t *testing.T) {
	ctx := context.Background()

	chat := &fakeChat{response: "ok"}
	agg := &fakeAggregator{}
	orch, _, _ := newTestOrchestrator(chat, agg)

	orch.Answer(ctx, interfaces.AnswerRequest{UserID: "u1", Flow: "civic", Text: "Como tirar o CPF?"})
	assert.Equal(t, 0, agg.calls)

	orch.Answer(ctx, interfaces.AnswerRequest{UserID: "u1", Flow: "civic", Text: "qual lei garante meu benefício?"})
	assert.Equal(t, 1, agg.calls)
}

func TestAnswerOracleSkipsAggregator(t *testing.T) {
	chat := &fakeChat{response: "Análise do arquivo."}
	agg := &fakeAggregator{}
	orch, _, _ := newTestOrchestrator(chat, agg)

	req := interfaces.AnswerRequest{UserID: "u1", Flow: "oracle", Text: "resuma este áudio", MediaURL: "https://example.com/a.ogg"}
	result := orch.Answer(context.Background(), req)

	assert.True(t, result.Success)
	assert.Equal(t, 0, agg.calls)
	require.NotNil(t, chat.lastReq)
	assert.Contains(t, chat.lastReq.Messages[len(chat.lastReq.Messages)-1].Content, "Modo Oráculo")
}

func TestAnswerLegislativeIncludesContextLines(t *testing.T) {
	chat := &fakeChat{response: "Sobre o PL."}
	agg := &fakeAggregator{docs: []models.SourceDocument{
		{ID: "PL-123", Title: "Projeto de Lei 123", Summary: "Dispõe sobre telemedicina.", Year: 2024, Source: models.SourceCamara},
	}}
	orch, _, _ := newTestOrchestrator(chat, agg)

	req := interfaces.AnswerRequest{UserID: "u1", Flow: "legislative", Text: "qual a votação do PL 123?"}
	result := orch.Answer(context.Background(), req)

	assert.True(t, result.Success)
	assert.Equal(t, 1, agg.calls)
	content := chat.lastReq.Messages[len(chat.lastReq.Messages)-1].Content
	assert.Contains(t, content, "- PL-123 (2024): Projeto de Lei 123. Dispõe sobre telemedicina.")
}

func TestAnswerHistoryIsBounded(t *testing.T) {
	chat := &fakeChat{response: "ok"}
	orch, _, state := newTestOrchestrator(chat, &fakeAggregator{})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		req := interfaces.AnswerRequest{UserID: "u1", Flow: "civic", Text: "pergunta número " + string(rune('a'+i))}
		orch.Answer(ctx, req)
	}

	data, err := state.Get(ctx, "u1")
	require.NoError(t, err)

	var saved models.UserState
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.LessOrEqual(t, len(saved.History), testConfig().MaxHistoryTurns)
}

func TestBuildLegislativeContextTruncatesSummary(t *testing.T) {
	long := make([]rune, 300)
	for i := range long {
		long[i] = 'a'
	}
	docs := []models.SourceDocument{{ID: "X-1", Title: "T", Summary: string(long), Year: 2023}}

	out := buildLegislativeContext(docs, 5, 240)
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, string(long))
}

func TestBuildLegislativeContextCapsDocCount(t *testing.T) {
	docs := make([]models.SourceDocument, 8)
	for i := range docs {
		docs[i] = models.SourceDocument{ID: "D-" + string(rune('0'+i)), Title: "t", Summary: "s", Year: 2024}
	}
	out := buildLegislativeContext(docs, 5, 240)
	assert.NotContains(t, out, "D-7")
	assert.Contains(t, out, "D-4")
}
