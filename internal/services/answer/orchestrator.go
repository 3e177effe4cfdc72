package answer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/common"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
	"github.com/ternarybob/elo/internal/services/datahub"
	"github.com/ternarybob/elo/internal/services/intent"
)

// Orchestrator produces answers for classified messages. The pipeline is
// cache lookup, grounding, model call, then cache and history updates.
// Model failures degrade to the fixed fallback message.
type Orchestrator struct {
	config     *common.AnswerConfig
	cache      interfaces.KeyValueStore
	state      interfaces.KeyValueStore
	aggregator interfaces.Aggregator
	chat       interfaces.ChatClient
	logger     arbor.ILogger
}

// NewOrchestrator creates an answer orchestrator.
func NewOrchestrator(
	config *common.AnswerConfig,
	cache interfaces.KeyValueStore,
	state interfaces.KeyValueStore,
	aggregator interfaces.Aggregator,
	chat interfaces.ChatClient,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		config:     config,
		cache:      cache,
		state:      state,
		aggregator: aggregator,
		chat:       chat,
		logger:     logger,
	}
}

var _ interfaces.AnswerOrchestrator = (*Orchestrator)(nil)

// CacheKey derives the deterministic cache key for a question. The text is
// normalized first so trivial whitespace and casing variants share one entry.
func CacheKey(userID, flow, text string) string {
	normalized := intent.NormalizeText(text)
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", userID, flow, normalized)))
	return hex.EncodeToString(sum[:])
}

// Answer resolves one request. It never returns an error: failures surface
// as the fallback message with Success=false.
func (o *Orchestrator) Answer(ctx context.Context, req interfaces.AnswerRequest) interfaces.AnswerResult {
	key := CacheKey(req.UserID, req.Flow, req.Text)

	if cached, err := o.cache.Get(ctx, key); err == nil {
		o.logger.Debug().
			Str("user_id", req.UserID).
			Str("flow", req.Flow).
			Msg("Answer served from cache")
		return interfaces.AnswerResult{Text: string(cached), Cached: true, Success: true}
	} else if !errors.Is(err, interfaces.ErrKeyNotFound) {
		o.logger.Warn().Err(err).Msg("Cache lookup failed, continuing without cache")
	}

	grounding := o.buildGrounding(ctx, req)
	history := o.loadHistory(ctx, req.UserID)

	messages := make([]interfaces.ChatMessage, 0, len(history.History)+1)
	for _, turn := range history.History {
		messages = append(messages, interfaces.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, interfaces.ChatMessage{Role: "user", Content: o.composeUserContent(req, grounding)})

	resp, err := o.chat.GenerateContent(ctx, &interfaces.ChatRequest{
		SystemPrompt: SystemPromptFor(req.Flow),
		Messages:     messages,
	})
	if err != nil {
		o.logger.Warn().
			Err(err).
			Str("user_id", req.UserID).
			Str("flow", req.Flow).
			Msg("Model call failed, returning fallback message")
		return interfaces.AnswerResult{Text: FallbackMessage, Success: false}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return interfaces.AnswerResult{Text: FallbackMessage, Success: false}
	}

	if err := o.cache.Set(ctx, key, []byte(text), o.config.CacheTTL); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to cache answer")
	}
	o.saveHistory(ctx, history, req.Text, text)

	return interfaces.AnswerResult{Text: text, Success: true}
}

// buildGrounding collects context lines for the model according to the flow.
// The oracle flow never queries the federated sources.
func (o *Orchestrator) buildGrounding(ctx context.Context, req interfaces.AnswerRequest) string {
	switch req.Flow {
	case models.IntentOracle.String():
		return OracleContext
	case models.IntentLegislative.String():
		result := o.aggregator.SearchLegal(ctx, req.Text)
		return buildLegislativeContext(result.Documents, o.config.MaxContextDocs, o.config.SummaryLimit)
	default:
		if intent.HasLegalBenefitKeyword(req.Text) {
			result := o.aggregator.SearchLegal(ctx, req.Text)
			if len(result.Documents) > 0 {
				return buildLegislativeContext(result.Documents, o.config.MaxContextDocs, o.config.SummaryLimit)
			}
		}
		docs := datahub.SearchCivicRights(req.Text)
		return buildLegislativeContext(docs, o.config.MaxContextDocs, o.config.SummaryLimit)
	}
}

func (o *Orchestrator) composeUserContent(req interfaces.AnswerRequest, grounding string) string {
	var sb strings.Builder
	if grounding != "" {
		sb.WriteString(grounding)
		sb.WriteString("\n\n")
	}
	if req.ExtractedContent != "" {
		sb.WriteString("Conteúdo enviado pelo usuário:\n")
		sb.WriteString(req.ExtractedContent)
		sb.WriteString("\n\n")
	}
	if req.MediaURL != "" && req.ExtractedContent == "" {
		sb.WriteString("O usuário enviou este link ou arquivo: ")
		sb.WriteString(req.MediaURL)
		sb.WriteString("\n\n")
	}
	sb.WriteString(req.Text)
	return sb.String()
}

func (o *Orchestrator) loadHistory(ctx context.Context, userID string) *models.UserState {
	state := &models.UserState{UserID: userID}
	data, err := o.state.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, interfaces.ErrKeyNotFound) {
			o.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to load conversation state")
		}
		return state
	}
	if err := json.Unmarshal(data, state); err != nil {
		o.logger.Warn().Err(err).Str("user_id", userID).Msg("Discarding corrupt conversation state")
		return &models.UserState{UserID: userID}
	}
	return state
}

func (o *Orchestrator) saveHistory(ctx context.Context, state *models.UserState, question, answer string) {
	state.AppendTurn("user", question, o.config.MaxHistoryTurns)
	state.AppendTurn("assistant", answer, o.config.MaxHistoryTurns)

	data, err := json.Marshal(state)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Failed to encode conversation state")
		return
	}
	if err := o.state.Set(ctx, state.UserID, data, o.config.StateTTL); err != nil {
		o.logger.Warn().Err(err).Str("user_id", state.UserID).Msg("Failed to persist conversation state")
	}
}
