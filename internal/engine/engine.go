package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayushma-ai/assistant-platform/internal/llm"
	"github.com/ayushma-ai/assistant-platform/internal/model"
	"github.com/ayushma-ai/assistant-platform/internal/postprocess"
	"github.com/ayushma-ai/assistant-platform/pkg/logger"
	"github.com/ayushma-ai/assistant-platform/pkg/metrics"
)

// ReferenceResolver supplies contextual reference text for a query. A
// resolution failure aborts the turn before any model call.
type ReferenceResolver interface {
	Resolve(ctx context.Context, query, namespace string, topK int) (string, error)
}

// Translator converts text into a target language.
type Translator interface {
	Translate(ctx context.Context, targetLanguage, text string) (string, error)
}

// TurnStore is the persistence the engine itself needs: creating turns and
// reading conversation history.
type TurnStore interface {
	Create(ctx context.Context, turn *model.Turn) (uint64, error)
	History(ctx context.Context, tenantID, conversationID, excludeTurnID string) ([]model.Turn, error)
}

// Config holds the engine's tunables.
type Config struct {
	// AssistantName is the role label the model is prompted to prepend to
	// its replies.
	AssistantName string

	// PrefixSkipTokens is the number of leading stream tokens discarded
	// as the role-prefix.
	PrefixSkipTokens int

	// TokenTimeout bounds the consumer's wait for each token.
	TokenTimeout time.Duration

	// DefaultLanguage is the language the model is addressed in; callers
	// in any other language get request and response translation.
	DefaultLanguage string

	// ChannelBuffer is the token channel capacity.
	ChannelBuffer int

	// Model overrides the provider's default model when set.
	Model string
}

// Engine orchestrates one conversational turn: user-turn persistence,
// reference resolution, the model call (streaming or not), incremental
// emission, post-processing and the error path.
type Engine struct {
	cfg        Config
	client     llm.Client
	resolver   ReferenceResolver
	translator Translator
	pipeline   *postprocess.Pipeline
	turns      TurnStore
	log        *logger.Logger
}

// New creates an engine.
func New(cfg Config, client llm.Client, resolver ReferenceResolver, translator Translator, pipeline *postprocess.Pipeline, turns TurnStore, log *logger.Logger) *Engine {
	if cfg.TokenTimeout <= 0 {
		cfg.TokenTimeout = 10 * time.Second
	}
	if cfg.AssistantName == "" {
		cfg.AssistantName = "Ayushma"
	}
	return &Engine{
		cfg:        cfg,
		client:     client,
		resolver:   resolver,
		translator: translator,
		pipeline:   pipeline,
		turns:      turns,
		log:        log,
	}
}

// Converse answers one user utterance. Events are delivered through emit;
// the returned turn is the persisted assistant turn (success or error
// variant). A non-nil error is returned only for failures that occur
// before the assistant's turn exists (persistence of the user turn,
// reference resolution, history reads); after that point every outcome
// ends in exactly one persisted assistant turn and one terminal event.
func (e *Engine) Converse(ctx context.Context, conv *model.Conversation, req *model.ConverseRequest, emit EmitFunc) (*model.Turn, error) {
	timings := model.NewTimings()

	language := req.Language
	if language == "" {
		language = e.cfg.DefaultLanguage
	}

	localText := req.Text
	queryText := e.translateRequest(ctx, req.Text, language, timings)
	queryText = strings.ReplaceAll(queryText, "\n", " ")

	userTurn := &model.Turn{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		TenantID:       conv.TenantID,
		Role:           model.RoleUser,
		RawText:        queryText,
		DisplayText:    localText,
		Language:       postprocess.ShortLanguage(language),
		Timings:        timings.Snapshot(),
		CreatedAt:      time.Now(),
	}
	if _, err := e.turns.Create(ctx, userTurn); err != nil {
		return nil, fmt.Errorf("failed to persist user turn: %w", err)
	}
	metrics.TurnsTotal.WithLabelValues(conv.TenantID, string(model.RoleUser), "success").Inc()

	temperature := conv.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	topK := conv.TopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	timings.StartStage(model.StageReference)
	var reference string
	if conv.Namespace != "" && e.resolver != nil {
		var err error
		reference, err = e.resolver.Resolve(ctx, queryText, conv.Namespace, topK)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve reference: %w", err)
		}
	}
	timings.EndStage(model.StageReference)

	history, err := e.turns.History(ctx, conv.TenantID, conv.ID, userTurn.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	builder := &llm.PromptBuilder{AssistantName: e.cfg.AssistantName, Template: conv.Prompt}
	creq := &llm.CompletionRequest{
		Model:       e.cfg.Model,
		Messages:    builder.Build(queryText, reference, history),
		Temperature: temperature,
	}

	pin := postprocess.Input{
		ConversationID: conv.ID,
		TenantID:       conv.TenantID,
		Language:       language,
		GenerateAudio:  req.WantsAudio(),
		Temperature:    &temperature,
		TopK:           &topK,
		Timings:        timings,
	}

	timings.StartStage(model.StageResponse)

	if !req.WantsStream() {
		return e.converseOnce(ctx, conv, creq, builder, pin, localText, language, timings, emit)
	}

	// Producer and consumer run concurrently, bridged by the channel; the
	// cancel makes an abandoned producer unwind instead of blocking on a
	// full buffer.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := NewTokenChannel(e.cfg.ChannelBuffer)
	startProducer(streamCtx, e.client, creq, ch)

	asm := &Assembler{
		SkipTokens:     e.cfg.PrefixSkipTokens,
		Timeout:        e.cfg.TokenTimeout,
		ConversationID: conv.ID,
		Input:          localText,
	}
	text, err := asm.Drain(ch, emit)
	if err != nil {
		return e.failTurn(ctx, conv, localText, language, timings, emit, err), nil
	}
	timings.EndStage(model.StageResponse)

	pin.RawText = text
	turn := e.pipeline.Run(ctx, pin)
	if err := emit(model.FinalEvent(conv.ID, localText, turn.DisplayText, turn.AudioURL)); err != nil {
		e.log.Warn("failed to emit final event", "error", err, "conversation_id", conv.ID)
	}
	return turn, nil
}

// converseOnce handles non-streaming mode: one complete model response, the
// prefix stripped once, then straight to finalization with a single Final
// event and no Delta events.
func (e *Engine) converseOnce(ctx context.Context, conv *model.Conversation, creq *llm.CompletionRequest, builder *llm.PromptBuilder, pin postprocess.Input, localText, language string, timings model.Timings, emit EmitFunc) (*model.Turn, error) {
	resp, err := e.client.Complete(ctx, creq)
	if err != nil {
		return e.failTurn(ctx, conv, localText, language, timings, emit, err), nil
	}
	timings.EndStage(model.StageResponse)
	metrics.RecordLLMStream(resp.Model, "success", float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)

	pin.RawText = strings.TrimPrefix(resp.Content, builder.Prefix())
	turn := e.pipeline.Run(ctx, pin)
	if emit != nil {
		if err := emit(model.FinalEvent(conv.ID, localText, turn.DisplayText, turn.AudioURL)); err != nil {
			e.log.Warn("failed to emit final event", "error", err, "conversation_id", conv.ID)
		}
	}
	return turn, nil
}

// translateRequest converts the caller's utterance into the default
// language for the model. Failure degrades to the untranslated text.
func (e *Engine) translateRequest(ctx context.Context, text, language string, timings model.Timings) string {
	if language == e.cfg.DefaultLanguage || e.translator == nil {
		return text
	}

	timings.StartStage(model.StageRequestTranslation)
	translated, err := e.translator.Translate(ctx, e.cfg.DefaultLanguage, text)
	timings.EndStage(model.StageRequestTranslation)
	if err != nil {
		e.log.Warn("request translation failed, using original text", "error", err, "language", language)
		metrics.RecordStageDegraded(model.StageRequestTranslation)
		return text
	}
	return translated
}

// failTurn is the error path for upstream failures and liveness timeouts:
// it persists an assistant turn carrying the error text (translated into
// the caller's language when possible) with the partial timings, and emits
// the single terminal event. Nothing raises past this boundary.
func (e *Engine) failTurn(ctx context.Context, conv *model.Conversation, localText, language string, timings model.Timings, emit EmitFunc, cause error) *model.Turn {
	e.log.Error("turn failed", "error", cause, "conversation_id", conv.ID)

	errText := cause.Error()
	display := errText
	if language != e.cfg.DefaultLanguage && e.translator != nil {
		if translated, terr := e.translator.Translate(ctx, language, errText); terr == nil {
			display = translated
		}
	}

	turn := &model.Turn{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		TenantID:       conv.TenantID,
		Role:           model.RoleAssistant,
		RawText:        errText,
		DisplayText:    display,
		Language:       postprocess.ShortLanguage(language),
		Timings:        timings.Snapshot(),
		CreatedAt:      time.Now(),
	}
	if _, err := e.turns.Create(ctx, turn); err != nil {
		e.log.Error("failed to persist error turn", "error", err, "conversation_id", conv.ID)
	}
	metrics.TurnsTotal.WithLabelValues(conv.TenantID, string(model.RoleAssistant), "error").Inc()

	if emit != nil {
		if err := emit(model.ErrorEvent(conv.ID, localText, display)); err != nil {
			e.log.Warn("failed to emit error event", "error", err, "conversation_id", conv.ID)
		}
	}
	return turn
}
