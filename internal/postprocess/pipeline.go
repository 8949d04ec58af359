package postprocess

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayushma-ai/assistant-platform/internal/model"
	"github.com/ayushma-ai/assistant-platform/pkg/logger"
	"github.com/ayushma-ai/assistant-platform/pkg/metrics"
)

// Translator converts text into a target language.
type Translator interface {
	Translate(ctx context.Context, targetLanguage, text string) (string, error)
}

// Synthesizer produces audio for text in a given language.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

// ObjectStore uploads a blob under a key and returns its URL.
type ObjectStore interface {
	Upload(ctx context.Context, data []byte, key string) (string, error)
}

// DocumentStore reports whether a cited document id is known.
type DocumentStore interface {
	Resolve(ctx context.Context, externalID string) bool
}

// TurnStore persists turns.
type TurnStore interface {
	Create(ctx context.Context, turn *model.Turn) (uint64, error)
	Update(ctx context.Context, turn *model.Turn) (uint64, error)
}

// Input carries everything the pipeline needs to finalize one turn.
type Input struct {
	ConversationID string
	TenantID       string

	// RawText is the assembled model output with the role prefix already
	// removed.
	RawText string

	// Language is the caller's language tag (e.g. "ta-IN").
	Language      string
	GenerateAudio bool

	Temperature *float64
	TopK        *int
	Timings     model.Timings
}

// Pipeline finalizes a successfully completed turn: reference extraction,
// then translation, speech synthesis and upload as best-effort stages, then
// the single persistence commit. A stage failure degrades to "stage not
// applied"; persistence always captures whatever was computed before it.
type Pipeline struct {
	DefaultLanguage string

	Translator  Translator
	Synthesizer Synthesizer
	Objects     ObjectStore
	Documents   DocumentStore
	Turns       TurnStore

	Log *logger.Logger
}

// Run executes the pipeline once and returns the persisted assistant turn.
func (p *Pipeline) Run(ctx context.Context, in Input) *model.Turn {
	stripped, ids := ExtractReferences(strings.TrimSpace(in.RawText))

	var resolved []string
	for _, id := range ids {
		if p.Documents != nil && p.Documents.Resolve(ctx, id) {
			resolved = append(resolved, id)
		} else {
			p.Log.Debug("skipping unknown reference document", "document_id", id)
		}
	}

	turn := &model.Turn{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: in.ConversationID,
		TenantID:       in.TenantID,
		Role:           model.RoleAssistant,
		RawText:        stripped,
		Language:       ShortLanguage(in.Language),
		ReferenceIDs:   resolved,
		Temperature:    in.Temperature,
		TopK:           in.TopK,
		CreatedAt:      time.Now(),
	}
	if _, err := p.Turns.Create(ctx, turn); err != nil {
		p.Log.Error("failed to persist assistant turn", "error", err, "conversation_id", in.ConversationID)
	}

	display := p.translate(ctx, stripped, in)
	audio := p.synthesize(ctx, display, in)
	audioURL := p.upload(ctx, audio, in)

	// Single commit point: reached regardless of which stages degraded.
	turn.DisplayText = display
	turn.AudioURL = audioURL
	turn.Timings = in.Timings.Snapshot()
	if _, err := p.Turns.Update(ctx, turn); err != nil {
		p.Log.Error("failed to commit assistant turn", "error", err, "turn_id", turn.ID)
	}

	metrics.TurnsTotal.WithLabelValues(in.TenantID, string(model.RoleAssistant), "success").Inc()
	return turn
}

// translate converts the marker-stripped text into the caller's language.
// The timing mark is recorded whether or not translation ran.
func (p *Pipeline) translate(ctx context.Context, text string, in Input) string {
	display := text
	if in.Language != "" && in.Language != p.DefaultLanguage && p.Translator != nil {
		in.Timings.StartStage(model.StageResponseTranslation)
		translated, err := p.Translator.Translate(ctx, in.Language, text)
		if err != nil {
			p.Log.Warn("translation failed, serving original text", "error", err, "language", in.Language)
			metrics.RecordStageDegraded(model.StageResponseTranslation)
		} else {
			display = translated
		}
	}
	in.Timings.EndStage(model.StageResponseTranslation)
	recordStage(in.Timings, model.StageResponseTranslation)
	return display
}

// synthesize produces audio for the display text. Skipped entirely when the
// request disabled audio: no timing mark, no synthesis call.
func (p *Pipeline) synthesize(ctx context.Context, text string, in Input) []byte {
	if !in.GenerateAudio || p.Synthesizer == nil {
		return nil
	}

	in.Timings.StartStage(model.StageTTS)
	audio, err := p.Synthesizer.Synthesize(ctx, text, in.Language)
	in.Timings.EndStage(model.StageTTS)
	recordStage(in.Timings, model.StageTTS)

	if err != nil {
		p.Log.Warn("speech synthesis failed, continuing without audio", "error", err)
		metrics.AudioSynthesisTotal.WithLabelValues("error").Inc()
		metrics.RecordStageDegraded(model.StageTTS)
		return nil
	}

	metrics.AudioSynthesisTotal.WithLabelValues("success").Inc()
	return audio
}

// upload stores synthesized audio and returns its URL, or nil when there is
// nothing to upload or the upload degraded.
func (p *Pipeline) upload(ctx context.Context, audio []byte, in Input) *string {
	if len(audio) == 0 || p.Objects == nil {
		return nil
	}

	key := fmt.Sprintf("%s_%s.mp3", in.ConversationID, uuid.New().String())

	in.Timings.StartStage(model.StageUpload)
	url, err := p.Objects.Upload(ctx, audio, key)
	in.Timings.EndStage(model.StageUpload)
	recordStage(in.Timings, model.StageUpload)

	if err != nil {
		p.Log.Warn("audio upload failed, continuing without audio", "error", err, "key", key)
		metrics.AudioUploadsTotal.WithLabelValues("error").Inc()
		metrics.RecordStageDegraded(model.StageUpload)
		return nil
	}

	metrics.AudioUploadsTotal.WithLabelValues("success").Inc()
	return &url
}

// ShortLanguage reduces a language tag to its bare code ("ta-IN" -> "ta").
func ShortLanguage(tag string) string {
	if i := strings.Index(tag, "-"); i > 0 {
		return tag[:i]
	}
	return tag
}

func recordStage(t model.Timings, stage string) {
	st, ok := t[stage]
	if !ok || st.Start.IsZero() || st.End.IsZero() {
		return
	}
	metrics.RecordStage(stage, st.End.Sub(st.Start).Seconds())
}
