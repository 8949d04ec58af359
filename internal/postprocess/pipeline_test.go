package postprocess

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayushma-ai/assistant-platform/internal/model"
	"github.com/ayushma-ai/assistant-platform/pkg/logger"
)

type fakeTranslator struct {
	err   error
	calls int
}

func (f *fakeTranslator) Translate(_ context.Context, targetLanguage, text string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return targetLanguage + ":" + text, nil
}

type fakeSynthesizer struct {
	audio []byte
	err   error
	calls int
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, _, _ string) ([]byte, error) {
	f.calls++
	return f.audio, f.err
}

type fakeObjects struct {
	err   error
	keys  []string
	calls int
}

func (f *fakeObjects) Upload(_ context.Context, _ []byte, key string) (string, error) {
	f.calls++
	f.keys = append(f.keys, key)
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example.com/" + key, nil
}

type fakeDocuments struct {
	known map[string]bool
}

func (f *fakeDocuments) Resolve(_ context.Context, externalID string) bool {
	return f.known[externalID]
}

type fakeStore struct {
	created []*model.Turn
	updated []*model.Turn
}

func (s *fakeStore) Create(_ context.Context, turn *model.Turn) (uint64, error) {
	copied := *turn
	s.created = append(s.created, &copied)
	return uint64(len(s.created)), nil
}

func (s *fakeStore) Update(_ context.Context, turn *model.Turn) (uint64, error) {
	copied := *turn
	s.updated = append(s.updated, &copied)
	return uint64(len(s.updated)), nil
}

func testInput(raw string) Input {
	return Input{
		ConversationID: "conv-1",
		TenantID:       "tenant-1",
		RawText:        raw,
		Language:       "en-IN",
		GenerateAudio:  true,
		Timings:        model.NewTimings(),
	}
}

func TestPipelineFullRun(t *testing.T) {
	t.Parallel()

	translator := &fakeTranslator{}
	synth := &fakeSynthesizer{audio: []byte("mp3 bytes")}
	objects := &fakeObjects{}
	store := &fakeStore{}
	p := &Pipeline{
		DefaultLanguage: "en-IN",
		Translator:      translator,
		Synthesizer:     synth,
		Objects:         objects,
		Documents:       &fakeDocuments{known: map[string]bool{"doc-1": true}},
		Turns:           store,
		Log:             logger.NewNop(),
	}

	in := testInput("Use saline. References: doc-1, doc-9")
	in.Language = "ta-IN"
	turn := p.Run(context.Background(), in)

	assert.Equal(t, "Use saline.", turn.RawText)
	assert.Equal(t, "ta-IN:Use saline.", turn.DisplayText)
	assert.Equal(t, "ta", turn.Language)

	// Unknown cited ids are dropped, known ones kept.
	assert.Equal(t, []string{"doc-1"}, turn.ReferenceIDs)

	require.NotNil(t, turn.AudioURL)
	assert.True(t, strings.HasPrefix(*turn.AudioURL, "https://cdn.example.com/conv-1_"))
	assert.True(t, strings.HasSuffix(*turn.AudioURL, ".mp3"))

	// Create happened before the stages, the commit after.
	require.Len(t, store.created, 1)
	assert.Empty(t, store.created[0].DisplayText)
	require.Len(t, store.updated, 1)
	assert.Equal(t, turn.ID, store.updated[0].ID)
	assert.Equal(t, "ta-IN:Use saline.", store.updated[0].DisplayText)

	// The committed timings carry the stage marks.
	for _, stage := range []string{model.StageResponseTranslation, model.StageTTS, model.StageUpload} {
		st, ok := store.updated[0].Timings[stage]
		require.True(t, ok, "missing stage %s", stage)
		assert.False(t, st.End.IsZero())
	}
}

func TestPipelineAudioDisabled(t *testing.T) {
	t.Parallel()

	synth := &fakeSynthesizer{audio: []byte("mp3")}
	objects := &fakeObjects{}
	store := &fakeStore{}
	p := &Pipeline{
		DefaultLanguage: "en-IN",
		Synthesizer:     synth,
		Objects:         objects,
		Turns:           store,
		Log:             logger.NewNop(),
	}

	in := testInput("Hi there")
	in.GenerateAudio = false
	turn := p.Run(context.Background(), in)

	assert.Equal(t, 0, synth.calls)
	assert.Equal(t, 0, objects.calls)
	assert.Nil(t, turn.AudioURL)

	// No synthesis mark is recorded when audio was never requested.
	_, ok := store.updated[0].Timings[model.StageTTS]
	assert.False(t, ok)
}

func TestPipelineNoTranslationForDefaultLanguage(t *testing.T) {
	t.Parallel()

	translator := &fakeTranslator{}
	store := &fakeStore{}
	p := &Pipeline{
		DefaultLanguage: "en-IN",
		Translator:      translator,
		Turns:           store,
		Log:             logger.NewNop(),
	}

	turn := p.Run(context.Background(), testInput("Hello"))

	assert.Equal(t, 0, translator.calls)
	assert.Equal(t, "Hello", turn.DisplayText)
}

func TestPipelineTranslationDegrades(t *testing.T) {
	t.Parallel()

	translator := &fakeTranslator{err: errors.New("translate down")}
	store := &fakeStore{}
	p := &Pipeline{
		DefaultLanguage: "en-IN",
		Translator:      translator,
		Turns:           store,
		Log:             logger.NewNop(),
	}

	in := testInput("Hello")
	in.Language = "hi-IN"
	turn := p.Run(context.Background(), in)

	// Degradation serves the untranslated text; the turn still commits.
	assert.Equal(t, "Hello", turn.DisplayText)
	require.Len(t, store.updated, 1)
}

func TestPipelineSynthesisDegrades(t *testing.T) {
	t.Parallel()

	synth := &fakeSynthesizer{err: errors.New("polly down")}
	objects := &fakeObjects{}
	store := &fakeStore{}
	p := &Pipeline{
		DefaultLanguage: "en-IN",
		Synthesizer:     synth,
		Objects:         objects,
		Turns:           store,
		Log:             logger.NewNop(),
	}

	turn := p.Run(context.Background(), testInput("Hello"))

	assert.Equal(t, 1, synth.calls)
	assert.Equal(t, 0, objects.calls)
	assert.Nil(t, turn.AudioURL)
	require.Len(t, store.updated, 1)
}

func TestPipelineUploadDegrades(t *testing.T) {
	t.Parallel()

	synth := &fakeSynthesizer{audio: []byte("mp3")}
	objects := &fakeObjects{err: errors.New("bucket denied")}
	store := &fakeStore{}
	p := &Pipeline{
		DefaultLanguage: "en-IN",
		Synthesizer:     synth,
		Objects:         objects,
		Turns:           store,
		Log:             logger.NewNop(),
	}

	turn := p.Run(context.Background(), testInput("Hello"))

	assert.Equal(t, 1, objects.calls)
	assert.Nil(t, turn.AudioURL)
	require.Len(t, store.updated, 1)
	assert.Nil(t, store.updated[0].AudioURL)
}

func TestPipelineTrimsSurroundingWhitespace(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	p := &Pipeline{DefaultLanguage: "en-IN", Turns: store, Log: logger.NewNop()}

	turn := p.Run(context.Background(), testInput("  Hi there \n"))
	assert.Equal(t, "Hi there", turn.RawText)
}

func TestShortLanguage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ta", ShortLanguage("ta-IN"))
	assert.Equal(t, "en", ShortLanguage("en"))
	assert.Equal(t, "", ShortLanguage(""))
}
