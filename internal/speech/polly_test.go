package speech

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePollyClient struct {
	out  *polly.SynthesizeSpeechOutput
	err  error
	last *polly.SynthesizeSpeechInput
}

func (f *fakePollyClient) SynthesizeSpeech(_ context.Context, params *polly.SynthesizeSpeechInput, _ ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	f.last = params
	return f.out, f.err
}

type fakeAPIError struct {
	code string
	msg  string
}

func (e fakeAPIError) Error() string                 { return e.code + ": " + e.msg }
func (e fakeAPIError) ErrorCode() string             { return e.code }
func (e fakeAPIError) ErrorMessage() string          { return e.msg }
func (e fakeAPIError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

func TestSynthesizeSuccess(t *testing.T) {
	t.Parallel()

	client := &fakePollyClient{out: &polly.SynthesizeSpeechOutput{
		AudioStream: io.NopCloser(strings.NewReader("mp3 bytes")),
	}}
	s := NewWithClient(Config{VoiceID: "Kajal", Engine: "neural"}, client)

	audio, err := s.Synthesize(context.Background(), "hello", "en-IN")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3 bytes"), audio)

	require.NotNil(t, client.last)
	assert.Equal(t, pollytypes.EngineNeural, client.last.Engine)
	assert.Equal(t, pollytypes.OutputFormatMp3, client.last.OutputFormat)
	assert.Equal(t, pollytypes.VoiceId("Kajal"), client.last.VoiceId)
	assert.Equal(t, pollytypes.LanguageCode("en-IN"), client.last.LanguageCode)
	assert.Equal(t, "hello", *client.last.Text)
}

func TestSynthesizeOmitsEmptyLanguage(t *testing.T) {
	t.Parallel()

	client := &fakePollyClient{out: &polly.SynthesizeSpeechOutput{
		AudioStream: io.NopCloser(strings.NewReader("x")),
	}}
	s := NewWithClient(Config{}, client)

	_, err := s.Synthesize(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, pollytypes.LanguageCode(""), client.last.LanguageCode)
}

func TestSynthesizeUnretryableClassification(t *testing.T) {
	t.Parallel()

	client := &fakePollyClient{err: fakeAPIError{code: "TextLengthExceededException", msg: "too long"}}
	s := NewWithClient(Config{}, client)

	_, err := s.Synthesize(context.Background(), "hello", "en-IN")
	require.ErrorIs(t, err, ErrUnretryable)
	assert.Contains(t, err.Error(), "too long")
}

func TestSynthesizeTransientError(t *testing.T) {
	t.Parallel()

	client := &fakePollyClient{err: errors.New("tcp reset")}
	s := NewWithClient(Config{}, client)

	_, err := s.Synthesize(context.Background(), "hello", "en-IN")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnretryable)
}

func TestSynthesizeEmptyStream(t *testing.T) {
	t.Parallel()

	client := &fakePollyClient{out: &polly.SynthesizeSpeechOutput{}}
	s := NewWithClient(Config{}, client)

	_, err := s.Synthesize(context.Background(), "hello", "en-IN")
	require.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	s := NewWithClient(Config{}, &fakePollyClient{})
	assert.Equal(t, "Kajal", s.cfg.VoiceID)
	assert.Equal(t, "neural", s.cfg.Engine)
	assert.Equal(t, "us-east-1", s.cfg.Region)
}
