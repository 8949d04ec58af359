// Package speech synthesizes audio for assistant replies using Amazon
// Polly.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
)

// ErrUnretryable marks synthesis failures caused by the input itself
// (oversized text, bad SSML); retrying the same text cannot succeed.
var ErrUnretryable = errors.New("speech: unretryable synthesis failure")

type synthClient interface {
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// Config holds synthesizer settings.
type Config struct {
	Region  string
	VoiceID string
	Engine  string
	Timeout time.Duration
}

// Synthesizer produces MP3 audio via Amazon Polly.
type Synthesizer struct {
	client synthClient
	cfg    Config
}

// New creates a synthesizer with the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Synthesizer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(regionOrDefault(cfg.Region)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(cfg, polly.NewFromConfig(awsCfg)), nil
}

// NewWithClient creates a synthesizer around an existing client. Used by
// tests with a fake.
func NewWithClient(cfg Config, client synthClient) *Synthesizer {
	cfg.Region = regionOrDefault(cfg.Region)
	if strings.TrimSpace(cfg.VoiceID) == "" {
		cfg.VoiceID = "Kajal"
	}
	if strings.TrimSpace(cfg.Engine) == "" {
		cfg.Engine = "neural"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Synthesizer{client: client, cfg: cfg}
}

// Synthesize returns MP3 bytes for text. The language tag selects the
// Polly language code so one voice can serve multilingual replies.
func (s *Synthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	engine := pollytypes.EngineStandard
	if strings.EqualFold(s.cfg.Engine, "neural") {
		engine = pollytypes.EngineNeural
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	input := &polly.SynthesizeSpeechInput{
		Engine:       engine,
		OutputFormat: pollytypes.OutputFormatMp3,
		Text:         aws.String(text),
		TextType:     pollytypes.TextTypeText,
		VoiceId:      pollytypes.VoiceId(s.cfg.VoiceID),
	}
	if language != "" {
		input.LanguageCode = pollytypes.LanguageCode(language)
	}

	output, err := s.client.SynthesizeSpeech(ctx, input)
	if err != nil {
		return nil, classifyError(err)
	}
	if output == nil || output.AudioStream == nil {
		return nil, fmt.Errorf("polly returned empty audio stream")
	}
	defer output.AudioStream.Close()

	audio, err := io.ReadAll(output.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("read audio stream: %w", err)
	}
	return audio, nil
}

func classifyError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidSsmlException", "TextLengthExceededException", "LexiconNotFoundException", "InvalidSampleRateException":
			return fmt.Errorf("%w: %s", ErrUnretryable, apiErr.ErrorMessage())
		}
	}
	return fmt.Errorf("synthesize speech: %w", err)
}

func regionOrDefault(region string) string {
	if strings.TrimSpace(region) == "" {
		return "us-east-1"
	}
	return region
}
