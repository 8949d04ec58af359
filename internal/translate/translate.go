// Package translate converts text between languages using Amazon Translate.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awstranslate "github.com/aws/aws-sdk-go-v2/service/translate"
)

type translateClient interface {
	TranslateText(ctx context.Context, params *awstranslate.TranslateTextInput, optFns ...func(*awstranslate.Options)) (*awstranslate.TranslateTextOutput, error)
}

// Config holds translator settings.
type Config struct {
	Region  string
	Timeout time.Duration
}

// Client translates text via Amazon Translate.
type Client struct {
	client translateClient
	cfg    Config
}

// New creates a translator with the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(cfg, awstranslate.NewFromConfig(awsCfg)), nil
}

// NewWithClient creates a translator around an existing client. Used by
// tests with a fake.
func NewWithClient(cfg Config, client translateClient) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{client: client, cfg: cfg}
}

// Translate converts text into targetLanguage, auto-detecting the source.
// Language tags are reduced to bare codes ("ta-IN" -> "ta") since Amazon
// Translate keys on codes.
func (c *Client) Translate(ctx context.Context, targetLanguage, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	out, err := c.client.TranslateText(ctx, &awstranslate.TranslateTextInput{
		Text:               aws.String(text),
		SourceLanguageCode: aws.String("auto"),
		TargetLanguageCode: aws.String(languageCode(targetLanguage)),
	})
	if err != nil {
		return "", fmt.Errorf("translate text: %w", err)
	}
	if out.TranslatedText == nil {
		return "", fmt.Errorf("translate returned empty result")
	}
	return *out.TranslatedText, nil
}

func languageCode(tag string) string {
	if i := strings.Index(tag, "-"); i > 0 {
		return tag[:i]
	}
	return tag
}
