package engine

import (
	"context"
	"time"

	"github.com/ayushma-ai/assistant-platform/internal/llm"
	"github.com/ayushma-ai/assistant-platform/pkg/metrics"
)

// startProducer runs the streaming model call on its own goroutine so the
// first tokens reach the caller before generation completes. Every token is
// pushed to the channel in generation order, followed by exactly one
// terminal value: end on success, error on failure. The producer has no
// side effects beyond channel pushes, and the caller's cancel of ctx is the
// only way to stop it early.
func startProducer(ctx context.Context, client llm.Client, req *llm.CompletionRequest, ch *TokenChannel) {
	go func() {
		start := time.Now()

		resp, err := client.CompleteStream(ctx, req, func(token string, _ int) error {
			return ch.PushToken(ctx, token)
		})
		if err != nil {
			metrics.RecordLLMStream(req.Model, "error", time.Since(start).Seconds(), 0, 0)
			_ = ch.PushError(ctx, err)
			return
		}

		metrics.RecordLLMStream(resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
		_ = ch.PushEnd(ctx)
	}()
}
