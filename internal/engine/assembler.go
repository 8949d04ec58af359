package engine

import (
	"fmt"
	"time"

	"github.com/ayushma-ai/assistant-platform/internal/model"
)

// EmitFunc delivers one stream event to the caller. Emitted events are
// owned by the caller; the assembler never revisits them.
type EmitFunc func(model.StreamEvent) error

// Assembler drains a TokenChannel into the caller-visible event sequence:
// one Delta per post-prefix token carrying the fragment and the cumulative
// text, then exactly one terminal outcome. It moves through
// awaiting-first-token, streaming and finalizing states and never emits
// again after a terminal outcome.
type Assembler struct {
	// SkipTokens is the number of leading tokens discarded without
	// emission. The backend prepends a role label ("<name>:") as its
	// first token; callers never see it.
	SkipTokens int

	// Timeout bounds each wait for the next token. Exceeding it is a
	// terminal liveness failure for the turn, not a retry point.
	Timeout time.Duration

	ConversationID string
	Input          string
}

// Drain consumes the channel until a terminal value and returns the
// assembled text. A non-nil error is either the producer's failure, a
// liveness timeout, or an emit failure; the caller routes all of them to
// the error path.
func (a *Assembler) Drain(ch *TokenChannel, emit EmitFunc) (string, error) {
	var cumulative string
	skip := a.SkipTokens

	for {
		v, err := ch.Pop(a.Timeout)
		if err != nil {
			return cumulative, fmt.Errorf("response stalled: %w", err)
		}

		switch v.Kind {
		case KindError:
			return cumulative, v.Err

		case KindEnd:
			return cumulative, nil

		case KindToken:
			if skip > 0 {
				skip--
				continue
			}
			cumulative += v.Token
			event := model.DeltaEvent(a.ConversationID, a.Input, v.Token, cumulative)
			if err := emit(event); err != nil {
				return cumulative, fmt.Errorf("emit delta: %w", err)
			}
		}
	}
}
