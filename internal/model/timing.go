package model

import (
	"time"
)

// Stage names recorded in Timings over the life of a turn.
const (
	StageRequestTranslation  = "request_translation"
	StageReference           = "reference"
	StageResponse            = "response"
	StageResponseTranslation = "response_translation"
	StageTTS                 = "tts"
	StageUpload              = "upload"
)

// StageTiming holds the start and end instants of one pipeline stage.
type StageTiming struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end,omitempty"`
}

// Timings maps stage names to their timing marks. One Timings value is
// created per request and threaded through the call chain; each stage
// writes only its own key, so no locking is needed.
type Timings map[string]StageTiming

// NewTimings creates an empty per-request timing map.
func NewTimings() Timings {
	return make(Timings)
}

// StartStage records the start instant for a stage.
func (t Timings) StartStage(stage string) {
	t[stage] = StageTiming{Start: time.Now()}
}

// EndStage records the end instant for a stage. A stage that was never
// started gets a zero start, which keeps the mark visible in persistence.
func (t Timings) EndStage(stage string) {
	st := t[stage]
	st.End = time.Now()
	t[stage] = st
}

// Snapshot returns a copy safe to attach to a persisted turn.
func (t Timings) Snapshot() Timings {
	out := make(Timings, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
