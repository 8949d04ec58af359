// Package postprocess runs the per-turn finalization pipeline: reference
// extraction, translation, speech synthesis, upload and persistence.
package postprocess

import (
	"strings"
)

// Marker is the trailing section label the model appends when it cited
// reference documents. Everything after it is a comma-separated id list.
const Marker = "References:"

const idTrimCutset = " \t\r\n.,[]*'\""

// ExtractReferences splits assistant text into the display text and the
// cited document ids. Ids are trimmed of surrounding punctuation and
// quotes, deduplicated in first-seen order, and the marker section is
// truncated from the returned text. Text without a marker is returned
// unchanged with no ids, so re-running on stripped text is a no-op.
func ExtractReferences(text string) (string, []string) {
	idx := strings.Index(text, Marker)
	if idx == -1 {
		return text, nil
	}

	var ids []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(text[idx+len(Marker):], ",") {
		id := strings.Trim(part, idTrimCutset)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return strings.TrimSpace(text[:idx]), ids
}
