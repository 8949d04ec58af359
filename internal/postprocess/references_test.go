package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractReferences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
		ids  []string
	}{
		{
			name: "no marker",
			text: "Hi there",
			want: "Hi there",
			ids:  nil,
		},
		{
			name: "single id",
			text: "Use saline. References: doc-1",
			want: "Use saline.",
			ids:  []string{"doc-1"},
		},
		{
			name: "multiple ids with punctuation",
			text: "Answer here.\n\nReferences: [doc-1], 'doc-2', *doc-3*.",
			want: "Answer here.",
			ids:  []string{"doc-1", "doc-2", "doc-3"},
		},
		{
			name: "duplicates collapse first seen",
			text: "Text References: a, b, a, b, c",
			want: "Text",
			ids:  []string{"a", "b", "c"},
		},
		{
			name: "empty segments dropped",
			text: "Text References: , ,doc-1, ,",
			want: "Text",
			ids:  []string{"doc-1"},
		},
		{
			name: "marker with nothing after",
			text: "Text References:",
			want: "Text",
			ids:  nil,
		},
		{
			name: "quoted ids",
			text: `Text References: "doc-1", "doc-2"`,
			want: "Text",
			ids:  []string{"doc-1", "doc-2"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ids := ExtractReferences(tc.text)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.ids, ids)
		})
	}
}

func TestExtractReferencesIdempotent(t *testing.T) {
	t.Parallel()

	stripped, ids := ExtractReferences("Answer. References: doc-1, doc-2")
	assert.Equal(t, []string{"doc-1", "doc-2"}, ids)

	again, none := ExtractReferences(stripped)
	assert.Equal(t, stripped, again)
	assert.Nil(t, none)
}
