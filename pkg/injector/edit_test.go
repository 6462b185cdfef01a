package injector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/autoimport/pkg/injector"
	"github.com/Sumatoshi-tech/autoimport/pkg/registry"
)

func TestApplyEdits(t *testing.T) {
	t.Parallel()

	src := "hello world"

	got, err := injector.ApplyEdits(src, []injector.Edit{
		{Start: 6, End: 11, Text: "there"},
		{Start: 0, End: 0, Text: "> "},
		{Start: 5, End: 5, Text: ","},
		{Start: 0, End: 0, Text: ">"},
	})
	require.NoError(t, err)
	assert.Equal(t, "> >hello, there", got)
}

func TestApplyEdits_Empty(t *testing.T) {
	t.Parallel()

	got, err := injector.ApplyEdits("same", nil)
	require.NoError(t, err)
	assert.Equal(t, "same", got)
}

func TestApplyEdits_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		edits []injector.Edit
		want  error
	}{
		{
			name:  "overlap",
			edits: []injector.Edit{{Start: 0, End: 4, Text: "x"}, {Start: 2, End: 3, Text: "y"}},
			want:  injector.ErrOverlappingEdits,
		},
		{
			name:  "past the end",
			edits: []injector.Edit{{Start: 2, End: 20}},
			want:  injector.ErrEditOutOfRange,
		},
		{
			name:  "negative",
			edits: []injector.Edit{{Start: -1, End: 0}},
			want:  injector.ErrEditOutOfRange,
		},
		{
			name:  "inverted",
			edits: []injector.Edit{{Start: 3, End: 1}},
			want:  injector.ErrEditOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := injector.ApplyEdits("source", tt.edits)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRenderExports(t *testing.T) {
	t.Parallel()

	got := injector.RenderExports([]registry.Binding{
		{Name: "*", As: "path", From: "node:path"},
		{Name: "ref", From: "vue"},
		{Name: "join", From: "node:path"},
		{Name: "default", As: "React", From: "react"},
		{Name: "computed", From: "vue"},
	})

	want := "export { join } from 'node:path';\n" +
		"export * as path from 'node:path';\n" +
		"export { ref, computed } from 'vue';\n" +
		"export { default as React } from 'react';\n"

	assert.Equal(t, want, got)
	assert.Empty(t, injector.RenderExports(nil))
}
