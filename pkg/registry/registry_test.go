package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/autoimport/pkg/registry"
)

func TestNew_RegistrationOrder(t *testing.T) {
	t.Parallel()

	reg, err := registry.New([]registry.Binding{
		{Name: "ref", From: "vue"},
		{Name: "default", As: "axios", From: "axios"},
		{Name: "*", As: "_", From: "lodash"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, reg.Len())

	names := make([]string, 0, reg.Len())
	for _, b := range reg.Bindings() {
		names = append(names, b.As)
	}

	assert.Equal(t, []string{"ref", "axios", "_"}, names)

	idx, ok := reg.Index("_")
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestNew_FillsFinalName(t *testing.T) {
	t.Parallel()

	reg, err := registry.New([]registry.Binding{{Name: "ref", From: "vue"}})
	require.NoError(t, err)

	b, ok := reg.Lookup("ref")
	require.True(t, ok)
	assert.Equal(t, registry.Binding{Name: "ref", As: "ref", From: "vue"}, b)
	assert.False(t, b.Aliased())
	assert.False(t, b.IsNamespace())
}

func TestNew_DuplicateLastWins(t *testing.T) {
	t.Parallel()

	reg, err := registry.New([]registry.Binding{
		{Name: "ref", From: "vue"},
		{Name: "computed", From: "vue"},
		{Name: "ref", From: "@vue/reactivity"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Len())

	b, ok := reg.Lookup("ref")
	require.True(t, ok)
	assert.Equal(t, "@vue/reactivity", b.From)

	idx, ok := reg.Index("ref")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	dups := reg.Duplicates()
	require.Len(t, dups, 1)
	assert.Equal(t, "vue", dups[0].Replaced.From)
	assert.Equal(t, "@vue/reactivity", dups[0].Winner.From)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		binding registry.Binding
		want    error
	}{
		{name: "empty name", binding: registry.Binding{From: "vue"}, want: registry.ErrEmptyName},
		{name: "empty from", binding: registry.Binding{Name: "ref"}, want: registry.ErrEmptyFrom},
		{name: "namespace without alias", binding: registry.Binding{Name: "*", From: "lodash"}, want: registry.ErrNamespaceAlias},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := registry.New([]registry.Binding{{Name: "ok", From: "m"}, tt.binding})
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "binding 1")
		})
	}
}

func TestBinding_FinalName(t *testing.T) {
	t.Parallel()

	aliased := registry.Binding{Name: "useState", As: "useS", From: "react"}
	assert.Equal(t, "useS", aliased.FinalName())
	assert.True(t, aliased.Aliased())

	ns := registry.Binding{Name: "*", As: "_", From: "lodash"}
	assert.Equal(t, "_", ns.FinalName())
	assert.True(t, ns.IsNamespace())
}

func TestRegistry_CopiesAreIndependent(t *testing.T) {
	t.Parallel()

	reg, err := registry.New([]registry.Binding{{Name: "ref", From: "vue"}})
	require.NoError(t, err)

	out := reg.Bindings()
	out[0].From = "changed"

	b, ok := reg.Lookup("ref")
	require.True(t, ok)
	assert.Equal(t, "vue", b.From)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)

	_, ok = reg.Index("missing")
	assert.False(t, ok)
	assert.Empty(t, reg.Duplicates())
}
