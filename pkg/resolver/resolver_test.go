package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/autoimport/pkg/registry"
	"github.com/Sumatoshi-tech/autoimport/pkg/resolver"
	"github.com/Sumatoshi-tech/autoimport/pkg/scanner"
)

func newRegistry(t *testing.T, bindings ...registry.Binding) *registry.Registry {
	t.Helper()

	reg, err := registry.New(bindings)
	require.NoError(t, err)

	return reg
}

func TestResolve(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t,
		registry.Binding{Name: "A", From: "test-id"},
		registry.Binding{Name: "B", From: "test-id"},
		registry.Binding{Name: "C", From: "test-id"},
		registry.Binding{Name: "ref", From: "vue"},
		registry.Binding{Name: "default", As: "React", From: "react"},
	)

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "registration order wins over source order",
			src:  "const result = true ? false ? C : B : A",
			want: []string{"A", "B", "C"},
		},
		{
			name: "already imported names are skipped",
			src:  "import { ref } from 'vue'\nref(1); A",
			want: []string{"A"},
		},
		{
			name: "aliased import of another module still provides",
			src:  "import { other as ref } from 'elsewhere'\nref(1)",
			want: nil,
		},
		{
			name: "type-only imports provide",
			src:  "import type { A } from 'types'\nlet x: A",
			want: nil,
		},
		{
			name: "alias is the trigger",
			src:  "React.createElement(default)",
			want: []string{"React"},
		},
		{
			name: "lookalikes do not trigger",
			src:  "const s = 'A'; obj.B; // C\n({ ref: 1 })",
			want: nil,
		},
		{
			name: "re-exports are not usages",
			src:  "export { A } from 'test-id'",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := resolver.Resolve(scanner.Scan(tt.src), reg)

			if tt.want == nil {
				assert.Empty(t, got)

				return
			}

			assert.Equal(t, tt.want, resolver.Names(got))
		})
	}
}

func TestResolve_FirstOccurrence(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t, registry.Binding{Name: "fooBar", From: "test-id"})
	src := "'fooBar'\nfooBar()\nfooBar()"

	got := resolver.Resolve(scanner.Scan(src), reg)

	require.Len(t, got, 1)
	assert.Equal(t, len("'fooBar'\n"), got[0].First.Start)
	assert.Equal(t, "test-id", got[0].Binding.From)
}

func TestResolve_EmptyInputs(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)

	assert.Empty(t, resolver.Resolve(scanner.Scan("fooBar()"), reg))
	assert.Empty(t, resolver.Resolve(nil, reg))
	assert.Empty(t, resolver.Resolve(scanner.Scan("fooBar()"), nil))
}
