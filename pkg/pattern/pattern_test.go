package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name      string
		tokens    []string
		want      []Pair
		wantError string
	}{
		{
			name:   "single_pair",
			tokens: []string{"foo", "bar"},
			want:   []Pair{{From: "foo", To: "bar"}},
		},
		{
			name:   "sorted_by_descending_from_length",
			tokens: []string{"a", "Y", "ab", "X"},
			want: []Pair{
				{From: "ab", To: "X"},
				{From: "a", To: "Y"},
			},
		},
		{
			name:   "equal_length_keeps_input_order",
			tokens: []string{"ab", "1", "cd", "2", "ab", "3"},
			want: []Pair{
				{From: "ab", To: "1"},
				{From: "cd", To: "2"},
				{From: "ab", To: "3"},
			},
		},
		{
			name:   "empty_from_is_kept",
			tokens: []string{"", "x", "a", "b"},
			want: []Pair{
				{From: "a", To: "b"},
				{From: "", To: "x"},
			},
		},
		{
			name:      "odd_token_count",
			tokens:    []string{"foo", "bar", "baz"},
			wantError: "from/to pairs",
		},
		{
			name:      "no_tokens",
			tokens:    nil,
			wantError: "no replacement pairs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Compile(tt.tokens)

			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, table)
			assert.Equal(t, tt.want, table.Pairs())
			assert.Equal(t, len(tt.want), table.Len())
		})
	}
}

func TestTable_MaxFromLen(t *testing.T) {
	table, err := Compile([]string{"a", "Y", "abc", "X"})
	require.NoError(t, err)
	assert.Equal(t, 3, table.MaxFromLen())

	assert.Equal(t, 0, FromPairs(nil).MaxFromLen())
}

func TestFromPairs_DoesNotMutateInput(t *testing.T) {
	in := []Pair{
		{From: "a", To: "1"},
		{From: "abc", To: "2"},
	}
	table := FromPairs(in)

	assert.Equal(t, "a", in[0].From, "input slice must not be reordered")
	assert.Equal(t, "abc", table.Pairs()[0].From)
}
