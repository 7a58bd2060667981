package launcher

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChains(t *testing.T) {
	inv := NewInvocation(afero.NewMemMapFs(), "")

	cases := []struct {
		name   string
		tokens []string
		want   []Chain
	}{
		{
			"single stage",
			[]string{"echo", "hi"},
			[]Chain{{{"echo", "hi"}}},
		},
		{
			"pipe",
			[]string{"cat", "a.txt", "I", "wc", "-l"},
			[]Chain{{{"cat", "a.txt"}, {"wc", "-l"}}},
		},
		{
			"separator",
			[]string{"echo", "one", "J", "echo", "two"},
			[]Chain{{{"echo", "one"}}, {{"echo", "two"}}},
		},
		{
			"pipes and separators mixed",
			[]string{"cat", "a", "I", "wc", "J", "echo", "done"},
			[]Chain{{{"cat", "a"}, {"wc"}}, {{"echo", "done"}}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := splitChains(tc.tokens, "I", "J", inv)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSplitChainsRejectsEmptyStages(t *testing.T) {
	inv := NewInvocation(afero.NewMemMapFs(), "")

	cases := []struct {
		name   string
		tokens []string
	}{
		{"leading pipe", []string{"I", "wc"}},
		{"leading separator", []string{"J", "echo", "x"}},
		{"double pipe", []string{"cat", "I", "I", "wc"}},
		{"pipe then separator", []string{"cat", "I", "J", "echo", "x"}},
		{"trailing pipe", []string{"cat", "I"}},
		{"trailing separator", []string{"echo", "x", "J"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := splitChains(tc.tokens, "I", "J", inv)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "empty command line")
		})
	}
}

func TestSplitChainsEmptyTokensDisableSplitting(t *testing.T) {
	inv := NewInvocation(afero.NewMemMapFs(), "")

	got, err := splitChains([]string{"echo", "I", "J"}, "", "", inv)
	require.NoError(t, err)
	assert.Equal(t, []Chain{{{"echo", "I", "J"}}}, got)
}

func TestReplaceTempdirRefs(t *testing.T) {
	cases := []struct {
		arg  string
		want string
		hit  bool
	}{
		{"T/x", "/tmp/d/x", true},
		{"a=T/x", "a=/tmp/d/x", true},
		{"T/a:T/b", "/tmp/d/a:/tmp/d/b", true},
		// Preceded by a filename-like character: part of some other word.
		{"xT/x", "xT/x", false},
		{"T.txt", "T.txt", false},
		{".T/x", ".T/x", false},
		{"2T/x", "2T/x", false},
		// Adjacent occurrences: the first ends with a filename-like rune.
		{"TT/x", "TT/x", false},
		// Not followed by a slash.
		{"T", "T", false},
		{"Tx", "Tx", false},
	}
	for _, tc := range cases {
		t.Run(tc.arg, func(t *testing.T) {
			got, hit := replaceTempdirRefs(tc.arg, "T", "/tmp/d")
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.hit, hit)
		})
	}
}

func TestReplaceTempdirRefsEmptyPlaceholder(t *testing.T) {
	got, hit := replaceTempdirRefs("T/x", "", "/tmp/d")
	assert.Equal(t, "T/x", got)
	assert.False(t, hit)
}

func TestInvocationTempDirIsLazyAndShared(t *testing.T) {
	fs := afero.NewMemMapFs()
	inv := NewInvocation(fs, "T")

	got, err := inv.expand("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", got)
	assert.Empty(t, inv.Replaced)

	first, err := inv.expand("T/one")
	require.NoError(t, err)

	second, err := inv.expand("T/two")
	require.NoError(t, err)

	dir, err := inv.TempDir()
	require.NoError(t, err)
	assert.Equal(t, dir+"/one", first)
	assert.Equal(t, dir+"/two", second)

	exists, err := afero.DirExists(fs, dir)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Equal(t, []Replacement{
		{Arg: "T/one", Result: first},
		{Arg: "T/two", Result: second},
	}, inv.Replaced)

	inv.Cleanup(func(string, ...interface{}) { t.Fatal("unexpected warning") })
	exists, err = afero.DirExists(fs, dir)
	require.NoError(t, err)
	assert.False(t, exists)
}
