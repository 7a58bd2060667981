package launcher

import (
	"testing"

	"github.com/anmitsu/go-shlex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// argv splits a readable command line into the token vector the shell would
// hand us.
func argv(t *testing.T, line string) []string {
	t.Helper()
	tokens, err := shlex.Split(line, true)
	require.NoError(t, err)
	return tokens
}

func strp(s string) *string { return &s }

func TestParseArgsRequiresACommandLine(t *testing.T) {
	_, err := ParseArgs(argv(t, "cmd"))
	require.Error(t, err)
	assert.IsType(t, &UsageError{}, err)

	_, err = ParseArgs(argv(t, "a b c"))
	require.Error(t, err)
}

func TestParseArgsFillsSlotsThenCommand(t *testing.T) {
	a, err := ParseArgs(argv(t, "a b c cmd"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, a.FDs)
	assert.Equal(t, []string{"cmd"}, a.CommandLine)
	assert.False(t, a.ForceOverwrite)
	assert.False(t, a.KeepGoing)
	assert.Empty(t, a.Envs)
	assert.Empty(t, a.WorkingDirectory)
	assert.Nil(t, a.Pipe)
	assert.Nil(t, a.Separator)
	assert.Nil(t, a.TempdirPlaceholder)
}

func TestParseArgsSeparatorDefaultsRemainingSlots(t *testing.T) {
	cases := []struct {
		line string
		fds  []string
	}{
		{"a b -- cmd", []string{"a", "b", "-"}},
		{"a -- cmd", []string{"a", "-", "-"}},
		{"-- cmd", []string{"-", "-", "-"}},
		// A redundant "--" right after the slots is consumed once.
		{"a b c -- cmd", []string{"a", "b", "c"}},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			a, err := ParseArgs(argv(t, tc.line))
			require.NoError(t, err)
			assert.Equal(t, tc.fds, a.FDs)
			assert.Equal(t, []string{"cmd"}, a.CommandLine)
		})
	}
}

func TestParseArgsShorthand(t *testing.T) {
	a, err := ParseArgs(argv(t, "--- cmd"))
	require.NoError(t, err)
	assert.Equal(t, []string{"-", "-", "-"}, a.FDs)

	a, err = ParseArgs(argv(t, "-=. cmd"))
	require.NoError(t, err)
	assert.Equal(t, []string{"-", "=", "."}, a.FDs)

	// Shorthand still works after leading options.
	a, err = ParseArgs(argv(t, "-d /tmp --- cmd"))
	require.NoError(t, err)
	assert.Equal(t, []string{"-", "-", "-"}, a.FDs)
	assert.Equal(t, "/tmp", a.WorkingDirectory)
}

func TestParseArgsFlags(t *testing.T) {
	a, err := ParseArgs(argv(t, "-F -k --debug-info a = . cmd"))
	require.NoError(t, err)

	assert.True(t, a.ForceOverwrite)
	assert.True(t, a.KeepGoing)
	assert.True(t, a.DebugInfo)
	assert.Equal(t, []string{"a", "=", "."}, a.FDs)
}

func TestParseArgsEnv(t *testing.T) {
	a, err := ParseArgs(argv(t, "-e V=some -e V=other --- env"))
	require.NoError(t, err)
	assert.Equal(t, []EnvVar{{"V", "some"}, {"V", "other"}}, a.Envs)

	_, err = ParseArgs(argv(t, "-e JUSTANAME --- env"))
	require.Error(t, err)
}

func TestParseArgsTokenOverrides(t *testing.T) {
	a, err := ParseArgs(argv(t, "--pipe %% --- cat hoge.txt %% wc"))
	require.NoError(t, err)
	assert.Equal(t, strp("%%"), a.Pipe)
	assert.Equal(t, []string{"cat", "hoge.txt", "%%", "wc"}, a.CommandLine)

	a, err = ParseArgs(argv(t, "--separator=%% --- cat a.txt %% cat b.txt"))
	require.NoError(t, err)
	assert.Equal(t, strp("%%"), a.Separator)

	a, err = ParseArgs(argv(t, "-t HOGE --- cat HOGE/hoge.txt"))
	require.NoError(t, err)
	assert.Equal(t, strp("HOGE"), a.TempdirPlaceholder)
	assert.Equal(t, []string{"cat", "HOGE/hoge.txt"}, a.CommandLine)

	// Empty override disables substitution; distinct from "not given".
	a, err = ParseArgs(argv(t, `-t "" --- cmd`))
	require.NoError(t, err)
	require.NotNil(t, a.TempdirPlaceholder)
	assert.Equal(t, "", *a.TempdirPlaceholder)
}

func TestParseArgsUnknownOptionBecomesDescriptor(t *testing.T) {
	// A redirection target that looks like a flag must not be swallowed; the
	// validator catches genuine mistakes later.
	a, err := ParseArgs(argv(t, "-q b c cmd"))
	require.NoError(t, err)
	assert.Equal(t, []string{"-q", "b", "c"}, a.FDs)
}

func TestParseArgsFlagRejectsInlineValue(t *testing.T) {
	_, err := ParseArgs(argv(t, "--keep-going=x a b c cmd"))
	require.Error(t, err)
}

func TestParseArgsMissingOptionValue(t *testing.T) {
	_, err := ParseArgs(argv(t, "-d"))
	require.Error(t, err)

	// Once the slots are full the token is part of the command, not an option.
	a, err := ParseArgs(argv(t, "a b c -d"))
	require.NoError(t, err)
	assert.Equal(t, []string{"-d"}, a.CommandLine)
}

func TestParseArgsHelpAndVersion(t *testing.T) {
	a, err := ParseArgs(argv(t, "--help"))
	require.NoError(t, err)
	assert.True(t, a.ShowHelp)

	a, err = ParseArgs(argv(t, "-V"))
	require.NoError(t, err)
	assert.True(t, a.ShowVersion)
}
