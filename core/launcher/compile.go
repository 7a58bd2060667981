package launcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/afero"
)

// Stage is a single program invocation: the program name followed by its
// arguments.
type Stage []string

// Chain is one or more stages connected stdout-to-stdin by pipes.
type Chain []Stage

// Replacement records one placeholder-substituted argument for --debug-info.
type Replacement struct {
	Arg    string
	Result string
}

// Invocation carries the per-invocation state threaded through the compiler
// and engine: the placeholder token and the lazily created temporary
// directory it resolves to. One top-level invocation owns exactly one such
// directory, shared by every chain including nested self-invocations.
type Invocation struct {
	fs          afero.Fs
	placeholder string

	tempDir  string
	Replaced []Replacement
}

func NewInvocation(fs afero.Fs, placeholder string) *Invocation {
	return &Invocation{fs: fs, placeholder: placeholder}
}

// TempDir returns the invocation's temporary directory, creating it on first
// use.
func (inv *Invocation) TempDir() (string, error) {
	if inv.tempDir == "" {
		dir, err := afero.TempDir(inv.fs, "", "oo")
		if err != nil {
			return "", err
		}
		inv.tempDir = dir
	}
	return inv.tempDir, nil
}

// Cleanup removes the temporary directory if it was ever created. Removal
// failure is reported through warnf, not escalated.
func (inv *Invocation) Cleanup(warnf func(format string, args ...interface{})) {
	if inv.tempDir == "" {
		return
	}
	if err := inv.fs.RemoveAll(inv.tempDir); err != nil {
		warnf("could not remove temporary directory %s: %v", inv.tempDir, err)
	}
	inv.tempDir = ""
}

func isFilenameLikeChar(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '-' || c == '.'
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

// replaceTempdirRefs substitutes dir for each occurrence of placeholder that
// is used as a path prefix: immediately followed by "/" and not preceded by a
// filename-like character. Other occurrences are unrelated substrings and are
// left alone.
func replaceTempdirRefs(arg, placeholder, dir string) (string, bool) {
	if placeholder == "" {
		return arg, false
	}
	parts := strings.Split(arg, placeholder)
	if len(parts) == 1 {
		return arg, false
	}

	var b strings.Builder
	b.WriteString(parts[0])
	replaced := false
	for i := 1; i < len(parts); i++ {
		// The character written just before this occurrence: the end of the
		// previous part, or the end of the placeholder itself when two
		// occurrences are adjacent.
		var prev rune
		if parts[i-1] != "" {
			prev = lastRune(parts[i-1])
		} else if i > 1 {
			prev = lastRune(placeholder)
		}

		if (prev == 0 || !isFilenameLikeChar(prev)) && strings.HasPrefix(parts[i], "/") {
			b.WriteString(dir)
			replaced = true
		} else {
			b.WriteString(placeholder)
		}
		b.WriteString(parts[i])
	}
	return b.String(), replaced
}

// expand substitutes the temp-dir placeholder inside one stage argument,
// creating the temp directory on the first real substitution.
func (inv *Invocation) expand(arg string) (string, error) {
	if _, hit := replaceTempdirRefs(arg, inv.placeholder, "?"); !hit {
		return arg, nil
	}
	dir, err := inv.TempDir()
	if err != nil {
		return "", err
	}
	replaced, _ := replaceTempdirRefs(arg, inv.placeholder, dir)
	inv.Replaced = append(inv.Replaced, Replacement{Arg: arg, Result: replaced})
	return replaced, nil
}

// splitChains compiles the command line into chains of stages, splitting on
// the separator and pipe tokens. An empty token disables the corresponding
// split.
func splitChains(tokens []string, pipe, separator string, inv *Invocation) ([]Chain, error) {
	var chains []Chain
	var chain Chain
	var stage Stage

	for _, tok := range tokens {
		switch {
		case separator != "" && tok == separator:
			if len(stage) == 0 {
				return nil, usageErrorf("empty command line (unexpected separator)")
			}
			chains = append(chains, append(chain, stage))
			chain, stage = nil, nil
		case pipe != "" && tok == pipe:
			if len(stage) == 0 {
				return nil, usageErrorf("empty command line (unexpected pipe)")
			}
			chain = append(chain, stage)
			stage = nil
		default:
			expanded, err := inv.expand(tok)
			if err != nil {
				return nil, err
			}
			stage = append(stage, expanded)
		}
	}

	if len(stage) == 0 {
		return nil, usageErrorf("empty command line (trailing separator or pipe)")
	}
	return append(chains, append(chain, stage)), nil
}
