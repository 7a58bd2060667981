package launcher

import (
	"fmt"
	"strings"

	"github.com/oo-cli/oo/core/argscan"
)

// UsageError is a configuration error detected before any process is spawned.
type UsageError struct {
	message string
}

func (e *UsageError) Error() string { return e.message }

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{message: fmt.Sprintf(format, args...)}
}

// EnvVar is one VAR=VALUE assignment. Duplicates are allowed; later
// assignments shadow earlier ones when the environment is applied.
type EnvVar struct {
	Name  string
	Value string
}

// Args is the parsed argument model of one invocation (or of one nested
// self-invocation inside a chain).
//
// The token-override fields are pointers so that "never given" can be told
// apart from "given as empty" — an empty token disables the corresponding
// split/substitution, while an absent one falls back to the configured
// default. Nested invocations reject the overrides outright.
type Args struct {
	FDs              []string
	CommandLine      []string
	ForceOverwrite   bool
	KeepGoing        bool
	Envs             []EnvVar
	WorkingDirectory string
	DebugInfo        bool

	Pipe               *string
	Separator          *string
	TempdirPlaceholder *string

	ShowHelp    bool
	ShowVersion bool
}

// unpackShorthand expands a compact three-character descriptor triple such as
// "---" or "-=." into the three slots. Returns nil when the token is not a
// shorthand.
func unpackShorthand(a string) []string {
	if len(a) != 3 {
		return nil
	}
	var fds []string
	for _, c := range a {
		switch c {
		case '-':
			fds = append(fds, "-")
		case '.':
			fds = append(fds, ".")
		case '=':
			fds = append(fds, "=")
		default:
			return nil
		}
	}
	return fds
}

// optionValue commits to the value interpretation of an option token.
func optionValue(r argscan.Result) (string, int, error) {
	if !r.HasValue() {
		return "", 0, usageErrorf("option %s expects an argument", r.Name)
	}
	return r.Value, r.ValueAdvance, nil
}

// flagAdvance commits to the flag interpretation of an option token.
func flagAdvance(r argscan.Result) (int, error) {
	if r.FlagAdvance == 0 {
		// Shapes like --keep-going=x or -Fx.
		return 0, usageErrorf("option %s does not take a value", r.Name)
	}
	return r.FlagAdvance, nil
}

// ParseArgs builds the argument model from the tokens following the program
// name: descriptor slots and options first, then the command line.
func ParseArgs(tokens []string) (*Args, error) {
	a := &Args{}

	i := 0
	for len(a.FDs) < 3 && i < len(tokens) {
		if len(a.FDs) == 0 {
			if fds := unpackShorthand(tokens[i]); fds != nil {
				a.FDs = fds
				i++
				break
			}
		}

		r := argscan.At(tokens, i)
		if r.Kind == argscan.Separator {
			// Remaining slots default to passthrough; the "--" itself is
			// consumed below.
			for len(a.FDs) < 3 {
				a.FDs = append(a.FDs, "-")
			}
			break
		}

		var eat int
		var err error
		switch r.Name {
		case "-h", "--help":
			a.ShowHelp = true
			return a, nil
		case "-V", "--version":
			a.ShowVersion = true
			return a, nil
		case "-F", "--force-overwrite":
			a.ForceOverwrite = true
			eat, err = flagAdvance(r)
		case "-k", "--keep-going":
			a.KeepGoing = true
			eat, err = flagAdvance(r)
		case "--debug-info":
			a.DebugInfo = true
			eat, err = flagAdvance(r)
		case "-e":
			var value string
			value, eat, err = optionValue(r)
			if err == nil {
				p := strings.Index(value, "=")
				if p < 0 {
					return nil, usageErrorf("option -e's argument should be `VAR=VALUE`: %s", value)
				}
				a.Envs = append(a.Envs, EnvVar{Name: value[:p], Value: value[p+1:]})
			}
		case "-d", "--working-directory":
			a.WorkingDirectory, eat, err = optionValue(r)
		case "-p", "--pipe":
			var value string
			value, eat, err = optionValue(r)
			a.Pipe = &value
		case "-s", "--separator":
			var value string
			value, eat, err = optionValue(r)
			a.Separator = &value
		case "-t", "--tempdir-placeholder":
			var value string
			value, eat, err = optionValue(r)
			a.TempdirPlaceholder = &value
		default:
			// A plain value, or an option name not in the registry. The
			// latter is kept as a descriptor value on purpose: a redirection
			// target that happens to look like a flag must not be swallowed.
			// The validator separately rejects values that resolve to
			// executables.
			a.FDs = append(a.FDs, tokens[i])
			eat = 1
		}
		if err != nil {
			return nil, err
		}
		i += eat
	}

	// A redundant "--" between the descriptors and the command.
	if i < len(tokens) && tokens[i] == "--" {
		i++
	}
	a.CommandLine = append(a.CommandLine, tokens[i:]...)

	if len(a.CommandLine) == 0 {
		return nil, usageErrorf("no command line specified")
	}
	return a, nil
}
