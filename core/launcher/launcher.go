// Package launcher implements the oo command: it compiles the invocation
// into redirection slots and process chains, then runs the chains.
package launcher

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"

	"github.com/oo-cli/oo/core/config"
)

const usage = `Run a command line, customizing how the processes' standard I/O is redirected.

Usage:
  oo [options] <stdin> <stdout> <stderr> [--] <commandline>...
  oo --help
  oo --version

Arguments:
  <stdin>     File served as the standard input. Use '-' for no redirection.
  <stdout>    File served as the standard output. Use '-' for no redirection,
              '=' for the same file as the standard input, and '.' to discard.
  <stderr>    File served as the standard error. Use '-' for no redirection,
              '=' for the same file as the standard output, and '.' to discard.
              Prefix a file with '+' to append to it (akin to '>>' in shell).

Options:
  -e VAR=VALUE                       Set an environment variable.
  -p STR, --pipe=STR                 Token connecting processes with a pipe ('|' in shell) [default: I].
  -s STR, --separator=STR            Token separating command lines (';' in shell) [default: J].
  -t STR, --tempdir-placeholder=STR  Token replaced with a temporary directory path [default: T].
  -d DIR, --working-directory=DIR    Working directory for every process.
  -F, --force-overwrite              Overwrite <stdin> even when the command fails. Valid only when <stdout> is '='.
  -k, --keep-going                   Keep executing the remaining command lines even if one fails.
  --debug-info                       Print the resolved model instead of executing.
  -V, --version                      Version information.
  -h, --help                         Show this help message.
`

var (
	warnColor  = color.New(color.FgYellow, color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
)

// Launcher wires the argument model, validator, pipeline compiler and engine
// together for one top-level invocation.
type Launcher struct {
	Fs      afero.Fs
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config
	Version string

	// LookPath reports whether a name resolves to an executable; injectable
	// for tests.
	LookPath func(string) bool
}

func New(fs afero.Fs, stdin io.Reader, stdout, stderr io.Writer, cfg *config.Config, version string) *Launcher {
	return &Launcher{
		Fs:      fs,
		Stdin:   stdin,
		Stdout:  stdout,
		Stderr:  stderr,
		Config:  cfg,
		Version: version,
	}
}

func (l *Launcher) warnf(format string, args ...interface{}) {
	warnColor.Fprintf(l.Stderr, ProgramName+": warning: "+format+"\n", args...)
}

func (l *Launcher) errorf(format string, args ...interface{}) {
	errorColor.Fprintf(l.Stderr, ProgramName+": "+format+"\n", args...)
}

func (l *Launcher) applyColorMode(cfg *config.Config) {
	switch cfg.Color {
	case config.ColorAlways:
		color.NoColor = false
	case config.ColorNever:
		color.NoColor = true
	}
	// auto: keep the package's own terminal detection.
}

// resolveToken picks the command-line override when given (even if empty,
// which disables the token), otherwise the configured default.
func resolveToken(override *string, fallback string) string {
	if override != nil {
		return *override
	}
	return fallback
}

func configEnvs(cfg *config.Config) []EnvVar {
	var out []EnvVar
	for _, e := range cfg.Env {
		p := strings.Index(e, "=")
		if p < 0 {
			continue // Validate() rejects these at load time.
		}
		out = append(out, EnvVar{Name: e[:p], Value: e[p+1:]})
	}
	return out
}

// Main runs one full invocation and returns the process exit code.
func (l *Launcher) Main(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(l.Stdout, usage)
		return 0
	}

	cfg := l.Config
	if cfg == nil {
		cfg = config.Default()
	}
	l.applyColorMode(cfg)

	a, err := ParseArgs(args)
	if err != nil {
		l.errorf("%v", err)
		return exitUsage
	}
	if a.ShowHelp {
		fmt.Fprint(l.Stdout, usage)
		return 0
	}
	if a.ShowVersion {
		fmt.Fprintf(l.Stdout, "%s %s\n", ProgramName, l.Version)
		return 0
	}

	pipe := resolveToken(a.Pipe, cfg.Pipe)
	separator := resolveToken(a.Separator, cfg.Separator)
	placeholder := resolveToken(a.TempdirPlaceholder, cfg.TempdirPlaceholder)
	a.Envs = append(configEnvs(cfg), a.Envs...)

	inv := NewInvocation(l.Fs, placeholder)
	defer inv.Cleanup(l.warnf)

	chains, err := splitChains(a.CommandLine, pipe, separator, inv)
	if err != nil {
		l.errorf("%v", err)
		return exitUsage
	}

	if a.DebugInfo {
		writeDebugInfo(l.Stdout, a, pipe, separator, placeholder, a.Envs, chains, inv.Replaced)
		return 0
	}

	lookPath := l.LookPath
	if lookPath == nil {
		lookPath = commandExists
	}
	if err := validateFDs(a.FDs, a.ForceOverwrite, lookPath); err != nil {
		l.errorf("%v", err)
		return exitUsage
	}
	normalizeFDs(a.FDs)

	eng := &Engine{
		Fs:     l.Fs,
		Stdin:  l.Stdin,
		Stdout: l.Stdout,
		Stderr: l.Stderr,
		Warnf:  l.warnf,
	}

	// The first chain gets the user-supplied slots; later chains run
	// unredirected unless they explicitly invoke the tool again.
	code := l.runChain(eng, chains[0], a.FDs, a.Envs, a.WorkingDirectory, a.ForceOverwrite)
	if !a.KeepGoing && code != 0 {
		return code
	}

	passthrough := []string{"-", "-", "-"}
	for _, chain := range chains[1:] {
		if isSelfInvocation(chain) {
			reformed, sub, err := reformNestedInvocation(chain, a, lookPath)
			if err != nil {
				l.errorf("%v", err)
				return exitUsage
			}
			code = l.runChain(eng, reformed, sub.FDs, sub.Envs, sub.WorkingDirectory, sub.ForceOverwrite)
		} else {
			code = l.runChain(eng, chain, passthrough, a.Envs, a.WorkingDirectory, a.ForceOverwrite)
		}
		if !a.KeepGoing && code != 0 {
			return code
		}
	}

	// With keep-going, the shell-visible status is the last chain's.
	return code
}

func (l *Launcher) runChain(eng *Engine, chain Chain, fds []string, envs []EnvVar, workingDirectory string, forceOverwrite bool) int {
	out, err := eng.RunChain(chain, fds, envs, workingDirectory, forceOverwrite)
	if err != nil {
		l.errorf("%v", err)
	}
	return out.Code
}
