package launcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
)

const (
	// exitUsage is returned for configuration and validation errors detected
	// before any process is spawned.
	exitUsage = 2
	// exitEngine is returned when a chain could not even be spawned.
	exitEngine = 1
)

// ExitOutcome is the result of running one chain.
type ExitOutcome struct {
	Code    int
	Success bool
}

func outcome(code int) ExitOutcome {
	return ExitOutcome{Code: code, Success: code == 0}
}

// Engine runs a single chain: a pipe-connected sequence of processes with the
// three descriptor slots applied to the chain's outer streams. The engine
// attaches file handles to the children directly and never sits on the data
// path itself.
type Engine struct {
	Fs afero.Fs

	// Passthrough endpoints, normally the launcher's own streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Warnf reports non-fatal cleanup conditions.
	Warnf func(format string, args ...interface{})
}

func (e *Engine) warnf(format string, args ...interface{}) {
	if e.Warnf != nil {
		e.Warnf(format, args...)
	}
}

// overwriteSwap is the deferred "stdout aliases stdin" replacement: the chain
// writes into tmp inside a private directory, and only a confirmed success
// (or --force-overwrite) moves the bytes onto dest.
type overwriteSwap struct {
	dir        string
	tmp        string
	dest       string
	appendMode bool
}

func applyEnv(base []string, envs []EnvVar) []string {
	out := append([]string{}, base...)
	for _, e := range envs {
		out = append(out, e.Name+"="+e.Value)
	}
	return out
}

// openOutputFile opens a stdout/stderr target path, honoring the "+" append
// marker: truncate by default, append (creating if absent) with the marker.
func (e *Engine) openOutputFile(fd string) (afero.File, error) {
	name, appendMode := splitAppendFlag(fd)
	flag := os.O_WRONLY | os.O_CREATE
	if appendMode {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}
	return e.Fs.OpenFile(name, flag, 0644)
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}

func exitCodeOf(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		// Killed by a signal; there is no exit code to propagate.
		return exitEngine, nil
	}
	return exitEngine, err
}

// RunChain spawns the chain, applies the descriptor slots, waits for every
// stage and performs the atomic-overwrite step when stdout aliases stdin.
func (e *Engine) RunChain(chain Chain, fds []string, envs []EnvVar, workingDirectory string, forceOverwrite bool) (ExitOutcome, error) {
	stdinPath, stdinAppend := splitAppendFlag(fds[0])

	cmds := make([]*exec.Cmd, len(chain))
	for i, stage := range chain {
		cmd := exec.Command(stage[0], stage[1:]...)
		if workingDirectory != "" {
			cmd.Dir = workingDirectory
		}
		if len(envs) > 0 {
			cmd.Env = applyEnv(os.Environ(), envs)
		}
		// Intermediate stages keep the launcher's stderr; the last stage's is
		// set from the descriptor slot below.
		cmd.Stderr = e.Stderr
		cmds[i] = cmd
	}

	var pipeEnds []io.Closer // parent copies, closed right after start
	var files []io.Closer    // redirection targets, closed after the chain joins
	var swap *overwriteSwap

	fail := func(err error) (ExitOutcome, error) {
		closeAll(pipeEnds)
		closeAll(files)
		if swap != nil {
			e.removeSwapDir(swap)
		}
		return outcome(exitEngine), err
	}

	for i := 0; i < len(cmds)-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			return fail(fmt.Errorf("connecting %s to %s: %w", chain[i][0], chain[i+1][0], err))
		}
		cmds[i].Stdout = w
		cmds[i+1].Stdin = r
		pipeEnds = append(pipeEnds, r, w)
	}

	first, last := cmds[0], cmds[len(cmds)-1]

	if stdinPath == "-" {
		first.Stdin = e.Stdin
	} else {
		f, err := e.Fs.Open(stdinPath)
		if err != nil {
			return fail(fmt.Errorf("opening stdin file: %w", err))
		}
		first.Stdin = f
		files = append(files, f)
	}

	switch fds[1] {
	case "=":
		// The overwrite target is never touched before the outcome is known;
		// the chain writes into a private temp file instead.
		dir, err := afero.TempDir(e.Fs, "", "oo-out")
		if err != nil {
			return fail(fmt.Errorf("creating temporary output directory: %w", err))
		}
		swap = &overwriteSwap{
			dir:        dir,
			tmp:        filepath.Join(dir, "stdout"),
			dest:       stdinPath,
			appendMode: stdinAppend,
		}
		f, err := e.Fs.Create(swap.tmp)
		if err != nil {
			return fail(fmt.Errorf("creating temporary output file: %w", err))
		}
		last.Stdout = f
		files = append(files, f)
	case ".":
		last.Stdout = nil // /dev/null
	case "-":
		last.Stdout = e.Stdout
	default:
		f, err := e.openOutputFile(fds[1])
		if err != nil {
			return fail(fmt.Errorf("opening stdout file: %w", err))
		}
		last.Stdout = f
		files = append(files, f)
	}

	switch fds[2] {
	case "=":
		// Merge stderr into whatever stdout resolved to.
		last.Stderr = last.Stdout
	case ".":
		last.Stderr = nil
	case "-":
		last.Stderr = e.Stderr
	default:
		f, err := e.openOutputFile(fds[2])
		if err != nil {
			return fail(fmt.Errorf("opening stderr file: %w", err))
		}
		last.Stderr = f
		files = append(files, f)
	}

	started := 0
	var startErr error
	for _, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			startErr = fmt.Errorf("could not start %s: %w", cmd.Args[0], err)
			break
		}
		started++
	}
	closeAll(pipeEnds)
	if startErr != nil {
		// Already-started stages see EOF/EPIPE on the closed pipes.
		for i := 0; i < started; i++ {
			cmds[i].Wait()
		}
		closeAll(files)
		if swap != nil {
			e.removeSwapDir(swap)
		}
		return outcome(exitEngine), startErr
	}

	var code int
	var waitErr error
	for i, cmd := range cmds {
		err := cmd.Wait()
		if i == len(cmds)-1 {
			code, waitErr = exitCodeOf(err)
		}
	}
	closeAll(files)

	// The closed output handles are the real synchronization point; the yield
	// just gives the kernel a head start on the children's buffered writes.
	runtime.Gosched()

	if waitErr != nil {
		if swap != nil {
			e.removeSwapDir(swap)
		}
		return outcome(exitEngine), waitErr
	}

	if swap != nil {
		if code == 0 || forceOverwrite {
			if err := e.commitOverwrite(swap); err != nil {
				e.warnf("could not replace %s: %v", swap.dest, err)
			}
		} else {
			e.warnf("command exited with status %d; leaving %s untouched", code, swap.dest)
		}
		e.removeSwapDir(swap)
	}

	return outcome(code), nil
}

// commitOverwrite moves the temporary output onto the source file: a rename
// (with a byte-copy fallback for cross-filesystem temp dirs), or an append of
// the temporary bytes when the source was given with the "+" marker.
func (e *Engine) commitOverwrite(s *overwriteSwap) error {
	if s.appendMode {
		return e.copyFile(s.tmp, s.dest, os.O_WRONLY|os.O_CREATE|os.O_APPEND)
	}

	if exists, err := afero.Exists(e.Fs, s.tmp); err != nil {
		return err
	} else if !exists {
		// The chain never wrote; success still means "exactly the output
		// bytes", which is none.
		f, err := e.Fs.OpenFile(s.dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		return f.Close()
	}

	if err := e.Fs.Remove(s.dest); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := e.Fs.Rename(s.tmp, s.dest); err != nil {
		return e.copyFile(s.tmp, s.dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	}
	return nil
}

func (e *Engine) copyFile(src, dest string, destFlag int) error {
	in, err := e.Fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := e.Fs.OpenFile(dest, destFlag, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (e *Engine) removeSwapDir(s *overwriteSwap) {
	if err := e.Fs.RemoveAll(s.dir); err != nil {
		e.warnf("could not remove temporary directory %s: %v", s.dir, err)
	}
}
