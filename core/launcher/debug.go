package launcher

import (
	"fmt"
	"io"
	"strings"
)

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func envStrings(envs []EnvVar) []string {
	out := make([]string, len(envs))
	for i, e := range envs {
		out[i] = e.Name + "=" + e.Value
	}
	return out
}

// writeDebugInfo dumps the fully resolved model: the raw descriptor slots and
// options, the effective control tokens, the compiled chains and every
// placeholder-substituted argument. Test harnesses rely on this output.
func writeDebugInfo(w io.Writer, a *Args, pipe, separator, placeholder string, envs []EnvVar, chains []Chain, replaced []Replacement) {
	fmt.Fprintf(w, "fds = %s\n", quoteList(a.FDs))
	fmt.Fprintf(w, "command_line = %s\n", quoteList(a.CommandLine))
	fmt.Fprintf(w, "force_overwrite = %v\n", a.ForceOverwrite)
	fmt.Fprintf(w, "keep_going = %v\n", a.KeepGoing)
	fmt.Fprintf(w, "envs = %s\n", quoteList(envStrings(envs)))
	fmt.Fprintf(w, "working_directory = %q\n", a.WorkingDirectory)
	fmt.Fprintf(w, "pipe = %q\n", pipe)
	fmt.Fprintf(w, "separator = %q\n", separator)
	fmt.Fprintf(w, "tempdir_placeholder = %q\n", placeholder)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "target command lines:")
	for _, chain := range chains {
		var parts []string
		for _, stage := range chain {
			parts = append(parts, strings.Join(stage, " "))
		}
		fmt.Fprintf(w, "%s ;\n", strings.Join(parts, " | "))
	}

	if len(replaced) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "tempdir-including arguments:")
		for _, r := range replaced {
			fmt.Fprintf(w, "%q -> %q\n", r.Arg, r.Result)
		}
	}
}
