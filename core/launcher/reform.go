package launcher

import (
	"path/filepath"
)

// ProgramName is the launcher's own binary name, used to recognize a chain
// whose first stage invokes the launcher itself.
const ProgramName = "oo"

// isSelfInvocation reports whether the chain's first stage runs this tool.
func isSelfInvocation(chain Chain) bool {
	return len(chain) > 0 && len(chain[0]) > 0 && filepath.Base(chain[0][0]) == ProgramName
}

// reformNestedInvocation re-parses a chain whose first stage invokes the tool
// itself: the stage's leading tokens become a nested argument model with its
// own descriptor slots, environment and working directory, and the stage is
// replaced by the nested command line. The outer model's environment applies
// first (nested entries may add or shadow), the working directory is
// inherited when the nested model leaves it unset, and force-overwrite is
// merged with OR.
//
// Options that only make sense at the top level are invalid here.
func reformNestedInvocation(chain Chain, outer *Args, lookPath func(string) bool) (Chain, *Args, error) {
	sub, err := ParseArgs(chain[0][1:])
	if err != nil {
		return nil, nil, err
	}

	switch {
	case sub.ShowHelp:
		return nil, nil, usageErrorf("invalid option used in sub-command: --help")
	case sub.ShowVersion:
		return nil, nil, usageErrorf("invalid option used in sub-command: --version")
	case sub.DebugInfo:
		return nil, nil, usageErrorf("invalid option used in sub-command: --debug-info")
	case sub.Pipe != nil:
		return nil, nil, usageErrorf("invalid option used in sub-command: --pipe")
	case sub.Separator != nil:
		return nil, nil, usageErrorf("invalid option used in sub-command: --separator")
	case sub.TempdirPlaceholder != nil:
		return nil, nil, usageErrorf("invalid option used in sub-command: --tempdir-placeholder")
	}

	if err := validateFDs(sub.FDs, sub.ForceOverwrite, lookPath); err != nil {
		return nil, nil, err
	}
	normalizeFDs(sub.FDs)
	sub.ForceOverwrite = sub.ForceOverwrite || outer.ForceOverwrite

	sub.Envs = append(append([]EnvVar{}, outer.Envs...), sub.Envs...)
	if sub.WorkingDirectory == "" {
		sub.WorkingDirectory = outer.WorkingDirectory
	}

	reformed := Chain{Stage(sub.CommandLine)}
	reformed = append(reformed, chain[1:]...)
	return reformed, sub, nil
}
