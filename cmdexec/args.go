package cmdexec

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// SplitArgs splits a configured argument string into a slice without invoking a shell.
func SplitArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	args, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("invalid argument syntax: %w", err)
	}
	return args, nil
}

// ValidateArgs rejects arguments carrying shell metacharacters. exec never runs a
// shell, but such values in tool flags are almost always a copy-paste mistake.
func ValidateArgs(args []string) error {
	for _, arg := range args {
		if strings.ContainsAny(arg, "|&;`$()<>") {
			return fmt.Errorf("disallowed character found in argument: %s", arg)
		}
	}
	return nil
}

// ParseExtraArgs splits and validates in one step.
func ParseExtraArgs(s string) ([]string, error) {
	args, err := SplitArgs(s)
	if err != nil {
		return nil, err
	}
	if err := ValidateArgs(args); err != nil {
		return nil, err
	}
	return args, nil
}
