// Package requirements implements the default fastboot.Requirements
// collaborator, parsing android-info.txt-style manifests.
package requirements

import (
	"context"
	"fmt"
	"strings"

	"github.com/fbflash/fbflash/internal/fastboot"
)

// Manifest is a parsed requirements file: an ordered list of variable
// checks, each accepting one of several alternative values.
type Manifest struct {
	checks []check
}

type check struct {
	variable string
	values   []string
}

// Parse reads a manifest in the grammar:
//
//	require <var>=<value>[|<value>...]
//	# comment
//	(blank lines ignored)
func Parse(text string) (*Manifest, error) {
	var checks []check
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rest, ok := strings.CutPrefix(line, "require ")
		if !ok {
			return nil, fmt.Errorf("requirements: malformed line: %q", line)
		}
		variable, values, ok := strings.Cut(rest, "=")
		if !ok || variable == "" || values == "" {
			return nil, fmt.Errorf("requirements: malformed line: %q", line)
		}
		checks = append(checks, check{variable: variable, values: strings.Split(values, "|")})
	}
	return &Manifest{checks: checks}, nil
}

// Checker checks a Manifest's requirements against a live device. It
// implements fastboot.Requirements.
type Checker struct{}

// Check implements fastboot.Requirements.
func (Checker) Check(ctx context.Context, manifestText string, session fastboot.FastbootSession) error {
	m, err := Parse(manifestText)
	if err != nil {
		return err
	}
	for _, c := range m.checks {
		actual, ok, err := session.GetVar(ctx, c.variable)
		if err != nil {
			return fmt.Errorf("requirements: getvar %s: %w", c.variable, err)
		}
		if !ok {
			return fmt.Errorf("requirements: device did not report %s", c.variable)
		}
		if !contains(c.values, actual) {
			return fmt.Errorf("requirements: %s = %q, want one of %v", c.variable, actual, c.values)
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
