// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package regen runs the external generators that produce fresh documents
// before a migration run. Generation is best effort: failures are returned as
// warnings and never stop a run.
package regen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// MaxStderr bounds how much of a failed generator's stderr ends up in a warning
const MaxStderr = 200

// ErrScriptNotFound is returned when a generator's script is missing.
var ErrScriptNotFound = errors.Base("generator script not found")

// 🏭 Regenerator produces fresh documents
type Regenerator interface {
	Name() string
	// Regenerate returns the generator's progress lines.
	Regenerate(ctx context.Context) ([]string, error)
}

// 🔧 Command runs a generator as a subprocess
type Command struct {
	Label   string   // Display name
	Program string   // Executable, e.g. "node"
	Args    []string // Arguments, usually the script first
	Script  string   // Checked for existence before running, optional
	Dir     string   // Working directory, optional
}

var _ Regenerator = (*Command)(nil)

func (c *Command) Name() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Program
}

// ▶️ Regenerate runs the command and returns its non-empty stdout lines
func (c *Command) Regenerate(ctx context.Context) ([]string, error) {
	if c.Script != "" {
		if _, err := os.Stat(c.Script); err != nil {
			return nil, errors.Errorf("%w: %s", ErrScriptNotFound, c.Script)
		}
	}

	zerolog.Ctx(ctx).Debug().Str("generator", c.Name()).Str("program", c.Program).Strs("args", c.Args).Msg("running generator")

	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ExitError{Name: c.Name(), Stderr: Truncate(stderr.String(), MaxStderr), Err: err}
	}

	return lines(stdout.String()), nil
}

// ❌ ExitError reports a generator that did not finish cleanly
type ExitError struct {
	Name   string
	Stderr string // Truncated to MaxStderr bytes
	Err    error
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("generator %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("generator %s: %v: %s", e.Name, e.Err, e.Stderr)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ✂️ Truncate cuts s to at most n bytes without splitting a rune
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// 📋 RunAll runs every generator in order. Output lines and failures are
// collected, a failure never stops the next generator.
func RunAll(ctx context.Context, gens []Regenerator) (output []string, warnings []string) {
	logger := zerolog.Ctx(ctx)

	for _, g := range gens {
		if ctx.Err() != nil {
			warnings = append(warnings, fmt.Sprintf("generator %s skipped: %v", g.Name(), ctx.Err()))
			continue
		}

		out, err := g.Regenerate(ctx)
		if err != nil {
			logger.Warn().Err(err).Str("generator", g.Name()).Msg("generation failed, using existing files")
			warnings = append(warnings, err.Error())
			continue
		}
		logger.Info().Str("generator", g.Name()).Int("lines", len(out)).Msg("generation done")
		output = append(output, out...)
	}
	return output, warnings
}

func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
