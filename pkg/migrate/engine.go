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

// Package migrate applies a rule set to documents, one text run at a time.
package migrate

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/docmigrate/pkg/document"
	"github.com/walteh/docmigrate/pkg/rules"
)

// 🔄 Migrate rewrites doc in memory and reports what happened.
//
// Paragraphs are visited body first, then table cells. For each paragraph
// every substitution runs in order; a rule whose pattern is in the paragraph
// text rewrites each run containing the pattern. A pattern split across runs
// is left alone and remains visible to flags. Flags are evaluated once all
// substitutions are done, against the rewritten text.
func Migrate(ctx context.Context, doc *document.Document, set *rules.Set) Outcome {
	logger := zerolog.Ctx(ctx)

	var out Outcome
	applied := make(map[string]struct{})
	firedIdx := make(map[int]struct{})
	var fired []rules.Substitution

	subs := set.Substitutions()
	doc.Walk(func(loc document.Location, p *document.Paragraph) {
		for i, sub := range subs {
			if !rules.Contains(p.Text(), sub.Pattern) {
				continue
			}
			for _, run := range p.Runs {
				next, n := sub.Apply(run.Text)
				if n == 0 {
					continue
				}
				out.Changes = append(out.Changes, Change{
					Location: loc.String(),
					Label:    sub.Label,
					Before:   run.Text,
					After:    next,
				})
				run.Text = next

				if _, ok := applied[sub.Label]; !ok {
					applied[sub.Label] = struct{}{}
					out.AppliedLabels = append(out.AppliedLabels, sub.Label)
				}
				// rules sharing a label each cover their own replacement
				if _, ok := firedIdx[i]; !ok {
					firedIdx[i] = struct{}{}
					fired = append(fired, sub)
				}
				logger.Trace().
					Str("location", loc.String()).
					Str("label", sub.Label).
					Int("occurrences", n).
					Msg("rule applied")
			}
		}
	})

	out.FlaggedPatterns = residualFlags(doc, set.Flags(), fired, out.AppliedLabels)

	switch {
	case len(out.AppliedLabels) > 0:
		out.Status = StatusMigrated
	case len(out.FlaggedPatterns) > 0:
		out.Status = StatusFlagged
	default:
		out.Status = StatusUnchanged
	}
	return out
}

// 🚩 residualFlags returns the flag patterns still present in doc outside any
// replacement text written by a fired rule. A flag equal to an applied label
// is treated as resolved.
func residualFlags(doc *document.Document, flags []rules.Flag, fired []rules.Substitution, labels []string) []string {
	var out []string
	for _, f := range flags {
		if coveredByLabel(f.Pattern, labels) {
			continue
		}
		found := false
		doc.Walk(func(_ document.Location, p *document.Paragraph) {
			if found {
				return
			}
			found = residual(p.Text(), f.Pattern, fired)
		})
		if found {
			out = append(out, f.Pattern)
		}
	}
	return out
}

func residual(text, pattern string, fired []rules.Substitution) bool {
	occurrences := rules.Spans(text, pattern)
	if len(occurrences) == 0 {
		return false
	}

	var covers [][2]int
	for _, sub := range fired {
		if sub.Replacement == "" {
			continue
		}
		covers = append(covers, rules.Spans(text, sub.Replacement)...)
	}

	for _, o := range occurrences {
		if !rules.Covered(covers, o[0], o[1]) {
			return true
		}
	}
	return false
}

func coveredByLabel(pattern string, labels []string) bool {
	for _, l := range labels {
		if strings.EqualFold(l, pattern) {
			return true
		}
	}
	return false
}
