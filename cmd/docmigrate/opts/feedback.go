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

package opts

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/docmigrate/pkg/operation"
	"github.com/walteh/docmigrate/pkg/rules"
)

// 📢 Feedback prints end-of-command summaries for the operator
type Feedback struct {
	log zerolog.Logger // for debug/error logging
	out io.Writer
}

// 🎯 NewFeedback creates a new feedback printer writing to out
func NewFeedback(ctx context.Context, out io.Writer) *Feedback {
	return &Feedback{
		log: *zerolog.Ctx(ctx),
		out: out,
	}
}

func (f *Feedback) printer(p pterm.PrefixPrinter, emoji string) *pterm.PrefixPrinter {
	return p.WithPrefix(pterm.Prefix{Text: emoji, Style: p.Prefix.Style}).WithWriter(f.out)
}

// 🔍 LogValidation logs validation results
func (f *Feedback) LogValidation(valid bool, description string, err error) {
	switch {
	case valid:
		f.printer(pterm.Success, "✅").Println(description)
		f.log.Info().Msg(description)
	case err != nil:
		f.printer(pterm.Error, "❌").Println(description)
		pterm.Error.WithWriter(f.out).Println(err)
		f.log.Error().Err(err).Msg(description)
	default:
		f.printer(pterm.Warning, "⚠️").Println(description)
		f.log.Warn().Msg(description)
	}
}

// 📊 LogRunSummary prints the totals of a run as a table
func (f *Feedback) LogRunSummary(res *operation.Result) error {
	data := pterm.TableData{
		{"migrated", "flagged", "unchanged", "failed", "fresh"},
		{
			fmt.Sprint(res.Totals.Migrated),
			fmt.Sprint(res.Totals.Flagged),
			fmt.Sprint(res.Totals.Unchanged),
			fmt.Sprint(res.Totals.Failed),
			fmt.Sprint(len(res.Generated)),
		},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).WithWriter(f.out).Render(); err != nil {
		return err
	}

	f.printer(pterm.Info, "📋").Printf("report: %s\n", filepath.Base(res.ReportPath))
	if n := len(res.Warnings); n > 0 {
		f.printer(pterm.Warning, "⚠️").Printf("%d warning(s), see the report\n", n)
	}
	f.log.Info().
		Str("run", res.RunID).
		Int("migrated", res.Totals.Migrated).
		Int("flagged", res.Totals.Flagged).
		Int("failed", res.Totals.Failed).
		Msg("run summary")
	return nil
}

// 📦 LogStatus prints the latest recorded run and its drift
func (f *Feedback) LogStatus(st *operation.StatusResult) {
	if st.Run == nil {
		f.printer(pterm.Info, "📦").Println("no run recorded")
		return
	}

	f.printer(pterm.Info, "📦").Printf("%d run(s) recorded, latest %s (%s, %s)\n",
		st.Runs, st.Run.ID, st.Run.StartedAt.Format("02/01/2006 15:04"), st.Run.Tag)
	if st.Consistent() {
		f.LogValidation(true, "every output of the latest run is untouched", nil)
		return
	}
	for _, d := range st.Drifts {
		what := "modified"
		if d.Missing {
			what = "missing"
		}
		f.printer(pterm.Warning, "⚠️").Printf("%s %s\n", what, d.Path)
	}
	f.log.Warn().Int("drifts", len(st.Drifts)).Msg("outputs changed since the latest run")
}

// 📚 LogRules prints the rule table in application order
func (f *Feedback) LogRules(set *rules.Set) error {
	data := pterm.TableData{{"#", "label", "pattern", "replacement"}}
	for i, s := range set.Substitutions() {
		data = append(data, []string{fmt.Sprint(i + 1), s.Label, s.Pattern, s.Replacement})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(f.out).Render(); err != nil {
		return err
	}

	for _, fl := range set.Flags() {
		f.printer(pterm.Info, "🚩").Printf("flag %q\n", fl.Pattern)
	}

	subs := set.Substitutions()
	for _, pair := range set.Shadowed() {
		f.printer(pterm.Warning, "⚠️").Printf("rule %d (%s) may rewrite text rule %d (%s) targets\n",
			pair[0]+1, subs[pair[0]].Label, pair[1]+1, subs[pair[1]].Label)
	}
	return nil
}
