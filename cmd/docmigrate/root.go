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

package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/docmigrate/cmd/docmigrate/commands"
	"github.com/walteh/docmigrate/cmd/docmigrate/opts"
	"github.com/walteh/docmigrate/pkg/config"
	"github.com/walteh/docmigrate/pkg/log"
)

// newRootCmd wires every command around shared options. Human output goes
// to out, structured logs to errOut.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	o := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:   "docmigrate",
		Short: "Propagate a policy change across a corpus of Word documents",
		Long: `docmigrate rewrites previously issued .docx documents after a policy change,
keeping their formatting, flagging residual old-policy wording, writing dated
copies and an audit report.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd, o.Debug, out, errOut)
			if cmd.Name() == "help" {
				return nil
			}

			o.Feedback = opts.NewFeedback(ctx, out)
			if err := o.Load(ctx); err != nil {
				o.Feedback.LogValidation(false, "invalid configuration", err)
				return err
			}
			zerolog.Ctx(ctx).Debug().Str("config", o.Config.String()).Msg("configuration ready")
			return nil
		},
	}

	addRootFlags(cmd, o)

	cmd.AddCommand(
		commands.NewRunCmd(o),
		commands.NewStatusCmd(o),
		commands.NewRevertCmd(o),
		commands.NewRulesCmd(o),
	)

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", config.DefaultFileName, "config file path")
	cmd.PersistentFlags().StringVarP(&o.Target, "target", "t", "", "corpus root, overrides the config")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags and puts both loggers in the
// command context
func setupLogging(cmd *cobra.Command, debug bool, out, errOut io.Writer) context.Context {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: errOut}).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &zlog

	ctx := zlog.WithContext(cmd.Context())
	ctx = log.NewContext(ctx, log.New(out, zlog))
	cmd.SetContext(ctx)
	return ctx
}
