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
	"path/filepath"

	"github.com/walteh/docmigrate/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	ConfigFile string // --config
	Target     string // --target, overrides the config's target
	Debug      bool   // --debug

	Config   *config.Config
	Feedback *Feedback
}

// 📂 Load reads the config file and applies the target override
func (o *RootOpts) Load(ctx context.Context) error {
	cfg, err := config.Load(ctx, o.ConfigFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	if o.Target != "" {
		abs, err := filepath.Abs(o.Target)
		if err != nil {
			return errors.Errorf("resolving target: %w", err)
		}
		cfg.Target = abs
	}

	o.Config = cfg
	return nil
}
