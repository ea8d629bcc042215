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

/*
Package config loads and validates the migration configuration for docmigrate.

	            +-------------+
	            |   Config    |
	            | (rules and  |
	            |   policy)   |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+-----+ +----+----+ +-----+-----+
	|   YAML    | |   HCL   | |   JSON    |
	|  Parser   | | Parser  | |  Parser   |
	+-----------+ +---------+ +-----------+

🎯 Purpose:
- Describes one policy change: substitution rules, flag terms, the versioning
  policy and the fixed report summary
- Locates the corpus and the generators that produce fresh documents

🔄 Flow:
1. Reads the configuration file
2. Picks a parser by extension (CanParse)
3. Validates and fills defaults (Validate)
4. Hands out domain values: RuleSet, Policy, ReportSummary, Regenerators

📝 Paths:
Relative paths (target, generated.source, generator script and dir) are
resolved against the directory holding the configuration file. A leading
"~/" expands to the user's home directory.

🔍 Example:

	cfg, err := config.Load(ctx, ".docmigrate.yaml")
	if err != nil {
		return err
	}

	set, err := cfg.RuleSet()
	if err != nil {
		return err
	}
*/
package config
