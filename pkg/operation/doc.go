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
Package operation runs a migration over a corpus of documents.

	+-------------+     +-------------+     +-------------+
	| Regenerate  | --> |  Discover   | --> |   Migrate   |
	| (best effort|     | (corpus     |     | (families on|
	|  warnings)  |     |  walk)      |     |  a pool)    |
	+-------------+     +-------------+     +------+------+
	                                               |
	                          +-------------+      |
	                          |   Report    | <----+
	                          |  + Ledger   |
	                          +-------------+

🎯 Purpose:
- Ensures the corpus root exists; failing that is the only fatal error
- Runs the generators and publishes the fresh documents into the root
- Migrates every discovered document, isolating per-document failures
- Writes the audit report and appends the run to the ledger

🔄 Families:
A source and its migrated copy decide the same output path. They form a
family and are migrated sequentially inside one task so two workers never
write the same file. Families run on an errgroup bounded by Options.Workers.
Outcomes keep discovery order whatever the execution order.

🔍 Example:

	res, err := operation.Run(ctx, operation.Options{
		Root:    cfg.Target,
		Set:     set,
		Policy:  cfg.Policy(),
		Workers: cfg.Workers,
		Summary: cfg.ReportSummary(),
	})
	if err != nil {
		var envErr *operation.EnvironmentError
		if errors.As(err, &envErr) {
			// nothing ran
		}
		return err
	}
	fmt.Println(res.ReportPath)
*/
package operation
