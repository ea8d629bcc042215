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

package migrate

import (
	"fmt"
)

// 📊 Status is the result of migrating one document
type Status int

const (
	StatusUnchanged Status = iota // No rule fired and nothing to flag
	StatusMigrated                // At least one rule fired
	StatusFlagged                 // No rule fired but residual patterns remain
	StatusFailed                  // Loading or saving failed
)

// String returns a string representation of Status
func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusMigrated:
		return "migrated"
	case StatusFlagged:
		return "flagged"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// 📝 Change records one rewritten run
type Change struct {
	Location string // Where in the document, e.g. "table 1 row 2 cell 1 paragraph 1"
	Label    string // Label of the rule that rewrote it
	Before   string
	After    string
}

// 📄 Outcome is everything one run did, or did not do, to one document
type Outcome struct {
	Path            string   // Absolute source path
	Filename        string   // Base name of Path
	Status          Status   // Final status
	AppliedLabels   []string // Labels of fired rules, first firing order, no duplicates
	FlaggedPatterns []string // Residual flag patterns, rule order, no duplicates
	OutputPath      string   // Where the migrated document was written, empty unless migrated
	InPlace         bool     // Whether OutputPath is Path
	Err             error    // Load or save error, only when failed
	Changes         []Change // Every rewritten run, in document order
}

// ❌ failed turns an outcome into a Failed one, dropping partial results
func failed(path, filename string, err error) Outcome {
	return Outcome{
		Path:     path,
		Filename: filename,
		Status:   StatusFailed,
		Err:      err,
	}
}

// 🧾 LoadError wraps a failure to read or decode a document
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("loading %s: %v", e.Path, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// 🧾 SaveError wraps a failure to write a migrated document
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string { return fmt.Sprintf("saving %s: %v", e.Path, e.Err) }
func (e *SaveError) Unwrap() error { return e.Err }
