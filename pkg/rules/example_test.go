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

package rules_test

import (
	"fmt"

	"github.com/walteh/docmigrate/pkg/rules"
)

func ExampleSubstitution_Apply() {
	rule := rules.Substitution{
		Pattern:     "paiement mensuel",
		Replacement: "paiement mensuel ou journalier",
		Label:       "Mode paiement",
	}

	once, n := rule.Apply("Paiement mensuel recommandé")
	twice, m := rule.Apply(once)

	fmt.Println(once, n)
	fmt.Println(twice, m)

	// Output:
	// paiement mensuel ou journalier recommandé 1
	// paiement mensuel ou journalier recommandé 0
}
