//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2026 EcomData
//
// This file is part of ProductETL.
//
// ProductETL is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ProductETL is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ProductETL. If not, see https://www.gnu.org/licenses/.

// Package validate implements the integrity gate of the ProductETL pipeline.
//
// Validation is a pass/fail battery over the cleaned tables, evaluated in a
// fixed order with the first violation aborting the run. It never repairs or
// mutates data; the caller treats a returned *ValidationError as fatal and
// non-retryable.
package validate

import (
	"fmt"
	"strings"

	"github.com/ecomdata/productetl/core"
)

// Validation rules.
const (
	RuleNotNull = "null"
	RuleUnique  = "duplicated"
)

// ValidationError identifies the table, column, and rule of the first
// violated invariant.
type ValidationError struct {
	Table  string
	Column string
	Rule   string
}

// Error returns the failure message, e.g. "CORE: duplicated itemid".
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", strings.ToUpper(e.Table), e.Rule, e.Column)
}

// Validate asserts the run invariants over the cleaned tables, in order:
// staging.itemid not null, core.itemid not null, core.itemid unique,
// core.name not null, gold.itemid not null. The first failing check is
// returned; nil means every invariant holds.
func Validate(set *core.TableSet) error {
	if set == nil || set.Staging == nil || set.Core == nil || set.Gold == nil {
		return fmt.Errorf("validate requires staging, core, and gold tables")
	}

	if err := checkNotNull(set.Staging, "itemid"); err != nil {
		return err
	}
	if err := checkNotNull(set.Core, "itemid"); err != nil {
		return err
	}
	if err := checkUnique(set.Core, "itemid"); err != nil {
		return err
	}
	if err := checkNotNull(set.Core, "name"); err != nil {
		return err
	}
	return checkNotNull(set.Gold, "itemid")
}

// checkNotNull fails when any row holds a null (or absent) value in the column.
func checkNotNull(table *core.Table, column string) error {
	for _, row := range table.Rows {
		if value, ok := row[column]; !ok || value == nil {
			return &ValidationError{Table: table.Name, Column: column, Rule: RuleNotNull}
		}
	}
	return nil
}

// checkUnique fails when two rows share a value in the column.
func checkUnique(table *core.Table, column string) error {
	seen := make(map[string]bool, len(table.Rows))
	for _, row := range table.Rows {
		key := fmt.Sprintf("%v", row[column])
		if seen[key] {
			return &ValidationError{Table: table.Name, Column: column, Rule: RuleUnique}
		}
		seen[key] = true
	}
	return nil
}
