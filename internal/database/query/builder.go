// Soundalike - Content-Based Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soundalike

// Package query builds parameterized WHERE clauses for catalog queries.
package query

import (
	"strings"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
//
//	wb := query.NewWhereBuilder()
//	wb.AddContains("t.track_title", "blue")
//	wb.AddContains("a.artist_name", "")      // skipped
//	wb.AddInt64s("t.track_id", []int64{1, 2})
//	where, args := wb.BuildWithPrefix()
//	// WHERE contains(lower(t.track_title), ?) AND t.track_id IN (?, ?)
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw condition with its arguments.
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddContains adds a case-insensitive substring match on column.
// An empty (or whitespace-only) needle adds nothing.
//
// contains() is used instead of LIKE so user input never needs wildcard escaping.
func (wb *WhereBuilder) AddContains(column, needle string) *WhereBuilder {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return wb
	}
	return wb.AddClause("contains(lower("+column+"), ?)", strings.ToLower(needle))
}

// AddInt64s adds "column IN (...)". An empty slice adds nothing.
func (wb *WhereBuilder) AddInt64s(column string, values []int64) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	placeholders := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return wb.AddClause(column+" IN ("+strings.Join(placeholders, ", ")+")", args...)
}

// Build returns the joined clause (or "1=1" when empty) and its arguments.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the clause prefixed with "WHERE ".
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty reports whether no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}
