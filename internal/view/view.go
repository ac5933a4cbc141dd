// Package view derives renderable sections from a store's state.
package view

import (
	"iter"
	"strings"
	"time"

	"todo-planner/internal/model"
	"todo-planner/internal/store"
)

// AllCategories is the selector option that disables category filtering.
const AllCategories = "All"

// Row is one renderable task line.
type Row struct {
	ID        string
	Index     int
	Text      string
	Completed bool
	Category  string
	DueDate   *time.Time
	PastDue   bool
}

// DueLabel formats the due date as YYYY-MM-DD, or "" when unset.
func (r Row) DueLabel() string {
	if r.DueDate == nil {
		return ""
	}
	return r.DueDate.Format(model.DateLayout)
}

// Section is a titled group of rows.
type Section struct {
	Title string
	Empty string
	rows  []store.Row
	now   time.Time
}

// Rows yields the section's rows. The sequence can be ranged over repeatedly.
func (s Section) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for _, r := range s.rows {
			if !yield(newRow(r, s.now)) {
				return
			}
		}
	}
}

// Len returns the number of rows in the section.
func (s Section) Len() int { return len(s.rows) }

// Source is the read side of a store.
type Source interface {
	FilterTasks(pred store.Predicate) []store.Row
	Categories() []string
	Now() time.Time
}

// Sections returns the pending and completed sections, narrowed to category
// unless it is empty or AllCategories.
func Sections(src Source, category string) []Section {
	category = strings.TrimSpace(category)
	if strings.EqualFold(category, AllCategories) {
		category = ""
	}
	now := src.Now()
	return []Section{
		{
			Title: "Tasks to do",
			Empty: "Nothing to do.",
			rows:  src.FilterTasks(store.All(store.Pending, store.InCategory(category))),
			now:   now,
		},
		{
			Title: "Completed",
			Empty: "Nothing completed yet.",
			rows:  src.FilterTasks(store.All(store.Completed, store.InCategory(category))),
			now:   now,
		},
	}
}

// CategoryOptions returns the selector choices: AllCategories followed by
// each distinct category in collection order.
func CategoryOptions(src Source) []string {
	options := []string{AllCategories}
	seen := make(map[string]bool)
	for _, c := range src.Categories() {
		if seen[c] {
			continue
		}
		seen[c] = true
		options = append(options, c)
	}
	return options
}

func newRow(r store.Row, now time.Time) Row {
	return Row{
		ID:        r.Task.ID,
		Index:     r.Index,
		Text:      r.Task.Text,
		Completed: r.Task.Completed,
		Category:  r.Task.Category,
		DueDate:   r.Task.DueDate,
		PastDue:   !r.Task.Completed && store.IsPastDueAt(r.Task.DueDate, now),
	}
}
