package store

import (
	"strings"
	"time"

	"todo-planner/internal/model"
)

// Predicate selects tasks for a derived view.
type Predicate func(model.Task) bool

// Row is a task together with its position in the full collection.
type Row struct {
	Index int
	Task  model.Task
}

// Pending matches tasks that are not completed.
func Pending(t model.Task) bool { return !t.Completed }

// Completed matches completed tasks.
func Completed(t model.Task) bool { return t.Completed }

// InCategory matches tasks whose category equals name. An empty name matches all.
func InCategory(name string) Predicate {
	name = strings.TrimSpace(name)
	return func(t model.Task) bool {
		return name == "" || strings.TrimSpace(t.Category) == name
	}
}

// All matches tasks accepted by every predicate.
func All(preds ...Predicate) Predicate {
	return func(t model.Task) bool {
		for _, p := range preds {
			if p != nil && !p(t) {
				return false
			}
		}
		return true
	}
}

// FilterTasks returns the tasks accepted by pred in collection order.
// The result is not persisted.
func (s *Store) FilterTasks(pred Predicate) []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterRows(s.tasks, pred)
}

func filterRows(tasks []model.Task, pred Predicate) []Row {
	var rows []Row
	for i, task := range tasks {
		if pred == nil || pred(task) {
			task.DueDate = copyTime(task.DueDate)
			rows = append(rows, Row{Index: i, Task: task})
		}
	}
	return rows
}

// IsPastDue reports whether dueDate is set and strictly before now.
func IsPastDue(dueDate *time.Time) bool {
	return IsPastDueAt(dueDate, time.Now())
}

// IsPastDueAt reports whether dueDate is set and strictly before now.
func IsPastDueAt(dueDate *time.Time, now time.Time) bool {
	return dueDate != nil && dueDate.Before(now)
}
