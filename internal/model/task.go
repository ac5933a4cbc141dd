package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date form produced by date inputs.
const DateLayout = "2006-01-02"

// Task is a single to-do entry as persisted under the "todos" key.
type Task struct {
	ID        string     `json:"id,omitempty"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	DueDate   *time.Time `json:"dueDate"`
	Category  string     `json:"category"`
}

// Uncategorized reports whether the task carries no category label.
func (t Task) Uncategorized() bool {
	return strings.TrimSpace(t.Category) == ""
}

// UnmarshalJSON accepts dueDate as RFC 3339 or as a bare YYYY-MM-DD date.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var raw struct {
		plain
		DueDate *string `json:"dueDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Task(raw.plain)
	t.DueDate = nil
	if raw.DueDate == nil || *raw.DueDate == "" {
		return nil
	}
	due, err := ParseDate(*raw.DueDate)
	if err != nil {
		return err
	}
	t.DueDate = &due
	return nil
}

// ParseDate parses a due date. Bare dates are midnight UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if d, err := time.Parse(DateLayout, value); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q", value)
	}
	return d, nil
}
