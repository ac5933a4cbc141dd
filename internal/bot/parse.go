package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"todo-planner/internal/model"
	"todo-planner/internal/service"
)

var (
	errQuickAddText = errors.New("quick add: task text is missing")
	errQuickAddDate = errors.New("quick add: unreadable due date")
)

// parseQuickAdd reads "/add" arguments. A "#word" token sets the category
// and an "@YYYY-MM-DD" token sets the due date; the rest is the task text.
func parseQuickAdd(args string) (service.TaskInput, error) {
	var (
		input service.TaskInput
		words []string
	)
	for _, field := range strings.Fields(args) {
		switch {
		case len(field) > 1 && strings.HasPrefix(field, "#"):
			input.Category = strings.TrimPrefix(field, "#")
		case len(field) > 1 && strings.HasPrefix(field, "@"):
			due, err := model.ParseDate(strings.TrimPrefix(field, "@"))
			if err != nil {
				return input, fmt.Errorf("%w %q", errQuickAddDate, strings.TrimPrefix(field, "@"))
			}
			input.DueDate = &due
		default:
			words = append(words, field)
		}
	}
	input.Text = strings.Join(words, " ")
	if input.Text == "" {
		return input, errQuickAddText
	}
	return input, nil
}

// parsePosition converts a 1-based number typed by the user to an index.
func parsePosition(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("position %d must be positive", n)
	}
	return n - 1, nil
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancel"
}
