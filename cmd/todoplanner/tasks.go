package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"todo-planner/internal/model"
	"todo-planner/internal/view"
)

func newAddCmd(a *app) *cobra.Command {
	var due, category string
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := parseDueFlag(due)
			if err != nil {
				return err
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			task, err := st.AddTask(cmd.Context(), strings.Join(args, " "), dueDate, category)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Task %d added: %s\n", len(st.Tasks()), task.Text)
			if task.Category != "" {
				fmt.Fprintf(out, "  Category: %s\n", task.Category)
			}
			if task.DueDate != nil {
				fmt.Fprintf(out, "  Due: %s\n", task.DueDate.Format(model.DateLayout))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVarP(&category, "category", "C", "", "Category label")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show tasks to do and completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			printSections(cmd.OutOrStdout(), view.Sections(st, category))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "C", "", "Only show tasks in this category")
	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <n>",
		Short: "Mark task n done or not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			task, err := st.ToggleTask(cmd.Context(), index)
			if err != nil {
				return err
			}
			state := "to do"
			if task.Completed {
				state = "done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Task %d is %s: %s\n", index+1, state, task.Text)
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	var due, category string
	cmd := &cobra.Command{
		Use:   "edit <n> [text]",
		Short: "Change the text, due date or category of task n",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			tasks := st.Tasks()
			if index >= len(tasks) {
				return fmt.Errorf("no task %d (have %d)", index+1, len(tasks))
			}
			current := tasks[index]

			text := current.Text
			if len(args) > 1 {
				text = strings.Join(args[1:], " ")
			}
			dueDate := current.DueDate
			if cmd.Flags().Changed("due") {
				if dueDate, err = parseDueFlag(due); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("category") {
				current.Category = category
			}

			task, err := st.EditTask(cmd.Context(), index, text, dueDate, current.Category)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Task %d updated: %s\n", index+1, task.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&due, "due", "d", "", "New due date; empty clears it")
	cmd.Flags().StringVarP(&category, "category", "C", "", "New category; empty clears it")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <n>",
		Short: "Delete task n",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			task, err := st.DeleteTask(cmd.Context(), index)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Task deleted: %s\n", task.Text)
			return nil
		},
	}
}

func printSections(w io.Writer, sections []view.Section) {
	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", section.Title, section.Len())
		if section.Len() == 0 {
			fmt.Fprintf(w, "  %s\n", section.Empty)
		}
		for row := range section.Rows() {
			fmt.Fprintln(w, formatRow(row))
		}
	}
}

func formatRow(row view.Row) string {
	box := "[ ]"
	if row.Completed {
		box = "[x]"
	}
	line := fmt.Sprintf("  %s %d. %s", box, row.Index+1, row.Text)
	if row.Category != "" {
		line += fmt.Sprintf(" (%s)", row.Category)
	}
	if due := row.DueLabel(); due != "" {
		line += " due " + due
		if row.PastDue {
			line += " PAST DUE"
		}
	}
	return line
}

// parsePosition converts a 1-based task number to an index.
func parsePosition(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid number %q: want 1, 2, 3…", raw)
	}
	return n - 1, nil
}

func parseDueFlag(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	due, err := model.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &due, nil
}
