package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"todo-planner/internal/view"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories", "cat"},
		Short:   "Manage categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			if err := st.AddCategory(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Category %d added: %s\n", len(st.Categories()), name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			categories := st.Categories()
			if len(categories) == 0 {
				fmt.Fprintln(out, "No categories.")
				return nil
			}
			for i, name := range categories {
				fmt.Fprintf(out, "%d. %s\n", i+1, name)
			}
			fmt.Fprintf(out, "Filter options: %s\n", strings.Join(view.CategoryOptions(st), ", "))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit <n> <name>",
		Short: "Rename category n (tasks keep the old label)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parsePosition(args[0])
			if err != nil {
				return err
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			name := strings.Join(args[1:], " ")
			if err := st.EditCategory(cmd.Context(), index, name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Category %d renamed: %s\n", index+1, name)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <n>",
		Short: "Delete category n (tasks keep their label)",
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
			name, err := st.DeleteCategory(cmd.Context(), index)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Category deleted: %s\n", name)
			return nil
		},
	})

	return cmd
}
