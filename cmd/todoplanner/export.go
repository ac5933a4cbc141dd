package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"todo-planner/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var format, category, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as " + strings.Join(export.Formats, ", "),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			data, err := export.New(st).Export(format, category)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d bytes to %s\n", len(data), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&category, "category", "C", "", "Only export tasks in this category")
	cmd.Flags().StringVar(&output, "output", "", "Write to file instead of stdout")
	return cmd
}
