package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func (a *app) exampleCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "example",
		Short: "Write an example plan file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outputPath == "" {
				return a.parser.WriteExample(cmd.OutOrStdout())
			}
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outputPath, err)
			}
			if err := a.parser.WriteExample(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", outputPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Example plan written to %s\n", outputPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the plan to a file instead of stdout")
	return cmd
}
