package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/slidestream/internal/outline"
)

func newOutlineCmd() *cobra.Command {
	var splitLevel int
	cmd := &cobra.Command{
		Use:   "outline [file|-]",
		Short: "Convert a Markdown outline into slide markup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), outline.New(splitLevel).Convert(src))
			return err
		},
	}
	cmd.Flags().IntVar(&splitLevel, "split-level", outline.DefaultSplitLevel, "Deepest heading level that starts a new slide")
	return cmd
}
