package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wudi/ocrkit/backend"
	"github.com/wudi/ocrkit/detection"
	"github.com/wudi/ocrkit/recognition"
)

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List model zoo architectures and available backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Detection architectures:")
			for _, name := range detection.Architectures() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			fmt.Fprintln(out, "Recognition architectures:")
			for _, name := range recognition.Architectures() {
				fmt.Fprintf(out, "  %s\n", name)
			}

			registered := backend.Registered()
			if len(registered) == 0 {
				fmt.Fprintln(out, "Backends: none registered")
				return nil
			}
			fmt.Fprintf(out, "Backends registered: %s\n", strings.Join(registered, ", "))
			if rt, err := backend.Resolve(); err != nil {
				fmt.Fprintf(out, "Backend selection: %v\n", err)
			} else {
				fmt.Fprintf(out, "Backend selected: %s\n", rt.Name())
			}
			return nil
		},
	}
}
