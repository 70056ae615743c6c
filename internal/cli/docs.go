package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pairing-gallery/internal/docs"
)

func newDocsCmd(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:       "docs [topic]",
		Short:     "Show built-in documentation",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: docs.Topics(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, envelope(map[string]any{"topics": docs.Topics()}, nil, "gallery docs keys --raw"))
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return fmt.Errorf("unknown docs topic: %q (run `gallery docs` to list topics)", topic)
			}
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			return writeOut(cmd, app, envelope(map[string]any{"topic": topic, "markdown": body}, nil))
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no envelope)")
	return cmd
}
