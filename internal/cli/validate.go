package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	corpusrepo "github.com/kailas-cloud/faqdex/internal/repository/corpus"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <corpus.json>",
		Short: "Check a corpus with the service's load-time validation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := corpusrepo.Load(args[0])
			if err != nil {
				return fmt.Errorf("invalid corpus: %w", err)
			}

			out := cmd.OutOrStdout()
			topics := c.Topics()
			fmt.Fprintf(out, "Records:   %d\n", c.Len())
			fmt.Fprintf(out, "Dimension: %d\n", c.Dimension())
			fmt.Fprintf(out, "Topics:    %d (%s)\n", len(topics), strings.Join(topics, ", "))
			return nil
		},
	}
}
