package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paw-chain/pricefeed/x/pricefeed/types"
)

// FeedIDCmd normalises a feed id to its canonical 0x-prefixed lowercase form.
func FeedIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feed-id [hex]",
		Short: "Validate and normalise a 32-byte feed id",
		Example: `pricefeed feed-id EF0D8B6FDA2CEBA41DA15D4095D1DA392A0D2F8ED0C6C7BC0F4CFAC8C280B56D
pricefeed feed-id 0xef0d8b6fda2ceba41da15d4095d1da392a0d2f8ed0c6c7bc0f4cfac8c280b56d`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := types.ParseFeedID(args[0])
			if err != nil {
				return reportFailure(cmd, err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), feed.String())
			return err
		},
	}
}

// reportedError marks an error whose kind and suggestion already reached
// stderr.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// reportFailure prints the error kind and its recovery suggestion to stderr
// and returns err so the process exits non-zero.
func reportFailure(cmd *cobra.Command, err error) error {
	kind := "Unknown"
	if k, ok := types.KindOf(err); ok {
		kind = k.String()
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "rejected: %s\nsuggestion: %s\n", kind, types.GetRecoverySuggestion(err))
	return reportedError{err}
}
