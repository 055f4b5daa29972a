package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAssetsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "List or delete stored images",
	}

	var prefix string
	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assets, err := opts.client().Assets().List(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), assets)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tTYPE\tSIZE\tUPDATED")
			for _, a := range assets {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", a.Path, a.Type, a.Size, a.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&prefix, "prefix", "", "key prefix, defaults to uploads")
	list.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	del := &cobra.Command{
		Use:   "delete <path>...",
		Short: "Delete stored assets by key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assets := opts.client().Assets()
			for _, key := range args {
				if err := assets.Delete(cmd.Context(), key); err != nil {
					return fmt.Errorf("delete %s: %w", key, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", key)
			}
			return nil
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}
