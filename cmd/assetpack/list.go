package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/jchantrell/assetpack/internal/bundle"
	"github.com/jchantrell/assetpack/internal/utils"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list BUNDLE",
	Short: "List the entries of a bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := bundle.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: version %s, %s entries, %s\n",
			r.Name(), r.Version(), utils.Number(int64(r.Len())), utils.Bytes(r.Size()))

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "Offset\tCompressed\tRaw\tRatio\t Path")
		var raw, packed int64
		for _, e := range r.Entries() {
			raw += int64(e.RawSize)
			packed += int64(e.CompressedSize)
			fmt.Fprintf(w, "%d\t%d\t%d\t%s\t %s\n",
				e.Offset, e.CompressedSize, e.RawSize,
				utils.Ratio(int64(e.CompressedSize), int64(e.RawSize)), e.Path)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(out, "total: %s raw, %s compressed (%s)\n",
			utils.Bytes(raw), utils.Bytes(packed), utils.Ratio(packed, raw))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
