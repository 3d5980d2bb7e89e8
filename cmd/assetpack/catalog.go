package main

import (
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/jchantrell/assetpack/internal/asset"
	"github.com/jchantrell/assetpack/internal/bundle"
	"github.com/jchantrell/assetpack/internal/catalog"
	"github.com/jchantrell/assetpack/internal/utils"
	"github.com/spf13/cobra"
)

var (
	queryKey     string
	queryPath    string
	queryBundles bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the SQLite catalog of bundle entries",
}

var catalogBuildCmd = &cobra.Command{
	Use:   "build BUNDLE...",
	Short: "Record the entries of bundles in the catalog",
	Long: `Build indexes every entry of each bundle under its path-derived asset key.
Re-indexing a bundle replaces its earlier records. Bundles indexed later
take precedence when a key is resolved.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		c, err := catalog.Open(cmd.Context(), catalog.DefaultOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer c.Close()

		var total int
		for _, name := range args {
			r, err := bundle.Open(name)
			if err != nil {
				return err
			}
			b, err := c.IndexBundle(cmd.Context(), r)
			r.Close()
			if err != nil {
				return err
			}
			total += b.Entries
			slog.Info("Indexed bundle", "path", b.Path, "version", b.Version, "entries", utils.Number(int64(b.Entries)))
		}

		slog.Info("Catalog updated",
			"database", c.Path(),
			"bundles", len(args),
			"entries", utils.Number(int64(total)),
			"duration", utils.Duration(time.Since(start)))
		return nil
	},
}

var catalogQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Look up catalog records by key or path",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := catalog.Open(ctx, catalog.DefaultOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer c.Close()

		out := cmd.OutOrStdout()

		if queryBundles {
			bundles, err := c.Bundles(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "Version\tEntries\tSize\tIndexed\tPath")
			for _, b := range bundles {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
					b.Version, b.Entries, utils.Bytes(b.Size), b.IndexedAt.Local().Format(time.DateTime), b.Path)
			}
			return w.Flush()
		}

		var records []catalog.Record
		switch {
		case queryKey != "":
			key, err := asset.ParseKey(queryKey)
			if err != nil {
				return err
			}
			records, err = c.FindKey(ctx, key)
			if err != nil {
				return err
			}
		case queryPath != "":
			records, err = c.FindPath(ctx, queryPath)
			if err != nil {
				return err
			}
		default:
			return errors.New("no query provided, use --key, --path or --bundles")
		}

		if len(records) == 0 {
			return fmt.Errorf("no catalog records: %w", catalog.ErrNotFound)
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "Key\tPath\tRaw\tCompressed\tBundle")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", rec.Key, rec.Path, rec.RawSize, rec.CompressedSize, rec.Bundle)
		}
		return w.Flush()
	},
}

func init() {
	catalogQueryCmd.Flags().StringVar(&queryKey, "key", "", "asset key (UUID form)")
	catalogQueryCmd.Flags().StringVar(&queryPath, "path", "", "virtual path")
	catalogQueryCmd.Flags().BoolVar(&queryBundles, "bundles", false, "list indexed bundles")
	catalogQueryCmd.MarkFlagsMutuallyExclusive("key", "path", "bundles")

	catalogCmd.AddCommand(catalogBuildCmd, catalogQueryCmd)
	rootCmd.AddCommand(catalogCmd)
}
