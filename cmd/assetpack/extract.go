package main

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/jchantrell/assetpack/internal/bundle"
	"github.com/jchantrell/assetpack/internal/export"
	"github.com/jchantrell/assetpack/internal/utils"
	"github.com/spf13/cobra"
)

var (
	extractOutput    string
	extractFlatten   bool
	extractOverwrite bool
)

var extractCmd = &cobra.Command{
	Use:   "extract -o DIR [PATH...]",
	Short: "Write files from the mounted sources to a directory",
	Long: `Extract copies virtual paths out of the mounted sources. Each path is
resolved the same way the engine resolves it, so files shadowed by later
mounts are written in their overriding version. Without arguments every
entry of every mounted bundle is extracted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		fsys, err := openVFS(cfg.Mounts)
		if err != nil {
			return err
		}
		defer fsys.Close()

		files := args
		if len(files) == 0 {
			if files, err = bundlePaths(cfg.Mounts); err != nil {
				return err
			}
		}
		if len(files) == 0 {
			slog.Info("Nothing to extract")
			return nil
		}

		var opts []export.Option
		if extractFlatten {
			opts = append(opts, export.WithFlatten())
		}
		if extractOverwrite {
			opts = append(opts, export.WithOverwrite())
		}

		slog.Info("Extracting", "files", utils.Number(int64(len(files))), "output", extractOutput)

		progress := utils.NewProgress(len(files), !noProgress)
		err = export.NewExporter(fsys, extractOutput, opts...).ExportFiles(files, progress.Callback())
		progress.Finish()
		if err != nil {
			return fmt.Errorf("exporting files: %w", err)
		}

		slog.Info("Extraction complete", "files", utils.Number(int64(len(files))), "duration", utils.Duration(time.Since(start)))
		return nil
	},
}

// bundlePaths returns the sorted union of entry paths across the bundles
// among mounts.
func bundlePaths(mounts []string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, p := range mounts {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		r, err := bundle.Open(p)
		if err != nil {
			return nil, err
		}
		for _, e := range r.Entries() {
			seen[e.Path] = struct{}{}
		}
		r.Close()
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths, nil
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "directory to write into")
	extractCmd.Flags().BoolVar(&extractFlatten, "flatten", false, "write all files into one directory, replacing / with @")
	extractCmd.Flags().BoolVar(&extractOverwrite, "overwrite", false, "replace existing files")
	_ = extractCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(extractCmd)
}
