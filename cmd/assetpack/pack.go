package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jchantrell/assetpack/internal/bundle"
	"github.com/jchantrell/assetpack/internal/pack"
	"github.com/jchantrell/assetpack/internal/utils"
	"github.com/spf13/cobra"
)

var (
	packOutput  string
	packLevel   string
	packWorkers int
	packPrefix  string
	packExclude []string
)

var packCmd = &cobra.Command{
	Use:   "pack -o OUT DIR...",
	Short: "Pack loose files into a bundle",
	Long: `Pack walks each directory and writes every regular file into a single
bundle. Paths inside the bundle are relative to the directory they came
from; when directories overlap, the later one wins.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()

		if cmd.Flags().Changed("level") {
			cfg.Compression = packLevel
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = packWorkers
		}
		level, err := cfg.CompressionLevel()
		if err != nil {
			return err
		}
		if cfg.Workers < 0 {
			return fmt.Errorf("workers cannot be negative")
		}

		items, err := pack.Collect(cmd.Context(), pack.Options{
			Exclude: packExclude,
			Prefix:  packPrefix,
		}, args...)
		if err != nil {
			return fmt.Errorf("collecting files: %w", err)
		}
		if len(items) == 0 {
			slog.Warn("No files found, writing an empty bundle", "roots", args)
		}

		var rawTotal int64
		for _, it := range items {
			rawTotal += int64(len(it.Data))
		}

		slog.Info("Packing", "files", utils.Number(int64(len(items))), "size", utils.Bytes(rawTotal), "level", level.String(), "output", packOutput)

		progress := utils.NewProgress(len(items), !noProgress)
		err = bundle.Write(packOutput, items,
			bundle.WithLevel(level),
			bundle.WithConcurrency(cfg.Workers),
			bundle.WithProgress(progress.Callback()),
		)
		progress.Finish()
		if err != nil {
			return fmt.Errorf("writing bundle: %w", err)
		}

		info, err := os.Stat(packOutput)
		if err != nil {
			return fmt.Errorf("checking output: %w", err)
		}

		elapsed := time.Since(start)
		slog.Info("Packed bundle",
			"output", packOutput,
			"files", utils.Number(int64(len(items))),
			"size", utils.Bytes(info.Size()),
			"ratio", utils.Ratio(info.Size(), rawTotal),
			"duration", utils.Duration(elapsed),
			"files_per_sec", utils.Rate(float64(len(items))/elapsed.Seconds()))
		return nil
	},
}

func init() {
	packCmd.Flags().StringVarP(&packOutput, "output", "o", "", "bundle file to write")
	packCmd.Flags().StringVar(&packLevel, "level", "", "compression level (fast, 1-9)")
	packCmd.Flags().IntVar(&packWorkers, "workers", 0, "parallel compressors (0 uses all CPUs)")
	packCmd.Flags().StringVar(&packPrefix, "prefix", "", "virtual directory to place every file under")
	packCmd.Flags().StringArrayVar(&packExclude, "exclude", nil, "glob of files or directories to skip (repeatable)")
	_ = packCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(packCmd)
}
