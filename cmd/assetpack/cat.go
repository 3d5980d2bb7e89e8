package main

import (
	"fmt"

	"github.com/jchantrell/assetpack/internal/asset"
	"github.com/jchantrell/assetpack/internal/catalog"
	"github.com/spf13/cobra"
)

var catByKey bool

var catCmd = &cobra.Command{
	Use:   "cat PATH",
	Short: "Print a file from the mounted sources",
	Long: `Cat resolves PATH through the mounted bundles and loose directories and
writes its bytes to stdout. With --key, the argument is an asset key that is
resolved to a path through the catalog first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fsys, err := openVFS(cfg.Mounts)
		if err != nil {
			return err
		}
		defer fsys.Close()

		name := args[0]
		if catByKey {
			key, err := asset.ParseKey(name)
			if err != nil {
				return err
			}
			c, err := catalog.Open(cmd.Context(), catalog.DefaultOptions(cfg.Database))
			if err != nil {
				return fmt.Errorf("opening catalog: %w", err)
			}
			defer c.Close()

			m := asset.NewManager(fsys, asset.WithResolver(c))
			h, err := asset.LoadKey[asset.Blob](cmd.Context(), m, key)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(h.Get().Data)
			return err
		}

		data, err := fsys.Read(name)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	catCmd.Flags().BoolVar(&catByKey, "key", false, "treat the argument as an asset key")
	rootCmd.AddCommand(catCmd)
}
