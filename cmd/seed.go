package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/tender-recommender/internal/catalog"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the catalog schema and load the sample items",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSeed(cmd)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command) error {
	ctx := cmd.Context()

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	store, err := openCatalog(ctx, config.Catalog, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	items := catalog.SampleItems()
	if err := store.Save(ctx, items); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Catalog initialized with %d sample items (%s backend).\n", items.Len(), config.Catalog.Backend)
	return nil
}
