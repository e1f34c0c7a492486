package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/tender-recommender/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import catalog items from a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolP("auto-approve", "y", false, "accept suggested column matches without asking")
}

func runImport(cmd *cobra.Command, path string) error {
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

	var chooser importer.Chooser = importer.NewPromptChooser(log)
	if autoApprove, _ := cmd.Flags().GetBool("auto-approve"); autoApprove || !isInteractive() {
		chooser = importer.AutoChooser{}
	}

	log.Info("importing spreadsheet", zap.String("path", path))

	summary, err := importer.New(store, chooser, log).ImportFile(ctx, path)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Read %d rows: %d saved, %d skipped.\n", summary.Read, summary.Saved, summary.Skipped)
	return nil
}
