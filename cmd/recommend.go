package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/tender-recommender/internal/recommend"
	"github.com/spigell/tender-recommender/internal/report"
)

var errMarginRequired = errors.New("profit margin is required (use --margin or recommend.margin)")

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend catalog items for tender requirements and generate the tender spreadsheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runRecommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringP("requirements", "r", "", "tender requirements text; prompted for when empty")
	recommendCmd.Flags().Float64P("margin", "m", 0, "profit margin percent; prompted for when unset")
	recommendCmd.Flags().StringP("output", "o", "", "path of the tender spreadsheet (default data/Tender_Output.xlsx)")
	recommendCmd.Flags().Int("workers", 1, "number of workers for keyword matching")
	recommendCmd.Flags().Bool("dump", false, "also dump recommendations as json to a temp file")
	recommendCmd.Flags().Bool("no-report", false, "do not write the tender spreadsheet")

	viper.BindPFlag("recommend.margin", recommendCmd.Flags().Lookup("margin"))
	viper.BindPFlag("recommend.workers", recommendCmd.Flags().Lookup("workers"))
	viper.BindPFlag("report.output", recommendCmd.Flags().Lookup("output"))
}

func runRecommend(cmd *cobra.Command) error {
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

	log.Info("starting the tender-recommender", zap.String("version", version))

	requirements, err := requirementsInput(cmd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(requirements) == "" {
		return fmt.Errorf("%w: pass --requirements or type them at the prompt", recommend.ErrEmptyRequirements)
	}

	margin, err := marginInput(config.Recommend)
	if err != nil {
		return err
	}

	store, err := openCatalog(ctx, config.Catalog, log)
	if err != nil {
		return fmt.Errorf("%w: %w", recommend.ErrCatalogUnavailable, err)
	}
	defer store.Close()

	engine := recommend.New(store, config.Recommend.Config, log)

	records, err := engine.Recommend(ctx, requirements, margin)
	switch {
	case errors.Is(err, recommend.ErrEmptyRequirements):
		return fmt.Errorf("%w: pass --requirements or type them at the prompt", err)
	case errors.Is(err, recommend.ErrCatalogUnavailable):
		return fmt.Errorf("%w (backend %q)", err, config.Catalog.Backend)
	case err != nil:
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Found %d matching items.\n", len(records))
	if len(records) > 0 {
		if err := report.RenderTable(out, records); err != nil {
			return err
		}
	}

	if dump, _ := cmd.Flags().GetBool("dump"); dump && len(records) > 0 {
		filename, err := report.DumpToTmpFile(records)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		log.Info("dumping result to file", zap.String("filename", filename))
	}

	if noReport, _ := cmd.Flags().GetBool("no-report"); noReport {
		return nil
	}

	output := config.Report.Output
	if err := report.NewWriter(*config.Report, log).WriteTender(records, output); err != nil {
		if errors.Is(err, report.ErrNothingToReport) {
			log.Info("exiting", zap.String("reason", "no matching items, tender not generated"))
			return nil
		}
		return err
	}

	fmt.Fprintf(out, "Tender generated: %s\n", output)
	return nil
}

func requirementsInput(cmd *cobra.Command) (string, error) {
	requirements, _ := cmd.Flags().GetString("requirements")
	if strings.TrimSpace(requirements) != "" || !isInteractive() {
		return requirements, nil
	}

	prompt := promptui.Prompt{
		Label: "Enter tender requirements",
	}
	return prompt.Run()
}

func marginInput(cfg *RecommendConfig) (float64, error) {
	if viper.IsSet("recommend.margin") {
		return cfg.Margin, nil
	}
	if !isInteractive() {
		return 0, errMarginRequired
	}

	prompt := promptui.Prompt{
		Label:    "Enter profit margin (%)",
		Validate: validateMargin,
	}

	answer, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return parseMargin(answer)
}

func parseMargin(s string) (float64, error) {
	margin, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid margin %q: %w", s, err)
	}
	return margin, nil
}

func validateMargin(s string) error {
	_, err := parseMargin(s)
	return err
}
