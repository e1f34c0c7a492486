package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/tender-recommender/internal/catalog"
	"github.com/spigell/tender-recommender/internal/logger"
	"github.com/spigell/tender-recommender/internal/recommend"
	"github.com/spigell/tender-recommender/internal/report"
	"github.com/spigell/tender-recommender/internal/secrets"
)

const (
	app       = "tender-recommender"
	envPrefix = "TENDER"
)

type Config struct {
	Catalog   *catalog.Config  `mapstructure:"catalog"`
	Recommend *RecommendConfig `mapstructure:"recommend"`
	Report    *report.Config   `mapstructure:"report"`
}

type RecommendConfig struct {
	Margin           float64 `mapstructure:"margin"`
	recommend.Config `mapstructure:",squash"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "tender-recommender matches tender requirements against the item catalog and prices the matches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command. Cancelling ctx aborts catalog access.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is tender-recommender.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("store", "", "catalog backend: postgres, redis or file")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("catalog.backend", rootCmd.PersistentFlags().Lookup("store"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.backend", catalog.BackendFile)
	v.SetDefault("catalog.file.path", "data/catalog.json")
	v.SetDefault("catalog.postgres.dsn", "")
	v.SetDefault("catalog.postgres.dsn-file", "")
	v.SetDefault("catalog.postgres.ping-attempts", 3)
	v.SetDefault("catalog.postgres.ping-backoff", "1s")
	v.SetDefault("catalog.redis.addr", "localhost:6379")
	v.SetDefault("catalog.redis.password", "")
	v.SetDefault("catalog.redis.password-file", "")
	v.SetDefault("catalog.redis.db", 0)
	v.SetDefault("catalog.redis.prefix", "tender:")
	v.SetDefault("recommend.workers", 1)
	v.SetDefault("report.output", "data/Tender_Output.xlsx")
	v.SetDefault("report.currency-format", report.DefaultCurrencyFormat)
}

func initConfig() {
	// A missing .env is fine, a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless given explicitly. We can't proceed if it is parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil || config.Catalog == nil {
		return nil, errors.New("catalog configuration is required")
	}
	if config.Recommend == nil {
		config.Recommend = &RecommendConfig{}
	}
	if config.Report == nil {
		config.Report = &report.Config{}
	}

	return config, nil
}

func newLogger() (*zap.Logger, error) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}
	return log, nil
}

// resolveCatalogSecrets fills connection secrets of the selected backend from files or the environment.
func resolveCatalogSecrets(cfg *catalog.Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case catalog.BackendPostgres:
		if cfg.Postgres == nil {
			cfg.Postgres = &catalog.PostgresConfig{}
		}
		dsn, err := secrets.Load(secrets.Source{
			Name:  "postgres dsn",
			File:  cfg.Postgres.DSNFile,
			Value: cfg.Postgres.DSN,
			Env:   "DATABASE_URL",
		})
		if err != nil {
			return fmt.Errorf("%w (set catalog.postgres.dsn-file, TENDER_CATALOG_POSTGRES_DSN or DATABASE_URL)", err)
		}
		cfg.Postgres.DSN = dsn
	case catalog.BackendRedis:
		if cfg.Redis == nil {
			cfg.Redis = &catalog.RedisConfig{}
		}
		password, err := secrets.LoadOptional(secrets.Source{
			Name:  "redis password",
			File:  cfg.Redis.PasswordFile,
			Value: cfg.Redis.Password,
			Env:   "REDIS_PASSWORD",
		})
		if err != nil {
			return err
		}
		cfg.Redis.Password = password
	}

	return nil
}

func openCatalog(ctx context.Context, cfg *catalog.Config, log *zap.Logger) (catalog.ReadWriter, error) {
	if err := resolveCatalogSecrets(cfg); err != nil {
		return nil, err
	}

	store, err := catalog.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("opening %s catalog: %w", cfg.Backend, err)
	}
	return store, nil
}

// isInteractive reports whether stdin is a terminal. Redirects such as </dev/null are not.
var isInteractive = func() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
