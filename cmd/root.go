package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/logger"
	"github.com/chrisdamba/foodlens/internal/models"
)

var (
	cfgFile string
	cfg     *models.Config
	log     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "foodlens",
	Short: "Restaurant transaction analytics",
	Long: `foodlens turns raw food delivery transactions into analytics for restaurant operators:
order and revenue summaries, demand heatmaps, cuisine mix, competitive rankings and
area opportunity scores.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file in development
		if os.Getenv("FOODLENS_LOG_ENV") != "production" {
			_ = godotenv.Load()
		}

		var err error
		cfg, err = models.LoadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintln(os.Stderr, "Using config file:", used)
		}

		log, err = logger.New(cfg.Log.Env, cfg.Log.Level)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./foodlens.yaml or ./config/foodlens.yaml)")
	rootCmd.PersistentFlags().String("log-env", "production", "logger preset: production or development")
	rootCmd.PersistentFlags().String("log-level", "info", "minimum log level")
	rootCmd.PersistentFlags().String("timezone", "local", "zone used for weekday, hour and day buckets")

	bindFlag(rootCmd, "log.env", "log-env")
	bindFlag(rootCmd, "log.level", "log-level")
	bindFlag(rootCmd, "analytics.timezone", "timezone")
}

// bindFlag ties a config key to a persistent or local flag. The flag only
// wins over file and environment values when it is set explicitly.
func bindFlag(cmd *cobra.Command, key, name string) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.PersistentFlags().Lookup(name)
	}
	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
