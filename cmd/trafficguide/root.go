package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/citypulse/trafficguide/config"
)

var rootCmd = &cobra.Command{
	Use:   "trafficguide",
	Short: "Congestion advisory service for Hyderabad routes",
	Long: `trafficguide estimates route congestion from a rules document and
recommends departure times. Run "serve" for the HTTP API, "analyze" for a
one-shot route check, or "demo" for a guided tour of the scoring rules.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("rules", "", "path to the rules document (overrides GUIDE_RULES_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: json or text (overrides LOG_FORMAT)")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.AutomaticEnv()
}

// loadConfig loads environment configuration and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if v := viper.GetString("rules"); v != "" {
		cfg.Guide.RulesPath = v
	}
	if v := viper.GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := viper.GetString("log-format"); v != "" {
		cfg.Logging.Format = v
	}

	return cfg, cfg.Validate()
}
