// Package cmd implements the spendwise CLI commands.
package cmd

import (
	"os"

	"github.com/klokku/spendwise/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:               "spendwise",
	Short:             "Student expense dashboard with an AI savings advisor",
	Long:              "Track daily expenses against a budget goal and ask Gemini for saving tips.",
	PersistentPreRunE: setupLogging,
	RunE:              runServe,
	SilenceUsage:      true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "./config/application.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (trace, debug, info, warn, error); defaults to $LOG_LEVEL or info")
}

func setupLogging(_ *cobra.Command, _ []string) error {
	level := flagLogLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		log.SetLevel(log.InfoLevel)
		return nil
	}
	logrusLevel, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(logrusLevel)
	return nil
}

func loadConfig() (config.Application, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		log.Errorf("failed to load configuration: %v", err)
		return config.Application{}, err
	}
	return cfg, nil
}
