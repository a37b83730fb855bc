package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the AI models in the order they are tried",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(cfg.Advisor.Models) == 0 {
		fmt.Println("  No models configured, the AI advisor is disabled")
		return nil
	}
	for i, model := range cfg.Advisor.Models {
		fmt.Printf("  %d. %s\n", i+1, model)
	}
	fmt.Printf("\n  Attempt timeout: %s\n", cfg.Advisor.Timeout)
	if cfg.Advisor.ApiKey != "" {
		fmt.Println("  API key: configured")
	} else {
		fmt.Println("  API key: not configured (users must enter their own)")
	}
	return nil
}
