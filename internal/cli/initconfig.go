package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/phrasegate/internal/rules"
)

var initConfigPath string

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a commented default rule file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(initConfigPath); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", initConfigPath)
		}
		if err := os.WriteFile(initConfigPath, []byte(rules.DefaultConfig), 0600); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("wrote %s\n", initConfigPath)
		return nil
	},
}

func init() {
	initConfigCmd.Flags().StringVarP(&initConfigPath, "rules", "r", "config.toml", "Path to write")
	rootCmd.AddCommand(initConfigCmd)
}
