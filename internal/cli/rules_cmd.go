package cli

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/ppiankov/phrasegate/internal/rules"
)

// The rules subcommands drive the same store as the /ignore chat
// commands. They bypass the user_control gate: anyone who can run the
// CLI can edit the rule file directly anyway.

var rulesPath string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the blocked phrase and pattern lists",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List phrases and patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openStore()
		printNumbered("Phrases", store.Phrases())
		printNumbered("Regex patterns", store.Patterns())
		return nil
	},
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <phrase>",
	Short: "Add a blocked phrase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !openStore().AddPhrase(args[0]) {
			return fmt.Errorf("phrase %q not added (already present, empty, or save failed)", args[0])
		}
		fmt.Printf("added phrase: %s\n", args[0])
		return nil
	},
}

var rulesAddrCmd = &cobra.Command{
	Use:   "addr <pattern>",
	Short: "Add a regex pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := regexp.Compile(args[0]); err != nil {
			return fmt.Errorf("invalid regular expression: %w", err)
		}
		if !openStore().AddPattern(args[0]) {
			return fmt.Errorf("pattern %q not added (already present, empty, or save failed)", args[0])
		}
		fmt.Printf("added pattern: %s\n", args[0])
		return nil
	},
}

var rulesDelCmd = &cobra.Command{
	Use:   "del <phrase>",
	Short: "Remove a blocked phrase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !openStore().DeletePhrase(args[0]) {
			return fmt.Errorf("phrase %q not found", args[0])
		}
		fmt.Printf("removed phrase: %s\n", args[0])
		return nil
	},
}

var rulesDelrCmd = &cobra.Command{
	Use:   "delr <pattern>",
	Short: "Remove a regex pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !openStore().DeletePattern(args[0]) {
			return fmt.Errorf("pattern %q not found", args[0])
		}
		fmt.Printf("removed pattern: %s\n", args[0])
		return nil
	},
}

func init() {
	rulesCmd.PersistentFlags().StringVarP(&rulesPath, "rules", "r", "config.toml", "Path to the TOML rule file")
	rulesCmd.AddCommand(rulesListCmd, rulesAddCmd, rulesAddrCmd, rulesDelCmd, rulesDelrCmd)
	rootCmd.AddCommand(rulesCmd)
}

func openStore() *rules.Store {
	store := rules.New(slog.Default())
	store.Load(rulesPath)
	return store
}

func printNumbered(title string, items []string) {
	fmt.Println(title + ":")
	if len(items) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i, item := range items {
		fmt.Printf("  %d. %s\n", i+1, item)
	}
}
