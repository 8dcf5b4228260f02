package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"

	"github.com/ppiankov/phrasegate/internal/config"
	"github.com/ppiankov/phrasegate/internal/intercept"
)

var checkRulesPath string

var checkCmd = &cobra.Command{
	Use:   "check <text>...",
	Short: "Run a text through the filter and print the decision",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkRulesPath, "rules", "r", "config.toml", "Path to the TOML rule file")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := newLogger("warn", false)
	handler := intercept.NewHandler(config.Snapshotter(checkRulesPath), logger, metrics.NewSet())

	text := strings.Join(args, " ")
	res := handler.Check(intercept.Message{Text: text})
	if res.Continue {
		fmt.Println("pass")
		return nil
	}

	fmt.Printf("blocked: %s\n", res.Reason)
	os.Exit(1)
	return nil
}
