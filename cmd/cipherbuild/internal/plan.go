package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigexport/cipherbuild/internal/pipeline"
)

var planEngineOnly bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the stage plan without running it",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planEngineOnly, "engine-only", false, "Plan only the engine amalgamation stages")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p := pipeline.New(cfg, pipeline.Options{EngineOnly: planEngineOnly})
	fmt.Print(p.Plan())
	return nil
}
