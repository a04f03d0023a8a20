package internal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/sigexport/cipherbuild/internal/pipeline"
)

var (
	buildVerbose    bool
	buildDryRun     bool
	buildEngineOnly bool
	buildTimeout    time.Duration
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the vendoring pipeline",
	Long: `Build runs every stage in order: fetch both trees, compile the
engine amalgamation with the encryption codec, publish it into the
binding's staging slots, build the extension module and collect the
artifacts. Any stage failure aborts the run with a non-zero exit.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "Enable verbose build output")
	buildCmd.Flags().BoolVar(&buildDryRun, "dry-run", false, "Print the stage plan instead of running it")
	buildCmd.Flags().BoolVar(&buildEngineOnly, "engine-only", false, "Stop after the engine amalgamation is built and verified")
	buildCmd.Flags().DurationVar(&buildTimeout, "timeout", 30*time.Minute, "Hard wall-clock limit for the whole run")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := pipeline.Options{EngineOnly: buildEngineOnly}
	if buildVerbose {
		log.SetOutputLevel(log.Ldebug)
	} else {
		// Compiler diagnostics must surface verbatim, so only the
		// chatty stdout of the subprocesses is silenced.
		opts.Stdout = io.Discard
	}

	p := pipeline.New(cfg, opts)

	if buildDryRun {
		fmt.Print(p.Plan())
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()

	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	log.Info("pipeline complete")
	return nil
}
