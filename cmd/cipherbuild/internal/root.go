package internal

import (
	"os"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/sigexport/cipherbuild/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "cipherbuild",
	Short: "cipherbuild vendors an encrypted SQLCipher build into pysqlcipher3",
	Long: `cipherbuild fetches SQLCipher and pysqlcipher3, compiles the engine
with the encryption codec enabled, amalgamates it into the binding,
builds the extension module and vendors the artifacts into the
consuming project's source tree.`,
}

var cfgFile string
var workDir string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Pipeline config file (default cipherbuild.yaml if present)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "w", "", "Working directory for the pipeline")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}

// loadConfig resolves the pipeline config: an explicit --config file,
// else cipherbuild.yaml in the working directory when present, else
// the built-in defaults.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.Parse(cfgFile, nil)
		if err != nil {
			return nil, err
		}
		return applyWorkDir(cfg), nil
	}
	if _, err := os.Stat("cipherbuild.yaml"); err == nil {
		cfg, err := config.Parse("cipherbuild.yaml", nil)
		if err != nil {
			return nil, err
		}
		return applyWorkDir(cfg), nil
	}
	return applyWorkDir(config.Default()), nil
}

func applyWorkDir(cfg *config.Config) *config.Config {
	if workDir != "" {
		cfg.WorkDir = workDir
	}
	return cfg
}
