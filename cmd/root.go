package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	exportcmd "github.com/sonarsync/sonarsync/cmd/export"
	synccmd "github.com/sonarsync/sonarsync/cmd/sync"
	"github.com/sonarsync/sonarsync/cmd/version"
	"github.com/sonarsync/sonarsync/pkg/shared/config"
	scanerrors "github.com/sonarsync/sonarsync/pkg/shared/errors"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "sonarsync [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Sonarsync replicates manual finding history between SonarQube instances.",
		Long: `Sonarsync searches findings (issues and security hotspots) exhaustively across
	SonarQube Server/Cloud instances and replays their manual history (false positives,
	accepted issues, severity changes, comments) onto matching findings elsewhere.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	// Accept underscore spellings of every flag (--source_url == --source-url).
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(synccmd.SyncCmd)
	rootCmd.AddCommand(exportcmd.ExportCmd)
}

// Execute runs the root command and maps command errors to exit codes.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		var cmdErr *scanerrors.CommandError
		if errors.As(err, &cmdErr) {
			return cmdErr.ExitCode
		}
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Printf("failed to initialize config file: %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	synccmd.AppConfig = AppConfig
	exportcmd.AppConfig = AppConfig
}
