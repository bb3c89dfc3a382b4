package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	// configErr holds a config file read failure so commands that need
	// the configuration can report it.
	configErr error

	rootCmd = &cobra.Command{
		Use:   "tidy [directory]",
		Short: "Organize a cluttered directory",
		Long: `Tidy organizes a directory such as Downloads: it removes exact duplicates,
resolves numbered copies like "report(1).pdf", and sorts files into
category folders by extension.

Examples:
  tidy                       # Organize the default directory
  tidy ~/Desktop             # Organize a specific directory
  tidy -d ~/Downloads        # Preview without changing anything
  tidy -r -y ~/Downloads     # Also clean nested duplicates, no prompt
  tidy -o json -y .          # Non-interactive JSON report
  tidy -y --template '{{.FilesMoved}} moved{{"\n"}}' .
  tidy watch ~/Downloads     # Organize whenever new files arrive
  tidy history               # View past runs`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: bootstrap,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}
)

func init() {
	// Assigned here rather than in the literal to avoid an initialization cycle
	// (runOrganize -> outputFormat -> rootCmd).
	rootCmd.RunE = runOrganize
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/tidy/config.yaml)")
	flags.BoolP("dry-run", "d", false, "preview changes without touching any file")
	flags.BoolP("subdirs", "r", false, "also remove duplicates found in nested folders")
	flags.BoolP("yes", "y", false, "do not ask for confirmation")
	flags.BoolP("no-interactive", "n", false, "disable the TUI, print a report instead")
	flags.StringP("output", "o", "pretty", "report format: pretty, plain, json, yaml, template")
	flags.String("template", "", "Go template for the report (implies -o template)")
	flags.Bool("trash", false, "move deleted duplicates to the system trash")
	flags.String("hash", "", "content digest: md5 or xxhash")
	flags.BoolP("quiet", "q", false, "minimal output")
	flags.BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("dry_run", flags.Lookup("dry-run"))
	_ = viper.BindPFlag("scan_subdirectories", flags.Lookup("subdirs"))
	_ = viper.BindPFlag("yes", flags.Lookup("yes"))
	_ = viper.BindPFlag("no_interactive", flags.Lookup("no-interactive"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("template", flags.Lookup("template"))
	_ = viper.BindPFlag("use_trash", flags.Lookup("trash"))
	_ = viper.BindPFlag("hash.algorithm", flags.Lookup("hash"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	configErr = config.Configure(viper.GetViper(), cfgFile)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig decodes the effective configuration: defaults, config file,
// TIDY_ environment variables and flags.
func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if viper.GetBool("yes") {
		cfg.Confirm = false
	}
	return cfg, nil
}

// configFilePath returns the file configuration changes are saved to.
func configFilePath() (string, error) {
	if cfgFile != "" {
		return config.ExpandPath(cfgFile)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used, nil
	}
	return config.ConfigPath()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...any) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...any) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
