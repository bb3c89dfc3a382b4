package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage tidy configuration settings.

Configuration is loaded from:
  1. --config FILE (if given)
  2. $XDG_CONFIG_HOME/tidy/config.yaml (if set)
  3. ~/.config/tidy/config.yaml

Environment variables can override config file settings using the TIDY_ prefix:
  TIDY_DRY_RUN=true
  TIDY_SCAN_SUBDIRECTORIES=true
  TIDY_HASH_ALGORITHM=xxhash`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after merging defaults, the config file, environment and flags.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.
The file is validated after the editor exits.`,
	Args: cobra.NoArgs,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration file",
	Long:  `Load and validate the configuration, reporting the first problem found.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

// envOverrides lists the TIDY_ variables that are set, in a stable order.
var envOverrides = []string{
	"TIDY_DEFAULT_DIRECTORY",
	"TIDY_DRY_RUN",
	"TIDY_CONFIRM",
	"TIDY_SCAN_SUBDIRECTORIES",
	"TIDY_USE_TRASH",
	"TIDY_HASH_ALGORITHM",
	"TIDY_LOGGING_LEVEL",
	"TIDY_LOGGING_PATH",
	"TIDY_JOURNAL_ENABLED",
	"TIDY_JOURNAL_PATH",
	"TIDY_MANIFEST_ENABLED",
	"TIDY_MANIFEST_PATH",
	"TIDY_MANIFEST_RETENTION_DAYS",
}

// runConfigShow displays the current configuration.
func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		if _, statErr := os.Stat(configFile); statErr == nil {
			fmt.Printf("Config file: %s\n\n", configFile)
		} else {
			fmt.Printf("Config file: %s (not found, using defaults)\n\n", configFile)
		}
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Print(string(out))

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	anyOverrides := false
	for _, name := range envOverrides {
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}
	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}
	if _, err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := editorCommand()
	printVerbose("Opening %s with %s", path, editor)

	fields := strings.Fields(editor)
	editorCmd := exec.Command(fields[0], append(fields[1:], path)...)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	if _, err := config.LoadFile(path); err != nil {
		printError("The edited configuration is invalid: %v", err)
		printInfo("Previous versions are kept as %s", config.BackupPath(path, 1))
	}
	return nil
}

// editorCommand returns $VISUAL, $EDITOR or vi.
func editorCommand() string {
	for _, name := range []string{"VISUAL", "EDITOR"} {
		if editor := strings.TrimSpace(os.Getenv(name)); editor != "" {
			return editor
		}
	}
	return "vi"
}

// runConfigInit creates a default config file.
func runConfigInit(_ *cobra.Command, _ []string) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}

	written, err := config.WriteDefault(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if !written {
		printInfo("Config file already exists: %s", path)
		printInfo("Use 'tidy config edit' to modify it.")
		return nil
	}

	printInfo("Created default config file: %s", path)
	return nil
}

// runConfigPath prints the config file path.
func runConfigPath(_ *cobra.Command, _ []string) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// runConfigValidate loads the configuration and reports problems.
func runConfigValidate(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			return err
		}
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	printInfo("Configuration is valid: %d categories, hash %s.", len(cfg.Categories), cfg.Algorithm())
	return nil
}
