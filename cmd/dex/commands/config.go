package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/dex/internal/constants"
	"github.com/fivetwenty-io/dex/pkg/dex"
)

// Config represents the CLI configuration file.
type Config struct {
	API         string          `json:"api,omitempty"         yaml:"api,omitempty"`
	Timeout     string          `json:"timeout,omitempty"     yaml:"timeout,omitempty"`
	RetryMax    int             `json:"retry_max,omitempty"   yaml:"retry_max,omitempty"`
	PageSize    int             `json:"page_size,omitempty"   yaml:"page_size,omitempty"`
	Concurrency int             `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	Output      string          `json:"output,omitempty"      yaml:"output,omitempty"`
	Verbose     bool            `json:"verbose,omitempty"     yaml:"verbose,omitempty"`
	Storage     StorageSettings `json:"storage,omitempty"     yaml:"storage,omitempty"`
}

// StorageSettings selects the favorites backend.
type StorageSettings struct {
	Type    string `json:"type,omitempty"     yaml:"type,omitempty"`
	Path    string `json:"path,omitempty"     yaml:"path,omitempty"`
	NATSURL string `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`
	Bucket  string `json:"bucket,omitempty"   yaml:"bucket,omitempty"`
}

// configKeys lists the keys accepted by config set and unset.
var configKeys = []string{
	"api", "timeout", "retry_max", "page_size", "concurrency", "output", "verbose",
	"storage.type", "storage.path", "storage.nats_url", "storage.bucket",
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in $HOME/.dex/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective configuration after flags, environment and config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			out := cmd.OutOrStdout()

			handled, err := renderStructured(out, outputFormat(), config)
			if handled {
				return err
			}

			return displayConfigTable(out, config)
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + strings.Join(configKeys, ", "),
		Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadFileConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfig(configFilePath(), config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value so the default applies. Keys: " + strings.Join(configKeys, ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadFileConfig()

			err := unsetConfigValue(config, args[0])
			if err != nil {
				return err
			}

			err = saveConfig(configFilePath(), config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

// loadConfig returns the effective configuration.
func loadConfig() *Config {
	return &Config{
		API:         viper.GetString("api"),
		Timeout:     viper.GetDuration("timeout").String(),
		RetryMax:    viper.GetInt("retry_max"),
		PageSize:    viper.GetInt("page_size"),
		Concurrency: viper.GetInt("concurrency"),
		Output:      viper.GetString("output"),
		Verbose:     viper.GetBool("verbose"),
		Storage: StorageSettings{
			Type:    viper.GetString("storage.type"),
			Path:    viper.GetString("storage.path"),
			NATSURL: viper.GetString("storage.nats_url"),
			Bucket:  viper.GetString("storage.bucket"),
		},
	}
}

// loadFileConfig reads only the config file, so flags and environment never
// leak into the saved file.
func loadFileConfig() *Config {
	config := &Config{}

	data, err := os.ReadFile(configFilePath())
	if err != nil {
		return config
	}

	_ = yaml.Unmarshal(data, config)

	return config
}

// configFilePath returns the file in use or $HOME/.dex/config.yml.
func configFilePath() string {
	if file := viper.ConfigFileUsed(); file != "" {
		return file
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(constants.DefaultStorageDir, "config.yml")
	}

	return filepath.Join(home, constants.DefaultStorageDir, "config.yml")
}

func saveConfig(path string, config *Config) error {
	err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setConfigValue validates value and stores it under key.
//
//nolint:cyclop // one case per key
func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "api":
		config.API = value
	case "timeout":
		_, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s", constants.ErrInvalidDuration, value)
		}

		config.Timeout = value
	case "retry_max":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: retry_max must be a non-negative integer", constants.ErrInvalidConfigValue)
		}

		config.RetryMax = n
	case "page_size":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s", constants.ErrInvalidPageSize, value)
		}

		config.PageSize = n
	case "concurrency":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: concurrency must be positive", constants.ErrInvalidConfigValue)
		}

		config.Concurrency = n
	case "output":
		err := validateOutputFormat(value)
		if err != nil {
			return err
		}

		config.Output = value
	case "verbose":
		config.Verbose = value == constants.BooleanTrue || value == "1"
	case "storage.type":
		_, err := parseStorageType(value)
		if err != nil {
			return err
		}

		config.Storage.Type = value
	case "storage.path":
		config.Storage.Path = value
	case "storage.nats_url":
		config.Storage.NATSURL = value
	case "storage.bucket":
		config.Storage.Bucket = value
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func unsetConfigValue(config *Config, key string) error {
	switch key {
	case "api":
		config.API = ""
	case "timeout":
		config.Timeout = ""
	case "retry_max":
		config.RetryMax = 0
	case "page_size":
		config.PageSize = 0
	case "concurrency":
		config.Concurrency = 0
	case "output":
		config.Output = ""
	case "verbose":
		config.Verbose = false
	case "storage.type":
		config.Storage.Type = ""
	case "storage.path":
		config.Storage.Path = ""
	case "storage.nats_url":
		config.Storage.NATSURL = ""
	case "storage.bucket":
		config.Storage.Bucket = ""
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func parseStorageType(value string) (dex.StorageType, error) {
	storageType := dex.StorageType(value)

	switch storageType {
	case dex.StorageTypeFile, dex.StorageTypeMemory, dex.StorageTypeNATS, dex.StorageTypeSQLite, dex.StorageTypeNone:
		return storageType, nil
	default:
		return "", fmt.Errorf("%w: %s", dex.ErrUnsupportedStorageType, value)
	}
}

func displayConfigTable(w io.Writer, config *Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	_ = table.Append("API", valueOrDefault(config.API, constants.DefaultAPIEndpoint))
	_ = table.Append("Timeout", config.Timeout)
	_ = table.Append("Retry Max", strconv.Itoa(config.RetryMax))
	_ = table.Append("Page Size", strconv.Itoa(config.PageSize))
	_ = table.Append("Concurrency", strconv.Itoa(config.Concurrency))
	_ = table.Append("Output", valueOrDefault(config.Output, constants.FormatTable))
	_ = table.Append("Verbose", strconv.FormatBool(config.Verbose))
	_ = table.Append("Storage Type", valueOrDefault(config.Storage.Type, string(dex.StorageTypeFile)))
	_ = table.Append("Storage Path", valueOrDefault(config.Storage.Path, dex.DefaultStoragePath()))

	if config.Storage.NATSURL != "" {
		_ = table.Append("NATS URL", config.Storage.NATSURL)
		_ = table.Append("NATS Bucket", valueOrDefault(config.Storage.Bucket, constants.DefaultNATSBucket))
	}

	return renderTable(table)
}

func valueOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
