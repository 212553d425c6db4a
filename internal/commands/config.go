package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oktotech/okto-go/internal/auth"
	"github.com/oktotech/okto-go/internal/config"
	"github.com/oktotech/okto-go/internal/output"
)

// configKeys are the keys accepted in config.yaml, by value kind.
var configKeys = map[string]string{
	"environment":      "environment",
	"base_url":         "string",
	"api_key":          "string",
	"http_timeout":     "duration",
	"store":            "store",
	"redis_url":        "string",
	"state_dir":        "string",
	"job_interval":     "duration",
	"job_max_attempts": "int",
	"resilience":       "bool",
	"format":           "format",
	"stats":            "bool",
	"verbose":          "int",
}

// NewConfigCmd creates the config command group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `View and edit the global configuration file.

Precedence: flags > OKTO_* environment variables > config file > defaults.`,
		RunE: runConfigShow,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show effective configuration",
			Long:  "Display the current effective configuration with source information.",
			RunE:  runConfigShow,
		},
		newConfigSetCmd(),
		newConfigUnsetCmd(),
	)

	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	app, err := appFrom(cmd)
	if err != nil {
		return err
	}
	cfg := app.Config

	apiKey := cfg.APIKey
	if apiKey != "" {
		apiKey = (&auth.Credential{AuthToken: apiKey}).Redacted().AuthToken
	}

	keys := []struct {
		key     string
		value   string
		include bool
	}{
		{"environment", cfg.Environment.String(), true},
		{"base_url", cfg.ResolvedBaseURL(), true},
		{"api_key", apiKey, cfg.APIKey != ""},
		{"http_timeout", cfg.HTTPTimeout.String(), true},
		{"store", cfg.Store, true},
		{"redis_url", cfg.RedisURL, cfg.RedisURL != ""},
		{"state_dir", cfg.StateDir, true},
		{"job_interval", cfg.JobInterval.String(), true},
		{"job_max_attempts", strconv.Itoa(cfg.JobMaxAttempts), true},
		{"resilience", strconv.FormatBool(cfg.Resilience), true},
		{"format", cfg.Format, cfg.Format != ""},
		{"stats", fmt.Sprintf("%t", cfg.Stats != nil && *cfg.Stats), cfg.Stats != nil},
		{"verbose", fmt.Sprintf("%d", derefInt(cfg.Verbose)), cfg.Verbose != nil},
	}

	configData := make(map[string]any)
	for _, k := range keys {
		if !k.include {
			continue
		}
		source := cfg.Sources[k.key]
		if source == "" {
			source = string(config.SourceDefault)
		}
		configData[k.key] = map[string]string{
			"value":  k.value,
			"source": source,
		}
	}

	return app.OK(configData,
		output.WithSummary("Effective configuration ("+config.GlobalConfigPath()+")"),
		output.WithBreadcrumbs(output.Breadcrumb{
			Action:      "set",
			Cmd:         "okto config set <key> <value>",
			Description: "Set config value",
		}),
	)
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Set a config value",
		Example: "  okto config set environment production\n  okto config set job_interval 2s",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			key, raw := args[0], args[1]
			value, err := parseConfigValue(key, raw)
			if err != nil {
				return err
			}

			path := config.GlobalConfigPath()
			values, err := readConfigFile(path)
			if err != nil {
				return err
			}
			values[key] = value
			if err := writeConfigFile(path, values); err != nil {
				return err
			}

			return app.OK(map[string]any{
				"key":   key,
				"value": value,
				"path":  path,
			}, output.WithSummary(fmt.Sprintf("Set %s", key)))
		},
	}
}

func newConfigUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a config value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			key := args[0]
			if _, ok := configKeys[key]; !ok {
				return unknownConfigKey(key)
			}

			path := config.GlobalConfigPath()
			values, err := readConfigFile(path)
			if err != nil {
				return err
			}
			if _, ok := values[key]; !ok {
				return app.OK(map[string]any{
					"key":     key,
					"removed": false,
				}, output.WithSummary(fmt.Sprintf("%s was not set", key)))
			}
			delete(values, key)
			if err := writeConfigFile(path, values); err != nil {
				return err
			}

			return app.OK(map[string]any{
				"key":     key,
				"removed": true,
				"path":    path,
			}, output.WithSummary(fmt.Sprintf("Unset %s", key)))
		},
	}
}

// parseConfigValue converts a command-line value to the type stored in config.yaml.
func parseConfigValue(key, raw string) (any, error) {
	kind, ok := configKeys[key]
	if !ok {
		return nil, unknownConfigKey(key)
	}

	switch kind {
	case "environment":
		env, err := config.ParseEnvironment(raw)
		if err != nil {
			return nil, output.ErrUsage(err.Error())
		}
		return string(env), nil
	case "store":
		probe := config.Default()
		probe.Store = raw
		probe.RedisURL = "redis://placeholder"
		if err := probe.Validate(); err != nil {
			return nil, output.ErrUsage(err.Error())
		}
		return raw, nil
	case "format":
		if raw != "auto" && output.ParseFormat(raw) == output.FormatAuto {
			return nil, output.ErrUsage("format must be auto, json, styled, quiet or count")
		}
		return raw, nil
	case "duration":
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, output.ErrUsageHint(fmt.Sprintf("Invalid duration %q for %s", raw, key), "Use a Go duration such as 30s or 2m")
		}
		return raw, nil
	case "int":
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, output.ErrUsage(fmt.Sprintf("%s must be a non-negative integer", key))
		}
		if key == "verbose" && n > 2 {
			return nil, output.ErrUsage("verbose must be 0, 1 or 2")
		}
		return n, nil
	case "bool":
		b, ok := parseBoolFlag(raw)
		if !ok {
			return nil, output.ErrUsage(fmt.Sprintf("%s must be true or false", key))
		}
		return b, nil
	default:
		return raw, nil
	}
}

func unknownConfigKey(key string) error {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return output.ErrUsageHint(fmt.Sprintf("Unknown config key %q", key), fmt.Sprintf("Valid keys: %v", keys))
}

func readConfigFile(path string) (map[string]any, error) {
	values := make(map[string]any)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the global config location
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if values == nil {
		values = make(map[string]any)
	}
	return values, nil
}

func writeConfigFile(path string, values map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(values)
	if err != nil {
		return err
	}
	return atomicWriteFile(path, data)
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func parseBoolFlag(value string) (bool, bool) {
	switch value {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// atomicWriteFile writes data to a file atomically using temp+rename.
// Files are always created with 0600 permissions (owner read/write only).
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	// Windows: rename fails when the destination exists.
	if err := os.Rename(tmpPath, path); err != nil && runtime.GOOS == "windows" {
		_ = os.Remove(path)
		return os.Rename(tmpPath, path)
	} else { //nolint:revive // else-with-return kept for clarity of the two-branch pattern
		return err
	}
}
