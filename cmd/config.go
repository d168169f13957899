package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xvierd/tally/internal/config"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/logging"
)

// configKeys maps settable keys to setters on a config copy.
var configKeys = map[string]func(cfg *config.Config, value string) error{
	"storage.data_dir": func(cfg *config.Config, v string) error { cfg.Storage.DataDir = v; return nil },
	"reports.timezone": func(cfg *config.Config, v string) error { cfg.Reports.Timezone = v; return nil },
	"reports.idle_mode": func(cfg *config.Config, v string) error {
		cfg.Reports.IdleMode = strings.ToLower(v)
		return nil
	},
	"reports.work_start":        func(cfg *config.Config, v string) error { cfg.Reports.WorkStart = v; return nil },
	"reports.work_end":          func(cfg *config.Config, v string) error { cfg.Reports.WorkEnd = v; return nil },
	"reports.idle_grace_min":    intSetter("idle_grace_min", func(cfg *config.Config, n int) { cfg.Reports.IdleGraceMin = n }),
	"reports.default_page_size": intSetter("default_page_size", func(cfg *config.Config, n int) { cfg.Reports.DefaultPageSize = n }),
	"notifications.enabled":     boolSetter("enabled", func(cfg *config.Config, b bool) { cfg.Notifications.Enabled = b }),
	"notifications.sound":       boolSetter("sound", func(cfg *config.Config, b bool) { cfg.Notifications.Sound = b }),
	"mcp.enabled":               boolSetter("enabled", func(cfg *config.Config, b bool) { cfg.MCP.Enabled = b }),
	"logging.level": func(cfg *config.Config, v string) error {
		cfg.Logging.Level = strings.ToLower(v)
		return nil
	},
	"logging.format": func(cfg *config.Config, v string) error {
		cfg.Logging.Format = strings.ToLower(v)
		return nil
	},
	"logging.file": boolSetter("file", func(cfg *config.Config, b bool) { cfg.Logging.File = b }),
}

func intSetter(field string, set func(*config.Config, int)) func(*config.Config, string) error {
	return func(cfg *config.Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.Invalid(field, "must be an integer, got %q", v)
		}
		set(cfg, n)
		return nil
	}
}

func boolSetter(field string, set func(*config.Config, bool)) func(*config.Config, string) error {
	return func(cfg *config.Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return domain.Invalid(field, "must be true or false, got %q", v)
		}
		set(cfg, b)
		return nil
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the configuration",
	Long:  `Show the effective configuration. Use "config set" to change a value and "config path" to locate the file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg := app.config
		if jsonOutput {
			return printJSON(out, cfg)
		}

		mode := cfg.Reports.IdleMode
		if mode == string(domain.IdleModeFixed) {
			mode = fmt.Sprintf("%s (%s - %s)", mode, cfg.Reports.WorkStart, cfg.Reports.WorkEnd)
		}
		zone := cfg.Reports.Timezone
		if zone == "" {
			zone = "local"
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %s\n\n", titleStyle.Render("Configuration"))
		fmt.Fprintf(out, "  File:           %s\n", dimStyle.Render(app.configPath))
		fmt.Fprintf(out, "  Data dir:       %s\n", cfg.Storage.DataDir)
		fmt.Fprintf(out, "  Timezone:       %s\n", zone)
		fmt.Fprintf(out, "  Idle mode:      %s\n", mode)
		fmt.Fprintf(out, "  Idle grace:     %d min\n", cfg.Reports.IdleGraceMin)
		fmt.Fprintf(out, "  Page size:      %d\n", cfg.Reports.DefaultPageSize)
		notif := "off"
		if cfg.Notifications.Enabled {
			notif = "on"
			if cfg.Notifications.Sound {
				notif = "on (with sound)"
			}
		}
		fmt.Fprintf(out, "  Notifications:  %s\n", notif)
		fmt.Fprintf(out, "  MCP server:     %v\n", cfg.MCP.Enabled)
		fmt.Fprintf(out, "  Logging:        %s, %s, file %v\n", cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
		fmt.Fprintln(out)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), app.configPath)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a configuration value",
	Long: `Change one configuration value and save the file. Keys use the file's
section.name form, for example reports.idle_mode or notifications.sound.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		set, ok := configKeys[key]
		if !ok {
			return domain.Invalid("key", "unknown config key %q", args[0])
		}

		updated := *app.config
		if err := set(&updated, args[1]); err != nil {
			return err
		}
		if err := updated.Reports.Validate(); err != nil {
			return err
		}
		if _, err := logging.New(updated.Logging, io.Discard); err != nil {
			return domain.Invalid("logging", "%v", err)
		}
		if err := config.SaveTo(app.configPath, &updated); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		*app.config = updated

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
