package commands

import (
	"fmt"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/replenix/replenix/config"
	"github.com/replenix/replenix/errors"
)

// ConfigCmd groups configuration operations.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Replenix configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Print the merged configuration (system, user, project files and environment) as TOML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}

		out, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to render configuration")
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <section> <key> <value>",
	Short: "Update one setting in the user configuration file",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		section, key, raw := args[0], args[1], args[2]

		// Store numerics and booleans typed so TOML round-trips cleanly
		var value interface{} = raw
		if b, err := strconv.ParseBool(raw); err == nil {
			value = b
		} else if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			value = i
		} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
			value = f
		}

		if err := config.UpdateSetting(section, key, value); err != nil {
			return errors.Wrapf(err, "failed to update %s.%s", section, key)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.%s = %v in %s\n",
			section, key, value, config.UserConfigPath())
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configSetCmd)
}
