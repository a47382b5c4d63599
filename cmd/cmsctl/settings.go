package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/hospitalcms/backend/internal/settings"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and update the site header settings",
	}
	cmd.AddCommand(newSettingsPullCmd(a))
	cmd.AddCommand(newSettingsPushCmd(a))
	return cmd
}

func newSettingsPullCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Print the header settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			current, err := client.GetHeaderSettings(ctx)
			if err != nil {
				return err
			}
			values := make(map[string]string, len(current))
			for _, s := range current {
				values[s.SettingKey] = s.SettingValue
			}
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(values)
		},
	}
}

func newSettingsPushCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Submit the header settings that differ from the current values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := readSettings(file)
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			current, err := client.GetHeaderSettings(ctx)
			if err != nil {
				return err
			}

			sess := settings.NewSession(current)
			keys := make([]string, 0, len(values))
			for key := range values {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				if err := sess.SetByKey(key, values[key]); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			update := sess.Changes()
			if len(update.Settings) == 0 {
				fmt.Fprintln(out, "No changes, nothing submitted.")
				return nil
			}
			writeLines(out, "~", sess.Labels())

			result, err := client.UpdateHeaderSettings(ctx, update)
			if err != nil {
				return err
			}
			if !result.Success {
				if result.Message != "" {
					return errors.New(result.Message)
				}
				return errors.New("failed to update header settings")
			}
			fmt.Fprintln(out, "Header settings saved.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML map of setting key to value")
	cmd.MarkFlagRequired("file")
	return cmd
}

func readSettings(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return values, nil
}
