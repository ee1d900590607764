package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/syncmcp/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(configCheckCmd(), configInitCmd())
	return cmd
}

func configCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [path]",
		Short: "Validate configuration and list resolved instances",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			} else {
				path = resolveConfigPath()
			}

			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(cfg.Instances))
			for name := range cfg.Instances {
				names = append(names, name)
			}
			sort.Strings(names)

			fmt.Printf("Configuration OK (%d instance(s))\n", len(names))
			for _, name := range names {
				inst := cfg.Instances[name]
				keyState := "api key set"
				if inst.APIKey == "" {
					keyState = "NO API KEY"
				}
				fmt.Printf("  %s  %s  (%s)\n", name, inst.URL, keyState)
			}
			return nil
		},
	}
}

// configInitCmd walks through an interactive form and writes a starter
// config file.
func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively create a configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			var (
				name    = "default"
				url     = config.DefaultURL
				apiKey  string
				useHTTP bool
				bind    = "127.0.0.1:8765"
				token   string
			)

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Instance name").
						Value(&name).
						Validate(func(s string) error {
							if strings.TrimSpace(s) == "" {
								return fmt.Errorf("name must not be empty")
							}
							return nil
						}),
					huh.NewInput().
						Title("Syncthing URL").
						Value(&url),
					huh.NewInput().
						Title("API key (Settings > General > API Key)").
						Value(&apiKey).
						EchoMode(huh.EchoModePassword),
				),
				huh.NewGroup(
					huh.NewConfirm().
						Title("Enable the HTTP transport?").
						Description("Stdio works without it; HTTP adds bearer auth, health and metrics.").
						Value(&useHTTP),
				),
				huh.NewGroup(
					huh.NewInput().
						Title("HTTP bind address").
						Value(&bind),
					huh.NewInput().
						Title("Bearer token").
						Value(&token).
						EchoMode(huh.EchoModePassword),
				).WithHideFunc(func() bool { return !useHTTP }),
			)

			if err := form.Run(); err != nil {
				return err
			}

			out := map[string]any{
				"instances": map[string]any{
					name: map[string]string{"url": url, "api_key": apiKey},
				},
			}
			if useHTTP {
				out["http"] = map[string]string{
					"bind":         bind,
					"bearer_token": token,
				}
			}

			raw, err := yaml.Marshal(out)
			if err != nil {
				return err
			}

			path := configWritePath()
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("refusing to overwrite existing %s", path)
			}
			if err := os.WriteFile(path, raw, 0o600); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}

func configWritePath() string {
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		return filepath.Join(xdg, "syncmcp", "syncmcp.yaml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "syncmcp", "syncmcp.yaml")
	}
	return "syncmcp.yaml"
}
