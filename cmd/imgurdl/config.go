package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"imgurdl/pkg/config"
	apperrors "imgurdl/pkg/errors"
	"imgurdl/pkg/ui"
)

const exampleConfig = `# imgurdl configuration file
#
# Every value can also be set through the environment, for example
# IMGURDL_CLIENT_ID, IMGURDL_CLIENT_SECRET or IMGURDL_DIRECTORY.

# Imgur application credentials (required)
# Register an application at https://api.imgur.com/oauth2/addclient
# or store them with 'imgurdl auth login' and leave these empty.
imgur_client_id: ""
imgur_client_secret: ""

api:
  base_url: "https://api.imgur.com/3"
  user_agent: "imgurdl/1.0"

download:
  # Target directory. Existing files with the extension below are deleted
  # at the start of every run.
  directory: "images"

  # Album URLs for --mode list, one per line
  list_file: "links.txt"
  list_prefix: "https://imgur.com/a/"

  extension: ".jpg"

logging:
  # debug, info, warn, error
  level: "info"

  # Also append logs to this file
  file: ""

  no_color: false

# Contact sheet rendered with --grid
grid:
  output: "grid.jpg"
  columns: 4
  thumb_size: 256
  quality: 90
`

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage imgurdl configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IMGURDL_*)
  - Configuration file (config.yaml)
  - Default values (lowest priority)`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "init",
			Short: "Create an example configuration file",
			Long: `Create an example configuration file with all available options.

The file is created as 'config.yaml' in the current directory unless a
different path is given with --config.`,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigInit(a)
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show current configuration",
			Long: `Show the configuration after merging every source. Credentials are
masked.`,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigShow(a)
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Validate configuration file",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigValidate(a)
			},
		},
	)
	return cmd
}

func configPath(a *app) string {
	if a.configFile != "" {
		return a.configFile
	}
	return config.DefaultPath
}

func runConfigInit(a *app) error {
	path := configPath(a)
	if _, err := os.Stat(path); err == nil {
		return apperrors.New(apperrors.ErrorTypeConfig, 0, "configuration file already exists: "+path)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeFilesystem, err, "failed to create configuration file")
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(a.out, "\nNext steps:")
	fmt.Fprintln(a.out, "1. Add your Imgur client id and secret, or run 'imgurdl auth login'")
	fmt.Fprintln(a.out, "2. Run 'imgurdl config validate' to check the configuration")
	fmt.Fprintln(a.out, "3. Start downloading with 'imgurdl -a <album-id>'")
	return nil
}

func runConfigShow(a *app) error {
	cfg, err := config.Load(a.configFile, a.baseFlags())
	if err != nil {
		return err
	}

	display := *cfg
	display.ClientID = maskSecret(display.ClientID)
	display.ClientSecret = maskSecret(display.ClientSecret)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Fprintln(a.out, ui.Cyan("Current Configuration"))
	fmt.Fprintln(a.out)
	fmt.Fprint(a.out, string(data))

	fmt.Fprintln(a.out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(a.out, "1. Command line flags")
	fmt.Fprintln(a.out, "2. Environment variables (IMGURDL_*)")
	fmt.Fprintf(a.out, "3. Configuration file: %s\n", configPath(a))
	fmt.Fprintln(a.out, "4. Default values")
	return nil
}

func runConfigValidate(a *app) error {
	path := configPath(a)
	ui.PrintInfo("Validating configuration", path)

	// validation always wants a file, even the default one
	if _, err := os.Stat(path); err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeConfig, err, "no configuration file found")
	}

	cfg, err := config.Load(path, a.baseFlags())
	if err != nil {
		return err
	}

	if err := cfg.ValidateCredentials(); err != nil {
		ui.PrintWarning("Configuration warnings:")
		fmt.Fprintf(a.out, "  - %s\n", err)
		fmt.Fprintln(a.out, "    (credentials can also come from 'imgurdl auth login' or the environment)")
		fmt.Fprintln(a.out)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(a.out, "\nConfiguration summary:")
	fmt.Fprintf(a.out, "  Directory: %s\n", cfg.Download.Directory)
	fmt.Fprintf(a.out, "  List file: %s\n", cfg.Download.ListFile)
	fmt.Fprintf(a.out, "  API: %s\n", cfg.API.BaseURL)
	fmt.Fprintf(a.out, "  Grid: %s, %d columns of %dpx\n", cfg.Grid.Output, cfg.Grid.Columns, cfg.Grid.ThumbSize)
	fmt.Fprintf(a.out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}

// maskSecret keeps the first and last four characters of long values
func maskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}
