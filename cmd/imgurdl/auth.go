package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"imgurdl/pkg/auth"
	"imgurdl/pkg/ui"
)

func newAuthCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Imgur API credentials",
		Long: `Manage stored Imgur API credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)`,
	}

	login := &cobra.Command{
		Use:   "login [profile]",
		Short: "Store an Imgur client id and secret",
		Long: `Store an Imgur client id and secret under a profile name.

The profile defaults to "default", which is used by downloads when no
--profile is given and the config file has no credentials.`,
		Example: `  # Interactive login
  imgurdl auth login

  # Store a second application
  imgurdl auth login work`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(a, profileArg(args))
		},
	}

	logout := &cobra.Command{
		Use:   "logout [profile]",
		Short: "Remove a stored profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(a, profileArg(args))
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored profiles",
		Long:  `List all stored profiles with masked credentials.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(a)
		},
	}

	cmd.AddCommand(login, logout, list)
	return cmd
}

func profileArg(args []string) string {
	if len(args) > 0 {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultProfile
}

func runLogin(a *app, name string) error {
	manager, err := a.credentials()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	prompter := ui.NewPrompter(a.in, a.out)

	auth.WriteRegistrationGuide(a.out)

	if existing, err := manager.Retrieve(name); err == nil && existing != nil && existing.Name == name {
		update, err := prompter.Confirm(fmt.Sprintf("Profile '%s' already exists. Update it?", name), false)
		if err != nil || !update {
			return err
		}
	}

	clientID, err := prompter.Ask("Client ID: ")
	if err != nil {
		return fmt.Errorf("failed to read client id: %w", err)
	}
	if clientID == "" {
		return fmt.Errorf("client id is required")
	}

	fmt.Fprint(a.out, "Client secret (hidden): ")
	secret, err := a.readSecret()
	if err != nil {
		return fmt.Errorf("failed to read client secret: %w", err)
	}
	secret = strings.TrimSpace(secret)

	profile := &auth.Profile{
		Name:         name,
		ClientID:     clientID,
		ClientSecret: secret,
	}
	if err := manager.Store(profile); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Profile saved: %s", name))
	if name != auth.DefaultProfile {
		fmt.Fprintf(a.out, "\nUse it with: imgurdl --profile %s -a <album-id>\n", name)
	}
	return nil
}

func runLogout(a *app, name string) error {
	manager, err := a.credentials()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	if err := manager.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Profile removed: %s", name))
	return nil
}

func runList(a *app) error {
	manager, err := a.credentials()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	profiles, err := manager.List()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		ui.PrintWarning("No stored profiles")
		fmt.Fprintln(a.out, "Run 'imgurdl auth login' to add one.")
		return nil
	}

	fmt.Fprintln(a.out, ui.RenderProfiles(profiles))
	return nil
}
