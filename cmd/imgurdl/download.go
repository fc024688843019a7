package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"imgurdl/pkg/album"
	"imgurdl/pkg/config"
	apperrors "imgurdl/pkg/errors"
	"imgurdl/pkg/grid"
	"imgurdl/pkg/imgur"
	"imgurdl/pkg/logger"
	"imgurdl/pkg/storage"
	"imgurdl/pkg/ui"
)

type downloadOptions struct {
	albums    []string
	directory string
	mode      string
	listFile  string
	grid      bool
	noGrid    bool
	profile   string
	columns   int
}

func newDownloadCommand(a *app) *cobra.Command {
	opts := &downloadOptions{}
	cmd := &cobra.Command{
		Use:   "download [album-id...]",
		Short: "Download one or more Imgur albums",
		Long: `Download every image of the given Imgur albums into the target directory.

Before downloading, existing *.jpg files in the target directory are deleted.
Images are saved as <description>.jpg, <description>_1.jpg, ... in album
order. Albums the API refuses are skipped; images that fail to download are
logged and the run continues.`,
		Example: `  # Download two albums given by id
  imgurdl download -a abc123 -a def456

  # Read album URLs from links.txt and build a contact sheet afterwards
  imgurdl download --mode list --grid

  # Use another directory and a stored credential profile
  imgurdl download abc123 -d ./cats --profile work`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, a, opts, args)
		},
	}
	addDownloadFlags(cmd, opts)
	return cmd
}

func addDownloadFlags(cmd *cobra.Command, opts *downloadOptions) {
	cmd.Flags().StringArrayVarP(&opts.albums, "album", "a", nil, "album id to download (repeatable)")
	cmd.Flags().StringVarP(&opts.directory, "directory", "d", "", "target directory (default \"images\")")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "album source: direct or list (prompted when omitted on a terminal)")
	cmd.Flags().StringVar(&opts.listFile, "list-file", "", "file of album URLs used by --mode list (default \"links.txt\")")
	cmd.Flags().BoolVar(&opts.grid, "grid", false, "render a contact sheet after downloading")
	cmd.Flags().BoolVar(&opts.noGrid, "no-grid", false, "never render a contact sheet")
	cmd.Flags().IntVar(&opts.columns, "grid-columns", 0, "contact sheet width in images (default 4)")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "stored credential profile to use")
	cmd.MarkFlagsMutuallyExclusive("grid", "no-grid")
}

func runDownload(cmd *cobra.Command, a *app, opts *downloadOptions, args []string) error {
	flags := a.baseFlags()
	flags["directory"] = opts.directory
	flags["list-file"] = opts.listFile
	flags["grid-columns"] = opts.columns

	cfg, err := config.Load(a.configFile, flags)
	if err != nil {
		return err
	}

	log, err := logger.NewWithWriter(&cfg.Logging, a.out)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeConfig, err, "failed to initialize logger")
	}

	if err := resolveCredentials(a, cfg, opts.profile, log); err != nil {
		return err
	}

	direct := append(append([]string{}, opts.albums...), args...)
	prompter := ui.NewPrompter(a.in, a.out)

	mode, err := resolveRunMode(a, prompter, opts.mode, direct)
	if err != nil {
		return err
	}
	wantGrid, err := resolveGrid(cmd, a, prompter, opts)
	if err != nil {
		return err
	}

	ids, err := album.ResolveAlbumIDs(mode, direct, cfg.Download.ListFile, cfg.Download.ListPrefix)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeConfig, err, "")
	}

	client, err := imgur.NewClient(imgur.Options{
		ClientID:   cfg.ClientID,
		BaseURL:    cfg.API.BaseURL,
		UserAgent:  cfg.API.UserAgent,
		HTTPClient: a.httpClient,
	}, log)
	if err != nil {
		return err
	}

	store, err := storage.NewManager(cfg.Download.Directory, cfg.Download.Extension, log)
	if err != nil {
		return err
	}
	if err := store.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := store.Unlock(); err != nil {
			log.WithError(err).Warn("Failed to release directory lock")
		}
	}()

	log.WithFields(map[string]interface{}{
		"mode":      mode.String(),
		"albums":    len(ids),
		"directory": store.Dir(),
	}).Info("Starting download")

	start := time.Now()
	workflow := album.NewWorkflow(album.Options{Client: client, Store: store, Logger: log})
	summary, runErr := workflow.Run(cmd.Context(), ids)
	if summary != nil && len(summary.Albums) > 0 {
		fmt.Fprintln(a.out, ui.RenderSummary(summary, time.Since(start)))
	}
	if runErr != nil {
		log.WithError(runErr).Error("Download stopped")
		return runErr
	}
	log.WithFields(map[string]interface{}{
		"saved":   summary.SavedCount(),
		"failed":  summary.FailedCount(),
		"skipped": summary.SkippedCount(),
	}).Info("Download complete")

	if !wantGrid {
		return nil
	}
	return renderGrid(cfg, store.Dir(), log)
}

// resolveCredentials fills in the client id and secret from the credential
// store when the config does not carry them, or when a profile is named.
func resolveCredentials(a *app, cfg *config.Config, profile string, log logger.Logger) error {
	if profile != "" || !cfg.HasCredentials() {
		manager, err := a.credentials()
		if err != nil {
			log.WithError(err).Debug("Credential store unavailable")
		} else if p, err := manager.Retrieve(profile); err == nil {
			cfg.ClientID = p.ClientID
			cfg.ClientSecret = p.ClientSecret
			log.WithField("profile", p.Name).Info("Using stored credentials")
		} else if profile != "" {
			return apperrors.Wrap(apperrors.ErrorTypeConfig, err, "credential profile not found")
		}
	}

	if err := cfg.ValidateCredentials(); err != nil {
		return fmt.Errorf("%w (run 'imgurdl auth login' or set IMGURDL_CLIENT_ID and IMGURDL_CLIENT_SECRET)", err)
	}
	return nil
}

// resolveRunMode uses --mode when given. Otherwise ids on the command line
// mean direct mode, a terminal gets asked, and anything else is direct.
func resolveRunMode(a *app, p *ui.Prompter, flag string, direct []string) (album.RunMode, error) {
	if flag != "" {
		mode, err := album.ParseRunMode(flag)
		if err != nil {
			return mode, apperrors.Wrap(apperrors.ErrorTypeConfig, err, "")
		}
		return mode, nil
	}
	if len(direct) > 0 || !a.isTerminal() {
		return album.ModeDirect, nil
	}
	return p.AskRunMode()
}

func resolveGrid(cmd *cobra.Command, a *app, p *ui.Prompter, opts *downloadOptions) (bool, error) {
	switch {
	case cmd.Flags().Changed("grid"):
		return opts.grid, nil
	case cmd.Flags().Changed("no-grid"):
		return !opts.noGrid, nil
	case a.isTerminal():
		return p.Confirm("Render a contact sheet after downloading?", false)
	default:
		return false, nil
	}
}

func renderGrid(cfg *config.Config, dir string, log logger.Logger) error {
	res, err := grid.Render(grid.Options{
		SourceDir: dir,
		Extension: cfg.Download.Extension,
		Output:    cfg.Grid.Output,
		Columns:   cfg.Grid.Columns,
		ThumbSize: cfg.Grid.ThumbSize,
		Quality:   cfg.Grid.Quality,
		Logger:    log,
	})
	if errors.Is(err, grid.ErrNoImages) {
		ui.PrintWarning("No images to put in a contact sheet")
		return nil
	}
	if err != nil {
		return err
	}
	ui.PrintInfo("Contact sheet", fmt.Sprintf("%s (%d images, %dx%d)", res.Output, res.Images, res.Width, res.Height))
	return nil
}
