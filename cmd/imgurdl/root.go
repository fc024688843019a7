package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"imgurdl/pkg/auth"
	"imgurdl/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// app carries the process environment and the global flags shared by every
// command.
type app struct {
	in         io.Reader
	out        io.Writer
	httpClient *http.Client

	// isTerminal reports whether prompts can be shown
	isTerminal  func() bool
	readSecret  func() (string, error)
	credentials func() (*auth.Manager, error)

	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
}

func newApp() *app {
	return &app{
		in:  os.Stdin,
		out: os.Stdout,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
		readSecret: func() (string, error) {
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			return string(b), err
		},
		credentials: auth.NewManager,
	}
}

// effectiveLogLevel folds --verbose and --quiet into the --log-level value
func (a *app) effectiveLogLevel() string {
	switch {
	case a.verbose:
		return "debug"
	case a.quiet:
		return "error"
	default:
		return a.logLevel
	}
}

// baseFlags are the config overrides every command shares
func (a *app) baseFlags() map[string]interface{} {
	return map[string]interface{}{
		"log-level": a.effectiveLogLevel(),
		"no-color":  a.noColor,
	}
}

func newRootCommand(a *app) *cobra.Command {
	opts := &downloadOptions{}

	root := &cobra.Command{
		Use:   "imgurdl [album-id...]",
		Short: "Download Imgur albums into a local directory",
		Long: `imgurdl downloads every image of one or more Imgur albums into a local
directory, naming files after the album description.

Album ids come from the command line (--album, or positional arguments) or
from a list file of album URLs. Running without a subcommand is the same as
'imgurdl download'.

Credentials are read from the config file, IMGURDL_CLIENT_ID and
IMGURDL_CLIENT_SECRET, or a profile stored with 'imgurdl auth login'.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.Out = a.out
			ui.SetColor(!a.noColor && ui.ShouldColorize(a.out))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, a, opts, args)
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.out)

	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "only log errors")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output")
	root.MarkFlagsMutuallyExclusive("quiet", "verbose")

	addDownloadFlags(root, opts)

	root.SetVersionTemplate(`imgurdl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newDownloadCommand(a),
		newConfigCommand(a),
		newAuthCommand(a),
	)
	return root
}
