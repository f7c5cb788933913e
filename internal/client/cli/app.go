package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sampottinger/kipling-package-index/internal/client/client"
	"github.com/sampottinger/kipling-package-index/internal/client/config"
	"github.com/sampottinger/kipling-package-index/internal/client/services"
	"github.com/sampottinger/kipling-package-index/internal/logging"
)

// App carries what every command needs. api and deployer are built in the
// root command's PersistentPreRunE once flags are known.
type App struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	serverURL  string
	timeout    time.Duration
	verbose    bool

	config   *config.Config
	log      logging.Logger
	api      *client.Client
	deployer *services.Deployer
}

// NewRootCommand builds the command tree reading prompts from in.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &App{in: bufio.NewReader(in), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:               "pkgindex",
		Short:             "Manage packages and accounts on a package index",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "JSON config file")
	pf.StringVarP(&a.serverURL, "server", "s", "", "index server URL")
	pf.DurationVarP(&a.timeout, "timeout", "t", 0, "timeout for each request")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug details to stderr")

	root.AddCommand(
		a.deployCommand(true),
		a.deployCommand(false),
		a.readCommand(),
		a.deleteCommand(),
		a.useraddCommand(),
		a.passwdCommand(),
	)
	return root
}

func (a *App) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = a.serverURL
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = a.timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	a.log = logging.NewJSONLogger(a.errOut, level).With("module", "cli")

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	api, err := client.New(cfg.ServerURL, httpClient)
	if err != nil {
		return err
	}

	a.config = cfg
	a.api = api
	a.deployer = services.NewDeployer(api, httpClient, a.log)
	return nil
}

func (a *App) success(message string) {
	fmt.Fprintln(a.out, "[Success] "+message)
}

// Describe turns a command error into the line shown to the user.
func Describe(err error) string {
	var se *client.ServerError
	var pe *services.PartialPublishError
	switch {
	case errors.As(err, &pe):
		return "Package metadata was saved but the archive upload failed: " + pe.Err.Error()
	case errors.As(err, &se):
		return se.Message
	case errors.Is(err, client.ErrUnavailable):
		return "Could not reach the package index: " + err.Error()
	default:
		return err.Error()
	}
}

// Execute runs the client with args and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	root := NewRootCommand(in, out, errOut)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(errOut, "[Error] "+Describe(err))
		return 1
	}
	return 0
}
