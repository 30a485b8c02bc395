// Package cli implements the parity command line: synchronous sanity checks,
// Temporal run management and configuration validation.
//
// Exit codes: 0 = all checks passed, 1 = divergence detected, 2 = error.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/formparity/parity-go/internal/config"
	awsauth "github.com/formparity/parity-go/internal/connectors/aws"
	"github.com/formparity/parity-go/internal/connectors/aws/cloudwatch"
	"github.com/formparity/parity-go/internal/domain"
	"github.com/formparity/parity-go/internal/observability"
	"github.com/formparity/parity-go/internal/ratelimit"
	"github.com/formparity/parity-go/internal/temporal/activities"
	"github.com/formparity/parity-go/internal/temporal/querier"
)

// App holds the I/O and external factories of one CLI invocation.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	// Dial connects to Temporal. The returned func releases the connection.
	Dial func(cfg config.Config, logger *slog.Logger) (querier.RunQuerier, func(), error)
	// NewPublisher builds the sink used by run --publish.
	NewPublisher func(ctx context.Context, cfg config.Config) (activities.Publisher, error)

	cfg    config.Config
	logger *slog.Logger
}

// NewApp returns an App wired to the process streams, Temporal and CloudWatch.
func NewApp() *App {
	return &App{
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Dial:         dialTemporal,
		NewPublisher: newCloudWatchPublisher,
	}
}

// exitError carries a specific exit status. A nil err means the status was
// already reported on stdout.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func failed(err error) error {
	return &exitError{code: domain.OutcomeFailed.ExitCode(), err: err}
}

// Execute runs the command line and returns the process exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(a.Stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(a.Stderr, "Error: %v\n", err)
	return domain.OutcomeFailed.ExitCode()
}

func (a *App) rootCmd() *cobra.Command {
	var envFile, logLevel string

	root := &cobra.Command{
		Use:   "parity",
		Short: "Compare two forms platform environments after a migration",
		Long: `parity checks that a migration between two environments of the forms
platform is complete: every form template in the target must be reachable
and the configured forms must hold the same number of records on both sides.

Environments are read from the YAML file named by --env-file or
PARITY_ENVIRONMENTS_FILE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return failed(err)
			}
			if envFile != "" {
				cfg.EnvironmentsFile = envFile
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			a.cfg = cfg
			a.logger = observability.NewLogger(a.Stderr, cfg.LogLevel, "console")
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "environments YAML file (overrides PARITY_ENVIRONMENTS_FILE)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		a.runCmd(),
		a.triggerCmd(),
		a.statusCmd(),
		a.listCmd(),
		a.validateConfigCmd(),
	)
	return root
}

func dialTemporal(cfg config.Config, logger *slog.Logger) (querier.RunQuerier, func(), error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    observability.NewTemporalSlogAdapter(logger),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	return querier.New(c), c.Close, nil
}

func newCloudWatchPublisher(ctx context.Context, cfg config.Config) (activities.Publisher, error) {
	if cfg.CloudWatchNamespace == "" {
		return nil, errors.New("PARITY_CLOUDWATCH_NAMESPACE is required to publish")
	}
	awsCfg, err := awsauth.NewAWSConfig(ctx, cfg.AWSRegion, cfg.AWSProfile, cfg.AWSRole)
	if err != nil {
		return nil, err
	}
	return cloudwatch.New(awsCfg, cfg.CloudWatchNamespace, ratelimit.NewLimiter(ratelimit.DefaultRates())), nil
}
