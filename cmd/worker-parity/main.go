// Command worker-parity runs the Temporal workers for sanity-check workflows.
// PARITY_WORKER_QUEUES selects the queues to poll (check, publish).
package main

import (
	"context"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/formparity/parity-go/internal/config"
	awsauth "github.com/formparity/parity-go/internal/connectors/aws"
	"github.com/formparity/parity-go/internal/connectors/aws/cloudwatch"
	"github.com/formparity/parity-go/internal/connectors/vault"
	"github.com/formparity/parity-go/internal/observability"
	"github.com/formparity/parity-go/internal/ratelimit"
	"github.com/formparity/parity-go/internal/temporal/activities"
	"github.com/formparity/parity-go/internal/temporal/queues"
	"github.com/formparity/parity-go/internal/temporal/versioning"
	"github.com/formparity/parity-go/internal/temporal/workflows"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	logger := observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.OTelEnabled {
		shutdown, err := observability.InitTracer(context.Background(), "parity-worker", cfg.OTelSampleRatio)
		if err != nil {
			logger.Error("otel init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	queueNames, err := queues.ParseQueues(cfg.WorkerQueues)
	if err != nil {
		logger.Error("invalid PARITY_WORKER_QUEUES", "error", err)
		os.Exit(1)
	}

	if cfg.EnvironmentsFile == "" {
		logger.Error("PARITY_ENVIRONMENTS_FILE is required")
		os.Exit(1)
	}
	envs, err := config.LoadEnvironments(cfg.EnvironmentsFile)
	if err != nil {
		logger.Error("environments error", "error", err)
		os.Exit(1)
	}
	// Process settings override the file defaults, as for the API.
	if cfg.From != "" {
		envs.From = cfg.From
	}
	if cfg.To != "" {
		envs.To = cfg.To
	}
	if len(cfg.Forms) > 0 {
		envs.Forms = cfg.Forms
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		logger.Error("metrics init failed", "error", err)
		os.Exit(1)
	}

	acts := &activities.Activities{
		Environments:    envs,
		HTTPClient:      vault.NewHTTPClient(cfg.HTTPTimeout),
		IsolateFailures: cfg.IsolateFailures,
		Budget:          ratelimit.NewRunBudget(cfg.RunsPerWindow, cfg.RunWindow),
		Metrics:         metrics,
		Logger:          logger,
	}

	if cfg.CloudWatchNamespace != "" {
		awsCfg, err := awsauth.NewAWSConfig(context.Background(), cfg.AWSRegion, cfg.AWSProfile, cfg.AWSRole)
		if err != nil {
			logger.Error("aws config error", "error", err)
			os.Exit(1)
		}
		limiter := ratelimit.NewLimiter(ratelimit.DefaultRates())
		acts.Publisher = cloudwatch.New(awsCfg, cfg.CloudWatchNamespace, limiter)
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    observability.NewTemporalSlogAdapter(logger),
	})
	if err != nil {
		logger.Error("unable to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	configs := queues.DefaultConfigs()
	var started []worker.Worker
	for _, name := range queueNames {
		w := worker.New(c, name, configs[name].Options)
		if name == versioning.QueueCheck {
			w.RegisterWorkflow(workflows.SanityCheckWorkflow)
		}
		w.RegisterActivity(acts)

		if err := w.Start(); err != nil {
			logger.Error("worker start failed", "queue", name, "error", err)
			for _, s := range started {
				s.Stop()
			}
			os.Exit(1)
		}
		started = append(started, w)
		logger.Info("worker started", "queue", name, "publisher", acts.Publisher != nil)
	}

	<-worker.InterruptCh()
	for _, w := range started {
		w.Stop()
	}
	logger.Info("workers stopped")
}
