package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mahirjain10/copyurl-service/config"
	"github.com/mahirjain10/copyurl-service/internal/aws"
	"github.com/mahirjain10/copyurl-service/internal/handlers"
	"github.com/mahirjain10/copyurl-service/internal/logger"
	"github.com/mahirjain10/copyurl-service/internal/queue"
	"github.com/mahirjain10/copyurl-service/internal/rclone"
	"github.com/mahirjain10/copyurl-service/internal/rcloneconf"
	"github.com/mahirjain10/copyurl-service/internal/registry"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config    *config.Config
	logger    *slog.Logger
	registry  *registry.Registry
	publisher queue.StatusPublisher
	server    *http.Server
}

// NewApp creates and initializes a new App instance with all dependencies
func NewApp(ctx context.Context, envFile string, port int) (*App, error) {
	envConfig, err := config.InitializeEnvs(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize environment config: %w", err)
	}
	if port != 0 {
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid --port %d", port)
		}
		envConfig.Port = port
	}

	appLogger := logger.New(logger.Config{
		Level:  logger.ParseLevel(envConfig.LogLevel),
		Format: envConfig.LogFormat,
	})

	if envConfig.RcloneConfigURL == "" {
		appLogger.Warn("RCLONE_CONFIG_URL is not set; copyurl requests will fail until it is")
	}

	// s3:// config URLs only work when AWS credentials resolve
	var objects rcloneconf.ObjectGetter
	awsConfig, err := config.InitializeAws(ctx)
	if err != nil {
		appLogger.Warn("AWS config unavailable, s3:// config URLs disabled", "error", err)
	} else {
		s3Client := aws.NewS3Client(awsConfig, envConfig.AwsS3Endpoint)
		objects = aws.NewS3Service(s3Client, envConfig.ConfigFetchTimeout)
	}
	fetcher := rcloneconf.NewFetcher(&http.Client{Timeout: envConfig.ConfigFetchTimeout}, objects)

	var publisher queue.StatusPublisher = queue.NoopPublisher{}
	if envConfig.RabbitMqURL != "" {
		rabbitMqService, err := queue.NewRabbitMqService(envConfig.RabbitMqURL, envConfig.RabbitMqExchange, envConfig.RabbitMqRoutingKey)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		// the broker may block under flow control; workers must not wait on it
		publisher = queue.NewAsyncPublisher(rabbitMqService, queue.DefaultQueueSize, appLogger)
		appLogger.Info("publishing job status", "exchange", envConfig.RabbitMqExchange, "routing_key", envConfig.RabbitMqRoutingKey)
	}

	jobs := registry.New()
	worker := rclone.NewWorker(envConfig.RcloneBinary, jobs, publisher, appLogger)
	copyHandler := handlers.NewCopyHandler(jobs, fetcher, worker, handlers.CopyOptions{
		ConfigURL:    envConfig.RcloneConfigURL,
		ConfigDir:    envConfig.RcloneConfigDir,
		FetchTimeout: envConfig.ConfigFetchTimeout,
	}, appLogger)

	server := &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", strconv.Itoa(envConfig.Port)),
		Handler:           handlers.NewRouter(jobs, copyHandler, appLogger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		config:    envConfig,
		logger:    appLogger,
		registry:  jobs,
		publisher: publisher,
		server:    server,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts the server down.
func (a *App) Run(ctx context.Context) error {
	if retention := a.config.JobRetention; retention > 0 {
		go a.registry.RunJanitor(ctx, janitorInterval(retention), retention, func(removed int) {
			a.logger.Info("pruned finished jobs", "removed", removed)
		})
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("copyurl service listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}

// Close releases the broker connection. Running transfers are not waited for.
func (a *App) Close() error {
	return a.publisher.Close()
}

func janitorInterval(retention time.Duration) time.Duration {
	interval := retention / 4
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Minute {
		interval = time.Minute
	}
	return interval
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewApp(ctx, cmd.String("env"), cmd.Int("port"))
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.logger.Warn("close failed", "error", err)
		}
	}()
	return app.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "copyurl-service",
		Usage: "HTTP front-end for rclone copyurl with in-memory progress tracking",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "dotenv file to load before reading the environment",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "listen port, overrides PORT",
			},
		},
		Action: serveAction,
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatalf("copyurl-service: %v", err)
	}
}
