// Package commands implements the erpctl command tree.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"erpcore/cmd/erpctl/output"
	"erpcore/internal/blob"
	"erpcore/internal/config"
	"erpcore/internal/core"
	"erpcore/internal/instance"
)

// app carries global flags and the resources built from them for one run.
type app struct {
	stdout io.Writer
	stderr io.Writer
	out    *output.Printer

	envFile     string
	driver      string
	dataDir     string
	sqlitePath  string
	postgresDSN string
	logLevel    string
	jsonOutput  bool

	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *core.PrometheusMetricsRecorder
	server   *http.Server
	stores   []blob.Store
}

// Execute runs erpctl with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	root, a := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := errors.Join(root.Execute(), a.teardown()); err != nil {
		output.New(stderr).Error("%v", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *app) {
	a := &app{stdout: stdout, stderr: stderr, out: output.New(stdout)}
	root := &cobra.Command{
		Use:   "erpctl",
		Short: "Manage erpcore instances",
		Long: `erpctl creates, inspects and copies erpcore instances.

Each instance is stored as a main snapshot (.erp.json) and a secrets snapshot
(.secrets.json) in the configured storage backend. Settings come from ERPCORE_*
environment variables, an optional .env file and the flags below.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file read before the environment")
	flags.StringVar(&a.driver, "driver", "", "storage driver: fs|memory|s3|sqlite|postgres")
	flags.StringVar(&a.dataDir, "data-dir", "", "instance directory for the fs driver")
	flags.StringVar(&a.sqlitePath, "sqlite-path", "", "database file for the sqlite driver")
	flags.StringVar(&a.postgresDSN, "postgres-dsn", "", "connection string for the postgres driver")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error")
	flags.BoolVar(&a.jsonOutput, "json", false, "output in JSON format")

	root.AddCommand(
		newInitCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newCheckCmd(a),
		newCopyCmd(a),
		newDeleteCmd(a),
		newSchemaCmd(a),
	)
	return root, a
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Driver = blob.Driver(a.driver)
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("sqlite-path") {
		cfg.SQLitePath = a.sqlitePath
	}
	if flags.Changed("postgres-dsn") {
		cfg.PostgresDSN = a.postgresDSN
	}
	if flags.Changed("log-level") {
		if err := cfg.LogLevel.UnmarshalText([]byte(a.logLevel)); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	a.registry = prometheus.NewRegistry()
	a.metrics, err = core.NewPrometheusMetricsRecorder(a.registry)
	if err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		return a.serveMetrics(cfg.MetricsAddr)
	}
	return nil
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

// teardown closes the backends and the metrics server opened during the run.
func (a *app) teardown() error {
	var errs []error
	for _, store := range a.stores {
		errs = append(errs, blob.Close(store))
	}
	a.stores = nil
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		errs = append(errs, a.server.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func (a *app) storeOptions() []core.Option {
	return []core.Option{core.WithLogger(a.logger), core.WithMetricsRecorder(a.metrics)}
}

// repository opens the backend described by opts; it is closed in teardown.
func (a *app) repository(ctx context.Context, opts blob.Options) (*instance.Repository, error) {
	store, err := blob.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	a.stores = append(a.stores, store)
	return instance.NewRepository(store,
		instance.WithLogger(a.logger),
		instance.WithMetricsRecorder(a.metrics),
		instance.WithStoreOptions(a.storeOptions()...),
	), nil
}

func (a *app) defaultRepository(ctx context.Context) (*instance.Repository, error) {
	return a.repository(ctx, a.cfg.BlobOptions())
}
