package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/markergen/api"
	"github.com/openclaw/markergen/batch"
	"github.com/openclaw/markergen/config"
	"github.com/openclaw/markergen/marker"
	"github.com/openclaw/markergen/output"
	"github.com/openclaw/markergen/qr"
	"github.com/openclaw/markergen/store"
	"github.com/openclaw/markergen/verify"
)

var version = "v0.1.0"

// Kinds accepted by the generate and verify commands.
const (
	targetTags = "tags"
	targetQR   = "qr"
	targetAll  = "all"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "markergen",
		Short:         "Generate fiducial tag and QR board markers",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")

	// --- generate command ----------------------------------------------------
	var genFlags overrideFlags
	generateCmd := &cobra.Command{
		Use:       "generate [tags|qr|all]",
		Short:     "Write marker images for IDs 0-7",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{targetTags, targetQR, targetAll},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, configPath, targetOf(args), genFlags)
		},
	}
	genFlags.register(generateCmd)
	root.AddCommand(generateCmd)

	// --- verify command ------------------------------------------------------
	var verifyFlags overrideFlags
	verifyCmd := &cobra.Command{
		Use:       "verify [tags|qr|all]",
		Short:     "Check written marker images against their expected content",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{targetTags, targetQR, targetAll},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, configPath, targetOf(args), verifyFlags)
		},
	}
	verifyFlags.register(verifyCmd)
	root.AddCommand(verifyCmd)

	// --- serve command -------------------------------------------------------
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve markers over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	root.AddCommand(serveCmd)

	// --- list command --------------------------------------------------------
	var listKind string
	var listLimit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List generated files recorded in the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.OutOrStdout(), configPath, listKind, listLimit)
		},
	}
	listCmd.Flags().StringVar(&listKind, "kind", "", "Only list this kind (tag or qr)")
	listCmd.Flags().IntVar(&listLimit, "limit", 16, "Maximum number of entries")
	root.AddCommand(listCmd)

	// --- show command --------------------------------------------------------
	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Print the QR marker for an ID in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.OutOrStdout(), args[0])
		},
	}
	root.AddCommand(showCmd)

	// --- version command -----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "markergen %s\n", version)
		},
	})

	return root
}

// overrideFlags are command-line overrides for the tag and format settings.
type overrideFlags struct {
	size   int
	border int
	format string
}

func (f *overrideFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.size, "size", 0, "Requested tag size in pixels (overrides config)")
	cmd.Flags().IntVar(&f.border, "border", 0, "White margin in tag units (overrides config)")
	cmd.Flags().StringVar(&f.format, "format", "", "Image format: png, bmp or tiff (overrides config)")
}

func (f *overrideFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("size") {
		cfg.Tags.Size = f.size
	}
	if cmd.Flags().Changed("border") {
		cfg.Tags.Border = f.border
	}
	if cmd.Flags().Changed("format") {
		cfg.Format = f.format
	}
}

func targetOf(args []string) string {
	if len(args) == 0 {
		return targetAll
	}
	return args[0]
}

// loadConfig loads, overrides and validates configuration and installs
// the default logger.
func loadConfig(cmd *cobra.Command, path string, flags *overrideFlags) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if flags != nil {
		flags.apply(cmd, cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)
	return cfg, log, nil
}

func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// openManifest opens the manifest store, or returns nil if it is disabled.
func openManifest(cfg *config.Config) (*store.ManifestStore, error) {
	path := cfg.ManifestPath()
	if path == "" {
		return nil, nil
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	s, err := store.NewManifestStore(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	return s, nil
}

// runGenerate writes the requested marker batches.
func runGenerate(cmd *cobra.Command, configPath, target string, flags overrideFlags) error {
	cfg, log, err := loadConfig(cmd, configPath, &flags)
	if err != nil {
		return err
	}

	manifest, err := openManifest(cfg)
	if err != nil {
		return err
	}
	var recorder batch.Recorder
	if manifest != nil {
		defer manifest.Close()
		recorder = manifest
	}

	gen := batch.New(batch.Options{
		TagDir: cfg.Tags.OutputDir,
		QRDir:  cfg.QR.OutputDir,
		Size:   cfg.Tags.Size,
		Border: cfg.Tags.Border,
		Family: cfg.Tags.Family,
	}, output.NewWriter(cfg.OutputFormat()), recorder, cmd.OutOrStdout(), log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if target == targetTags || target == targetAll {
		if _, err := gen.Tags(ctx); err != nil {
			return fmt.Errorf("generate tags: %w", err)
		}
	}
	if target == targetAll {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	if target == targetQR || target == targetAll {
		if _, err := gen.QR(ctx); err != nil {
			return fmt.Errorf("generate qr markers: %w", err)
		}
	}
	return nil
}

// runVerify checks the written marker files and fails if any mismatch.
func runVerify(cmd *cobra.Command, configPath, target string, flags overrideFlags) error {
	cfg, log, err := loadConfig(cmd, configPath, &flags)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	format := cfg.OutputFormat()
	var results []verify.Result
	if target == targetTags || target == targetAll {
		renderer := marker.NewRenderer(cfg.Tags.Family, log)
		results = append(results, verify.Tags(cfg.Tags.OutputDir, format, renderer, cfg.Tags.Size, cfg.Tags.Border, marker.IDs())...)
	}
	if target == targetQR || target == targetAll {
		results = append(results, verify.QR(cfg.QR.OutputDir, format, marker.IDs())...)
	}

	for _, r := range results {
		fmt.Fprintln(out, r)
	}
	if verify.Failed(results) {
		return errors.New("verification failed")
	}
	fmt.Fprintf(out, "\nAll %d markers verified.\n", len(results))
	return nil
}

// runList prints manifest entries, newest first.
func runList(out io.Writer, configPath, kind string, limit int) error {
	cfg, _, err := loadConfig(nil, configPath, nil)
	if err != nil {
		return err
	}
	manifest, err := openManifest(cfg)
	if err != nil {
		return err
	}
	if manifest == nil {
		return errors.New("manifest is disabled in config")
	}
	defer manifest.Close()

	artifacts, err := manifest.ListArtifacts(kind, limit)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		fmt.Fprintln(out, "No markers recorded yet. Run \"markergen generate\" first.")
		return nil
	}
	for _, a := range artifacts {
		created := time.Unix(a.CreatedAt, 0).Format(time.RFC3339)
		fmt.Fprintf(out, "%s  %-3s %d  %4dx%-4d  %s  %.12s\n",
			created, a.Kind, a.MarkerID, a.Width, a.Height, a.Path, a.SHA256)
	}

	run, err := manifest.LatestRun(kind)
	if err != nil {
		return err
	}
	if run != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, describeRun(run))
	}
	return nil
}

// describeRun summarizes a manifest run on one line.
func describeRun(run *store.Run) string {
	started := time.Unix(run.StartedAt, 0).Format(time.RFC3339)
	status := "running"
	switch {
	case run.Error != "":
		status = "failed: " + run.Error
	case run.FinishedAt != 0:
		status = "ok"
	}
	return fmt.Sprintf("Last %s run %s started %s: %d files, %s (%s)",
		run.Kind, run.ID, started, run.Artifacts, status, run.Params)
}

// runShow prints the QR marker for an ID as terminal blocks.
func runShow(out io.Writer, arg string) error {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid marker id %q: %w", arg, err)
	}
	payload := qr.Payload(id)
	fmt.Fprintf(out, "Marker %d (%s): %s\n", id, marker.Label(id), payload)
	qr.PrintTerminal(out, payload)
	return nil
}

// runServe starts the HTTP server and blocks until SIGINT or SIGTERM.
func runServe(configPath string) error {
	cfg, log, err := loadConfig(nil, configPath, nil)
	if err != nil {
		return err
	}

	manifest, err := openManifest(cfg)
	if err != nil {
		return err
	}
	var lister api.ArtifactLister
	if manifest != nil {
		defer manifest.Close()
		lister = manifest
	}

	log.Info("starting markergen server", "version", version, "port", cfg.Serve.Port)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Serve.Port),
		Handler: api.NewRouter(&api.Server{
			Renderer:  marker.NewRenderer(cfg.Tags.Family, log),
			Store:     lister,
			Log:       log,
			Version:   version,
			StartTime: time.Now(),
			AssetsDir: filepath.Dir(cfg.Tags.OutputDir),
			TagSize:   cfg.Tags.Size,
			TagBorder: cfg.Tags.Border,
		}),
		ReadTimeout:  cfg.Serve.ReadTimeout.Duration,
		WriteTimeout: cfg.Serve.WriteTimeout.Duration,
		IdleTimeout:  cfg.Serve.IdleTimeout.Duration,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info("marker sheet available", "url", fmt.Sprintf("http://localhost:%d/sheet", cfg.Serve.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-quit:
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	log.Info("goodbye")
	return nil
}
