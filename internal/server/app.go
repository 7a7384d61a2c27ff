// Package server initializes and runs the vault application: storage
// backends, the credential gate, the session manager, the rendering
// pipeline, and the HTTP surface, with cooperative shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dkravets/irisvault/internal/logging"
	"github.com/dkravets/irisvault/internal/server/blob"
	"github.com/dkravets/irisvault/internal/server/config"
	"github.com/dkravets/irisvault/internal/server/convert"
	"github.com/dkravets/irisvault/internal/server/directory"
	"github.com/dkravets/irisvault/internal/server/gate"
	"github.com/dkravets/irisvault/internal/server/matcher"
	"github.com/dkravets/irisvault/internal/server/render"
	"github.com/dkravets/irisvault/internal/server/session"
	"github.com/dkravets/irisvault/internal/server/vault"
	"github.com/dkravets/irisvault/internal/server/web"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	web      *web.Server
	scratch  *convert.Scratch
	exitOnce sync.Once
	exitReq  chan struct{}
}

// NewApp wires the full system from configuration. A load failure of the
// durable snapshot is fatal here: starting with partial or fabricated
// state would corrupt the directory on the first save.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	repo, err := newDirectoryRepository(cfg)
	if err != nil {
		return nil, err
	}
	dir, err := directory.NewStore(ctx, repo, logger)
	if err != nil {
		return nil, err
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	v := vault.New(blobs, dir, logger)

	g, err := gate.New(dir, v, matcher.NewFilename(), cfg.AdminSecret, cfg.AdminReferenceImage, logger)
	if err != nil {
		return nil, err
	}

	scratch, err := convert.NewScratch(cfg.ScratchDir, cfg.ScratchTTL, logger)
	if err != nil {
		return nil, err
	}
	pool := convert.NewPool(convert.NewSoffice(cfg.ConvertCommand, logger), cfg.ConvertWorkers)
	pipeline := render.NewPipeline(v, pool, scratch, logger)

	app := &App{
		config:  cfg,
		logger:  logger,
		scratch: scratch,
		exitReq: make(chan struct{}),
	}

	app.web = web.NewServer(web.Options{
		Sessions:        session.NewManager(cfg.SessionSecret, cfg.SessionValidity),
		Gate:            g,
		Dir:             dir,
		Vault:           v,
		Pipeline:        pipeline,
		Scratch:         scratch,
		Logger:          logger,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		SessionValidity: cfg.SessionValidity,
		Shutdown:        app.requestShutdown,
	})

	return app, nil
}

func newDirectoryRepository(cfg *config.Config) (directory.Repository, error) {
	switch cfg.DirectoryBackend {
	case config.DirectoryBackendPostgres:
		return directory.NewPostgresRepository(cfg.DatabaseDSN)
	case config.DirectoryBackendFile:
		return directory.NewFileRepository(cfg.SnapshotPath), nil
	default:
		return nil, fmt.Errorf("unknown directory backend %q", cfg.DirectoryBackend)
	}
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendS3:
		return blob.NewS3Store(ctx, blob.S3Options{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
		})
	case config.BlobBackendDisk:
		return blob.NewDiskStore(cfg.StorageRoot)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

// requestShutdown carries the exit route's terminal signal into Run.
func (app *App) requestShutdown() {
	app.exitOnce.Do(func() { close(app.exitReq) })
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		select {
		case <-sigs:
		case <-app.exitReq:
		}
		cancelFunc()
	}()
}

// Run serves until an OS signal or the exit route asks for shutdown, then
// drains in-flight requests for the configured grace period.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.Addr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.scratch.RunJanitor(ctx, app.config.ScratchTTL)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.web.Listen(app.config.Addr); err != nil {
			app.logger.Error(ctx, "server stopped", "error", err)
			cancelFunc()
		}
	}()

	<-ctx.Done()

	if err := app.web.ShutdownWithTimeout(app.config.ShutdownGrace); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}

	wg.Wait()
	app.logger.Info(context.Background(), "app stopped")
}
