// Package app initializes and runs the book catalog service.
// It configures logging, seeds the in-memory collections, wires the
// services into the router and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/patric-chuzhbe/inoutbooks/internal/collection"
	"github.com/patric-chuzhbe/inoutbooks/internal/config"
	"github.com/patric-chuzhbe/inoutbooks/internal/logger"
	"github.com/patric-chuzhbe/inoutbooks/internal/router"
	"github.com/patric-chuzhbe/inoutbooks/internal/seed"
	"github.com/patric-chuzhbe/inoutbooks/internal/service"
)

// App encapsulates the configuration, the collections and the HTTP handler
// needed to run the catalog service.
type App struct {
	cfg         *config.Config
	books       *collection.Collection
	users       *collection.Collection
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - seeding the books and users collections
// - setting up the router and middleware
func New(optionsProto ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(optionsProto...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	bookRecords, userRecords, err := seed.Load(app.cfg.SeedFile, app.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("load seed data: %w", err)
	}

	app.books, err = collection.New("books", bookRecords)
	if err != nil {
		return nil, err
	}

	app.users, err = collection.New("users", userRecords)
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(
		service.NewBooks(app.books),
		service.NewUsers(app.users),
		app.cfg.StaticDir,
		app.cfg.IsDevelopment(),
	)

	logger.Log.Infow("collections seeded",
		"books", len(bookRecords),
		"users", len(userRecords),
		"seedFile", app.cfg.SeedFile,
	)

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpHandler
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.serve(ctx)
}

func (a *App) serve(ctx context.Context) error {
	logger.Log.Infow("server running",
		"RunAddr", a.cfg.RunAddr,
		"environment", a.cfg.Environment,
	)

	server := &http.Server{
		Addr:         a.cfg.RunAddr,
		Handler:      a.httpHandler,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return nil

	case err := <-serverErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}
