// Package server assembles the lost&found server: storage, the workflow
// engine, the publish pipeline and the HTTP and gRPC health transports.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/lostfound/internal/catalog"
	"github.com/dmitrijs2005/lostfound/internal/common"
	"github.com/dmitrijs2005/lostfound/internal/cryptox"
	"github.com/dmitrijs2005/lostfound/internal/logging"
	"github.com/dmitrijs2005/lostfound/internal/server/config"
	"github.com/dmitrijs2005/lostfound/internal/server/httpapi"
	"github.com/dmitrijs2005/lostfound/internal/server/matching"
	"github.com/dmitrijs2005/lostfound/internal/server/photos"
	"github.com/dmitrijs2005/lostfound/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lostfound/internal/server/services"
	"github.com/dmitrijs2005/lostfound/internal/server/workflow"

	gs "github.com/dmitrijs2005/lostfound/internal/server/grpc"
)

// photoFetchTimeout bounds one attachment download during publish.
const photoFetchTimeout = 20 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	engine   *workflow.Engine
	listings *services.ListingService
	health   *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	cat, err := catalog.LoadFile(c.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("catalog error: %w", err)
	}

	vault, err := cryptox.NewVault(ctx, c.SecretsKey, c.SecretsCipher, logger)
	if err != nil {
		return nil, fmt.Errorf("vault init error: %w", err)
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	ids := common.UUIDGenerator{}
	clock := common.RealClock{}

	archiver, err := newArchiver(ctx, c, ids)
	if err != nil {
		db.Close()
		return nil, err
	}

	matcher := matching.NewEngine(
		rm.Listings(db),
		matching.NewDefaultScorer(c.MatchRadiusKm),
		matching.Options{
			RadiusKm:     c.MatchRadiusKm,
			Threshold:    &c.MatchThreshold,
			Limit:        c.MatchLimit,
			CandidateCap: c.CandidateCap,
		},
		logger,
	)

	ls := services.NewListingService(db, rm, cat, matcher, archiver, clock, ids, logger)

	engine := workflow.NewEngine(
		rm.Sessions(db),
		vault,
		ls,
		cat,
		clock,
		workflow.Options{FrontURL: c.FrontURL},
		logger.With("module", "workflow"),
	)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		engine:   engine,
		listings: ls,
		health:   gs.NewHealthServer(c.GRPCAddr, logger),
	}, nil
}

func newArchiver(ctx context.Context, c *config.Config, ids common.IDGenerator) (photos.Archiver, error) {
	if !c.S3Enabled() {
		return photos.Passthrough{}, nil
	}
	a, err := photos.NewS3Archiver(ctx, photos.S3Config{
		User:         c.S3RootUser,
		Password:     c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		Endpoint:     c.S3BaseEndpoint,
		AllowedHosts: c.PhotoHosts,
	}, photos.NewHTTPClient(photoFetchTimeout), ids)
	if err != nil {
		return nil, fmt.Errorf("s3 init error: %w", err)
	}
	return a, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) allowedOrigins() []string {
	front := strings.TrimRight(strings.TrimSpace(app.config.FrontURL), "/")
	if front == "" {
		return nil
	}
	return []string{front}
}

// Run serves until a signal arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	router := httpapi.NewRouter(app.engine, app.listings, httpapi.Options{
		WebhookSecret:  []byte(app.config.WebhookSecret),
		AllowedOrigins: app.allowedOrigins(),
	}, app.logger.With("module", "http"))
	httpServer := httpapi.NewServer(app.config.HTTPAddr, router, app.config.ShutdownTimeout, app.logger)

	if app.config.WebhookSecret == "" {
		app.logger.Warn(ctx, "webhook secret not configured, every event call will be rejected")
	}

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := app.health.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()
	go func() {
		defer wg.Done()
		if err := httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	app.health.SetServing(true)
	wg.Wait()
	app.logger.Info(ctx, "App stopped")
}
