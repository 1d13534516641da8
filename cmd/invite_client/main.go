package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/kdudkov/goutils/callback"

	"github.com/opencare/screeninvite/internal/cache"
	"github.com/opencare/screeninvite/internal/config"
	"github.com/opencare/screeninvite/internal/gateway"
	"github.com/opencare/screeninvite/internal/localstore"
	"github.com/opencare/screeninvite/internal/queue"
	"github.com/opencare/screeninvite/internal/syncer"
	"github.com/opencare/screeninvite/pkg/model"
)

var (
	gitRevision = "unknown"
	gitBranch   = "unknown"
)

func getVersion() string {
	return fmt.Sprintf("%s:%s", gitBranch, gitRevision)
}

type App struct {
	logger *slog.Logger
	config *config.AppConfig
	uid    string

	queue  *queue.Manager
	remote gateway.Remote
	syncer *syncer.Syncer

	quotaCache   *cache.Cache[model.QuotaLimits]
	sessionCache *cache.Cache[[]*model.SessionOption]

	onlineCb *callback.Callback[bool]
	online   int32
}

func NewApp(cfg *config.AppConfig) *App {
	app := &App{
		logger:   slog.Default(),
		config:   cfg,
		uid:      uuid.NewString(),
		remote:   gateway.NewHTTP(cfg.ServerURL(), cfg.RequestTimeout()),
		onlineCb: callback.New[bool](),
	}

	app.queue = queue.New(localstore.New(cfg.StateFile()), cfg.Now)

	app.syncer = syncer.New(app.queue, app.remote, app.isOnline).
		WithDelay(cfg.SyncDelay()).
		WithInterval(cfg.SyncInterval()).
		WithClock(cfg.Now)

	app.quotaCache = cache.NewWithTTL[model.QuotaLimits](cfg.CacheTTL(), func(staffName string) (model.QuotaLimits, error) {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
		defer cancel()

		return app.remote.TodayQuota(ctx, staffName, app.queue.Today())
	})

	app.sessionCache = cache.NewWithTTL[[]*model.SessionOption](cfg.CacheTTL(), func(staffName string) ([]*model.SessionOption, error) {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
		defer cancel()

		return app.remote.SessionOptions(ctx, staffName)
	})

	return app
}

func (app *App) setOnline(s bool) {
	var old int32

	if s {
		old = atomic.SwapInt32(&app.online, 1)
	} else {
		old = atomic.SwapInt32(&app.online, 0)
	}

	if (old == 1) == s {
		return
	}

	if s {
		app.logger.Info("connection is back")
	} else {
		app.logger.Warn("connection is lost, working offline")
	}

	app.onlineCb.AddMessage(s)
}

func (app *App) isOnline() bool {
	return atomic.LoadInt32(&app.online) == 1
}

// pinger probes the gateway on a fixed interval. The first successful probe
// after an offline stretch kicks off a sync run right away.
func (app *App) pinger(ctx context.Context) {
	app.ping(ctx)

	ticker := time.NewTicker(app.config.PingInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.ping(ctx)
		}
	}
}

func (app *App) ping(ctx context.Context) {
	wasOnline := app.isOnline()

	err := app.remote.Ping(ctx)

	app.setOnline(err == nil)

	if err == nil && !wasOnline {
		go app.syncer.TriggerAutomatic(ctx)
	}
}

func (app *App) Run(ctx context.Context) {
	go func() {
		addr := app.config.ClientAddr()
		app.logger.Info("listening " + addr)

		if err := NewHttp(app).Listen(addr); err != nil {
			panic(err)
		}
	}()

	go app.pinger(ctx)
	go app.syncer.Run(ctx)

	<-ctx.Done()
}

func main() {
	fmt.Printf("version %s\n", getVersion())

	var debug = flag.Bool("debug", false, "debug logging")

	var conf = flag.String("config", "invite_client.yml", "name of config file")

	flag.Parse()

	cfg := config.NewAppConfig()
	cfg.Load(*conf)

	if *debug {
		cfg.Set("debug", true)
	}

	setupLogging(cfg.Debug())

	ctx, cancel := context.WithCancel(context.Background())

	app := NewApp(cfg)
	go app.Run(ctx)

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c

	app.logger.Info("exiting...")
	cancel()
}

func setupLogging(debug bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	if debug {
		opts.Level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)))
}
