package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opencare/screeninvite/internal/config"
	"github.com/opencare/screeninvite/internal/database"
	"github.com/opencare/screeninvite/internal/repository"
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

	dbm      *database.Manager
	staff    repository.StaffRepository
	schedule repository.ScheduleRepository

	started time.Time
}

func NewApp(cfg *config.AppConfig) *App {
	app := &App{
		logger:   slog.Default(),
		config:   cfg,
		uid:      uuid.NewString(),
		staff:    repository.NewFileStaffRepo(cfg.StaffFile()),
		schedule: repository.NewFileScheduleRepo(cfg.ScheduleFile()),
		started:  time.Now(),
	}

	db, err := gorm.Open(sqlite.Open(cfg.ServerDB()), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		log.Fatal(err)
	}

	app.dbm = database.New(db)

	return app
}

func (app *App) Run() {
	if err := app.dbm.Migrate(); err != nil {
		log.Fatal(err)
	}

	if err := app.staff.Start(); err != nil {
		app.logger.Error("staff repo error", slog.Any("error", err))
	}

	if err := app.schedule.Start(); err != nil {
		app.logger.Error("schedule repo error", slog.Any("error", err))
	}

	go func() {
		addr := app.config.ServerApiAddr()
		app.logger.Info("listening " + addr)

		if err := NewHttp(app).Listen(addr); err != nil {
			panic(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c

	app.logger.Info("exiting...")
	app.staff.Stop()
	app.schedule.Stop()
}

func main() {
	fmt.Printf("version %s\n", getVersion())

	var debug = flag.Bool("debug", false, "debug logging")

	var conf = flag.String("config", "invite_server.yml", "name of config file")

	flag.Parse()

	cfg := config.NewAppConfig()
	cfg.Load(*conf)

	if *debug {
		cfg.Set("debug", true)
	}

	setupLogging(cfg.Debug())

	NewApp(cfg).Run()
}

func setupLogging(debug bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	if debug {
		opts.Level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)))
}
