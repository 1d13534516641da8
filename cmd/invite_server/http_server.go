package main

import (
	"embed"
	"net/http"
	"runtime/pprof"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opencare/screeninvite/pkg/log"
	"github.com/opencare/screeninvite/pkg/model"
	"github.com/opencare/screeninvite/staticfiles"
)

//go:embed templates
var templates embed.FS

func NewHttp(app *App) *fiber.App {
	engine := html.NewFileSystem(http.FS(templates), ".html")

	engine.Delims("[[", "]]")

	srv := fiber.New(fiber.Config{EnablePrintRoutes: false, DisableStartupMessage: true, Views: engine})

	srv.Use(log.NewFiberLogger(&log.LoggerConfig{Name: "api", DoMetrics: true, LogErrorsOnly: true}))
	staticfiles.Embed(srv)

	srv.Post("/api", getRpcHandler(app))

	srv.Get("/", getIndexHandler())
	srv.Get("/invitations", getInvitationsHandler(app))
	srv.Get("/staff", getStaffHandler(app))

	srv.Get("/stack", getStackHandler())
	srv.Get("/metrics", getMetricsHandler())

	return srv
}

func getIndexHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		data := fiber.Map{
			"js": []string{"util.js", "admin.js"},
		}

		return ctx.Render("templates/index", data, "templates/header")
	}
}

func getInvitationsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		q := app.dbm.InvitationQuery()

		if day := ctx.Query("date"); day != "" {
			q = q.InviteDate(day)
		}

		return ctx.JSON(q.Get())
	}
}

func getStaffHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		res := make([]*model.StaffDTO, 0)

		for _, s := range app.staff.List() {
			res = append(res, s.DTO())
		}

		return ctx.JSON(res)
	}
}

func getStackHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return pprof.Lookup("goroutine").WriteTo(ctx.Response().BodyWriter(), 1)
	}
}

func getMetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{DisableCompression: true},
	))
}
