package main

import (
	"context"
	"embed"
	"errors"
	"net/http"
	"runtime/pprof"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"

	"github.com/opencare/screeninvite/internal/gateway"
	"github.com/opencare/screeninvite/internal/queue"
	"github.com/opencare/screeninvite/internal/quota"
	"github.com/opencare/screeninvite/internal/syncer"
	"github.com/opencare/screeninvite/internal/wshandler"
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

	srv.Use(log.NewFiberLogger(&log.LoggerConfig{Name: "http", LogErrorsOnly: true}))
	staticfiles.Embed(srv)

	srv.Get("/", getIndexHandler())
	srv.Get("/config", getConfigHandler(app))

	srv.Post("/login", getLoginHandler(app))
	srv.Post("/logout", getLogoutHandler(app))

	srv.Get("/sessions", getSessionsHandler(app))
	srv.Get("/quota", getQuotaHandler(app))

	srv.Get("/record", getRecordsHandler(app))
	srv.Post("/record", addRecordHandler(app))
	srv.Put("/record/:id", updateRecordHandler(app))
	srv.Delete("/record/:id", deleteRecordHandler(app))

	srv.Post("/sync", getSyncHandler(app))

	srv.Get("/ws", getWsHandler(app))
	srv.Get("/stack", getStackHandler())

	return srv
}

func getIndexHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		data := fiber.Map{
			"js": []string{"util.js", "intake.js"},
		}

		return ctx.Render("templates/index", data, "templates/header")
	}
}

func getConfigHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		m := fiber.Map{
			"version":   getVersion(),
			"uid":       app.uid,
			"online":    app.isOnline(),
			"last_sync": app.queue.LastSync(),
			"today":     app.queue.Today(),
		}

		if user := app.queue.CurrentUser(); user != nil {
			m["user"] = user.DTO()
		}

		return ctx.JSON(m)
	}
}

// getLoginHandler authenticates against the gateway when online. Offline, the
// previously signed-in staff member may resume working; nobody else can.
func getLoginHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		creds := &struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}{}

		if err := ctx.BodyParser(creds); err != nil {
			return err
		}

		if !app.isOnline() {
			if user := app.queue.CurrentUser(); user != nil && user.GetName() == creds.Username {
				return ctx.JSON(user.DTO())
			}

			return ctx.Status(fiber.StatusServiceUnavailable).
				JSON(fiber.Map{"message": "offline, cannot sign in"})
		}

		user, err := app.remote.Authenticate(ctx.Context(), creds.Username, creds.Password)

		if err != nil {
			var rejectErr *gateway.RejectError

			if errors.As(err, &rejectErr) {
				return ctx.Status(fiber.StatusUnauthorized).
					JSON(fiber.Map{"message": rejectErr.Message})
			}

			app.setOnline(false)

			return ctx.Status(fiber.StatusServiceUnavailable).
				JSON(fiber.Map{"message": "gateway unreachable"})
		}

		app.queue.SetCurrentUser(user)
		app.quotaCache.Invalidate(user.GetName())
		app.sessionCache.Invalidate(user.GetName())

		return ctx.JSON(user.DTO())
	}
}

func getLogoutHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		app.queue.SetCurrentUser(nil)

		return ctx.SendString("Ok")
	}
}

func getSessionsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		user := app.queue.CurrentUser()

		if user == nil {
			return ctx.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"message": "not signed in"})
		}

		sessions, err := app.sessionCache.Load(user.GetName())

		if err != nil {
			return ctx.Status(fiber.StatusServiceUnavailable).
				JSON(fiber.Map{"message": "session list not available offline"})
		}

		return ctx.JSON(sessions)
	}
}

func getQuotaHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		user := app.queue.CurrentUser()

		if user == nil {
			return ctx.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"message": "not signed in"})
		}

		limits, _ := app.quotaCache.Load(user.GetName())
		counts := app.queue.Counts(user.GetName(), app.queue.Today())

		return ctx.JSON(fiber.Map{"limits": limits, "counts": counts})
	}
}

func getRecordsHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		user := app.queue.CurrentUser()

		if user == nil {
			return ctx.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"message": "not signed in"})
		}

		return ctx.JSON(app.queue.ListForDay(user, app.queue.Today()))
	}
}

func addRecordHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		user := app.queue.CurrentUser()

		if user == nil {
			return ctx.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"message": "not signed in"})
		}

		input := new(queue.SubmitInput)

		if err := ctx.BodyParser(input); err != nil {
			return err
		}

		// advisory check against cached limits; the gateway decides for real
		// during sync
		if desc, err := model.ParseSessionDescriptor(input.SessionInfo); err == nil {
			if limits, err := app.quotaCache.Load(user.GetName()); err == nil {
				counts := app.queue.Counts(user.GetName(), app.queue.Today())

				if d := quota.Evaluate(input.Session, desc.AppointmentType, counts, limits); !d.Allowed {
					return ctx.Status(fiber.StatusConflict).
						JSON(fiber.Map{"message": d.Reason})
				}
			}
		}

		rec, err := app.queue.Create(input)

		if err != nil {
			if errors.Is(err, queue.ErrValidation) {
				return ctx.Status(fiber.StatusBadRequest).
					JSON(fiber.Map{"message": err.Error()})
			}

			return err
		}

		if app.isOnline() {
			go app.syncer.TriggerAutomatic(context.Background())
		}

		return ctx.JSON(rec)
	}
}

func updateRecordHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		patch := new(queue.Patch)

		if err := ctx.BodyParser(patch); err != nil {
			return err
		}

		found, err := app.queue.Update(ctx.Params("id"), patch)

		if err != nil {
			if errors.Is(err, queue.ErrValidation) {
				return ctx.Status(fiber.StatusBadRequest).
					JSON(fiber.Map{"message": err.Error()})
			}

			return err
		}

		if !found {
			return ctx.SendStatus(fiber.StatusNotFound)
		}

		return ctx.JSON(app.queue.Get(ctx.Params("id")))
	}
}

func deleteRecordHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !app.queue.Delete(ctx.Params("id")) {
			return ctx.SendStatus(fiber.StatusNotFound)
		}

		return ctx.JSON(fiber.Map{"deleted": true})
	}
}

func getSyncHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		report, err := app.syncer.TriggerManual(ctx.Context())

		switch {
		case errors.Is(err, syncer.ErrOffline):
			return ctx.Status(fiber.StatusServiceUnavailable).
				JSON(fiber.Map{"message": err.Error()})
		case errors.Is(err, syncer.ErrBusy):
			return ctx.Status(fiber.StatusConflict).
				JSON(fiber.Map{"message": err.Error()})
		case err != nil:
			return err
		}

		return ctx.JSON(report)
	}
}

func getWsHandler(app *App) fiber.Handler {
	return websocket.New(func(ws *websocket.Conn) {
		name := uuid.NewString()

		h := wshandler.NewHandler(app.logger, name, ws)

		app.queue.ChangeCallback().SubscribeNamed(name, h.SendRecord)
		app.queue.DeleteCallback().SubscribeNamed(name, h.DeleteRecord)
		app.syncer.ReportCallback().SubscribeNamed(name, h.SendReport)
		app.onlineCb.SubscribeNamed(name, h.SendOnline)
		h.Listen()
	})
}

func getStackHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return pprof.Lookup("goroutine").WriteTo(ctx.Response().BodyWriter(), 1)
	}
}
