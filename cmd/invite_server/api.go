package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/opencare/screeninvite/internal/quota"
	"github.com/opencare/screeninvite/pkg/model"
)

// rpcRequest is the wire envelope: one function name plus its parameters.
type rpcRequest struct {
	Function   string          `json:"function"`
	Parameters json.RawMessage `json:"parameters"`
}

type rpcFunc func(app *App, params json.RawMessage) (fiber.Map, error)

var rpcFunctions = map[string]rpcFunc{
	"testConnection":         rpcTestConnection,
	"healthCheck":            rpcHealthCheck,
	"authenticateUser":       rpcAuthenticate,
	"getUserList":            rpcUserList,
	"getSessionOptions":      rpcSessionOptions,
	"getTodayQuota":          rpcTodayQuota,
	"getTodayInvitations":    rpcTodayInvitations,
	"submitInvitation":       rpcSubmit,
	"batchSubmitInvitations": rpcBatchSubmit,
	"updateInvitation":       rpcUpdate,
	"deleteInvitation":       rpcDelete,
	"getTodayInvitationList": rpcInvitationList,
	"getSystemStats":         rpcSystemStats,
}

func reject(msg string) fiber.Map {
	return fiber.Map{"success": false, "message": msg}
}

func ok(m fiber.Map) fiber.Map {
	if m == nil {
		m = fiber.Map{}
	}

	m["success"] = true

	return m
}

// getRpcHandler dispatches the envelope. A refusal is still HTTP 200 with
// success=false; only broken requests get an error status.
func getRpcHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		req := new(rpcRequest)

		if err := ctx.BodyParser(req); err != nil {
			rpcCallsMetric.With(prometheus.Labels{"function": "?", "result": "bad_request"}).Inc()

			return ctx.Status(fiber.StatusBadRequest).JSON(reject("invalid request body"))
		}

		fn, found := rpcFunctions[req.Function]

		if !found {
			rpcCallsMetric.With(prometheus.Labels{"function": req.Function, "result": "unknown"}).Inc()

			return ctx.JSON(reject("unknown function " + req.Function))
		}

		res, err := fn(app, req.Parameters)

		if err != nil {
			rpcCallsMetric.With(prometheus.Labels{"function": req.Function, "result": "rejected"}).Inc()
			app.logger.Debug("rpc rejected",
				slog.String("function", req.Function), slog.Any("error", err))

			return ctx.JSON(reject(err.Error()))
		}

		rpcCallsMetric.With(prometheus.Labels{"function": req.Function, "result": "ok"}).Inc()

		return ctx.JSON(ok(res))
	}
}

func rpcTestConnection(app *App, _ json.RawMessage) (fiber.Map, error) {
	return fiber.Map{"message": "ok", "time": app.config.Now()}, nil
}

func rpcHealthCheck(app *App, _ json.RawMessage) (fiber.Map, error) {
	return fiber.Map{
		"status":  "ok",
		"version": getVersion(),
		"uptime":  time.Since(app.started).String(),
		"time":    app.config.Now(),
	}, nil
}

func rpcAuthenticate(app *App, params json.RawMessage) (fiber.Map, error) {
	p := &struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{}

	if err := json.Unmarshal(params, p); err != nil {
		return nil, err
	}

	if !app.staff.CheckAuth(p.Username, p.Password) {
		return nil, fmt.Errorf("invalid credentials")
	}

	s := app.staff.Get(p.Username)

	return fiber.Map{"user": fiber.Map{"name": s.GetName(), "role": s.GetRole()}}, nil
}

func rpcUserList(app *App, _ json.RawMessage) (fiber.Map, error) {
	res := make([]*model.StaffDTO, 0)

	for _, s := range app.staff.List() {
		res = append(res, s.DTO())
	}

	return fiber.Map{"users": res}, nil
}

func rpcSessionOptions(app *App, params json.RawMessage) (fiber.Map, error) {
	p := &struct {
		StaffName string `json:"staffName"`
	}{}

	if err := json.Unmarshal(params, p); err != nil {
		return nil, err
	}

	sessions := app.schedule.SessionsFor(p.StaffName, model.FullDayKey(app.config.Now()))

	return fiber.Map{"sessions": sessions}, nil
}

func rpcTodayQuota(app *App, params json.RawMessage) (fiber.Map, error) {
	p := &struct {
		StaffName string `json:"staffName"`
		Date      string `json:"date"`
	}{}

	if err := json.Unmarshal(params, p); err != nil {
		return nil, err
	}

	limits := app.schedule.QuotaFor(p.StaffName)

	return fiber.Map{
		"morning":   limits.Morning,
		"afternoon": limits.Afternoon,
		"evening":   limits.Evening,
		"total":     limits.Total,
	}, nil
}

func rpcTodayInvitations(app *App, params json.RawMessage) (fiber.Map, error) {
	p := &struct {
		Inviter string `json:"inviter"`
		Date    string `json:"date"`
	}{}

	if err := json.Unmarshal(params, p); err != nil {
		return nil, err
	}

	day := p.Date

	if day == "" {
		day = model.DayKey(app.config.Now())
	}

	counts := app.dbm.CountsFor(p.Inviter, day)

	return fiber.Map{
		"morning":   counts.Morning,
		"afternoon": counts.Afternoon,
		"evening":   counts.Evening,
		"total":     counts.Total,
	}, nil
}

func rpcSubmit(app *App, params json.RawMessage) (fiber.Map, error) {
	rec := new(model.InvitationRecord)

	if err := json.Unmarshal(params, rec); err != nil {
		return nil, err
	}

	id, counts, err := app.storeRecord(rec)
	if err != nil {
		return nil, err
	}

	return fiber.Map{
		"invitationId":  id,
		"updatedCounts": counts,
	}, nil
}

func rpcBatchSubmit(app *App, params json.RawMessage) (fiber.Map, error) {
	p := &struct {
		Invitations []*model.InvitationRecord `json:"invitations"`
	}{}

	if err := json.Unmarshal(params, p); err != nil {
		return nil, err
	}

	results := make([]fiber.Map, 0, len(p.Invitations))
	succeeded := 0

	for _, rec := range p.Invitations {
		id, _, err := app.storeRecord(rec)

		if err != nil {
			results = append(results, fiber.Map{
				"localId": rec.GetLocalID(),
				"success": false,
				"message": err.Error(),
			})

			continue
		}

		succeeded++

		results = append(results, fiber.Map{
			"localId":      rec.GetLocalID(),
			"success":      true,
			"invitationId": id,
		})
	}

	return fiber.Map{
		"results":   results,
		"succeeded": succeeded,
		"failed":    len(p.Invitations) - succeeded,
	}, nil
}

func rpcUpdate(app *App, params json.RawMessage) (fiber.Map, error) {
	in := new(model.InvitationRecord)

	if err := json.Unmarshal(params, in); err != nil {
		return nil, err
	}

	key := in.ID

	if key == "" {
		key = in.LocalID
	}

	if key == "" {
		return nil, fmt.Errorf("id is required")
	}

	rec := app.dbm.InvitationQuery().IdOrLocalId(key).One()

	if rec == nil {
		return nil, fmt.Errorf("record not found")
	}

	if err := mergeRecord(rec, in); err != nil {
		return nil, err
	}

	rec.LastModified = app.config.Now()

	if err := app.dbm.Save(rec); err != nil {
		return nil, fmt.Errorf("storage error")
	}

	return fiber.Map{"invitationId": rec.ID}, nil
}

func rpcDelete(app *App, params json.RawMessage) (fiber.Map, error) {
	p := &struct {
		ID string `json:"id"`
	}{}

	if err := json.Unmarshal(params, p); err != nil {
		return nil, err
	}

	if p.ID == "" {
		return nil, fmt.Errorf("id is required")
	}

	rec := app.dbm.InvitationQuery().IdOrLocalId(p.ID).One()

	if rec == nil {
		return nil, fmt.Errorf("record not found")
	}

	if err := app.dbm.InvitationQuery().Id(rec.ID).Delete(); err != nil {
		return nil, fmt.Errorf("storage error")
	}

	return fiber.Map{
		"invitationId":  rec.ID,
		"updatedCounts": app.dbm.CountsFor(rec.Inviter, rec.InviteDate),
	}, nil
}

func rpcInvitationList(app *App, params json.RawMessage) (fiber.Map, error) {
	p := &struct {
		Inviter string `json:"inviter"`
		Date    string `json:"date"`
	}{}

	if err := json.Unmarshal(params, p); err != nil {
		return nil, err
	}

	day := p.Date

	if day == "" {
		day = model.DayKey(app.config.Now())
	}

	q := app.dbm.InvitationQuery().InviteDate(day)

	// empty inviter or admin role sees everyone's records
	if s := app.staff.Get(p.Inviter); p.Inviter != "" && !s.IsAdmin() {
		q = q.Inviter(p.Inviter)
	}

	return fiber.Map{"invitations": q.Get()}, nil
}

func rpcSystemStats(app *App, _ json.RawMessage) (fiber.Map, error) {
	day := model.DayKey(app.config.Now())

	return fiber.Map{
		"invitations":      app.dbm.InvitationQuery().Limit(0).Count(),
		"invitationsToday": app.dbm.InvitationQuery().InviteDate(day).Limit(0).Count(),
		"staff":            len(app.staff.List()),
		"uptime":           time.Since(app.started).String(),
		"version":          getVersion(),
	}, nil
}

// storeRecord is the one write path for submissions. A record whose local id
// is already known updates the existing row: retries after a lost response
// must not occupy a second quota slot, so no quota re-check happens there.
func (app *App) storeRecord(rec *model.InvitationRecord) (string, model.InvitationCounts, error) {
	none := model.InvitationCounts{}

	if err := app.prepareRecord(rec); err != nil {
		return "", none, err
	}

	if rec.LocalID != "" {
		if existing := app.dbm.InvitationQuery().LocalId(rec.LocalID).One(); existing != nil {
			if err := mergeRecord(existing, rec); err != nil {
				return "", none, err
			}

			existing.LastModified = app.config.Now()

			if err := app.dbm.Save(existing); err != nil {
				return "", none, fmt.Errorf("storage error")
			}

			return existing.ID, app.dbm.CountsFor(existing.Inviter, existing.InviteDate), nil
		}
	}

	counts := app.dbm.CountsFor(rec.Inviter, rec.InviteDate)
	limits := app.schedule.QuotaFor(rec.Inviter)

	if d := quota.Evaluate(rec.Session, rec.AppointmentType, counts, limits); !d.Allowed {
		return "", none, fmt.Errorf("%s", d.Reason)
	}

	rec.ID = uuid.NewString()
	rec.SyncStatus = ""
	rec.SyncError = ""

	if err := app.dbm.Create(rec); err != nil {
		return "", none, fmt.Errorf("storage error")
	}

	invitationsMetric.With(prometheus.Labels{"appointment_type": rec.AppointmentType}).Inc()

	return rec.ID, app.dbm.CountsFor(rec.Inviter, rec.InviteDate), nil
}

// prepareRecord validates a submission and re-derives the session fields
// server-side; clients are not trusted to have done it.
func (app *App) prepareRecord(rec *model.InvitationRecord) error {
	if rec.Name == "" {
		return fmt.Errorf("name is required")
	}

	if rec.Phone1 == "" {
		return fmt.Errorf("phone is required")
	}

	if !model.ValidSession(rec.Session) {
		return fmt.Errorf("invalid session %q", rec.Session)
	}

	if rec.SessionInfo != "" {
		desc, err := model.ParseSessionDescriptor(rec.SessionInfo)
		if err != nil {
			return err
		}

		rec.ApplySession(desc)
	}

	now := app.config.Now()

	if rec.InviteDate == "" {
		rec.InviteDate = model.DayKey(now)
	}

	if rec.Year == "" {
		rec.Year = model.Year(now)
	}

	if rec.CreateTime.IsZero() {
		rec.CreateTime = now
	}

	if rec.LastModified.IsZero() {
		rec.LastModified = now
	}

	return nil
}

// mergeRecord copies the editable fields of an update into a stored row.
// Identity and attribution stay as stored.
func mergeRecord(dst, src *model.InvitationRecord) error {
	if src.Name != "" {
		dst.Name = src.Name
	}

	if src.Phone1 != "" {
		dst.Phone1 = src.Phone1
	}

	dst.Phone2 = src.Phone2
	dst.Mammography = src.Mammography
	dst.FirstScreen = src.FirstScreen
	dst.CervicalSmear = src.CervicalSmear
	dst.AdultHealth = src.AdultHealth
	dst.Hepatitis = src.Hepatitis
	dst.Colorectal = src.Colorectal
	dst.Notes = src.Notes

	if src.Session != "" {
		if !model.ValidSession(src.Session) {
			return fmt.Errorf("invalid session %q", src.Session)
		}

		dst.Session = src.Session
	}

	if src.SessionInfo != "" {
		desc, err := model.ParseSessionDescriptor(src.SessionInfo)
		if err != nil {
			return err
		}

		dst.ApplySession(desc)
	}

	return nil
}
