// Package gateway is the client side of the backend RPC contract: every call
// is a POST with a {function, parameters} envelope, every response carries a
// success flag. A response with success=false becomes a RejectError, distinct
// from transport failures.
package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/opencare/screeninvite/pkg/model"
	"github.com/opencare/screeninvite/pkg/request"
)

type Remote interface {
	Ping(ctx context.Context) error
	Authenticate(ctx context.Context, username, password string) (*model.Staff, error)
	SessionOptions(ctx context.Context, staffName string) ([]*model.SessionOption, error)
	TodayQuota(ctx context.Context, staffName, day string) (model.QuotaLimits, error)
	TodayCounts(ctx context.Context, inviter, day string) (model.InvitationCounts, error)
	Submit(ctx context.Context, rec *model.InvitationRecord) (*SubmitResult, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, inviter, day string) ([]*model.InvitationRecord, error)
}

// RejectError is an explicit refusal from the gateway (validation, quota,
// unknown record), as opposed to a transport problem.
type RejectError struct {
	Message string
}

func (e *RejectError) Error() string {
	return e.Message
}

type SubmitResult struct {
	InvitationID string
	Counts       model.InvitationCounts
}

type envelope struct {
	Function   string `json:"function"`
	Parameters any    `json:"parameters"`
}

type result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (r *result) reject() error {
	if r.Success {
		return nil
	}

	msg := r.Message

	if msg == "" {
		msg = "rejected by server"
	}

	return &RejectError{Message: msg}
}

type HTTP struct {
	url     string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

func NewHTTP(url string, timeout time.Duration) *HTTP {
	return &HTTP{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  slog.Default().With("logger", "gateway"),
	}
}

func (g *HTTP) call(ctx context.Context, function string, params, out any) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if params == nil {
		params = map[string]string{}
	}

	return request.New(g.client, g.logger).
		URL(g.url).
		Post().
		JSONBody(&envelope{Function: function, Parameters: params}).
		GetJSON(ctx, out)
}

func (g *HTTP) Ping(ctx context.Context) error {
	res := &result{}

	if err := g.call(ctx, "testConnection", nil, res); err != nil {
		return err
	}

	return res.reject()
}

func (g *HTTP) Authenticate(ctx context.Context, username, password string) (*model.Staff, error) {
	res := &struct {
		result
		User *model.Staff `json:"user"`
	}{}

	params := map[string]string{"username": username, "password": password}

	if err := g.call(ctx, "authenticateUser", params, res); err != nil {
		return nil, err
	}

	if err := res.reject(); err != nil {
		return nil, err
	}

	return res.User, nil
}

func (g *HTTP) SessionOptions(ctx context.Context, staffName string) ([]*model.SessionOption, error) {
	res := &struct {
		result
		Sessions []*model.SessionOption `json:"sessions"`
	}{}

	params := map[string]string{"staffName": staffName}

	if err := g.call(ctx, "getSessionOptions", params, res); err != nil {
		return nil, err
	}

	if err := res.reject(); err != nil {
		return nil, err
	}

	return res.Sessions, nil
}

func (g *HTTP) TodayQuota(ctx context.Context, staffName, day string) (model.QuotaLimits, error) {
	res := &struct {
		result
		model.QuotaLimits
	}{}

	params := map[string]string{"staffName": staffName, "date": day}

	if err := g.call(ctx, "getTodayQuota", params, res); err != nil {
		return model.QuotaLimits{}, err
	}

	if err := res.reject(); err != nil {
		return model.QuotaLimits{}, err
	}

	return res.QuotaLimits, nil
}

func (g *HTTP) TodayCounts(ctx context.Context, inviter, day string) (model.InvitationCounts, error) {
	res := &struct {
		result
		model.InvitationCounts
	}{}

	params := map[string]string{"inviter": inviter, "date": day}

	if err := g.call(ctx, "getTodayInvitations", params, res); err != nil {
		return model.InvitationCounts{}, err
	}

	if err := res.reject(); err != nil {
		return model.InvitationCounts{}, err
	}

	return res.InvitationCounts, nil
}

// Submit pushes one record. The local id always travels with it so the server
// can dedup retries.
func (g *HTTP) Submit(ctx context.Context, rec *model.InvitationRecord) (*SubmitResult, error) {
	res := &struct {
		result
		InvitationID  string                 `json:"invitationId"`
		UpdatedCounts model.InvitationCounts `json:"updatedCounts"`
	}{}

	if err := g.call(ctx, "submitInvitation", rec, res); err != nil {
		return nil, err
	}

	if err := res.reject(); err != nil {
		return nil, err
	}

	return &SubmitResult{InvitationID: res.InvitationID, Counts: res.UpdatedCounts}, nil
}

func (g *HTTP) Delete(ctx context.Context, id string) error {
	res := &result{}

	params := map[string]string{"id": id}

	if err := g.call(ctx, "deleteInvitation", params, res); err != nil {
		return err
	}

	return res.reject()
}

func (g *HTTP) List(ctx context.Context, inviter, day string) ([]*model.InvitationRecord, error) {
	res := &struct {
		result
		Invitations []*model.InvitationRecord `json:"invitations"`
	}{}

	params := map[string]string{"inviter": inviter, "date": day}

	if err := g.call(ctx, "getTodayInvitationList", params, res); err != nil {
		return nil, err
	}

	if err := res.reject(); err != nil {
		return nil, err
	}

	return res.Invitations, nil
}
