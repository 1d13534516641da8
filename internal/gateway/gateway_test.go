package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencare/screeninvite/pkg/model"
)

type rpcCall struct {
	Function   string          `json:"function"`
	Parameters json.RawMessage `json:"parameters"`
}

func rpcServer(t *testing.T, handler func(call *rpcCall) any) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		call := &rpcCall{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(call))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handler(call))
	}))
}

func TestPing(t *testing.T) {
	srv := rpcServer(t, func(call *rpcCall) any {
		assert.Equal(t, "testConnection", call.Function)

		return map[string]any{"success": true}
	})
	defer srv.Close()

	g := NewHTTP(srv.URL, time.Second)

	assert.NoError(t, g.Ping(context.Background()))
}

func TestAuthenticate(t *testing.T) {
	srv := rpcServer(t, func(call *rpcCall) any {
		assert.Equal(t, "authenticateUser", call.Function)

		params := map[string]string{}
		require.NoError(t, json.Unmarshal(call.Parameters, &params))
		assert.Equal(t, "alice", params["username"])

		return map[string]any{
			"success": true,
			"user":    map[string]string{"name": "alice", "role": "staff"},
		}
	})
	defer srv.Close()

	g := NewHTTP(srv.URL, time.Second)

	staff, err := g.Authenticate(context.Background(), "alice", "pw")

	require.NoError(t, err)
	assert.Equal(t, "alice", staff.GetName())
}

func TestAuthenticateRejected(t *testing.T) {
	srv := rpcServer(t, func(call *rpcCall) any {
		return map[string]any{"success": false, "message": "unknown user"}
	})
	defer srv.Close()

	g := NewHTTP(srv.URL, time.Second)

	_, err := g.Authenticate(context.Background(), "nobody", "")

	var reject *RejectError

	require.ErrorAs(t, err, &reject)
	assert.Equal(t, "unknown user", reject.Message)
}

func TestSubmitCarriesLocalID(t *testing.T) {
	srv := rpcServer(t, func(call *rpcCall) any {
		assert.Equal(t, "submitInvitation", call.Function)

		rec := &model.InvitationRecord{}
		require.NoError(t, json.Unmarshal(call.Parameters, rec))
		assert.Equal(t, "local-1", rec.LocalID)
		assert.Equal(t, "20250901-north-hall-primary", rec.SessionInfo)

		return map[string]any{
			"success":       true,
			"invitationId":  "INV7",
			"updatedCounts": map[string]int{"morning": 1, "total": 1},
		}
	})
	defer srv.Close()

	g := NewHTTP(srv.URL, time.Second)

	res, err := g.Submit(context.Background(), &model.InvitationRecord{
		LocalID:     "local-1",
		Name:        "p",
		Phone1:      "1",
		Session:     model.SessionMorning,
		SessionInfo: "20250901-north-hall-primary",
	})

	require.NoError(t, err)
	assert.Equal(t, "INV7", res.InvitationID)
	assert.Equal(t, 1, res.Counts.Morning)
}

func TestSubmitQuotaRejection(t *testing.T) {
	srv := rpcServer(t, func(call *rpcCall) any {
		return map[string]any{"success": false, "message": "morning quota reached (3/3)"}
	})
	defer srv.Close()

	g := NewHTTP(srv.URL, time.Second)

	_, err := g.Submit(context.Background(), &model.InvitationRecord{LocalID: "l"})

	var reject *RejectError

	require.ErrorAs(t, err, &reject)
	assert.Contains(t, reject.Message, "3/3")
}

func TestTodayQuota(t *testing.T) {
	srv := rpcServer(t, func(call *rpcCall) any {
		return map[string]any{"success": true, "morning": 3, "afternoon": 2, "evening": 0, "total": 5}
	})
	defer srv.Close()

	g := NewHTTP(srv.URL, time.Second)

	q, err := g.TodayQuota(context.Background(), "alice", "0901")

	require.NoError(t, err)
	assert.Equal(t, 3, q.Morning)
	assert.Equal(t, 0, q.Evening)
	assert.Equal(t, 5, q.Total)
}

func TestTransportError(t *testing.T) {
	g := NewHTTP("http://127.0.0.1:1", time.Millisecond*100)

	err := g.Ping(context.Background())

	require.Error(t, err)

	var reject *RejectError

	assert.False(t, errors.As(err, &reject))
}
