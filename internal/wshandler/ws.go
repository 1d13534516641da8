// Package wshandler pushes queue and sync state changes to the browser so
// the intake page reflects record status without polling.
package wshandler

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"

	"github.com/opencare/screeninvite/internal/syncer"
	"github.com/opencare/screeninvite/pkg/model"
)

type WebMessage struct {
	Typ    string                  `json:"type"`
	Record *model.InvitationRecord `json:"record,omitempty"`
	UID    string                  `json:"uid,omitempty"`
	Report *syncer.Report          `json:"report,omitempty"`
	Online *bool                   `json:"online,omitempty"`
}

type JSONWsHandler struct {
	log    *slog.Logger
	name   string
	ws     *websocket.Conn
	ch     chan *WebMessage
	active int32
}

func NewHandler(log *slog.Logger, name string, ws *websocket.Conn) *JSONWsHandler {
	return &JSONWsHandler{
		log:    log.With("client", name),
		name:   name,
		ws:     ws,
		ch:     make(chan *WebMessage, 10),
		active: 1,
	}
}

func (w *JSONWsHandler) Name() string {
	return w.name
}

func (w *JSONWsHandler) IsActive() bool {
	return w != nil && atomic.LoadInt32(&w.active) == 1
}

func (w *JSONWsHandler) stop() {
	if atomic.CompareAndSwapInt32(&w.active, 1, 0) {
		close(w.ch)
		w.ws.Close()
	}
}

func (w *JSONWsHandler) writer() {
	for item := range w.ch {
		if !w.IsActive() {
			return
		}

		if item == nil {
			continue
		}

		_ = w.ws.WriteJSON(item)
	}
}

func (w *JSONWsHandler) reader() {
	defer w.stop()

	for {
		_, _, err := w.ws.ReadMessage()

		if err != nil {
			w.log.Debug("error on read", slog.Any("error", err))

			return
		}
	}
}

func (w *JSONWsHandler) send(msg *WebMessage) bool {
	if w == nil || !w.IsActive() {
		return false
	}

	select {
	case w.ch <- msg:
	default:
	}

	return true
}

// SendRecord pushes one changed record.
func (w *JSONWsHandler) SendRecord(rec *model.InvitationRecord) bool {
	return w.send(&WebMessage{Typ: "record", Record: rec})
}

// DeleteRecord tells the page to drop a record from view.
func (w *JSONWsHandler) DeleteRecord(localID string) bool {
	return w.send(&WebMessage{Typ: "delete", UID: localID})
}

// SendReport pushes the outcome of a finished sync run.
func (w *JSONWsHandler) SendReport(report *syncer.Report) bool {
	return w.send(&WebMessage{Typ: "sync_report", Report: report})
}

// SendOnline pushes connectivity transitions.
func (w *JSONWsHandler) SendOnline(online bool) bool {
	return w.send(&WebMessage{Typ: "online", Online: &online})
}

func (w *JSONWsHandler) closehandler(code int, text string) error {
	w.log.Info(fmt.Sprintf("closed with code %d, msg %s", code, text))
	w.stop()

	return nil
}

func (w *JSONWsHandler) Listen() {
	w.log.Debug("ws start")
	w.ws.SetCloseHandler(w.closehandler)

	go w.writer()
	w.reader()
	w.log.Debug("ws stop")
}
