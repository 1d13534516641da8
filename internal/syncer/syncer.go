// Package syncer drives reconciliation of the local queue against the backend
// gateway: one run at a time, records pushed strictly one by one, per-record
// failures contained so a bad record never stops the rest of the run.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/kdudkov/goutils/callback"

	"github.com/opencare/screeninvite/internal/gateway"
	"github.com/opencare/screeninvite/internal/queue"
	"github.com/opencare/screeninvite/pkg/model"
)

const (
	DefaultInterval = time.Minute * 2
	DefaultDelay    = time.Millisecond * 500
)

var (
	ErrOffline = errors.New("offline, sync is not possible")
	ErrBusy    = errors.New("sync already in progress")
)

// Submitter is the single gateway call a sync run needs.
type Submitter interface {
	Submit(ctx context.Context, rec *model.InvitationRecord) (*gateway.SubmitResult, error)
}

type Report struct {
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Time      time.Time `json:"time"`
}

type Syncer struct {
	logger   *slog.Logger
	queue    *queue.Manager
	remote   Submitter
	online   func() bool
	delay    time.Duration
	interval time.Duration
	nowFn    func() time.Time

	running  int32
	reportCb *callback.Callback[*Report]
}

func New(q *queue.Manager, remote Submitter, online func() bool) *Syncer {
	return &Syncer{
		logger:   slog.Default().With("logger", "syncer"),
		queue:    q,
		remote:   remote,
		online:   online,
		delay:    DefaultDelay,
		interval: DefaultInterval,
		nowFn:    time.Now,
		reportCb: callback.New[*Report](),
	}
}

func (s *Syncer) WithDelay(d time.Duration) *Syncer {
	s.delay = d

	return s
}

func (s *Syncer) WithInterval(d time.Duration) *Syncer {
	s.interval = d

	return s
}

func (s *Syncer) WithClock(nowFn func() time.Time) *Syncer {
	s.nowFn = nowFn

	return s
}

func (s *Syncer) ReportCallback() *callback.Callback[*Report] {
	return s.reportCb
}

func (s *Syncer) IsRunning() bool {
	return atomic.LoadInt32(&s.running) == 1
}

// Run fires automatic syncs on a fixed interval until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.TriggerAutomatic(ctx)
		}
	}
}

// TriggerAutomatic starts a run unless offline, unauthenticated or already
// running. A dropped trigger is not queued; the next tick retries anyway.
func (s *Syncer) TriggerAutomatic(ctx context.Context) {
	if !s.online() {
		return
	}

	if s.queue.CurrentUser() == nil {
		return
	}

	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return
	}

	defer atomic.StoreInt32(&s.running, 0)

	s.runOnce(ctx)
}

// TriggerManual starts a run on explicit user request, reporting why it
// cannot instead of silently dropping.
func (s *Syncer) TriggerManual(ctx context.Context) (*Report, error) {
	if !s.online() {
		return nil, ErrOffline
	}

	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return nil, ErrBusy
	}

	defer atomic.StoreInt32(&s.running, 0)

	return s.runOnce(ctx), nil
}

func (s *Syncer) runOnce(ctx context.Context) *Report {
	report := &Report{Time: s.nowFn()}

	candidates := s.queue.Candidates()

	if len(candidates) == 0 {
		return report
	}

	report.Total = len(candidates)

	ids := make([]string, len(candidates))
	for i, rec := range candidates {
		ids[i] = rec.LocalID
	}

	// visible immediately in the UI
	s.queue.MarkSyncing(ids)

	for i, rec := range candidates {
		if i > 0 && !s.pause(ctx) {
			// cancelled mid-run: remaining records go back to error state
			// so the next run picks them up
			for _, r := range candidates[i:] {
				s.queue.SetError(r.LocalID, "sync cancelled")
				report.Failed++
			}

			break
		}

		res, err := s.remote.Submit(ctx, rec)

		if err != nil {
			report.Failed++
			s.queue.SetError(rec.LocalID, err.Error())
			s.logger.Warn("record sync failed",
				slog.String("local_id", rec.LocalID), slog.Any("error", err))

			continue
		}

		report.Succeeded++

		if !s.queue.SetSynced(rec.LocalID, res.InvitationID) {
			s.logger.Info("record deleted during sync", slog.String("local_id", rec.LocalID))
		}
	}

	s.queue.SetLastSync(s.nowFn())

	s.logger.Info("sync run finished",
		slog.Int("total", report.Total),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed))

	s.reportCb.AddMessage(report)

	return report
}

// pause waits the courtesy delay between remote calls. Returns false when ctx
// was cancelled while waiting.
func (s *Syncer) pause(ctx context.Context) bool {
	if s.delay <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(s.delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
