// Package queue owns the local invitation queue: creation, edits, deletion
// and the per-record sync state driven by the orchestrator. All mutation goes
// through the Manager; the persisted state is written back after every change.
package queue

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kdudkov/goutils/callback"

	"github.com/opencare/screeninvite/internal/localstore"
	"github.com/opencare/screeninvite/pkg/model"
)

var ErrValidation = errors.New("validation error")

// SubmitInput carries the intake form fields for one participant.
type SubmitInput struct {
	Name   string `json:"name"`
	Phone1 string `json:"phone1"`
	Phone2 string `json:"phone2"`

	Mammography   bool `json:"mammography"`
	FirstScreen   bool `json:"first_screen"`
	CervicalSmear bool `json:"cervical_smear"`
	AdultHealth   bool `json:"adult_health"`
	Hepatitis     bool `json:"hepatitis"`
	Colorectal    bool `json:"colorectal"`

	Notes       string `json:"notes"`
	Session     string `json:"session"`
	SessionInfo string `json:"session_info"`
}

// Patch is a partial edit; nil fields are left untouched.
type Patch struct {
	Name   *string `json:"name,omitempty"`
	Phone1 *string `json:"phone1,omitempty"`
	Phone2 *string `json:"phone2,omitempty"`

	Mammography   *bool `json:"mammography,omitempty"`
	FirstScreen   *bool `json:"first_screen,omitempty"`
	CervicalSmear *bool `json:"cervical_smear,omitempty"`
	AdultHealth   *bool `json:"adult_health,omitempty"`
	Hepatitis     *bool `json:"hepatitis,omitempty"`
	Colorectal    *bool `json:"colorectal,omitempty"`

	Notes       *string `json:"notes,omitempty"`
	Session     *string `json:"session,omitempty"`
	SessionInfo *string `json:"session_info,omitempty"`
}

type Manager struct {
	logger *slog.Logger
	store  *localstore.Store
	nowFn  func() time.Time

	mx       sync.Mutex
	records  []*model.InvitationRecord
	user     *model.Staff
	lastSync time.Time

	changeCb *callback.Callback[*model.InvitationRecord]
	deleteCb *callback.Callback[string]
}

func New(store *localstore.Store, nowFn func() time.Time) *Manager {
	m := &Manager{
		logger:   slog.Default().With("logger", "queue"),
		store:    store,
		nowFn:    nowFn,
		changeCb: callback.New[*model.InvitationRecord](),
		deleteCb: callback.New[string](),
	}

	st := store.Load()
	m.records = st.Records
	m.user = st.CurrentUser
	m.lastSync = st.LastSync

	return m
}

func (m *Manager) ChangeCallback() *callback.Callback[*model.InvitationRecord] {
	return m.changeCb
}

func (m *Manager) DeleteCallback() *callback.Callback[string] {
	return m.deleteCb
}

// Today is the current day key in the configured zone.
func (m *Manager) Today() string {
	return model.DayKey(m.nowFn())
}

// Create validates the input and puts a new pending record at the head of the
// queue. The invite date is fixed here and never recomputed on edit.
func (m *Manager) Create(input *SubmitInput) (*model.InvitationRecord, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: empty input", ErrValidation)
	}

	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	if input.Phone1 == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrValidation)
	}

	if !model.ValidSession(input.Session) {
		return nil, fmt.Errorf("%w: invalid session %q", ErrValidation, input.Session)
	}

	desc, err := model.ParseSessionDescriptor(input.SessionInfo)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	now := m.nowFn()

	rec := &model.InvitationRecord{
		LocalID:       uuid.NewString(),
		Name:          input.Name,
		Phone1:        input.Phone1,
		Phone2:        input.Phone2,
		Mammography:   input.Mammography,
		FirstScreen:   input.FirstScreen,
		CervicalSmear: input.CervicalSmear,
		AdultHealth:   input.AdultHealth,
		Hepatitis:     input.Hepatitis,
		Colorectal:    input.Colorectal,
		Notes:         input.Notes,
		Session:       input.Session,
		Year:          model.Year(now),
		InviteDate:    model.DayKey(now),
		CreateTime:    now,
		LastModified:  now,
		SyncStatus:    model.StatusPending,
	}

	rec.ApplySession(desc)

	m.mx.Lock()

	rec.Inviter = m.user.GetName()

	// newest first
	m.records = append([]*model.InvitationRecord{rec}, m.records...)
	m.persist()

	m.mx.Unlock()

	m.changeCb.AddMessage(rec.Clone())

	return rec.Clone(), nil
}

// Update merges a patch into an existing record. Returns false when the
// record is gone. Editing a synced record demotes it back to pending; records
// that are pending, syncing or in error keep their status.
func (m *Manager) Update(localID string, patch *Patch) (bool, error) {
	if patch == nil {
		patch = &Patch{}
	}

	var desc *model.SessionDescriptor

	if patch.SessionInfo != nil {
		var err error

		desc, err = model.ParseSessionDescriptor(*patch.SessionInfo)
		if err != nil {
			return false, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
	}

	if patch.Session != nil && !model.ValidSession(*patch.Session) {
		return false, fmt.Errorf("%w: invalid session %q", ErrValidation, *patch.Session)
	}

	m.mx.Lock()

	rec := m.get(localID)

	if rec == nil {
		m.mx.Unlock()

		return false, nil
	}

	applyPatch(rec, patch)

	if desc != nil {
		rec.ApplySession(desc)
	}

	rec.LastModified = m.nowFn()

	if rec.SyncStatus == model.StatusSynced {
		rec.SyncStatus = model.StatusPending
		rec.SyncError = ""
	}

	m.persist()

	res := rec.Clone()

	m.mx.Unlock()

	m.changeCb.AddMessage(res)

	return true, nil
}

// Delete removes a record locally. No tombstone: a record already accepted by
// the server stays there.
func (m *Manager) Delete(localID string) bool {
	m.mx.Lock()

	found := false

	for i, rec := range m.records {
		if rec.LocalID == localID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			found = true

			break
		}
	}

	if found {
		m.persist()
	}

	m.mx.Unlock()

	if found {
		m.deleteCb.AddMessage(localID)
	}

	return found
}

func (m *Manager) Get(localID string) *model.InvitationRecord {
	m.mx.Lock()
	defer m.mx.Unlock()

	return m.get(localID).Clone()
}

// ListForDay returns the records for one invite day, newest first. Staff see
// their own records; admins see everyone's.
func (m *Manager) ListForDay(user *model.Staff, day string) []*model.InvitationRecord {
	m.mx.Lock()
	defer m.mx.Unlock()

	res := make([]*model.InvitationRecord, 0)

	for _, rec := range m.records {
		if rec.InviteDate != day {
			continue
		}

		if !user.IsAdmin() && rec.Inviter != user.GetName() {
			continue
		}

		res = append(res, rec.Clone())
	}

	return res
}

// Candidates returns the records the next sync run must push, in queue order.
func (m *Manager) Candidates() []*model.InvitationRecord {
	m.mx.Lock()
	defer m.mx.Unlock()

	res := make([]*model.InvitationRecord, 0)

	for _, rec := range m.records {
		if rec.NeedsSync() {
			res = append(res, rec.Clone())
		}
	}

	return res
}

// MarkSyncing flips the given records into the syncing state so the UI shows
// progress as soon as a run starts. Records deleted in the meantime are
// skipped.
func (m *Manager) MarkSyncing(localIDs []string) {
	changed := make([]*model.InvitationRecord, 0)

	m.mx.Lock()

	for _, id := range localIDs {
		if rec := m.get(id); rec.NeedsSync() {
			rec.SyncStatus = model.StatusSyncing
			changed = append(changed, rec.Clone())
		}
	}

	if len(changed) > 0 {
		m.persist()
	}

	m.mx.Unlock()

	for _, rec := range changed {
		m.changeCb.AddMessage(rec)
	}
}

// SetSynced records a successful submission. Returns false when the record
// was deleted mid-run; nothing is written back in that case.
func (m *Manager) SetSynced(localID, serverID string) bool {
	m.mx.Lock()

	rec := m.get(localID)

	if rec == nil {
		m.mx.Unlock()

		return false
	}

	rec.ID = serverID
	rec.SyncStatus = model.StatusSynced
	rec.SyncError = ""
	m.persist()

	res := rec.Clone()

	m.mx.Unlock()

	m.changeCb.AddMessage(res)

	return true
}

// SetError records a per-record sync failure. Returns false when the record
// was deleted mid-run.
func (m *Manager) SetError(localID, msg string) bool {
	m.mx.Lock()

	rec := m.get(localID)

	if rec == nil {
		m.mx.Unlock()

		return false
	}

	rec.SyncStatus = model.StatusError
	rec.SyncError = msg
	m.persist()

	res := rec.Clone()

	m.mx.Unlock()

	m.changeCb.AddMessage(res)

	return true
}

// Counts recomputes the per-bucket primary counts for one inviter and day.
// Records in error state do not occupy a slot.
func (m *Manager) Counts(inviter, day string) model.InvitationCounts {
	m.mx.Lock()
	defer m.mx.Unlock()

	counts := model.InvitationCounts{}

	for _, rec := range m.records {
		if rec.InviteDate == day && rec.Inviter == inviter && rec.CountsForQuota() {
			counts.Add(rec.Session)
		}
	}

	return counts
}

func (m *Manager) CurrentUser() *model.Staff {
	m.mx.Lock()
	defer m.mx.Unlock()

	return m.user
}

func (m *Manager) SetCurrentUser(user *model.Staff) {
	m.mx.Lock()
	defer m.mx.Unlock()

	m.user = user
	m.persist()
}

func (m *Manager) LastSync() time.Time {
	m.mx.Lock()
	defer m.mx.Unlock()

	return m.lastSync
}

func (m *Manager) SetLastSync(t time.Time) {
	m.mx.Lock()
	defer m.mx.Unlock()

	m.lastSync = t
	m.persist()
}

// get must be called with the lock held.
func (m *Manager) get(localID string) *model.InvitationRecord {
	for _, rec := range m.records {
		if rec.LocalID == localID {
			return rec
		}
	}

	return nil
}

// persist must be called with the lock held. A store failure is logged and
// the in-memory state stays authoritative.
func (m *Manager) persist() {
	st := &localstore.State{
		Records:     m.records,
		CurrentUser: m.user,
		LastSync:    m.lastSync,
	}

	if err := m.store.Save(st); err != nil {
		m.logger.Error("error saving state", slog.Any("error", err))
	}
}
