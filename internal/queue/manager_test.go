package queue

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencare/screeninvite/internal/localstore"
	"github.com/opencare/screeninvite/pkg/model"
)

var testTime = time.Date(2025, 9, 1, 9, 30, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *localstore.Store) {
	t.Helper()

	store := localstore.New(filepath.Join(t.TempDir(), "state.yml"))
	m := New(store, func() time.Time { return testTime })
	m.SetCurrentUser(&model.Staff{Name: "alice"})

	return m, store
}

func validInput() *SubmitInput {
	return &SubmitInput{
		Name:        "participant",
		Phone1:      "0911222333",
		Session:     model.SessionMorning,
		SessionInfo: "20250901-north-city hall-primary",
	}
}

func TestCreateRoundTrip(t *testing.T) {
	m, _ := newTestManager(t)

	rec, err := m.Create(validInput())

	require.NoError(t, err)
	assert.NotEmpty(t, rec.LocalID)
	assert.Equal(t, model.StatusPending, rec.SyncStatus)
	assert.Equal(t, "0901", rec.InviteDate)
	assert.Equal(t, "0901", rec.Date)
	assert.Equal(t, "north", rec.Region)
	assert.Equal(t, model.AppointmentPrimary, rec.AppointmentType)
	assert.Equal(t, "alice", rec.Inviter)
	assert.Equal(t, "2025", rec.Year)

	list := m.ListForDay(&model.Staff{Name: "alice"}, "0901")

	require.Len(t, list, 1)
	assert.Equal(t, rec.LocalID, list[0].LocalID)
	assert.Equal(t, "participant", list[0].Name)
}

func TestCreateNewestFirst(t *testing.T) {
	m, _ := newTestManager(t)

	first, err := m.Create(validInput())
	require.NoError(t, err)

	in := validInput()
	in.Name = "second"
	second, err := m.Create(in)
	require.NoError(t, err)

	list := m.ListForDay(&model.Staff{Name: "alice"}, "0901")

	require.Len(t, list, 2)
	assert.Equal(t, second.LocalID, list[0].LocalID)
	assert.Equal(t, first.LocalID, list[1].LocalID)
}

func TestCreateValidation(t *testing.T) {
	m, _ := newTestManager(t)

	for name, in := range map[string]*SubmitInput{
		"no name":        {Phone1: "1", Session: model.SessionMorning, SessionInfo: "20250901-n-l-primary"},
		"no phone":       {Name: "x", Session: model.SessionMorning, SessionInfo: "20250901-n-l-primary"},
		"bad session":    {Name: "x", Phone1: "1", Session: "noon", SessionInfo: "20250901-n-l-primary"},
		"bad descriptor": {Name: "x", Phone1: "1", Session: model.SessionMorning, SessionInfo: "20250901"},
	} {
		_, err := m.Create(in)
		assert.ErrorIs(t, err, ErrValidation, name)
	}

	assert.Empty(t, m.ListForDay(&model.Staff{Name: "alice"}, "0901"))
}

func TestEmptyPatchKeepsStatus(t *testing.T) {
	m, _ := newTestManager(t)

	rec, err := m.Create(validInput())
	require.NoError(t, err)

	ok, err := m.Update(rec.LocalID, &Patch{})

	require.NoError(t, err)
	assert.True(t, ok)

	rec1 := m.Get(rec.LocalID)

	assert.Equal(t, model.StatusPending, rec1.SyncStatus)
	assert.Equal(t, rec.Name, rec1.Name)
	assert.Equal(t, rec.InviteDate, rec1.InviteDate)
}

func TestEditSyncedDemotesToPending(t *testing.T) {
	m, _ := newTestManager(t)

	rec, err := m.Create(validInput())
	require.NoError(t, err)

	require.True(t, m.SetSynced(rec.LocalID, "INV42"))

	phone := "0999888777"
	ok, err := m.Update(rec.LocalID, &Patch{Phone1: &phone})

	require.NoError(t, err)
	assert.True(t, ok)

	rec1 := m.Get(rec.LocalID)

	assert.Equal(t, model.StatusPending, rec1.SyncStatus)
	assert.Equal(t, "0999888777", rec1.Phone1)
	assert.Equal(t, "INV42", rec1.ID)
	assert.Equal(t, rec.InviteDate, rec1.InviteDate)
}

func TestUpdateAbsent(t *testing.T) {
	m, _ := newTestManager(t)

	ok, err := m.Update("nope", &Patch{})

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateSessionInfoRederives(t *testing.T) {
	m, _ := newTestManager(t)

	rec, err := m.Create(validInput())
	require.NoError(t, err)

	info := "20250902-south-clinic-secondary"
	ok, err := m.Update(rec.LocalID, &Patch{SessionInfo: &info})

	require.NoError(t, err)
	assert.True(t, ok)

	rec1 := m.Get(rec.LocalID)

	assert.Equal(t, "0902", rec1.Date)
	assert.Equal(t, "south", rec1.Region)
	assert.Equal(t, model.AppointmentSecondary, rec1.AppointmentType)
	// invite date is fixed at creation
	assert.Equal(t, "0901", rec1.InviteDate)
}

func TestDelete(t *testing.T) {
	m, _ := newTestManager(t)

	rec, err := m.Create(validInput())
	require.NoError(t, err)

	assert.True(t, m.Delete(rec.LocalID))
	assert.False(t, m.Delete(rec.LocalID))
	assert.Nil(t, m.Get(rec.LocalID))
}

func TestSetStatusOnDeletedRecord(t *testing.T) {
	m, _ := newTestManager(t)

	rec, err := m.Create(validInput())
	require.NoError(t, err)

	m.MarkSyncing([]string{rec.LocalID})
	require.True(t, m.Delete(rec.LocalID))

	assert.False(t, m.SetSynced(rec.LocalID, "INV1"))
	assert.False(t, m.SetError(rec.LocalID, "boom"))
	assert.Nil(t, m.Get(rec.LocalID))
	assert.Empty(t, m.ListForDay(&model.Staff{Name: "alice"}, "0901"))
}

func TestCandidatesAndMarkSyncing(t *testing.T) {
	m, _ := newTestManager(t)

	r1, err := m.Create(validInput())
	require.NoError(t, err)
	r2, err := m.Create(validInput())
	require.NoError(t, err)

	require.Len(t, m.Candidates(), 2)

	m.MarkSyncing([]string{r1.LocalID, r2.LocalID})

	assert.Empty(t, m.Candidates())

	require.True(t, m.SetError(r1.LocalID, "rejected"))
	require.True(t, m.SetSynced(r2.LocalID, "INV2"))

	cands := m.Candidates()

	require.Len(t, cands, 1)
	assert.Equal(t, r1.LocalID, cands[0].LocalID)
	assert.Equal(t, "rejected", cands[0].SyncError)
}

func TestCounts(t *testing.T) {
	m, _ := newTestManager(t)

	for i := 0; i < 3; i++ {
		_, err := m.Create(validInput())
		require.NoError(t, err)
	}

	in := validInput()
	in.Session = model.SessionEvening
	in.SessionInfo = "20250901-north-city hall-secondary"
	_, err := m.Create(in)
	require.NoError(t, err)

	counts := m.Counts("alice", "0901")

	assert.Equal(t, 3, counts.Morning)
	assert.Equal(t, 0, counts.Evening)
	assert.Equal(t, 3, counts.Total)
}

func TestCountsExcludeErrored(t *testing.T) {
	m, _ := newTestManager(t)

	rec, err := m.Create(validInput())
	require.NoError(t, err)

	require.True(t, m.SetError(rec.LocalID, "quota reached (3/3)"))

	counts := m.Counts("alice", "0901")

	assert.Equal(t, 0, counts.Morning)
}

func TestAdminSeesAll(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Create(validInput())
	require.NoError(t, err)

	assert.Empty(t, m.ListForDay(&model.Staff{Name: "bob"}, "0901"))
	assert.Len(t, m.ListForDay(&model.Staff{Name: "boss", Role: model.RoleAdmin}, "0901"), 1)
}

func TestStatePersistsAcrossManagers(t *testing.T) {
	m, store := newTestManager(t)

	rec, err := m.Create(validInput())
	require.NoError(t, err)

	m1 := New(store, func() time.Time { return testTime })

	assert.Equal(t, "alice", m1.CurrentUser().GetName())

	rec1 := m1.Get(rec.LocalID)

	require.NotNil(t, rec1)
	assert.Equal(t, model.StatusPending, rec1.SyncStatus)
}
