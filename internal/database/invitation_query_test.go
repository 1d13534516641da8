package database

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opencare/screeninvite/pkg/model"
)

func getTestManager(t *testing.T) *Manager {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	m := New(db)
	require.NoError(t, m.Migrate())

	return m
}

func rec(id, localID, inviter, day, typ, session string) *model.InvitationRecord {
	return &model.InvitationRecord{
		ID:              id,
		LocalID:         localID,
		Name:            "p-" + id,
		Phone1:          "0911",
		Inviter:         inviter,
		InviteDate:      day,
		AppointmentType: typ,
		Session:         session,
		CreateTime:      time.Now(),
		LastModified:    time.Now(),
	}
}

func TestInvitationQueryFilters(t *testing.T) {
	m := getTestManager(t)

	require.NoError(t, m.Create(rec("i1", "l1", "alice", "0901", model.AppointmentPrimary, model.SessionMorning)))
	require.NoError(t, m.Create(rec("i2", "l2", "alice", "0901", model.AppointmentPrimary, model.SessionEvening)))
	require.NoError(t, m.Create(rec("i3", "l3", "bob", "0901", model.AppointmentSecondary, model.SessionMorning)))
	require.NoError(t, m.Create(rec("i4", "l4", "alice", "0902", model.AppointmentPrimary, model.SessionMorning)))

	assert.Len(t, m.InvitationQuery().Inviter("alice").Get(), 3)
	assert.Len(t, m.InvitationQuery().InviteDate("0901").Get(), 3)
	assert.Len(t, m.InvitationQuery().Type(model.AppointmentPrimary).Get(), 3)
	assert.EqualValues(t, 1, m.InvitationQuery().Inviter("bob").Count())

	one := m.InvitationQuery().LocalId("l2").One()

	require.NotNil(t, one)
	assert.Equal(t, "i2", one.ID)

	assert.NotNil(t, m.InvitationQuery().IdOrLocalId("i3").One())
	assert.NotNil(t, m.InvitationQuery().IdOrLocalId("l3").One())
	assert.Nil(t, m.InvitationQuery().IdOrLocalId("nope").One())
}

func TestCountsFor(t *testing.T) {
	m := getTestManager(t)

	require.NoError(t, m.Create(rec("i1", "l1", "alice", "0901", model.AppointmentPrimary, model.SessionMorning)))
	require.NoError(t, m.Create(rec("i2", "l2", "alice", "0901", model.AppointmentPrimary, model.SessionMorning)))
	require.NoError(t, m.Create(rec("i3", "l3", "alice", "0901", model.AppointmentSecondary, model.SessionMorning)))
	require.NoError(t, m.Create(rec("i4", "l4", "bob", "0901", model.AppointmentPrimary, model.SessionEvening)))

	counts := m.CountsFor("alice", "0901")

	assert.Equal(t, 2, counts.Morning)
	assert.Equal(t, 0, counts.Evening)
	assert.Equal(t, 2, counts.Total)

	all := m.CountsFor("", "0901")

	assert.Equal(t, 2, all.Morning)
	assert.Equal(t, 1, all.Evening)
	assert.Equal(t, 3, all.Total)
}

func TestNewestFirstOrder(t *testing.T) {
	m := getTestManager(t)

	old := rec("i1", "l1", "alice", "0901", model.AppointmentPrimary, model.SessionMorning)
	old.CreateTime = time.Now().Add(-time.Hour)
	require.NoError(t, m.Create(old))

	require.NoError(t, m.Create(rec("i2", "l2", "alice", "0901", model.AppointmentPrimary, model.SessionMorning)))

	res := m.InvitationQuery().InviteDate("0901").Get()

	require.Len(t, res, 2)
	assert.Equal(t, "i2", res[0].ID)
	assert.Equal(t, "i1", res[1].ID)
}

func TestUpdateAndDelete(t *testing.T) {
	m := getTestManager(t)

	require.NoError(t, m.Create(rec("i1", "l1", "alice", "0901", model.AppointmentPrimary, model.SessionMorning)))

	require.NoError(t, m.InvitationQuery().Id("i1").Update(map[string]any{"phone1": "0999"}))
	assert.Error(t, m.InvitationQuery().Id("nope").Update(map[string]any{"phone1": "0999"}))

	one := m.InvitationQuery().Id("i1").One()

	require.NotNil(t, one)
	assert.Equal(t, "0999", one.Phone1)

	require.NoError(t, m.InvitationQuery().Id("i1").Delete())
	assert.Nil(t, m.InvitationQuery().Id("i1").One())
}
