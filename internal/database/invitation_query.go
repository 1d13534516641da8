package database

import (
	"gorm.io/gorm"

	"github.com/opencare/screeninvite/pkg/model"
)

type InvitationQuery struct {
	Query[model.InvitationRecord]
	id         string
	localID    string
	idOrLocal  string
	inviter    string
	inviteDate string
	typ        string
	session    string
}

func NewInvitationQuery(db *gorm.DB) *InvitationQuery {
	return &InvitationQuery{
		Query: Query[model.InvitationRecord]{
			db:     db,
			limit:  1000,
			offset: 0,
			order:  "create_time desc",
		},
	}
}

func (q *InvitationQuery) Order(s string) *InvitationQuery {
	q.order = s
	return q
}

func (q *InvitationQuery) Limit(n int) *InvitationQuery {
	q.limit = n
	return q
}

func (q *InvitationQuery) Id(id string) *InvitationQuery {
	q.id = id
	return q
}

func (q *InvitationQuery) LocalId(id string) *InvitationQuery {
	q.localID = id
	return q
}

// IdOrLocalId matches either key, the way clients may address a record.
func (q *InvitationQuery) IdOrLocalId(id string) *InvitationQuery {
	q.idOrLocal = id
	return q
}

func (q *InvitationQuery) Inviter(name string) *InvitationQuery {
	q.inviter = name
	return q
}

func (q *InvitationQuery) InviteDate(day string) *InvitationQuery {
	q.inviteDate = day
	return q
}

func (q *InvitationQuery) Type(s string) *InvitationQuery {
	q.typ = s
	return q
}

func (q *InvitationQuery) Session(s string) *InvitationQuery {
	q.session = s
	return q
}

func (q *InvitationQuery) where() *gorm.DB {
	tx := q.db

	if q.id != "" {
		tx = tx.Where("id = ?", q.id)
	}

	if q.localID != "" {
		tx = tx.Where("local_id = ?", q.localID)
	}

	if q.idOrLocal != "" {
		tx = tx.Where("id = ? OR local_id = ?", q.idOrLocal, q.idOrLocal)
	}

	if q.inviter != "" {
		tx = tx.Where("inviter = ?", q.inviter)
	}

	if q.inviteDate != "" {
		tx = tx.Where("invite_date = ?", q.inviteDate)
	}

	if q.typ != "" {
		tx = tx.Where("appointment_type = ?", q.typ)
	}

	if q.session != "" {
		tx = tx.Where("session = ?", q.session)
	}

	return tx
}

func (q *InvitationQuery) Get() []*model.InvitationRecord {
	return q.get(q.where().Model(&model.InvitationRecord{}))
}

func (q *InvitationQuery) One() *model.InvitationRecord {
	return q.one(q.where().Model(&model.InvitationRecord{}))
}

func (q *InvitationQuery) Count() int64 {
	return q.count(q.where().Model(&model.InvitationRecord{}))
}

func (q *InvitationQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.InvitationRecord{}), updates)
}

func (q *InvitationQuery) Delete() error {
	return q.where().Delete(&model.InvitationRecord{}).Error
}

// CountsFor recomputes the authoritative per-bucket primary counts for one
// inviter and invite day. Empty inviter counts everyone (admin view).
func (m *Manager) CountsFor(inviter, day string) model.InvitationCounts {
	counts := model.InvitationCounts{}

	q := m.InvitationQuery().InviteDate(day).Type(model.AppointmentPrimary).Limit(0)

	if inviter != "" {
		q = q.Inviter(inviter)
	}

	for _, rec := range q.Get() {
		counts.Add(rec.Session)
	}

	return counts
}
