// Package database is the server's storage layer on gorm/sqlite. It replaces
// the spreadsheet of the hosted deployment while keeping the same row
// semantics: one invitation per row, localId as the client dedup key.
package database

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/opencare/screeninvite/pkg/model"
)

type Manager struct {
	db     *gorm.DB
	logger *slog.Logger
}

func New(db *gorm.DB) *Manager {
	return &Manager{
		db:     db,
		logger: slog.With("logger", "dbm"),
	}
}

func (m *Manager) Migrate() error {
	if m == nil || m.db == nil {
		return nil
	}

	return m.db.AutoMigrate(&model.InvitationRecord{})
}

func (m *Manager) Create(s any) error {
	if m == nil || m.db == nil {
		return nil
	}

	err := m.db.Create(s).Error

	if err != nil {
		m.logger.Error("error create object", slog.Any("error", err))
	}

	return err
}

func (m *Manager) Save(s any) error {
	if m == nil || m.db == nil {
		return nil
	}

	err := m.db.Save(s).Error

	if err != nil {
		m.logger.Error("error saving object", slog.Any("error", err))
	}

	return err
}

func (m *Manager) InvitationQuery() *InvitationQuery {
	return NewInvitationQuery(m.db)
}
