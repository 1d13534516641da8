package model

import "time"

type SyncStatus string

const (
	StatusPending SyncStatus = "pending"
	StatusSyncing SyncStatus = "syncing"
	StatusSynced  SyncStatus = "synced"
	StatusError   SyncStatus = "error"
)

// InvitationRecord is one registration attempt for one participant in one
// session. The same struct is stored by the server (gorm), kept in the client
// queue (yaml) and sent over the wire (json). Sync fields are client-local and
// never persisted server-side.
type InvitationRecord struct {
	ID      string `gorm:"primaryKey" json:"id,omitempty" yaml:"id,omitempty"`
	LocalID string `gorm:"index;not null;default:''" json:"local_id" yaml:"local_id"`

	Name   string `gorm:"not null" json:"name" yaml:"name"`
	Phone1 string `gorm:"not null" json:"phone1" yaml:"phone1"`
	Phone2 string `gorm:"not null;default:''" json:"phone2,omitempty" yaml:"phone2,omitempty"`

	Mammography   bool `json:"mammography" yaml:"mammography,omitempty"`
	FirstScreen   bool `json:"first_screen" yaml:"first_screen,omitempty"`
	CervicalSmear bool `json:"cervical_smear" yaml:"cervical_smear,omitempty"`
	AdultHealth   bool `json:"adult_health" yaml:"adult_health,omitempty"`
	Hepatitis     bool `json:"hepatitis" yaml:"hepatitis,omitempty"`
	Colorectal    bool `json:"colorectal" yaml:"colorectal,omitempty"`

	Notes string `gorm:"not null;default:''" json:"notes,omitempty" yaml:"notes,omitempty"`

	Year            string `gorm:"not null;default:''" json:"year,omitempty" yaml:"year,omitempty"`
	Date            string `gorm:"index;not null;default:''" json:"date" yaml:"date"`
	Region          string `gorm:"not null;default:''" json:"region" yaml:"region"`
	Location        string `gorm:"not null;default:''" json:"location" yaml:"location"`
	Session         string `gorm:"index;not null;default:''" json:"session" yaml:"session"`
	SessionInfo     string `gorm:"-" json:"session_info,omitempty" yaml:"session_info,omitempty"`
	AppointmentType string `gorm:"index;not null;default:''" json:"appointment_type" yaml:"appointment_type"`

	Inviter    string `gorm:"index;not null;default:''" json:"inviter" yaml:"inviter"`
	InviteDate string `gorm:"index;not null;default:''" json:"invite_date" yaml:"invite_date"`

	CreateTime   time.Time `json:"create_time" yaml:"create_time"`
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`

	SyncStatus SyncStatus `gorm:"-" json:"sync_status,omitempty" yaml:"sync_status,omitempty"`
	SyncError  string     `gorm:"-" json:"sync_error,omitempty" yaml:"sync_error,omitempty"`
}

func (r *InvitationRecord) GetLocalID() string {
	if r == nil {
		return ""
	}

	return r.LocalID
}

func (r *InvitationRecord) IsPrimary() bool {
	return r != nil && r.AppointmentType == AppointmentPrimary
}

// NeedsSync reports whether the record is a candidate for the next sync run.
func (r *InvitationRecord) NeedsSync() bool {
	if r == nil {
		return false
	}

	return r.SyncStatus == StatusPending || r.SyncStatus == StatusError
}

// CountsForQuota reports whether the record occupies a quota slot locally.
// Records in error state are excluded: the server has not accepted them.
func (r *InvitationRecord) CountsForQuota() bool {
	if r == nil || !r.IsPrimary() {
		return false
	}

	switch r.SyncStatus {
	case StatusPending, StatusSyncing, StatusSynced:
		return true
	default:
		return false
	}
}

// ApplySession re-derives the session-descriptor fields.
func (r *InvitationRecord) ApplySession(d *SessionDescriptor) {
	r.SessionInfo = d.String()
	r.Date = d.ShortDate()
	r.Region = d.Region
	r.Location = d.Location
	r.AppointmentType = d.AppointmentType
}

func (r *InvitationRecord) Clone() *InvitationRecord {
	if r == nil {
		return nil
	}

	r1 := *r

	return &r1
}
