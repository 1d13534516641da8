package repository

import (
	"github.com/opencare/screeninvite/pkg/model"
)

type StaffRepository interface {
	Start() error
	Stop()
	CheckAuth(name, password string) bool
	Get(name string) *model.Staff
	List() []*model.Staff
}

type ScheduleRepository interface {
	Start() error
	Stop()
	SessionsFor(staffName, fromDate string) []*model.SessionOption
	QuotaFor(staffName string) model.QuotaLimits
}
