package repository

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/opencare/screeninvite/pkg/model"
)

var _ ScheduleRepository = &ScheduleFileRepository{}

// ScheduleEntry is one planned session in the schedule file. Quota is the
// primary-appointment capacity as "morning/afternoon/evening", e.g. "3/2/0".
type ScheduleEntry struct {
	Date            string   `yaml:"date"`
	Region          string   `yaml:"region"`
	Location        string   `yaml:"location"`
	AppointmentType string   `yaml:"appointment_type"`
	Quota           string   `yaml:"quota,omitempty"`
	Staff           []string `yaml:"staff,omitempty"`
}

func (e *ScheduleEntry) descriptor() *model.SessionDescriptor {
	typ := e.AppointmentType

	if typ == "" {
		typ = model.AppointmentSecondary
	}

	return &model.SessionDescriptor{
		Date:            e.Date,
		Region:          e.Region,
		Location:        e.Location,
		AppointmentType: typ,
	}
}

func (e *ScheduleEntry) hasStaff(name string) bool {
	for _, s := range e.Staff {
		if s == name {
			return true
		}
	}

	return false
}

// ScheduleFileRepository serves session options and quota limits from a yaml
// file, reloaded on change like the staff file.
type ScheduleFileRepository struct {
	scheduleFile string
	logger       *slog.Logger
	entries      []*ScheduleEntry

	watcher *fsnotify.Watcher

	mx sync.RWMutex
}

func NewFileScheduleRepo(scheduleFile string) *ScheduleFileRepository {
	r := &ScheduleFileRepository{
		logger:       slog.Default().With("logger", "ScheduleManager"),
		scheduleFile: scheduleFile,
	}

	if err := r.loadScheduleFile(); err != nil {
		r.logger.Error("error loading schedule file", slog.Any("error", err))
	}

	return r
}

func (r *ScheduleFileRepository) loadScheduleFile() error {
	r.mx.Lock()
	defer r.mx.Unlock()

	if _, err := os.Lstat(r.scheduleFile); os.IsNotExist(err) {
		f, err := os.Create(r.scheduleFile)
		if err != nil {
			return err
		}

		return f.Close()
	}

	dat, err := os.ReadFile(r.scheduleFile)
	if err != nil {
		return err
	}

	data := &struct {
		Sessions []*ScheduleEntry `yaml:"sessions"`
	}{}

	if err := yaml.Unmarshal(dat, data); err != nil {
		return err
	}

	r.entries = data.Sessions

	return nil
}

func (r *ScheduleFileRepository) Start() error {
	var err error
	r.watcher, err = fsnotify.NewWatcher()

	if err != nil {
		return err
	}

	if err := r.watcher.Add(r.scheduleFile); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-r.watcher.Events:
				if !ok {
					return
				}

				r.logger.Debug(fmt.Sprintf("event: %v", event))

				if event.Has(fsnotify.Write) && event.Name == r.scheduleFile {
					r.logger.Info("schedule file is modified, reloading")

					if err := r.loadScheduleFile(); err != nil {
						r.logger.Error("error", slog.Any("error", err))
					}
				}
			case err, ok := <-r.watcher.Errors:
				if !ok {
					return
				}

				r.logger.Error("error", slog.Any("error", err))
			}
		}
	}()

	return nil
}

func (r *ScheduleFileRepository) Stop() {
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
}

// SessionsFor returns the sessions a staff member may book into, today or
// later, deduped and sorted by date. Staff with no assigned sessions at all
// are planners and see the full schedule.
func (r *ScheduleFileRepository) SessionsFor(staffName, fromDate string) []*model.SessionOption {
	r.mx.RLock()
	defer r.mx.RUnlock()

	assigned := false

	for _, e := range r.entries {
		if e.hasStaff(staffName) {
			assigned = true

			break
		}
	}

	seen := make(map[string]bool)
	res := make([]*model.SessionOption, 0)

	for _, e := range r.entries {
		if e.Date == "" || e.Date < fromDate {
			continue
		}

		if assigned && !e.hasStaff(staffName) {
			continue
		}

		opt := e.descriptor().Option()

		if seen[opt.Value] {
			continue
		}

		seen[opt.Value] = true
		res = append(res, opt)
	}

	sort.Slice(res, func(i, j int) bool { return res[i].Date < res[j].Date })

	return res
}

// QuotaFor returns the staff member's primary-appointment capacity from the
// first primary entry assigned to them. Zeros mean nothing is offered.
func (r *ScheduleFileRepository) QuotaFor(staffName string) model.QuotaLimits {
	r.mx.RLock()
	defer r.mx.RUnlock()

	for _, e := range r.entries {
		if e.AppointmentType != model.AppointmentPrimary || e.Quota == "" {
			continue
		}

		if !e.hasStaff(staffName) {
			continue
		}

		return parseQuota(e.Quota)
	}

	return model.QuotaLimits{}
}

func parseQuota(s string) model.QuotaLimits {
	parts := strings.Split(s, "/")

	if len(parts) < 3 {
		return model.QuotaLimits{}
	}

	q := model.QuotaLimits{}
	q.Morning, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	q.Afternoon, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	q.Evening, _ = strconv.Atoi(strings.TrimSpace(parts[2]))
	q.Total = q.Morning + q.Afternoon + q.Evening

	return q
}
