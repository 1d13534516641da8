package repository

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/opencare/screeninvite/pkg/model"
)

var _ StaffRepository = &StaffFileRepository{}

// StaffFileRepository serves the staff list from a yaml file and reloads it
// on change, so accounts can be edited without a restart.
type StaffFileRepository struct {
	staffFile string
	logger    *slog.Logger
	staff     map[string]*model.Staff

	watcher *fsnotify.Watcher

	mx sync.RWMutex
}

func NewFileStaffRepo(staffFile string) *StaffFileRepository {
	r := &StaffFileRepository{
		logger:    slog.Default().With("logger", "StaffManager"),
		staffFile: staffFile,
		staff:     make(map[string]*model.Staff),
		mx:        sync.RWMutex{},
	}

	if err := r.loadStaffFile(); err != nil {
		r.logger.Error("error loading staff file", slog.Any("error", err))
	}

	if len(r.staff) == 0 {
		r.logger.Info("no valid staff found - create one")

		r.staff["admin"] = &model.Staff{Name: "admin", Role: model.RoleAdmin}
	}

	return r
}

func (r *StaffFileRepository) loadStaffFile() error {
	r.mx.Lock()
	defer r.mx.Unlock()

	if _, err := os.Lstat(r.staffFile); os.IsNotExist(err) {
		// create empty file
		f, err := os.Create(r.staffFile)
		if err != nil {
			return err
		}

		return f.Close()
	}

	dat, err := os.ReadFile(r.staffFile)
	if err != nil {
		return err
	}

	staff := make([]*model.Staff, 0)

	if err := yaml.Unmarshal(dat, &staff); err != nil {
		return err
	}

	r.staff = make(map[string]*model.Staff)

	for _, s := range staff {
		if s.Name != "" {
			r.staff[s.Name] = s
		}
	}

	return nil
}

func (r *StaffFileRepository) Start() error {
	var err error
	r.watcher, err = fsnotify.NewWatcher()

	if err != nil {
		return err
	}

	if err := r.watcher.Add(r.staffFile); err != nil {
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

				if event.Has(fsnotify.Write) && event.Name == r.staffFile {
					r.logger.Info("staff file is modified, reloading")

					if err := r.loadStaffFile(); err != nil {
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

func (r *StaffFileRepository) Stop() {
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
}

func (r *StaffFileRepository) CheckAuth(name, password string) bool {
	r.mx.RLock()
	defer r.mx.RUnlock()

	if s, ok := r.staff[name]; ok && !s.Disabled {
		return s.CheckPassword(password)
	}

	return false
}

func (r *StaffFileRepository) Get(name string) *model.Staff {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return r.staff[name]
}

// List returns active staff only.
func (r *StaffFileRepository) List() []*model.Staff {
	r.mx.RLock()
	defer r.mx.RUnlock()

	res := make([]*model.Staff, 0, len(r.staff))

	for _, s := range r.staff {
		if !s.Disabled {
			res = append(res, s)
		}
	}

	return res
}
