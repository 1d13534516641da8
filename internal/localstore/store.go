// Package localstore keeps the client's durable state in one yaml file:
// the invitation queue, the signed-in staff member and the last sync time.
// Loads fail soft (empty state), saves are atomic via tmp file + rename.
package localstore

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opencare/screeninvite/pkg/model"
)

type State struct {
	Records     []*model.InvitationRecord `yaml:"records"`
	CurrentUser *model.Staff              `yaml:"current_user,omitempty"`
	LastSync    time.Time                 `yaml:"last_sync,omitempty"`
}

type Store struct {
	path   string
	logger *slog.Logger

	mx sync.Mutex
}

func New(path string) *Store {
	return &Store{
		path:   path,
		logger: slog.Default().With("logger", "localstore"),
	}
}

// Load reads the saved state. Any failure yields an empty state so a broken
// or missing file never blocks the client from starting.
func (s *Store) Load() *State {
	s.mx.Lock()
	defer s.mx.Unlock()

	st := &State{}

	dat, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("error reading state file", slog.Any("error", err))
		}

		return st
	}

	if err := yaml.Unmarshal(dat, st); err != nil {
		s.logger.Error("error parsing state file, starting empty", slog.Any("error", err))

		return &State{}
	}

	if st.Records == nil {
		st.Records = make([]*model.InvitationRecord, 0)
	}

	return st
}

// Save writes the full state. The previous file stays intact if the write
// fails.
func (s *Store) Save(st *State) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	dat, err := yaml.Marshal(st)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"

	if err := os.WriteFile(tmp, dat, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}
