package model

import (
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 14

const RoleAdmin = "admin"

// Staff is one entry of the staff file. Password is a bcrypt hash; an empty
// hash means the account has no password and any input is accepted.
type Staff struct {
	Name     string `yaml:"name" json:"name"`
	Role     string `yaml:"role,omitempty" json:"role,omitempty"`
	Password string `yaml:"password,omitempty" json:"-"`
	Disabled bool   `yaml:"disabled,omitempty" json:"-"`
}

type StaffDTO struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	HasPassword bool   `json:"hasPassword"`
}

func (s *Staff) GetName() string {
	if s == nil {
		return ""
	}

	return s.Name
}

func (s *Staff) GetRole() string {
	if s == nil || s.Role == "" {
		return "staff"
	}

	return s.Role
}

// IsAdmin reports whether the staff member sees every inviter's records.
func (s *Staff) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

func (s *Staff) CheckPassword(password string) bool {
	if s == nil {
		return false
	}

	if s.Password == "" {
		return true
	}

	err := bcrypt.CompareHashAndPassword([]byte(s.Password), []byte(password))
	if err != nil {
		slog.Debug("password check failed", slog.Any("error", err))

		return false
	}

	return true
}

func (s *Staff) SetPassword(password string) error {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}

	s.Password = string(b)

	return nil
}

func (s *Staff) DTO() *StaffDTO {
	if s == nil {
		return nil
	}

	return &StaffDTO{
		Name:        s.Name,
		Role:        s.GetRole(),
		HasPassword: s.Password != "",
	}
}
