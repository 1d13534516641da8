package model

import (
	"fmt"
	"strings"
)

const (
	AppointmentPrimary   = "primary"
	AppointmentSecondary = "secondary"

	SessionMorning   = "morning"
	SessionAfternoon = "afternoon"
	SessionEvening   = "evening"
)

// SessionDescriptor is the composite session key produced by the schedule:
// date-region-location-appointmentType, hyphen-joined. Date is YYYYMMDD.
type SessionDescriptor struct {
	Date            string
	Region          string
	Location        string
	AppointmentType string
}

// ParseSessionDescriptor splits a composite key into its four parts. A missing
// fourth segment defaults to the secondary appointment type.
func ParseSessionDescriptor(s string) (*SessionDescriptor, error) {
	parts := strings.SplitN(s, "-", 4)

	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid session descriptor %q", s)
	}

	d := &SessionDescriptor{
		Date:            parts[0],
		Region:          parts[1],
		Location:        parts[2],
		AppointmentType: AppointmentSecondary,
	}

	if len(parts) == 4 && parts[3] != "" {
		d.AppointmentType = parts[3]
	}

	if d.Date == "" || d.Region == "" || d.Location == "" {
		return nil, fmt.Errorf("invalid session descriptor %q", s)
	}

	return d, nil
}

func (d *SessionDescriptor) String() string {
	return strings.Join([]string{d.Date, d.Region, d.Location, d.AppointmentType}, "-")
}

// ShortDate is the MMDD form used in stored records.
func (d *SessionDescriptor) ShortDate() string {
	if len(d.Date) > 4 {
		return d.Date[4:]
	}

	return d.Date
}

// Display is the human form shown in session pickers.
func (d *SessionDescriptor) Display() string {
	date := d.Date

	if len(date) == 8 {
		date = date[4:6] + "/" + date[6:]
	}

	return fmt.Sprintf("%s / %s / %s / %s", date, d.Region, d.Location, d.AppointmentType)
}

type SessionOption struct {
	Value           string `json:"value"`
	Display         string `json:"display"`
	Date            string `json:"date"`
	Region          string `json:"region"`
	Location        string `json:"location"`
	AppointmentType string `json:"appointment_type"`
}

func (d *SessionDescriptor) Option() *SessionOption {
	return &SessionOption{
		Value:           d.String(),
		Display:         d.Display(),
		Date:            d.Date,
		Region:          d.Region,
		Location:        d.Location,
		AppointmentType: d.AppointmentType,
	}
}

func ValidSession(s string) bool {
	switch s {
	case SessionMorning, SessionAfternoon, SessionEvening:
		return true
	default:
		return false
	}
}
