package model

// QuotaLimits is the per-inviter, per-day capacity for primary appointments.
// A zero bucket means the session is not offered that day.
type QuotaLimits struct {
	Morning   int `json:"morning"`
	Afternoon int `json:"afternoon"`
	Evening   int `json:"evening"`
	Total     int `json:"total"`
}

func (q QuotaLimits) For(session string) int {
	switch session {
	case SessionMorning:
		return q.Morning
	case SessionAfternoon:
		return q.Afternoon
	case SessionEvening:
		return q.Evening
	default:
		return 0
	}
}

// InvitationCounts is derived state: primary records per session bucket for
// one inviter and day. Never stored, always recomputed.
type InvitationCounts struct {
	Morning   int `json:"morning"`
	Afternoon int `json:"afternoon"`
	Evening   int `json:"evening"`
	Total     int `json:"total"`
}

func (c InvitationCounts) For(session string) int {
	switch session {
	case SessionMorning:
		return c.Morning
	case SessionAfternoon:
		return c.Afternoon
	case SessionEvening:
		return c.Evening
	default:
		return 0
	}
}

func (c *InvitationCounts) Add(session string) {
	switch session {
	case SessionMorning:
		c.Morning++
	case SessionAfternoon:
		c.Afternoon++
	case SessionEvening:
		c.Evening++
	default:
		return
	}

	c.Total++
}
