// Package quota decides whether a primary-appointment submission fits the
// inviter's per-session daily capacity. The same evaluation runs twice per
// submission: client-side against locally cached counts (advisory) and
// server-side against counts recomputed from the store (authoritative).
package quota

import (
	"fmt"

	"github.com/opencare/screeninvite/pkg/model"
)

type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Evaluate checks one submission against counts and limits. Only primary
// appointments are constrained; every other type is always allowed.
func Evaluate(session, appointmentType string, counts model.InvitationCounts, limits model.QuotaLimits) Decision {
	if appointmentType != model.AppointmentPrimary {
		return Decision{Allowed: true}
	}

	if !model.ValidSession(session) {
		return Decision{Allowed: true}
	}

	limit := limits.For(session)
	count := counts.For(session)

	if limit == 0 {
		return Decision{
			Reason: fmt.Sprintf("%s not accepted today (zero quota)", session),
		}
	}

	if count >= limit {
		return Decision{
			Reason: fmt.Sprintf("%s quota reached (%d/%d)", session, count, limit),
		}
	}

	return Decision{Allowed: true}
}
