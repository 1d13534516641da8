package quota

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opencare/screeninvite/pkg/model"
)

func TestSecondaryAlwaysAllowed(t *testing.T) {
	counts := model.InvitationCounts{Morning: 100, Afternoon: 100, Evening: 100, Total: 300}
	limits := model.QuotaLimits{}

	for _, s := range []string{model.SessionMorning, model.SessionAfternoon, model.SessionEvening} {
		d := Evaluate(s, model.AppointmentSecondary, counts, limits)
		assert.True(t, d.Allowed)
		assert.Empty(t, d.Reason)
	}
}

func TestZeroQuotaBlocks(t *testing.T) {
	d := Evaluate(model.SessionMorning, model.AppointmentPrimary,
		model.InvitationCounts{}, model.QuotaLimits{Afternoon: 5})

	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "zero quota")
}

func TestQuotaReached(t *testing.T) {
	d := Evaluate(model.SessionEvening, model.AppointmentPrimary,
		model.InvitationCounts{Evening: 3},
		model.QuotaLimits{Evening: 3})

	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "3/3")
}

func TestQuotaOverLimit(t *testing.T) {
	d := Evaluate(model.SessionMorning, model.AppointmentPrimary,
		model.InvitationCounts{Morning: 5},
		model.QuotaLimits{Morning: 3})

	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "5/3")
}

func TestUnderQuotaAllowed(t *testing.T) {
	d := Evaluate(model.SessionMorning, model.AppointmentPrimary,
		model.InvitationCounts{Morning: 2},
		model.QuotaLimits{Morning: 3})

	assert.True(t, d.Allowed)
}

func TestUnknownSessionAllowed(t *testing.T) {
	d := Evaluate("midnight", model.AppointmentPrimary,
		model.InvitationCounts{}, model.QuotaLimits{})

	assert.True(t, d.Allowed)
}
