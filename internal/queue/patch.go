package queue

import "github.com/opencare/screeninvite/pkg/model"

func applyPatch(rec *model.InvitationRecord, patch *Patch) {
	if patch.Name != nil {
		rec.Name = *patch.Name
	}

	if patch.Phone1 != nil {
		rec.Phone1 = *patch.Phone1
	}

	if patch.Phone2 != nil {
		rec.Phone2 = *patch.Phone2
	}

	if patch.Mammography != nil {
		rec.Mammography = *patch.Mammography
	}

	if patch.FirstScreen != nil {
		rec.FirstScreen = *patch.FirstScreen
	}

	if patch.CervicalSmear != nil {
		rec.CervicalSmear = *patch.CervicalSmear
	}

	if patch.AdultHealth != nil {
		rec.AdultHealth = *patch.AdultHealth
	}

	if patch.Hepatitis != nil {
		rec.Hepatitis = *patch.Hepatitis
	}

	if patch.Colorectal != nil {
		rec.Colorectal = *patch.Colorectal
	}

	if patch.Notes != nil {
		rec.Notes = *patch.Notes
	}

	if patch.Session != nil {
		rec.Session = *patch.Session
	}
}
