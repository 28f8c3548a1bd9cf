package rtc

import (
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
)

// QualityFromState collapses engine connection states into the coarse
// quality signal surfaced to clients.
func QualityFromState(state ConnectionState) model.ConnectionQuality {
	switch state {
	case StateCompleted:
		return model.QualityExcellent
	case StateConnected:
		return model.QualityGood
	case StateNew, StateChecking:
		return model.QualityFair
	default:
		return model.QualityPoor
	}
}
