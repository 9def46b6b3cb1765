package calculation

import (
	"github.com/hpgo/household-planner/internal/domain"
)

// Timeline derives the inclusive sequence of simulated years from the
// settings: yearStart through yearStart + (ageDie - ageNow).
func Timeline(settings *domain.Settings) ([]int, error) {
	ageNow := settings.AgeNow()
	if settings.AgeDie < ageNow {
		return nil, domain.ConfigErrorf("age at death %d precedes current age %d", settings.AgeDie, ageNow)
	}
	span := settings.AgeDie - ageNow
	years := make([]int, 0, span+1)
	for y := settings.YearStart; y <= settings.YearStart+span; y++ {
		years = append(years, y)
	}
	return years, nil
}
