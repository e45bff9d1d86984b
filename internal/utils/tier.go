package utils

import (
	"time"

	"sponsorhub-backend/internal/domain"
)

// Tier thresholds in major currency units
const (
	SilverThreshold   = 10000.0
	GoldThreshold     = 25000.0
	PlatinumThreshold = 50000.0
)

// TierFor maps a contribution value to its tier label
func TierFor(value float64) domain.TierName {
	switch {
	case value >= PlatinumThreshold:
		return domain.TierPlatinum
	case value >= GoldThreshold:
		return domain.TierGold
	case value >= SilverThreshold:
		return domain.TierSilver
	default:
		return domain.TierCommunity
	}
}

// CalculateTier returns the tier for value, stamped with the calculation time.
// Negative values are treated as zero.
func CalculateTier(value float64) domain.Tier {
	if value < 0 {
		value = 0
	}
	return domain.Tier{
		Name:           TierFor(value),
		CalculatedFrom: value,
		CalculatedAt:   time.Now().UTC(),
	}
}
