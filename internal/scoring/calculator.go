// Package scoring computes the opportunity score: a 0-100 integer that
// summarizes how valuable and engaged a client currently is. The score is
// advisory and never gates a workflow.
package scoring

import (
	"math"
	"time"
)

const (
	maxRecencyPoints    = 40.0
	maxEngagementPoints = 30.0
	maxExpiryPoints     = 20.0
	segmentClientPoints = 10.0
	segmentProspect     = 5.0

	recencyDecayDays = 30.0
	expiryWindowDays = 60.0
)

// ContractSnapshot is the slice of contract data the calculator needs.
type ContractSnapshot struct {
	Status  string
	EndDate *time.Time
}

// Inputs holds everything the score is a pure function of.
type Inputs struct {
	Now                time.Time
	LastContactAt      *time.Time
	MessagesLast30Days int
	Contracts          []ContractSnapshot
}

// Calculate returns the opportunity score for the given inputs.
// Components: recency of last contact (max 40), message volume over the
// trailing 30 days (max 30), urgency of the soonest active contract expiry
// (max 20), and client vs prospect segment (10 or 5).
func Calculate(in Inputs) int {
	total := recencyComponent(in.Now, in.LastContactAt) +
		engagementComponent(in.MessagesLast30Days) +
		expiryComponent(in.Now, in.Contracts) +
		segmentComponent(in.Contracts)

	score := int(math.Round(total))
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// recencyComponent decays linearly from 40 at zero days to 0 at 30 days.
// A client never contacted scores zero.
func recencyComponent(now time.Time, lastContactAt *time.Time) float64 {
	if lastContactAt == nil {
		return 0
	}
	days := now.Sub(*lastContactAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Max(0, maxRecencyPoints-days*maxRecencyPoints/recencyDecayDays)
}

// engagementComponent awards one point per message in the trailing 30 days,
// capped at 30.
func engagementComponent(messages int) float64 {
	if messages < 0 {
		return 0
	}
	return math.Min(maxEngagementPoints, float64(messages))
}

// expiryComponent looks at active contracts with a defined end date and
// scores the soonest expiry: 20 points when expiry is due (or past), fading
// to 0 at 60 days out. No eligible contract means zero.
func expiryComponent(now time.Time, contracts []ContractSnapshot) float64 {
	var soonest *time.Time
	for _, contract := range contracts {
		if contract.Status != "active" || contract.EndDate == nil {
			continue
		}
		if soonest == nil || contract.EndDate.Before(*soonest) {
			soonest = contract.EndDate
		}
	}
	if soonest == nil {
		return 0
	}

	days := soonest.Sub(now).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Max(0, maxExpiryPoints-days*maxExpiryPoints/expiryWindowDays)
}

// segmentComponent treats any client holding an active contract as an
// existing customer; everyone else is a prospect.
func segmentComponent(contracts []ContractSnapshot) float64 {
	for _, contract := range contracts {
		if contract.Status == "active" {
			return segmentClientPoints
		}
	}
	return segmentProspect
}
