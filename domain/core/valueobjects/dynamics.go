package valueobjects

import (
	"time"

	"edubba/pkg/utils"
)

// MasteryState tracks the user's proficiency in a domain.
type MasteryState struct {
	Domain          KnowledgeDomain `json:"domain" validate:"enum"`
	UserProficiency float64         `json:"user_proficiency" validate:"gte=0,lte=1"`
	LastVerified    time.Time       `json:"last_verified"`
}

// NewMasteryState builds a validated mastery record verified now.
func NewMasteryState(domain KnowledgeDomain, proficiency float64) (MasteryState, error) {
	m := MasteryState{
		Domain:          domain,
		UserProficiency: proficiency,
		LastVerified:    utils.NowUTC(),
	}
	if err := utils.ValidateStruct(m); err != nil {
		return MasteryState{}, err
	}
	return m, nil
}

// IdentityBinding governs how tightly a memory is bound to the agent's
// identity. The zero value is the default binding.
type IdentityBinding struct {
	Weight        float64 `json:"weight" validate:"gte=0,lte=1"`
	DriftPressure float64 `json:"drift_pressure" validate:"gte=0"`
	IsProtected   bool    `json:"is_protected"`
}

// MemoryUtility holds usage metrics consumed by pruning and compression.
type MemoryUtility struct {
	AccessCount     int       `json:"access_count" validate:"gte=0"`
	LastAccessed    time.Time `json:"last_accessed"`
	PredictiveValue float64   `json:"predictive_value"`
	RedundancyScore float64   `json:"redundancy_score"`
}

// Accessed returns a copy with the access count incremented.
func (u MemoryUtility) Accessed(at time.Time) MemoryUtility {
	u.AccessCount++
	u.LastAccessed = at.UTC()
	return u
}

// RecallDynamics tracks how a memory drifts each time it is recalled.
type RecallDynamics struct {
	RecallCount     int        `json:"recall_count" validate:"gte=0"`
	DistortionScore float64    `json:"distortion_score"`
	LastReinforced  *time.Time `json:"last_reinforced"`
}

// Recalled returns a copy with the recall count incremented, the new
// distortion score and the reinforcement time set.
func (r RecallDynamics) Recalled(distortion float64, at time.Time) RecallDynamics {
	at = at.UTC()
	r.RecallCount++
	r.DistortionScore = distortion
	r.LastReinforced = &at
	return r
}

// Clone returns a deep copy.
func (r RecallDynamics) Clone() RecallDynamics {
	if r.LastReinforced != nil {
		t := *r.LastReinforced
		r.LastReinforced = &t
	}
	return r
}
