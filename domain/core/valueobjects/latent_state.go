package valueobjects

import "edubba/pkg/utils"

// AffectDimensions is the length of the Plutchik affect vector.
const AffectDimensions = 8

// LatentStateContext is a snapshot of the agent's internal state when a
// memory was formed. State changes are modelled as new snapshots.
type LatentStateContext struct {
	AffectVector    []float64 `json:"affect_vector" validate:"len=8"`
	DissonanceScore float64   `json:"dissonance_score" validate:"gte=0,lte=1"`
	ExplorationRate float64   `json:"exploration_rate" validate:"gte=0,lte=2"`
}

// NewLatentStateContext builds a validated snapshot. The affect vector is
// copied.
func NewLatentStateContext(affect []float64, dissonance, exploration float64) (LatentStateContext, error) {
	l := LatentStateContext{
		AffectVector:    append([]float64(nil), affect...),
		DissonanceScore: dissonance,
		ExplorationRate: exploration,
	}
	if err := utils.ValidateStruct(l); err != nil {
		return LatentStateContext{}, err
	}
	return l, nil
}

// WithDissonance returns a validated copy carrying a new dissonance score.
func (l LatentStateContext) WithDissonance(score float64) (LatentStateContext, error) {
	return NewLatentStateContext(l.AffectVector, score, l.ExplorationRate)
}

// WithExplorationRate returns a validated copy carrying a new exploration rate.
func (l LatentStateContext) WithExplorationRate(rate float64) (LatentStateContext, error) {
	return NewLatentStateContext(l.AffectVector, l.DissonanceScore, rate)
}

// Clone returns a deep copy.
func (l LatentStateContext) Clone() LatentStateContext {
	l.AffectVector = append([]float64(nil), l.AffectVector...)
	return l
}
