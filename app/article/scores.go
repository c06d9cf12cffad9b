package article

import (
	"fmt"
	"math"
)

type Scores struct {
	PolicyRelevance   float64 `json:"policy_relevance"`
	SourceReliability float64 `json:"source_reliability"`
	Recency           float64 `json:"recency"`
	SectorSpecificity float64 `json:"sector_specificity"`
	CrisisRelevance   float64 `json:"crisis_relevance"`
	Overall           float64 `json:"overall"`
}

// Weights of the overall composite. They must sum to 1.
type Weights struct {
	Policy      float64 `yaml:"policy" json:"policy"`
	Reliability float64 `yaml:"reliability" json:"reliability"`
	Recency     float64 `yaml:"recency" json:"recency"`
	Sector      float64 `yaml:"sector" json:"sector"`
	Crisis      float64 `yaml:"crisis" json:"crisis"`
}

func DefaultWeights() Weights {
	return Weights{
		Policy:      0.25,
		Reliability: 0.20,
		Recency:     0.25,
		Sector:      0.10,
		Crisis:      0.20,
	}
}

func (w Weights) Validate() error {
	parts := map[string]float64{
		"policy":      w.Policy,
		"reliability": w.Reliability,
		"recency":     w.Recency,
		"sector":      w.Sector,
		"crisis":      w.Crisis,
	}

	for name, value := range parts {
		if value < 0 {
			return fmt.Errorf("%s weight must be non-negative", name)
		}
	}

	sum := w.Policy + w.Reliability + w.Recency + w.Sector + w.Crisis
	if math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("weights must sum to 1, got %.4f", sum)
	}

	return nil
}

// Recompute clamps every component and derives Overall from them. It is the
// only place Overall is written.
func (s *Scores) Recompute(w Weights) {
	s.PolicyRelevance = Clamp(s.PolicyRelevance)
	s.SourceReliability = Clamp(s.SourceReliability)
	s.Recency = Clamp(s.Recency)
	s.SectorSpecificity = Clamp(s.SectorSpecificity)
	s.CrisisRelevance = Clamp(s.CrisisRelevance)

	s.Overall = Clamp(s.PolicyRelevance*w.Policy +
		s.SourceReliability*w.Reliability +
		s.Recency*w.Recency +
		s.SectorSpecificity*w.Sector +
		s.CrisisRelevance*w.Crisis)
}

func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
