package labeling

import "NewsLabeler/internal/domain"

// DefaultThreshold is the zero-shot score a label must strictly exceed.
const DefaultThreshold = 0.4

// FusionPolicy merges rule labels with thresholded classifier labels.
type FusionPolicy struct {
	Threshold float64
}

// NewFusionPolicy returns a policy with the given threshold.
func NewFusionPolicy(threshold float64) FusionPolicy {
	return FusionPolicy{Threshold: threshold}
}

// Selected returns the labels whose score is strictly greater than the threshold.
func (p FusionPolicy) Selected(scores domain.ScoreResult) domain.CategorySet {
	selected := domain.CategorySet{}
	for _, ls := range scores {
		if ls.Score > p.Threshold {
			selected.Add(ls.Label)
		}
	}
	return selected
}

// Fuse unions rule labels with the selected classifier labels.
// An empty union falls back to {Unknown}.
func (p FusionPolicy) Fuse(ruleLabels domain.CategorySet, scores domain.ScoreResult) domain.CategorySet {
	final := ruleLabels.Union(p.Selected(scores))
	if final.Len() == 0 {
		return domain.NewCategorySet(domain.CategoryUnknown)
	}
	return final
}
