package pipeline

import (
	"fmt"

	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/sampler"
)

// Split defaults
const (
	DefaultTrainRatio = 0.8
	DefaultSplitSeed  = 42
)

// Split shuffles samples with seed and cuts them into train and validation
// sets. The input slice is left untouched.
func Split(samples []model.Sample, ratio float64, seed int64) (train, valid []model.Sample, err error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("split ratio %.2f outside (0, 1)", ratio)
	}

	shuffled := make([]model.Sample, len(samples))
	copy(shuffled, samples)
	rng := sampler.New(seed)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := int(float64(len(shuffled)) * ratio)
	return shuffled[:cut], shuffled[cut:], nil
}
