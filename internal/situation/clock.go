package situation

import (
	"fmt"
	"math/rand"

	"github.com/ppiankov/crowdgen/internal/domain"
	"github.com/ppiankov/crowdgen/internal/model"
	"github.com/ppiankov/crowdgen/internal/sampler"
)

func sampleClock(rng *rand.Rand, c domain.Clock) (model.Clock, error) {
	weights := make([]float64, len(c.Periods))
	for i, p := range c.Periods {
		weights[i] = p.Weight
	}
	idx, err := sampler.ChooseIndex(rng, weights)
	if err != nil {
		return model.Clock{}, err
	}
	p := c.Periods[idx]

	hour := sampler.IntRange(rng, p.From, p.To)
	minute := sampler.IntRange(rng, 0, 59)

	form, err := sampler.ChooseIndex(rng, []float64{c.Numeric, c.Spoken})
	if err != nil {
		return model.Clock{}, err
	}

	clk := model.Clock{Hour: hour, Minute: minute, Spoken: form == 1}
	clk.Text = ClockText(c, clk)
	return clk, nil
}

// ClockText renders a sampled time as "14:05" or "오후 2시 5분"
func ClockText(c domain.Clock, clk model.Clock) string {
	if !clk.Spoken {
		return fmt.Sprintf("%02d:%02d", clk.Hour, clk.Minute)
	}

	h := clk.Hour % 12
	if h == 0 {
		h = 12
	}
	label := c.SpokenLabel(clk.Hour)
	switch {
	case clk.Minute == 0:
		return fmt.Sprintf("%s %d시", label, h)
	case c.PadMinutes:
		return fmt.Sprintf("%s %d시 %02d분", label, h, clk.Minute)
	default:
		return fmt.Sprintf("%s %d시 %d분", label, h, clk.Minute)
	}
}
