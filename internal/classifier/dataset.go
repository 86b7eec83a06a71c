package classifier

import (
	"errors"
	"math/rand/v2"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
)

// Dataset is a labelled feature matrix.
type Dataset struct {
	Columns  []string
	Features [][]float64
	Labels   []string
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Labels) }

// Flood risk labels of the three-feature preset.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// FloodEventDataset draws n rows of (rainfall_mm, deforestation_pct) with a
// flood label at p=0.3, matching the case-study simulator.
func FloodEventDataset(n int, seed uint64) Dataset {
	r := newRand(seed)
	d := Dataset{
		Columns:  []string{"rainfall_mm", "deforestation_pct"},
		Features: make([][]float64, n),
		Labels:   make([]string, n),
	}
	for i := range n {
		d.Features[i] = []float64{
			float64(100 + r.IntN(400)),
			float64(r.IntN(100)),
		}
		if r.Float64() < 0.3 {
			d.Labels[i] = domain.FloodExpected
		} else {
			d.Labels[i] = domain.FloodNotExpected
		}
	}
	return d
}

// FloodRiskDataset draws n rows of (rainfall_mm, soil_moisture, elevation_m)
// with a uniformly random Low/Medium/High label.
func FloodRiskDataset(n int, seed uint64) Dataset {
	r := newRand(seed)
	labels := []string{RiskLow, RiskMedium, RiskHigh}
	d := Dataset{
		Columns:  []string{"rainfall_mm", "soil_moisture", "elevation_m"},
		Features: make([][]float64, n),
		Labels:   make([]string, n),
	}
	for i := range n {
		d.Features[i] = []float64{
			r.Float64() * 200,
			r.Float64(),
			r.Float64() * 500,
		}
		d.Labels[i] = labels[r.IntN(len(labels))]
	}
	return d
}

// TrainTestSplit shuffles d deterministically and holds out testFraction of
// the rows. Both halves are non-empty for datasets of two or more rows.
func TrainTestSplit(d Dataset, testFraction float64, seed uint64) (train, test Dataset, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return Dataset{}, Dataset{}, errors.New("test fraction must be in (0, 1)")
	}
	n := d.Len()
	if n < 2 {
		return Dataset{}, Dataset{}, errors.New("need at least two rows to split")
	}

	idx := newRand(seed).Perm(n)
	nTest := int(float64(n)*testFraction + 0.5)
	nTest = max(1, min(nTest, n-1))

	pick := func(ids []int) Dataset {
		out := Dataset{
			Columns:  d.Columns,
			Features: make([][]float64, len(ids)),
			Labels:   make([]string, len(ids)),
		}
		for i, id := range ids {
			out.Features[i] = d.Features[id]
			out.Labels[i] = d.Labels[id]
		}
		return out
	}
	return pick(idx[nTest:]), pick(idx[:nTest]), nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
