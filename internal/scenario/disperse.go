package scenario

import (
	"math"
	"math/rand/v2"

	"amm_sim/internal/domain"
)

// Gaussian draws one sample from N(mean, standardDeviation) with the
// Box-Muller transform over two uniform (0,1] draws.
func Gaussian(r *rand.Rand, mean, standardDeviation float64) float64 {
	u := 1 - r.Float64() // (0,1], keeps log finite
	v := r.Float64()
	return mean + standardDeviation*math.Sqrt(-2.0*math.Log(u))*math.Cos(2.0*math.Pi*v)
}

// Disperse splits totalAmount across targets with Gaussian noise around the
// mean share, then rescales so the shares sum to totalAmount. Shares are
// never negative.
func Disperse(r *rand.Rand, totalAmount float64, targets []string, standardDeviation float64) (map[string]float64, error) {
	n := len(targets)
	if n == 0 {
		return nil, domain.InvalidArgument("disperse needs at least one target")
	}

	mean := totalAmount / float64(n)
	shares := make(map[string]float64, n)

	var runningSum float64
	for _, id := range targets {
		if _, dup := shares[id]; dup {
			return nil, domain.InvalidArgument("duplicate target %q", id)
		}
		share := math.Abs(Gaussian(r, mean, standardDeviation))
		shares[id] = share
		runningSum += share
	}

	// every draw was exactly zero: only possible with a zero mean and deviation
	if runningSum == 0 {
		for id := range shares {
			shares[id] = mean
		}
		return shares, nil
	}

	factor := totalAmount / runningSum
	for id := range shares {
		shares[id] *= factor
	}
	return shares, nil
}
