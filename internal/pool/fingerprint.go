package pool

import (
	"math/rand"

	"github.com/risunCode/downaria/internal/models"
)

// SelectFingerprint draws a profile at random with probability proportional
// to priority. Weight is priority + 1 so zero-priority profiles remain
// drawable. rng is injectable for deterministic tests; pass nil to use the
// global source. Returns nil when the snapshot is empty.
func SelectFingerprint(profiles []*models.FingerprintProfile, rng *rand.Rand) *models.FingerprintProfile {
	if len(profiles) == 0 {
		return nil
	}

	total := 0
	for _, p := range profiles {
		total += weight(p)
	}

	var draw int
	if rng != nil {
		draw = rng.Intn(total)
	} else {
		draw = rand.Intn(total)
	}

	for _, p := range profiles {
		draw -= weight(p)
		if draw < 0 {
			return p
		}
	}

	return profiles[len(profiles)-1]
}

func weight(p *models.FingerprintProfile) int {
	w := p.Priority
	if w < 0 {
		w = 0
	}
	return w + 1
}
