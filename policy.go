package cpn

import "math/rand"

// Policy picks which of the enabled transitions to attempt next during an
// AutoRun. Pick may return nil when the slice is empty.
type Policy interface {
	Pick(enabled []*Transition) *Transition
}

var _ Policy = (*RandomPolicy)(nil)
var _ Policy = (*PriorityPolicy)(nil)

// RandomPolicy picks uniformly at random from the enabled transitions.
type RandomPolicy struct {
	rng *rand.Rand
}

// NewRandomPolicy creates a random policy with its own seeded source.
func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed))}
}

// Pick implements Policy.
func (p *RandomPolicy) Pick(enabled []*Transition) *Transition {
	if len(enabled) == 0 {
		return nil
	}
	return enabled[p.rng.Intn(len(enabled))]
}

// PriorityPolicy prefers the configured transition names in order and
// falls back to a random pick when none of them is enabled.
type PriorityPolicy struct {
	priority []string
	rng      *rand.Rand
}

// NewPriorityPolicy creates a priority policy. The earlier a name appears
// in priority, the stronger its preference.
func NewPriorityPolicy(priority []string, seed int64) *PriorityPolicy {
	return &PriorityPolicy{
		priority: append([]string(nil), priority...),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Pick implements Policy.
func (p *PriorityPolicy) Pick(enabled []*Transition) *Transition {
	if len(enabled) == 0 {
		return nil
	}
	byName := make(map[string]*Transition, len(enabled))
	for _, t := range enabled {
		byName[t.Name] = t
	}
	for _, name := range p.priority {
		if t, ok := byName[name]; ok {
			return t
		}
	}
	return enabled[p.rng.Intn(len(enabled))]
}
