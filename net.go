// Package cpn implements a coloured Petri net simulation engine. Places
// hold typed tokens carrying physical attributes, transitions consume and
// produce tokens under explicit production rules and optional guards, and
// the net coordinates enablement queries, single-step firing, and
// policy-driven runs over a shared simulation clock.
package cpn

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Snapshot is a marking: place name to token count.
type Snapshot map[string]int

// Total returns the token count across all places.
func (s Snapshot) Total() int {
	total := 0
	for _, c := range s {
		total += c
	}
	return total
}

// RunReport summarizes an AutoRun.
type RunReport struct {
	// StepsTaken counts loop iterations performed, including rejected
	// firing attempts.
	StepsTaken int
	// Deadlocked is true when the run halted early because no transition
	// was enabled.
	Deadlocked bool
	// Fired maps transition names to successful firings during the run.
	Fired map[string]int
	// Rejections counts attempts turned back by selection or guard gates.
	Rejections int
}

// Net is a coloured Petri net: a registry of places and transitions plus a
// simulation clock, a batch id counter, free-form statistics, and a seeded
// random source. A Net is not safe for concurrent use; run copies in
// parallel instead.
type Net struct {
	name        string
	places      []*Place
	transitions []*Transition
	placeIdx    map[string]int
	transIdx    map[string]int

	stats        map[string]int
	clock        float64
	batchCounter int

	seed   int64
	rng    *rand.Rand
	logger *zap.Logger
}

// NewNet creates an empty net with a no-op logger and seed 1.
func NewNet(name string) *Net {
	return &Net{
		name:     name,
		placeIdx: make(map[string]int),
		transIdx: make(map[string]int),
		stats:    make(map[string]int),
		seed:     1,
		rng:      rand.New(rand.NewSource(1)),
		logger:   zap.NewNop(),
	}
}

// WithLogger sets the logger used by AutoRun and returns the net.
func (n *Net) WithLogger(logger *zap.Logger) *Net {
	n.logger = logger
	return n
}

// WithSeed reseeds the net's random source and returns the net. Copies
// reseed from the same value, so runs and searches are reproducible.
func (n *Net) WithSeed(seed int64) *Net {
	n.seed = seed
	n.rng = rand.New(rand.NewSource(seed))
	return n
}

// Name returns the net's name.
func (n *Net) Name() string {
	return n.name
}

// AddPlace registers a place. The name must be unique.
func (n *Net) AddPlace(p *Place) error {
	if _, ok := n.placeIdx[p.Name]; ok {
		return &DupError{Kind: "place", Name: p.Name}
	}
	n.placeIdx[p.Name] = len(n.places)
	n.places = append(n.places, p)
	return nil
}

// AddTransition registers a transition. The name must be unique and every
// referenced place must already exist.
func (n *Net) AddTransition(t *Transition) error {
	if _, ok := n.transIdx[t.Name]; ok {
		return &DupError{Kind: "transition", Name: t.Name}
	}
	if err := t.validate(n); err != nil {
		return err
	}
	n.transIdx[t.Name] = len(n.transitions)
	n.transitions = append(n.transitions, t)
	return nil
}

// Place returns the named place, or nil.
func (n *Net) Place(name string) *Place {
	if i, ok := n.placeIdx[name]; ok {
		return n.places[i]
	}
	return nil
}

// Transition returns the named transition, or nil.
func (n *Net) Transition(name string) *Transition {
	if i, ok := n.transIdx[name]; ok {
		return n.transitions[i]
	}
	return nil
}

// Places returns the places in registration order.
func (n *Net) Places() []*Place {
	out := make([]*Place, len(n.places))
	copy(out, n.places)
	return out
}

// Transitions returns the transitions in registration order.
func (n *Net) Transitions() []*Transition {
	out := make([]*Transition, len(n.transitions))
	copy(out, n.transitions)
	return out
}

// AddTo adds tokens to the named place, all or nothing.
func (n *Net) AddTo(place string, tokens ...*Token) error {
	pl := n.Place(place)
	if pl == nil {
		return &UnknownPlaceError{Name: place}
	}
	return pl.Add(tokens...)
}

// Enabled returns the transitions whose input counts are satisfied, in
// registration order. Enablement ignores guards, so a listed transition
// may still reject when fired.
func (n *Net) Enabled() []*Transition {
	var out []*Transition
	for _, t := range n.transitions {
		if t.IsEnabled(n) {
			out = append(out, t)
		}
	}
	return out
}

// StepFire attempts to fire the named transition once. A rejection is
// reported in the returned Firing, not as an error.
func (n *Net) StepFire(name string) (*Firing, error) {
	t := n.Transition(name)
	if t == nil {
		return nil, &UnknownTransitionError{Name: name}
	}
	return t.Fire(n)
}

// AutoRun drives the net for up to steps iterations. Each iteration asks
// the policy to pick among the enabled transitions, attempts the firing,
// and advances the clock by one tick, aging resident tokens. The run halts
// early on deadlock. A nil policy defaults to a random policy seeded from
// the net's seed. With verbose set, every attempt is logged.
func (n *Net) AutoRun(steps int, policy Policy, verbose bool) (*RunReport, error) {
	if policy == nil {
		policy = NewRandomPolicy(n.seed)
	}
	report := &RunReport{Fired: make(map[string]int)}
	for i := 0; i < steps; i++ {
		enabled := n.Enabled()
		if len(enabled) == 0 {
			report.Deadlocked = true
			n.logger.Warn("deadlock, halting run",
				zap.Int("step", i),
				zap.Float64("clock", n.clock))
			break
		}
		t := policy.Pick(enabled)
		if t == nil {
			t = enabled[0]
		}
		f, err := t.Fire(n)
		if err != nil {
			return report, err
		}
		report.StepsTaken++
		if f.Fired {
			report.Fired[f.Transition]++
			if verbose {
				n.logger.Info("fired",
					zap.Int("step", i),
					zap.String("transition", f.Transition))
			}
		} else {
			report.Rejections++
			if verbose {
				n.logger.Info("rejected",
					zap.Int("step", i),
					zap.String("transition", f.Transition),
					zap.String("reason", string(f.Reason)))
			}
		}
		n.tick()
	}
	n.logger.Debug("run complete",
		zap.Int("steps", report.StepsTaken),
		zap.Int("rejections", report.Rejections),
		zap.Bool("deadlocked", report.Deadlocked))
	return report, nil
}

// Snapshot returns the current marking.
func (n *Net) Snapshot() Snapshot {
	s := make(Snapshot, len(n.places))
	for _, pl := range n.places {
		s[pl.Name] = pl.Count()
	}
	return s
}

// View returns a read-only window onto the net for guards.
func (n *Net) View() View {
	return View{n: n}
}

// WriteStatus writes a human-readable marking summary grouped by token
// type, one line per place in registration order.
func (n *Net) WriteStatus(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "--- %s @ t=%g ---\n", n.name, n.clock); err != nil {
		return err
	}
	for _, pl := range n.places {
		byType := make(map[string]int)
		for _, tok := range pl.tokens {
			byType[tok.Type]++
		}
		desc := "empty"
		if len(byType) > 0 {
			parts := make([]string, 0, len(byType))
			for _, tt := range sortedKeys(byType) {
				parts = append(parts, fmt.Sprintf("%dx %s", byType[tt], tt))
			}
			desc = strings.Join(parts, ", ")
		}
		if _, err := fmt.Fprintf(w, "  %-20s %s\n", pl.Name, desc); err != nil {
			return err
		}
	}
	return nil
}

// PrintStatus writes the status summary to standard output.
func (n *Net) PrintStatus() {
	_ = n.WriteStatus(os.Stdout)
}

// Copy returns a deep copy: tokens, markings, statistics, clock, and batch
// counter are duplicated, and the copy's random source is reseeded from
// the original seed. The logger is shared.
func (n *Net) Copy() *Net {
	c := &Net{
		name:         n.name,
		places:       make([]*Place, len(n.places)),
		transitions:  make([]*Transition, len(n.transitions)),
		placeIdx:     make(map[string]int, len(n.placeIdx)),
		transIdx:     make(map[string]int, len(n.transIdx)),
		stats:        make(map[string]int, len(n.stats)),
		clock:        n.clock,
		batchCounter: n.batchCounter,
		seed:         n.seed,
		rng:          rand.New(rand.NewSource(n.seed)),
		logger:       n.logger,
	}
	for i, pl := range n.places {
		c.places[i] = pl.copy()
	}
	for i, t := range n.transitions {
		c.transitions[i] = t.copy()
	}
	for k, v := range n.placeIdx {
		c.placeIdx[k] = v
	}
	for k, v := range n.transIdx {
		c.transIdx[k] = v
	}
	for k, v := range n.stats {
		c.stats[k] = v
	}
	return c
}

// NextBatchID returns a fresh zero-padded batch id, starting at "0001".
func (n *Net) NextBatchID() string {
	n.batchCounter++
	return fmt.Sprintf("%04d", n.batchCounter)
}

// IncrStat increments a free-form named counter. Production rules use
// these for domain bookkeeping such as pass and fail tallies.
func (n *Net) IncrStat(key string) {
	n.stats[key]++
}

// Stats returns a copy of the statistics counters. Successful firings are
// recorded under the transition name.
func (n *Net) Stats() map[string]int {
	out := make(map[string]int, len(n.stats))
	for k, v := range n.stats {
		out[k] = v
	}
	return out
}

// Clock returns the simulation time.
func (n *Net) Clock() float64 {
	return n.clock
}

// Rand returns the net's seeded random source for production rules that
// need stochastic draws.
func (n *Net) Rand() *rand.Rand {
	return n.rng
}

// TotalMass sums the mass of every token in the net.
func (n *Net) TotalMass() decimal.Decimal {
	total := decimal.Zero
	for _, pl := range n.places {
		total = total.Add(pl.Mass())
	}
	return total
}

func (n *Net) recordFiring(name string) {
	n.stats[name]++
}

// tick advances the clock one unit and ages every resident token.
func (n *Net) tick() {
	n.clock++
	for _, pl := range n.places {
		for _, tok := range pl.tokens {
			tok.Age++
		}
	}
}
