package cpn

import (
	"fmt"
	"sort"
)

// Selection maps input place names to the tokens chosen from them for one
// firing attempt. The tokens are selected but not yet removed until the
// APPLY stage commits the firing.
type Selection map[string][]*Token

// First returns the first token selected from the given place, or nil.
func (s Selection) First(place string) *Token {
	if toks := s[place]; len(toks) > 0 {
		return toks[0]
	}
	return nil
}

// All returns every selected token, grouped by place name in sorted order
// so the result is deterministic.
func (s Selection) All() []*Token {
	var out []*Token
	for _, place := range sortedKeys(s) {
		out = append(out, s[place]...)
	}
	return out
}

// RejectReason explains why a firing attempt did not happen. Rejections are
// ordinary control flow, not errors: most transitions are disabled most of
// the time.
type RejectReason string

const (
	RejectInsufficientTokens RejectReason = "insufficient tokens"
	RejectSelectionFailed    RejectReason = "selection failed"
	RejectGuardBlocked       RejectReason = "guard blocked"
)

// Firing is the outcome of one firing attempt. When Fired is false, Reason
// holds the gate that rejected the attempt and the net is untouched. When
// Fired is true, Consumed records the tokens taken from each input place,
// which collaborators use for reward computation and reporting.
type Firing struct {
	Transition string
	Fired      bool
	Reason     RejectReason
	Consumed   Selection
}

// TokenFactory synthesizes one token for a fixed-weight output. The factory
// sees the consumed tokens and the net so it can derive attributes and draw
// fresh batch ids.
type TokenFactory func(consumed Selection, n *Net) *Token

// ProduceFunc computes the tokens for an output place. A rule may instead
// add tokens to one or more places itself through the net and return nil,
// in which case its declared output place is nominal bookkeeping.
type ProduceFunc func(consumed Selection, n *Net) ([]*Token, error)

// Output is the production rule for one output place: either a fixed weight
// of factory-built tokens or a computed rule. Production is always declared
// explicitly; nothing is inferred from place names.
type Output struct {
	weight  int
	factory TokenFactory
	rule    ProduceFunc
}

// Weight declares a fixed-weight output: n tokens built by factory.
func Weight(n int, factory TokenFactory) Output {
	return Output{weight: n, factory: factory}
}

// Produce declares a computed output rule.
func Produce(rule ProduceFunc) Output {
	return Output{rule: rule}
}

// Nominal reports the declared token count of the output: the fixed weight,
// or 1 for computed rules whose yield is only known at fire time.
func (o Output) Nominal() int {
	if o.rule != nil {
		return 1
	}
	return o.weight
}

func (o Output) produce(consumed Selection, n *Net) ([]*Token, error) {
	if o.rule != nil {
		return o.rule(consumed, n)
	}
	toks := make([]*Token, o.weight)
	for i := range toks {
		toks[i] = o.factory(consumed, n)
	}
	return toks, nil
}

// Emit is a factory producing fresh tokens of the given type and mass with
// generated batch ids.
func Emit(ttype string, mass float64) TokenFactory {
	return func(Selection, *Net) *Token {
		return NewToken(ttype).WithMass(mass)
	}
}

// Relay passes every consumed token through to the declared output place,
// preserving identity and attributes. Tokens arrive grouped by source place
// name in sorted order.
func Relay() ProduceFunc {
	return func(consumed Selection, _ *Net) ([]*Token, error) {
		return consumed.All(), nil
	}
}

// Transition is a named rule consuming tokens from input places and
// producing tokens in output places, optionally gated by a guard.
type Transition struct {
	// Name is the unique key of the transition within a net.
	Name string
	// Inputs maps place names to required token counts.
	Inputs map[string]int
	// Outputs maps place names to production rules.
	Outputs map[string]Output
	// Guard, when set, must accept the selected tokens for the firing to
	// proceed. Guards are pure predicates over the read-only view.
	Guard Guard
	// FiredCount is the number of successful firings.
	FiredCount int

	selectors map[string]TokenPredicate
}

// NewTransition creates a transition with no inputs, outputs, or guard.
func NewTransition(name string) *Transition {
	return &Transition{
		Name:    name,
		Inputs:  make(map[string]int),
		Outputs: make(map[string]Output),
	}
}

// WithInput requires weight tokens from the named place. Weights below 1
// are rejected when the transition registers with a net.
func (t *Transition) WithInput(place string, weight int) *Transition {
	t.Inputs[place] = weight
	return t
}

// WithOutput declares a production rule for the named place.
func (t *Transition) WithOutput(place string, o Output) *Transition {
	t.Outputs[place] = o
	return t
}

// WithGuard sets the guard predicate.
func (t *Transition) WithGuard(g Guard) *Transition {
	t.Guard = g
	return t
}

// WithGuardExpr compiles src into the guard. Panics on a compile error;
// a malformed expression is a construction-time programming error.
func (t *Transition) WithGuardExpr(src string) *Transition {
	g, err := ExprGuard(src)
	if err != nil {
		panic(err)
	}
	t.Guard = g
	return t
}

// WithSelector restricts which tokens may be selected from the named input
// place. Selection can fail even when raw counts pass, which rejects the
// firing with RejectSelectionFailed.
func (t *Transition) WithSelector(place string, pred TokenPredicate) *Transition {
	if t.selectors == nil {
		t.selectors = make(map[string]TokenPredicate)
	}
	t.selectors[place] = pred
	return t
}

func (t *Transition) String() string {
	return t.Name
}

// IsEnabled reports whether every input place holds at least the required
// token count. The guard is not evaluated: enablement is an optimistic
// over-approximation and a fire attempt may still be rejected.
func (t *Transition) IsEnabled(n *Net) bool {
	for pname, w := range t.Inputs {
		pl := n.Place(pname)
		if pl == nil || pl.Count() < w {
			return false
		}
	}
	return true
}

// selectTokens picks the first matching tokens from each input place
// without removing them.
func (t *Transition) selectTokens(n *Net) (Selection, bool) {
	selected := make(Selection, len(t.Inputs))
	for pname, w := range t.Inputs {
		sel := n.Place(pname).FindTokens(t.selectors[pname], w).Collect()
		if len(sel) < w {
			return nil, false
		}
		selected[pname] = sel
	}
	return selected, true
}

// Fire runs the firing protocol against the net:
//
//	CHECK_COUNTS -> SELECT_TOKENS -> CHECK_GUARD -> APPLY
//
// A failed gate returns a rejection with the net untouched. APPLY removes
// every selected token, runs the production rules, and commits the produced
// tokens only after the last rule has resolved, so a failing rule or a full
// output place leaves no declared output behind. A token produced for more
// than one output place is cloned past its first placement; places never
// share a token by pointer. Structural failures (unknown place, capacity
// overflow in an output, removal mismatch) are returned as errors and
// indicate a broken net or transition definition.
func (t *Transition) Fire(n *Net) (*Firing, error) {
	for pname := range t.Inputs {
		if n.Place(pname) == nil {
			return nil, &UnknownPlaceError{Name: pname}
		}
	}
	if !t.IsEnabled(n) {
		return t.reject(RejectInsufficientTokens), nil
	}
	selected, ok := t.selectTokens(n)
	if !ok {
		return t.reject(RejectSelectionFailed), nil
	}
	if t.Guard != nil && !t.Guard(n.View(), selected) {
		return t.reject(RejectGuardBlocked), nil
	}
	for pname, toks := range selected {
		if err := n.Place(pname).Remove(toks...); err != nil {
			return nil, err
		}
	}
	staged := make(map[string][]*Token, len(t.Outputs))
	placed := make(map[*Token]bool)
	for _, pname := range sortedKeys(t.Outputs) {
		if n.Place(pname) == nil {
			return nil, &UnknownPlaceError{Name: pname}
		}
		toks, err := t.Outputs[pname].produce(selected, n)
		if err != nil {
			return nil, fmt.Errorf("transition %s: output %s: %w", t.Name, pname, err)
		}
		for _, tok := range toks {
			// A rule may hand the same token to several outputs, as a
			// relay into two places does. Clone the repeats so no two
			// places hold the same pointer.
			if placed[tok] {
				tok = tok.Clone()
			}
			placed[tok] = true
			staged[pname] = append(staged[pname], tok)
		}
	}
	for _, pname := range sortedKeys(staged) {
		if err := n.Place(pname).fits(len(staged[pname])); err != nil {
			return nil, err
		}
	}
	for _, pname := range sortedKeys(staged) {
		if err := n.Place(pname).Add(staged[pname]...); err != nil {
			return nil, err
		}
	}
	t.FiredCount++
	n.recordFiring(t.Name)
	return &Firing{Transition: t.Name, Fired: true, Consumed: selected}, nil
}

func (t *Transition) reject(reason RejectReason) *Firing {
	return &Firing{Transition: t.Name, Reason: reason}
}

func (t *Transition) validate(n *Net) error {
	for pname, w := range t.Inputs {
		if n.Place(pname) == nil {
			return &UnknownPlaceError{Name: pname}
		}
		if w < 1 {
			return fmt.Errorf("transition %s: input %s: weight must be at least 1", t.Name, pname)
		}
	}
	for pname, o := range t.Outputs {
		if n.Place(pname) == nil {
			return &UnknownPlaceError{Name: pname}
		}
		if o.rule == nil && o.factory == nil {
			return fmt.Errorf("transition %s: output %s: fixed-weight output needs a token factory", t.Name, pname)
		}
	}
	return nil
}

func (t *Transition) copy() *Transition {
	c := &Transition{
		Name:       t.Name,
		Inputs:     make(map[string]int, len(t.Inputs)),
		Outputs:    make(map[string]Output, len(t.Outputs)),
		Guard:      t.Guard,
		FiredCount: t.FiredCount,
	}
	for k, v := range t.Inputs {
		c.Inputs[k] = v
	}
	for k, v := range t.Outputs {
		c.Outputs[k] = v
	}
	if t.selectors != nil {
		c.selectors = make(map[string]TokenPredicate, len(t.selectors))
		for k, v := range t.selectors {
			c.selectors[k] = v
		}
	}
	return c
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
