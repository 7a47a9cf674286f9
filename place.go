package cpn

import (
	"github.com/shopspring/decimal"
)

// Place is a named holding location for tokens. A place with Capacity > 0
// never holds more than Capacity tokens; a zero capacity means unbounded.
// Token order is insertion order, which only matters for the deterministic
// first-match selection rule.
type Place struct {
	// Name is the unique key of the place within a net.
	Name string
	// Capacity is the maximum number of tokens the place can hold. If 0,
	// the place is unbounded.
	Capacity int

	tokens []*Token
}

// NewPlace creates an unbounded place.
func NewPlace(name string) *Place {
	return &Place{Name: name}
}

// WithCapacity bounds the place to at most n tokens.
func (p *Place) WithCapacity(n int) *Place {
	p.Capacity = n
	return p
}

// Add appends tokens to the place. The add is all-or-nothing: if the whole
// batch does not fit under the capacity, no token is added and a
// *CapacityError is returned.
func (p *Place) Add(tokens ...*Token) error {
	if err := p.fits(len(tokens)); err != nil {
		return err
	}
	p.tokens = append(p.tokens, tokens...)
	return nil
}

// fits returns the *CapacityError that adding n more tokens would cause,
// or nil when they fit.
func (p *Place) fits(n int) error {
	if p.Capacity > 0 && len(p.tokens)+n > p.Capacity {
		return &CapacityError{
			Place:    p.Name,
			Capacity: p.Capacity,
			Held:     len(p.tokens),
			Adding:   n,
		}
	}
	return nil
}

// Remove takes the given tokens out of the place, matching by identity.
// A transition must only remove tokens it selected from this exact place in
// the current firing; a *TokenNotFoundError therefore signals a broken
// selection contract, not a recoverable condition.
func (p *Place) Remove(tokens ...*Token) error {
	for _, t := range tokens {
		if !p.removeOne(t) {
			return &TokenNotFoundError{Place: p.Name, BatchID: t.BatchID}
		}
	}
	return nil
}

func (p *Place) removeOne(t *Token) bool {
	for i, held := range p.tokens {
		if held == t {
			p.tokens = append(p.tokens[:i], p.tokens[i+1:]...)
			return true
		}
	}
	return false
}

// Count reports how many tokens the place holds, optionally restricted to
// the given type tags.
func (p *Place) Count(types ...string) int {
	if len(types) == 0 {
		return len(p.tokens)
	}
	match := OfType(types...)
	n := 0
	for _, t := range p.tokens {
		if match(t) {
			n++
		}
	}
	return n
}

// Mass sums the mass of the held tokens, optionally restricted to the given
// type tags. Decimal arithmetic keeps repeated balance checks free of float
// drift.
func (p *Place) Mass(types ...string) decimal.Decimal {
	match := TokenPredicate(func(*Token) bool { return true })
	if len(types) > 0 {
		match = OfType(types...)
	}
	sum := decimal.Zero
	for _, t := range p.tokens {
		if match(t) {
			sum = sum.Add(decimal.NewFromFloat(t.Mass))
		}
	}
	return sum
}

// Tokens returns a copy of the resident token slice, in place order.
func (p *Place) Tokens() []*Token {
	out := make([]*Token, len(p.tokens))
	copy(out, p.tokens)
	return out
}

// FindTokens returns a fresh iterator over up to limit tokens satisfying
// pred, in place order. A nil pred matches every token and limit <= 0 means
// no limit. The iterator is lazy; calling FindTokens again restarts the
// scan from the first token.
func (p *Place) FindTokens(pred TokenPredicate, limit int) *TokenIter {
	return &TokenIter{
		tokens: p.tokens,
		pred:   pred,
		limit:  limit,
	}
}

// String implements fmt.Stringer for diagnostics.
func (p *Place) String() string {
	return p.Name
}

func (p *Place) copy() *Place {
	c := &Place{Name: p.Name, Capacity: p.Capacity}
	c.tokens = make([]*Token, len(p.tokens))
	for i, t := range p.tokens {
		c.tokens[i] = t.Clone()
	}
	return c
}

// TokenIter is a scanner-style iterator over a place's tokens. Selection is
// first-match: tokens are visited in place order and the predicate decides
// membership as the iterator advances.
type TokenIter struct {
	tokens []*Token
	pred   TokenPredicate
	limit  int
	pos    int
	taken  int
	cur    *Token
}

// Next advances to the next matching token, returning false when the scan
// is exhausted or the limit is reached.
func (it *TokenIter) Next() bool {
	if it.limit > 0 && it.taken >= it.limit {
		return false
	}
	for it.pos < len(it.tokens) {
		t := it.tokens[it.pos]
		it.pos++
		if it.pred == nil || it.pred(t) {
			it.cur = t
			it.taken++
			return true
		}
	}
	return false
}

// Token returns the token the iterator is positioned on.
func (it *TokenIter) Token() *Token {
	return it.cur
}

// Collect drains the remaining matches into a slice.
func (it *TokenIter) Collect() []*Token {
	var out []*Token
	for it.Next() {
		out = append(out, it.cur)
	}
	return out
}
