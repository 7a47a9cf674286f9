package cpn

import (
	"fmt"

	"github.com/google/uuid"
)

// Token is a typed unit of material flowing through the net. Tokens carry
// the physical attributes of the batch they represent and are owned by
// exactly one place at a time: moving a token is a removal from the source
// followed by an addition to the destination, never an aliasing operation.
type Token struct {
	// Type is the category tag of the token, e.g. "CO" or "Ni_pure".
	Type string
	// BatchID uniquely identifies the token. Generated when not supplied.
	BatchID string
	// Mass is the quantity of material in the token. Never negative.
	Mass float64
	// Temp is the temperature of the batch, if tracked.
	Temp *float64
	// Purity is the purity fraction in [0, 1], if tracked.
	Purity *float64
	// Age is the time the token has spent resident in the net. It advances
	// by one unit per logical clock tick and never decreases.
	Age float64
}

// NewToken creates a token of the given type with unit mass and a generated
// batch id.
func NewToken(ttype string) *Token {
	return &Token{
		Type:    ttype,
		BatchID: uuid.New().String()[:8],
		Mass:    1.0,
	}
}

func (t *Token) WithBatchID(id string) *Token {
	t.BatchID = id
	return t
}

func (t *Token) WithMass(mass float64) *Token {
	t.Mass = mass
	return t
}

func (t *Token) WithTemp(temp float64) *Token {
	t.Temp = &temp
	return t
}

func (t *Token) WithPurity(purity float64) *Token {
	t.Purity = &purity
	return t
}

// Clone returns a deep copy of the token. The copy keeps the batch id; a
// clone represents the same physical batch, typically on its way into a
// different place.
func (t *Token) Clone() *Token {
	c := *t
	if t.Temp != nil {
		temp := *t.Temp
		c.Temp = &temp
	}
	if t.Purity != nil {
		purity := *t.Purity
		c.Purity = &purity
	}
	return &c
}

func (t *Token) String() string {
	return fmt.Sprintf("%s[%s|pur=%v|T=%v]", t.Type, t.BatchID, fmtOpt(t.Purity), fmtOpt(t.Temp))
}

func fmtOpt(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

// valueMap exposes the token to guard expressions.
func (t *Token) valueMap() map[string]interface{} {
	m := map[string]interface{}{
		"type":  t.Type,
		"batch": t.BatchID,
		"mass":  t.Mass,
		"age":   t.Age,
	}
	if t.Temp != nil {
		m["temp"] = *t.Temp
	} else {
		m["temp"] = nil
	}
	if t.Purity != nil {
		m["purity"] = *t.Purity
	} else {
		m["purity"] = nil
	}
	return m
}

// TokenPredicate decides whether a token matches a selection condition.
type TokenPredicate func(*Token) bool

// OfType matches tokens carrying one of the given type tags.
func OfType(types ...string) TokenPredicate {
	return func(t *Token) bool {
		for _, ty := range types {
			if t.Type == ty {
				return true
			}
		}
		return false
	}
}
