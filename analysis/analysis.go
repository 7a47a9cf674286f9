// Package analysis provides reachability search and linear-algebraic
// checks over coloured Petri nets. The matrix view deliberately discards
// colour: tokens become indistinguishable counts, which is exactly the
// abstraction the state equation needs.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/q13agupta/cpn"
)

// Net wraps a coloured net with its matrix representation.
type Net struct {
	*cpn.Net
}

// Wrap builds the matrix view of n.
func Wrap(n *cpn.Net) *Net {
	return &Net{Net: n}
}

// State is a marking as a vector of token counts in place registration
// order.
type State []float64

// StateVector captures the current marking.
func (net *Net) StateVector() State {
	places := net.Places()
	s := make(State, len(places))
	for i, pl := range places {
		s[i] = float64(pl.Count())
	}
	return s
}

// TargetVector builds a state vector from a partial marking; places not
// named keep their current count.
func (net *Net) TargetVector(marking map[string]int) State {
	s := net.StateVector()
	for i, pl := range net.Places() {
		if c, ok := marking[pl.Name]; ok {
			s[i] = float64(c)
		}
	}
	return s
}

// FiringVector is the unit row vector for the transition at index t.
func (net *Net) FiringVector(t int) *mat.Dense {
	tt := net.Transitions()
	v := make([]float64, len(tt))
	v[t] = 1
	return mat.NewDense(1, len(tt), v)
}

// Incidence is the transitions-by-places effect matrix: entry (i, j) is
// the net token change at place j when transition i fires. Computed rules
// count at their nominal weight, so the matrix is an approximation for
// nets whose rules yield variable token counts.
func (net *Net) Incidence() *mat.Dense {
	places := net.Places()
	tt := net.Transitions()
	d := make([]float64, len(tt)*len(places))
	for i, tr := range tt {
		for j, pl := range places {
			var effect float64
			if o, ok := tr.Outputs[pl.Name]; ok {
				effect += float64(o.Nominal())
			}
			if w, ok := tr.Inputs[pl.Name]; ok {
				effect -= float64(w)
			}
			d[i*len(places)+j] = effect
		}
	}
	return mat.NewDense(len(tt), len(places), d)
}

// NextState applies one firing of the transition at index t to the state,
// by the state equation.
func (net *Net) NextState(s State, t int) State {
	row := mat.NewDense(1, len(s), s)
	var effect mat.Dense
	effect.Mul(net.FiringVector(t), net.Incidence())
	var out mat.Dense
	out.Add(row, &effect)
	next := make(State, len(s))
	for i := range next {
		next[i] = out.At(0, i)
	}
	return next
}

// FiringCounts solves the state equation C'x = target - current for the
// firing count vector x, returning the minimum-norm solution and whether
// the system is consistent. An inconsistent system proves the target
// unreachable; a consistent one is necessary but not sufficient, so use
// FindSequence to confirm.
func (net *Net) FiringCounts(target State) (State, bool) {
	s0 := net.StateVector()
	nP := len(s0)
	nT := len(net.Transitions())
	if nT == 0 {
		for i := range s0 {
			if s0[i] != target[i] {
				return nil, false
			}
		}
		return State{}, true
	}
	d := mat.NewVecDense(nP, nil)
	for i := range s0 {
		d.SetVec(i, target[i]-s0[i])
	}
	var ct mat.Dense
	ct.CloneFrom(net.Incidence().T())

	// The incidence transpose is rank deficient whenever the net conserves
	// tokens, so solve through the pseudoinverse rather than a plain least
	// squares factorization.
	var svd mat.SVD
	if !svd.Factorize(&ct, mat.SVDThin) {
		return nil, false
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	vals := svd.Values(nil)

	const tol = 1e-10
	coef := make([]float64, len(vals))
	for j := range vals {
		if vals[j] <= tol {
			continue
		}
		var dot float64
		for i := 0; i < nP; i++ {
			dot += u.At(i, j) * d.AtVec(i)
		}
		coef[j] = dot / vals[j]
	}
	counts := make(State, nT)
	for i := 0; i < nT; i++ {
		var xi float64
		for j := range vals {
			xi += v.At(i, j) * coef[j]
		}
		counts[i] = xi
	}

	var res mat.VecDense
	res.MulVec(&ct, mat.NewVecDense(nT, counts))
	for i := 0; i < nP; i++ {
		if math.Abs(res.AtVec(i)-d.AtVec(i)) > 1e-6 {
			return nil, false
		}
	}
	return counts, true
}

// MaybeReachable reports whether the state equation admits a firing count
// vector reaching target. False is a proof of unreachability.
func (net *Net) MaybeReachable(target State) bool {
	_, ok := net.FiringCounts(target)
	return ok
}
