package cpn

import (
	"github.com/expr-lang/expr"
)

// View is a read-only window onto a net, handed to guards so they can
// inspect state without any way to mutate it.
type View struct {
	n *Net
}

// Count reports how many tokens the named place holds, optionally
// restricted to the given types. Unknown places count zero.
func (v View) Count(place string, types ...string) int {
	pl := v.n.Place(place)
	if pl == nil {
		return 0
	}
	return pl.Count(types...)
}

// Snapshot returns the current marking as place name to token count.
func (v View) Snapshot() Snapshot {
	return v.n.Snapshot()
}

// Clock returns the net's simulation clock.
func (v View) Clock() float64 {
	return v.n.Clock()
}

// Stat returns a named counter from the net's free-form statistics.
func (v View) Stat(key string) int {
	return v.n.stats[key]
}

// Guard decides whether a specific token selection may fire. Guards must
// not mutate anything; they see the net only through the view.
type Guard func(v View, selected Selection) bool

// ExprGuard compiles src into a guard. The expression environment binds
// each input place name to the list of selected tokens from it, where a
// token is a map with keys type, batch, mass, age, temp and purity (the
// last two are nil when unset). Two extra bindings exist: counts, the
// marking as a place-to-count map, and clock, the simulation time.
//
//	ExprGuard(`P_in[0].purity == nil || P_in[0].purity >= 0.5`)
//	ExprGuard(`counts["P_buffer"] < 3`)
//
// The expression is compiled once, at construction. A guard whose
// evaluation fails, or that yields a non-boolean, blocks the firing.
func ExprGuard(src string) (Guard, error) {
	program, err := expr.Compile(src)
	if err != nil {
		return nil, err
	}
	return func(v View, selected Selection) bool {
		env := make(map[string]interface{}, len(selected)+2)
		for place, toks := range selected {
			vals := make([]map[string]interface{}, len(toks))
			for i, t := range toks {
				vals[i] = t.valueMap()
			}
			env[place] = vals
		}
		env["counts"] = map[string]int(v.Snapshot())
		env["clock"] = v.Clock()
		out, err := expr.Run(program, env)
		if err != nil {
			return false
		}
		ok, isBool := out.(bool)
		return isBool && ok
	}, nil
}
