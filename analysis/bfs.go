package analysis

import "github.com/q13agupta/cpn"

// Goal is a predicate over a marking.
type Goal func(cpn.Snapshot) bool

// TokensAt is a goal asking for at least n tokens in the named place.
func TokensAt(place string, n int) Goal {
	return func(s cpn.Snapshot) bool {
		return s[place] >= n
	}
}

// FindSequence searches breadth-first for a firing sequence that reaches a
// marking satisfying goal, trying sequences up to maxDepth transitions
// long. It returns the shortest such sequence and true, or nil and false.
//
// Every branch runs on its own deep copy of the net, so the argument net
// is never mutated and stochastic production rules cannot leak state
// between branches. Firings rejected by selection or guards simply prune
// the branch. Visited markings are not deduplicated: token attributes make
// marking equality too coarse a key, and the depth bound already keeps the
// frontier finite.
func FindSequence(n *cpn.Net, goal Goal, maxDepth int) ([]string, bool) {
	if goal(n.Snapshot()) {
		return []string{}, true
	}
	type node struct {
		net *cpn.Net
		seq []string
	}
	queue := []node{{net: n.Copy()}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if len(cur.seq) >= maxDepth {
			continue
		}
		for _, t := range cur.net.Enabled() {
			branch := cur.net.Copy()
			f, err := branch.StepFire(t.Name)
			if err != nil || !f.Fired {
				continue
			}
			seq := make([]string, len(cur.seq), len(cur.seq)+1)
			copy(seq, cur.seq)
			seq = append(seq, t.Name)
			if goal(branch.Snapshot()) {
				return seq, true
			}
			queue = append(queue, node{net: branch, seq: seq})
		}
	}
	return nil, false
}
