// Package netfile loads net topologies from YAML. A netfile declares token
// types with their default attributes, places with optional capacities,
// transitions with input weights, production rules, and guard expressions,
// and an initial marking:
//
//	name: line
//	types:
//	  ore: {mass: 2.5, purity: 0.6}
//	places:
//	  P_src: {}
//	  P_dst: {capacity: 5}
//	transitions:
//	  T_move:
//	    inputs: {P_src: 1}
//	    outputs:
//	      P_dst: relay
//	    guard: 'P_src[0].purity >= 0.5'
//	marking:
//	  P_src:
//	    - {type: ore, count: 3}
//
// An output is either the shorthand "relay", passing consumed tokens
// through, or a {count, type} pair synthesizing fresh tokens. Types left
// undeclared default to unit mass with no attribute readings.
package netfile

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/q13agupta/cpn"
)

// File is the decoded form of a netfile.
type File struct {
	Name        string                    `yaml:"name"`
	Types       map[string]TypeSpec       `yaml:"types"`
	Places      map[string]PlaceSpec      `yaml:"places"`
	Transitions map[string]TransitionSpec `yaml:"transitions"`
	Marking     map[string][]TokenSpec    `yaml:"marking"`
}

// TypeSpec declares the default attributes of a token type.
type TypeSpec struct {
	Mass   float64  `yaml:"mass"`
	Temp   *float64 `yaml:"temp"`
	Purity *float64 `yaml:"purity"`
}

// PlaceSpec declares a place. A zero capacity means unbounded.
type PlaceSpec struct {
	Capacity int `yaml:"capacity"`
}

// TransitionSpec declares a transition.
type TransitionSpec struct {
	Inputs  map[string]int        `yaml:"inputs"`
	Outputs map[string]OutputSpec `yaml:"outputs"`
	Guard   string                `yaml:"guard"`
}

// OutputSpec is one production rule: either the "relay" shorthand or a
// fixed count of a named token type.
type OutputSpec struct {
	Relay bool
	Count int
	Type  string
}

// UnmarshalYAML accepts either a scalar shorthand or a mapping.
func (o *OutputSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s != "relay" {
			return fmt.Errorf("netfile: unknown output shorthand %q", s)
		}
		o.Relay = true
		return nil
	}
	var spec struct {
		Count int    `yaml:"count"`
		Type  string `yaml:"type"`
	}
	if err := value.Decode(&spec); err != nil {
		return err
	}
	if spec.Type == "" {
		return fmt.Errorf("netfile: output needs a token type")
	}
	if spec.Count <= 0 {
		spec.Count = 1
	}
	o.Count = spec.Count
	o.Type = spec.Type
	return nil
}

// TokenSpec seeds count tokens of a type into the initial marking.
type TokenSpec struct {
	Type  string `yaml:"type"`
	Count int    `yaml:"count"`
}

// Load decodes a netfile and assembles the net.
func Load(r io.Reader) (*cpn.Net, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, err
	}
	return f.Net()
}

// LoadFile loads a netfile from disk.
func LoadFile(path string) (*cpn.Net, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Load(r)
}

// Net assembles the declared net. Places and transitions register in
// sorted name order so loads are deterministic.
func (f *File) Net() (*cpn.Net, error) {
	n := cpn.NewNet(f.Name)
	for _, name := range sorted(f.Places) {
		pl := cpn.NewPlace(name)
		if c := f.Places[name].Capacity; c > 0 {
			pl.WithCapacity(c)
		}
		if err := n.AddPlace(pl); err != nil {
			return nil, err
		}
	}
	for _, name := range sorted(f.Transitions) {
		spec := f.Transitions[name]
		tr := cpn.NewTransition(name)
		for place, w := range spec.Inputs {
			tr.WithInput(place, w)
		}
		for place, out := range spec.Outputs {
			if out.Relay {
				tr.WithOutput(place, cpn.Produce(cpn.Relay()))
				continue
			}
			tr.WithOutput(place, cpn.Weight(out.Count, f.factory(out.Type)))
		}
		if spec.Guard != "" {
			g, err := cpn.ExprGuard(spec.Guard)
			if err != nil {
				return nil, fmt.Errorf("netfile: transition %s: %w", name, err)
			}
			tr.WithGuard(g)
		}
		if err := n.AddTransition(tr); err != nil {
			return nil, err
		}
	}
	for _, place := range sorted(f.Marking) {
		for _, ts := range f.Marking[place] {
			count := ts.Count
			if count <= 0 {
				count = 1
			}
			for i := 0; i < count; i++ {
				if err := n.AddTo(place, f.token(ts.Type)); err != nil {
					return nil, err
				}
			}
		}
	}
	return n, nil
}

// factory builds tokens of the declared type. The type spec is captured by
// value, so later mutation of the File does not leak into the net.
func (f *File) factory(ttype string) cpn.TokenFactory {
	spec, declared := f.Types[ttype]
	return func(cpn.Selection, *cpn.Net) *cpn.Token {
		return build(ttype, spec, declared)
	}
}

func (f *File) token(ttype string) *cpn.Token {
	spec, declared := f.Types[ttype]
	return build(ttype, spec, declared)
}

func build(ttype string, spec TypeSpec, declared bool) *cpn.Token {
	tok := cpn.NewToken(ttype)
	if !declared {
		return tok
	}
	if spec.Mass > 0 {
		tok.WithMass(spec.Mass)
	}
	if spec.Temp != nil {
		tok.WithTemp(*spec.Temp)
	}
	if spec.Purity != nil {
		tok.WithPurity(*spec.Purity)
	}
	return tok
}

func sorted[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
