// Package graphviz renders net topology as Graphviz output, drawing
// places as circles and transitions as boxes in the usual Petri net
// notation.
package graphviz

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/q13agupta/cpn"
)

// Writer renders nets with a fixed configuration.
type Writer struct {
	*Config
	g       *cgraph.Graph
	mapping map[string]*cgraph.Node
}

// Font names a Graphviz font stack.
type Font string

// Or chains font fallbacks.
func (f Font) Or(other Font) Font {
	return f + "," + other
}

const (
	Helvetica Font = "Helvetica"
	SansSerif Font = "sans-serif"
	Times     Font = "Times"
)

// RankDir sets the layout direction.
type RankDir string

const (
	LeftToRight RankDir = "LR"
	RightToLeft RankDir = "RL"
	TopToBottom RankDir = "TB"
	BottomToTop RankDir = "BT"
)

// Format selects the render target, e.g. "svg" or "png".
type Format = graphviz.Format

// Config selects layout and output format.
type Config struct {
	Name string
	Font
	RankDir
	Format Format
}

// New creates a writer. An empty format defaults to xdot text.
func New(config *Config) *Writer {
	if config.Name == "" {
		config.Name = "cpn"
	}
	if config.Format == "" {
		config.Format = graphviz.XDOT
	}
	return &Writer{
		Config:  config,
		mapping: make(map[string]*cgraph.Node),
	}
}

func (w *Writer) writePlace(i int, p *cpn.Place) error {
	node, err := w.g.CreateNode(fmt.Sprintf("p%d", i))
	if err != nil {
		return err
	}
	node.SetShape(cgraph.CircleShape)
	label := p.Name
	if p.Capacity > 0 {
		label = fmt.Sprintf("%s\ncap %d", p.Name, p.Capacity)
	}
	node.SetLabel(label)
	node.Set("fontname", string(w.Font))
	w.mapping["p:"+p.Name] = node
	return nil
}

func (w *Writer) writeTransition(i int, t *cpn.Transition) error {
	node, err := w.g.CreateNode(fmt.Sprintf("t%d", i))
	if err != nil {
		return err
	}
	node.SetShape(cgraph.BoxShape)
	node.SetLabel(t.Name)
	node.Set("fontname", string(w.Font))
	w.mapping["t:"+t.Name] = node
	return nil
}

// writeEdges draws input and output arcs for one transition, labelling any
// arc whose weight is not 1.
func (w *Writer) writeEdges(i int, t *cpn.Transition) error {
	tn := w.mapping["t:"+t.Name]
	k := 0
	for _, place := range sortedNames(t.Inputs) {
		e, err := w.g.CreateEdge(fmt.Sprintf("a%d_%d", i, k), w.mapping["p:"+place], tn)
		if err != nil {
			return err
		}
		if weight := t.Inputs[place]; weight > 1 {
			e.SetLabel(strconv.Itoa(weight))
		}
		k++
	}
	for _, place := range sortedNames(t.Outputs) {
		e, err := w.g.CreateEdge(fmt.Sprintf("a%d_%d", i, k), tn, w.mapping["p:"+place])
		if err != nil {
			return err
		}
		if nominal := t.Outputs[place].Nominal(); nominal > 1 {
			e.SetLabel(strconv.Itoa(nominal))
		}
		k++
	}
	return nil
}

// Flush renders the net to out in the configured format.
func (w *Writer) Flush(out io.Writer, n *cpn.Net) error {
	graph := graphviz.New()
	defer func() {
		_ = graph.Close()
	}()
	g, err := graph.Graph()
	if err != nil {
		return err
	}
	g.SetRankDir(cgraph.RankDir(w.RankDir))
	w.g = g
	for i, p := range n.Places() {
		if err := w.writePlace(i, p); err != nil {
			return err
		}
	}
	transitions := n.Transitions()
	for i, t := range transitions {
		if err := w.writeTransition(i, t); err != nil {
			return err
		}
	}
	for i, t := range transitions {
		if err := w.writeEdges(i, t); err != nil {
			return err
		}
	}
	return graph.Render(w.g, w.Format, out)
}

func sortedNames[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
