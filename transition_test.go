package cpn_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/q13agupta/cpn"
)

func buildMixer(t *testing.T) *cpn.Net {
	t.Helper()
	n := cpn.NewNet("mixer")
	if err := n.AddPlace(cpn.NewPlace("A")); err != nil {
		t.Fatal(err)
	}
	if err := n.AddPlace(cpn.NewPlace("B")); err != nil {
		t.Fatal(err)
	}
	tr := cpn.NewTransition("T_mix").
		WithInput("A", 2).
		WithOutput("B", cpn.Weight(1, cpn.Emit("b", 2)))
	if err := n.AddTransition(tr); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestTransition_Fire(t *testing.T) {
	n := buildMixer(t)
	for i := 0; i < 3; i++ {
		if err := n.AddTo("A", cpn.NewToken("a")); err != nil {
			t.Fatal(err)
		}
	}

	f, err := n.StepFire("T_mix")
	if err != nil {
		t.Fatal(err)
	}
	if !f.Fired {
		t.Fatalf("rejected: %s", f.Reason)
	}
	if len(f.Consumed["A"]) != 2 {
		t.Errorf("consumed %d tokens from A, want 2", len(f.Consumed["A"]))
	}
	if got := n.Place("A").Count(); got != 1 {
		t.Errorf("A holds %d, want 1", got)
	}
	if got := n.Place("B").Count("b"); got != 1 {
		t.Errorf("B holds %d b tokens, want 1", got)
	}
	if got := n.Transition("T_mix").FiredCount; got != 1 {
		t.Errorf("fired count = %d, want 1", got)
	}

	// One token left: below the input weight.
	f, err = n.StepFire("T_mix")
	if err != nil {
		t.Fatal(err)
	}
	if f.Fired {
		t.Fatal("fired with insufficient tokens")
	}
	if f.Reason != cpn.RejectInsufficientTokens {
		t.Errorf("reason = %q, want %q", f.Reason, cpn.RejectInsufficientTokens)
	}
	if got := n.Place("A").Count(); got != 1 {
		t.Errorf("rejection mutated A: holds %d, want 1", got)
	}
}

func TestTransition_SelectionFailed(t *testing.T) {
	n := cpn.NewNet("strict")
	_ = n.AddPlace(cpn.NewPlace("A"))
	_ = n.AddPlace(cpn.NewPlace("B"))
	tr := cpn.NewTransition("T_pick").
		WithInput("A", 1).
		WithOutput("B", cpn.Produce(cpn.Relay())).
		WithSelector("A", cpn.OfType("good"))
	if err := n.AddTransition(tr); err != nil {
		t.Fatal(err)
	}
	_ = n.AddTo("A", cpn.NewToken("bad"))

	f, err := n.StepFire("T_pick")
	if err != nil {
		t.Fatal(err)
	}
	if f.Fired || f.Reason != cpn.RejectSelectionFailed {
		t.Errorf("got fired=%v reason=%q, want selection failure", f.Fired, f.Reason)
	}
	if n.Place("A").Count() != 1 {
		t.Error("rejection mutated the marking")
	}

	_ = n.AddTo("A", cpn.NewToken("good"))
	f, _ = n.StepFire("T_pick")
	if !f.Fired {
		t.Fatalf("rejected: %s", f.Reason)
	}
	if got := n.Place("B").Count("good"); got != 1 {
		t.Errorf("B holds %d good tokens, want 1", got)
	}
	if got := n.Place("A").Count("bad"); got != 1 {
		t.Error("selector consumed the wrong token")
	}
}

func TestTransition_GuardBlocked(t *testing.T) {
	n := cpn.NewNet("qc")
	_ = n.AddPlace(cpn.NewPlace("A"))
	_ = n.AddPlace(cpn.NewPlace("B"))
	tr := cpn.NewTransition("T_qc").
		WithInput("A", 1).
		WithOutput("B", cpn.Produce(cpn.Relay())).
		WithGuardExpr(`A[0].purity != nil && A[0].purity >= 0.5`)
	if err := n.AddTransition(tr); err != nil {
		t.Fatal(err)
	}
	_ = n.AddTo("A", cpn.NewToken("ore").WithPurity(0.3))

	f, err := n.StepFire("T_qc")
	if err != nil {
		t.Fatal(err)
	}
	if f.Fired || f.Reason != cpn.RejectGuardBlocked {
		t.Errorf("got fired=%v reason=%q, want guard block", f.Fired, f.Reason)
	}
	if n.Place("A").Count() != 1 || n.Place("B").Count() != 0 {
		t.Error("guard rejection mutated the marking")
	}
}

func TestTransition_ProduceMultiplePlaces(t *testing.T) {
	n := cpn.NewNet("split")
	_ = n.AddPlace(cpn.NewPlace("P_decomposer"))
	_ = n.AddPlace(cpn.NewPlace("P_pure_Ni"))
	_ = n.AddPlace(cpn.NewPlace("P_CO_recycle"))
	tr := cpn.NewTransition("T_decompose").
		WithInput("P_decomposer", 1).
		WithOutput("P_pure_Ni", cpn.Produce(func(consumed cpn.Selection, net *cpn.Net) ([]*cpn.Token, error) {
			in := consumed.First("P_decomposer")
			for i := 0; i < 4; i++ {
				co := cpn.NewToken("CO").WithBatchID("RCO-" + net.NextBatchID()).WithMass(0.028)
				if err := net.AddTo("P_CO_recycle", co); err != nil {
					return nil, err
				}
			}
			ni := cpn.NewToken("Ni_pure").
				WithBatchID("NP-" + net.NextBatchID()).
				WithMass(in.Mass).
				WithPurity(0.99)
			return []*cpn.Token{ni}, nil
		}))
	if err := n.AddTransition(tr); err != nil {
		t.Fatal(err)
	}
	_ = n.AddTo("P_decomposer", cpn.NewToken("NiCO4").WithMass(0.17))

	f, err := n.StepFire("T_decompose")
	if err != nil {
		t.Fatal(err)
	}
	if !f.Fired {
		t.Fatalf("rejected: %s", f.Reason)
	}
	if got := n.Place("P_pure_Ni").Count("Ni_pure"); got != 1 {
		t.Errorf("pure Ni count = %d, want 1", got)
	}
	if got := n.Place("P_CO_recycle").Count("CO"); got != 4 {
		t.Errorf("recycled CO count = %d, want 4", got)
	}
	ni := n.Place("P_pure_Ni").Tokens()[0]
	if ni.Mass != 0.17 {
		t.Errorf("mass %v not carried from input", ni.Mass)
	}
	if ni.Purity == nil || *ni.Purity != 0.99 {
		t.Errorf("purity = %v, want 0.99", ni.Purity)
	}
}

func TestTransition_EmitWeights(t *testing.T) {
	n := cpn.NewNet("feed")
	_ = n.AddPlace(cpn.NewPlace("P_src"))
	_ = n.AddPlace(cpn.NewPlace("P_CO_feed"))
	tr := cpn.NewTransition("T_feed").
		WithInput("P_src", 1).
		WithOutput("P_CO_feed", cpn.Weight(4, cpn.Emit("CO", 0.028)))
	if err := n.AddTransition(tr); err != nil {
		t.Fatal(err)
	}
	_ = n.AddTo("P_src", cpn.NewToken("pulse"))

	if _, err := n.StepFire("T_feed"); err != nil {
		t.Fatal(err)
	}
	toks := n.Place("P_CO_feed").Tokens()
	if len(toks) != 4 {
		t.Fatalf("emitted %d tokens, want 4", len(toks))
	}
	seen := make(map[string]bool)
	for _, tok := range toks {
		if tok.Type != "CO" || tok.Mass != 0.028 {
			t.Errorf("token %v, want CO of mass 0.028", tok)
		}
		if seen[tok.BatchID] {
			t.Errorf("duplicate batch id %s", tok.BatchID)
		}
		seen[tok.BatchID] = true
	}
}

func TestTransition_RelayToTwoPlaces(t *testing.T) {
	n := cpn.NewNet("fork")
	_ = n.AddPlace(cpn.NewPlace("A"))
	_ = n.AddPlace(cpn.NewPlace("B"))
	_ = n.AddPlace(cpn.NewPlace("C"))
	tr := cpn.NewTransition("T_fork").
		WithInput("A", 1).
		WithOutput("B", cpn.Produce(cpn.Relay())).
		WithOutput("C", cpn.Produce(cpn.Relay()))
	if err := n.AddTransition(tr); err != nil {
		t.Fatal(err)
	}
	_ = n.AddTo("A", cpn.NewToken("u").WithBatchID("U1"))

	report, err := n.AutoRun(1, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if report.Fired["T_fork"] != 1 {
		t.Fatalf("report = %+v, want one T_fork firing", report)
	}
	b := n.Place("B").Tokens()[0]
	c := n.Place("C").Tokens()[0]
	if b == c {
		t.Fatal("B and C hold the same token pointer")
	}
	if b.BatchID != "U1" || c.BatchID != "U1" {
		t.Errorf("batch ids = %q, %q, want U1 for both", b.BatchID, c.BatchID)
	}
	// Each copy ages on its own.
	if b.Age != 1 || c.Age != 1 {
		t.Errorf("ages = %v, %v, want 1 after one tick", b.Age, c.Age)
	}
	want := decimal.NewFromInt(2)
	if got := n.TotalMass(); !got.Equal(want) {
		t.Errorf("total mass = %s, want %s", got, want)
	}
}

func TestTransition_OutputOverflowIsError(t *testing.T) {
	n := cpn.NewNet("jam")
	_ = n.AddPlace(cpn.NewPlace("A"))
	_ = n.AddPlace(cpn.NewPlace("B").WithCapacity(1))
	tr := cpn.NewTransition("T_jam").
		WithInput("A", 1).
		WithOutput("B", cpn.Weight(2, cpn.Emit("b", 1)))
	if err := n.AddTransition(tr); err != nil {
		t.Fatal(err)
	}
	_ = n.AddTo("A", cpn.NewToken("a"))

	_, err := n.StepFire("T_jam")
	var capErr *cpn.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("got %v, want *CapacityError", err)
	}
}

func TestTransition_OutputErrorCommitsNothing(t *testing.T) {
	n := cpn.NewNet("stuck")
	_ = n.AddPlace(cpn.NewPlace("A"))
	_ = n.AddPlace(cpn.NewPlace("B"))
	_ = n.AddPlace(cpn.NewPlace("C").WithCapacity(1))
	tr := cpn.NewTransition("T_split").
		WithInput("A", 1).
		WithOutput("B", cpn.Weight(1, cpn.Emit("b", 1))).
		WithOutput("C", cpn.Weight(1, cpn.Emit("c", 1)))
	if err := n.AddTransition(tr); err != nil {
		t.Fatal(err)
	}
	_ = n.AddTo("C", cpn.NewToken("c"))
	_ = n.AddTo("A", cpn.NewToken("a"))

	// C is full, so the firing fails after B's rule has already produced.
	_, err := n.StepFire("T_split")
	var capErr *cpn.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("got %v, want *CapacityError", err)
	}
	if got := n.Place("B").Count(); got != 0 {
		t.Errorf("B holds %d, want 0: a failed firing must not commit earlier outputs", got)
	}
	if got := n.Place("C").Count(); got != 1 {
		t.Errorf("C holds %d, want 1", got)
	}
	if got := n.Place("A").Count(); got != 0 {
		t.Errorf("A holds %d, want 0: inputs stay consumed on a structural failure", got)
	}
	if got := n.Transition("T_split").FiredCount; got != 0 {
		t.Errorf("fired count = %d, want 0", got)
	}
}

func TestTransition_ValidateOutputs(t *testing.T) {
	n := cpn.NewNet("bad")
	_ = n.AddPlace(cpn.NewPlace("A"))
	_ = n.AddPlace(cpn.NewPlace("B"))
	tr := cpn.NewTransition("T_bad").
		WithInput("A", 1).
		WithOutput("B", cpn.Weight(1, nil))
	if err := n.AddTransition(tr); err == nil {
		t.Error("fixed-weight output without a factory should be rejected")
	}
}

// A zero weight would read as an unlimited selection limit further down,
// so registration refuses it outright.
func TestTransition_ValidateInputWeight(t *testing.T) {
	n := cpn.NewNet("bad")
	_ = n.AddPlace(cpn.NewPlace("A"))
	_ = n.AddPlace(cpn.NewPlace("B"))
	for _, w := range []int{0, -1} {
		tr := cpn.NewTransition("T_all").
			WithInput("A", w).
			WithOutput("B", cpn.Produce(cpn.Relay()))
		if err := n.AddTransition(tr); err == nil {
			t.Errorf("weight %d input should be rejected", w)
		}
	}
	if n.Transition("T_all") != nil {
		t.Error("invalid transition was registered")
	}
}
