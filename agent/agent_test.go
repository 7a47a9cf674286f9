package agent_test

import (
	"errors"
	"testing"

	"github.com/q13agupta/cpn"
	"github.com/q13agupta/cpn/agent"
)

// buildLine is a three-stage line: one token walks P0 -> P1 -> P2 -> P3.
func buildLine() *cpn.Net {
	n := cpn.NewNet("line")
	for _, name := range []string{"P0", "P1", "P2", "P3"} {
		if err := n.AddPlace(cpn.NewPlace(name)); err != nil {
			panic(err)
		}
	}
	steps := [][2]string{{"P0", "P1"}, {"P1", "P2"}, {"P2", "P3"}}
	for i, s := range steps {
		tr := cpn.NewTransition([]string{"T1", "T2", "T3"}[i]).
			WithInput(s[0], 1).
			WithOutput(s[1], cpn.Produce(cpn.Relay()))
		if err := n.AddTransition(tr); err != nil {
			panic(err)
		}
	}
	if err := n.AddTo("P0", cpn.NewToken("u")); err != nil {
		panic(err)
	}
	return n
}

func doneReward(s cpn.Snapshot) float64 {
	return float64(s["P3"]) * 10
}

func TestEnv_Reset(t *testing.T) {
	e := agent.NewEnv(buildLine, doneReward)
	if got := e.State()["P0"]; got != 1 {
		t.Fatalf("initial P0 = %d, want 1", got)
	}
	if _, _, _, err := e.Step("T1"); err != nil {
		t.Fatal(err)
	}
	if got := e.State()["P1"]; got != 1 {
		t.Fatalf("P1 = %d after T1, want 1", got)
	}

	obs := e.Reset()
	if obs["P0"] != 1 || obs["P1"] != 0 {
		t.Errorf("reset state = %v, want the token back at P0", obs)
	}
}

func TestEnv_Actions(t *testing.T) {
	e := agent.NewEnv(buildLine, nil)
	actions := e.Actions()
	if len(actions) != 1 || actions[0] != "T1" {
		t.Fatalf("actions = %v, want [T1]", actions)
	}
}

func TestEnv_Step(t *testing.T) {
	e := agent.NewEnv(buildLine, doneReward)

	obs, reward, fired, err := e.Step("T1")
	if err != nil {
		t.Fatal(err)
	}
	if !fired || reward != 0 || obs["P1"] != 1 {
		t.Errorf("step T1: obs=%v reward=%v fired=%v", obs, reward, fired)
	}

	// T1 is no longer enabled; the attempt is a rejection, not an error.
	_, _, fired, err = e.Step("T1")
	if err != nil {
		t.Fatal(err)
	}
	if fired {
		t.Error("T1 fired twice with one token")
	}

	_, _, _, err = e.Step("T_ghost")
	var utErr *cpn.UnknownTransitionError
	if !errors.As(err, &utErr) {
		t.Fatalf("got %v, want *UnknownTransitionError", err)
	}
}

func TestRuleAgent_Choose(t *testing.T) {
	a := agent.NewRuleAgent([]string{"T10", "T6"}, 1)
	if got := a.Choose([]string{"T2", "T6", "T9"}); got != "T6" {
		t.Errorf("choose = %q, want T6", got)
	}
	if got := a.Choose([]string{"T2", "T9"}); got != "T2" && got != "T9" {
		t.Errorf("fallback chose %q, not an available action", got)
	}
	if got := a.Choose(nil); got != "" {
		t.Errorf("choose on empty = %q, want empty", got)
	}
}

func TestRunEpisode(t *testing.T) {
	e := agent.NewEnv(buildLine, doneReward)
	a := agent.NewRuleAgent([]string{"T1", "T2", "T3"}, 1)

	total, taken := agent.RunEpisode(e, a, 10, nil)
	if taken != 3 {
		t.Errorf("taken = %d, want 3: the line exhausts after three moves", taken)
	}
	// Only the final state carries the token at P3.
	if total != 10 {
		t.Errorf("total reward = %v, want 10", total)
	}
	if got := e.State()["P3"]; got != 1 {
		t.Errorf("P3 = %d, want 1", got)
	}
}
