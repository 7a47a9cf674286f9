// Package agent wraps a net as an episodic environment for rule-based or
// learning agents: observations are markings, actions are transition
// names, and a reward function scores each resulting state.
package agent

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/q13agupta/cpn"
)

// RewardFunc scores a marking.
type RewardFunc func(cpn.Snapshot) float64

// Env is an episodic wrapper around a net. Reset rebuilds the net from
// scratch, so episodes are independent.
type Env struct {
	build  func() *cpn.Net
	reward RewardFunc
	net    *cpn.Net
}

// NewEnv creates an environment. A nil reward scores every state zero.
func NewEnv(build func() *cpn.Net, reward RewardFunc) *Env {
	if reward == nil {
		reward = func(cpn.Snapshot) float64 { return 0 }
	}
	e := &Env{build: build, reward: reward}
	e.Reset()
	return e
}

// Reset rebuilds the net and returns the initial observation.
func (e *Env) Reset() cpn.Snapshot {
	e.net = e.build()
	return e.net.Snapshot()
}

// State returns the current observation.
func (e *Env) State() cpn.Snapshot {
	return e.net.Snapshot()
}

// Actions returns the names of the currently enabled transitions.
func (e *Env) Actions() []string {
	enabled := e.net.Enabled()
	names := make([]string, len(enabled))
	for i, t := range enabled {
		names[i] = t.Name
	}
	return names
}

// Net exposes the live net for inspection.
func (e *Env) Net() *cpn.Net {
	return e.net
}

// Step fires the named transition and returns the new observation, its
// reward, and whether the firing happened. The reward is computed on the
// resulting state either way; an unknown action is an error.
func (e *Env) Step(action string) (cpn.Snapshot, float64, bool, error) {
	f, err := e.net.StepFire(action)
	if err != nil {
		return nil, 0, false, err
	}
	obs := e.net.Snapshot()
	return obs, e.reward(obs), f.Fired, nil
}

// RuleAgent picks the first enabled action from its priority list and
// otherwise falls back to a random enabled action.
type RuleAgent struct {
	Priority []string
	rng      *rand.Rand
}

// NewRuleAgent creates an agent with its own seeded source.
func NewRuleAgent(priority []string, seed int64) *RuleAgent {
	return &RuleAgent{
		Priority: append([]string(nil), priority...),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Choose picks an action, or "" when none are available.
func (a *RuleAgent) Choose(actions []string) string {
	if len(actions) == 0 {
		return ""
	}
	available := make(map[string]bool, len(actions))
	for _, name := range actions {
		available[name] = true
	}
	for _, name := range a.Priority {
		if available[name] {
			return name
		}
	}
	return actions[a.rng.Intn(len(actions))]
}

// RunEpisode drives the agent for up to steps actions, halting early when
// nothing is enabled. It returns the accumulated reward and the number of
// actions taken.
func RunEpisode(e *Env, a *RuleAgent, steps int, logger *zap.Logger) (float64, int) {
	if logger == nil {
		logger = zap.NewNop()
	}
	total := 0.0
	taken := 0
	for i := 0; i < steps; i++ {
		action := a.Choose(e.Actions())
		if action == "" {
			logger.Info("no enabled transitions, ending episode", zap.Int("step", i))
			break
		}
		obs, reward, fired, err := e.Step(action)
		if err != nil {
			logger.Error("step failed", zap.String("action", action), zap.Error(err))
			break
		}
		total += reward
		taken++
		logger.Debug("step",
			zap.Int("n", i),
			zap.String("action", action),
			zap.Bool("fired", fired),
			zap.Float64("reward", reward),
			zap.Int("tokens", obs.Total()))
	}
	logger.Info("episode finished",
		zap.Int("steps", taken),
		zap.Float64("total_reward", total))
	return total, taken
}
