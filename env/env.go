package env

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/q13agupta/cpn"
)

// Environment is the simulation configuration, read from the process
// environment and optionally seeded from a .env file.
type Environment struct {
	Steps    int
	Policy   string
	Priority []string
	Seed     int64
	MaxDepth int
	Verbose  bool
	NetFile  string
}

// LoadEnv reads the environment. A missing .env file is not an error, and
// unset or empty variables keep their defaults. Numbers that are set but
// unparseable are fatal.
func LoadEnv(logger *zap.Logger) *Environment {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file", zap.Error(err))
	}
	e := &Environment{
		Steps:    50,
		Policy:   "random",
		Seed:     1,
		MaxDepth: 6,
	}
	if v := os.Getenv("SIM_STEPS"); v != "" {
		e.Steps = mustInt(logger, "SIM_STEPS", v)
	}
	if v := os.Getenv("SIM_POLICY"); v != "" {
		e.Policy = v
	}
	if v := os.Getenv("SIM_PRIORITY"); v != "" {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				e.Priority = append(e.Priority, name)
			}
		}
	}
	if v := os.Getenv("SIM_SEED"); v != "" {
		e.Seed = int64(mustInt(logger, "SIM_SEED", v))
	}
	if v := os.Getenv("SIM_MAX_DEPTH"); v != "" {
		e.MaxDepth = mustInt(logger, "SIM_MAX_DEPTH", v)
	}
	if v := os.Getenv("SIM_VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Fatal("Failed to parse SIM_VERBOSE", zap.Error(err))
		}
		e.Verbose = b
	}
	if v := os.Getenv("SIM_NETFILE"); v != "" {
		e.NetFile = v
	}
	return e
}

// RunPolicy builds the firing policy the environment selects: "prioritise"
// with the configured priority list, anything else random.
func (e *Environment) RunPolicy() cpn.Policy {
	if e.Policy == "prioritise" || e.Policy == "priority" {
		return cpn.NewPriorityPolicy(e.Priority, e.Seed)
	}
	return cpn.NewRandomPolicy(e.Seed)
}

func mustInt(logger *zap.Logger, key, v string) int {
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		logger.Fatal("Failed to parse "+key, zap.Error(err))
	}
	return int(i)
}
