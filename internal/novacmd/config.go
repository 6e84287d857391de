package novacmd

import "github.com/caarlos0/env/v6"

// Config is runtime configuration read from the process environment: the
// ambient layer the distilled specification has no room for, but a
// runnable CLI needs (bounding runaway programs, choosing how a panic is
// reported).
type Config struct {
	MaxSteps int64 `env:"NOVA_MAX_STEPS" envDefault:"0"`
	Trace    bool  `env:"NOVA_TRACE" envDefault:"false"`
}

// LoadConfig parses Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
