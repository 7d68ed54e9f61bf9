// Package config loads forge's runtime configuration from .forge/config.yaml
// over built-in defaults; it reads no environment variables. Adapted from
// the teacher's config-file pattern (internal/perception/client_types.go).
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable threshold named across SPEC_FULL.md.
type Config struct {
	Drift     DriftConfig     `yaml:"drift"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Swarm     SwarmConfig     `yaml:"swarm"`
	Consensus ConsensusConfig `yaml:"consensus"`
	Providers []string        `yaml:"providers"`
	Debug     bool            `yaml:"debug"`
}

type DriftConfig struct {
	BlockThreshold     float64 `yaml:"block_threshold"`
	WarnThreshold      float64 `yaml:"warn_threshold"`
	MaxPathDeviation   float64 `yaml:"max_path_deviation"`
	HistoryLimit       int     `yaml:"history_limit"`
}

type PipelineConfig struct {
	MaxModules          int `yaml:"max_modules"`
	MaxRepairAttempts   int `yaml:"max_repair_attempts"`
	ParallelismPerLevel int `yaml:"parallelism_per_level"`
}

type SwarmConfig struct {
	MaxAgents            int `yaml:"max_agents"`
	MaxConcurrentLLM     int `yaml:"max_concurrent_llm"`
	MaxExecutionTimeSecs int `yaml:"max_execution_time_secs"`
}

type ConsensusConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	MinValidators  int `yaml:"min_validators"`
}

// Default returns the spec-mandated defaults (spec.md §4.E, §4.G, §4.J,
// §4.K, §4.L).
func Default() Config {
	return Config{
		Drift: DriftConfig{
			BlockThreshold:   50,
			WarnThreshold:    80,
			MaxPathDeviation: 0.3,
			HistoryLimit:     100,
		},
		Pipeline: PipelineConfig{
			MaxModules:          8,
			MaxRepairAttempts:   3,
			ParallelismPerLevel: 3,
		},
		Swarm: SwarmConfig{
			MaxAgents:            10,
			MaxConcurrentLLM:     3,
			MaxExecutionTimeSecs: 300,
		},
		Consensus: ConsensusConfig{
			TimeoutSeconds: 60,
			MinValidators:  1,
		},
		Providers: []string{"openai-auth", "openrouter", "openai", "anthropic", "gemini", "openai-compatible"},
	}
}

// Load reads path (if present), overlaying onto the defaults. A missing file
// is not an error; an unparsable one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
