// Package swarm implements the Swarm Coordinator (SPEC_FULL.md §4.K):
// deterministic multi-agent spawning from a goal hash, parallel execution
// via futures, conflict detection/resolution, predictive pre-spawning, and
// SwarmDNA evolution, grounded on the teacher's subagent spawner
// (internal/session/spawner.go, subagent.go) generalized from config-driven
// spawning to hash-deterministic spawning.
package swarm

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// AgentType is the tagged variant of specialized agent (spec.md §3).
type AgentType string

const (
	AgentArchitect     AgentType = "architect"
	AgentWorker        AgentType = "worker"
	AgentVerifier      AgentType = "verifier"
	AgentManager       AgentType = "manager"
	AgentValidator     AgentType = "validator"
	AgentTesting       AgentType = "testing"
	AgentCodeGen       AgentType = "code_generation"
	AgentRefactoring   AgentType = "refactoring"
	AgentDocumentation AgentType = "documentation"
	AgentDeployment    AgentType = "deployment"
)

// Authority is the trust weight used by Goal-conflict resolution
// (spec.md §4.K).
type Authority float64

const (
	AuthorityHuman  Authority = 1.0
	AuthoritySenior Authority = 0.8
	AuthorityJunior Authority = 0.3
)

// Personality is a deterministic behavioral profile derived from
// goal_hash + agent type.
type Personality struct {
	Caution     float64
	Thoroughness float64
	Speed       float64
}

// Agent is one deterministically spawned swarm participant.
type Agent struct {
	ID          string
	Type        AgentType
	Authority   Authority
	Personality Personality
	CurrentTask *Task
	Stats       AgentStats
}

// AgentStats tracks an agent's running track record.
type AgentStats struct {
	TasksCompleted int
	TasksFailed    int
}

// Task is one unit of work dispatched to an agent.
type Task struct {
	ID                string
	Description       string
	RequiredAgentType AgentType
	Priority          float64
	EstimatedDurationMs int64
	Dependencies      []string
	AntiDependencies  []string
}

// AgentOutput is one agent future's result (spec.md §4.K step 3).
type AgentOutput struct {
	AgentID string
	TaskID  string
	Success bool
	Detail  string
}

// goalHash computes H(goal_text).
func goalHash(goalText string) []byte {
	sum := sha256.Sum256([]byte(goalText))
	return sum[:]
}

// SwarmID is the first 16 bytes of the goal hash, hex-encoded
// (spec.md §4.K).
func SwarmID(goalText string) string {
	h := goalHash(goalText)
	return hex.EncodeToString(h[:16])
}

// AgentID is H(goal_hash ‖ type ‖ index), hex-encoded.
func AgentID(goalText string, agentType AgentType, index int) string {
	h := goalHash(goalText)
	data := append(append([]byte{}, h...), []byte(agentType)...)
	data = binary.BigEndian.AppendUint32(data, uint32(index))
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DerivePersonality produces a deterministic personality profile from
// goal_hash + type: three independent byte slices of the type-salted hash
// mapped into [0,1].
func DerivePersonality(goalText string, agentType AgentType) Personality {
	h := goalHash(goalText + "|" + string(agentType))
	return Personality{
		Caution:      float64(h[0]) / 255.0,
		Thoroughness: float64(h[1]) / 255.0,
		Speed:        float64(h[2]) / 255.0,
	}
}

func agentIDLabel(goalText string, agentType AgentType, index int) string {
	return fmt.Sprintf("%s-%s", agentType, AgentID(goalText, agentType, index)[:8])
}
