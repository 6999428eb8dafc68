// Package supervisor gates operations before execution: budget counters
// first, then a risk classification by operation type, plus a runaway
// detector for iterative control loops. All functions are pure so they
// can be checked independently of the orchestrator.
package supervisor

import (
	"time"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"
)

// Operation types the supervisor knows how to rate.
const (
	OpExternalAPICall     = "external_api_call"
	OpDataModification    = "data_modification"
	OpSensitiveDataAccess = "sensitive_data_access"
)

// maxLoopDuration is the wall-clock ceiling for one control loop.
const maxLoopDuration = 30 * time.Second

// stuckStateWindow is how many identical trailing states mark a loop as
// stuck.
const stuckStateWindow = 3

// Flags carries the context signals that escalate an operation's risk.
type Flags struct {
	SensitiveData bool
	HighVolume    bool
}

// Decision is the outcome of one approval check. EscalationRequired is
// orthogonal to approval: an approved high-risk operation still wants a
// human in the loop.
type Decision struct {
	Approved           bool             `json:"approved"`
	Reason             string           `json:"reason,omitempty"`
	Risk               models.RiskLevel `json:"risk"`
	EscalationRequired bool             `json:"escalation_required"`
}

// AssessRisk classifies an operation type, escalating one level when the
// context flags sensitive or high-volume data.
func AssessRisk(opType string, flags Flags) models.RiskLevel {
	var risk models.RiskLevel
	switch opType {
	case OpExternalAPICall:
		risk = models.RiskMedium
	case OpDataModification:
		risk = models.RiskHigh
	case OpSensitiveDataAccess:
		risk = models.RiskCritical
	default:
		risk = models.RiskLow
	}
	if flags.SensitiveData || flags.HighVolume {
		risk = risk.Escalate()
	}
	return risk
}

// ApproveOperation runs the gate: budget counters short-circuit to a
// rejection before any risk assessment, then risk policy applies.
// Sensitive data access is always rejected regardless of budget headroom.
func ApproveOperation(opType string, budget models.Budget, flags Flags) Decision {
	if budget.Tokens <= 0 {
		return Decision{Reason: "Token budget exceeded"}
	}
	if budget.ToolCalls <= 0 {
		return Decision{Reason: "Tool call budget exceeded"}
	}
	if budget.DeadlineMS <= 0 {
		return Decision{Reason: "Deadline budget exceeded"}
	}

	risk := AssessRisk(opType, flags)
	if opType == OpSensitiveDataAccess {
		return Decision{
			Reason:             "Sensitive data access is not permitted",
			Risk:               risk,
			EscalationRequired: true,
		}
	}

	return Decision{
		Approved:           true,
		Risk:               risk,
		EscalationRequired: risk == models.RiskHigh || risk == models.RiskCritical,
	}
}

// LoopInfo is the observable state of one iterative control loop.
type LoopInfo struct {
	StartTime time.Time
	States    []string
}

// LoopDecision says whether the loop may run another iteration.
type LoopDecision struct {
	Continue bool   `json:"continue"`
	Reason   string `json:"reason,omitempty"`
}

// ControlLoop is the runaway detector. It halts a loop that has hit its
// iteration cap, repeated the same state three times in a row, or run
// past the wall-clock ceiling.
func ControlLoop(info LoopInfo, iteration, maxIterations int) LoopDecision {
	if iteration >= maxIterations {
		return LoopDecision{Reason: "iteration limit reached"}
	}
	if isStuck(info.States) {
		return LoopDecision{Reason: "loop is repeating the same state"}
	}
	if !info.StartTime.IsZero() && time.Since(info.StartTime) > maxLoopDuration {
		return LoopDecision{Reason: "wall-clock limit exceeded"}
	}
	return LoopDecision{Continue: true}
}

func isStuck(states []string) bool {
	if len(states) < stuckStateWindow {
		return false
	}
	last := states[len(states)-1]
	for _, s := range states[len(states)-stuckStateWindow : len(states)-1] {
		if s != last {
			return false
		}
	}
	return true
}
