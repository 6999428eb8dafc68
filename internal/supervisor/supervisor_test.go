package supervisor

import (
	"testing"
	"time"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"
)

func testBudget() models.Budget {
	return models.Budget{Tokens: 4096, ToolCalls: 10, DeadlineMS: 30000}
}

func TestAssessRisk(t *testing.T) {
	cases := []struct {
		name   string
		opType string
		flags  Flags
		want   models.RiskLevel
	}{
		{"external api call", OpExternalAPICall, Flags{}, models.RiskMedium},
		{"data modification", OpDataModification, Flags{}, models.RiskHigh},
		{"sensitive data access", OpSensitiveDataAccess, Flags{}, models.RiskCritical},
		{"unknown type", "read_cache", Flags{}, models.RiskLow},
		{"sensitive flag escalates", OpExternalAPICall, Flags{SensitiveData: true}, models.RiskHigh},
		{"high volume escalates", "read_cache", Flags{HighVolume: true}, models.RiskMedium},
		{"critical stays critical", OpSensitiveDataAccess, Flags{SensitiveData: true}, models.RiskCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AssessRisk(tc.opType, tc.flags); got != tc.want {
				t.Errorf("AssessRisk(%q, %+v) = %v, want %v", tc.opType, tc.flags, got, tc.want)
			}
		})
	}
}

// An exhausted token budget rejects every operation before risk is even
// considered.
func TestApproveOperationZeroTokens(t *testing.T) {
	for _, opType := range []string{OpExternalAPICall, OpDataModification, OpSensitiveDataAccess, "read_cache"} {
		budget := testBudget()
		budget.Tokens = 0
		d := ApproveOperation(opType, budget, Flags{})
		if d.Approved {
			t.Errorf("ApproveOperation(%q) approved with zero tokens", opType)
		}
		if d.Reason != "Token budget exceeded" {
			t.Errorf("ApproveOperation(%q) reason = %q, want Token budget exceeded", opType, d.Reason)
		}
	}
}

func TestApproveOperationBudgetCounters(t *testing.T) {
	budget := testBudget()
	budget.ToolCalls = 0
	if d := ApproveOperation(OpExternalAPICall, budget, Flags{}); d.Approved || d.Reason != "Tool call budget exceeded" {
		t.Errorf("zero tool calls: got %+v", d)
	}

	budget = testBudget()
	budget.DeadlineMS = 0
	if d := ApproveOperation(OpExternalAPICall, budget, Flags{}); d.Approved || d.Reason != "Deadline budget exceeded" {
		t.Errorf("zero deadline: got %+v", d)
	}
}

func TestApproveOperationRiskPolicy(t *testing.T) {
	d := ApproveOperation(OpExternalAPICall, testBudget(), Flags{})
	if !d.Approved || d.Risk != models.RiskMedium || d.EscalationRequired {
		t.Errorf("external api call: got %+v", d)
	}

	// High risk is approved but flagged for escalation.
	d = ApproveOperation(OpDataModification, testBudget(), Flags{})
	if !d.Approved || !d.EscalationRequired {
		t.Errorf("data modification: got %+v", d)
	}

	// Sensitive data access is rejected even with full budget.
	d = ApproveOperation(OpSensitiveDataAccess, testBudget(), Flags{})
	if d.Approved {
		t.Errorf("sensitive data access was approved: %+v", d)
	}
	if !d.EscalationRequired {
		t.Errorf("sensitive data access not flagged for escalation: %+v", d)
	}
}

func TestControlLoopIterationCap(t *testing.T) {
	info := LoopInfo{StartTime: time.Now()}
	if d := ControlLoop(info, 10, 10); d.Continue {
		t.Errorf("loop at iteration cap continued: %+v", d)
	}
	if d := ControlLoop(info, 11, 10); d.Continue {
		t.Errorf("loop past iteration cap continued: %+v", d)
	}
	if d := ControlLoop(info, 3, 10); !d.Continue {
		t.Errorf("loop under cap halted: %+v", d)
	}
}

func TestControlLoopStuckStates(t *testing.T) {
	info := LoopInfo{
		StartTime: time.Now(),
		States:    []string{"planning", "searching", "searching", "searching"},
	}
	if d := ControlLoop(info, 4, 10); d.Continue {
		t.Errorf("stuck loop continued: %+v", d)
	}

	info.States = []string{"planning", "searching", "reviewing", "searching"}
	if d := ControlLoop(info, 4, 10); !d.Continue {
		t.Errorf("progressing loop halted: %+v", d)
	}
}

func TestControlLoopWallClock(t *testing.T) {
	info := LoopInfo{StartTime: time.Now().Add(-time.Minute)}
	if d := ControlLoop(info, 1, 10); d.Continue {
		t.Errorf("over-time loop continued: %+v", d)
	}
}
