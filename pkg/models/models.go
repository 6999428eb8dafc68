// Package models defines the shared data model for the maps chat control
// plane: the A2A envelope, agent records, per-user conversation context,
// resolved intents, execution plans, budgets, and review results.
//
// The package is dependency-free so every layer can import it.
package models

import (
	"fmt"
	"time"
)

// ── Agents ───────────────────────────────────────────────────

// AgentKind classifies what role an agent plays in the system.
type AgentKind string

const (
	AgentOrchestrator AgentKind = "orchestrator"
	AgentMaps         AgentKind = "maps"
	AgentPlanner      AgentKind = "planner"
	AgentResearcher   AgentKind = "researcher"
	AgentWriter       AgentKind = "writer"
	AgentReviewer     AgentKind = "reviewer"
	AgentSupervisor   AgentKind = "supervisor"
)

type AgentStatus string

const (
	AgentStatusReady   AgentStatus = "ready"
	AgentStatusOffline AgentStatus = "offline"
)

// AgentRecord is one entry in the agent registry. Records are created at
// registration time, mutated only by re-registration, and never deleted
// during the process lifetime.
type AgentRecord struct {
	ID           string      `json:"id"`
	Kind         AgentKind   `json:"kind"`
	Endpoint     string      `json:"endpoint,omitempty"`
	Capabilities []string    `json:"capabilities,omitempty"`
	Status       AgentStatus `json:"status"`
	RegisteredAt time.Time   `json:"registered_at"`
}

// HasCapability reports whether the agent advertises the given capability.
func (a *AgentRecord) HasCapability(name string) bool {
	for _, c := range a.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

// ── A2A Envelope ─────────────────────────────────────────────

// Budget caps a single operation: token spend, downstream tool calls, and
// wall-clock time. Counters are remaining amounts, always non-negative;
// each supervision check evaluates against the budget supplied for that
// specific operation.
type Budget struct {
	Tokens     int64 `json:"tokenLimit"`
	ToolCalls  int   `json:"toolCallLimit"`
	DeadlineMS int64 `json:"deadlineMs"`
}

// Envelope is the one canonical message shape exchanged between agents.
// CorrelationID is immutable once assigned and threads through every
// downstream call for a single user turn. Wire field names follow the A2A
// protocol, which predates this service.
type Envelope struct {
	FromAgentID   string         `json:"fromAgentId"`
	ToAgentID     string         `json:"toAgentId"`
	Intent        string         `json:"intent"` // uppercase action name, e.g. CHAT_MESSAGE
	CorrelationID string         `json:"correlationId"`
	Budget        Budget         `json:"budget"`
	CreatedAt     time.Time      `json:"createdAt"`
	Payload       map[string]any `json:"payload"`
}

// Validate checks the fields every inbound envelope must carry.
func (e *Envelope) Validate() error {
	switch {
	case e.FromAgentID == "":
		return fmt.Errorf("%w: missing fromAgentId", ErrMalformedEnvelope)
	case e.ToAgentID == "":
		return fmt.Errorf("%w: missing toAgentId", ErrMalformedEnvelope)
	case e.Intent == "":
		return fmt.Errorf("%w: missing intent", ErrMalformedEnvelope)
	case e.Payload == nil:
		return fmt.Errorf("%w: missing payload", ErrMalformedEnvelope)
	}
	return nil
}

// ── User Context ─────────────────────────────────────────────

// HistoryWindow bounds per-user conversation history. Older entries are
// truncated on append.
const HistoryWindow = 20

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LocationSource says where a location value came from.
type LocationSource string

const (
	LocationCoordinates LocationSource = "coordinates"
	LocationAddress     LocationSource = "address"
	LocationContextRef  LocationSource = "contextReference"
	LocationNone        LocationSource = "none"
)

type LastLocation struct {
	Source LocationSource `json:"source"`
	Value  string         `json:"value,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ContextMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
}

// UserContext is the per-user conversation state. Created lazily on the
// first message from a user, mutated after every turn, never explicitly
// destroyed.
type UserContext struct {
	UserID          string           `json:"user_id"`
	LastLocation    LastLocation     `json:"last_location"`
	LastCoordinates *LatLon          `json:"last_coordinates,omitempty"`
	History         []ContextMessage `json:"history,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NewUserContext returns a fresh context for a first-time user.
func NewUserContext(userID string) *UserContext {
	return &UserContext{
		UserID:       userID,
		LastLocation: LastLocation{Source: LocationNone},
		UpdatedAt:    time.Now().UTC(),
	}
}

// Append adds a history entry and truncates to the history window.
func (u *UserContext) Append(role Role, text string) {
	u.History = append(u.History, ContextMessage{
		Timestamp: time.Now().UTC(),
		Role:      role,
		Text:      text,
	})
	if len(u.History) > HistoryWindow {
		u.History = u.History[len(u.History)-HistoryWindow:]
	}
}

// ── Intent ───────────────────────────────────────────────────

// IntentKind is the actionable category a user message resolves to.
type IntentKind string

const (
	IntentSearch         IntentKind = "search"
	IntentGeocode        IntentKind = "geocode"
	IntentDirections     IntentKind = "directions"
	IntentMatrix         IntentKind = "matrix"
	IntentReverseGeocode IntentKind = "reverseGeocode"
	IntentStaticMap      IntentKind = "staticMap"
	IntentGeneralChat    IntentKind = "generalChat"
)

// Intent is the structured classification of one user message. Produced
// fresh per turn and never mutated.
type Intent struct {
	Kind           IntentKind     `json:"intent"`
	LocationSource LocationSource `json:"location_source"`
	LocationValue  string         `json:"location_value,omitempty"`
	SearchText     string         `json:"search_text,omitempty"`
	ToolNeeded     string         `json:"tool_needed,omitempty"`
	Confidence     float64        `json:"confidence"`
}

// ── Plan ─────────────────────────────────────────────────────

type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

type Step struct {
	StepID         string         `json:"step_id"`
	TargetAgent    string         `json:"target_agent"`
	Action         string         `json:"action"`
	Inputs         map[string]any `json:"inputs,omitempty"`
	DependsOn      []string       `json:"depends_on,omitempty"`
	ExpectedOutput string         `json:"expected_output,omitempty"`
}

type Plan struct {
	PlanID               string     `json:"plan_id"`
	Steps                []Step     `json:"steps"`
	EstimatedDurationSec int        `json:"estimated_duration_sec"`
	Complexity           Complexity `json:"complexity"`
}

// Validate enforces the plan invariant: every depends_on id must name a
// step that appears earlier in the sequence, which also guarantees the
// dependency graph is acyclic.
func (p *Plan) Validate() error {
	seen := make(map[string]bool, len(p.Steps))
	for i, s := range p.Steps {
		if s.StepID == "" {
			return fmt.Errorf("plan %s: step %d has no id", p.PlanID, i)
		}
		if seen[s.StepID] {
			return fmt.Errorf("plan %s: duplicate step id %q", p.PlanID, s.StepID)
		}
		for _, dep := range s.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("plan %s: step %q depends on %q which does not appear earlier", p.PlanID, s.StepID, dep)
			}
		}
		seen[s.StepID] = true
	}
	return nil
}

// ── Risk & Review ────────────────────────────────────────────

// RiskLevel classifies how much oversight an operation requires.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Escalate bumps the risk one level. Critical stays critical.
func (r RiskLevel) Escalate() RiskLevel {
	switch r {
	case RiskLow:
		return RiskMedium
	case RiskMedium:
		return RiskHigh
	default:
		return RiskCritical
	}
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Weight is the penalty a severity contributes to review confidence.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityLow:
		return 0.1
	case SeverityMedium:
		return 0.3
	case SeverityHigh:
		return 0.6
	case SeverityCritical:
		return 0.9
	}
	return 0.0
}

type ReviewIssue struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

type ReviewResult struct {
	Approved        bool          `json:"approved"`
	Issues          []ReviewIssue `json:"issues,omitempty"`
	Confidence      float64       `json:"confidence"`
	RevisionsNeeded bool          `json:"revisions_needed"`
}

// ── Chat Surface ─────────────────────────────────────────────

type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	AgentUsed string `json:"agent_used"`
	QueryType string `json:"query_type"`
	Success   bool   `json:"success"`
}
