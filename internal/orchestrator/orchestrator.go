// Package orchestrator sequences one chat turn: context read, intent
// resolution, supervision, planning, tool execution or general chat,
// quality review, and the final context update. Raw collaborator errors
// never reach the user; every failure path maps to a fixed apology.
package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/contextstore"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/intent"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/llm"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/observe"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/planner"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/review"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/supervisor"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/internal/toolflow"
	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"

	"github.com/rs/zerolog/log"
)

const defaultUserID = "default"

// User-facing apologies. The raw cause is logged, never surfaced.
const (
	msgUnderstandFailure = "I'm sorry, I couldn't understand that request. Could you rephrase it?"
	msgRejected          = "I can't take on that request right now. Please try again in a moment."
	msgChatFailure       = "Sorry, I'm having trouble answering right now. Please try again in a moment."
)

// Canned general-chat replies recovered from the original deployment.
// These short-circuit the language model for trivial turns.
var (
	greetingRe = regexp.MustCompile(`(?i)^\s*(?:hi|hello|hey|good (?:morning|afternoon|evening))\b`)
	helpRe     = regexp.MustCompile(`(?i)\b(?:help|what can you do)\b`)
	weatherRe  = regexp.MustCompile(`(?i)\bweather\b`)
	timeRe     = regexp.MustCompile(`(?i)\bwhat(?:'s| is) the time\b|\bcurrent time\b`)
)

const (
	cannedGreeting = "Hello! I'm your maps assistant. I can find places, look up addresses and coordinates, " +
		"compute directions, and build travel-time tables. What would you like to do?"
	cannedHelp = "I can help you with:\n" +
		"- Finding places: \"find coffee near Dam Square\"\n" +
		"- Addresses and coordinates: \"where is the Rijksmuseum?\"\n" +
		"- Directions: \"how do I get from Amsterdam to Utrecht?\"\n" +
		"- Travel-time tables: \"travel times between Amsterdam, Utrecht and Rotterdam\"\n" +
		"- Map images: \"show me a map of Rotterdam\""
	cannedWeather = "I can't check the weather, but I can help you find places, directions, and travel times. " +
		"Is there somewhere you'd like to go?"
	cannedTime = "I don't have a clock, but I can tell you how long it takes to get somewhere. " +
		"Want directions or travel times?"
)

// Orchestrator is the composition root for chat turns.
type Orchestrator struct {
	store   contextstore.Store
	intents *intent.Resolver
	chat    llm.Client
	tools   *toolflow.Orchestrator
	budget  models.Budget
	rec     observe.Recorder
}

// New wires a chat orchestrator with the default per-turn budget.
func New(store contextstore.Store, intents *intent.Resolver, chat llm.Client, tools *toolflow.Orchestrator, budget models.Budget, rec observe.Recorder) *Orchestrator {
	return &Orchestrator{
		store:   store,
		intents: intents,
		chat:    chat,
		tools:   tools,
		budget:  budget,
		rec:     rec,
	}
}

// Chat runs one user turn end to end.
func (o *Orchestrator) Chat(ctx context.Context, req models.ChatRequest) models.ChatResponse {
	start := time.Now()
	userID := req.UserID
	if userID == "" {
		userID = defaultUserID
	}

	uctx, err := o.store.Get(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("context read failed")
		uctx = models.NewUserContext(userID)
	}

	it, err := o.intents.Resolve(ctx, req.Message, uctx)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("intent resolution failed")
		o.record(ctx, "chat", start, false, err)
		return models.ChatResponse{
			Response:  msgUnderstandFailure,
			AgentUsed: "orchestrator-agent",
			QueryType: "unknown",
		}
	}

	decision := supervisor.ApproveOperation(supervisor.OpExternalAPICall, o.budget, supervisor.Flags{})
	if !decision.Approved {
		log.Warn().
			Str("user_id", userID).
			Str("reason", decision.Reason).
			Str("risk", string(decision.Risk)).
			Msg("operation rejected by supervisor")
		cause := models.ErrBudgetExceeded
		if decision.Risk == models.RiskCritical {
			cause = models.ErrRiskRejected
		}
		o.record(ctx, "chat", start, false, fmt.Errorf("%w: %s", cause, decision.Reason))
		return models.ChatResponse{
			Response:  msgRejected,
			AgentUsed: "orchestrator-agent",
			QueryType: string(it.Kind),
		}
	}

	reqs := planner.Analyze(it)
	log.Debug().
		Str("intent", string(it.Kind)).
		Str("tool", reqs.Tool).
		Bool("sequential", reqs.Sequential).
		Msg("plan requirements")

	// The plan requirements drive execution: sequential workflows geocode
	// before the downstream call, everything else is one tool dispatch.
	var (
		result    toolflow.Result
		agentUsed = "maps-agent"
		success   = true
	)
	switch {
	case it.Kind == models.IntentGeneralChat:
		result, success = o.generalChat(ctx, req.Message, uctx)
		agentUsed = "chat-agent"
	case reqs.Sequential && it.Kind == models.IntentMatrix:
		result = o.tools.Matrix(ctx, userID, req.Message)
	case reqs.Sequential:
		result = o.tools.Directions(ctx, userID, req.Message)
	default:
		result = o.tools.SingleTool(ctx, userID, reqs.Tool, it, req.Message)
	}

	verdict := review.Review(result.Response, req.Message, review.Evidence{ResultCount: result.ResultCount})
	if verdict.RevisionsNeeded {
		log.Warn().
			Str("user_id", userID).
			Interface("issues", verdict.Issues).
			Float64("confidence", verdict.Confidence).
			Msg("quality review rejected the response")
		o.rec.Record(ctx, observe.Event{
			Component: "review",
			Operation: "review",
			Success:   false,
			Error:     models.ErrReviewFailed.Error(),
		})
	}

	if err := o.store.AppendMessage(ctx, userID, models.RoleUser, req.Message); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("history append failed")
	}
	if err := o.store.AppendMessage(ctx, userID, models.RoleAssistant, result.Response); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("history append failed")
	}

	o.record(ctx, "chat", start, success, nil)
	return models.ChatResponse{
		Response:  result.Response,
		AgentUsed: agentUsed,
		QueryType: string(it.Kind),
		Success:   success,
	}
}

// generalChat answers non-maps turns: canned replies for trivial
// patterns, otherwise the language model with the maps-assistant persona.
func (o *Orchestrator) generalChat(ctx context.Context, message string, uctx *models.UserContext) (toolflow.Result, bool) {
	if canned, ok := cannedReply(message); ok {
		return toolflow.Result{Response: canned, ResultCount: -1, ToolUsed: "canned"}, true
	}

	reply, err := o.chat.Generate(ctx, chatPrompt(message, uctx))
	if err != nil {
		log.Error().Err(err).Msg("chat generation failed")
		return toolflow.Result{Response: msgChatFailure, ResultCount: -1, ToolUsed: "llm.generate"}, false
	}
	return toolflow.Result{Response: reply, ResultCount: -1, ToolUsed: "llm.generate"}, true
}

func cannedReply(message string) (string, bool) {
	switch {
	case greetingRe.MatchString(message):
		return cannedGreeting, true
	case helpRe.MatchString(message):
		return cannedHelp, true
	case weatherRe.MatchString(message):
		return cannedWeather, true
	case timeRe.MatchString(message):
		return cannedTime, true
	}
	return "", false
}

func chatPrompt(message string, uctx *models.UserContext) string {
	var b strings.Builder
	b.WriteString("You are a friendly maps and navigation assistant. Answer conversationally and briefly. ")
	b.WriteString("When the user's question could be served by a maps action (search, directions, travel times), mention it.\n\n")

	if uctx != nil && len(uctx.History) > 0 {
		b.WriteString("Recent conversation:\n")
		n := len(uctx.History)
		for _, msg := range uctx.History[max(0, n-6):] {
			fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User: %s", message)
	return b.String()
}

func (o *Orchestrator) record(ctx context.Context, op string, start time.Time, success bool, err error) {
	ev := observe.Event{
		Component: "orchestrator",
		Operation: op,
		Duration:  time.Since(start),
		Success:   success,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	o.rec.Record(ctx, ev)
}
