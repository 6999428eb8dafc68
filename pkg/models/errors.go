package models

import "errors"

// Error taxonomy for the control plane. Packages wrap these sentinels with
// context; the orchestrator boundary converts them into user-facing text.
var (
	ErrUnregisteredAgent      = errors.New("unregistered agent")
	ErrMalformedEnvelope      = errors.New("malformed envelope")
	ErrDispatchTimeout        = errors.New("dispatch timeout")
	ErrIntentResolutionFailed = errors.New("intent resolution failed")
	ErrGeocodeNotFound        = errors.New("geocode not found")
	ErrRouteNotFound          = errors.New("route not found")
	ErrBudgetExceeded         = errors.New("budget exceeded")
	ErrRiskRejected           = errors.New("risk rejected")
	ErrReviewFailed           = errors.New("review failed")
)
