package statemachine

import (
	"errors"

	"rotibank-api/models"
)

// Actor names used in both lifecycle tables.
const (
	ActorRestaurant = "restaurant"
	ActorVolunteer  = "volunteer"
	ActorNgo        = "ngo"
	ActorAdmin      = "admin"
	ActorSystem     = "system"
)

// RequestTransition defines a valid pickup-request state change and who can perform it
type RequestTransition struct {
	From  models.RequestStatus
	To    models.RequestStatus
	Actor string
}

// requestTransitions is the authoritative lifecycle definition. Claimant
// steps exist for both volunteer and ngo; the "system" rows are the
// side-effect sync fired when the owning restaurant force-advances the
// donation past the claimant's current step.
var requestTransitions = []RequestTransition{
	{From: models.RequestPending, To: models.RequestAccepted, Actor: ActorVolunteer},
	{From: models.RequestPending, To: models.RequestAccepted, Actor: ActorNgo},
	{From: models.RequestAccepted, To: models.RequestPickedUp, Actor: ActorVolunteer},
	{From: models.RequestAccepted, To: models.RequestPickedUp, Actor: ActorNgo},
	{From: models.RequestPickedUp, To: models.RequestDelivered, Actor: ActorVolunteer},
	{From: models.RequestPickedUp, To: models.RequestDelivered, Actor: ActorNgo},
	// Cancellation from any non-terminal state
	{From: models.RequestPending, To: models.RequestCancelled, Actor: ActorVolunteer},
	{From: models.RequestPending, To: models.RequestCancelled, Actor: ActorNgo},
	{From: models.RequestPending, To: models.RequestCancelled, Actor: ActorAdmin},
	{From: models.RequestAccepted, To: models.RequestCancelled, Actor: ActorVolunteer},
	{From: models.RequestAccepted, To: models.RequestCancelled, Actor: ActorNgo},
	{From: models.RequestAccepted, To: models.RequestCancelled, Actor: ActorAdmin},
	{From: models.RequestPickedUp, To: models.RequestCancelled, Actor: ActorVolunteer},
	{From: models.RequestPickedUp, To: models.RequestCancelled, Actor: ActorNgo},
	{From: models.RequestPickedUp, To: models.RequestCancelled, Actor: ActorAdmin},
	// Donation-driven sync may skip intermediate claimant steps
	{From: models.RequestPending, To: models.RequestPickedUp, Actor: ActorSystem},
	{From: models.RequestAccepted, To: models.RequestPickedUp, Actor: ActorSystem},
	{From: models.RequestPickedUp, To: models.RequestDelivered, Actor: ActorSystem},
	{From: models.RequestPending, To: models.RequestDelivered, Actor: ActorSystem},
	{From: models.RequestAccepted, To: models.RequestDelivered, Actor: ActorSystem},
}

type requestKey struct {
	From  models.RequestStatus
	To    models.RequestStatus
	Actor string
}

var requestMap = func() map[requestKey]bool {
	m := make(map[requestKey]bool)
	for _, t := range requestTransitions {
		m[requestKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidRequestTransitionsFrom returns all valid next states from a given state
func ValidRequestTransitionsFrom(status models.RequestStatus) []models.RequestStatus {
	var nexts []models.RequestStatus
	seen := map[models.RequestStatus]bool{}
	for _, t := range requestTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransitionRequest checks if a given actor can move a pickup request between states
func CanTransitionRequest(from, to models.RequestStatus, actor string) error {
	if requestMap[requestKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " -> " + string(to) +
			" is not allowed for actor '" + actor + "'. " +
			"Valid transitions from " + string(from) + " are: " + describeRequestFrom(from),
	)
}

func describeRequestFrom(status models.RequestStatus) string {
	nexts := ValidRequestTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// AllRequestTransitions returns the full pickup-request state machine for documentation
func AllRequestTransitions() []RequestTransition {
	return requestTransitions
}
