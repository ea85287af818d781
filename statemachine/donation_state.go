package statemachine

import (
	"errors"

	"rotibank-api/models"
)

// DonationTransition defines a valid donation state change and who can perform it
type DonationTransition struct {
	From  models.DonationStatus
	To    models.DonationStatus
	Actor string // "restaurant", "admin", "system"
}

// donationTransitions is the authoritative lifecycle definition. The
// "system" actor covers side effects driven by the linked pickup request.
var donationTransitions = []DonationTransition{
	// Claim happens when a pickup request is created, or when the owning
	// restaurant marks the donation as taken directly.
	{From: models.DonationAvailable, To: models.DonationClaimed, Actor: ActorRestaurant},
	{From: models.DonationAvailable, To: models.DonationClaimed, Actor: ActorSystem},
	// Physical handoff
	{From: models.DonationClaimed, To: models.DonationPickedUp, Actor: ActorRestaurant},
	{From: models.DonationClaimed, To: models.DonationPickedUp, Actor: ActorSystem},
	// Final distribution
	{From: models.DonationPickedUp, To: models.DonationDistributed, Actor: ActorRestaurant},
	{From: models.DonationPickedUp, To: models.DonationDistributed, Actor: ActorSystem},
	// Expiry is an explicit action, reachable only before pickup
	{From: models.DonationAvailable, To: models.DonationExpired, Actor: ActorRestaurant},
	{From: models.DonationAvailable, To: models.DonationExpired, Actor: ActorAdmin},
	{From: models.DonationClaimed, To: models.DonationExpired, Actor: ActorRestaurant},
	{From: models.DonationClaimed, To: models.DonationExpired, Actor: ActorAdmin},
}

type donationKey struct {
	From  models.DonationStatus
	To    models.DonationStatus
	Actor string
}

// Build a lookup map for O(1) validation
var donationMap = func() map[donationKey]bool {
	m := make(map[donationKey]bool)
	for _, t := range donationTransitions {
		m[donationKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidDonationTransitionsFrom returns all valid next states from a given state
func ValidDonationTransitionsFrom(status models.DonationStatus) []models.DonationStatus {
	var nexts []models.DonationStatus
	seen := map[models.DonationStatus]bool{}
	for _, t := range donationTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransitionDonation checks if a given actor can move a donation between states
func CanTransitionDonation(from, to models.DonationStatus, actor string) error {
	if donationMap[donationKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " -> " + string(to) +
			" is not allowed for actor '" + actor + "'. " +
			"Valid transitions from " + string(from) + " are: " + describeDonationFrom(from),
	)
}

func describeDonationFrom(status models.DonationStatus) string {
	nexts := ValidDonationTransitionsFrom(status)
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

// AllDonationTransitions returns the full donation state machine for documentation
func AllDonationTransitions() []DonationTransition {
	return donationTransitions
}
