package handlers

import (
	"net/http"

	"rotibank-api/statemachine"

	"github.com/gin-gonic/gin"
)

// GetStateMachineInfo returns both lifecycle definitions for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	var donation []gin.H
	for _, t := range statemachine.AllDonationTransitions() {
		donation = append(donation, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}
	var pickup []gin.H
	for _, t := range statemachine.AllRequestTransitions() {
		pickup = append(pickup, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}
	c.JSON(http.StatusOK, gin.H{
		"donation_lifecycle":       donation,
		"donation_terminal_states": []string{"distributed", "expired"},
		"pickup_lifecycle":         pickup,
		"pickup_terminal_states":   []string{"delivered", "cancelled"},
		"description":              "Food Donation Coordination Lifecycle State Machines",
	})
}
