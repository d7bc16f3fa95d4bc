package models

import "time"

// ConversationTurn is one question and the assistant's verbatim answer.
type ConversationTurn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Model    string    `json:"model,omitempty"`
	AskedAt  time.Time `json:"asked_at"`
}

// Session is the explicit context object for one interactive analysis session.
// It replaces implicit UI-global state: last results and the conversation history.
type Session struct {
	ID           string             `json:"id"`
	AOI          AreaOfInterest     `json:"aoi"`
	CreatedAt    time.Time          `json:"created_at"`
	LastVelocity *VelocityField     `json:"last_velocity,omitempty"`
	LastClimate  *ClimateLayer      `json:"last_climate,omitempty"`
	Turns        []ConversationTurn `json:"turns"`
}
