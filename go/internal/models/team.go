package models

import (
	"github.com/google/uuid"
)

// Team represents an NFL team in the reference store
type Team struct {
	ID   uuid.UUID `json:"id"`
	Abbr string    `json:"abbr"`
	Name string    `json:"name"`
}
