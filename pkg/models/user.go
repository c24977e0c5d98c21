package models

import "github.com/google/uuid"

// SimilarUser is a compatibility lookup result used by the COLLABORATIVE
// generator mode and group-compatibility scoring.
type SimilarUser struct {
	UserID          uuid.UUID `json:"user_id"`
	SimilarityScore float64   `json:"similarity_score"`
	SharedItems     int       `json:"shared_items"`
}
