// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Deck groups cards. Decks may nest via ParentDeckID; deleting a deck
// cascades to its cards and their reviews.
type Deck struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	ParentDeckID *uuid.UUID `json:"parentDeckId,omitempty"`
	Color        string     `json:"color,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Card is a single flashcard together with its SM-2 memory state.
// EaseFactor never drops below 1.3; Interval is whole days; NextReview is
// derived by the scheduler, never hand-set after creation.
type Card struct {
	ID          uuid.UUID `json:"id"`
	DeckID      uuid.UUID `json:"deckId"`
	Front       string    `json:"front"`
	Back        string    `json:"back"`
	Tags        []string  `json:"tags,omitempty"`
	EaseFactor  float64   `json:"easeFactor"`
	Interval    int       `json:"interval"`
	Repetitions int       `json:"repetitions"`
	NextReview  time.Time `json:"nextReview"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Review records one answer given during a study session. Reviews are
// immutable historical facts: inserted once, never updated, and sync only
// ever adds unseen ids.
type Review struct {
	ID         uuid.UUID `json:"id"`
	CardID     uuid.UUID `json:"cardId"`
	Quality    int       `json:"quality"`
	ReviewDate time.Time `json:"reviewDate"`
	TimeSpent  int       `json:"timeSpent"` // seconds, best effort
}

// Snapshot is a full point-in-time copy of one user's collections, exchanged
// wholesale during sync. No diffing, no pagination.
type Snapshot struct {
	Decks    []Deck    `json:"decks"`
	Cards    []Card    `json:"cards"`
	Reviews  []Review  `json:"reviews"`
	LastSync time.Time `json:"lastSync"`
}

// DeckStats is a deck enriched with card counts for list views.
type DeckStats struct {
	Deck
	CardCount int `json:"cardCount"`
	DueCards  int `json:"dueCards"`
}
