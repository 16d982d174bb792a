package service

import (
	"context"
	"fmt"

	"github.com/cineloop/cineloop/cmd/cineloop/letters"
	"github.com/cineloop/cineloop/cmd/cineloop/repository"
	"github.com/cineloop/cineloop/common/logger"
	"github.com/cineloop/cineloop/common/models"
)

// ChainService handles chain read operations
type ChainService struct {
	repo *repository.ChainRepository
	log  *logger.Logger
}

// NewChainService creates a new chain service
func NewChainService(repo *repository.ChainRepository, log *logger.Logger) *ChainService {
	return &ChainService{
		repo: repo,
		log:  log,
	}
}

// ChainStats summarizes the chain for the submission screen
type ChainStats struct {
	Length int `json:"length"`

	// RequiredLetter is the letter the next title must start with;
	// empty when the chain is empty and any title is acceptable
	RequiredLetter string `json:"required_letter,omitempty"`

	// Tail is the current final entry, nil for an empty chain
	Tail *models.ChainEntry `json:"tail,omitempty"`
}

// Chain returns the full chain ordered by position ascending
func (s *ChainService) Chain(ctx context.Context) ([]models.ChainEntry, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain: %w", err)
	}

	return entries, nil
}

// Stats returns the chain length, tail and next required letter
func (s *ChainService) Stats(ctx context.Context) (*ChainStats, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chain: %w", err)
	}

	tail, err := s.repo.Tail(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain tail: %w", err)
	}

	stats := &ChainStats{
		Length: count,
		Tail:   tail,
	}

	if tail != nil {
		if required, ok := letters.Last(tail.Title); ok {
			stats.RequiredLetter = string(required)
		}
	}

	return stats, nil
}
