package deck

import (
	"context"
	"errors"
	"fmt"
)

// DeckService owns every deck and card mutation. It reads and writes through
// a Store and never caches records between calls; each operation re-fetches
// and ends in at most one Save, SaveBatch or DeleteBatch.
type DeckService struct {
	store  Store
	mode   Mode
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewDeckService creates a DeckService with the provided dependencies.
// A nil logger, clock or idgen is replaced with the production default.
func NewDeckService(store Store, mode Mode, logger Logger, clock Clock, idgen IDGenerator) *DeckService {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	return &DeckService{
		store:  store,
		mode:   mode,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// Mode reports the ownership mode the service was built with.
func (s *DeckService) Mode() Mode {
	return s.mode
}

// ownerOf returns the owner id used for store queries and new records.
// Local collections are unowned.
func (s *DeckService) ownerOf(p Principal) string {
	if s.mode == ModeLocal {
		return ""
	}
	return p.UserID
}

// authorize fails with ErrForbidden when p may not touch d.
func (s *DeckService) authorize(p Principal, d *Deck) error {
	if s.mode == ModeLocal {
		return nil
	}
	if d.OwnerID != p.UserID {
		return fmt.Errorf("deck %s: %w", d.ID, ErrForbidden)
	}
	return nil
}

// requirePrincipal fails with ErrUnauthenticated in remote mode when nobody is signed in.
func (s *DeckService) requirePrincipal(p Principal) error {
	if s.mode == ModeRemote && !p.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

func storeFailure(action string, err error) error {
	return fmt.Errorf("%s: %w: %w", action, ErrStoreFailure, err)
}

// lookup finds a deck by id. It tries the store's GetByID first and falls
// back to scanning GetAll when the fast path fails for any reason other than
// absence. Returns nil, nil when the deck does not exist.
func (s *DeckService) lookup(ctx context.Context, p Principal, id string) (*Deck, error) {
	d, err := s.store.GetByID(ctx, id)
	if err == nil {
		return d, nil
	}
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	s.logger.Warn("get by id failed, scanning collection", "id", id, "error", err)
	all, err := s.store.GetAll(ctx, s.ownerOf(p))
	if err != nil {
		return nil, storeFailure("scanning decks", err)
	}
	for _, candidate := range all {
		if candidate.ID == id {
			return candidate, nil
		}
	}
	return nil, nil
}

// fetchOwned returns the deck with the given id after checking that p owns it.
func (s *DeckService) fetchOwned(ctx context.Context, p Principal, id string) (*Deck, error) {
	d, err := s.lookup(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("deck %s: %w", id, ErrNotFound)
	}
	if err := s.authorize(p, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDeck returns the deck with the given id, or nil when it does not exist.
// In remote mode a deck owned by another principal is reported as absent.
func (s *DeckService) GetDeck(ctx context.Context, p Principal, id string) (*Deck, error) {
	d, err := s.lookup(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, nil
	}
	if s.authorize(p, d) != nil {
		s.logger.Debug("hiding deck owned by another principal", "id", id, "principal", p.String())
		return nil, nil
	}
	return d, nil
}

// CreateDeck creates an empty deck under parentID ("" for a root deck).
// The parent is not checked for existence.
func (s *DeckService) CreateDeck(ctx context.Context, p Principal, in DeckInput, parentID string) (*Deck, error) {
	if err := s.requirePrincipal(p); err != nil {
		return nil, fmt.Errorf("creating deck: %w", err)
	}

	color := in.Color
	if color == "" {
		color = DefaultColor
	}
	now := s.clock.Now()
	d := &Deck{
		ID:          s.idgen.New(),
		ParentID:    parentID,
		Title:       in.Title,
		Description: in.Description,
		Color:       color,
		OwnerID:     s.ownerOf(p),
		Cards:       []Card{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Save(ctx, d); err != nil {
		return nil, storeFailure("saving deck", err)
	}

	s.logger.Info("deck created", "id", d.ID, "parent", parentID, "principal", p.String())
	return d.Clone(), nil
}

// UpdateDeck merges patch over the stored deck. Fields absent from the patch
// are preserved; ID and OwnerID can never change. Moving a deck under itself
// or one of its descendants fails with ErrCycle.
func (s *DeckService) UpdateDeck(ctx context.Context, p Principal, id string, patch DeckPatch) (*Deck, error) {
	current, err := s.fetchOwned(ctx, p, id)
	if err != nil {
		return nil, fmt.Errorf("updating deck: %w", err)
	}

	merged := current.Clone()
	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Color != nil {
		merged.Color = *patch.Color
	}
	if patch.Cards != nil {
		merged.Cards = make([]Card, len(patch.Cards))
		copy(merged.Cards, patch.Cards)
	}
	if patch.ParentID != nil && *patch.ParentID != current.ParentID {
		if err := s.checkMove(ctx, p, id, *patch.ParentID); err != nil {
			return nil, fmt.Errorf("updating deck: %w", err)
		}
		merged.ParentID = *patch.ParentID
	}
	merged.ID = current.ID
	merged.OwnerID = current.OwnerID
	merged.UpdatedAt = s.clock.Now()

	if err := s.store.Save(ctx, merged); err != nil {
		return nil, storeFailure("saving deck", err)
	}

	s.logger.Info("deck updated", "id", id, "principal", p.String())
	return merged, nil
}

// DeleteDeck removes the deck and its whole descendant closure with a single
// DeleteBatch. Nothing is removed when the batch fails.
func (s *DeckService) DeleteDeck(ctx context.Context, p Principal, id string) error {
	if _, err := s.fetchOwned(ctx, p, id); err != nil {
		return fmt.Errorf("deleting deck: %w", err)
	}

	all, err := s.store.GetAll(ctx, s.ownerOf(p))
	if err != nil {
		return storeFailure("listing decks", err)
	}

	ids := append([]string{id}, descendantIDs(all, id)...)
	if err := s.store.DeleteBatch(ctx, ids); err != nil {
		return storeFailure("deleting decks", err)
	}

	s.logger.Info("deck deleted", "id", id, "removed", len(ids), "principal", p.String())
	return nil
}
