package deck

import (
	"context"
	"errors"
	"fmt"
)

// Export returns every deck visible to the principal, oldest first.
func (s *DeckService) Export(ctx context.Context, p Principal) ([]*Deck, error) {
	all, err := s.store.GetAll(ctx, s.ownerOf(p))
	if err != nil {
		return nil, storeFailure("exporting decks", err)
	}
	sortDecks(all)
	return all, nil
}

// Import writes decks into the store under the principal with one SaveBatch.
// Ids and parent links are kept, so importing a collection twice overwrites
// rather than duplicates it. In remote mode an id already held by another
// owner is replaced with a fresh one and the batch's parent links follow it.
// Returns the number of decks written.
func (s *DeckService) Import(ctx context.Context, p Principal, decks []*Deck) (int, error) {
	if err := s.requirePrincipal(p); err != nil {
		return 0, fmt.Errorf("importing decks: %w", err)
	}
	if len(decks) == 0 {
		return 0, nil
	}

	now := s.clock.Now()
	owner := s.ownerOf(p)
	batch := make([]*Deck, 0, len(decks))
	for _, src := range decks {
		d := src.Clone()
		d.OwnerID = owner
		if d.Color == "" {
			d.Color = DefaultColor
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		d.UpdatedAt = now
		batch = append(batch, d)
	}

	if s.mode == ModeRemote {
		foreign, err := s.foreignIDs(ctx, owner, batch)
		if err != nil {
			return 0, err
		}
		if len(foreign) > 0 {
			s.reassignIDs(batch, foreign)
			s.logger.Warn("import ids held by another owner, reassigned", "count", len(foreign), "principal", p.String())
		}
	}

	if err := s.store.SaveBatch(ctx, batch); err != nil {
		return 0, storeFailure("importing decks", err)
	}

	s.logger.Info("decks imported", "count", len(batch), "principal", p.String())
	return len(batch), nil
}

// foreignIDs returns the ids that already exist under a different owner,
// checking both the batch's own ids and parents it points at outside itself.
// Ids whose lookup fails are resolved against the owner's own listing; an id
// that cannot be shown to be the owner's counts as foreign.
func (s *DeckService) foreignIDs(ctx context.Context, owner string, batch []*Deck) (map[string]bool, error) {
	inBatch := make(map[string]bool, len(batch))
	for _, d := range batch {
		inBatch[d.ID] = true
	}
	ids := make([]string, 0, len(batch))
	seen := make(map[string]bool, len(batch))
	for _, d := range batch {
		for _, id := range []string{d.ID, d.ParentID} {
			if id == "" || seen[id] {
				continue
			}
			if id == d.ParentID && inBatch[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}

	foreign := make(map[string]bool)
	var unresolved []string
	for _, id := range ids {
		existing, err := s.store.GetByID(ctx, id)
		switch {
		case err == nil:
			if existing.OwnerID != owner {
				foreign[id] = true
			}
		case errors.Is(err, ErrNotFound):
		default:
			unresolved = append(unresolved, id)
		}
	}
	if len(unresolved) == 0 {
		return foreign, nil
	}

	own, err := s.store.GetAll(ctx, owner)
	if err != nil {
		return nil, storeFailure("checking import ownership", err)
	}
	mine := make(map[string]bool, len(own))
	for _, d := range own {
		mine[d.ID] = true
	}
	for _, id := range unresolved {
		if !mine[id] {
			foreign[id] = true
		}
	}
	return foreign, nil
}

// reassignIDs gives every batch deck listed in foreign a new id and points
// its children at it. A deck whose parent is foreign and outside the batch
// becomes a root.
func (s *DeckService) reassignIDs(batch []*Deck, foreign map[string]bool) {
	renamed := make(map[string]string, len(foreign))
	for _, d := range batch {
		if foreign[d.ID] {
			if _, ok := renamed[d.ID]; !ok {
				renamed[d.ID] = s.idgen.New()
			}
		}
	}
	for _, d := range batch {
		if id, ok := renamed[d.ID]; ok {
			d.ID = id
		}
		if !foreign[d.ParentID] {
			continue
		}
		if id, ok := renamed[d.ParentID]; ok {
			d.ParentID = id
		} else {
			d.ParentID = ""
		}
	}
}

// MigrateFrom copies the whole collection held by source into this service's
// store under the principal. The source is left untouched.
func (s *DeckService) MigrateFrom(ctx context.Context, p Principal, source Store) (int, error) {
	if err := s.requirePrincipal(p); err != nil {
		return 0, fmt.Errorf("migrating decks: %w", err)
	}

	decks, err := source.GetAll(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("reading source decks: %w: %w", ErrStoreFailure, err)
	}

	n, err := s.Import(ctx, p, decks)
	if err != nil {
		return 0, fmt.Errorf("migrating decks: %w", err)
	}
	return n, nil
}
