package deck

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
)

// ListRoots returns the principal's top-level decks, oldest first.
func (s *DeckService) ListRoots(ctx context.Context, p Principal) ([]*Deck, error) {
	return s.ListChildren(ctx, p, "")
}

// ListChildren returns the direct children of parentID, oldest first.
// An empty parentID lists the roots.
func (s *DeckService) ListChildren(ctx context.Context, p Principal, parentID string) ([]*Deck, error) {
	all, err := s.store.GetAll(ctx, s.ownerOf(p))
	if err != nil {
		return nil, storeFailure("listing decks", err)
	}

	children := make([]*Deck, 0)
	for _, d := range all {
		if d.ParentID == parentID {
			children = append(children, d)
		}
	}
	sortDecks(children)
	return children, nil
}

// GetPath returns the breadcrumb from the root down to id. The walk stops
// early at a parent that no longer exists, and never visits a deck twice.
// An unknown id yields an empty path.
func (s *DeckService) GetPath(ctx context.Context, p Principal, id string) ([]PathEntry, error) {
	all, err := s.store.GetAll(ctx, s.ownerOf(p))
	if err != nil {
		return nil, storeFailure("listing decks", err)
	}

	byID := make(map[string]*Deck, len(all))
	for _, d := range all {
		byID[d.ID] = d
	}

	var path []PathEntry
	visited := make(map[string]bool)
	for cur, ok := byID[id]; ok; cur, ok = byID[cur.ParentID] {
		if visited[cur.ID] {
			s.logger.Warn("cycle in deck ancestry", "id", id, "at", cur.ID)
			break
		}
		visited[cur.ID] = true
		path = append(path, PathEntry{ID: cur.ID, Title: cur.Title})
		if cur.IsRoot() {
			break
		}
	}
	slices.Reverse(path)
	if path == nil {
		path = []PathEntry{}
	}
	return path, nil
}

// CountChildren returns the number of direct children of parentID. It uses
// the store's aggregate when available and otherwise counts a listing.
// An error is returned only when both paths fail.
func (s *DeckService) CountChildren(ctx context.Context, p Principal, parentID string) (int, error) {
	n, err := s.store.CountByParent(ctx, s.ownerOf(p), parentID)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, ErrUnsupported) {
		s.logger.Debug("store has no child count, scanning", "parent", parentID)
	} else {
		s.logger.Warn("child count failed, scanning", "parent", parentID, "error", err)
	}

	children, err := s.ListChildren(ctx, p, parentID)
	if err != nil {
		return 0, fmt.Errorf("counting children: %w", err)
	}
	return len(children), nil
}

// checkMove rejects re-parenting id under itself, under one of its
// descendants, or under a deck owned by someone else. A parent id that does
// not exist is allowed.
func (s *DeckService) checkMove(ctx context.Context, p Principal, id, newParentID string) error {
	if newParentID == "" {
		return nil
	}
	if newParentID == id {
		return ErrCycle
	}
	if s.mode == ModeRemote {
		parent, err := s.lookup(ctx, p, newParentID)
		if err != nil {
			return err
		}
		if parent != nil {
			if err := s.authorize(p, parent); err != nil {
				return err
			}
		}
	}
	all, err := s.store.GetAll(ctx, s.ownerOf(p))
	if err != nil {
		return storeFailure("listing decks", err)
	}
	if slices.Contains(descendantIDs(all, id), newParentID) {
		return ErrCycle
	}
	return nil
}

// descendantIDs returns every deck reachable from rootID by following child
// links, in breadth-first order. rootID itself is not included.
func descendantIDs(all []*Deck, rootID string) []string {
	children := make(map[string][]string, len(all))
	for _, d := range all {
		if d.ParentID != "" {
			children[d.ParentID] = append(children[d.ParentID], d.ID)
		}
	}

	var out []string
	visited := map[string]bool{rootID: true}
	queue := []string{rootID}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, child := range children[next] {
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

func sortDecks(decks []*Deck) {
	slices.SortStableFunc(decks, func(a, b *Deck) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})
}
