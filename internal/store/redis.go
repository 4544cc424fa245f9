package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"flashdeck/internal/deck"
)

// maxTxRetries bounds how often an optimistic transaction is retried after
// a watched key changed underneath it.
const maxTxRetries = 5

// RedisStore keeps each deck as a JSON string plus two set indexes:
//
//	<prefix>deck:<id>                 JSON document
//	<prefix>owner:<owner>             ids of the owner's decks
//	<prefix>children:<owner>:<parent> ids of the parent's direct children (ROOT for roots)
//
// Writes run under WATCH/MULTI/EXEC so a batch and its index updates land together.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ deck.Store = (*RedisStore)(nil)

// NewRedisStore creates a store over an existing client. Every key is
// prefixed with prefix so several libraries can share a database.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) deckKey(id string) string {
	return s.prefix + "deck:" + id
}

func (s *RedisStore) ownerKey(ownerID string) string {
	return s.prefix + "owner:" + ownerID
}

func (s *RedisStore) childrenKey(ownerID, parentID string) string {
	if parentID == "" {
		parentID = rootRef
	}
	return s.prefix + "children:" + ownerID + ":" + parentID
}

func (s *RedisStore) GetAll(ctx context.Context, ownerID string) ([]*deck.Deck, error) {
	ids, err := s.client.SMembers(ctx, s.ownerKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing owner decks: %w", err)
	}
	decks := make([]*deck.Deck, 0, len(ids))
	if len(ids) == 0 {
		return decks, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.deckKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetching decks: %w", err)
	}
	for _, v := range values {
		body, ok := v.(string)
		if !ok {
			// Index entry outlived its document.
			continue
		}
		d, err := decodeDeck([]byte(body))
		if err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, nil
}

func (s *RedisStore) GetByID(ctx context.Context, id string) (*deck.Deck, error) {
	body, err := s.client.Get(ctx, s.deckKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, deck.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting deck %s: %w", id, err)
	}
	return decodeDeck(body)
}

func (s *RedisStore) CountByParent(ctx context.Context, ownerID, parentID string) (int, error) {
	n, err := s.client.SCard(ctx, s.childrenKey(ownerID, parentID)).Result()
	if err != nil {
		return 0, fmt.Errorf("counting children: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) Save(ctx context.Context, d *deck.Deck) error {
	return s.SaveBatch(ctx, []*deck.Deck{d})
}

func (s *RedisStore) SaveBatch(ctx context.Context, decks []*deck.Deck) error {
	decks = lastByID(decks)
	if len(decks) == 0 {
		return nil
	}

	bodies := make([][]byte, len(decks))
	keys := make([]string, len(decks))
	for i, d := range decks {
		body, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("encoding deck %s: %w", d.ID, err)
		}
		bodies[i] = body
		keys[i] = s.deckKey(d.ID)
	}

	return s.watch(ctx, keys, func(tx *redis.Tx) error {
		previous, err := s.loadPrevious(ctx, tx, keys)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, d := range decks {
				if old := previous[i]; old != nil {
					pipe.SRem(ctx, s.ownerKey(old.OwnerID), old.ID)
					pipe.SRem(ctx, s.childrenKey(old.OwnerID, old.ParentID), old.ID)
				}
				pipe.Set(ctx, keys[i], bodies[i], 0)
				pipe.SAdd(ctx, s.ownerKey(d.OwnerID), d.ID)
				pipe.SAdd(ctx, s.childrenKey(d.OwnerID, d.ParentID), d.ID)
			}
			return nil
		})
		return err
	})
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.DeleteBatch(ctx, []string{id})
}

func (s *RedisStore) DeleteBatch(ctx context.Context, ids []string) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.deckKey(id)
	}

	return s.watch(ctx, keys, func(tx *redis.Tx) error {
		previous, err := s.loadPrevious(ctx, tx, keys)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, old := range previous {
				if old == nil {
					continue
				}
				pipe.Del(ctx, keys[i])
				pipe.SRem(ctx, s.ownerKey(old.OwnerID), old.ID)
				pipe.SRem(ctx, s.childrenKey(old.OwnerID, old.ParentID), old.ID)
			}
			return nil
		})
		return err
	})
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// watch runs fn as an optimistic transaction over keys, retrying when a
// watched key changes before EXEC.
func (s *RedisStore) watch(ctx context.Context, keys []string, fn func(*redis.Tx) error) error {
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis transaction: %w", err)
		}
		return nil
	}
	return fmt.Errorf("redis transaction: gave up after %d conflicting attempts: %w", maxTxRetries, redis.TxFailedErr)
}

// loadPrevious reads the current documents for keys inside a watch. Missing
// documents come back as nil entries.
func (s *RedisStore) loadPrevious(ctx context.Context, tx *redis.Tx, keys []string) ([]*deck.Deck, error) {
	values, err := tx.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading current decks: %w", err)
	}
	out := make([]*deck.Deck, len(values))
	for i, v := range values {
		body, ok := v.(string)
		if !ok {
			continue
		}
		d, err := decodeDeck([]byte(body))
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
