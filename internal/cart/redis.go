package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lamarea/storefront/internal/models"
	"github.com/redis/go-redis/v9"
)

const redisMaxRetries = 5

// RedisStore keeps each cart as a JSON blob under "cart:<id>" with a TTL that
// slides on every write. Mutations run as optimistic WATCH transactions, so a
// concurrent write to the same cart retries instead of losing the update.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(cartID string) string {
	return "cart:" + cartID
}

func (s *RedisStore) load(ctx context.Context, tx *redis.Tx, key string) ([]models.CartItem, error) {
	val, err := tx.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, fmt.Errorf("corrupt cart payload for %s: %w", key, err)
	}
	return items, nil
}

// mutate runs fn inside a WATCH transaction on the cart key. fn returns the
// new line set; an empty result deletes the key.
func (s *RedisStore) mutate(ctx context.Context, cartID string, fn func(items []models.CartItem) ([]models.CartItem, error)) error {
	key := s.key(cartID)

	txf := func(tx *redis.Tx) error {
		items, err := s.load(ctx, tx, key)
		if err != nil {
			return err
		}

		out, err := fn(items)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(out) == 0 {
				pipe.Del(ctx, key)
				return nil
			}
			data, err := json.Marshal(out)
			if err != nil {
				return err
			}
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < redisMaxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue // contended write, retry
		}
		return err
	}

	return fmt.Errorf("cart %s: too many concurrent updates", cartID)
}

func (s *RedisStore) Items(ctx context.Context, cartID string) ([]models.CartItem, error) {
	val, err := s.client.Get(ctx, s.key(cartID)).Result()
	if errors.Is(err, redis.Nil) {
		return []models.CartItem{}, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return nil, fmt.Errorf("corrupt cart payload for %s: %w", cartID, err)
	}
	return items, nil
}

func (s *RedisStore) AddItem(ctx context.Context, cartID, productID string, quantity int) error {
	return s.mutate(ctx, cartID, func(items []models.CartItem) ([]models.CartItem, error) {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity += quantity
				return items, nil
			}
		}
		return append(items, models.CartItem{
			ID:        uuid.New().String(),
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		}), nil
	})
}

func (s *RedisStore) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	if quantity <= 0 {
		_, err := s.RemoveItem(ctx, cartID, itemID)
		return err
	}

	return s.mutate(ctx, cartID, func(items []models.CartItem) ([]models.CartItem, error) {
		for i := range items {
			if items[i].ID == itemID {
				items[i].Quantity = quantity
				break
			}
		}
		return items, nil
	})
}

func (s *RedisStore) RemoveItem(ctx context.Context, cartID, itemID string) (RemoveResult, error) {
	var result RemoveResult

	err := s.mutate(ctx, cartID, func(items []models.CartItem) ([]models.CartItem, error) {
		for i := range items {
			if items[i].ID == itemID {
				items = append(items[:i], items[i+1:]...)
				break
			}
		}
		result = RemoveResult{
			ItemsRemaining: len(items),
			CartDeleted:    len(items) == 0,
		}
		return items, nil
	})
	if err != nil {
		return RemoveResult{}, err
	}

	return result, nil
}

func (s *RedisStore) Merge(ctx context.Context, dstID, srcID string) error {
	if dstID == srcID {
		return nil
	}

	dstKey, srcKey := s.key(dstID), s.key(srcID)

	txf := func(tx *redis.Tx) error {
		src, err := s.load(ctx, tx, srcKey)
		if err != nil {
			return err
		}
		dst, err := s.load(ctx, tx, dstKey)
		if err != nil {
			return err
		}

		for _, item := range src {
			merged := false
			for i := range dst {
				if dst[i].ProductID == item.ProductID {
					dst[i].Quantity += item.Quantity
					merged = true
					break
				}
			}
			if !merged {
				dst = append(dst, item)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, srcKey)
			if len(dst) == 0 {
				pipe.Del(ctx, dstKey)
				return nil
			}
			data, err := json.Marshal(dst)
			if err != nil {
				return err
			}
			pipe.Set(ctx, dstKey, data, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < redisMaxRetries; i++ {
		err := s.client.Watch(ctx, txf, dstKey, srcKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return fmt.Errorf("cart merge %s<-%s: too many concurrent updates", dstID, srcID)
}

func (s *RedisStore) Clear(ctx context.Context, cartID string) error {
	return s.client.Del(ctx, s.key(cartID)).Err()
}

// PruneIdle is a no-op: the per-key TTL already expires idle carts.
func (s *RedisStore) PruneIdle(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}
