package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lamarea/storefront/internal/models"
)

// memoryCart is one cart's lines plus its own mutex, so mutations on
// different carts do not contend. Lock order is always store.mu before
// cart.mu; a goroutine holding cart.mu never takes store.mu.
type memoryCart struct {
	mu        sync.Mutex
	items     []models.CartItem
	updatedAt time.Time
	dead      bool // entry was deleted from the map; holders must retry
}

// MemoryStore is the process-lifetime backend. Carts do not survive a
// restart; the janitor prunes idle entries so the map stays bounded.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]*memoryCart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]*memoryCart)}
}

// acquire returns the cart locked, creating it if requested. Retries if the
// entry was deleted between the map lookup and the cart lock.
func (s *MemoryStore) acquire(cartID string, create bool) *memoryCart {
	for {
		s.mu.Lock()
		c, ok := s.carts[cartID]
		if !ok {
			if !create {
				s.mu.Unlock()
				return nil
			}
			c = &memoryCart{updatedAt: time.Now()}
			s.carts[cartID] = c
		}
		s.mu.Unlock()

		c.mu.Lock()
		if c.dead {
			c.mu.Unlock()
			continue
		}
		return c
	}
}

func (s *MemoryStore) Items(ctx context.Context, cartID string) ([]models.CartItem, error) {
	c := s.acquire(cartID, false)
	if c == nil {
		return []models.CartItem{}, nil
	}
	defer c.mu.Unlock()

	items := make([]models.CartItem, len(c.items))
	copy(items, c.items)
	return items, nil
}

func (s *MemoryStore) AddItem(ctx context.Context, cartID, productID string, quantity int) error {
	c := s.acquire(cartID, true)
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity += quantity
			c.updatedAt = time.Now()
			return nil
		}
	}

	c.items = append(c.items, models.CartItem{
		ID:        uuid.New().String(),
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	})
	c.updatedAt = time.Now()
	return nil
}

func (s *MemoryStore) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) error {
	if quantity <= 0 {
		_, err := s.RemoveItem(ctx, cartID, itemID)
		return err
	}

	c := s.acquire(cartID, false)
	if c == nil {
		return nil // unknown cart: no-op
	}
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == itemID {
			c.items[i].Quantity = quantity
			c.updatedAt = time.Now()
			return nil
		}
	}

	return nil // unknown item id: no-op
}

func (s *MemoryStore) RemoveItem(ctx context.Context, cartID, itemID string) (RemoveResult, error) {
	// Deleting the map entry requires both locks, taken in lock order.
	s.mu.Lock()
	c, ok := s.carts[cartID]
	if !ok {
		s.mu.Unlock()
		return RemoveResult{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer s.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == itemID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}

	if len(c.items) == 0 {
		c.dead = true
		delete(s.carts, cartID)
		return RemoveResult{ItemsRemaining: 0, CartDeleted: true}, nil
	}

	c.updatedAt = time.Now()
	return RemoveResult{ItemsRemaining: len(c.items)}, nil
}

func (s *MemoryStore) Merge(ctx context.Context, dstID, srcID string) error {
	if dstID == srcID {
		return nil
	}

	// The map write lock serializes merges, so taking two cart locks here
	// cannot deadlock against a swapped-operand merge.
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.carts[srcID]
	if !ok {
		return nil
	}

	src.mu.Lock()
	defer src.mu.Unlock()

	if len(src.items) > 0 {
		dst, ok := s.carts[dstID]
		if !ok {
			dst = &memoryCart{updatedAt: time.Now()}
			s.carts[dstID] = dst
		}

		dst.mu.Lock()
		for _, item := range src.items {
			merged := false
			for i := range dst.items {
				if dst.items[i].ProductID == item.ProductID {
					dst.items[i].Quantity += item.Quantity
					merged = true
					break
				}
			}
			if !merged {
				dst.items = append(dst.items, item)
			}
		}
		dst.updatedAt = time.Now()
		dst.mu.Unlock()
	}

	src.dead = true
	delete(s.carts, srcID)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[cartID]
	if !ok {
		return nil
	}

	c.mu.Lock()
	c.dead = true
	c.mu.Unlock()

	delete(s.carts, cartID)
	return nil
}

func (s *MemoryStore) PruneIdle(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, c := range s.carts {
		c.mu.Lock()
		if c.updatedAt.Before(cutoff) {
			c.dead = true
			delete(s.carts, id)
			pruned++
		}
		c.mu.Unlock()
	}

	return pruned, nil
}

// Len reports the number of live carts (used by tests and the janitor log).
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts)
}
