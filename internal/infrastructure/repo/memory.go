package repo

import (
	"context"
	"sort"
	"sync"

	"fooddash-backend/internal/domain"
)

// In-memory repositories, used for tests and for running without a database.

type MemoryOrderRepo struct {
	mu sync.RWMutex
	m  map[string]*domain.Order
}

func NewMemoryOrderRepo() *MemoryOrderRepo {
	return &MemoryOrderRepo{m: make(map[string]*domain.Order)}
}

func (r *MemoryOrderRepo) Put(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.m[o.OrderID] = &cp
	return nil
}

func (r *MemoryOrderRepo) Get(_ context.Context, id string) (*domain.Order, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.m[id]
	if !ok {
		return nil, false, nil
	}
	cp := *o
	return &cp, true, nil
}

func (r *MemoryOrderRepo) ListByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Order
	for _, o := range r.m {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryOrderRepo) ListByRestaurants(_ context.Context, restaurantIDs []string) ([]domain.Order, error) {
	ids := make(map[string]struct{}, len(restaurantIDs))
	for _, id := range restaurantIDs {
		ids[id] = struct{}{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Order
	for _, o := range r.m {
		if _, ok := ids[o.RestaurantID]; ok {
			out = append(out, *o)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

type MemoryMenuItemRepo struct {
	mu sync.RWMutex
	m  map[string]*domain.MenuItem
}

func NewMemoryMenuItemRepo() *MemoryMenuItemRepo {
	return &MemoryMenuItemRepo{m: make(map[string]*domain.MenuItem)}
}

func (r *MemoryMenuItemRepo) Put(_ context.Context, mi *domain.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *mi
	r.m[mi.MenuItemID] = &cp
	return nil
}

func (r *MemoryMenuItemRepo) Get(_ context.Context, id string) (*domain.MenuItem, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mi, ok := r.m[id]
	if !ok {
		return nil, false, nil
	}
	cp := *mi
	return &cp, true, nil
}

type MemoryRestaurantRepo struct {
	mu sync.RWMutex
	m  map[string]*domain.Restaurant
}

func NewMemoryRestaurantRepo() *MemoryRestaurantRepo {
	return &MemoryRestaurantRepo{m: make(map[string]*domain.Restaurant)}
}

func (r *MemoryRestaurantRepo) Put(_ context.Context, rest *domain.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rest
	r.m[rest.RestaurantID] = &cp
	return nil
}

func (r *MemoryRestaurantRepo) Get(_ context.Context, id string) (*domain.Restaurant, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rest, ok := r.m[id]
	if !ok {
		return nil, false, nil
	}
	cp := *rest
	return &cp, true, nil
}

func (r *MemoryRestaurantRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Restaurant
	for _, rest := range r.m {
		if rest.OwnerID == ownerID {
			out = append(out, *rest)
		}
	}
	return out, nil
}

type MemoryUserRepo struct {
	mu sync.RWMutex
	m  map[string]*domain.User
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{m: make(map[string]*domain.User)}
}

func (r *MemoryUserRepo) Put(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.m[u.UserID] = &cp
	return nil
}

func (r *MemoryUserRepo) Get(_ context.Context, id string) (*domain.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.m[id]
	if !ok {
		return nil, false, nil
	}
	cp := *u
	return &cp, true, nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.m {
		if u.Email == email {
			cp := *u
			return &cp, true, nil
		}
	}
	return nil, false, nil
}
