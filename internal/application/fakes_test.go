package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourplaces/api/internal/domain/entity"
	repo "github.com/yourplaces/api/internal/domain/repository"
	"github.com/yourplaces/api/pkg/geocode"
)

// memStore holds users and places in memory. memTx clones it per
// transaction and commits the clone back only on success, so a failing
// transaction observably discards all staged writes.
type memStore struct {
	users  map[string]*entity.User
	places map[string]*entity.Place

	failAppendPlace error
	failRemovePlace error
	failPlaceCreate error
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[string]*entity.User{},
		places: map[string]*entity.Place{},
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	c.failAppendPlace = s.failAppendPlace
	c.failRemovePlace = s.failRemovePlace
	c.failPlaceCreate = s.failPlaceCreate
	for id, u := range s.users {
		c.users[id] = copyUser(u)
	}
	for id, p := range s.places {
		cp := *p
		c.places[id] = &cp
	}
	return c
}

func copyUser(u *entity.User) *entity.User {
	cu := *u
	cu.PlaceIDs = append([]string(nil), u.PlaceIDs...)
	return &cu
}

func (s *memStore) addUser(email, name string) *entity.User {
	u := &entity.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		PlaceIDs:  []string{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.users[u.ID] = u
	return u
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return repo.ErrDuplicateEmail
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = copyUser(u)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *memUserRepo) List(_ context.Context) ([]*entity.User, error) {
	out := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cu := copyUser(u)
		cu.Password = ""
		out = append(out, cu)
	}
	return out, nil
}

func (r *memUserRepo) Update(_ context.Context, u *entity.User) error {
	if _, ok := r.s.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	r.s.users[u.ID] = copyUser(u)
	return nil
}

func (r *memUserRepo) AppendPlace(_ context.Context, userID, placeID string) error {
	if r.s.failAppendPlace != nil {
		return r.s.failAppendPlace
	}
	u, ok := r.s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.PlaceIDs = append(u.PlaceIDs, placeID)
	return nil
}

func (r *memUserRepo) RemovePlace(_ context.Context, userID, placeID string) error {
	if r.s.failRemovePlace != nil {
		return r.s.failRemovePlace
	}
	u, ok := r.s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	kept := u.PlaceIDs[:0]
	for _, id := range u.PlaceIDs {
		if id != placeID {
			kept = append(kept, id)
		}
	}
	u.PlaceIDs = kept
	return nil
}

type memPlaceRepo struct{ s *memStore }

func (r *memPlaceRepo) Create(_ context.Context, p *entity.Place) error {
	if r.s.failPlaceCreate != nil {
		return r.s.failPlaceCreate
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.s.places[p.ID] = &cp
	return nil
}

func (r *memPlaceRepo) GetByID(_ context.Context, id string) (*entity.Place, error) {
	p, ok := r.s.places[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPlaceRepo) ListByCreator(_ context.Context, creatorID string) ([]*entity.Place, error) {
	out := make([]*entity.Place, 0)
	for _, p := range r.s.places {
		if p.CreatorID == creatorID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memPlaceRepo) Update(_ context.Context, p *entity.Place) error {
	if _, ok := r.s.places[p.ID]; !ok {
		return repo.ErrNotFound
	}
	p.UpdatedAt = time.Now()
	cp := *p
	r.s.places[p.ID] = &cp
	return nil
}

func (r *memPlaceRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.s.places[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.places, id)
	return nil
}

// memTx runs fn against a cloned store and commits the clone only when fn
// succeeds.
type memTx struct{ s *memStore }

func (t *memTx) WithTx(_ context.Context, fn func(users repo.UserRepository, places repo.PlaceRepository) error) error {
	staged := t.s.clone()
	if err := fn(&memUserRepo{s: staged}, &memPlaceRepo{s: staged}); err != nil {
		return err
	}
	*t.s = *staged
	return nil
}

type fakeGeocoder struct {
	result geocode.Result
	err    error
	calls  int
}

func (g *fakeGeocoder) Geocode(_ context.Context, _ string) (geocode.Result, error) {
	g.calls++
	return g.result, g.err
}

var _ repo.UserRepository = (*memUserRepo)(nil)
var _ repo.PlaceRepository = (*memPlaceRepo)(nil)
var _ repo.TxManager = (*memTx)(nil)
