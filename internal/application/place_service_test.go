package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourplaces/api/pkg/geocode"
)

var empireState = geocode.Result{
	Lat:              40.7484405,
	Lng:              -73.9878584,
	FormattedAddress: "20 W 34th St, New York, NY 10001, USA",
}

func newPlaceFixture() (*PlaceService, *memStore, *fakeGeocoder) {
	store := newMemStore()
	geo := &fakeGeocoder{result: empireState}
	svc := &PlaceService{
		Places: &memPlaceRepo{s: store},
		Users:  &memUserRepo{s: store},
		Tx:     &memTx{s: store},
		Geo:    geo,
	}
	return svc, store, geo
}

func TestCreatePlace(t *testing.T) {
	svc, store, _ := newPlaceFixture()
	owner := store.addUser("alice@example.com", "Alice")

	p, err := svc.Create(context.Background(), CreatePlaceInput{
		Title:       "Empire State Building",
		Description: "Famous skyscraper",
		Address:     "empire state bldg nyc",
		CreatorID:   owner.ID,
	}, nil, "", "")
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, empireState.FormattedAddress, p.Address, "stored address must be the geocoder's canonical one")
	assert.Equal(t, empireState.Lat, p.Lat)
	assert.Equal(t, empireState.Lng, p.Lng)
	assert.Equal(t, owner.ID, p.CreatorID)

	assert.Contains(t, store.places, p.ID)
	assert.Equal(t, []string{p.ID}, store.users[owner.ID].PlaceIDs)

	got, err := svc.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, owner.ID, got.CreatorID)

	list, err := svc.ListByCreator(context.Background(), owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)
}

func TestCreatePlaceGeocodingFails(t *testing.T) {
	svc, store, geo := newPlaceFixture()
	owner := store.addUser("alice@example.com", "Alice")
	geo.err = geocode.ErrNoResults

	_, err := svc.Create(context.Background(), CreatePlaceInput{
		Title:       "Nowhere",
		Description: "A place that is not a place",
		Address:     "gibberish",
		CreatorID:   owner.ID,
	}, nil, "", "")
	assert.ErrorIs(t, err, ErrGeocodingFailed)

	assert.Empty(t, store.places)
	assert.Empty(t, store.users[owner.ID].PlaceIDs)
}

func TestCreatePlaceUnknownCreator(t *testing.T) {
	svc, store, _ := newPlaceFixture()

	_, err := svc.Create(context.Background(), CreatePlaceInput{
		Title:       "Empire State Building",
		Description: "Famous skyscraper",
		Address:     "empire state bldg nyc",
		CreatorID:   "no-such-user",
	}, nil, "", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, store.places)
}

func TestCreatePlaceRollbackLeavesNoOrphan(t *testing.T) {
	svc, store, _ := newPlaceFixture()
	owner := store.addUser("alice@example.com", "Alice")
	store.failAppendPlace = errors.New("users table write failed")

	_, err := svc.Create(context.Background(), CreatePlaceInput{
		Title:       "Empire State Building",
		Description: "Famous skyscraper",
		Address:     "empire state bldg nyc",
		CreatorID:   owner.ID,
	}, nil, "", "")
	require.Error(t, err)

	// The place insert succeeded inside the transaction; the failed
	// back-reference write must take it down too.
	assert.Empty(t, store.places)
	assert.Empty(t, store.users[owner.ID].PlaceIDs)
}

func TestGetPlaceByIDMissing(t *testing.T) {
	svc, _, _ := newPlaceFixture()

	_, err := svc.GetByID(context.Background(), "no-such-place")
	assert.ErrorIs(t, err, ErrPlaceNotFound)
}

func TestListByCreatorEmpty(t *testing.T) {
	svc, store, _ := newPlaceFixture()
	owner := store.addUser("alice@example.com", "Alice")

	places, err := svc.ListByCreator(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.NotNil(t, places)
	assert.Empty(t, places)
}

func TestUpdatePlace(t *testing.T) {
	svc, store, _ := newPlaceFixture()
	owner := store.addUser("alice@example.com", "Alice")
	created, err := svc.Create(context.Background(), CreatePlaceInput{
		Title:       "Empire State Building",
		Description: "Famous skyscraper",
		Address:     "empire state bldg nyc",
		CreatorID:   owner.ID,
	}, nil, "", "")
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, owner.ID, UpdatePlaceInput{
		Title:       "ESB",
		Description: "Still a famous skyscraper",
	})
	require.NoError(t, err)

	assert.Equal(t, "ESB", updated.Title)
	assert.Equal(t, "Still a famous skyscraper", updated.Description)
	// Immutable after creation
	assert.Equal(t, created.Address, updated.Address)
	assert.Equal(t, created.Lat, updated.Lat)
	assert.Equal(t, created.Lng, updated.Lng)
	assert.Equal(t, created.CreatorID, updated.CreatorID)
}

func TestUpdatePlaceByNonOwner(t *testing.T) {
	svc, store, _ := newPlaceFixture()
	owner := store.addUser("alice@example.com", "Alice")
	intruder := store.addUser("bob@example.com", "Bob")
	created, err := svc.Create(context.Background(), CreatePlaceInput{
		Title:       "Empire State Building",
		Description: "Famous skyscraper",
		Address:     "empire state bldg nyc",
		CreatorID:   owner.ID,
	}, nil, "", "")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, intruder.ID, UpdatePlaceInput{
		Title:       "Bob's tower",
		Description: "mine now",
	})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "Empire State Building", store.places[created.ID].Title)
}

func TestUpdatePlaceMissing(t *testing.T) {
	svc, store, _ := newPlaceFixture()
	owner := store.addUser("alice@example.com", "Alice")

	_, err := svc.Update(context.Background(), "no-such-place", owner.ID, UpdatePlaceInput{Title: "x", Description: "y"})
	assert.ErrorIs(t, err, ErrPlaceNotFound)
}

func TestDeletePlaceUnlinksOwner(t *testing.T) {
	svc, store, _ := newPlaceFixture()
	owner := store.addUser("alice@example.com", "Alice")
	created, err := svc.Create(context.Background(), CreatePlaceInput{
		Title:       "Empire State Building",
		Description: "Famous skyscraper",
		Address:     "empire state bldg nyc",
		CreatorID:   owner.ID,
	}, nil, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID, owner.ID))

	assert.NotContains(t, store.places, created.ID)
	assert.Empty(t, store.users[owner.ID].PlaceIDs)
}

func TestDeletePlaceByNonOwner(t *testing.T) {
	svc, store, _ := newPlaceFixture()
	owner := store.addUser("alice@example.com", "Alice")
	intruder := store.addUser("bob@example.com", "Bob")
	created, err := svc.Create(context.Background(), CreatePlaceInput{
		Title:       "Empire State Building",
		Description: "Famous skyscraper",
		Address:     "empire state bldg nyc",
		CreatorID:   owner.ID,
	}, nil, "", "")
	require.NoError(t, err)

	err = svc.Delete(context.Background(), created.ID, intruder.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Contains(t, store.places, created.ID)
	assert.Equal(t, []string{created.ID}, store.users[owner.ID].PlaceIDs)
}

func TestDeletePlaceRollbackKeepsBackReference(t *testing.T) {
	svc, store, _ := newPlaceFixture()
	owner := store.addUser("alice@example.com", "Alice")
	created, err := svc.Create(context.Background(), CreatePlaceInput{
		Title:       "Empire State Building",
		Description: "Famous skyscraper",
		Address:     "empire state bldg nyc",
		CreatorID:   owner.ID,
	}, nil, "", "")
	require.NoError(t, err)

	store.failRemovePlace = errors.New("users table write failed")
	err = svc.Delete(context.Background(), created.ID, owner.ID)
	require.Error(t, err)

	assert.Contains(t, store.places, created.ID)
	assert.Equal(t, []string{created.ID}, store.users[owner.ID].PlaceIDs)
}
