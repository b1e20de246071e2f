package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourplaces/api/internal/domain/entity"
	repo "github.com/yourplaces/api/internal/domain/repository"
	"github.com/yourplaces/api/pkg/geocode"
	"github.com/yourplaces/api/pkg/helpers"
)

var (
	ErrPlaceNotFound   = errors.New("place not found")
	ErrForbidden       = errors.New("requester is not the place creator")
	ErrGeocodingFailed = errors.New("could not resolve location for address")
)

// Geocoder resolves a postal address to a coordinate and a canonical
// formatted address.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geocode.Result, error)
}

// ImageCleanupJob is the payload published to the cleanup queue when a
// place is deleted; cmd/worker consumes it and removes the object from GCS.
type ImageCleanupJob struct {
	ObjectPath string `json:"object_path"`
	PlaceID    string `json:"place_id"`
}

const placeCacheTTL = 5 * time.Minute

func placeCacheKey(id string) string {
	return "place:" + id
}

type PlaceService struct {
	Places        repo.PlaceRepository
	Users         repo.UserRepository
	Tx            repo.TxManager
	Geo           Geocoder
	GCS           *storage.Client
	GCSBucket     string
	Redis         *redis.Client
	CleanupPub    *helpers.RabbitPublisher
	Logger        *logrus.Logger
	ES            *elasticsearch.Client
	ESPlacesIndex string
}

func NewPlaceService(places repo.PlaceRepository, users repo.UserRepository, tx repo.TxManager, geo Geocoder, gcs *storage.Client, gcsBucket string, rdb *redis.Client, cleanupPub *helpers.RabbitPublisher, logger *logrus.Logger, es *elasticsearch.Client, esPlacesIndex string) *PlaceService {
	return &PlaceService{
		Places:        places,
		Users:         users,
		Tx:            tx,
		Geo:           geo,
		GCS:           gcs,
		GCSBucket:     gcsBucket,
		Redis:         rdb,
		CleanupPub:    cleanupPub,
		Logger:        logger,
		ES:            es,
		ESPlacesIndex: esPlacesIndex,
	}
}

// GetByID returns the place, reading through the Redis cache.
func (s *PlaceService) GetByID(ctx context.Context, placeID string) (*entity.Place, error) {
	if s.Redis != nil {
		var cached entity.Place
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, placeCacheKey(placeID), &cached); err == nil && ok {
			return &cached, nil
		}
	}

	p, err := s.Places.GetByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPlaceNotFound
		}
		return nil, err
	}

	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, placeCacheKey(p.ID), p, placeCacheTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("place_id", p.ID).Warn("place cache set failed")
		}
	}
	return p, nil
}

// ListByCreator returns every place the user created. A user with zero
// places gets an empty list, not an error.
func (s *PlaceService) ListByCreator(ctx context.Context, userID string) ([]*entity.Place, error) {
	return s.Places.ListByCreator(ctx, userID)
}

type CreatePlaceInput struct {
	Title       string
	Description string
	Address     string
	CreatorID   string
}

// Create resolves the address, uploads the image, then persists the place
// and appends it to the creator's place_ids list in one transaction. A
// failed transaction never leaves an orphaned place, and the uploaded
// image is removed again on any failure after the upload.
func (s *PlaceService) Create(ctx context.Context, in CreatePlaceInput, image io.Reader, filename, contentType string) (*entity.Place, error) {
	loc, err := s.Geo.Geocode(ctx, in.Address)
	if err != nil {
		if errors.Is(err, geocode.ErrNoResults) {
			return nil, ErrGeocodingFailed
		}
		return nil, err
	}

	if _, err := s.Users.GetByID(ctx, in.CreatorID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var imageURL, objectPath string
	if image != nil {
		objectPath = s.imageObjectPath(in.CreatorID, filename)
		imageURL, err = helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, image)
		if err != nil {
			return nil, err
		}
	}

	p := &entity.Place{
		Title:       in.Title,
		Description: in.Description,
		Address:     loc.FormattedAddress,
		Lat:         loc.Lat,
		Lng:         loc.Lng,
		ImageURL:    imageURL,
		CreatorID:   in.CreatorID,
	}

	err = s.Tx.WithTx(ctx, func(users repo.UserRepository, places repo.PlaceRepository) error {
		if err := places.Create(ctx, p); err != nil {
			return err
		}
		return users.AppendPlace(ctx, in.CreatorID, p.ID)
	})
	if err != nil {
		s.removeUploadedImage(ctx, objectPath)
		return nil, err
	}

	s.indexPlace(ctx, p)
	return p, nil
}

type UpdatePlaceInput struct {
	Title       string
	Description string
}

// Update mutates title and description only, after checking the requester
// owns the place.
func (s *PlaceService) Update(ctx context.Context, placeID, requesterID string, in UpdatePlaceInput) (*entity.Place, error) {
	p, err := s.Places.GetByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPlaceNotFound
		}
		return nil, err
	}
	if p.CreatorID != requesterID {
		return nil, ErrForbidden
	}

	p.Title = in.Title
	p.Description = in.Description
	if err := s.Places.Update(ctx, p); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, p.ID)
	s.indexPlace(ctx, p)
	return p, nil
}

// Delete removes the place and its back-reference in the owner's
// place_ids list in one transaction, then best-effort: drops the cache
// entry, de-indexes, and queues the image for cleanup. Side-cleanup
// failures are logged, never surfaced.
func (s *PlaceService) Delete(ctx context.Context, placeID, requesterID string) error {
	p, err := s.Places.GetByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrPlaceNotFound
		}
		return err
	}
	if p.CreatorID != requesterID {
		return ErrForbidden
	}

	err = s.Tx.WithTx(ctx, func(users repo.UserRepository, places repo.PlaceRepository) error {
		if err := places.Delete(ctx, p.ID); err != nil {
			return err
		}
		return users.RemovePlace(ctx, p.CreatorID, p.ID)
	})
	if err != nil {
		return err
	}

	s.invalidateCache(ctx, p.ID)
	s.deindexPlace(ctx, p.ID)
	s.queueImageCleanup(ctx, p)
	return nil
}

// Search performs a multi_match query over title, description, and address.
func (s *PlaceService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESPlacesIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "description", "address"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESPlacesIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *PlaceService) imageObjectPath(creatorID, filename string) string {
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	return filepath.ToSlash(filepath.Join("places", creatorID, id+ext))
}

func (s *PlaceService) removeUploadedImage(ctx context.Context, objectPath string) {
	if objectPath == "" || s.GCS == nil {
		return
	}
	if err := helpers.DeleteObject(ctx, s.GCS, s.GCSBucket, objectPath); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("object", objectPath).Warn("failed to remove uploaded image after aborted create")
	}
}

func (s *PlaceService) invalidateCache(ctx context.Context, placeID string) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, placeCacheKey(placeID)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("place_id", placeID).Warn("place cache invalidation failed")
	}
}

func (s *PlaceService) queueImageCleanup(ctx context.Context, p *entity.Place) {
	if s.CleanupPub == nil || p.ImageURL == "" {
		return
	}
	objectPath := helpers.ObjectPathFromURL(s.GCSBucket, p.ImageURL)
	if objectPath == "" {
		return
	}
	job := ImageCleanupJob{ObjectPath: objectPath, PlaceID: p.ID}
	if err := s.CleanupPub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("place_id", p.ID).Warn("image cleanup publish failed")
	}
}

func (s *PlaceService) indexPlace(ctx context.Context, p *entity.Place) {
	if s.ES == nil || s.ESPlacesIndex == "" {
		return
	}
	doc := map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
		"address":     p.Address,
		"lat":         p.Lat,
		"lng":         p.Lng,
		"creator_id":  p.CreatorID,
		"created_at":  p.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  p.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESPlacesIndex, DocumentID: p.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("place_id", p.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("place_id", p.ID).Warn("es index response error")
	}
}

func (s *PlaceService) deindexPlace(ctx context.Context, placeID string) {
	if s.ES == nil || s.ESPlacesIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESPlacesIndex, DocumentID: placeID}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("place_id", placeID).Warn("es delete failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
}
