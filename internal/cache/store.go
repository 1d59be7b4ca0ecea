package cache

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/choosemyai/backend/internal/models"
	"github.com/choosemyai/backend/internal/store"
)

const (
	keyAppearance = "appearance"
	keyCategories = "categories"
)

// Store wraps a store.Store with read-through caching of the appearance
// settings and the category list. Writes that could change either drop the
// cached copy. Cache failures are logged and fall through to the store.
type Store struct {
	store.Store
	cache Cache
	log   *logrus.Logger
}

func NewStore(s store.Store, c Cache, log *logrus.Logger) *Store {
	return &Store{Store: s, cache: c, log: log}
}

func (s *Store) GetAppearance(ctx context.Context) (*models.AppearanceSettings, error) {
	var settings models.AppearanceSettings
	if s.lookup(ctx, keyAppearance, &settings) {
		return &settings, nil
	}

	fresh, err := s.Store.GetAppearance(ctx)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, keyAppearance, fresh)
	return fresh, nil
}

func (s *Store) UpdateAppearance(ctx context.Context, settings *models.AppearanceSettings) error {
	defer s.invalidate(ctx, keyAppearance)
	return s.Store.UpdateAppearance(ctx, settings)
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if s.lookup(ctx, keyCategories, &categories) {
		return categories, nil
	}

	fresh, err := s.Store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, keyCategories, fresh)
	return fresh, nil
}

// Category writes and anything that changes approved tool counts.

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	defer s.invalidate(ctx, keyCategories)
	return s.Store.CreateCategory(ctx, category)
}

func (s *Store) UpdateCategory(ctx context.Context, category *models.Category) error {
	defer s.invalidate(ctx, keyCategories)
	return s.Store.UpdateCategory(ctx, category)
}

func (s *Store) DeleteCategory(ctx context.Context, id int) error {
	defer s.invalidate(ctx, keyCategories)
	return s.Store.DeleteCategory(ctx, id)
}

func (s *Store) CreateTool(ctx context.Context, tool *models.Tool, categoryIDs []int) error {
	defer s.invalidate(ctx, keyCategories)
	return s.Store.CreateTool(ctx, tool, categoryIDs)
}

func (s *Store) UpdateTool(ctx context.Context, tool *models.Tool, categoryIDs []int) error {
	defer s.invalidate(ctx, keyCategories)
	return s.Store.UpdateTool(ctx, tool, categoryIDs)
}

func (s *Store) SetToolApproval(ctx context.Context, id int, approved bool) error {
	defer s.invalidate(ctx, keyCategories)
	return s.Store.SetToolApproval(ctx, id, approved)
}

func (s *Store) DeleteTool(ctx context.Context, id int) error {
	defer s.invalidate(ctx, keyCategories)
	return s.Store.DeleteTool(ctx, id)
}

func (s *Store) Close() error {
	if err := s.cache.Close(); err != nil {
		s.log.WithError(err).Warn("Failed to close cache")
	}
	return s.Store.Close()
}

func (s *Store) lookup(ctx context.Context, key string, dest any) bool {
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Cache read failed")
		return false
	}
	return found
}

func (s *Store) fill(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

func (s *Store) invalidate(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Cache invalidation failed")
	}
}
