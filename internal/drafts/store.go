// Package drafts keeps unpublished articles in a local SQLite database.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("draft not found")
	ErrAmbiguous = errors.New("draft id prefix matches more than one draft")
)

// minPrefix is the shortest id prefix accepted by Get
const minPrefix = 4

// Store persists drafts
type Store struct {
	db       *gorm.DB
	logger   zerolog.Logger
	mediaDir string
	now      func() time.Time
}

// Open opens (creating if needed) the drafts database at path
func Open(path string, logger zerolog.Logger) (*Store, error) {
	logger = logger.With().Str("component", "drafts").Logger()

	db, err := openDatabase(path, logger)
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate drafts database: %w", err)
	}

	return &Store{
		db:       db,
		logger:   logger,
		mediaDir: filepath.Join(filepath.Dir(path), "media"),
		now:      time.Now,
	}, nil
}

// Close flushes and closes the database
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save creates the draft when it has no id yet, otherwise updates it
func (s *Store) Save(ctx context.Context, d *Draft) error {
	db := s.db.WithContext(ctx)

	if d.ID == "" {
		if err := db.Create(d).Error; err != nil {
			return fmt.Errorf("failed to create draft: %w", err)
		}
		s.logger.Debug().Str("draft_id", d.ID).Msg("Draft created")
		return nil
	}

	if err := db.Save(d).Error; err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Get finds a draft by id or by an unambiguous id prefix
func (s *Store) Get(ctx context.Context, id string) (*Draft, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return nil, ErrNotFound
	}

	var draft Draft
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&draft).Error
	if err == nil {
		return &draft, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	if len(id) < minPrefix {
		return nil, ErrNotFound
	}

	var matches []Draft
	if err := s.db.WithContext(ctx).Where("id LIKE ?", id+"%").Limit(2).Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &matches[0], nil
	default:
		return nil, ErrAmbiguous
	}
}

// List returns all drafts, most recently edited first
func (s *Store) List(ctx context.Context) ([]Draft, error) {
	var drafts []Draft
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Find(&drafts).Error; err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return drafts, nil
}

// Delete removes a draft and its stored image
func (s *Store) Delete(ctx context.Context, id string) error {
	var draft Draft
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&draft).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load draft: %w", err)
	}

	if err := s.db.WithContext(ctx).Delete(&draft).Error; err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	s.removeImage(draft.ImagePath)
	return nil
}

// PruneOlderThan deletes drafts not edited within age and returns how many went
func (s *Store) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := s.now().Add(-age)

	var stale []Draft
	if err := s.db.WithContext(ctx).Where("updated_at < ?", cutoff).Find(&stale).Error; err != nil {
		return 0, fmt.Errorf("failed to find stale drafts: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).Delete(&stale)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune drafts: %w", result.Error)
	}
	for _, d := range stale {
		s.removeImage(d.ImagePath)
	}
	return result.RowsAffected, nil
}
