package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todo-planner/internal/model"
)

// EntryRepository stores origin-scoped key/value entries in the entries table.
type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Get(ctx context.Context, origin, key string) (string, bool, error) {
	var entry model.Entry
	err := r.db.WithContext(ctx).Where(map[string]interface{}{"origin": origin, "key": key}).First(&entry).Error
	switch {
	case err == nil:
		return entry.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("find entry: %w", err)
	}
}

func (r *EntryRepository) Set(ctx context.Context, origin, key, value string) error {
	entry := model.Entry{Origin: origin, Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "origin"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	return nil
}

// Origins lists every origin that has persisted state.
func (r *EntryRepository) Origins(ctx context.Context) ([]string, error) {
	var origins []string
	if err := r.db.WithContext(ctx).Model(&model.Entry{}).Distinct().Order("origin ASC").Pluck("origin", &origins).Error; err != nil {
		return nil, fmt.Errorf("list origins: %w", err)
	}
	return origins, nil
}
