package propstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docsync/core/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Property is one stored key/value pair of a relationship scope.
type Property struct {
	Scope     string `gorm:"primaryKey;size:191"`
	Name      string `gorm:"primaryKey;size:191"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName implements gorm's tabler interface.
func (Property) TableName() string { return "properties" }

// GormStore is a Store backed by a relational table.
type GormStore struct {
	db    *gorm.DB
	scope string
}

// NewGormStore creates a store whose properties are isolated under scope.
func NewGormStore(db *gorm.DB, scope string) *GormStore {
	return &GormStore{db: db, scope: scope}
}

// Migrate creates or updates the properties table and checks its columns.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Property{}); err != nil {
		return fmt.Errorf("migrate properties: %w", err)
	}
	missing, err := database.MissingColumns(s.db, Property{}.TableName(), "scope", "name", "value")
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("properties table is missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// GetAll implements Store.
func (s *GormStore) GetAll(ctx context.Context) (map[string]string, error) {
	var rows []Property
	if err := s.db.WithContext(ctx).Where("scope = ?", s.scope).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}

	props := make(map[string]string, len(rows))
	for _, row := range rows {
		props[row.Name] = row.Value
	}
	return props, nil
}

// SetAll implements Store.
func (s *GormStore) SetAll(ctx context.Context, props map[string]string) error {
	if len(props) == 0 {
		return nil
	}

	rows := make([]Property, 0, len(props))
	for name, value := range props {
		rows = append(rows, Property{Scope: s.scope, Name: name, Value: value})
	}
	if err := s.upsert(ctx).CreateInBatches(&rows, 500).Error; err != nil {
		return fmt.Errorf("store %d properties: %w", len(rows), err)
	}
	return nil
}

// SetOne implements Store.
func (s *GormStore) SetOne(ctx context.Context, key, value string) error {
	row := Property{Scope: s.scope, Name: key, Value: value}
	if err := s.upsert(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("store property %s: %w", key, err)
	}
	return nil
}

// DeleteOne implements Store.
func (s *GormStore) DeleteOne(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("scope = ? AND name = ?", s.scope, key).
		Delete(&Property{}).Error
	if err != nil {
		return fmt.Errorf("delete property %s: %w", key, err)
	}
	return nil
}

func (s *GormStore) upsert(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	})
}
