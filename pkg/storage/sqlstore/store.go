// Package sqlstore keeps durable slots in the client_slots table through GORM.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/pkg/db/models"
	"github.com/angelmondragon/packfinderz-storefront/pkg/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements storage.Slots over a GORM connection.
type Store struct {
	db        *gorm.DB
	namespace string
	now       func() time.Time
}

var _ storage.Slots = (*Store)(nil)

// New builds a slot store. The client_slots table must already exist.
func New(db *gorm.DB, namespace string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm connection required")
	}
	return &Store{db: db, namespace: namespace, now: time.Now}, nil
}

func (s *Store) ReadSlot(ctx context.Context, name string) ([]byte, error) {
	var row models.ClientSlot
	err := s.db.WithContext(ctx).
		Where("slot_key = ?", storage.Key(s.namespace, name)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", name, err)
	}
	return []byte(row.Value), nil
}

func (s *Store) WriteSlot(ctx context.Context, name string, value []byte) error {
	row := models.ClientSlot{
		SlotKey:   storage.Key(s.namespace, name),
		Value:     string(value),
		UpdatedAt: s.now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("write slot %s: %w", name, err)
	}
	return nil
}

func (s *Store) DeleteSlot(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, storage.Key(s.namespace, name))
	}
	if err := s.db.WithContext(ctx).Where("slot_key IN ?", keys).Delete(&models.ClientSlot{}).Error; err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}
	return nil
}

// Ping verifies the underlying database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
