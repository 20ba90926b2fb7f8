package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/teahouse-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is the single-table layout of the SQL backend: one row per
// named record, the value held as a JSON document.
type Record struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName implements the GORM naming hook.
func (Record) TableName() string {
	return "records"
}

// SQL is the GORM-backed Store implementation. It works against either
// Postgres or SQLite depending on how the connection was opened.
type SQL struct {
	db *gorm.DB
}

// NewSQL wraps an open GORM connection.
func NewSQL(db *gorm.DB) (*SQL, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm connection required")
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Get(ctx context.Context, key string, out any) error {
	var record Record
	err := s.db.WithContext(ctx).First(&record, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "read record "+key)
	}
	if err := json.Unmarshal([]byte(record.Value), out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "decode record "+key)
	}
	return nil
}

func (s *SQL) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "encode record "+key)
	}
	record := Record{Key: key, Value: string(raw), UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "write record "+key)
	}
	return nil
}

func (s *SQL) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&Record{}, "key = ?", key).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "remove record "+key)
	}
	return nil
}

// Ping verifies the datasource is reachable.
func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
