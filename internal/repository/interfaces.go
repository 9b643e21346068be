package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/dftlog/internal/domain"
)

// ErrNotFound is returned when a key or row does not exist.
var ErrNotFound = errors.New("not found")

// Persisted keys, named as the field app has always stored them.
const (
	KeyMeasurements = "measurements"
	KeyPoints       = "measurementPoints"
	KeySession      = "sessionInfo"
)

// Entry is one stored blob with its last write time.
type Entry struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// KVStore is the key-value capability the field app persists into.
type KVStore interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

type RecordRepo interface {
	Load(ctx context.Context) ([]domain.MeasurementRecord, error)
	Save(ctx context.Context, records []domain.MeasurementRecord) error
	Clear(ctx context.Context) error
}

type CatalogRepo interface {
	Load(ctx context.Context) ([]domain.PointDefinition, error)
	Save(ctx context.Context, points []domain.PointDefinition) error
}

type SessionRepo interface {
	Load(ctx context.Context) (*domain.SessionConfig, error)
	Save(ctx context.Context, s domain.SessionConfig) error
}
