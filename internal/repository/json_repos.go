package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/dftlog/internal/domain"
)

func loadJSON(ctx context.Context, kv KVStore, key string, dst any) error {
	e, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(e.Value, dst); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

func saveJSON(ctx context.Context, kv KVStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return kv.Set(ctx, key, data)
}

// KVRecordRepo stores every measurement record as one JSON array.
type KVRecordRepo struct {
	kv KVStore
}

// NewKVRecordRepo creates a RecordRepo over kv.
func NewKVRecordRepo(kv KVStore) *KVRecordRepo {
	return &KVRecordRepo{kv: kv}
}

// Load returns the stored records, or none when the key is absent.
func (r *KVRecordRepo) Load(ctx context.Context) ([]domain.MeasurementRecord, error) {
	var records []domain.MeasurementRecord
	if err := loadJSON(ctx, r.kv, KeyMeasurements, &records); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return records, nil
}

// Save replaces the stored records. An empty set removes the key.
func (r *KVRecordRepo) Save(ctx context.Context, records []domain.MeasurementRecord) error {
	if len(records) == 0 {
		return r.Clear(ctx)
	}
	return saveJSON(ctx, r.kv, KeyMeasurements, records)
}

func (r *KVRecordRepo) Clear(ctx context.Context) error {
	return r.kv.Remove(ctx, KeyMeasurements)
}

// KVCatalogRepo stores the point catalog as one JSON array.
type KVCatalogRepo struct {
	kv KVStore
}

// NewKVCatalogRepo creates a CatalogRepo over kv.
func NewKVCatalogRepo(kv KVStore) *KVCatalogRepo {
	return &KVCatalogRepo{kv: kv}
}

// Load returns the stored catalog, or ErrNotFound when none was saved.
func (r *KVCatalogRepo) Load(ctx context.Context) ([]domain.PointDefinition, error) {
	var points []domain.PointDefinition
	if err := loadJSON(ctx, r.kv, KeyPoints, &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (r *KVCatalogRepo) Save(ctx context.Context, points []domain.PointDefinition) error {
	return saveJSON(ctx, r.kv, KeyPoints, points)
}

// KVSessionRepo stores the session configuration as a JSON object.
type KVSessionRepo struct {
	kv KVStore
}

// NewKVSessionRepo creates a SessionRepo over kv.
func NewKVSessionRepo(kv KVStore) *KVSessionRepo {
	return &KVSessionRepo{kv: kv}
}

// Load returns the stored session, or ErrNotFound when none was saved.
func (r *KVSessionRepo) Load(ctx context.Context) (*domain.SessionConfig, error) {
	var s domain.SessionConfig
	if err := loadJSON(ctx, r.kv, KeySession, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *KVSessionRepo) Save(ctx context.Context, s domain.SessionConfig) error {
	return saveJSON(ctx, r.kv, KeySession, s)
}
