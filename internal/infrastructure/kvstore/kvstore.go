// Package kvstore persists opaque JSON blobs by key. Writes are last-write-wins.
package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidKey = errors.New("key is required")

// Store is the persistence collaborator used for drafts and cached blobs.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, blob []byte) error
	Remove(ctx context.Context, key string) error
}

// RedisStore keeps blobs as plain string values. TTL 0 means no expiry.
type RedisStore struct {
	Rdb    *redis.Client
	Prefix string
	TTL    time.Duration
}

func (s *RedisStore) key(k string) string {
	return s.Prefix + k
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrInvalidKey
	}
	val, err := s.Rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, blob []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	return s.Rdb.Set(ctx, s.key(key), blob, s.TTL).Err()
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return s.Rdb.Del(ctx, s.key(key)).Err()
}

// Blob is the row behind GormStore.
type Blob struct {
	Key       string         `gorm:"column:blob_key;primaryKey;type:varchar(255)" json:"key"`
	Value     datatypes.JSON `gorm:"column:value;type:json;not null" json:"value"`
	UpdatedAt time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Blob) TableName() string {
	return "KVBlobs"
}

// GormStore keeps blobs in the KVBlobs table, for deployments without Redis.
type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrInvalidKey
	}
	var row Blob
	err := s.DB.WithContext(ctx).Where("blob_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(row.Value), true, nil
}

func (s *GormStore) Save(ctx context.Context, key string, blob []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	row := Blob{Key: key, Value: datatypes.JSON(blob), UpdatedAt: time.Now()}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blob_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updatedAt"}),
	}).Create(&row).Error
}

func (s *GormStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return s.DB.WithContext(ctx).Where("blob_key = ?", key).Delete(&Blob{}).Error
}
