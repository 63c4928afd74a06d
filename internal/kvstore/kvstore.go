// Package kvstore はKey-Valueフォールバックストアを提供する。
//
// リレーショナルストアのテーブルが存在しないデプロイでも
// 予約・購入・お問い合わせデータを失わないための汎用JSONストア。
// キーは `<entity-type>:<owner-id>[:<entity-id>]` の規約に従い、
// オーナー単位のプレフィックススキャンが可能。
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound はキーが存在しないことを表す。
var ErrNotFound = errors.New("key not found")

// Store はKey-Valueストアのインターフェース。
// 単体テストではメモリ実装に差し替える。
type Store interface {
	// Set はvalueをJSONにシリアライズしてkeyに保存する。TTLなし。
	Set(ctx context.Context, key string, value any) error

	// Get はkeyの値をdestにデシリアライズする。
	// キーが存在しない場合はErrNotFoundを返す。
	Get(ctx context.Context, key string, dest any) error

	// ListByPrefix はprefixに前方一致する全エントリの値を返す。
	// 順序は保証しない。一致がない場合は空スライスを返す。
	ListByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error)
}

// RedisStore はgo-redisによるStore実装。
type RedisStore struct {
	client *redis.Client
}

// NewRedisClient は接続URLからRedisクライアントを生成する。
// URLの例: "redis://:password@host:6379/0"
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewRedisStore はRedisStoreを生成する。
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Set はvalueをJSONにシリアライズしてkeyに保存する。
func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Get はkeyの値をdestにデシリアライズする。
func (s *RedisStore) Get(ctx context.Context, key string, dest any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal value for key %s: %w", key, err)
	}
	return nil
}

// ListByPrefix はprefixに前方一致する全エントリの値を返す。
// SCANでキーを列挙してから個別にGETする。エントリ数は
// オーナー単位（数十件規模）を想定しているためMGETの最適化はしない。
func (s *RedisStore) ListByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	var values []json.RawMessage

	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			// スキャンとGETの間に消えたキーはスキップする
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("failed to get key %s: %w", iter.Val(), err)
		}
		values = append(values, json.RawMessage(data))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan prefix %s: %w", prefix, err)
	}

	if values == nil {
		values = []json.RawMessage{}
	}
	return values, nil
}

// compile-time interface check
var _ Store = (*RedisStore)(nil)
