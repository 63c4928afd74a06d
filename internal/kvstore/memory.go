package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore はメモリ上のStore実装。
// 単体テストでRedisを立てずにフォールバック経路を検証するために使う。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	// SetErr / GetErr / ListErr を設定すると該当操作が常に失敗する。
	SetErr  error
	GetErr  error
	ListErr error
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Set はvalueをJSONにシリアライズして保存する。
func (s *MemoryStore) Set(ctx context.Context, key string, value any) error {
	if s.SetErr != nil {
		return s.SetErr
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return nil
}

// Get はkeyの値をdestにデシリアライズする。
func (s *MemoryStore) Get(ctx context.Context, key string, dest any) error {
	if s.GetErr != nil {
		return s.GetErr
	}
	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(data, dest)
}

// ListByPrefix はprefixに前方一致する全エントリの値を返す。
func (s *MemoryStore) ListByPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := []json.RawMessage{}
	for k, v := range s.data {
		if strings.HasPrefix(k, prefix) {
			values = append(values, json.RawMessage(v))
		}
	}
	return values, nil
}

// Len は保存されているエントリ数を返す。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Keys は保存されている全キーを返す。順序は保証しない。
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
