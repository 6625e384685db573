/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process cache. Expired entries are invisible to Get and
// are removed by the janitor every sweep interval.
type Memory struct {
	cache *gocache.Cache
}

var _ Cache = (*Memory)(nil)

func NewMemory(defaultTTL, sweepInterval time.Duration) *Memory {
	return &Memory{cache: gocache.New(defaultTTL, sweepInterval)}
}

func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	value, found := m.cache.Get(key)
	if !found {
		return false, nil
	}
	raw, ok := value.([]byte)
	if !ok {
		return false, fmt.Errorf("unexpected cache entry type %T for %s", value, key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("unable to decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("unable to encode cache entry %s: %w", key, err)
	}
	m.cache.Set(key, raw, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.cache.Delete(key)
	}
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	for key := range m.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			m.cache.Delete(key)
		}
	}
	return nil
}

func (m *Memory) Len() int {
	return m.cache.ItemCount()
}
