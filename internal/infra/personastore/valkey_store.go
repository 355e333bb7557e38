package personastore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/ai-fitcoach/internal/domain/persona"
)

// ValkeyStore keeps custom personas as JSON values in a single hash.
type ValkeyStore struct {
	client valkey.Client
	key    string
}

// NewValkeyStore constructs a store backed by Valkey.
func NewValkeyStore(client valkey.Client, key string) *ValkeyStore {
	if key == "" {
		key = "personas"
	}
	return &ValkeyStore{client: client, key: key}
}

// Save implements persona.Store.
func (s *ValkeyStore) Save(ctx context.Context, p persona.Persona) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	cmd := s.client.B().Hset().Key(s.key).FieldValue().FieldValue(p.ID, string(payload)).Build()
	return s.client.Do(ctx, cmd).Error()
}

// Get implements persona.Store.
func (s *ValkeyStore) Get(ctx context.Context, id string) (persona.Persona, error) {
	payload, err := s.client.Do(ctx, s.client.B().Hget().Key(s.key).Field(id).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return persona.Persona{}, persona.ErrNotFound
		}
		return persona.Persona{}, err
	}
	var p persona.Persona
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return persona.Persona{}, fmt.Errorf("decode persona %s: %w", id, err)
	}
	return p, nil
}

// List implements persona.Store.
func (s *ValkeyStore) List(ctx context.Context) ([]persona.Persona, error) {
	entries, err := s.client.Do(ctx, s.client.B().Hgetall().Key(s.key).Build()).AsStrMap()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]persona.Persona, 0, len(entries))
	for id, payload := range entries {
		var p persona.Persona
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("decode persona %s: %w", id, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Delete implements persona.Store.
func (s *ValkeyStore) Delete(ctx context.Context, id string) error {
	removed, err := s.client.Do(ctx, s.client.B().Hdel().Key(s.key).Field(id).Build()).AsInt64()
	if err != nil {
		return err
	}
	if removed == 0 {
		return persona.ErrNotFound
	}
	return nil
}

var _ persona.Store = (*ValkeyStore)(nil)
