package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// GetJSON loads and decodes the document stored under key.
func GetJSON[T any](ctx context.Context, c Collection, key string) (*T, error) {
	data, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: decode %q: %v", ErrInvalidEntity, key, err)
	}
	return &v, nil
}

// PutJSON encodes v and stores it under key.
func PutJSON(ctx context.Context, c Collection, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %q: %v", ErrInvalidEntity, key, err)
	}
	return c.Set(ctx, key, data)
}

// PutJSONWithTTL encodes v and stores it under key with an expiry.
func PutJSONWithTTL(ctx context.Context, c Collection, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %q: %v", ErrInvalidEntity, key, err)
	}
	return c.SetWithTTL(ctx, key, data, ttl)
}

// ListJSON decodes every document in the collection. Documents that fail to
// decode are skipped and reported through the returned count.
func ListJSON[T any](ctx context.Context, c Collection) ([]*T, int, error) {
	raw, err := c.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*T, 0, len(raw))
	skipped := 0
	for _, data := range raw {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			skipped++
			continue
		}
		out = append(out, &v)
	}
	return out, skipped, nil
}
