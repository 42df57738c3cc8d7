package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"docuchat/internal/model"
)

// DocumentListCache keeps each user's document list in Redis for a
// short TTL. The ingestion pipeline invalidates it whenever a document
// is created or changes status, so listings reflect ingestion progress
// within one round trip.
type DocumentListCache struct {
	client  *redisv9.Client
	listTTL time.Duration
}

func NewDocumentListCache(client *redisv9.Client, listTTL time.Duration) *DocumentListCache {
	if listTTL <= 0 {
		listTTL = 60 * time.Second
	}
	return &DocumentListCache{
		client:  client,
		listTTL: listTTL,
	}
}

func (c *DocumentListCache) GetDocuments(ctx context.Context, userID uint) ([]model.Document, bool, error) {
	key := c.listKey(userID)
	raw, err := c.client.Get(ctx, key).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get document list failed: %w", err)
	}

	var docs []model.Document
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached document list failed: %w", err)
	}
	return docs, true, nil
}

func (c *DocumentListCache) SetDocuments(ctx context.Context, userID uint, docs []model.Document) error {
	key := c.listKey(userID)
	payload, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal document list cache failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.listTTL).Err(); err != nil {
		return fmt.Errorf("redis set document list failed: %w", err)
	}
	return nil
}

func (c *DocumentListCache) Invalidate(ctx context.Context, userID uint) error {
	key := c.listKey(userID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis invalidate document list failed: %w", err)
	}
	return nil
}

func (c *DocumentListCache) listKey(userID uint) string {
	return fmt.Sprintf("documents:list:%d", userID)
}
