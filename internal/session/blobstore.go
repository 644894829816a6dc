package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/dkeye/Inkroom/internal/domain"
)

// RedisBlobStore keeps each document's update stream in a list and its
// latest snapshot in a plain key.
type RedisBlobStore struct {
	client *redis.Client
}

func NewRedisBlobStore(client *redis.Client) *RedisBlobStore {
	return &RedisBlobStore{client: client}
}

func updatesKey(id domain.DocumentID) string  { return fmt.Sprintf("doc:%s:updates", id) }
func snapshotKey(id domain.DocumentID) string { return fmt.Sprintf("doc:%s:snapshot", id) }

func (s *RedisBlobStore) AppendUpdate(ctx context.Context, docID domain.DocumentID, update []byte) error {
	return s.client.RPush(ctx, updatesKey(docID), update).Err()
}

func (s *RedisBlobStore) LoadUpdates(ctx context.Context, docID domain.DocumentID) ([][]byte, error) {
	vals, err := s.client.LRange(ctx, updatesKey(docID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		out = append(out, []byte(v))
	}
	return out, nil
}

// SaveSnapshot replaces the snapshot and trims the absorbed update stream
// in one transaction.
func (s *RedisBlobStore) SaveSnapshot(ctx context.Context, docID domain.DocumentID, snapshot []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, snapshotKey(docID), snapshot, 0)
	pipe.Del(ctx, updatesKey(docID))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisBlobStore) LoadSnapshot(ctx context.Context, docID domain.DocumentID) ([]byte, error) {
	data, err := s.client.Get(ctx, snapshotKey(docID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

func (s *RedisBlobStore) Drop(ctx context.Context, docID domain.DocumentID) error {
	return s.client.Del(ctx, updatesKey(docID), snapshotKey(docID)).Err()
}
