// Package presence mirrors room membership into Redis so occupancy can be
// read by other processes. The mirror is advisory only: the relay's
// in-memory registry stays authoritative and never reads back from here.
package presence

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const memberTTL = 24 * time.Hour

// Store wraps a Redis client. A nil *Store is valid and turns every method
// into a no-op, so the relay runs unchanged without Redis configured.
type Store struct {
	client *redis.Client
}

// Connect dials Redis and verifies the connection.
func Connect(addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Store{client: client}, nil
}

// Add records a member in the room's presence set.
func (s *Store) Add(roomID, peerID string) {
	if s == nil {
		return
	}
	ctx := context.Background()
	key := roomKey(roomID)
	if err := s.client.SAdd(ctx, key, peerID).Err(); err != nil {
		log.Printf("presence: add %s to %s: %v", peerID, roomID, err)
		return
	}
	s.client.Expire(ctx, key, memberTTL)
}

// Remove deletes a member from the room's presence set.
func (s *Store) Remove(roomID, peerID string) {
	if s == nil {
		return
	}
	if err := s.client.SRem(context.Background(), roomKey(roomID), peerID).Err(); err != nil {
		log.Printf("presence: remove %s from %s: %v", peerID, roomID, err)
	}
}

// Count reads the mirrored occupancy of a room.
func (s *Store) Count(roomID string) (int, error) {
	if s == nil {
		return 0, nil
	}
	n, err := s.client.SCard(context.Background(), roomKey(roomID)).Result()
	if err != nil {
		return 0, fmt.Errorf("read presence of %s: %w", roomID, err)
	}
	return int(n), nil
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}

func roomKey(roomID string) string {
	return "room:" + roomID + ":peers"
}
