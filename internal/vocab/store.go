package vocab

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Record is one persisted translation query - the durable vocabulary entry
// the reading companion builds up over time.
type Record struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Translation string    `json:"translation"`
	TargetLang  string    `json:"target_lang"`
	Provider    string    `json:"provider"`
	Model       string    `json:"model"`
	PageNumber  int       `json:"page_number,omitempty"`
	HadImage    bool      `json:"had_image"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store keeps vocabulary records in Redis: one hash per record plus a
// time-ordered index for listing.
type Store struct {
	client *redis.Client
}

const indexKey = "vocab:index"

func NewStore(redisURL string) (*Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{client: c}, nil
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func recordKey(id string) string { return "vocab:record:" + id }

// Save persists the record and returns its assigned ID.
func (s *Store) Save(ctx context.Context, r Record) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	m := map[string]interface{}{
		"text":        r.Text,
		"translation": r.Translation,
		"target_lang": r.TargetLang,
		"provider":    r.Provider,
		"model":       r.Model,
		"had_image":   strconv.FormatBool(r.HadImage),
		"created_at":  r.CreatedAt.Format(time.RFC3339Nano),
	}
	if r.PageNumber > 0 {
		m["page_number"] = r.PageNumber
	}

	if err := s.client.HSet(ctx, recordKey(r.ID), m).Err(); err != nil {
		return "", fmt.Errorf("save record: %w", err)
	}
	if err := s.client.ZAdd(ctx, indexKey, redis.Z{
		Score:  float64(r.CreatedAt.UnixNano()),
		Member: r.ID,
	}).Err(); err != nil {
		return "", fmt.Errorf("index record: %w", err)
	}
	return r.ID, nil
}

// Get returns one record, or nil when the id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	res, err := s.client.HGetAll(ctx, recordKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, nil
	}
	r := fromHash(id, res)
	return &r, nil
}

// List returns up to limit records, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	ids, err := s.client.ZRevRange(ctx, indexKey, 0, stop).Result()
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		res, err := s.client.HGetAll(ctx, recordKey(id)).Result()
		if err != nil {
			return nil, err
		}
		if len(res) == 0 {
			// Hash expired or deleted out of band; drop the stale index entry.
			_ = s.client.ZRem(ctx, indexKey, id).Err()
			continue
		}
		out = append(out, fromHash(id, res))
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.client.ZCard(ctx, indexKey).Result()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, recordKey(id)).Err(); err != nil {
		return err
	}
	return s.client.ZRem(ctx, indexKey, id).Err()
}

// Clear removes every record and the index.
func (s *Store) Clear(ctx context.Context) error {
	ids, err := s.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.client.Del(ctx, recordKey(id)).Err(); err != nil {
			return err
		}
	}
	return s.client.Del(ctx, indexKey).Err()
}

func fromHash(id string, m map[string]string) Record {
	r := Record{
		ID:          id,
		Text:        m["text"],
		Translation: m["translation"],
		TargetLang:  m["target_lang"],
		Provider:    m["provider"],
		Model:       m["model"],
	}
	if v, err := strconv.Atoi(m["page_number"]); err == nil {
		r.PageNumber = v
	}
	r.HadImage = m["had_image"] == "true"
	if t, err := time.Parse(time.RFC3339Nano, m["created_at"]); err == nil {
		r.CreatedAt = t
	}
	return r
}
