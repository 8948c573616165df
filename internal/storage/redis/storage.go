package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/sortinghat/internal/model"
	"github.com/mcoot/sortinghat/internal/storage"
)

// ErrTxConflict is returned when an update lost the optimistic race more
// times than Config.MaxTxAttempts allows
var ErrTxConflict = errors.New("redis: too many concurrent modifications")

// Storage is a Redis-backed implementation of the storage interface.
//
// A character is kept as a JSON blob without skills, plus a HASH of skill
// name to skillRecord and membership of the owner index SET. All three are
// written in one MULTI/EXEC guarded by WATCH.
type Storage struct {
	client *redis.Client
	cfg    Config
}

type skillRecord struct {
	Position int `json:"position"`
	Base     int `json:"base"`
	Bonus    int `json:"bonus"`
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxAttempts <= 0 {
		cfg.MaxTxAttempts = DefaultConfig().MaxTxAttempts
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) CreateCharacter(ctx context.Context, c *model.Character) error {
	key := characterKey(c.OwnerKey)
	stored := c.Clone()
	stored.Version = 1

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return model.ErrCharacterExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return writeCharacter(ctx, pipe, stored)
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		// Someone else created the key between WATCH and EXEC
		return model.ErrCharacterExists
	}
	if err != nil {
		return err
	}
	c.Version = stored.Version
	return nil
}

func (s *Storage) GetCharacter(ctx context.Context, owner model.OwnerKey) (*model.Character, error) {
	return readCharacter(ctx, s.client, owner)
}

func (s *Storage) UpdateCharacter(ctx context.Context, owner model.OwnerKey, fn storage.UpdateFunc) (*model.Character, error) {
	keys := []string{characterKey(owner), skillsKey(owner)}

	for range s.cfg.MaxTxAttempts {
		var result *model.Character
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := readCharacter(ctx, tx, owner)
			if err != nil {
				return err
			}
			version := current.Version
			if err := fn(current); err != nil {
				return err
			}
			current.OwnerKey = owner
			current.Version = version + 1

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, skillsKey(owner))
				return writeCharacter(ctx, pipe, current)
			})
			if err != nil {
				return err
			}
			result = current
			return nil
		}, keys...)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("update %s: %w", owner, ErrTxConflict)
}

func (s *Storage) DeleteCharacter(ctx context.Context, owner model.OwnerKey) error {
	var deleted *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, characterKey(owner))
		pipe.Del(ctx, skillsKey(owner))
		pipe.SRem(ctx, characterIndexKey(), string(owner))
		return nil
	})
	if err != nil {
		return err
	}
	if deleted.Val() == 0 {
		return model.ErrCharacterNotFound
	}
	return nil
}

func (s *Storage) ListCharacters(ctx context.Context) ([]*model.Character, error) {
	owners, err := s.client.SMembers(ctx, characterIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	slices.Sort(owners)

	result := make([]*model.Character, 0, len(owners))
	for _, owner := range owners {
		c, err := readCharacter(ctx, s.client, model.OwnerKey(owner))
		if errors.Is(err, model.ErrCharacterNotFound) {
			// Deleted between SMEMBERS and GET
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, nil
}

// writeCharacter queues the commands that persist c onto pipe
func writeCharacter(ctx context.Context, pipe redis.Pipeliner, c *model.Character) error {
	blob := c.Clone()
	blob.Skills = nil
	data, err := json.Marshal(blob)
	if err != nil {
		return err
	}
	pipe.Set(ctx, characterKey(c.OwnerKey), data, 0)

	if len(c.Skills) > 0 {
		fields := make([]any, 0, len(c.Skills)*2)
		for i, sk := range c.Skills {
			rec, err := json.Marshal(skillRecord{Position: i, Base: sk.Base, Bonus: sk.Bonus})
			if err != nil {
				return err
			}
			fields = append(fields, sk.Name, rec)
		}
		pipe.HSet(ctx, skillsKey(c.OwnerKey), fields...)
	}

	pipe.SAdd(ctx, characterIndexKey(), string(c.OwnerKey))
	return nil
}

// readCharacter loads the blob and skills of one character
func readCharacter(ctx context.Context, cmd redis.Cmdable, owner model.OwnerKey) (*model.Character, error) {
	data, err := cmd.Get(ctx, characterKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrCharacterNotFound
		}
		return nil, err
	}

	var c model.Character
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}

	raw, err := cmd.HGetAll(ctx, skillsKey(owner)).Result()
	if err != nil {
		return nil, err
	}
	type positioned struct {
		skill    model.Skill
		position int
	}
	entries := make([]positioned, 0, len(raw))
	for name, value := range raw {
		var rec skillRecord
		if err := json.Unmarshal([]byte(value), &rec); err != nil {
			return nil, fmt.Errorf("decode skill %q: %w", name, err)
		}
		entries = append(entries, positioned{
			skill:    model.Skill{Name: name, Base: rec.Base, Bonus: rec.Bonus},
			position: rec.Position,
		})
	}
	slices.SortFunc(entries, func(a, b positioned) int { return a.position - b.position })

	c.Skills = make([]model.Skill, 0, len(entries))
	for _, e := range entries {
		c.Skills = append(c.Skills, e.skill)
	}
	return &c, nil
}

// Ping checks the Redis connection
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
