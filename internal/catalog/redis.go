package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/tender-recommender/internal/logger"
)

const defaultRedisPrefix = "tender:"

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	PasswordFile string `mapstructure:"password-file"`
	DB           int    `mapstructure:"db"`
	Prefix       string `mapstructure:"prefix"`
}

// RedisStore keeps one hash per item keyed by its identity and a list holding insertion order.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	logger *zap.Logger
}

// redisRecord mirrors the hash fields of an item.
type redisRecord struct {
	Name        string `mapstructure:"item_name"`
	Description string `mapstructure:"description"`
	CostPrice   string `mapstructure:"cost_price"`
}

func NewRedisStore(rdb *redis.Client, prefix string, log *zap.Logger) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	return &RedisStore{
		rdb:    rdb,
		prefix: prefix,
		logger: logger.WithFields(log, logger.StoreFields(BackendRedis, rdb.Options().Addr)...),
	}
}

func OpenRedis(ctx context.Context, cfg *RedisConfig, log *zap.Logger) (*RedisStore, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("redis address is not configured")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis %s: %w", addr, err)
	}

	store := NewRedisStore(rdb, cfg.Prefix, log)
	store.logger.Info("redis catalog connection established")
	return store, nil
}

func (s *RedisStore) listKey() string {
	return s.prefix + "items"
}

func (s *RedisStore) itemKey(id string) string {
	return s.prefix + "item:" + id
}

func (s *RedisStore) FetchAll(ctx context.Context) (*Items, error) {
	ids, err := s.rdb.LRange(ctx, s.listKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing catalog item ids: %w", err)
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.HGetAll(ctx, s.itemKey(id)))
	}
	if len(cmds) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("reading catalog items: %w", err)
		}
	}

	items := &Items{}
	for idx, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			s.logger.Debug("catalog item hash is missing", zap.String("item_id", ids[idx]))
			continue
		}

		item, err := decodeRecord(ids[idx], fields)
		if err != nil {
			return nil, err
		}
		if item.CostPrice == nil && strings.TrimSpace(fields["cost_price"]) != "" {
			s.logger.Debug("catalog item has non-numeric cost price",
				zap.String("item_id", item.ID),
				zap.String("cost_price", fields["cost_price"]),
			)
		}
		items.Items = append(items.Items, item)
	}

	s.logger.Debug("fetched catalog from redis", zap.Int("count", items.Len()))
	return items, nil
}

func decodeRecord(id string, fields map[string]string) (*Item, error) {
	var record redisRecord
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &record,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(fields); err != nil {
		return nil, fmt.Errorf("decoding catalog item %s: %w", id, err)
	}

	item := &Item{ID: id, Name: record.Name, Description: record.Description}
	if cost, err := strconv.ParseFloat(strings.TrimSpace(record.CostPrice), 64); err == nil {
		item.CostPrice = Cost(cost)
	}
	return item, nil
}

// EnsureSchema is a no-op: redis keys need no declaration.
func (s *RedisStore) EnsureSchema(_ context.Context) error { return nil }

// Save writes items atomically and appends their ids to the order list.
func (s *RedisStore) Save(ctx context.Context, items *Items) error {
	if items.Len() == 0 {
		return nil
	}

	items.ensureIDs()

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, item := range items.Items {
			fields := map[string]any{
				"item_name":   item.Name,
				"description": item.Description,
			}
			if item.CostPrice != nil {
				fields["cost_price"] = strconv.FormatFloat(*item.CostPrice, 'f', -1, 64)
			}
			pipe.HSet(ctx, s.itemKey(item.ID), fields)
			pipe.RPush(ctx, s.listKey(), item.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving items to redis: %w", err)
	}

	s.logger.Info("saved items to redis", zap.Int("count", items.Len()))
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
