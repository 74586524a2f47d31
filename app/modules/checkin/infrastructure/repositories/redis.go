package checkindb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	"github.com/redis/go-redis/v9"
)

const (
	pendingKey   = "checkin:pending"
	maxTxRetries = 8
)

func tokenKey(value string) string { return "checkin:token:" + value }

func pairRedisKey(playerID, tournamentID string) string {
	return "checkin:pair:" + playerID + ":" + tournamentID
}

func recordsKey(tournamentID string) string { return "checkin:records:" + tournamentID }

// RedisStore implements Store on Redis. Each token is a JSON string whose
// check-and-mutate runs under WATCH/MULTI; finished tokens carry a TTL of
// retention, so Purge has nothing left to do.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

// ttlFor keeps pending tokens until their window ends plus retention.
func (s *RedisStore) ttlFor(t *checkindomain.Token, now time.Time) time.Duration {
	if t.Status == checkindomain.StatusPending {
		if remaining := t.ExpiresAt.Sub(now); remaining > 0 {
			return remaining + s.retention
		}
	}
	return s.retention
}

func pendingScore(t *checkindomain.Token) float64 {
	return float64(t.ExpiresAt.UnixMilli())
}

func decodeToken(data []byte) (*checkindomain.Token, error) {
	token := new(checkindomain.Token)
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return token, nil
}

func getToken(ctx context.Context, c redis.Cmdable, value string) (*checkindomain.Token, error) {
	data, err := c.Get(ctx, tokenKey(value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return decodeToken(data)
}

// watch retries fn while optimistic transactions conflict.
func (s *RedisStore) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("token transaction kept conflicting: %w", redis.TxFailedErr)
}

func (s *RedisStore) Replace(ctx context.Context, token *checkindomain.Token) (*checkindomain.Token, error) {
	data, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token: %w", err)
	}
	pair := pairRedisKey(token.PlayerID, token.TournamentID)
	now := time.Now()

	var superseded *checkindomain.Token
	err = s.watch(ctx, func(tx *redis.Tx) error {
		superseded = nil
		exists, err := tx.Exists(ctx, tokenKey(token.Value)).Result()
		if err != nil {
			return fmt.Errorf("failed to check token value: %w", err)
		}
		if exists > 0 {
			return ErrDuplicateValue
		}

		oldValue, err := tx.Get(ctx, pair).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to read pair index: %w", err)
		}
		if oldValue != "" {
			old, err := getToken(ctx, tx, oldValue)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			superseded = old
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if oldValue != "" {
				pipe.Del(ctx, tokenKey(oldValue))
				pipe.ZRem(ctx, pendingKey, oldValue)
			}
			pipe.Set(ctx, tokenKey(token.Value), data, s.ttlFor(token, now))
			pipe.Set(ctx, pair, token.Value, s.ttlFor(token, now))
			pipe.ZAdd(ctx, pendingKey, redis.Z{Score: pendingScore(token), Member: token.Value})
			return nil
		})
		return err
	}, pair, tokenKey(token.Value))
	if err != nil {
		return nil, err
	}
	return superseded, nil
}

func (s *RedisStore) Get(ctx context.Context, value string) (*checkindomain.Token, error) {
	return getToken(ctx, s.client, value)
}

func (s *RedisStore) Update(ctx context.Context, value string, fn func(*checkindomain.Token) error) (*checkindomain.Token, error) {
	key := tokenKey(value)
	now := time.Now()

	var updated *checkindomain.Token
	err := s.watch(ctx, func(tx *redis.Tx) error {
		token, err := getToken(ctx, tx, value)
		if err != nil {
			return err
		}
		if err := fn(token); err != nil {
			return err
		}
		data, err := json.Marshal(token)
		if err != nil {
			return fmt.Errorf("failed to encode token: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttlFor(token, now))
			if token.Status != checkindomain.StatusPending {
				pipe.ZRem(ctx, pendingKey, value)
			}
			return nil
		})
		if err == nil {
			updated = token
		}
		return err
	}, key)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Redeem writes the token and pushes the record in one MULTI. Redis cannot
// hold a transaction open across journal, so a journal error restores the
// previous token and drops the record.
func (s *RedisStore) Redeem(ctx context.Context, value string, fn RedeemFunc, journal Journal) (*checkindomain.Token, error) {
	key := tokenKey(value)
	now := time.Now()

	var (
		redeemed   *checkindomain.Token
		previous   []byte
		prevToken  *checkindomain.Token
		recordData []byte
		recordList string
	)
	err := s.watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get token: %w", err)
		}
		token, err := decodeToken(raw)
		if err != nil {
			return err
		}
		before := token.Clone()

		record, err := fn(token)
		if err != nil {
			return err
		}
		data, err := json.Marshal(token)
		if err != nil {
			return fmt.Errorf("failed to encode token: %w", err)
		}
		rec, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode check-in record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttlFor(token, now))
			if token.Status != checkindomain.StatusPending {
				pipe.ZRem(ctx, pendingKey, value)
			}
			pipe.RPush(ctx, recordsKey(record.TournamentID), rec)
			return nil
		})
		if err == nil {
			redeemed, previous, prevToken = token, raw, before
			recordData, recordList = rec, recordsKey(record.TournamentID)
		}
		return err
	}, key)
	if err != nil {
		return nil, err
	}

	if journal != nil {
		if err := journal(ctx, redeemed.Clone()); err != nil {
			if undoErr := s.undoRedeem(ctx, key, previous, prevToken, recordList, recordData, now); undoErr != nil {
				return nil, errors.Join(err, undoErr)
			}
			return nil, err
		}
	}
	return redeemed, nil
}

func (s *RedisStore) undoRedeem(ctx context.Context, key string, previous []byte, prev *checkindomain.Token, recordList string, recordData []byte, now time.Time) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, previous, s.ttlFor(prev, now))
		if prev.Status == checkindomain.StatusPending {
			pipe.ZAdd(ctx, pendingKey, redis.Z{Score: pendingScore(prev), Member: prev.Value})
		}
		pipe.LRem(ctx, recordList, -1, recordData)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to roll back redemption: %w", err)
	}
	return nil
}

func (s *RedisStore) Rotate(ctx context.Context, oldValue string, build func(old checkindomain.Token) (*checkindomain.Token, error)) (*checkindomain.Token, error) {
	oldKey := tokenKey(oldValue)
	now := time.Now()

	var next *checkindomain.Token
	err := s.watch(ctx, func(tx *redis.Tx) error {
		old, err := getToken(ctx, tx, oldValue)
		if err != nil {
			return err
		}
		next, err = build(*old)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode token: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, oldKey)
			pipe.ZRem(ctx, pendingKey, oldValue)
			pipe.Set(ctx, tokenKey(next.Value), data, s.ttlFor(next, now))
			pipe.Set(ctx, pairRedisKey(next.PlayerID, next.TournamentID), next.Value, s.ttlFor(next, now))
			pipe.ZAdd(ctx, pendingKey, redis.Z{Score: pendingScore(next), Member: next.Value})
			return nil
		})
		return err
	}, oldKey)
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (s *RedisStore) ListPendingExpiredBefore(ctx context.Context, now time.Time) ([]string, error) {
	values, err := s.client.ZRangeByScore(ctx, pendingKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list lapsed tokens: %w", err)
	}
	return values, nil
}

// Purge is a no-op; finished tokens expire through their TTL.
func (s *RedisStore) Purge(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) ListRecords(ctx context.Context, tournamentID string) ([]checkindomain.CheckInRecord, error) {
	items, err := s.client.LRange(ctx, recordsKey(tournamentID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list check-in records: %w", err)
	}

	out := make([]checkindomain.CheckInRecord, 0, len(items))
	for _, item := range items {
		var record checkindomain.CheckInRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("failed to decode check-in record: %w", err)
		}
		out = append(out, record)
	}
	return out, nil
}

var _ Store = (*RedisStore)(nil)
