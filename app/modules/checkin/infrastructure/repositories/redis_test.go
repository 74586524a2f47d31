package checkindb

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	checkindomain "github.com/Black-And-White-Club/tourney-desk/app/modules/checkin/domain"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore() (*RedisStore, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	return NewRedisStore(db, 10*time.Minute), mock
}

func TestRedisStoreGet(t *testing.T) {
	store, mock := setupRedisStore()
	defer mock.ClearExpect()
	ctx := context.Background()

	data, err := json.Marshal(newToken("abc", "p1", "t1"))
	require.NoError(t, err)

	mock.ExpectGet("checkin:token:abc").SetVal(string(data))
	mock.ExpectGet("checkin:token:gone").RedisNil()

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.PlayerID)
	assert.Equal(t, checkindomain.StatusPending, got.Status)
	assert.True(t, got.ExpiresAt.Equal(t0.Add(checkindomain.DefaultTTL)))

	_, err = store.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreListPendingExpiredBefore(t *testing.T) {
	store, mock := setupRedisStore()
	defer mock.ClearExpect()

	now := t0.Add(2 * time.Minute)
	mock.ExpectZRangeByScore(pendingKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(1775894520000",
	}).SetVal([]string{"a", "b"})

	values, err := store.ListPendingExpiredBefore(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, values)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreRecords(t *testing.T) {
	store, mock := setupRedisStore()
	defer mock.ClearExpect()
	ctx := context.Background()

	record := checkindomain.CheckInRecord{PlayerID: "p1", TournamentID: "t1", CheckInTime: t0}
	data, err := json.Marshal(record)
	require.NoError(t, err)

	mock.ExpectLRange("checkin:records:t1", 0, -1).SetVal([]string{string(data)})

	records, err := store.ListRecords(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "p1", records[0].PlayerID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreTTL(t *testing.T) {
	store, _ := setupRedisStore()
	tok := newToken("abc", "p1", "t1")

	assert.Equal(t, 30*time.Second+10*time.Minute, store.ttlFor(tok, t0.Add(30*time.Second)))
	assert.Equal(t, 10*time.Minute, store.ttlFor(tok, t0.Add(time.Hour)))

	tok.Status = checkindomain.StatusCheckedIn
	assert.Equal(t, 10*time.Minute, store.ttlFor(tok, t0))
}
