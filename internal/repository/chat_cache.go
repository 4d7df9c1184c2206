package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tush00nka/bbbab_chat/internal/model"
)

// maxCachedMessages bounds a cached transcript. Longer chats are served from
// the database so the cache never holds a partial history.
const maxCachedMessages = 1000

// ChatCacheRepository caches complete chat transcripts and tracks which users
// currently have a realtime connection joined to a chat room.
type ChatCacheRepository interface {
	// GetMessages reports ok=false on a cache miss.
	GetMessages(ctx context.Context, chatID uint) (msgs []model.MessageView, ok bool, err error)
	// TranscriptVersion changes whenever a message is appended to the chat.
	TranscriptVersion(ctx context.Context, chatID uint) (int64, error)
	// SetMessages stores msgs only if the transcript version still equals
	// version, so a load that raced with an append is discarded.
	SetMessages(ctx context.Context, chatID uint, msgs []model.MessageView, version int64) error
	AppendMessage(ctx context.Context, chatID uint, msg model.MessageView) error

	AddUserToChat(ctx context.Context, chatID, userID uint) error
	RemoveUserFromChat(ctx context.Context, chatID, userID uint) (int64, error)
	GetChatUsers(ctx context.Context, chatID uint) ([]uint, error)
}

type chatCacheRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewChatCacheRepository(rdb *redis.Client, ttl time.Duration) ChatCacheRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &chatCacheRepository{rdb: rdb, ttl: ttl}
}

func (r *chatCacheRepository) getMessageKey(chatID uint) string {
	return fmt.Sprintf("chat:%d:messages", chatID)
}

func (r *chatCacheRepository) getVersionKey(chatID uint) string {
	return fmt.Sprintf("chat:%d:version", chatID)
}

func (r *chatCacheRepository) getUserKey(chatID uint) string {
	return fmt.Sprintf("chat:%d:users_online", chatID)
}

// GetMessages returns the cached transcript ordered by (createdAt, id), the
// same order the database uses, whatever order the appends arrived in.
func (r *chatCacheRepository) GetMessages(ctx context.Context, chatID uint) ([]model.MessageView, bool, error) {
	values, err := r.rdb.ZRange(ctx, r.getMessageKey(chatID), 0, -1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get messages from redis: %w", err)
	}
	if len(values) == 0 {
		return nil, false, nil
	}

	messages := make([]model.MessageView, 0, len(values))
	for _, v := range values {
		var msg model.MessageView
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			// A corrupt entry makes the transcript unusable; fall back to the database.
			return nil, false, nil
		}
		messages = append(messages, msg)
	}
	slices.SortStableFunc(messages, compareMessages)
	return messages, true, nil
}

// compareMessages orders by creation time at the database's microsecond
// precision, then by id.
func compareMessages(a, b model.MessageView) int {
	if c := a.CreatedAt.Truncate(time.Microsecond).Compare(b.CreatedAt.Truncate(time.Microsecond)); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

func messageScore(m model.MessageView) float64 {
	return float64(m.CreatedAt.UnixMicro())
}

func (r *chatCacheRepository) TranscriptVersion(ctx context.Context, chatID uint) (int64, error) {
	v, err := r.rdb.Get(ctx, r.getVersionKey(chatID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get transcript version: %w", err)
	}
	return v, nil
}

func (r *chatCacheRepository) SetMessages(ctx context.Context, chatID uint, msgs []model.MessageView, version int64) error {
	key := r.getMessageKey(chatID)
	if len(msgs) == 0 || len(msgs) > maxCachedMessages {
		return r.rdb.Del(ctx, key).Err()
	}

	members := make([]redis.Z, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		members = append(members, redis.Z{Score: messageScore(m), Member: string(data)})
	}

	versionKey := r.getVersionKey(chatID)
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZAdd(ctx, key, members...)
			pipe.Expire(ctx, key, r.ttl)
			return nil
		})
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to cache messages: %w", err)
	}
	return nil
}

// appendScript bumps the transcript version and adds the message only to a
// transcript that is already cached. A transcript over the cap is dropped.
//
// KEYS[1] transcript, KEYS[2] version
// ARGV[1] score, ARGV[2] message, ARGV[3] ttl seconds, ARGV[4] cap
var appendScript = redis.NewScript(`
redis.call('INCR', KEYS[2])
redis.call('EXPIRE', KEYS[2], ARGV[3])
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[1], ARGV[2])
local n = redis.call('ZCARD', KEYS[1])
if n > tonumber(ARGV[4]) then
	redis.call('DEL', KEYS[1])
else
	redis.call('EXPIRE', KEYS[1], ARGV[3])
end
return n
`)

// AppendMessage extends an already cached transcript. A missing key stays
// missing, so the next read repopulates it from the database.
func (r *chatCacheRepository) AppendMessage(ctx context.Context, chatID uint, msg model.MessageView) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ttl := int64(r.ttl / time.Second)
	if ttl < 1 {
		ttl = 1
	}
	keys := []string{r.getMessageKey(chatID), r.getVersionKey(chatID)}
	err = appendScript.Run(ctx, r.rdb, keys,
		strconv.FormatInt(msg.CreatedAt.UnixMicro(), 10), string(data), ttl, maxCachedMessages).Err()
	if err != nil {
		return fmt.Errorf("failed to save message to redis: %w", err)
	}
	return nil
}

// AddUserToChat counts connections per user so that one of several tabs
// leaving does not mark the user offline.
func (r *chatCacheRepository) AddUserToChat(ctx context.Context, chatID, userID uint) error {
	key := r.getUserKey(chatID)
	if err := r.rdb.HIncrBy(ctx, key, strconv.FormatUint(uint64(userID), 10), 1).Err(); err != nil {
		return fmt.Errorf("failed to add user to chat: %w", err)
	}
	if err := r.rdb.Expire(ctx, key, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set TTL for key %s: %w", key, err)
	}
	return nil
}

// RemoveUserFromChat returns the number of users still online in the chat.
func (r *chatCacheRepository) RemoveUserFromChat(ctx context.Context, chatID, userID uint) (int64, error) {
	key := r.getUserKey(chatID)
	field := strconv.FormatUint(uint64(userID), 10)

	left, err := r.rdb.HIncrBy(ctx, key, field, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to remove user from chat: %w", err)
	}
	if left <= 0 {
		if err := r.rdb.HDel(ctx, key, field).Err(); err != nil {
			return 0, fmt.Errorf("failed to remove user from chat: %w", err)
		}
	}

	count, err := r.rdb.HLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get user count: %w", err)
	}
	return count, nil
}

func (r *chatCacheRepository) GetChatUsers(ctx context.Context, chatID uint) ([]uint, error) {
	members, err := r.rdb.HGetAll(ctx, r.getUserKey(chatID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get chat users: %w", err)
	}

	users := make([]uint, 0, len(members))
	for field, count := range members {
		n, err := strconv.ParseInt(count, 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		users = append(users, uint(id))
	}
	return users, nil
}

type noopChatCache struct{}

// NewNoopChatCache is used when Redis is not configured: every read misses
// and presence is never recorded.
func NewNoopChatCache() ChatCacheRepository {
	return noopChatCache{}
}

func (noopChatCache) GetMessages(context.Context, uint) ([]model.MessageView, bool, error) {
	return nil, false, nil
}

func (noopChatCache) TranscriptVersion(context.Context, uint) (int64, error) { return 0, nil }

func (noopChatCache) SetMessages(context.Context, uint, []model.MessageView, int64) error { return nil }

func (noopChatCache) AppendMessage(context.Context, uint, model.MessageView) error { return nil }

func (noopChatCache) AddUserToChat(context.Context, uint, uint) error { return nil }

func (noopChatCache) RemoveUserFromChat(context.Context, uint, uint) (int64, error) { return 0, nil }

func (noopChatCache) GetChatUsers(context.Context, uint) ([]uint, error) { return []uint{}, nil }
