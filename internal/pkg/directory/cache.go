package directory

import (
	"Fellowship/internal/pkg/consts"
	"context"
	"errors"
	log "log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// cachedDirectory 用户查询走 Redis 缓存，其余接口直接透传
type cachedDirectory struct {
	Directory
	rdb *redis.Client
	ttl time.Duration
}

// CachedDirectory 带缓存失效能力的目录
type CachedDirectory interface {
	Directory
	Invalidator
}

func NewCachedDirectory(next Directory, rdb *redis.Client, ttl time.Duration) CachedDirectory {
	return &cachedDirectory{Directory: next, rdb: rdb, ttl: ttl}
}

func userKey(id uint64) string {
	return consts.DirectoryUserKey + strconv.FormatUint(id, 10)
}

func (s *cachedDirectory) GetUser(ctx context.Context, id uint64) (*User, error) {
	raw, err := s.rdb.Get(ctx, userKey(id)).Result()
	if err == nil {
		u := &User{}
		if err = json.Unmarshal([]byte(raw), u); err == nil {
			return u, nil
		}
		log.WarnContext(ctx, "directory cache decode failed", "user_id", id, "err", err)
	} else if !errors.Is(err, redis.Nil) {
		log.WarnContext(ctx, "directory cache unavailable", "err", err)
	}

	u, err := s.Directory.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, u)
	return u, nil
}

func (s *cachedDirectory) GetUsers(ctx context.Context, ids []uint64) (map[uint64]*User, error) {
	result := make(map[uint64]*User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}

	missing := ids
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		log.WarnContext(ctx, "directory cache unavailable", "err", err)
	} else {
		missing = make([]uint64, 0)
		for i, v := range values {
			str, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			u := &User{}
			if json.Unmarshal([]byte(str), u) != nil {
				missing = append(missing, ids[i])
				continue
			}
			result[ids[i]] = u
		}
	}

	if len(missing) == 0 {
		return result, nil
	}
	fetched, err := s.Directory.GetUsers(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, u := range fetched {
		result[id] = u
		s.store(ctx, u)
	}
	return result, nil
}

func (s *cachedDirectory) Invalidate(ctx context.Context, userIDs ...uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = userKey(id)
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *cachedDirectory) store(ctx context.Context, u *User) {
	b, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err = s.rdb.Set(ctx, userKey(u.ID), b, s.ttl).Err(); err != nil {
		log.WarnContext(ctx, "directory cache write failed", "user_id", u.ID, "err", err)
	}
}
