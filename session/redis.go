package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/xianrendesu-max/threts/model"
)

const redisKeyPrefix = "session__"

// RedisStore keeps sessions in redis so logins survive process restarts
// and are shared across replicas. Expiry is delegated to redis TTLs.
type RedisStore struct {
	inner *redis.Client
}

// GetRedisStore connects using REDIS_HOST, REDIS_PORT and REDIS_PASSWD
// and pings once to fail fast on a bad address.
func GetRedisStore() (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &RedisStore{inner: client}, nil
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (r *RedisStore) Create(ctx context.Context, user model.SessionUser) (string, error) {
	payload, err := json.Marshal(user)
	if err != nil {
		return "", errors.Wrap(err, "encode session")
	}

	id := uuid.New().String()
	if err := r.inner.Set(ctx, redisKey(id), payload, TTL).Err(); err != nil {
		return "", errors.Wrap(err, "store session")
	}
	return id, nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (model.SessionUser, bool, error) {
	payload, err := r.inner.Get(ctx, redisKey(id)).Result()
	if err == redis.Nil {
		return model.SessionUser{}, false, nil
	}
	if err != nil {
		return model.SessionUser{}, false, errors.Wrap(err, "load session")
	}

	var user model.SessionUser
	if err := json.Unmarshal([]byte(payload), &user); err != nil {
		return model.SessionUser{}, false, errors.Wrap(err, "decode session")
	}
	return user, true, nil
}

func (r *RedisStore) Destroy(ctx context.Context, id string) error {
	return r.inner.Del(ctx, redisKey(id)).Err()
}
