package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/opin/internal/domain"
	"github.com/redis/go-redis/v9"
)

const idKey = "sid"

// RedisStore keeps sessions server-side; the cookie only carries an opaque id.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient connects to Redis and checks the connection.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "opin:session:",
		ttl:    MaxAge,
	}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) currentID(c echo.Context) string {
	sess, err := session.Get(CookieName, c)
	if err != nil {
		return ""
	}
	id, _ := sess.Values[idKey].(string)
	return id
}

// Load implements Store.
func (r *RedisStore) Load(c echo.Context) (*domain.Session, error) {
	id := r.currentID(c)
	if id == "" {
		return nil, nil
	}
	val, err := r.client.Get(c.Request().Context(), r.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis get: %w", err)
	}

	var out domain.Session
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	return &out, nil
}

// Save implements Store. The id is kept across refreshes.
func (r *RedisStore) Save(c echo.Context, in *domain.Session) error {
	if in == nil || in.AccessToken == "" {
		return errors.New("session: refusing to save an empty session")
	}
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	id := r.currentID(c)
	if id == "" {
		id = uuid.NewString()
	}
	if err := r.client.Set(c.Request().Context(), r.key(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}

	sess, _ := session.Get(CookieName, c)
	sess.Values[idKey] = id
	return sess.Save(c.Request(), c.Response())
}

// Clear implements Store.
func (r *RedisStore) Clear(c echo.Context) error {
	if id := r.currentID(c); id != "" {
		if err := r.client.Del(c.Request().Context(), r.key(id)).Err(); err != nil {
			return fmt.Errorf("session: redis del: %w", err)
		}
	}
	sess, _ := session.Get(CookieName, c)
	delete(sess.Values, idKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
