package rdx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"homecook/models"
	"homecook/store"

	"github.com/redis/go-redis/v9"
)

const userTTL = 10 * time.Minute

// UserCache reads users through Redis. Writes go to the backing store and
// evict the cached copy.
type UserCache struct {
	store.Users
	rdx *redis.Client
	ttl time.Duration
}

func NewUserCache(next store.Users, client *redis.Client) *UserCache {
	return &UserCache{Users: next, rdx: client, ttl: userTTL}
}

func userKey(id string) string {
	return fmt.Sprintf("users:%s", id)
}

func (c *UserCache) Get(ctx context.Context, id string) (*models.User, error) {
	raw, err := c.rdx.Get(ctx, userKey(id)).Bytes()
	if err == nil {
		var u models.User
		if jsonErr := json.Unmarshal(raw, &u); jsonErr == nil {
			return &u, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("user cache get %s: %v", id, err)
	}

	u, err := c.Users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.put(ctx, u)
	return u, nil
}

func (c *UserCache) UpdateAddress(ctx context.Context, id string, addr models.Address) error {
	if err := c.Users.UpdateAddress(ctx, id, addr); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

func (c *UserCache) Delete(ctx context.Context, id string) error {
	if err := c.Users.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

func (c *UserCache) evict(ctx context.Context, id string) {
	if err := c.rdx.Del(ctx, userKey(id)).Err(); err != nil {
		log.Printf("user cache evict %s: %v", id, err)
	}
}

// the password hash is not serialized, so cached users cannot log in; the
// login path uses GetByEmail which is never cached.
func (c *UserCache) put(ctx context.Context, u *models.User) {
	data, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := c.rdx.Set(ctx, userKey(u.ID), data, c.ttl).Err(); err != nil {
		log.Printf("user cache set %s: %v", u.ID, err)
	}
}
