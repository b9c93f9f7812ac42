package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	cacheport "github.com/TheTrueVester/leasy-chat/internal/infrastructure/cache/port"
	repository "github.com/TheTrueVester/leasy-chat/internal/repository/port"
)

// CachedUserDirectory decorates a UserDirectory with a read-through identity
// cache. Display identities change rarely; unread markers are never cached.
type CachedUserDirectory struct {
	inner repository.UserDirectory
	cache cacheport.Cache
	ttl   time.Duration
}

func NewCachedUserDirectory(inner repository.UserDirectory, cache cacheport.Cache, ttl time.Duration) *CachedUserDirectory {
	return &CachedUserDirectory{inner: inner, cache: cache, ttl: ttl}
}

var _ repository.UserDirectory = (*CachedUserDirectory)(nil)

func identityKey(userID string) string { return "identity:" + userID }

func (d *CachedUserDirectory) ResolveIdentity(ctx context.Context, userID string) (*repository.Identity, error) {
	if raw, err := d.cache.Get(ctx, identityKey(userID)); err == nil {
		var id repository.Identity
		if jsonErr := json.Unmarshal([]byte(raw), &id); jsonErr == nil {
			return &id, nil
		}
	} else if !errors.Is(err, cacheport.ErrMiss) {
		log.Warn().Err(err).Msg("identity cache read failed")
	}

	id, err := d.inner.ResolveIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}

	if raw, jsonErr := json.Marshal(id); jsonErr == nil {
		if err := d.cache.Set(ctx, identityKey(userID), string(raw), d.ttl); err != nil {
			log.Warn().Err(err).Msg("identity cache write failed")
		}
	}
	return id, nil
}

func (d *CachedUserDirectory) AddUnreadMarker(ctx context.Context, recipientID, senderID string) error {
	return d.inner.AddUnreadMarker(ctx, recipientID, senderID)
}

func (d *CachedUserDirectory) RemoveUnreadMarker(ctx context.Context, recipientID, senderID string) error {
	return d.inner.RemoveUnreadMarker(ctx, recipientID, senderID)
}

func (d *CachedUserDirectory) ListUnread(ctx context.Context, userID string) ([]string, error) {
	return d.inner.ListUnread(ctx, userID)
}
