package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carelane/clinic-scheduling/internal/domain/entities"
	"github.com/carelane/clinic-scheduling/internal/domain/providers"
)

// CachedProvider wraps a DirectoryProvider with a read-through cache.
// Directory data is read-mostly; a short TTL keeps fee changes from going
// stale for long.
type CachedProvider struct {
	inner providers.DirectoryProvider
	cache providers.CacheProvider
	ttl   time.Duration
}

// NewCachedProvider creates a caching decorator around a directory provider
func NewCachedProvider(inner providers.DirectoryProvider, cache providers.CacheProvider, ttl time.Duration) providers.DirectoryProvider {
	return &CachedProvider{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func doctorCacheKey(id string) string {
	return fmt.Sprintf("directory:doctor:%s", id)
}

func specialtyDoctorsCacheKey(specialtyID string) string {
	return fmt.Sprintf("directory:specialty:%s:doctors", specialtyID)
}

func roomCacheKey(id string) string {
	return fmt.Sprintf("directory:room:%s", id)
}

func specialtyCacheKey(id string) string {
	return fmt.Sprintf("directory:specialty:%s", id)
}

// GetDoctor resolves a doctor, serving repeated lookups from cache
func (p *CachedProvider) GetDoctor(ctx context.Context, id string) (*entities.Doctor, error) {
	key := doctorCacheKey(id)
	if cached, err := p.cache.Get(ctx, key); err == nil {
		var doctor entities.Doctor
		if err := json.Unmarshal(cached, &doctor); err == nil {
			return &doctor, nil
		}
	}

	doctor, err := p.inner.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, doctor)
	return doctor, nil
}

// ListDoctorsBySpecialty resolves a specialty's doctors, cached as a group
func (p *CachedProvider) ListDoctorsBySpecialty(ctx context.Context, specialtyID string) ([]*entities.Doctor, error) {
	key := specialtyDoctorsCacheKey(specialtyID)
	if cached, err := p.cache.Get(ctx, key); err == nil {
		var doctors []*entities.Doctor
		if err := json.Unmarshal(cached, &doctors); err == nil {
			return doctors, nil
		}
	}

	doctors, err := p.inner.ListDoctorsBySpecialty(ctx, specialtyID)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, doctors)
	return doctors, nil
}

// GetRoom resolves a room with caching
func (p *CachedProvider) GetRoom(ctx context.Context, id string) (*entities.Room, error) {
	key := roomCacheKey(id)
	if cached, err := p.cache.Get(ctx, key); err == nil {
		var room entities.Room
		if err := json.Unmarshal(cached, &room); err == nil {
			return &room, nil
		}
	}

	room, err := p.inner.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, room)
	return room, nil
}

// GetSpecialty resolves a specialty with caching
func (p *CachedProvider) GetSpecialty(ctx context.Context, id string) (*entities.Specialty, error) {
	key := specialtyCacheKey(id)
	if cached, err := p.cache.Get(ctx, key); err == nil {
		var specialty entities.Specialty
		if err := json.Unmarshal(cached, &specialty); err == nil {
			return &specialty, nil
		}
	}

	specialty, err := p.inner.GetSpecialty(ctx, id)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, specialty)
	return specialty, nil
}

func (p *CachedProvider) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache directory entry")
	}
}
