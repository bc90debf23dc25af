package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/grading-workflow-service/internal/cache"
	"github.com/SAP-F-2025/grading-workflow-service/internal/models"
)

// RosterProvider loads the ordered roster of a section
type RosterProvider interface {
	GetStudentsBySection(ctx context.Context, sectionID string) ([]models.RosterEntry, error)
}

// RosterInvalidator is implemented by providers that keep rosters between loads
type RosterInvalidator interface {
	Invalidate(ctx context.Context, sectionID string) error
}

const rosterKeyPrefix = "roster:"

// CachedRosterProvider serves rosters from the cache and falls back to the
// upstream provider on a miss. Cache failures are logged and never fail a load.
type CachedRosterProvider struct {
	upstream RosterProvider
	cache    cache.CacheService
	ttl      time.Duration
	logger   *slog.Logger
}

func NewCachedRosterProvider(upstream RosterProvider, c cache.CacheService, ttl time.Duration, logger *slog.Logger) *CachedRosterProvider {
	return &CachedRosterProvider{
		upstream: upstream,
		cache:    c,
		ttl:      ttl,
		logger:   logger,
	}
}

func RosterKey(sectionID string) string {
	return rosterKeyPrefix + sectionID
}

func (p *CachedRosterProvider) GetStudentsBySection(ctx context.Context, sectionID string) ([]models.RosterEntry, error) {
	var roster []models.RosterEntry
	err := p.cache.Get(ctx, RosterKey(sectionID), &roster)
	switch {
	case err == nil:
		p.logger.Debug("Roster served from cache", "section_id", sectionID, "students", len(roster))
		return roster, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		p.logger.Warn("Roster cache read failed", "section_id", sectionID, "error", err)
	}

	roster, err = p.upstream.GetStudentsBySection(ctx, sectionID)
	if err != nil {
		return nil, &DataLoadError{SectionID: sectionID, Err: err}
	}

	if p.ttl > 0 {
		if err := p.cache.Set(ctx, RosterKey(sectionID), roster, p.ttl); err != nil {
			p.logger.Warn("Roster cache write failed", "section_id", sectionID, "error", err)
		}
	}
	return roster, nil
}

// Invalidate drops the cached roster of one section
func (p *CachedRosterProvider) Invalidate(ctx context.Context, sectionID string) error {
	return p.cache.Delete(ctx, RosterKey(sectionID))
}
