package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"radar/internal/domain"
	"radar/internal/metrics"
	"radar/internal/models"
	"radar/internal/repository"
	"radar/pkg/location"
	"radar/pkg/proximity"
)

// NearbyService answers "who is around me" queries.
// The store narrows candidates with a bounding box and the static visibility predicates;
// exact distance, policy, ordering and truncation are all done here.
type NearbyService struct {
	candidates   CandidateStore
	privacy      *PrivacyService
	policy       Policy
	candidateCap int
	now          func() time.Time
}

func NewNearbyService(candidates CandidateStore, privacy *PrivacyService, candidateCap int) *NearbyService {
	if candidateCap <= 0 {
		candidateCap = domain.DefaultCandidateCap
	}
	return &NearbyService{
		candidates:   candidates,
		privacy:      privacy,
		policy:       NewPolicy(),
		candidateCap: candidateCap,
		now:          utcNow,
	}
}

type hit struct {
	user   *models.User
	meters float64
}

// FindNearby returns visible users within q.RadiusMeters of the query point, closest
// first (ties by id), at most q.Limit of them. It either returns the full list or fails.
func (s *NearbyService) FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.NearbyUser, error) {
	start := time.Now()
	q, err := normalizeQuery(q)
	if err != nil {
		return nil, err
	}
	now := s.now()
	users, err := s.candidates.Candidates(ctx, repository.CandidateFilter{
		ExcludeUserID: q.ViewerID,
		SeenAfter:     now.Add(-s.policy.Freshness),
		Box:           location.BoundingBox(q.Latitude, q.Longitude, q.RadiusMeters),
		Limit:         s.candidateCap,
	})
	if err != nil {
		return nil, storage(err)
	}

	hits := make([]hit, 0, len(users))
	for i := range users {
		u := &users[i]
		if u.Privacy == nil {
			p, _, err := s.privacy.GetOrCreateDefaults(ctx, u.ID)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			u.Privacy = p
		}
		if !s.policy.IsVisible(q.ViewerID, u, now) {
			continue
		}
		meters := location.DistanceMeters(q.Latitude, q.Longitude, u.Location.Latitude, u.Location.Longitude)
		if meters > q.RadiusMeters {
			continue
		}
		hits = append(hits, hit{user: u, meters: meters})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].meters != hits[j].meters {
			return hits[i].meters < hits[j].meters
		}
		return hits[i].user.ID < hits[j].user.ID
	})
	if len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	out := make([]domain.NearbyUser, len(hits))
	for i, h := range hits {
		out[i] = s.project(h, q.RadiusMeters)
	}
	metrics.NearbyDuration.Observe(time.Since(start).Seconds())
	metrics.NearbyResults.Observe(float64(len(out)))
	return out, nil
}

func (s *NearbyService) project(h hit, radius float64) domain.NearbyUser {
	u, loc := h.user, h.user.Location
	r := domain.NearbyUser{
		ID:     u.ID,
		Name:   u.Name,
		Avatar: u.Avatar,
		Location: domain.Fix{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Accuracy:  loc.Accuracy,
		},
		IsOnline: loc.IsActive,
		Privacy:  u.Privacy.Flags(),
	}
	show := s.policy.Project(u.Privacy)
	if show.Distance {
		m := int(math.Round(h.meters))
		r.Distance = &m
		r.ProximityLabel = proximity.LabelFor(h.meters, radius)
	}
	if show.LastSeen {
		t := loc.LastSeen
		r.LastSeen = &t
		r.Location.Timestamp = t
	}
	return r
}

func normalizeQuery(q domain.NearbyQuery) (domain.NearbyQuery, error) {
	if !location.ValidCoordinate(q.Latitude, q.Longitude) {
		return q, domain.InvalidArgument("latitude and longitude must be finite coordinates in range")
	}
	switch {
	case math.IsNaN(q.RadiusMeters) || math.IsInf(q.RadiusMeters, 0) || q.RadiusMeters < 0:
		return q, domain.InvalidArgument("radius must be a positive number of meters")
	case q.RadiusMeters == 0:
		q.RadiusMeters = domain.DefaultRadiusMeters
	}
	switch {
	case q.Limit <= 0:
		q.Limit = domain.DefaultNearbyLimit
	case q.Limit > domain.MaxNearbyLimit:
		q.Limit = domain.MaxNearbyLimit
	}
	return q, nil
}
