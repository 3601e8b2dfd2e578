package match

import (
	"context"
	"fmt"
	"time"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/db"
	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
	"github.com/spark-dating/spark-core/internal/service/authz"
	"github.com/spark-dating/spark-core/internal/service/ledger"
)

// SuperLikeStarCost is charged per super like on top of the free like.
const SuperLikeStarCost = 1

// Service records like decisions and derives matches from mutual likes.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	likes    *repository.LikeRepository
	matches  *repository.MatchRepository
	ledger   *ledger.Service
}

// NewService creates a match service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		likes:    repository.NewLikeRepository(appCtx.DB),
		matches:  repository.NewMatchRepository(appCtx.DB),
		ledger:   ledger.NewService(appCtx),
	}
}

// LikeResult reports one like decision.
type LikeResult struct {
	IsNew   bool
	Matched bool
	MatchID string
	Reason  string
}

// Like records actor liking target, charging a star when super.
//
// A repeat like is reported with IsNew = false and is otherwise a no-op.
// Super likes check for an existing edge before charging so a repeat never
// costs a second star, and deduct before inserting so an insufficient
// balance never leaves an edge behind. Mutual detection runs on every new
// like; both sides racing each other converge on a single match row.
func (s *Service) Like(ctx context.Context, actorID, targetID string, super bool) (LikeResult, error) {
	if err := authz.RequireActor(actorID); err != nil {
		return LikeResult{}, err
	}
	if actorID == targetID {
		return LikeResult{}, domain.ErrSelfLike
	}
	if _, err := s.profiles.Get(ctx, targetID); err != nil {
		return LikeResult{}, err
	}

	if super {
		already, err := s.likes.Exists(ctx, actorID, targetID)
		if err != nil {
			return LikeResult{}, err
		}
		if already {
			s.appCtx.Metrics.LikesTotal.WithLabelValues("duplicate").Inc()
			return LikeResult{IsNew: false}, nil
		}
		deduct, err := s.ledger.Deduct(ctx, actorID, ledger.KindStars, SuperLikeStarCost)
		if err != nil {
			return LikeResult{}, err
		}
		if !deduct.Success {
			return LikeResult{Reason: deduct.Reason}, nil
		}
	}

	isNew, err := s.likes.Create(ctx, actorID, targetID, super)
	if err != nil {
		return LikeResult{}, err
	}
	if !isNew {
		s.appCtx.Metrics.LikesTotal.WithLabelValues("duplicate").Inc()
		return LikeResult{IsNew: false}, nil
	}
	s.appCtx.Metrics.LikesTotal.WithLabelValues("new").Inc()

	// Counter is a cache; a Redis failure never fails the like.
	if err := s.appCtx.RedisCache.IncrLikeCount(ctx, targetID); err != nil {
		s.appCtx.Logger.Warn("like counter incr failed", "user", targetID, "error", err)
	}

	result := LikeResult{IsNew: true}
	m, err := s.CheckMutualMatch(ctx, actorID, targetID)
	if err != nil {
		return LikeResult{}, fmt.Errorf("checking mutual match: %w", err)
	}
	if m != nil {
		result.Matched = true
		result.MatchID = m.ID
	}
	return result, nil
}

// CheckMutualMatch looks for the reverse edge and lazily creates the match
// row when both directions exist. Returns nil when the pair is not (yet)
// mutual.
func (s *Service) CheckMutualMatch(ctx context.Context, a, b string) (*db.Match, error) {
	reverse, err := s.likes.Exists(ctx, b, a)
	if err != nil {
		return nil, err
	}
	if !reverse {
		return nil, nil
	}

	existing, err := s.matches.GetByPair(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	m, err := s.matches.Create(ctx, a, b)
	if err != nil {
		return nil, err
	}
	s.appCtx.Metrics.MatchesCreated.Inc()
	s.appCtx.Logger.Info("match created", "match", m.ID, "lo", m.UserLoID, "hi", m.UserHiID)
	return m, nil
}

// Admirer is one entry in the "who liked me" list.
type Admirer struct {
	Profile *db.Profile
	Super   bool
	LikedAt time.Time
}

// Admirers returns the profiles that liked the user, newest first.
func (s *Service) Admirers(ctx context.Context, userID string) ([]Admirer, error) {
	if err := authz.RequireActor(userID); err != nil {
		return nil, err
	}
	likes, err := s.likes.ListAdmirers(ctx, userID)
	if err != nil {
		return nil, err
	}

	admirers := make([]Admirer, 0, len(likes))
	for _, like := range likes {
		p, err := s.profiles.Get(ctx, like.LikerID)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		admirers = append(admirers, Admirer{Profile: p, Super: like.Super, LikedAt: like.CreatedAt})
	}
	return admirers, nil
}

// LikeCount returns how many profiles liked the user, served from the Redis
// counter when warm and recomputed from the database on a miss.
func (s *Service) LikeCount(ctx context.Context, userID string) (int64, error) {
	count, hit, err := s.appCtx.RedisCache.GetLikeCount(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Warn("like counter read failed", "user", userID, "error", err)
	} else if hit {
		return count, nil
	}

	count, err = s.likes.CountAdmirers(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.appCtx.RedisCache.SetLikeCount(ctx, userID, count); err != nil {
		s.appCtx.Logger.Warn("like counter backfill failed", "user", userID, "error", err)
	}
	return count, nil
}

// Matches returns every match the user is part of, most recently active
// first.
func (s *Service) Matches(ctx context.Context, userID string) ([]db.Match, error) {
	if err := authz.RequireActor(userID); err != nil {
		return nil, err
	}
	return s.matches.ListForUser(ctx, userID)
}
