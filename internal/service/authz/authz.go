package authz

import (
	"context"

	"github.com/spark-dating/spark-core/internal/domain"
	"github.com/spark-dating/spark-core/internal/repository"
)

// RequireActor checks that an actor id is present.
func RequireActor(actorID string) error {
	if actorID == "" {
		return domain.ErrNotAuthenticated
	}
	return nil
}

// RequireAdmin fails fast unless the actor exists and carries the admin
// flag. Every admin-only operation calls this before touching anything.
func RequireAdmin(ctx context.Context, profiles *repository.ProfileRepository, actorID string) error {
	if err := RequireActor(actorID); err != nil {
		return err
	}
	actor, err := profiles.Get(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin {
		return domain.ErrAdminRequired
	}
	return nil
}
