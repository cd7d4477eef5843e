package systems

import (
	"time"

	"github.com/al007ex/moomoo-clone/internal/entity"
	"github.com/al007ex/moomoo-clone/internal/state"
)

// ProjectileSystem advances projectiles. Inactive ones are reported once with
// active false and then pruned.
type ProjectileSystem struct {
	projectiles *entity.ProjectileRepository
	prune       func() int
}

func NewProjectileSystem(projectiles *entity.ProjectileRepository, prune func() int) *ProjectileSystem {
	return &ProjectileSystem{projectiles: projectiles, prune: prune}
}

func (s *ProjectileSystem) Name() string { return "projectile" }

func (s *ProjectileSystem) Update(current state.GameState, dt time.Duration) (state.GameState, error) {
	all := s.projectiles.All()
	snapshots := make([]state.EntityState, 0, len(all))
	for _, projectile := range all {
		projectile.Tick(dt)
		snapshots = append(snapshots, projectile.ToState())
	}
	if s.prune != nil {
		s.prune()
	}
	return current.WithEntities(state.KindProjectiles, snapshots), nil
}
