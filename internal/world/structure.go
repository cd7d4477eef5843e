package world

// Natural resource types. Built structures use TypeBuilt.
const (
	TypeTree  = 0
	TypeBush  = 1
	TypeRock  = 2
	TypeGold  = 3
	TypeBuilt = -1
)

// Structure is a static map object: a natural resource or a player-built item.
type Structure struct {
	SID    int
	ItemID int
	Type   int
	X, Y   float64
	Dir    float64
	Scale  float64
	Health float64
	Active bool
	Owner  *Player
	SentTo Latch

	hideFromEnemy bool
}

func (s *Structure) Location() (float64, float64) {
	return s.X, s.Y
}

func (s *Structure) Radius() float64 {
	return s.Scale
}

// OwnerSID reports the sid of the player that built the structure.
func (s *Structure) OwnerSID() (int, bool) {
	if s.Owner == nil {
		return 0, false
	}
	return s.Owner.SID, true
}

// VisibleTo hides concealed items from everyone but the owner and their clan.
func (s *Structure) VisibleTo(p *Player) bool {
	if !s.hideFromEnemy || s.Owner == nil || p == nil {
		return true
	}
	if s.Owner == p {
		return true
	}
	return s.Owner.Team != "" && s.Owner.Team == p.Team
}

// collisionScale is the footprint used by placement checks.
func (s *Structure) collisionScale(scaleMult float64) float64 {
	if s.Type == TypeBuilt || s.Type == TypeRock || s.Type == TypeGold {
		return s.Scale
	}
	if scaleMult <= 0 {
		scaleMult = 1
	}
	return s.Scale * 0.6 * scaleMult
}
