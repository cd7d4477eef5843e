package world

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/transport"
)

const (
	PlayerScale     = 35.0
	BaseHealth      = 100.0
	MaxNameLength   = 15
	DefaultName     = "unknown"
	LeaderIcon      = 1
	ChatCooldownMS  = 300.0
	ClanCooldownMS  = 200.0
	MaxScreenWidth  = 1920.0
	MaxScreenHeight = 1080.0
	SkinColorCount  = 10

	playerSpeed      = 0.0016
	playerDecel      = 0.993
	viewPadding      = 1.3
	gatherAngle      = math.Pi / 2.6
	gatherXPFactor   = 4
	killScorePerAge  = 100
	spawnEdgePadding = 200
)

var weaponVariantXP = []float64{0, 3000, 7000, 12000, 24000}

// Tickable is implemented by every record advanced by the simulation step.
type Tickable interface {
	Update(dt time.Duration)
}

// Visible is implemented by every record a player may observe.
type Visible interface {
	Location() (x, y float64)
	Radius() float64
}

// Player is the mutable simulation record behind one connection.
type Player struct {
	ID        string
	SID       int
	Name      string
	X, Y      float64
	Dir       float64
	MoveDir   *float64
	Scale     float64
	Health    float64
	MaxHealth float64
	SkinColor int
	Kills     int
	Alive     bool
	IconIndex int

	Points int
	Wood   int
	Food   int
	Stone  int

	Socket transport.Socket
	SentTo Latch

	Skins     map[int]bool
	Tails     map[int]bool
	SkinIndex int
	TailIndex int

	Weapons     [2]int
	WeaponXP    [2]float64
	WeaponIndex int
	BuildIndex  int
	Items       []int

	MouseState int
	Hits       int
	PacketSpam int
	AutoGather bool

	Age           int
	XP            float64
	MaxXP         float64
	UpgradePoints int
	UpgrAge       int

	ChatCooldown float64
	ClanCooldown float64
	PingCooldown float64

	Team    string
	IsOwner bool
	Notify  map[int]struct{}

	xVel, yVel float64
	reload     float64
	world      *World
}

func newPlayer(w *World, id string, sid int, socket transport.Socket) *Player {
	return &Player{
		ID:          id,
		SID:         sid,
		Name:        DefaultName,
		Scale:       PlayerScale,
		Health:      BaseHealth,
		MaxHealth:   BaseHealth,
		Socket:      socket,
		Skins:       make(map[int]bool),
		Tails:       make(map[int]bool),
		Weapons:     [2]int{0, -1},
		BuildIndex:  -1,
		Notify:      make(map[int]struct{}),
		world:       w,
		X:           w.config.MapScale / 2,
		Y:           w.config.MapScale / 2,
		Age:         1,
		MaxXP:       w.catalog.InitialXP,
		UpgrAge:     w.catalog.UpgradeAge,
		WeaponIndex: 0,
	}
}

func (p *Player) Location() (float64, float64) {
	return p.X, p.Y
}

func (p *Player) Radius() float64 {
	return p.Scale
}

// CanSee reports whether v lies within the padded viewport around the player.
func (p *Player) CanSee(v Visible) bool {
	if p == nil || v == nil {
		return false
	}
	x, y := v.Location()
	r := v.Radius()
	return math.Abs(x-p.X)-r <= MaxScreenWidth/2*viewPadding &&
		math.Abs(y-p.Y)-r <= MaxScreenHeight/2*viewPadding
}

// SetUserData applies the spawn profile. Names are trimmed, capped and
// defaulted; skin colors are clamped to the palette.
func (p *Player) SetUserData(data proto.UserData) {
	name := DefaultName
	if data.Name != nil {
		trimmed := strings.TrimSpace(*data.Name)
		if utf8.RuneCountInString(trimmed) > MaxNameLength {
			trimmed = string([]rune(trimmed)[:MaxNameLength])
		}
		if trimmed != "" {
			name = trimmed
		}
	}
	p.Name = name
	p.SkinColor = 0
	if data.Skin != nil && Finite(*data.Skin) {
		p.SkinColor = int(Clamp(math.Floor(*data.Skin), 0, SkinColorCount-1))
	}
}

// Spawn resets the record to a fresh life at a random location.
func (p *Player) Spawn(moofoll bool) {
	w := p.world
	catalog := w.catalog
	p.Alive = true
	p.Health = BaseHealth
	p.MaxHealth = BaseHealth
	p.Kills = 0
	p.Points = catalog.StartPoints
	if moofoll {
		p.Points += catalog.MoofollBonus
	}
	p.Wood, p.Food, p.Stone = 0, 0, 0
	p.Items = append([]int(nil), catalog.StartItems...)
	p.Weapons = [2]int{0, -1}
	for _, id := range catalog.StartWeapons {
		if weapon, ok := catalog.Weapon(id); ok {
			p.Weapons[weapon.Type] = weapon.ID
		}
	}
	p.WeaponXP = [2]float64{}
	p.WeaponIndex = p.Weapons[0]
	p.BuildIndex = -1
	p.MouseState = 0
	p.Hits = 0
	p.PacketSpam = 0
	p.AutoGather = false
	p.Age = 1
	p.XP = 0
	p.MaxXP = catalog.InitialXP
	p.UpgradePoints = 0
	p.UpgrAge = catalog.UpgradeAge
	p.MoveDir = nil
	p.xVel, p.yVel = 0, 0
	p.reload = 0
	p.SentTo.Clear()

	margin := p.Scale + spawnEdgePadding
	p.X = randInt(w.rng, margin, w.config.MapScale-margin)
	p.Y = randInt(w.rng, margin, w.config.MapScale-margin)
}

// Update advances cooldowns, movement and attacks by dt.
func (p *Player) Update(dt time.Duration) {
	if p == nil {
		return
	}
	ms := millis(dt)
	p.ChatCooldown = cool(p.ChatCooldown, ms)
	p.ClanCooldown = cool(p.ClanCooldown, ms)
	p.PingCooldown = cool(p.PingCooldown, ms)
	if !p.Alive {
		return
	}
	p.move(ms)
	p.reload = cool(p.reload, ms)
	if p.BuildIndex < 0 && (p.MouseState == 1 || p.AutoGather || p.Hits > 0) && p.reload <= 0 {
		p.Hits = 0
		p.swing()
	}
}

func (p *Player) move(ms float64) {
	if p.MoveDir != nil {
		p.xVel += math.Cos(*p.MoveDir) * playerSpeed * ms
		p.yVel += math.Sin(*p.MoveDir) * playerSpeed * ms
	}
	decel := math.Pow(playerDecel, ms)
	p.xVel *= decel
	p.yVel *= decel
	limit := p.world.config.MapScale
	p.X = Clamp(p.X+p.xVel*ms, p.Scale, limit-p.Scale)
	p.Y = Clamp(p.Y+p.yVel*ms, p.Scale, limit-p.Scale)
}

func (p *Player) swing() {
	weapon, ok := p.world.catalog.Weapon(p.WeaponIndex)
	if !ok {
		return
	}
	p.reload = weapon.Speed
	if weapon.Projectile >= 0 {
		p.world.fireProjectile(p, weapon)
		return
	}
	p.world.meleeSwing(p, weapon)
}

// ResetMoveDir stops any movement intent.
func (p *Player) ResetMoveDir() {
	p.MoveDir = nil
}

// HasItem reports whether id is in the unlocked item list.
func (p *Player) HasItem(id int) bool {
	for _, owned := range p.Items {
		if owned == id {
			return true
		}
	}
	return false
}

// AddItem unlocks an item, replacing any item of the same group.
func (p *Player) AddItem(id int) {
	item, ok := p.world.catalog.Item(id)
	if !ok {
		return
	}
	for i, owned := range p.Items {
		if current, ok := p.world.catalog.Item(owned); ok && current.Group == item.Group {
			p.Items[i] = id
			return
		}
	}
	p.Items = append(p.Items, id)
}

// BuildItem consumes or places item. It reports whether anything happened.
func (p *Player) BuildItem(item Item) bool {
	if !p.Alive || !p.HasItem(item.ID) {
		return false
	}
	if !item.Place {
		if p.Health >= p.MaxHealth {
			return false
		}
		p.ChangeHealth(item.Heal, nil)
		return true
	}
	return p.world.placeStructure(p, item)
}

// ChangeHealth applies delta and kills the player at zero. It reports whether the player died.
func (p *Player) ChangeHealth(delta float64, attacker *Player) bool {
	if !p.Alive || !Finite(delta) {
		return false
	}
	p.Health = Clamp(p.Health+delta, 0, p.MaxHealth)
	if p.Health > 0 {
		return false
	}
	p.Kill(attacker)
	return true
}

// Kill ends the current life and credits the attacker, if any.
func (p *Player) Kill(attacker *Player) {
	if !p.Alive {
		return
	}
	p.Alive = false
	p.MoveDir = nil
	p.MouseState = 0
	p.SentTo.Clear()
	p.Send(proto.ServerDeath)
	if attacker != nil && attacker != p {
		attacker.Kills++
		attacker.AddPoints(p.Age * killScorePerAge)
		attacker.EarnXP(float64(p.Age * killScorePerAge))
	}
}

// AddPoints credits gold and reports it to the client.
func (p *Player) AddPoints(delta int) {
	if delta == 0 {
		return
	}
	p.Points = max(0, p.Points+delta)
	p.Send(proto.ServerResource, "points", p.Points, 1)
}

func (p *Player) addResource(kind int, amount int) {
	switch kind {
	case 0:
		p.Wood += amount
		p.Send(proto.ServerResource, "wood", p.Wood, 1)
	case 1:
		p.Food += amount
		p.Send(proto.ServerResource, "food", p.Food, 1)
	case 2:
		p.Stone += amount
		p.Send(proto.ServerResource, "stone", p.Stone, 1)
	default:
		p.AddPoints(amount)
	}
}

// EarnXP accumulates experience and levels the player up.
func (p *Player) EarnXP(amount float64) {
	if amount <= 0 || !Finite(amount) {
		return
	}
	catalog := p.world.catalog
	p.XP += amount
	leveled := false
	for p.MaxXP > 0 && p.XP >= p.MaxXP && p.Age < catalog.MaxAge {
		p.XP -= p.MaxXP
		p.Age++
		p.MaxXP = math.Ceil(p.MaxXP * catalog.XPMultiplier)
		p.UpgradePoints++
		leveled = true
	}
	if leveled {
		p.Send(proto.ServerUpgrades, p.UpgradePoints, p.UpgrAge)
	}
	p.Send(proto.ServerXP, FixTo(p.XP, 0), FixTo(p.MaxXP, 0), p.Age)
}

func (p *Player) weaponVariant() int {
	var xp float64
	if weapon, ok := p.world.catalog.Weapon(p.WeaponIndex); ok {
		xp = p.WeaponXP[weapon.Type]
	}
	for i := len(weaponVariantXP) - 1; i >= 0; i-- {
		if xp >= weaponVariantXP[i] {
			return i
		}
	}
	return 0
}

// Data is the full identity vector sent once per observer.
func (p *Player) Data() []any {
	return []any{
		p.ID,
		p.SID,
		p.Name,
		FixTo(p.X, 2),
		FixTo(p.Y, 2),
		FixTo(p.Dir, 3),
		p.Health,
		p.MaxHealth,
		p.Scale,
		p.SkinColor,
	}
}

// Info is the lightweight per-tick position and appearance vector.
func (p *Player) Info() []any {
	var team any
	if p.Team != "" {
		team = p.Team
	}
	leader := 0
	if p.IsOwner {
		leader = 1
	}
	return []any{
		p.SID,
		FixTo(p.X, 2),
		FixTo(p.Y, 2),
		FixTo(p.Dir, 3),
		p.BuildIndex,
		p.WeaponIndex,
		p.weaponVariant(),
		team,
		leader,
		p.SkinIndex,
		p.TailIndex,
		p.IconIndex,
		0,
	}
}

// Send writes one envelope to the player's socket if it is still open.
func (p *Player) Send(msgType string, payload ...any) {
	if p == nil || p.Socket == nil || !p.Socket.Open() {
		return
	}
	data, err := proto.Encode(msgType, payload...)
	if err != nil {
		p.world.logf("[world] encode %s for player %s: %v", msgType, p.ID, err)
		return
	}
	if err := p.Socket.Send(data); err != nil {
		p.world.logf("[world] send %s to player %s: %v", msgType, p.ID, err)
	}
}

func millis(dt time.Duration) float64 {
	return float64(dt) / float64(time.Millisecond)
}

func cool(value, ms float64) float64 {
	if value <= 0 {
		return 0
	}
	value -= ms
	if value < 0 {
		return 0
	}
	return value
}
