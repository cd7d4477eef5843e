package entity

import (
	"reflect"
	"testing"

	"github.com/al007ex/moomoo-clone/internal/transport/transporttest"
	"github.com/al007ex/moomoo-clone/internal/world"
)

func newTestWorld(t *testing.T) *world.World {
	t.Helper()
	cfg := world.DefaultConfig()
	cfg.AreaCount = 0
	cfg.TotalRocks = 0
	cfg.GoldOres = 0
	cfg.Animals = false
	w, err := world.New(cfg, world.Deps{})
	if err != nil {
		t.Fatalf("expected world to construct, got %v", err)
	}
	return w
}

func addPlayer(t *testing.T, w *world.World) *world.Player {
	t.Helper()
	player, err := w.AddPlayer(transporttest.NewSocket())
	if err != nil {
		t.Fatalf("expected player to join, got %v", err)
	}
	return player
}

func TestPlayerFactoryNormalizesRaw(t *testing.T) {
	w := newTestWorld(t)
	raw := addPlayer(t, w)
	raw.X, raw.Y = -50, 20000
	raw.Kills = -3
	raw.Points = -10
	raw.IconIndex = 999

	factory := NewPlayerFactory(MapBounds(w.Config().MapScale))
	props := factory.Props(raw)
	if props.Position != (Position{X: 0, Y: w.Config().MapScale}) {
		t.Fatalf("expected clamped position, got %+v", props.Position)
	}
	if props.Kills != 0 || props.Points != 0 {
		t.Fatalf("expected counters floored at zero, got kills=%d points=%d", props.Kills, props.Points)
	}
	if props.IconIndex != DefaultMaxIcon {
		t.Fatalf("expected icon clamped to %d, got %d", DefaultMaxIcon, props.IconIndex)
	}
	if factory.Props(nil).SID != -1 {
		t.Fatalf("expected missing record to report sid -1")
	}
}

func TestPlayerMutatorsSyncToRaw(t *testing.T) {
	w := newTestWorld(t)
	raw := addPlayer(t, w)
	player := NewPlayerFactory(MapBounds(w.Config().MapScale)).FromRaw(raw)

	player.MoveTo(-10, 500)
	player.AwardPoints(25)
	player.AwardPoints(-100)
	player.RegisterKill()
	player.SetIcon(world.LeaderIcon)
	player.SetAlive(true)

	if raw.X != 0 || raw.Y != 500 {
		t.Fatalf("expected raw position (0,500), got (%v,%v)", raw.X, raw.Y)
	}
	if raw.Points != 0 {
		t.Fatalf("expected points floored at zero, got %d", raw.Points)
	}
	if raw.Kills != 1 || raw.IconIndex != world.LeaderIcon || !raw.Alive {
		t.Fatalf("expected kills=1 icon=1 alive, got kills=%d icon=%d alive=%v", raw.Kills, raw.IconIndex, raw.Alive)
	}

	raw.Points = 40
	player.RefreshFromRaw()
	if got := player.ToState().Points; got != 40 {
		t.Fatalf("expected refreshed points 40, got %d", got)
	}
}

func TestPlayerSentToLatch(t *testing.T) {
	w := newTestWorld(t)
	player := NewPlayerFactory(MapBounds(w.Config().MapScale)).FromRaw(addPlayer(t, w))

	if !player.MarkSentTo("observer") {
		t.Fatalf("expected first mark to report true")
	}
	if player.MarkSentTo("observer") {
		t.Fatalf("expected second mark to report false")
	}
	player.ResetSentTo()
	if !player.MarkSentTo("observer") {
		t.Fatalf("expected mark after reset to report true")
	}
}

func TestRepositoryPreservesIdentityAndEvicts(t *testing.T) {
	w := newTestWorld(t)
	first := addPlayer(t, w)
	second := addPlayer(t, w)
	repo := NewPlayerRepository(w.Players, NewPlayerFactory(MapBounds(w.Config().MapScale)))

	initial := repo.All()
	if len(initial) != 2 {
		t.Fatalf("expected 2 wrappers, got %d", len(initial))
	}
	first.Points = 77
	again := repo.All()
	if again[0] != initial[0] || again[1] != initial[1] {
		t.Fatalf("expected wrappers to be reused across calls")
	}
	if again[0].Props().Points != 77 {
		t.Fatalf("expected wrapper to be refreshed in place, got %d", again[0].Props().Points)
	}

	w.RemovePlayer(first.ID)
	remaining := repo.All()
	if len(remaining) != 1 || remaining[0].Raw() != second {
		t.Fatalf("expected only the second player to remain, got %d", len(remaining))
	}
	if repo.Cached() != 1 {
		t.Fatalf("expected evicted wrapper to leave the cache, got %d", repo.Cached())
	}
	if _, ok := repo.FindByID(first.ID); ok {
		t.Fatalf("expected removed player to be unknown")
	}
	if found, ok := repo.FindByID(second.ID); !ok || found != remaining[0] {
		t.Fatalf("expected lookup to return the cached wrapper")
	}
}

func TestStructureNetworkPayload(t *testing.T) {
	factory := NewStructureFactory()
	tree := factory.FromRaw(&world.Structure{SID: 4, Type: world.TypeTree, ItemID: -1, X: 10.04, Y: 20.06, Dir: 0.12345, Scale: 150, Active: true})

	want := []any{4, 10.0, 20.1, 0.123, 150.0, world.TypeTree, nil, -1}
	if got := tree.NetworkPayload(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected payload %v, got %v", want, got)
	}
	if tree.ToState().Type != "tree" || tree.ToState().Payload["ownerSid"] != nil {
		t.Fatalf("expected unowned tree state, got %+v", tree.ToState())
	}

	huge := factory.FromRaw(&world.Structure{SID: 1, Type: world.TypeRock, Scale: 9000, Dir: 0})
	if huge.Props().Scale != factory.MaxScale {
		t.Fatalf("expected scale clamped to %v, got %v", factory.MaxScale, huge.Props().Scale)
	}
}

func TestBuiltStructureVisibility(t *testing.T) {
	w := newTestWorld(t)
	builderRaw := addPlayer(t, w)
	builderRaw.Spawn(false)
	builderRaw.X, builderRaw.Y, builderRaw.Dir = 3000, 3000, 0
	wall, _ := w.Catalog().Item(3)
	if !builderRaw.BuildItem(wall) {
		t.Fatalf("expected wall to be placed")
	}

	players := NewPlayerFactory(MapBounds(w.Config().MapScale))
	builder := players.FromRaw(builderRaw)
	farRaw := addPlayer(t, w)
	farRaw.X, farRaw.Y = 10000, 10000
	far := players.FromRaw(farRaw)

	repo := NewStructureRepository(w.Structures, NewStructureFactory())
	visible := repo.VisibleTo(builder)
	if len(visible) != 1 {
		t.Fatalf("expected builder to see their wall, got %d", len(visible))
	}
	payload := visible[0].NetworkPayload()
	if payload[5] != nil || payload[6] != 3 || payload[7] != builderRaw.SID {
		t.Fatalf("expected built payload with item 3 and owner %d, got %v", builderRaw.SID, payload)
	}
	if got := repo.VisibleTo(far); len(got) != 0 {
		t.Fatalf("expected distant player to see nothing, got %d", len(got))
	}
}

func TestNpcPayloadAndVisibility(t *testing.T) {
	w := newTestWorld(t)
	observer := NewPlayerFactory(MapBounds(w.Config().MapScale)).FromRaw(addPlayer(t, w))
	observer.Raw().X, observer.Raw().Y = 1000, 1000

	npc := NewNpc(&world.Animal{SID: 2, Index: 5, X: 1100.26, Y: 999.94, Dir: 1.23456, Health: 799.6, NameIndex: 3, Alive: true, Active: true, Scale: 84})
	want := []any{2, 5, 1100.3, 999.9, 1.235, 800.0, 3}
	if got := npc.NetworkPayload(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected payload %v, got %v", want, got)
	}
	if !npc.VisibleTo(observer) {
		t.Fatalf("expected nearby living npc to be visible")
	}
	npc.Raw().Alive = false
	npc.RefreshFromRaw()
	if npc.VisibleTo(observer) {
		t.Fatalf("expected dead npc to be hidden")
	}
}

func TestProjectileToState(t *testing.T) {
	raw := &world.Projectile{SID: 7, Index: 0, X: 5, Y: 6, Active: false}
	projectile := NewProjectile(raw)
	projectile.Tick(0)

	got := projectile.ToState()
	if got.ID != "projectile-7" || got.Type != "projectile" {
		t.Fatalf("expected projectile-7 state, got %+v", got)
	}
	if got.Payload["active"] != false || got.Payload["owner"] != nil {
		t.Fatalf("expected inactive unowned payload, got %+v", got.Payload)
	}
}
