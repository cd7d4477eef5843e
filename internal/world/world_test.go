package world

import (
	"testing"

	"github.com/rotisserie/eris"

	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/transport/transporttest"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.AreaCount = 0
	cfg.TotalRocks = 0
	cfg.GoldOres = 0
	cfg.Animals = false
	return cfg
}

func newTestWorld(t *testing.T, cfg Config) *World {
	t.Helper()
	w, err := New(cfg, Deps{})
	if err != nil {
		t.Fatalf("expected world to construct, got %v", err)
	}
	return w
}

func addTestPlayer(t *testing.T, w *World) (*Player, *transporttest.Socket) {
	t.Helper()
	socket := transporttest.NewSocket()
	player, err := w.AddPlayer(socket)
	if err != nil {
		t.Fatalf("expected player to join, got %v", err)
	}
	return player, socket
}

func TestAddPlayerSendsInitAndReusesSIDs(t *testing.T) {
	w := newTestWorld(t, testConfig())
	first, socket := addTestPlayer(t, w)
	second, _ := addTestPlayer(t, w)
	third, _ := addTestPlayer(t, w)

	if first.SID != 0 || second.SID != 1 || third.SID != 2 {
		t.Fatalf("expected sids 0,1,2, got %d,%d,%d", first.SID, second.SID, third.SID)
	}
	init, ok := socket.Find(proto.ServerInit)
	if !ok {
		t.Fatalf("expected io-init frame, got %v", socket.Types())
	}
	if id, _ := init.Text(0); id != first.ID {
		t.Fatalf("expected io-init to carry %q, got %q", first.ID, id)
	}
	if _, ok := socket.Find(proto.ServerSetup); !ok {
		t.Fatalf("expected setup frame, got %v", socket.Types())
	}

	if !w.RemovePlayer(second.ID) {
		t.Fatalf("expected removal to succeed")
	}
	replacement, _ := addTestPlayer(t, w)
	if replacement.SID != 1 {
		t.Fatalf("expected freed sid 1 to be reused, got %d", replacement.SID)
	}
	if w.PlayerCount() != 3 {
		t.Fatalf("expected 3 players, got %d", w.PlayerCount())
	}
}

func TestAddPlayerRejectsWhenFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 1
	cfg.MaxPlayersHard = 1
	w := newTestWorld(t, cfg)
	addTestPlayer(t, w)

	if _, err := w.AddPlayer(transporttest.NewSocket()); !eris.Is(err, ErrNoFreeSlot) {
		t.Fatalf("expected ErrNoFreeSlot, got %v", err)
	}
}

func TestRemovePlayerBroadcastsAndDropsStructures(t *testing.T) {
	w := newTestWorld(t, testConfig())
	builder, _ := addTestPlayer(t, w)
	_, observer := addTestPlayer(t, w)

	builder.Spawn(false)
	builder.X, builder.Y, builder.Dir = 3000, 3000, 0
	wall, _ := w.catalog.Item(3)
	if !builder.BuildItem(wall) {
		t.Fatalf("expected wall placement to succeed")
	}
	if got := len(w.Structures()); got != 1 {
		t.Fatalf("expected one structure, got %d", got)
	}

	if !w.RemovePlayer(builder.ID) {
		t.Fatalf("expected removal to succeed")
	}
	if w.RemovePlayer(builder.ID) {
		t.Fatalf("expected second removal to report false")
	}
	removed, ok := observer.Find(proto.ServerRemovePlayer)
	if !ok {
		t.Fatalf("expected remove frame, got %v", observer.Types())
	}
	if id, _ := removed.Text(0); id != builder.ID {
		t.Fatalf("expected removal of %q, got %q", builder.ID, id)
	}
	owned, ok := observer.Find(proto.ServerRemoveOwned)
	if !ok {
		t.Fatalf("expected owned structure removal frame, got %v", observer.Types())
	}
	if sid, _ := owned.Number(0); int(sid) != builder.SID {
		t.Fatalf("expected owned removal for sid %d, got %v", builder.SID, sid)
	}
	if got := len(w.Structures()); got != 0 {
		t.Fatalf("expected structures to be pruned, got %d", got)
	}
}

func TestCheckItemLocation(t *testing.T) {
	w := newTestWorld(t, testConfig())
	mid := w.config.MapScale / 2

	if w.CheckItemLocation(3000, mid, 50, 0.6, 3, false) {
		t.Fatalf("expected river placement to be rejected")
	}
	if !w.CheckItemLocation(3000, mid, 43, 0.6, platformItemID, false) {
		t.Fatalf("expected platform to be allowed in the river")
	}
	if !w.CheckItemLocation(3000, 3000, 50, 0.6, 3, false) {
		t.Fatalf("expected open ground to be allowed")
	}
	if w.CheckItemLocation(10, 3000, 50, 0.6, 3, false) {
		t.Fatalf("expected out-of-bounds placement to be rejected")
	}

	w.addStructure(TypeBuilt, 3, 3000, 3000, 0, 50, 380, false, nil)
	if w.CheckItemLocation(3020, 3000, 50, 0.6, 3, false) {
		t.Fatalf("expected overlap to be rejected")
	}
}

func TestEnsureAnimalsFillsSpawnPlan(t *testing.T) {
	cfg := testConfig()
	cfg.Animals = true
	w := newTestWorld(t, cfg)

	want := 0
	for _, plan := range w.spawnPlan {
		want += plan.desired
	}
	if got := len(w.Animals()); got != want {
		t.Fatalf("expected %d animals, got %d", want, got)
	}
	if spawned := w.EnsureAnimals(); spawned != 0 {
		t.Fatalf("expected full population to spawn nothing, got %d", spawned)
	}

	victim := w.Animals()[0]
	victim.Active = false
	if removed := w.PruneAnimals(); removed != 1 {
		t.Fatalf("expected one pruned animal, got %d", removed)
	}
	if spawned := w.EnsureAnimals(); spawned != 1 {
		t.Fatalf("expected one replacement animal, got %d", spawned)
	}
}

func TestMeleeSwingGathersResources(t *testing.T) {
	w := newTestWorld(t, testConfig())
	player, socket := addTestPlayer(t, w)
	player.Spawn(false)
	player.X, player.Y, player.Dir = 3000, 3000, 0
	w.addStructure(TypeTree, -1, 3200, 3000, 0, 150, 0, false, nil)

	weapon, _ := w.catalog.Weapon(0)
	w.meleeSwing(player, weapon)

	if player.Wood != 1 {
		t.Fatalf("expected 1 wood, got %d", player.Wood)
	}
	if player.XP != gatherXPFactor {
		t.Fatalf("expected %d xp, got %v", gatherXPFactor, player.XP)
	}
	if socket.Count(proto.ServerResource) == 0 {
		t.Fatalf("expected resource update, got %v", socket.Types())
	}

	player.Dir = 3.14
	w.meleeSwing(player, weapon)
	if player.Wood != 1 {
		t.Fatalf("expected swing facing away to gather nothing, got %d", player.Wood)
	}
}

func TestKillCreditsAttacker(t *testing.T) {
	w := newTestWorld(t, testConfig())
	attacker, _ := addTestPlayer(t, w)
	victim, victimSocket := addTestPlayer(t, w)
	attacker.Spawn(false)
	victim.Spawn(false)
	start := attacker.Points

	if !victim.ChangeHealth(-victim.MaxHealth, attacker) {
		t.Fatalf("expected lethal damage to kill")
	}
	if victim.Alive {
		t.Fatalf("expected victim to be dead")
	}
	if attacker.Kills != 1 {
		t.Fatalf("expected 1 kill, got %d", attacker.Kills)
	}
	if want := start + victim.Age*killScorePerAge; attacker.Points != want {
		t.Fatalf("expected %d points, got %d", want, attacker.Points)
	}
	if _, ok := victimSocket.Find(proto.ServerDeath); !ok {
		t.Fatalf("expected death frame, got %v", victimSocket.Types())
	}
	if victim.ChangeHealth(-10, attacker) {
		t.Fatalf("expected dead player to ignore damage")
	}
}

func TestClanLifecycle(t *testing.T) {
	w := newTestWorld(t, testConfig())
	owner, _ := addTestPlayer(t, w)
	member, memberSocket := addTestPlayer(t, w)
	clans := w.Clans()

	if !clans.Create("wolves", owner) {
		t.Fatalf("expected clan creation to succeed")
	}
	if clans.Create("wolves", member) {
		t.Fatalf("expected duplicate clan name to be rejected")
	}
	if owner.Team != "wolves" || !owner.IsOwner {
		t.Fatalf("expected owner to lead wolves, got team=%q owner=%v", owner.Team, owner.IsOwner)
	}
	if clans.ConfirmJoin("wolves", member.SID, true) {
		t.Fatalf("expected confirm without a request to be rejected")
	}
	if member.Team != "" {
		t.Fatalf("expected member to stay clanless, got %q", member.Team)
	}
	if !clans.AddNotify("wolves", member.SID) {
		t.Fatalf("expected join request to be recorded")
	}
	if _, pending := owner.Notify[member.SID]; !pending {
		t.Fatalf("expected pending request for sid %d", member.SID)
	}
	if !clans.ConfirmJoin("wolves", member.SID, true) {
		t.Fatalf("expected join to be confirmed")
	}
	if _, pending := owner.Notify[member.SID]; pending {
		t.Fatalf("expected the request to be cleared on confirm")
	}
	if member.Team != "wolves" || member.IsOwner {
		t.Fatalf("expected member to join as non-owner, got team=%q owner=%v", member.Team, member.IsOwner)
	}
	if _, ok := memberSocket.Find(proto.ServerClanMembers); !ok {
		t.Fatalf("expected roster frame, got %v", memberSocket.Types())
	}

	if !clans.Kick("wolves", member.SID) {
		t.Fatalf("expected kick to succeed")
	}
	if member.Team != "" {
		t.Fatalf("expected kicked member to have no team, got %q", member.Team)
	}
	if !clans.Kick("wolves", owner.SID) {
		t.Fatalf("expected kicking the owner to disband the clan")
	}
	if clans.Get("wolves") != nil || owner.Team != "" {
		t.Fatalf("expected clan to be removed")
	}
	if got := len(clans.Ext()); got != 0 {
		t.Fatalf("expected no clans, got %d", got)
	}
}

func TestMapCellsTerrain(t *testing.T) {
	w := newTestWorld(t, DefaultConfig())
	cells := w.MapCells()
	if len(cells) != 100 {
		t.Fatalf("expected 100 cells, got %d", len(cells))
	}
	if cells[0].Terrain != TerrainSnow {
		t.Fatalf("expected top row to be snow, got %q", cells[0].Terrain)
	}
	if cells[50].Terrain != TerrainRiver {
		t.Fatalf("expected middle row to be river, got %q", cells[50].Terrain)
	}
	if cells[99].Terrain != TerrainDesert {
		t.Fatalf("expected bottom row to be desert, got %q", cells[99].Terrain)
	}
}

func TestWordFilterMasksWords(t *testing.T) {
	filter := WordFilter{Words: []string{"darn"}}
	if got := filter.Filter("  well DARN it  "); got != "well **** it" {
		t.Fatalf("expected masked message, got %q", got)
	}
	if got := filter.Filter("   "); got != "" {
		t.Fatalf("expected blank message to filter to empty, got %q", got)
	}
}
