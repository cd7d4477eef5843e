package systems

import (
	"testing"
	"time"

	"github.com/al007ex/moomoo-clone/internal/entity"
	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/sim"
	"github.com/al007ex/moomoo-clone/internal/state"
	"github.com/al007ex/moomoo-clone/internal/transport/transporttest"
	"github.com/al007ex/moomoo-clone/internal/world"
)

type broadcast struct {
	msgType string
	payload []any
}

type recordingBroadcaster struct {
	sent []broadcast
}

func (b *recordingBroadcaster) Broadcast(msgType string, payload ...any) {
	b.sent = append(b.sent, broadcast{msgType: msgType, payload: payload})
}

type fakeRecipient struct {
	sid  int
	sent []broadcast
}

func (r *fakeRecipient) SID() int { return r.sid }

func (r *fakeRecipient) Send(msgType string, payload ...any) {
	r.sent = append(r.sent, broadcast{msgType: msgType, payload: payload})
}

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

func spawnAt(t *testing.T, w *world.World, x, y float64) (*world.Player, *transporttest.Socket) {
	t.Helper()
	socket := transporttest.NewSocket()
	player, err := w.AddPlayer(socket)
	if err != nil {
		t.Fatalf("expected player to join, got %v", err)
	}
	player.Spawn(false)
	player.X, player.Y = x, y
	socket.Reset()
	return player, socket
}

func TestPlayerSystemPushesIdentityOncePerObserver(t *testing.T) {
	w := newTestWorld(t)
	first, firstSocket := spawnAt(t, w, 1000, 1000)
	second, secondSocket := spawnAt(t, w, 1100, 1000)
	second.Kills = 3

	players := entity.NewPlayerRepository(w.Players, entity.NewPlayerFactory(entity.MapBounds(w.Config().MapScale)))
	structures := entity.NewStructureRepository(w.Structures, entity.NewStructureFactory())
	npcs := entity.NewNpcRepository(w.Animals)
	system := NewPlayerSystem(players, structures, npcs)

	current := state.New()
	for i := 0; i < 3; i++ {
		next, err := system.Update(current, 10*time.Millisecond)
		if err != nil {
			t.Fatalf("expected update to succeed, got %v", err)
		}
		current = next
	}

	for name, socket := range map[string]*transporttest.Socket{"first": firstSocket, "second": secondSocket} {
		if got := socket.Count(proto.ServerAddPlayer); got != 2 {
			t.Fatalf("expected %s to receive 2 identity pushes, got %d", name, got)
		}
		if got := socket.Count(proto.ServerPlayerBatch); got != 3 {
			t.Fatalf("expected %s to receive a batch every tick, got %d", name, got)
		}
		if got := socket.Count(proto.ServerAnimals); got != 3 {
			t.Fatalf("expected %s to receive an animal frame every tick, got %d", name, got)
		}
		if got := socket.Count(proto.ServerStructures); got != 0 {
			t.Fatalf("expected %s to receive no structure frames, got %d", name, got)
		}
	}

	if first.IconIndex != 0 || second.IconIndex != world.LeaderIcon {
		t.Fatalf("expected second player to wear the leader icon, got %d and %d", first.IconIndex, second.IconIndex)
	}
	if current.PlayerCount() != 2 {
		t.Fatalf("expected 2 player snapshots, got %d", current.PlayerCount())
	}
}

func TestPlayerSystemSkipsDistantPlayers(t *testing.T) {
	w := newTestWorld(t)
	_, nearSocket := spawnAt(t, w, 1000, 1000)
	spawnAt(t, w, 9000, 9000)

	players := entity.NewPlayerRepository(w.Players, entity.NewPlayerFactory(entity.MapBounds(w.Config().MapScale)))
	system := NewPlayerSystem(players, nil, nil)
	if _, err := system.Update(state.New(), 10*time.Millisecond); err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}

	if got := nearSocket.Count(proto.ServerAddPlayer); got != 1 {
		t.Fatalf("expected only the self push, got %d", got)
	}
	frame, _ := nearSocket.Find(proto.ServerAddPlayer)
	if isSelf, _ := frame.Payload[1].(bool); !isSelf {
		t.Fatalf("expected the push to be flagged as self, got %v", frame.Payload)
	}
}

func TestLeaderboardRanksLivingPlayersStably(t *testing.T) {
	current := state.New().WithPlayers([]state.PlayerState{
		{ID: "a", SID: 1, Name: "a", Points: 50, Alive: true},
		{ID: "b", SID: 2, Name: "b", Points: 10, Alive: true},
		{ID: "c", SID: 3, Name: "c", Points: 50, Alive: true},
		{ID: "d", SID: 4, Name: "d", Points: 30, Alive: true},
		{ID: "e", SID: 5, Name: "e", Points: 900, Alive: false},
	})
	broadcaster := &recordingBroadcaster{}
	system := NewLeaderboardSystem(broadcaster, 3)

	next, err := system.Update(current, time.Millisecond)
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}

	board := next.Leaderboard()
	if len(board) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(board))
	}
	want := []int{1, 3, 4}
	for i, sid := range want {
		if board[i].SID != sid {
			t.Fatalf("expected sid %d at rank %d, got %d", sid, i, board[i].SID)
		}
	}
	if len(broadcaster.sent) != 1 || broadcaster.sent[0].msgType != proto.ServerLeaderboard {
		t.Fatalf("expected one leaderboard broadcast, got %v", broadcaster.sent)
	}
	flat, _ := broadcaster.sent[0].payload[0].([]any)
	if len(flat) != 9 || flat[0] != 1 || flat[1] != "a" || flat[2] != 50 {
		t.Fatalf("expected flattened [sid, name, points] triples, got %v", flat)
	}
}

func TestLeaderboardDefaultsSize(t *testing.T) {
	if got := NewLeaderboardSystem(nil, 0).size; got != DefaultLeaderboardSize {
		t.Fatalf("expected default size %d, got %d", DefaultLeaderboardSize, got)
	}
}

func TestMinimapHonoursIntervalAndExcludesSelf(t *testing.T) {
	alone := &fakeRecipient{sid: 9}
	first := &fakeRecipient{sid: 1}
	second := &fakeRecipient{sid: 2}
	recipients := []Recipient{first, second, alone}
	system := NewMinimapSystem(func() []Recipient { return recipients }, time.Millisecond)

	if system.Interval() != MinMinimapInterval {
		t.Fatalf("expected interval clamped to %s, got %s", MinMinimapInterval, system.Interval())
	}

	current := state.New().WithPlayers([]state.PlayerState{
		{ID: "a", SID: 1, X: 10, Y: 20, Alive: true},
		{ID: "b", SID: 2, X: 30, Y: 40, Alive: true},
		{ID: "c", SID: 3, X: 50, Y: 60, Alive: false},
	})

	next, _ := system.Update(current, 10*time.Millisecond)
	if len(first.sent) != 0 || len(next.Minimap()) != 0 {
		t.Fatalf("expected nothing before the interval elapsed, got %v", first.sent)
	}

	next, _ = system.Update(current, 10*time.Millisecond)
	if len(next.Minimap()) != 2 {
		t.Fatalf("expected 2 minimap entries, got %d", len(next.Minimap()))
	}
	if len(first.sent) != 1 || first.sent[0].msgType != proto.ServerMinimap {
		t.Fatalf("expected one minimap frame, got %v", first.sent)
	}
	payload, _ := first.sent[0].payload[0].([]any)
	if len(payload) != 2 || payload[0] != 30.0 || payload[1] != 40.0 {
		t.Fatalf("expected only the other player's position, got %v", payload)
	}
	if len(alone.sent) != 1 {
		t.Fatalf("expected non-player recipient to see both positions, got %v", alone.sent)
	}

	next, _ = system.Update(current, 10*time.Millisecond)
	if len(first.sent) != 1 {
		t.Fatalf("expected elapsed to reset after a broadcast, got %d frames", len(first.sent))
	}
}

func TestMinimapSkipsEmptyPayloads(t *testing.T) {
	only := &fakeRecipient{sid: 1}
	system := NewMinimapSystem(func() []Recipient { return []Recipient{only} }, 0)
	current := state.New().WithPlayers([]state.PlayerState{{ID: "a", SID: 1, Alive: true}})

	system.Update(current, time.Second)
	if len(only.sent) != 0 {
		t.Fatalf("expected no frame when only the recipient is on the map, got %v", only.sent)
	}
}

func TestMapSystemFoldsCellsOnce(t *testing.T) {
	calls := 0
	var cells []state.MapCellState
	system := NewMapSystem(func() []state.MapCellState {
		calls++
		return cells
	})

	next, _ := system.Update(state.New(), time.Millisecond)
	if len(next.MapCells()) != 0 {
		t.Fatalf("expected no cells while the source is empty, got %d", len(next.MapCells()))
	}

	cells = []state.MapCellState{{ID: "cell-0-0", Terrain: "grass"}}
	next, _ = system.Update(next, time.Millisecond)
	next, _ = system.Update(next, time.Millisecond)
	if len(next.MapCells()) != 1 {
		t.Fatalf("expected 1 cell, got %d", len(next.MapCells()))
	}
	if calls != 2 {
		t.Fatalf("expected source to be read until it produced cells, got %d calls", calls)
	}
}

func TestAiSystemSerializesAnimals(t *testing.T) {
	updated := time.Duration(0)
	system := NewAiSystem(func(dt time.Duration) { updated += dt }, nil, nil)
	current := state.New()

	next, err := system.Update(current, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}
	if updated != 5*time.Millisecond {
		t.Fatalf("expected animal routine to receive dt, got %s", updated)
	}
	if len(next.EntityKinds()) != 0 {
		t.Fatalf("expected no entity kinds without a repository, got %v", next.EntityKinds())
	}
}

func TestPipelineOrder(t *testing.T) {
	pipeline := NewPipeline(newTestWorld(t), PipelineOptions{})
	want := []string{"map", "player", "structure", "projectile", "ai", "leaderboard", "minimap"}
	if len(pipeline.Systems) != len(want) {
		t.Fatalf("expected %d systems, got %d", len(want), len(pipeline.Systems))
	}
	for i, system := range pipeline.Systems {
		named, ok := system.(sim.Named)
		if !ok || named.Name() != want[i] {
			t.Fatalf("expected system %d to be %s, got %T", i, want[i], system)
		}
	}
}

func TestPipelineStepPopulatesState(t *testing.T) {
	w := newTestWorld(t)
	spawnAt(t, w, 1000, 1000)
	pipeline := NewPipeline(w, PipelineOptions{})

	current := state.New()
	for _, system := range pipeline.Systems {
		next, err := system.Update(current, 10*time.Millisecond)
		if err != nil {
			t.Fatalf("expected %T to succeed, got %v", system, err)
		}
		current = next
	}
	if len(current.MapCells()) == 0 {
		t.Fatalf("expected map cells after one pass")
	}
	if len(current.Leaderboard()) != 1 {
		t.Fatalf("expected the spawned player on the leaderboard, got %v", current.Leaderboard())
	}
	if _, ok := current.Player(w.Players()[0].ID); !ok {
		t.Fatalf("expected player snapshot in state")
	}
}

// pruneInactive mirrors the world's prune routines over a plain slice.
func pruneInactive[R any](records *[]*R, active func(*R) bool) func() int {
	return func() int {
		kept := (*records)[:0]
		removed := 0
		for _, record := range *records {
			if active(record) {
				kept = append(kept, record)
				continue
			}
			removed++
		}
		*records = kept
		return removed
	}
}

func TestProjectileReportedInactiveOnceThenPruned(t *testing.T) {
	raws := []*world.Projectile{{SID: 4, X: 100, Y: 200, Active: false}}
	projectiles := entity.NewProjectileRepository(func() []*world.Projectile { return raws })
	system := NewProjectileSystem(projectiles, pruneInactive(&raws, func(p *world.Projectile) bool { return p.Active }))

	first, err := system.Update(state.New(), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}
	reported := first.Entities(state.KindProjectiles)
	if len(reported) != 1 {
		t.Fatalf("expected the inactive projectile to be reported once, got %d entries", len(reported))
	}
	if active, _ := reported[0].Payload["active"].(bool); active {
		t.Fatalf("expected the report to carry active false, got %v", reported[0].Payload)
	}
	if len(raws) != 0 {
		t.Fatalf("expected the projectile to be pruned after the report, got %d records", len(raws))
	}

	second, err := system.Update(first, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}
	if got := len(second.Entities(state.KindProjectiles)); got != 0 {
		t.Fatalf("expected no projectile on the following tick, got %d", got)
	}
	if got := projectiles.Cached(); got != 0 {
		t.Fatalf("expected the wrapper to be evicted, got %d cached", got)
	}
}

func TestStructureReportedInactiveOnceThenPruned(t *testing.T) {
	raws := []*world.Structure{
		{SID: 1, Type: world.TypeRock, ItemID: -1, X: 500, Y: 500, Scale: 90, Active: true},
		{SID: 2, Type: world.TypeTree, ItemID: -1, X: 700, Y: 500, Scale: 120, Active: false},
	}
	structures := entity.NewStructureRepository(func() []*world.Structure { return raws }, entity.NewStructureFactory())
	system := NewStructureSystem(structures, pruneInactive(&raws, func(s *world.Structure) bool { return s.Active }))

	first, err := system.Update(state.New(), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}
	reported := first.Entities(state.KindStructures)
	if len(reported) != 2 {
		t.Fatalf("expected both structures in the first report, got %d", len(reported))
	}
	if active, _ := reported[1].Payload["active"].(bool); active || reported[1].ID != "structure-2" {
		t.Fatalf("expected structure-2 reported with active false, got %+v", reported[1])
	}

	second, err := system.Update(first, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}
	remaining := second.Entities(state.KindStructures)
	if len(remaining) != 1 || remaining[0].ID != "structure-1" {
		t.Fatalf("expected only the active structure to remain, got %+v", remaining)
	}
	if got := structures.Cached(); got != 1 {
		t.Fatalf("expected the pruned wrapper to be evicted, got %d cached", got)
	}
}

func TestPlayerSystemSendsStructuresOncePerObserver(t *testing.T) {
	cfg := world.DefaultConfig()
	cfg.AreaCount = 0
	cfg.TotalRocks = 1
	cfg.GoldOres = 0
	cfg.Animals = false
	w, err := world.New(cfg, world.Deps{})
	if err != nil {
		t.Fatalf("expected world to construct, got %v", err)
	}
	seeded := w.Structures()
	if len(seeded) != 1 {
		t.Fatalf("expected one seeded rock, got %d", len(seeded))
	}
	rock := seeded[0]
	_, firstSocket := spawnAt(t, w, rock.X+rock.Scale+40, rock.Y)
	_, secondSocket := spawnAt(t, w, rock.X-rock.Scale-40, rock.Y)

	players := entity.NewPlayerRepository(w.Players, entity.NewPlayerFactory(entity.MapBounds(w.Config().MapScale)))
	structures := entity.NewStructureRepository(w.Structures, entity.NewStructureFactory())
	system := NewPlayerSystem(players, structures, nil)

	current := state.New()
	for i := 0; i < 2; i++ {
		next, err := system.Update(current, 10*time.Millisecond)
		if err != nil {
			t.Fatalf("expected update to succeed, got %v", err)
		}
		current = next
	}

	for name, socket := range map[string]*transporttest.Socket{"first": firstSocket, "second": secondSocket} {
		if got := socket.Count(proto.ServerStructures); got != 1 {
			t.Fatalf("expected %s to receive the structure batch once, got %d", name, got)
		}
		frame, _ := socket.Find(proto.ServerStructures)
		batch, _ := frame.Payload[0].([]any)
		if len(batch) != 8 {
			t.Fatalf("expected one 8-field structure tuple for %s, got %v", name, batch)
		}
	}
}
