package game

import (
	"context"
	"unicode/utf8"

	"github.com/al007ex/moomoo-clone/internal/command"
	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/net/router"
	"github.com/al007ex/moomoo-clone/internal/transport"
	"github.com/al007ex/moomoo-clone/internal/world"
	"github.com/al007ex/moomoo-clone/logging"
	"github.com/al007ex/moomoo-clone/logging/economy"
	"github.com/al007ex/moomoo-clone/logging/lifecycle"
)

// execute applies cmd. Callers hold the simulation lock.
func (b *CommandBus) execute(ctx context.Context, session *Session, cmd command.Command, pc router.PublishContext) {
	player := session.player
	switch cmd.Type {
	case command.SpawnPlayer:
		b.spawn(ctx, player, cmd, pc)
		session.authenticated.Store(true)
		return
	case command.KeepAlive:
		pc.Queue.Enqueue(proto.ServerPong)
		return
	}

	if !player.Alive {
		return
	}
	switch cmd.Type {
	case command.SetMoveDirection:
		if cmd.Move != nil {
			player.MoveDir = cmd.Move.Direction
		}
	case command.PerformAction:
		b.action(player, cmd.Action)
	case command.ToggleAutoGather:
		if cmd.Toggle != nil && cmd.Toggle.Toggle {
			player.AutoGather = !player.AutoGather
		}
	case command.SetDirection:
		if cmd.Direction != nil && world.Finite(cmd.Direction.Direction) {
			player.Dir = cmd.Direction.Direction
		}
	case command.SelectItem:
		b.selectItem(player, cmd.Select)
	case command.CustomizeAppearance:
		b.customize(ctx, player, cmd.Customize, pc)
	case command.UpgradeChoice:
		b.upgrade(ctx, player, cmd.Upgrade, pc)
	case command.SendChat:
		b.chat(player, cmd.Chat)
	case command.CreateClan:
		b.createClan(player, cmd.Clan)
	case command.LeaveClan:
		b.leaveClan(player)
	case command.InviteClan:
		b.inviteClan(player, cmd.Clan)
	case command.AcceptClanInvite:
		b.acceptClan(player, cmd.Clan)
	case command.KickClanMember:
		b.kickClan(player, cmd.Clan)
	case command.MapPing:
		b.mapPing(player)
	case command.ResetMoveDirection:
		player.ResetMoveDir()
	default:
		b.logf("[game] unhandled command type %q", cmd.Type)
	}
}

func (b *CommandBus) spawn(ctx context.Context, player *world.Player, cmd command.Command, pc router.PublishContext) {
	if player.Alive || cmd.Spawn == nil {
		return
	}
	player.SetUserData(cmd.Spawn.UserData)
	player.Spawn(cmd.Spawn.UserData.Moofoll)
	pc.Queue.Enqueue(proto.ServerSpawned, player.SID)
	lifecycle.PlayerSpawned(ctx, b.publisher, logging.PlayerRef(player.ID), lifecycle.PlayerSpawnedPayload{
		Name:   player.Name,
		SpawnX: player.X,
		SpawnY: player.Y,
	}, nil)
}

func (b *CommandBus) action(player *world.Player, action *command.ActionPayload) {
	if action == nil {
		return
	}
	player.MouseState = 0
	if action.Active {
		player.MouseState = 1
		if player.BuildIndex == -1 {
			player.Hits++
		}
	}
	if action.Angle != nil && world.Finite(*action.Angle) {
		player.Dir = *action.Angle
	}
	if player.BuildIndex < 0 {
		return
	}
	if action.Active {
		player.PacketSpam++
		if player.PacketSpam >= packetSpamLimit && player.Socket != nil {
			player.Socket.Close(transport.ClosePolicyViolation, "packet spam")
			player.Socket = nil
		}
		if item, ok := b.world.Catalog().Item(player.BuildIndex); ok {
			player.BuildItem(item)
		}
	}
	player.MouseState = 0
	player.Hits = 0
}

func (b *CommandBus) selectItem(player *world.Player, sel *command.SelectPayload) {
	if sel == nil {
		return
	}
	catalog := b.world.Catalog()
	if sel.EquipWeapon {
		weapon, ok := catalog.Weapon(sel.ItemID)
		if !ok || player.Weapons[weapon.Type] != sel.ItemID {
			return
		}
		player.BuildIndex = -1
		player.WeaponIndex = sel.ItemID
		return
	}
	if _, ok := catalog.Item(sel.ItemID); !ok || !player.HasItem(sel.ItemID) {
		return
	}
	player.MouseState = 0
	if player.BuildIndex == sel.ItemID {
		player.BuildIndex = -1
		return
	}
	player.BuildIndex = sel.ItemID
}

// customize buys or equips a hat (kind 0) or accessory (kind 1). Id 0
// unequips.
func (b *CommandBus) customize(ctx context.Context, player *world.Player, c *command.CustomizePayload, pc router.PublishContext) {
	if c == nil {
		return
	}
	catalog := b.world.Catalog()
	kind, owned, lookup, equip := 0, player.Skins, catalog.Hat, &player.SkinIndex
	if c.IsAccessory {
		kind, owned, lookup, equip = 1, player.Tails, catalog.Accessory, &player.TailIndex
	}

	entry, ok := lookup(c.ItemID)
	if !ok {
		if c.ItemID == 0 {
			*equip = 0
			pc.Queue.Enqueue(proto.ServerStore, 1, 0, kind)
		}
		return
	}
	if c.Purchase {
		if !owned[entry.ID] && player.Points >= entry.Price {
			owned[entry.ID] = true
			pc.Queue.Enqueue(proto.ServerStore, 0, entry.ID, kind)
			economy.StorePurchase(ctx, b.publisher, logging.PlayerRef(player.ID), economy.StorePurchasePayload{
				ItemID:    entry.ID,
				Accessory: c.IsAccessory,
				Price:     entry.Price,
			})
		}
		return
	}
	if owned[entry.ID] {
		*equip = entry.ID
		pc.Queue.Enqueue(proto.ServerStore, 1, entry.ID, kind)
	}
}

func (b *CommandBus) upgrade(ctx context.Context, player *world.Player, u *command.UpgradePayload, pc router.PublishContext) {
	if u == nil || player.UpgradePoints <= 0 {
		return
	}
	catalog := b.world.Catalog()
	if !b.applyUpgrade(player, u.Choice, catalog) {
		return
	}
	economy.UpgradeApplied(ctx, b.publisher, logging.PlayerRef(player.ID), economy.UpgradeAppliedPayload{
		Choice: u.Choice,
		Weapon: u.Choice < len(catalog.Weapons),
		Age:    player.UpgrAge,
	})
	player.UpgrAge++
	player.UpgradePoints--

	pc.Queue.Enqueue(proto.ServerInventory, append([]int(nil), player.Items...), 0)
	pc.Queue.Enqueue(proto.ServerInventory, []int{player.Weapons[0], player.Weapons[1]}, 1)
	if player.Age >= 0 {
		pc.Queue.Enqueue(proto.ServerUpgrades, player.UpgradePoints, player.UpgrAge)
	} else {
		pc.Queue.Enqueue(proto.ServerUpgrades, 0, 0)
	}
}

// applyUpgrade unlocks a weapon for choices below the weapon count and an
// item otherwise. Only entries of the player's upgrade age qualify.
func (b *CommandBus) applyUpgrade(player *world.Player, choice int, catalog world.Catalog) bool {
	if choice < 0 {
		return false
	}
	if choice < len(catalog.Weapons) {
		weapon, ok := catalog.Weapon(choice)
		if !ok || weapon.Age != player.UpgrAge {
			return false
		}
		player.Weapons[weapon.Type] = weapon.ID
		player.WeaponXP[weapon.Type] = 0
		if current, ok := catalog.Weapon(player.WeaponIndex); ok && current.Type == weapon.Type {
			player.WeaponIndex = weapon.ID
		}
		return true
	}
	item, ok := catalog.Item(choice - len(catalog.Weapons))
	if !ok || item.Age != player.UpgrAge {
		return false
	}
	player.AddItem(item.ID)
	return true
}

func (b *CommandBus) chat(player *world.Player, c *command.ChatPayload) {
	if c == nil || player.ChatCooldown > 0 {
		return
	}
	text := b.world.FilterChat(c.Message)
	if text == "" {
		return
	}
	b.world.Broadcast(proto.ServerChat, player.SID, text)
	player.ChatCooldown = world.ChatCooldownMS
}

func (b *CommandBus) createClan(player *world.Player, c *command.ClanPayload) {
	if c == nil || player.Team != "" || player.ClanCooldown > 0 {
		return
	}
	if n := utf8.RuneCountInString(c.Name); n < 1 || n > world.MaxClanNameLength {
		return
	}
	b.world.Clans().Create(c.Name, player)
}

func (b *CommandBus) leaveClan(player *world.Player) {
	if player.Team == "" || player.ClanCooldown > 0 {
		return
	}
	player.ClanCooldown = world.ClanCooldownMS
	if player.IsOwner {
		b.world.Clans().Remove(player.Team)
		return
	}
	b.world.Clans().Kick(player.Team, player.SID)
}

// inviteClan sends a join request to the owner of the named clan.
func (b *CommandBus) inviteClan(player *world.Player, c *command.ClanPayload) {
	if c == nil || player.Team != "" || player.ClanCooldown > 0 {
		return
	}
	player.ClanCooldown = world.ClanCooldownMS
	b.world.Clans().AddNotify(c.Name, player.SID)
}

// acceptClan answers a join request. Only the clan owner may answer, and only
// for a sid that asked to join.
func (b *CommandBus) acceptClan(player *world.Player, c *command.ClanPayload) {
	if c == nil || player.Team == "" || player.ClanCooldown > 0 {
		return
	}
	clan := b.world.Clans().Get(player.Team)
	if clan == nil || !clan.IsOwner(player.SID) {
		return
	}
	if _, pending := player.Notify[c.TargetSID]; !pending {
		return
	}
	player.ClanCooldown = world.ClanCooldownMS
	b.world.Clans().ConfirmJoin(player.Team, c.TargetSID, c.Accept)
}

func (b *CommandBus) kickClan(player *world.Player, c *command.ClanPayload) {
	if c == nil || player.Team == "" || !player.IsOwner || player.ClanCooldown > 0 {
		return
	}
	player.ClanCooldown = world.ClanCooldownMS
	b.world.Clans().Kick(player.Team, c.TargetSID)
}

func (b *CommandBus) mapPing(player *world.Player) {
	if player.PingCooldown > 0 {
		return
	}
	player.PingCooldown = b.world.Config().MapPingTimeMS
	b.world.Broadcast(proto.ServerMapPing, player.X, player.Y)
}
