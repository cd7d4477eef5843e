// Package intake turns parsed client messages into game commands.
package intake

import (
	"time"

	"github.com/al007ex/moomoo-clone/internal/command"
	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/net/router"
)

type CommandContext struct {
	Now func() time.Time
}

// StageClientCommand converts msg into a command for sessionID. It reports
// false for messages that carry no usable command.
func StageClientCommand(ctx CommandContext, sessionID string, msg proto.ClientMessage) (command.Command, bool) {
	kind, ok := commandTypes[msg.Type]
	if !ok {
		return command.Command{}, false
	}
	cmd := command.Command{Type: kind, SessionID: sessionID}
	if ctx.Now != nil {
		cmd.IssuedAt = ctx.Now()
	} else {
		cmd.IssuedAt = time.Now()
	}

	switch payload := msg.Payload.(type) {
	case proto.SpawnPayload:
		cmd.Spawn = &command.SpawnPayload{UserData: payload.UserData}
	case proto.MoveDirectionPayload:
		cmd.Move = &command.MovePayload{Direction: payload.Direction}
	case proto.ActionPayload:
		cmd.Action = &command.ActionPayload{Active: payload.Active, Angle: payload.Angle}
	case proto.ToggleAutoGatherPayload:
		cmd.Toggle = &command.TogglePayload{Toggle: payload.Toggle}
	case proto.SetDirectionPayload:
		cmd.Direction = &command.DirectionPayload{Direction: payload.Direction}
	case proto.SelectItemPayload:
		cmd.Select = &command.SelectPayload{ItemID: payload.ItemID, EquipWeapon: payload.EquipWeapon}
	case proto.CustomizePayload:
		cmd.Customize = &command.CustomizePayload{
			Purchase:    payload.Purchase,
			ItemID:      payload.ItemID,
			IsAccessory: payload.IsAccessory,
		}
	case proto.UpgradePayload:
		cmd.Upgrade = &command.UpgradePayload{Choice: payload.Choice}
	case proto.ChatPayload:
		cmd.Chat = &command.ChatPayload{Message: payload.Message}
	case proto.CreateClanPayload:
		cmd.Clan = &command.ClanPayload{Name: payload.Name}
	case proto.InviteClanPayload:
		cmd.Clan = &command.ClanPayload{Name: payload.Target}
	case proto.AcceptClanPayload:
		sid, ok := payload.Target.SID()
		if !ok {
			return command.Command{}, false
		}
		// An omitted leader flag accepts the request.
		accept := payload.Leader == nil || payload.Leader.Truthy()
		cmd.Clan = &command.ClanPayload{TargetSID: sid, Accept: accept}
	case proto.KickClanPayload:
		sid, ok := payload.Target.SID()
		if !ok {
			return command.Command{}, false
		}
		cmd.Clan = &command.ClanPayload{TargetSID: sid}
	}
	return cmd, true
}

var commandTypes = map[proto.ClientType]command.Type{
	proto.TypeSpawn:            command.SpawnPlayer,
	proto.TypeSetMoveDirection: command.SetMoveDirection,
	proto.TypeAction:           command.PerformAction,
	proto.TypeToggleAutoGather: command.ToggleAutoGather,
	proto.TypeSetDirection:     command.SetDirection,
	proto.TypeSelectItem:       command.SelectItem,
	proto.TypeCustomize:        command.CustomizeAppearance,
	proto.TypeUpgrade:          command.UpgradeChoice,
	proto.TypeChat:             command.SendChat,
	proto.TypeKeepAlive:        command.KeepAlive,
	proto.TypeCreateClan:       command.CreateClan,
	proto.TypeLeaveClan:        command.LeaveClan,
	proto.TypeInviteClan:       command.InviteClan,
	proto.TypeAcceptClan:       command.AcceptClanInvite,
	proto.TypeKickClan:         command.KickClanMember,
	proto.TypeMapPing:          command.MapPing,
	proto.TypeResetMove:        command.ResetMoveDirection,
}

// Register installs a publishing handler for every client message type.
func Register(r *router.Router, ctx CommandContext) {
	for _, msgType := range proto.ClientTypes {
		r.HandleFunc(msgType, func(hc *router.HandlerContext) error {
			cmd, ok := StageClientCommand(ctx, hc.Session.ID(), hc.Message)
			if !ok {
				return nil
			}
			return hc.Publish(cmd)
		})
	}
}
