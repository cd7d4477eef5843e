// Package command defines the game commands produced by inbound handlers and
// executed by the command bus.
package command

import (
	"time"

	"github.com/al007ex/moomoo-clone/internal/net/proto"
)

type Type string

const (
	SpawnPlayer         Type = "game.spawnPlayer"
	SetMoveDirection    Type = "game.setMoveDirection"
	PerformAction       Type = "game.performAction"
	ToggleAutoGather    Type = "game.toggleAutoGather"
	SetDirection        Type = "game.setDirection"
	SelectItem          Type = "game.selectItem"
	CustomizeAppearance Type = "game.customizeAppearance"
	UpgradeChoice       Type = "game.upgradeChoice"
	SendChat            Type = "game.sendChat"
	KeepAlive           Type = "game.keepAlive"
	CreateClan          Type = "game.createClan"
	LeaveClan           Type = "game.leaveClan"
	InviteClan          Type = "game.inviteClan"
	AcceptClanInvite    Type = "game.acceptClanInvite"
	KickClanMember      Type = "game.kickClanMember"
	MapPing             Type = "game.mapPing"
	ResetMoveDirection  Type = "game.resetMoveDirection"
)

// Command is one intent from a session. Exactly one payload pointer matching
// Type is set; commands without data carry none.
type Command struct {
	Type      Type
	SessionID string
	IssuedAt  time.Time

	Spawn     *SpawnPayload
	Move      *MovePayload
	Action    *ActionPayload
	Toggle    *TogglePayload
	Direction *DirectionPayload
	Select    *SelectPayload
	Customize *CustomizePayload
	Upgrade   *UpgradePayload
	Chat      *ChatPayload
	Clan      *ClanPayload
}

type SpawnPayload struct {
	UserData proto.UserData
}

type MovePayload struct {
	// Direction is nil when the player stops.
	Direction *float64
}

type ActionPayload struct {
	Active bool
	Angle  *float64
}

type TogglePayload struct {
	Toggle bool
}

type DirectionPayload struct {
	Direction float64
}

type SelectPayload struct {
	ItemID      int
	EquipWeapon bool
}

type CustomizePayload struct {
	Purchase    bool
	ItemID      int
	IsAccessory bool
}

type UpgradePayload struct {
	Choice int
}

type ChatPayload struct {
	Message string
}

// ClanPayload serves every clan command. Name is the clan for create and
// join requests; TargetSID is the player for accept and kick.
type ClanPayload struct {
	Name      string
	TargetSID int
	Accept    bool
}

func New(kind Type, sessionID string) Command {
	return Command{Type: kind, SessionID: sessionID, IssuedAt: time.Now()}
}
