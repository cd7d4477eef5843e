package proto

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ClientType is the envelope type token of an inbound message.
type ClientType string

const (
	TypeSpawn            ClientType = "sp"
	TypeSetMoveDirection ClientType = "33"
	TypeAction           ClientType = "c"
	TypeToggleAutoGather ClientType = "7"
	TypeSetDirection     ClientType = "2"
	TypeSelectItem       ClientType = "5"
	TypeCustomize        ClientType = "13c"
	TypeUpgrade          ClientType = "6"
	TypeChat             ClientType = "ch"
	TypeKeepAlive        ClientType = "pp"
	TypeCreateClan       ClientType = "8"
	TypeLeaveClan        ClientType = "9"
	TypeInviteClan       ClientType = "10"
	TypeAcceptClan       ClientType = "11"
	TypeKickClan         ClientType = "12"
	TypeMapPing          ClientType = "14"
	TypeResetMove        ClientType = "rmd"
)

// ClientTypes lists the inbound vocabulary in protocol order.
var ClientTypes = []ClientType{
	TypeSpawn, TypeSetMoveDirection, TypeAction, TypeToggleAutoGather,
	TypeSetDirection, TypeSelectItem, TypeCustomize, TypeUpgrade, TypeChat,
	TypeKeepAlive, TypeCreateClan, TypeLeaveClan, TypeInviteClan,
	TypeAcceptClan, TypeKickClan, TypeMapPing, TypeResetMove,
}

// ClientMessage is a parsed inbound envelope. Payload holds one of the
// *Payload structs below, matching Type.
type ClientMessage struct {
	Type    ClientType
	Payload any
}

// UserData is the optional profile attached to a spawn request. Nil fields
// were not sent.
type UserData struct {
	Name      *string
	Skin      *float64
	Hat       *float64
	Accessory *float64
	Color     *float64
	Moofoll   bool
}

type SpawnPayload struct {
	UserData UserData
}

type MoveDirectionPayload struct {
	// Direction is nil when the client stopped moving.
	Direction *float64
}

type ActionPayload struct {
	Active bool
	Angle  *float64
}

type ToggleAutoGatherPayload struct {
	Toggle bool
}

type SetDirectionPayload struct {
	Direction float64
}

type SelectItemPayload struct {
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

type CreateClanPayload struct {
	Name string
}

type InviteClanPayload struct {
	Target string
}

// ClanTarget is a string or numeric reference to a player or clan.
type ClanTarget struct {
	Raw any
}

// SID interprets the target as a player slot.
func (t ClanTarget) SID() (int, bool) {
	switch v := t.Raw.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
		return int(n), err == nil
	default:
		if n, ok := toFloat(v); ok && n == math.Trunc(n) && fitsInt32(n) {
			return int(n), true
		}
		return 0, false
	}
}

// String renders the target as text.
func (t ClanTarget) String() string {
	switch v := t.Raw.(type) {
	case string:
		return v
	default:
		if n, ok := toFloat(v); ok {
			return formatNumber(n)
		}
		return ""
	}
}

// Truthy interprets the target as a flag. Zero and the empty string are false.
func (t ClanTarget) Truthy() bool {
	b, _ := toBoolLike(t.Raw)
	return b
}

type AcceptClanPayload struct {
	Target ClanTarget
	// Leader is nil when omitted.
	Leader *ClanTarget
}

type KickClanPayload struct {
	Target ClanTarget
}

type EmptyPayload struct{}

type payloadParser func([]any) (any, error)

var parsers = map[ClientType]payloadParser{
	TypeSpawn:            parseSpawn,
	TypeSetMoveDirection: parseMoveDirection,
	TypeAction:           parseAction,
	TypeToggleAutoGather: parseToggleAutoGather,
	TypeSetDirection:     parseSetDirection,
	TypeSelectItem:       parseSelectItem,
	TypeCustomize:        parseCustomize,
	TypeUpgrade:          parseUpgrade,
	TypeChat:             parseChat,
	TypeKeepAlive:        parseEmpty,
	TypeCreateClan:       parseCreateClan,
	TypeLeaveClan:        parseEmpty,
	TypeInviteClan:       parseInviteClan,
	TypeAcceptClan:       parseAcceptClan,
	TypeKickClan:         parseKickClan,
	TypeMapPing:          parseEmpty,
	TypeResetMove:        parseEmpty,
}

// ParseClientMessage decodes and validates an inbound frame. Failures wrap
// ErrMalformedEnvelope, ErrUnknownType or ErrSchema.
func ParseClientMessage(data []byte) (ClientMessage, error) {
	env, err := Decode(data)
	if err != nil {
		return ClientMessage{}, err
	}
	msgType := ClientType(env.Type)
	parse, ok := parsers[msgType]
	if !ok {
		return ClientMessage{}, eris.Wrapf(ErrUnknownType, "type %q", env.Type)
	}
	payload, err := parse(env.Payload)
	if err != nil {
		return ClientMessage{}, eris.Wrapf(err, "type %q", env.Type)
	}
	return ClientMessage{Type: msgType, Payload: payload}, nil
}

func schemaError(format string, args ...any) error {
	return eris.Wrapf(ErrSchema, format, args...)
}

// arity enforces tuple length: required leading entries, optional trailing ones.
func arity(payload []any, required, total int) error {
	if len(payload) < required || len(payload) > total {
		return schemaError("expected %d..%d entries, got %d", required, total, len(payload))
	}
	return nil
}

func number(payload []any, i int) (float64, error) {
	n, ok := toFloat(arg(payload, i))
	if !ok {
		return 0, schemaError("entry %d: expected number", i)
	}
	return n, nil
}

func optionalNumber(payload []any, i int) (*float64, error) {
	raw := arg(payload, i)
	if raw == nil {
		return nil, nil
	}
	n, ok := toFloat(raw)
	if !ok {
		return nil, schemaError("entry %d: expected number", i)
	}
	return &n, nil
}

func integer(payload []any, i int) (int, error) {
	n, err := number(payload, i)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, schemaError("entry %d: expected finite number", i)
	}
	if !fitsInt32(n) {
		return 0, schemaError("entry %d: %v out of range", i, n)
	}
	return int(n), nil
}

func boolLike(payload []any, i int) (bool, error) {
	b, ok := toBoolLike(arg(payload, i))
	if !ok {
		return false, schemaError("entry %d: expected boolean-like value", i)
	}
	return b, nil
}

func text(payload []any, i int) (string, error) {
	s, ok := arg(payload, i).(string)
	if !ok {
		return "", schemaError("entry %d: expected string", i)
	}
	return s, nil
}

func target(payload []any, i int) (ClanTarget, error) {
	raw := arg(payload, i)
	if _, ok := raw.(string); ok {
		return ClanTarget{Raw: raw}, nil
	}
	if _, ok := toFloat(raw); ok {
		return ClanTarget{Raw: raw}, nil
	}
	return ClanTarget{}, schemaError("entry %d: expected string or number", i)
}

func parseSpawn(payload []any) (any, error) {
	if err := arity(payload, 0, 1); err != nil {
		return nil, err
	}
	raw := arg(payload, 0)
	if raw == nil {
		return SpawnPayload{}, nil
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, schemaError("entry 0: expected object")
	}
	var data UserData
	if v, present := fields["name"]; present && v != nil {
		name, ok := v.(string)
		if !ok {
			return nil, schemaError("name: expected string")
		}
		data.Name = &name
	}
	numeric := []struct {
		key string
		dst **float64
	}{
		{"skin", &data.Skin},
		{"hat", &data.Hat},
		{"accessory", &data.Accessory},
		{"color", &data.Color},
	}
	for _, field := range numeric {
		v, present := fields[field.key]
		if !present || v == nil {
			continue
		}
		n, ok := toFloat(v)
		if !ok {
			return nil, schemaError("%s: expected number", field.key)
		}
		*field.dst = &n
	}
	if v, present := fields["moofoll"]; present && v != nil {
		b, ok := v.(bool)
		if !ok {
			return nil, schemaError("moofoll: expected boolean")
		}
		data.Moofoll = b
	}
	return SpawnPayload{UserData: data}, nil
}

func parseMoveDirection(payload []any) (any, error) {
	if err := arity(payload, 0, 1); err != nil {
		return nil, err
	}
	dir, err := optionalNumber(payload, 0)
	if err != nil {
		return nil, err
	}
	return MoveDirectionPayload{Direction: dir}, nil
}

func parseAction(payload []any) (any, error) {
	if err := arity(payload, 0, 2); err != nil {
		return nil, err
	}
	active, err := boolLike(payload, 0)
	if err != nil {
		return nil, err
	}
	angle, err := optionalNumber(payload, 1)
	if err != nil {
		return nil, err
	}
	return ActionPayload{Active: active, Angle: angle}, nil
}

func parseToggleAutoGather(payload []any) (any, error) {
	if err := arity(payload, 0, 1); err != nil {
		return nil, err
	}
	toggle, err := boolLike(payload, 0)
	if err != nil {
		return nil, err
	}
	return ToggleAutoGatherPayload{Toggle: toggle}, nil
}

func parseSetDirection(payload []any) (any, error) {
	if err := arity(payload, 1, 1); err != nil {
		return nil, err
	}
	dir, err := number(payload, 0)
	if err != nil {
		return nil, err
	}
	return SetDirectionPayload{Direction: dir}, nil
}

func parseSelectItem(payload []any) (any, error) {
	if err := arity(payload, 1, 2); err != nil {
		return nil, err
	}
	id, err := integer(payload, 0)
	if err != nil {
		return nil, err
	}
	weapon, err := boolLike(payload, 1)
	if err != nil {
		return nil, err
	}
	return SelectItemPayload{ItemID: id, EquipWeapon: weapon}, nil
}

func parseCustomize(payload []any) (any, error) {
	if err := arity(payload, 2, 3); err != nil {
		return nil, err
	}
	purchase, err := boolLike(payload, 0)
	if err != nil {
		return nil, err
	}
	id, err := integer(payload, 1)
	if err != nil {
		return nil, err
	}
	accessory, err := boolLike(payload, 2)
	if err != nil {
		return nil, err
	}
	return CustomizePayload{Purchase: purchase, ItemID: id, IsAccessory: accessory}, nil
}

func parseUpgrade(payload []any) (any, error) {
	if err := arity(payload, 1, 1); err != nil {
		return nil, err
	}
	switch v := payload[0].(type) {
	case string:
		n, ok := leadingInt(v)
		if !ok {
			return nil, schemaError("invalid upgrade choice %q", v)
		}
		return UpgradePayload{Choice: n}, nil
	default:
		n, err := integer(payload, 0)
		if err != nil {
			return nil, err
		}
		return UpgradePayload{Choice: n}, nil
	}
}

// leadingInt parses a base-10 integer prefix, accepting "12abc" as 12.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 32)
	return int(n), err == nil
}

func parseChat(payload []any) (any, error) {
	if err := arity(payload, 1, 1); err != nil {
		return nil, err
	}
	msg, err := text(payload, 0)
	if err != nil {
		return nil, err
	}
	return ChatPayload{Message: msg}, nil
}

func parseCreateClan(payload []any) (any, error) {
	if err := arity(payload, 1, 1); err != nil {
		return nil, err
	}
	name, err := text(payload, 0)
	if err != nil {
		return nil, err
	}
	return CreateClanPayload{Name: name}, nil
}

func parseInviteClan(payload []any) (any, error) {
	if err := arity(payload, 1, 1); err != nil {
		return nil, err
	}
	name, err := text(payload, 0)
	if err != nil {
		return nil, err
	}
	return InviteClanPayload{Target: name}, nil
}

func parseAcceptClan(payload []any) (any, error) {
	if err := arity(payload, 1, 2); err != nil {
		return nil, err
	}
	tgt, err := target(payload, 0)
	if err != nil {
		return nil, err
	}
	out := AcceptClanPayload{Target: tgt}
	if arg(payload, 1) != nil {
		leader, err := target(payload, 1)
		if err != nil {
			return nil, err
		}
		out.Leader = &leader
	}
	return out, nil
}

func parseKickClan(payload []any) (any, error) {
	if err := arity(payload, 1, 1); err != nil {
		return nil, err
	}
	tgt, err := target(payload, 0)
	if err != nil {
		return nil, err
	}
	return KickClanPayload{Target: tgt}, nil
}

func parseEmpty(payload []any) (any, error) {
	if len(payload) != 0 {
		return nil, schemaError("expected empty payload, got %d entries", len(payload))
	}
	return EmptyPayload{}, nil
}
