// Package entity wraps the mutable world records in validated views. The
// world record stays the source of truth between ticks; a wrapper re-reads it
// through RefreshFromRaw and writes back through its own mutators.
package entity

import (
	"math"
	"time"

	"github.com/al007ex/moomoo-clone/internal/state"
	"github.com/al007ex/moomoo-clone/internal/world"
)

type Position struct {
	X float64
	Y float64
}

// Bounds is the inclusive rectangle positions are clamped to.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func (b Bounds) clamp(p Position) Position {
	if b.MaxX <= b.MinX && b.MaxY <= b.MinY {
		return p
	}
	return Position{
		X: world.Clamp(p.X, b.MinX, b.MaxX),
		Y: world.Clamp(p.Y, b.MinY, b.MaxY),
	}
}

// MapBounds covers a square map of the given edge length.
func MapBounds(scale float64) Bounds {
	return Bounds{MaxX: scale, MaxY: scale}
}

const (
	DefaultMinIcon = 0
	DefaultMaxIcon = 255
)

type PlayerProps struct {
	ID        string
	SID       int
	Name      string
	Position  Position
	Kills     int
	Points    int
	Alive     bool
	IconIndex int
}

// PlayerFactory normalizes raw players into props.
type PlayerFactory struct {
	Bounds  Bounds
	MinIcon int
	MaxIcon int
}

func NewPlayerFactory(bounds Bounds) PlayerFactory {
	return PlayerFactory{Bounds: bounds, MinIcon: DefaultMinIcon, MaxIcon: DefaultMaxIcon}
}

// Props validates raw: position is clamped to the bounds, counters are
// floored at zero and the icon is clamped to the factory range. A missing
// record yields SID -1.
func (f PlayerFactory) Props(raw *world.Player) PlayerProps {
	if raw == nil {
		return PlayerProps{SID: -1}
	}
	return PlayerProps{
		ID:        raw.ID,
		SID:       raw.SID,
		Name:      raw.Name,
		Position:  f.Bounds.clamp(finitePosition(raw.X, raw.Y)),
		Kills:     max(0, raw.Kills),
		Points:    max(0, raw.Points),
		Alive:     raw.Alive,
		IconIndex: f.clampIcon(raw.IconIndex),
	}
}

func (f PlayerFactory) clampIcon(icon int) int {
	lo, hi := f.MinIcon, f.MaxIcon
	if hi < lo {
		lo, hi = DefaultMinIcon, DefaultMaxIcon
	}
	return min(max(icon, lo), hi)
}

// FromRaw wraps raw.
func (f PlayerFactory) FromRaw(raw *world.Player) *Player {
	return &Player{raw: raw, factory: f, props: f.Props(raw)}
}

func finitePosition(x, y float64) Position {
	if !world.Finite(x) {
		x = 0
	}
	if !world.Finite(y) {
		y = 0
	}
	return Position{X: x, Y: y}
}

// Player is the validated view of one world player.
type Player struct {
	raw     *world.Player
	factory PlayerFactory
	props   PlayerProps
}

func (p *Player) Raw() *world.Player { return p.raw }

func (p *Player) Props() PlayerProps { return p.props }

func (p *Player) ID() string { return p.props.ID }

func (p *Player) SID() int { return p.props.SID }

func (p *Player) Alive() bool { return p.props.Alive }

func (p *Player) Position() Position { return p.props.Position }

func (p *Player) Location() (float64, float64) {
	return p.props.Position.X, p.props.Position.Y
}

func (p *Player) Radius() float64 {
	if p.raw == nil {
		return world.PlayerScale
	}
	return p.raw.Scale
}

// RefreshFromRaw re-reads the world record.
func (p *Player) RefreshFromRaw() {
	p.props = p.factory.Props(p.raw)
}

// Tick advances the world record by dt and refreshes the view.
func (p *Player) Tick(dt time.Duration) {
	if p.raw == nil {
		return
	}
	p.raw.Update(dt)
	p.RefreshFromRaw()
}

func (p *Player) MoveTo(x, y float64) {
	p.props.Position = p.factory.Bounds.clamp(finitePosition(x, y))
	p.syncToRaw()
}

// AwardPoints adds delta points. The total never drops below zero.
func (p *Player) AwardPoints(delta int) {
	p.props.Points = max(0, p.props.Points+delta)
	p.syncToRaw()
}

func (p *Player) RegisterKill() {
	p.props.Kills++
	p.syncToRaw()
}

func (p *Player) SetAlive(alive bool) {
	p.props.Alive = alive
	p.syncToRaw()
}

func (p *Player) SetIcon(icon int) {
	p.props.IconIndex = p.factory.clampIcon(icon)
	p.syncToRaw()
}

// CanSee reports whether v lies inside this player's view.
func (p *Player) CanSee(v world.Visible) bool {
	if p.raw == nil || v == nil {
		return false
	}
	return p.raw.CanSee(v)
}

func (p *Player) Send(msgType string, payload ...any) {
	if p.raw != nil {
		p.raw.Send(msgType, payload...)
	}
}

// MarkSentTo latches observerID and reports whether it was not latched before.
func (p *Player) MarkSentTo(observerID string) bool {
	if p.raw == nil {
		return false
	}
	return p.raw.SentTo.Mark(observerID)
}

func (p *Player) ResetSentTo() {
	if p.raw != nil {
		p.raw.SentTo.Clear()
	}
}

// Data is the full identity vector pushed once per observer.
func (p *Player) Data() []any {
	if p.raw == nil {
		return nil
	}
	return p.raw.Data()
}

// Info is the lightweight vector batched every tick.
func (p *Player) Info() []any {
	if p.raw == nil {
		return nil
	}
	return p.raw.Info()
}

func (p *Player) ToState() state.PlayerState {
	return state.PlayerState{
		ID:        p.props.ID,
		SID:       p.props.SID,
		Name:      p.props.Name,
		X:         p.props.Position.X,
		Y:         p.props.Position.Y,
		Kills:     p.props.Kills,
		Points:    p.props.Points,
		Alive:     p.props.Alive,
		IconIndex: p.props.IconIndex,
	}
}

func (p *Player) syncToRaw() {
	if p.raw == nil {
		return
	}
	p.raw.X = p.props.Position.X
	p.raw.Y = p.props.Position.Y
	p.raw.Kills = p.props.Kills
	p.raw.Points = p.props.Points
	p.raw.Alive = p.props.Alive
	p.raw.IconIndex = p.props.IconIndex
}

func fix(value float64, precision int) float64 {
	if math.IsNaN(value) {
		return 0
	}
	return world.FixTo(value, precision)
}
