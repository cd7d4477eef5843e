package world

import "github.com/al007ex/moomoo-clone/internal/net/proto"

const MaxClanNameLength = 7

// Clan is one team of players led by its owner.
type Clan struct {
	Name     string
	OwnerSID int
	Members  []int
}

func (c *Clan) IsOwner(sid int) bool {
	return c.OwnerSID == sid
}

// ClanManager owns every clan of a world. Callers hold the simulation lock.
type ClanManager struct {
	world *World
	clans []*Clan
}

func newClanManager(w *World) *ClanManager {
	return &ClanManager{world: w}
}

func (m *ClanManager) Get(name string) *Clan {
	for _, clan := range m.clans {
		if clan.Name == name {
			return clan
		}
	}
	return nil
}

// Ext exports the clan list in the shape sent on connect.
func (m *ClanManager) Ext() []map[string]any {
	teams := make([]map[string]any, 0, len(m.clans))
	for _, clan := range m.clans {
		teams = append(teams, map[string]any{"sid": clan.Name, "owner": clan.OwnerSID})
	}
	return teams
}

// Create founds a clan owned by owner. Duplicate names are rejected.
func (m *ClanManager) Create(name string, owner *Player) bool {
	if owner == nil || owner.Team != "" || name == "" || m.Get(name) != nil {
		return false
	}
	clan := &Clan{Name: name, OwnerSID: owner.SID, Members: []int{owner.SID}}
	m.clans = append(m.clans, clan)
	owner.Team = name
	owner.IsOwner = true
	m.world.Broadcast(proto.ServerClanAdd, map[string]any{"sid": name, "owner": owner.SID})
	owner.Send(proto.ServerClanSet, name, true)
	m.syncMembers(clan)
	return true
}

// Remove disbands the clan and releases every member.
func (m *ClanManager) Remove(name string) bool {
	for i, clan := range m.clans {
		if clan.Name != name {
			continue
		}
		for _, sid := range clan.Members {
			if member := m.world.PlayerBySID(sid); member != nil {
				member.Team = ""
				member.IsOwner = false
				clear(member.Notify)
				member.Send(proto.ServerClanSet, nil, false)
			}
		}
		m.clans = append(m.clans[:i], m.clans[i+1:]...)
		m.world.Broadcast(proto.ServerClanDelete, name)
		return true
	}
	return false
}

// Kick removes sid from the clan. Kicking the owner disbands it.
func (m *ClanManager) Kick(name string, sid int) bool {
	clan := m.Get(name)
	if clan == nil {
		return false
	}
	if sid == clan.OwnerSID {
		return m.Remove(name)
	}
	index := -1
	for i, member := range clan.Members {
		if member == sid {
			index = i
			break
		}
	}
	if index < 0 {
		return false
	}
	clan.Members = append(clan.Members[:index], clan.Members[index+1:]...)
	if member := m.world.PlayerBySID(sid); member != nil {
		member.Team = ""
		member.IsOwner = false
		member.Send(proto.ServerClanSet, nil, false)
	}
	m.syncMembers(clan)
	return true
}

// AddNotify forwards a join request from sid to the owner of the named clan.
func (m *ClanManager) AddNotify(name string, sid int) bool {
	clan := m.Get(name)
	if clan == nil {
		return false
	}
	owner := m.world.PlayerBySID(clan.OwnerSID)
	requester := m.world.PlayerBySID(sid)
	if owner == nil || requester == nil {
		return false
	}
	if owner.Notify == nil {
		owner.Notify = make(map[int]struct{})
	}
	if _, pending := owner.Notify[sid]; pending {
		return false
	}
	owner.Notify[sid] = struct{}{}
	owner.Send(proto.ServerClanNotify, sid, requester.Name)
	return true
}

// ConfirmJoin resolves and clears sid's pending request to join name. Sids
// the owner holds no request from, and targets that already belong to a clan,
// are ignored.
func (m *ClanManager) ConfirmJoin(name string, sid int, accept bool) bool {
	clan := m.Get(name)
	if clan == nil {
		return false
	}
	owner := m.world.PlayerBySID(clan.OwnerSID)
	if owner == nil {
		return false
	}
	if _, pending := owner.Notify[sid]; !pending {
		return false
	}
	delete(owner.Notify, sid)
	target := m.world.PlayerBySID(sid)
	if target == nil || !accept || target.Team != "" {
		return false
	}
	clan.Members = append(clan.Members, sid)
	target.Team = name
	target.IsOwner = false
	target.Send(proto.ServerClanSet, name, false)
	m.syncMembers(clan)
	return true
}

func (m *ClanManager) syncMembers(clan *Clan) {
	roster := make([]any, 0, len(clan.Members)*2)
	for _, sid := range clan.Members {
		if member := m.world.PlayerBySID(sid); member != nil {
			roster = append(roster, member.SID, member.Name)
		}
	}
	for _, sid := range clan.Members {
		if member := m.world.PlayerBySID(sid); member != nil {
			member.Send(proto.ServerClanMembers, roster)
		}
	}
}
