package intake

import (
	"context"
	"testing"
	"time"

	"github.com/al007ex/moomoo-clone/internal/command"
	"github.com/al007ex/moomoo-clone/internal/net/proto"
	"github.com/al007ex/moomoo-clone/internal/net/router"
	"github.com/al007ex/moomoo-clone/internal/transport"
	"github.com/al007ex/moomoo-clone/internal/transport/transporttest"
)

func TestStageClientCommandMapsPayloads(t *testing.T) {
	issuedAt := time.Unix(100, 0)
	ctx := CommandContext{Now: func() time.Time { return issuedAt }}
	angle := 1.5
	leader := proto.ClanTarget{Raw: 0.0}

	cases := []struct {
		name  string
		msg   proto.ClientMessage
		check func(t *testing.T, cmd command.Command)
	}{
		{
			name: "action",
			msg:  proto.ClientMessage{Type: proto.TypeAction, Payload: proto.ActionPayload{Active: true, Angle: &angle}},
			check: func(t *testing.T, cmd command.Command) {
				if cmd.Type != command.PerformAction || cmd.Action == nil || !cmd.Action.Active || *cmd.Action.Angle != angle {
					t.Fatalf("expected active action at %v, got %+v", angle, cmd)
				}
			},
		},
		{
			name: "invite uses clan name",
			msg:  proto.ClientMessage{Type: proto.TypeInviteClan, Payload: proto.InviteClanPayload{Target: "wolves"}},
			check: func(t *testing.T, cmd command.Command) {
				if cmd.Clan == nil || cmd.Clan.Name != "wolves" {
					t.Fatalf("expected clan name wolves, got %+v", cmd.Clan)
				}
			},
		},
		{
			name: "accept without leader",
			msg:  proto.ClientMessage{Type: proto.TypeAcceptClan, Payload: proto.AcceptClanPayload{Target: proto.ClanTarget{Raw: "4"}}},
			check: func(t *testing.T, cmd command.Command) {
				if cmd.Clan == nil || cmd.Clan.TargetSID != 4 || !cmd.Clan.Accept {
					t.Fatalf("expected accepted request from sid 4, got %+v", cmd.Clan)
				}
			},
		},
		{
			name: "accept with falsy leader",
			msg:  proto.ClientMessage{Type: proto.TypeAcceptClan, Payload: proto.AcceptClanPayload{Target: proto.ClanTarget{Raw: 4.0}, Leader: &leader}},
			check: func(t *testing.T, cmd command.Command) {
				if cmd.Clan == nil || cmd.Clan.Accept {
					t.Fatalf("expected declined request, got %+v", cmd.Clan)
				}
			},
		},
		{
			name: "keep alive",
			msg:  proto.ClientMessage{Type: proto.TypeKeepAlive, Payload: proto.EmptyPayload{}},
			check: func(t *testing.T, cmd command.Command) {
				if cmd.Type != command.KeepAlive || !cmd.IssuedAt.Equal(issuedAt) {
					t.Fatalf("expected keep-alive issued at %v, got %+v", issuedAt, cmd)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, ok := StageClientCommand(ctx, "session-1", tc.msg)
			if !ok {
				t.Fatalf("expected command to be staged")
			}
			if cmd.SessionID != "session-1" {
				t.Fatalf("expected session-1, got %q", cmd.SessionID)
			}
			tc.check(t, cmd)
		})
	}
}

func TestStageClientCommandRejectsUnusableTargets(t *testing.T) {
	msg := proto.ClientMessage{Type: proto.TypeKickClan, Payload: proto.KickClanPayload{Target: proto.ClanTarget{Raw: "nobody"}}}
	if _, ok := StageClientCommand(CommandContext{}, "s", msg); ok {
		t.Fatalf("expected non-numeric kick target to be dropped")
	}
	if _, ok := StageClientCommand(CommandContext{}, "s", proto.ClientMessage{Type: "zz"}); ok {
		t.Fatalf("expected unknown type to be dropped")
	}
}

type fakeSession struct {
	socket *transporttest.Socket
}

func (s *fakeSession) ID() string { return "session-1" }

func (s *fakeSession) Authenticated() bool { return true }

func (s *fakeSession) Socket() transport.Socket { return s.socket }

type recordingBus struct {
	commands []command.Command
}

func (b *recordingBus) Publish(_ context.Context, cmd command.Command, pc router.PublishContext) error {
	b.commands = append(b.commands, cmd)
	pc.Queue.Enqueue(proto.ServerPong)
	return nil
}

func TestRegisterPublishesEveryClientType(t *testing.T) {
	bus := &recordingBus{}
	r := router.New(router.Deps{Commands: bus})
	Register(r, CommandContext{})

	for _, msgType := range proto.ClientTypes {
		if !r.Handles(msgType) {
			t.Fatalf("expected a handler for %q", msgType)
		}
	}

	session := &fakeSession{socket: transporttest.NewSocket()}
	data, err := proto.Encode(string(proto.TypeChat), "hello")
	if err != nil {
		t.Fatalf("expected frame to encode, got %v", err)
	}
	if err := r.Route(context.Background(), session, data); err != nil {
		t.Fatalf("expected route to succeed, got %v", err)
	}

	if len(bus.commands) != 1 || bus.commands[0].Chat == nil || bus.commands[0].Chat.Message != "hello" {
		t.Fatalf("expected one chat command, got %+v", bus.commands)
	}
	if got := session.socket.Count(proto.ServerPong); got != 1 {
		t.Fatalf("expected the bus reply to be flushed, got %d", got)
	}
}
