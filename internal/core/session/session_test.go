package session

import (
	"testing"

	"github.com/hwbot/partswatch/internal/core/domain"
)

func TestSessionsAreIsolatedPerChat(t *testing.T) {
	m := NewManager()

	a := m.Get(1)
	a.Command = CommandCustom
	a.Category = domain.CategoryGPU
	a.PriceFrom = 100

	b := m.Get(2)
	if b.Command != CommandNone || b.Category != "" || b.PriceFrom != 0 {
		t.Fatalf("chat 2 inherited chat 1 state: %+v", b)
	}

	b.Command = CommandLow
	if a.Command != CommandCustom {
		t.Fatalf("chat 1 state overwritten by chat 2")
	}

	if got := m.Get(1); got != a {
		t.Fatalf("Get returned a different session for the same chat")
	}
}

func TestResetKeepsChatID(t *testing.T) {
	m := NewManager()
	s := m.Get(7)
	s.Command = CommandHigh
	s.Category = domain.CategoryRAM
	s.PriceFrom = 10
	s.PriceUpTo = 20
	s.Offset = 5

	s.Reset()

	if s.ChatID != 7 {
		t.Fatalf("Reset cleared the chat id")
	}
	if s.Command != CommandNone || s.Category != "" || s.Offset != 0 ||
		s.PriceFrom != 0 || s.PriceUpTo != 0 {
		t.Fatalf("Reset left state behind: %+v", s)
	}
}

func TestDropForgetsSession(t *testing.T) {
	m := NewManager()
	s := m.Get(3)
	s.Command = CommandHistory

	m.Drop(3)

	if got := m.Get(3); got.Command != CommandNone {
		t.Fatalf("Drop did not clear the session")
	}
}
