package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPresenceMultiTab(t *testing.T) {
	p := NewPresence()

	tab1 := &Client{UserID: "alice", Send: make(chan []byte, 1)}
	tab2 := &Client{UserID: "alice", Send: make(chan []byte, 1)}

	p.Attach(tab1)
	p.Attach(tab2)
	require.True(t, p.IsOnline("alice"))

	require.False(t, p.Detach(tab1), "player still has a live tab")
	require.True(t, p.IsOnline("alice"))

	require.True(t, p.Detach(tab2), "last tab gone means fully offline")
	require.False(t, p.IsOnline("alice"))
}

func TestPresenceSendSkipsFullBuffers(t *testing.T) {
	p := NewPresence()

	stuck := &Client{UserID: "alice", Send: make(chan []byte, 1)}
	stuck.Send <- []byte("backlog")
	healthy := &Client{UserID: "alice", Send: make(chan []byte, 1)}

	p.Attach(stuck)
	p.Attach(healthy)

	done := make(chan struct{})
	go func() {
		p.Send("alice", Message{Type: MsgGameUpdate})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a full connection buffer")
	}

	// The healthy tab got the message; the stuck tab kept its backlog
	// and the new message was dropped, not queued behind it.
	require.Len(t, healthy.Send, 1)
	require.Equal(t, []byte("backlog"), <-stuck.Send)
	require.Len(t, stuck.Send, 0)
}
