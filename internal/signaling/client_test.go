package signaling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch(t *testing.T) {
	var (
		registered   bool
		offerFrom    string
		offerPayload json.RawMessage
		senders      []SenderInfo
		gone         string
		errMsg       string
	)
	c := NewClient("ws://unused", "viewer-1", ClientTypeViewer, Handler{
		OnRegistered: func() { registered = true },
		OnOffer: func(from string, payload json.RawMessage) {
			offerFrom = from
			offerPayload = payload
		},
		OnSendersUpdated:     func(list []SenderInfo) { senders = list },
		OnSenderDisconnected: func(id string) { gone = id },
		OnError:              func(msg string) { errMsg = msg },
	})

	c.dispatch(Message{Type: TypeRegistered})
	c.dispatch(Message{Type: TypeOffer, From: "sender-1", Payload: json.RawMessage(`{"sdp":"x"}`)})
	c.dispatch(Message{Type: TypeSendersUpdated, List: []SenderInfo{{ID: "sender-1", Online: true}}})
	c.dispatch(Message{Type: TypeSenderDisconnected, SenderID: "sender-1"})
	c.dispatch(Message{Type: TypeError, Msg: "unknown target"})
	// No handler set for these; must not panic.
	c.dispatch(Message{Type: TypeAnswer})
	c.dispatch(Message{Type: TypePong})
	c.dispatch(Message{Type: "bogus"})

	assert.True(t, registered)
	assert.Equal(t, "sender-1", offerFrom)
	assert.JSONEq(t, `{"sdp":"x"}`, string(offerPayload))
	assert.Equal(t, []SenderInfo{{ID: "sender-1", Online: true}}, senders)
	assert.Equal(t, "sender-1", gone)
	assert.Equal(t, "unknown target", errMsg)
}

func TestSendBeforeConnect(t *testing.T) {
	c := NewClient("ws://unused", "sender-1", ClientTypeSender, Handler{})
	assert.ErrorIs(t, c.SendOffer("viewer-1", nil), ErrNotConnected)
}

func TestConnectRegisters(t *testing.T) {
	upgrader := websocket.Upgrader{}
	got := make(chan Message, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		got <- msg
		_ = conn.WriteJSON(Message{Type: TypeRegistered})
		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	registered := make(chan struct{})
	c := NewClient("ws"+strings.TrimPrefix(srv.URL, "http"), "sender-1", ClientTypeSender, Handler{
		OnRegistered: func() { close(registered) },
	})
	require.NoError(t, c.Connect())
	defer c.Close()

	select {
	case msg := <-got:
		assert.Equal(t, TypeRegister, msg.Type)
		assert.Equal(t, "sender-1", msg.ID)
		assert.Equal(t, ClientTypeSender, msg.ClientType)
		assert.NotZero(t, msg.Timestamp)
	case <-time.After(5 * time.Second):
		t.Fatal("server never received register")
	}

	select {
	case <-registered:
	case <-time.After(5 * time.Second):
		t.Fatal("OnRegistered not called")
	}

	c.Close()
	assert.ErrorIs(t, c.SendAnswer("viewer-1", nil), ErrNotConnected)
}

func TestConnectDialError(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1", "sender-1", ClientTypeSender, Handler{})
	err := c.Connect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signaling dial")
}

func TestFirstOnline(t *testing.T) {
	id, ok := FirstOnline(nil)
	assert.False(t, ok)
	assert.Empty(t, id)

	id, ok = FirstOnline([]SenderInfo{{ID: "a"}, {ID: "", Online: true}, {ID: "b", Online: true}, {ID: "c", Online: true}})
	assert.True(t, ok)
	assert.Equal(t, "b", id)

	_, ok = FirstOnline([]SenderInfo{{ID: "a"}, {ID: "b"}})
	assert.False(t, ok)
}
