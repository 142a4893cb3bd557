package live

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/inboxsight/inboxsight-backend/internal/models"
)

func newTestClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, 16),
	}
}

func receive(t *testing.T, c *Client) *WSMessage {
	t.Helper()
	select {
	case raw := <-c.send:
		var msg WSMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for hub delivery")
		return nil
	}
}

func expectNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected delivery: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func testOpen(messageID string) *models.OpenEvent {
	return &models.OpenEvent{
		ID:            1,
		MessageID:     messageID,
		OpenedAt:      time.Now(),
		SourceAddress: "10.0.0.1",
	}
}

func TestHub_FirehoseDeliversToUnsubscribedClients(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	client := newTestClient(hub)
	hub.Register(client)

	hub.BroadcastOpen(testOpen("aaaa"))

	msg := receive(t, client)
	assert.Equal(t, MessageTypeOpenEvent, msg.Type)
	assert.Equal(t, "aaaa", msg.MessageID)
}

func TestHub_SubscribedClientOnlySeesItsMessage(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	client := newTestClient(hub)
	hub.Register(client)
	hub.Subscribe(client, "aaaa")

	// Give the run loop a beat to process the subscription
	waitForSubscriptions(t, hub, client, 1)

	hub.BroadcastOpen(testOpen("bbbb"))
	expectNothing(t, client)

	hub.BroadcastOpen(testOpen("aaaa"))
	msg := receive(t, client)
	assert.Equal(t, "aaaa", msg.MessageID)
}

func waitForSubscriptions(t *testing.T, hub *Hub, client *Client, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return client.subscriptions == want
	}, time.Second, 5*time.Millisecond)
}

func TestHub_UnsubscribeLastMessageRestoresFirehose(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	client := newTestClient(hub)
	hub.Register(client)

	hub.Subscribe(client, "aaaa")
	waitForSubscriptions(t, hub, client, 1)

	hub.Unsubscribe(client, "aaaa")
	waitForSubscriptions(t, hub, client, 0)

	// Back on the firehose: events for unrelated messages arrive again
	hub.BroadcastOpen(testOpen("bbbb"))
	msg := receive(t, client)
	assert.Equal(t, "bbbb", msg.MessageID)
}

func TestHub_DuplicateSubscribeCountsOnce(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	client := newTestClient(hub)
	hub.Register(client)

	hub.Subscribe(client, "aaaa")
	hub.Subscribe(client, "aaaa")
	waitForSubscriptions(t, hub, client, 1)

	hub.Unsubscribe(client, "aaaa")
	waitForSubscriptions(t, hub, client, 0)
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	client := newTestClient(hub)
	hub.Register(client)
	hub.Unregister(client)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)

	_, open := <-client.send
	assert.False(t, open)
}

func TestHub_SlowConsumerDoesNotBlockBroadcast(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	slow := &Client{hub: hub, send: make(chan []byte)} // no buffer, never drained
	hub.Register(slow)
	fast := newTestClient(hub)
	hub.Register(fast)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 2
	}, time.Second, 5*time.Millisecond)

	hub.BroadcastOpen(testOpen("aaaa"))

	msg := receive(t, fast)
	assert.Equal(t, "aaaa", msg.MessageID)
}

func TestClient_HandleMessage_SubscribeRequiresMessageID(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	client := newTestClient(hub)
	hub.Register(client)

	client.handleMessage([]byte(`{"type":"subscribe"}`))

	msg := receive(t, client)
	assert.Equal(t, MessageTypeError, msg.Type)
	assert.Contains(t, msg.Error, "message_id")
}

func TestClient_HandleMessage_InvalidJSON(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub)

	client.handleMessage([]byte(`not-json`))

	msg := receive(t, client)
	assert.Equal(t, MessageTypeError, msg.Type)
}
