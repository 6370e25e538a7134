package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantguard/internal/domain"
)

// Clients built without a connection exercise the hub loop only.
func newTestClient(h *Hub, userID string, buffer int) *Client {
	return &Client{hub: h, userID: userID, send: make(chan []byte, buffer)}
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	h := NewHub(nil)
	go h.Run()
	defer h.Close()

	a := newTestClient(h, "a", 4)
	b := newTestClient(h, "b", 4)
	require.True(t, h.QueueMessage(HubMessage{Type: "register", Client: a}))
	require.True(t, h.QueueMessage(HubMessage{Type: "register", Client: b}))
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	h.Publish(domain.PredictionRecord{ID: "p1", DiseaseName: "Apple___Apple_scab"})

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.send:
			var msg FeedMessage
			require.NoError(t, json.Unmarshal(data, &msg))
			assert.Equal(t, "p1", msg.Prediction.ID)
		case <-time.After(time.Second):
			t.Fatalf("client %s received nothing", c.userID)
		}
	}
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	h := NewHub(nil)
	go h.Run()
	defer h.Close()

	slow := newTestClient(h, "slow", 1)
	require.True(t, h.QueueMessage(HubMessage{Type: "register", Client: slow}))
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.Publish(domain.PredictionRecord{ID: "1"})
	h.Publish(domain.PredictionRecord{ID: "2"})

	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_CloseRejectsMessages(t *testing.T) {
	h := NewHub(nil)
	go h.Run()
	h.Close()
	assert.False(t, h.QueueMessage(HubMessage{Type: "broadcast", RawData: []byte("{}")}))
}
