package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventhub/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ticketsMessage(t *testing.T, eventID string, available int) Message {
	t.Helper()
	msg, err := NewMessage(TypeTicketsUpdated, eventID, TicketsUpdated{EventID: eventID, AvailableTickets: available})
	require.NoError(t, err)
	return msg
}

func receive(t *testing.T, sub *Subscription) Message {
	t.Helper()
	select {
	case msg := <-sub.C():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHubDeliversOnlyToTopic(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe("event-a")
	b := hub.Subscribe("event-b")
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	require.NoError(t, hub.Publish(context.Background(), "event-a", ticketsMessage(t, "event-a", 8)))

	msg := receive(t, a)
	var payload TicketsUpdated
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, 8, payload.AvailableTickets)

	select {
	case <-b.C():
		t.Fatal("event-b subscriber received event-a message")
	default:
	}
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("e")
	defer hub.Unsubscribe(sub)

	for i := 0; i < defaultBuffer+5; i++ {
		require.NoError(t, hub.Publish(context.Background(), "e", ticketsMessage(t, "e", i)))
	}

	assert.EqualValues(t, 5, hub.Dropped())
	assert.Len(t, sub.ch, defaultBuffer)
}

func TestUnsubscribeClosesAndIsIdempotent(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("e")
	assert.Equal(t, 1, hub.Subscribers("e"))

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)

	_, open := <-sub.C()
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers("e"))
	require.NoError(t, hub.Publish(context.Background(), "e", ticketsMessage(t, "e", 1)))
}

func TestRedisNotifierRelaysAcrossHubs(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	// two instances share one Redis
	hubA, hubB := NewHub(), NewHub()
	relayA := NewRedisNotifier(client, hubA, logger.Nop())
	relayB := NewRedisNotifier(client, hubB, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = relayB.Run(ctx) }()

	sub := hubB.Subscribe("event-1")
	defer hubB.Unsubscribe(sub)

	require.Eventually(t, func() bool {
		return mr.PubSubNumPat() > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, relayA.Publish(ctx, "event-1", ticketsMessage(t, "event-1", 3)))

	msg := receive(t, sub)
	assert.Equal(t, TypeTicketsUpdated, msg.Type)
	assert.Equal(t, "event-1", msg.EventID)
}

type fixedStock int

func (f fixedStock) Available(context.Context, uuid.UUID) (int, error) {
	return int(f), nil
}

func TestStreamSendsSnapshotThenUpdates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	engine := gin.New()
	SetupRealtimeRoutes(engine.Group("/api/v1"), NewController(hub, fixedStock(10)))

	srv := httptest.NewServer(engine)
	defer srv.Close()

	eventID := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events/"+eventID.String()+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	first := nextData(t, reader)
	assert.Contains(t, first, `"availableTickets":10`)

	require.NoError(t, hub.Publish(ctx, eventID.String(), ticketsMessage(t, eventID.String(), 8)))
	second := nextData(t, reader)
	assert.Contains(t, second, `"type":"eventTicketsUpdated"`)
	assert.Contains(t, second, `"eventId":"`+eventID.String()+`"`)
}

func TestStreamRejectsBadEventID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	SetupRealtimeRoutes(engine.Group("/api/v1"), NewController(NewHub(), fixedStock(0)))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events/not-a-uuid/stream", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// nextData returns the data line of the next SSE frame
func nextData(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	done := make(chan string, 1)
	go func() {
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				done <- ""
				return
			}
			if strings.HasPrefix(line, "data:") {
				done <- strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				return
			}
		}
	}()
	select {
	case data := <-done:
		require.NotEmpty(t, data)
		return data
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for SSE frame")
		return ""
	}
}

func TestNewMessageRejectsUnencodablePayload(t *testing.T) {
	_, err := NewMessage(TypeTicketsUpdated, uuid.NewString(), make(chan int))
	assert.Error(t, err)
}
