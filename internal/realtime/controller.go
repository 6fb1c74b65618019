package realtime

import (
	"context"
	"io"
	"net/http"
	"time"

	"eventhub/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockReader gives the current ticket count sent when a client connects
type StockReader interface {
	Available(ctx context.Context, eventID uuid.UUID) (int, error)
}

type Controller struct {
	hub       *Hub
	stock     StockReader
	heartbeat time.Duration
}

func NewController(hub *Hub, stock StockReader) *Controller {
	return &Controller{hub: hub, stock: stock, heartbeat: 15 * time.Second}
}

// Stream godoc
// @Summary      Subscribe to live updates for an event
// @Tags         events
// @Produce      text/event-stream
// @Param        eventId  path  string  true  "Event ID"
// @Router       /events/{eventId}/stream [get]
func (ctrl *Controller) Stream(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid event ID", nil, nil)
		return
	}

	available, err := ctrl.stock.Available(c.Request.Context(), eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	snapshot, err := NewMessage(TypeTicketsUpdated, eventID.String(), TicketsUpdated{
		EventID:          eventID.String(),
		AvailableTickets: available,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}

	sub := ctrl.hub.Subscribe(eventID.String())
	defer ctrl.hub.Unsubscribe(sub)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent(snapshot.Type, snapshot)
	c.Writer.Flush()

	ticker := time.NewTicker(ctrl.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-sub.C():
			if !ok {
				return false
			}
			c.SSEvent(msg.Type, msg)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
