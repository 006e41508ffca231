package controllers

import (
	"net/http"
	"time"

	"github.com/Govind-619/RentSphere/notify"
	"github.com/Govind-619/RentSphere/services"
	"github.com/Govind-619/RentSphere/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer in front of the router
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ListingController serves listing availability and its live event stream
type ListingController struct {
	availability *services.AvailabilityChecker
	hub          *notify.Hub
}

// NewListingController creates the listing handlers
func NewListingController(availability *services.AvailabilityChecker, hub *notify.Hub) *ListingController {
	return &ListingController{availability: availability, hub: hub}
}

// GET /v1/listings/:id/availability?start=&end=
func (lc *ListingController) CheckAvailability(c *gin.Context) {
	utils.LogInfo("CheckAvailability called")
	listingID, ok := pathID(c)
	if !ok {
		return
	}

	start, end, err := utils.ParseDateRange("start", c.Query("start"), "end", c.Query("end"))
	if err != nil {
		utils.BadRequest(c, utils.ErrInvalidDate, err)
		return
	}

	result, err := lc.availability.CheckAvailability(c.Request.Context(), listingID, start, end)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, utils.MsgAvailabilityResult, result)
}

// GET /v1/listings/:id/events (websocket)
func (lc *ListingController) ListingEvents(c *gin.Context) {
	listingID, ok := pathID(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.LogError("WebSocket upgrade error: %v", err)
		return
	}

	sub := lc.hub.Subscribe(listingID)
	go writePump(conn, sub)
	go readPump(conn, lc.hub, sub)
}

// writePump forwards hub messages to the connection and keeps it alive with pings
func writePump(conn *websocket.Conn, sub *notify.Subscriber) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-sub.Messages():
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames until the connection closes, then unsubscribes
func readPump(conn *websocket.Conn, hub *notify.Hub, sub *notify.Subscriber) {
	defer func() {
		hub.Unsubscribe(sub)
		conn.Close()
	}()

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				utils.LogWarn("WebSocket read error: %v", err)
			}
			return
		}
	}
}
