package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/scholardist/internal/config"
	"github.com/stemsi/scholardist/internal/service"
	ws "github.com/stemsi/scholardist/internal/websocket"
)

const feedPingInterval = 30 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// FeedHandler streams a program's public events over WebSocket.
type FeedHandler struct {
	rdb          *redis.Client
	scholarships *service.ScholarshipService
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(rdb *redis.Client, scholarships *service.ScholarshipService, log zerolog.Logger, allowedOrigins []string) *FeedHandler {
	return &FeedHandler{
		rdb:          rdb,
		scholarships: scholarships,
		log:          log.With().Str("component", "feed_handler").Logger(),
		upgrader:     buildUpgrader(allowedOrigins),
	}
}

// ProgramFeed godoc
// WS /ws/v1/programs/:id/feed
// Relays application, selection and program updates as they are published.
// Clients may send {"action":"ping"} and receive {"event":"pong"}.
func (h *FeedHandler) ProgramFeed(c *gin.Context) {
	id, ok := programID(c)
	if !ok {
		return
	}
	if _, err := h.scholarships.GetProgram(c.Request.Context(), id); err != nil {
		failDomain(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	sub := h.rdb.Subscribe(ctx, config.CacheKey.ProgramEventsChannel(id))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		h.log.Error().Err(err).Int64("program_id", id).Msg("Feed subscribe failed")
		ws.WriteError(conn, "feed unavailable")
		return
	}

	wsLog := h.log.With().Int64("program_id", id).Logger()
	wsLog.Debug().Msg("Feed client connected")
	if err := ws.WriteTyped(conn, ws.FeedEvent{Event: ws.EventSubscribed, ProgramID: id}); err != nil {
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(ws.ReadTimeout))
	})

	pings := make(chan struct{}, 1)
	closed := make(chan struct{})
	go h.readLoop(conn, wsLog, pings, closed)

	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()
	events := sub.Channel()

	// Only this goroutine writes to conn.
	for {
		select {
		case <-closed:
			wsLog.Debug().Msg("Feed client disconnected")
			return
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := ws.WriteRaw(conn, []byte(msg.Payload)); err != nil {
				return
			}
		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// readLoop consumes client frames until the connection drops.
func (h *FeedHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, pings chan<- struct{}, closed chan<- struct{}) {
	defer close(closed)
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		if msg.Action == ws.ActionPing {
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}
