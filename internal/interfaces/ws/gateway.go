package ws

import (
	"net/http"
	"time"

	summary "tradefeed/internal/domain/entity/summary"
	"tradefeed/internal/infrastructure/broadcast"
	"tradefeed/internal/infrastructure/metrics"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPingInterval = 30 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	maxInboundMessage   = 4096
)

type Config struct {
	PingInterval time.Duration
	WriteTimeout time.Duration
	// CheckOrigin defaults to accepting every origin.
	CheckOrigin func(r *http.Request) bool
}

// Gateway streams every summary published on the hub to a WebSocket peer.
type Gateway struct {
	cfg      Config
	hub      *broadcast.Hub[summary.WindowSummary]
	upgrader websocket.Upgrader
	logger   *logrus.Entry
	metrics  *metrics.Metrics

	// Encode renders a summary for the wire. When it fails the peer gets
	// summary.FallbackPayload instead.
	Encode func(summary.WindowSummary) ([]byte, error)
}

func NewGateway(cfg Config, hub *broadcast.Hub[summary.WindowSummary], logger *logrus.Logger, m *metrics.Metrics) *Gateway {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Gateway{
		cfg: cfg,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger:  logger.WithField("component", "summary_gateway"),
		metrics: m,
		Encode:  summary.Encode,
	}
}

// ServeHTTP upgrades the request and forwards summaries until the peer
// leaves or the hub is closed.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := g.hub.Subscribe()
	defer sub.Close()

	g.metrics.SubscriberConnected()
	defer g.metrics.SubscriberDisconnected()

	log := g.logger.WithField("remote", conn.RemoteAddr().String())
	log.Debug("summary subscriber connected")
	defer log.Debug("summary subscriber disconnected")

	peerGone := make(chan struct{})
	go g.readLoop(conn, peerGone)

	ping := time.NewTicker(g.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-peerGone:
			return
		case value, ok := <-sub.C:
			if !ok {
				g.writeClose(conn)
				return
			}
			if err := g.write(conn, g.encode(value, log)); err != nil {
				log.WithError(err).Debug("summary write failed")
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(g.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}

func (g *Gateway) encode(value summary.WindowSummary, log *logrus.Entry) []byte {
	payload, err := g.Encode(value)
	if err != nil {
		log.WithError(err).Warn("summary serialization failed, sending placeholder")
		return []byte(summary.FallbackPayload)
	}
	return payload
}

func (g *Gateway) write(conn *websocket.Conn, payload []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(g.cfg.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (g *Gateway) writeClose(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "summary feed closed")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(g.cfg.WriteTimeout))
}

// readLoop discards inbound messages and keeps the read deadline moving
// while pongs arrive.
func (g *Gateway) readLoop(conn *websocket.Conn, peerGone chan<- struct{}) {
	defer close(peerGone)
	pongWait := 2 * g.cfg.PingInterval
	conn.SetReadLimit(maxInboundMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
