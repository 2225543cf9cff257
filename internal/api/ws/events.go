package ws

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/kernel"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin policy is enforced by the CORS middleware
	},
}

const writeTimeout = 5 * time.Second

// Handler streams kernel events to observers
type Handler struct {
	k       *kernel.Kernel
	metrics *monitoring.Metrics
	log     *logging.Logger
}

// NewHandler creates the event-stream handler
func NewHandler(k *kernel.Kernel, metrics *monitoring.Metrics, log *logging.Logger) *Handler {
	return &Handler{k: k, metrics: metrics, log: log}
}

// HandleConnection upgrades the connection and forwards kernel events until
// the observer disconnects. A stalled observer loses events; the kernel is
// never blocked by the stream.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	events, cancel := h.k.Events().Subscribe()
	defer cancel()

	h.send(conn, map[string]interface{}{
		"type":    "system",
		"boot_id": h.k.BootID(),
	})

	// Drain and discard client frames so pings and close frames are handled
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if !h.send(conn, e) {
				return
			}
		case <-done:
			return
		}
	}
}

// send marshals with sonic on the hot path; returns false when the
// connection is gone
func (h *Handler) send(conn *websocket.Conn, v interface{}) bool {
	data, err := sonic.Marshal(v)
	if err != nil {
		h.log.Error("event marshal failed", zap.Error(err))
		return true
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.log.Debug("observer disconnected", zap.Error(err))
		return false
	}
	return true
}
