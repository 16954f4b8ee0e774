package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/farmbe-store/internal/farmstore"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

// ChangeFeed is the subscription side of the shared store.
type ChangeFeed interface {
	Subscribe(fn func(farmstore.Change)) func()
}

// ChangeStream pushes every committed change to connected WebSocket
// clients. Clients that fall sendBuffer messages behind are disconnected
// and are expected to reconnect and re-read.
type ChangeStream struct {
	feed     ChangeFeed
	logger   *zap.Logger
	upgrader websocket.Upgrader
	clients  atomic.Int64
}

func NewChangeStream(feed ChangeFeed, logger *zap.Logger) *ChangeStream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeStream{
		feed:   feed,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// SetCheckOrigin replaces the same-origin check gorilla applies by default.
func (s *ChangeStream) SetCheckOrigin(fn func(r *http.Request) bool) {
	s.upgrader.CheckOrigin = fn
}

func (s *ChangeStream) ClientCount() int64 { return s.clients.Load() }

// ServeHTTP upgrades the connection and streams changes until either side
// goes away. The optional collection query parameter limits the stream to
// changes touching that storage key.
func (s *ChangeStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &streamClient{
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		collection: r.URL.Query().Get("collection"),
		logger:     s.logger,
	}
	unsubscribe := s.feed.Subscribe(c.enqueue)
	total := s.clients.Add(1)
	s.logger.Info("change stream opened", zap.String("remote", r.RemoteAddr), zap.Int64("clients", total))

	go c.readPump()
	c.writePump()

	unsubscribe()
	conn.Close()
	total = s.clients.Add(-1)
	s.logger.Info("change stream closed", zap.String("remote", r.RemoteAddr), zap.Int64("clients", total))
}

type streamClient struct {
	conn       *websocket.Conn
	send       chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	collection string
	logger     *zap.Logger
}

func (c *streamClient) stop() {
	c.closeOnce.Do(func() { close(c.done) })
}

// enqueue runs on the committing goroutine and must never block.
func (c *streamClient) enqueue(change farmstore.Change) {
	if c.collection != "" && !change.Touches(c.collection) {
		return
	}
	data, err := json.Marshal(change)
	if err != nil {
		c.logger.Error("failed to encode change", zap.Error(err))
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.logger.Warn("change stream client too slow, disconnecting")
		c.stop()
	}
}

// readPump discards client messages; it exists to process pongs and notice
// the peer closing.
func (c *streamClient) readPump() {
	defer c.stop()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("change stream closed unexpectedly", zap.Error(err))
			}
			return
		}
	}
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.stop()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.stop()
				return
			}
		}
	}
}
