package gateway

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"github.com/jd3nn1s/forzadash/config"
	"github.com/jd3nn1s/forzadash/hub"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// dashboards never send anything meaningful
	maxMessageSize = 4 * 1024
)

var errClosed = errors.New("client closed")

// Client is a websocket dashboard subscribed to the hub. At most one payload
// waits for the writer; a newer payload replaces it.
type Client struct {
	id     string
	conn   net.Conn
	hub    *hub.Hub
	binary bool

	send chan []byte
	pong chan []byte
	done chan struct{}
	once sync.Once

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
}

func NewClient(conn net.Conn, h *hub.Hub, cfg *config.WebSocketConfig) *Client {
	return &Client{
		id:         uuid.New().String(),
		conn:       conn,
		hub:        h,
		binary:     h.Encoder().Binary,
		send:       make(chan []byte, 1),
		pong:       make(chan []byte, 1),
		done:       make(chan struct{}),
		writeWait:  cfg.WriteWait.Duration,
		pongWait:   cfg.PongWait.Duration,
		pingPeriod: cfg.PingPeriod.Duration,
	}
}

// Start subscribes the client and runs its pumps. The write pump owns the
// connection and closes it when the client is closed.
func (c *Client) Start() {
	c.hub.Subscribe(c)
	go c.writePump()
	go c.readPump()
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Send(payload []byte) error {
	select {
	case <-c.done:
		return errClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
	}
	// drop the stale payload the writer has not picked up yet
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- payload:
	default:
	}
	return nil
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *Client) readPump() {
	defer c.hub.Unsubscribe(c)

	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	for {
		header, err := ws.ReadHeader(c.conn)
		if err != nil {
			log.WithField("client", c.id).WithField("err", err).Debug("read failed")
			return
		}
		if header.Length > maxMessageSize {
			log.WithField("size", header.Length).Warn("message too big")
			return
		}
		payload := make([]byte, header.Length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			return
		}
		if header.Masked {
			ws.Cipher(payload, header.Mask, 0)
		}

		switch header.OpCode {
		case ws.OpClose:
			return
		case ws.OpPing:
			// answered by the write pump, only the latest ping needs a reply
			select {
			case <-c.pong:
			default:
			}
			select {
			case c.pong <- payload:
			default:
			}
		case ws.OpPong:
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unsubscribe(c)
		c.Close()
		c.conn.Close()
	}()

	op := ws.OpText
	if c.binary {
		op = ws.OpBinary
	}
	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			c.conn.Write(ws.CompiledClose)
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := wsutil.WriteServerMessage(c.conn, op, msg); err != nil {
				log.WithField("client", c.id).WithField("err", err).Debug("write failed")
				return
			}
		case p := <-c.pong:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := ws.WriteFrame(c.conn, ws.NewPongFrame(p)); err != nil {
				log.WithField("client", c.id).WithField("err", err).Debug("pong failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := wsutil.WriteServerMessage(c.conn, ws.OpPing, nil); err != nil {
				return
			}
		}
	}
}
