package ws

import (
	log "log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10

	// 单帧内最多合并的事件条数
	maxBatch = 32
)

// Conn 路由层看到的连接抽象，推送非阻塞、失败即视为断开
type Conn interface {
	ID() string
	UserID() string
	Enqueue(frame []byte) bool
	Close()
}

// Client 一条活跃的 Websocket 连接
type Client struct {
	id     string
	userID string
	sock   *websocket.Conn

	send     chan []byte
	coalesce time.Duration
	maxBytes int64

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(userID string, sock *websocket.Conn, sendBuffer int, coalesceWindow time.Duration, maxBytes int64) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Client{
		id:       uuid.NewString(),
		userID:   userID,
		sock:     sock,
		send:     make(chan []byte, sendBuffer),
		coalesce: coalesceWindow,
		maxBytes: maxBytes,
		done:     make(chan struct{}),
	}
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

// Enqueue 非阻塞入队。缓冲满或连接已关闭返回 false，由调用方触发断开清理。
func (c *Client) Enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.sock.Close()
	})
}

// WritePump 独占写协程。同一连接短窗口内的多条推送合并为一个传输帧，
// 批内保持入队顺序。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			batch := c.collectBatch(frame)
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.writeBatch(batch); err != nil {
				log.Debug("ws write failed", "conn", c.id, "user", c.userID, "err", err)
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) collectBatch(first []byte) [][]byte {
	batch := [][]byte{first}
	if c.coalesce <= 0 {
		return batch
	}

	timer := time.NewTimer(c.coalesce)
	defer timer.Stop()
	for len(batch) < maxBatch {
		select {
		case frame := <-c.send:
			batch = append(batch, frame)
		case <-timer.C:
			return batch
		case <-c.done:
			return batch
		}
	}
	return batch
}

func (c *Client) writeBatch(batch [][]byte) error {
	w, err := c.sock.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	for i, frame := range batch {
		if i > 0 {
			if _, err = w.Write([]byte{'\n'}); err != nil {
				return err
			}
		}
		if _, err = w.Write(frame); err != nil {
			return err
		}
	}
	return w.Close()
}

// ReadLoop 阻塞读取上行帧并逐条回调，连接出错即返回
func (c *Client) ReadLoop(onFrame func(frame []byte)) {
	if c.maxBytes > 0 {
		c.sock.SetReadLimit(c.maxBytes)
	}
	_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			return
		}
		_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
		onFrame(data)
	}
}
