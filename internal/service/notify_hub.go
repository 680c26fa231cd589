package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"grading_center_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	// 跨实例广播用的 Redis 频道
	eventChannel = "grading:events"
)

const (
	EventAnswerDisputed = "ANSWER_DISPUTED"
	EventCaseOpened     = "CASE_OPENED"
	EventCaseResolved   = "CASE_RESOLVED"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type hubClient struct {
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// NotifyHub 向在线仲裁人推送阅卷事件（出现争议、仲裁开单/结单）。
// 事件先发布到 Redis，再由每个实例的订阅者广播给本地连接，
// 多实例部署时所有在线仲裁人都能收到
type NotifyHub struct {
	rdb *redis.Client

	mu      sync.RWMutex
	clients map[*hubClient]struct{}

	register   chan *hubClient
	unregister chan *hubClient
	broadcast  chan []byte
	done       chan struct{}
}

func NewNotifyHub(rdb *redis.Client) *NotifyHub {
	return &NotifyHub{
		rdb:        rdb,
		clients:    make(map[*hubClient]struct{}),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

func (h *NotifyHub) Run() {
	if h == nil {
		return
	}

	if h.rdb != nil {
		go h.subscribeLoop()
	}

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// 慢客户端直接丢弃，避免拖垮广播
				}
			}
			h.mu.RUnlock()
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				c.conn.Close()
			}
			h.clients = make(map[*hubClient]struct{})
			h.mu.Unlock()
			return
		}
	}
}

func (h *NotifyHub) Stop() {
	if h == nil {
		return
	}
	close(h.done)
}

func (h *NotifyHub) subscribeLoop() {
	ctx := context.Background()
	sub := h.rdb.Subscribe(ctx, eventChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast <- []byte(msg.Payload)
		case <-h.done:
			return
		}
	}
}

// Publish 发布一条阅卷事件。hub 为 nil（如单测）时为空操作
func (h *NotifyHub) Publish(eventType string, data interface{}) {
	if h == nil {
		return
	}

	payload, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return
	}

	if h.rdb != nil {
		if err := h.rdb.Publish(context.Background(), eventChannel, payload).Err(); err != nil {
			logger.Log.Error("event publish failed", zap.Error(err))
		}
		return
	}

	// 无 Redis 时退化为单实例本地广播
	select {
	case h.broadcast <- payload:
	default:
	}
}

// HandleWS 升级 websocket 连接并挂入 hub
func (h *NotifyHub) HandleWS(ctx *gin.Context, userID uint) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logger.Log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &hubClient{
		conn:   conn,
		send:   make(chan []byte, 16),
		userID: userID,
	}
	h.register <- c

	go c.writePump()
	go c.readPump(h)
}

func (c *hubClient) readPump(h *NotifyHub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		// 推送单向通道，仅消费客户端的控制帧
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("websocket unexpected close", zap.Error(err), zap.Uint("userId", c.userID))
			}
			break
		}
	}
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
