package service

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	shardCount     = 32
	presenceTTL    = 2 * time.Minute // 在线状态过期时间

	roomChannelPrefix = "chatroom:"
	presenceKeyPrefix = "chatroom:online:"
)

// 推送消息类型
const (
	EventRoomMessage = "ROOM_MESSAGE"
	EventTyping      = "TYPING"
	EventPresence    = "PRESENCE"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSMessage struct {
	Type   string      `json:"type"`
	RoomID string      `json:"roomId"`
	Data   interface{} `json:"data"`
}

func RoomChannel(roomID string) string {
	return roomChannelPrefix + roomID
}

type Client struct {
	Hub     *RoomHub
	Conn    *websocket.Conn
	Send    chan []byte
	UserID  uint
	RoomID  string
	Limiter *rate.Limiter // 限流器
}

// readPump 只转发输入状态这类瞬时事件，聊天消息走 REST 接口入库
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.ctx.Done():
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.Uint("userId", c.UserID))
			}
			break
		}

		if !c.Limiter.Allow() {
			continue
		}

		var in WSMessage
		if err := json.Unmarshal(message, &in); err != nil || in.Type != EventTyping {
			continue
		}
		out := WSMessage{Type: EventTyping, RoomID: c.RoomID, Data: map[string]interface{}{"userId": c.UserID}}
		if err := c.Hub.Publish(context.Background(), c.RoomID, out); err != nil {
			logger.Log.Warn("Failed to publish typing event", zap.Error(err))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type shard struct {
	rooms map[string]map[*Client]struct{}
	mu    sync.RWMutex
}

// RoomHub 按房间分发推送。多实例之间通过 redis chatroom:<id> 频道同步；
// 未配置 redis 时直接投递给本机连接。
type RoomHub struct {
	shards     [shardCount]*shard
	register   chan *Client
	unregister chan *Client
	Redis      *redis.Client
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewRoomHub(rdb *redis.Client) *RoomHub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &RoomHub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		Redis:      rdb,
		ctx:        ctx,
		cancel:     cancel,
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &shard{rooms: make(map[string]map[*Client]struct{})}
	}
	return h
}

func (h *RoomHub) getShard(roomID string) *shard {
	f := fnv.New32a()
	f.Write([]byte(roomID))
	return h.shards[f.Sum32()%shardCount]
}

func (h *RoomHub) Run() {
	if h.Redis != nil {
		pubsub := h.Redis.PSubscribe(h.ctx, roomChannelPrefix+"*")
		defer pubsub.Close()
		go func() {
			for msg := range pubsub.Channel() {
				roomID := strings.TrimPrefix(msg.Channel, roomChannelPrefix)
				h.deliver(roomID, []byte(msg.Payload))
			}
		}()
	}

	heartbeat := time.NewTicker(time.Minute)
	defer heartbeat.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			s := h.getShard(client.RoomID)
			s.mu.Lock()
			if s.rooms[client.RoomID] == nil {
				s.rooms[client.RoomID] = make(map[*Client]struct{})
			}
			s.rooms[client.RoomID][client] = struct{}{}
			s.mu.Unlock()
			monitoring.ChatConnections.Inc()
			h.setPresence(client, true)

		case client := <-h.unregister:
			s := h.getShard(client.RoomID)
			s.mu.Lock()
			if clients, ok := s.rooms[client.RoomID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					monitoring.ChatConnections.Dec()
				}
				if len(clients) == 0 {
					delete(s.rooms, client.RoomID)
				}
			}
			s.mu.Unlock()
			h.setPresence(client, false)

		case <-heartbeat.C:
			h.refreshPresence()
		}
	}
}

func (h *RoomHub) setPresence(c *Client, online bool) {
	status := "offline"
	if online {
		status = "online"
	}
	if h.Redis != nil {
		key := presenceKeyPrefix + c.RoomID
		var err error
		if online {
			pipe := h.Redis.Pipeline()
			pipe.SAdd(h.ctx, key, c.UserID)
			pipe.Expire(h.ctx, key, presenceTTL)
			_, err = pipe.Exec(h.ctx)
		} else {
			err = h.Redis.SRem(h.ctx, key, c.UserID).Err()
		}
		if err != nil {
			logger.Log.Error("Redis presence update failed", zap.Error(err))
		}
	}
	msg := WSMessage{Type: EventPresence, RoomID: c.RoomID, Data: map[string]interface{}{"userId": c.UserID, "status": status}}
	if err := h.Publish(h.ctx, c.RoomID, msg); err != nil {
		logger.Log.Warn("Failed to publish presence", zap.Error(err))
	}
}

// refreshPresence 为本机有连接的房间续期
func (h *RoomHub) refreshPresence() {
	if h.Redis == nil {
		return
	}
	pipe := h.Redis.Pipeline()
	count := 0
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.RLock()
		for roomID := range s.rooms {
			pipe.Expire(h.ctx, presenceKeyPrefix+roomID, presenceTTL)
			count++
		}
		s.mu.RUnlock()
	}
	if count > 0 {
		if _, err := pipe.Exec(h.ctx); err != nil {
			logger.Log.Error("Redis pipeline error", zap.Error(err))
		}
	}
}

// Online 返回房间内在线用户
func (h *RoomHub) Online(ctx context.Context, roomID string) ([]uint, error) {
	if h.Redis == nil {
		return h.localMembers(roomID), nil
	}
	members, err := h.Redis.SMembers(ctx, presenceKeyPrefix+roomID).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err == nil {
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}

func (h *RoomHub) localMembers(roomID string) []uint {
	s := h.getShard(roomID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[uint]bool)
	ids := []uint{}
	for c := range s.rooms[roomID] {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			ids = append(ids, c.UserID)
		}
	}
	return ids
}

// Publish 向房间广播
func (h *RoomHub) Publish(ctx context.Context, roomID string, msg WSMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if h.Redis == nil {
		h.deliver(roomID, payload)
		return nil
	}
	if err := h.Redis.Publish(ctx, RoomChannel(roomID), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", RoomChannel(roomID), err)
	}
	return nil
}

func (h *RoomHub) deliver(roomID string, payload []byte) {
	s := h.getShard(roomID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.rooms[roomID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// Stop 关闭所有连接并清理在线状态
func (h *RoomHub) Stop() {
	logger.Log.Info("RoomHub stopping: clearing presence and closing connections...")
	h.cancel()

	closed := 0
	rooms := []string{}
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for roomID, clients := range s.rooms {
			rooms = append(rooms, roomID)
			for c := range clients {
				close(c.Send)
				closed++
			}
			delete(s.rooms, roomID)
		}
		s.mu.Unlock()
	}

	if h.Redis != nil && len(rooms) > 0 {
		pipe := h.Redis.Pipeline()
		for _, roomID := range rooms {
			pipe.Del(context.Background(), presenceKeyPrefix+roomID)
		}
		pipe.Exec(context.Background())
	}

	monitoring.ChatConnections.Set(0)
	logger.Log.Info("RoomHub stopped", zap.Int("closedConnections", closed))
}

func ServeWs(hub *RoomHub, w http.ResponseWriter, r *http.Request, userID uint, roomID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Uint("userId", userID))
		return
	}
	client := &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		UserID:  userID,
		RoomID:  roomID,
		Limiter: rate.NewLimiter(rate.Limit(5), 10), // 每秒5条，允许突发10条
	}
	select {
	case hub.register <- client:
	case <-hub.ctx.Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
