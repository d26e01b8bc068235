package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/fruity-slot/internal/config"
	apperrors "github.com/wfunc/fruity-slot/internal/errors"
	"github.com/wfunc/fruity-slot/internal/game"
	"github.com/wfunc/fruity-slot/internal/logger"
	"go.uber.org/zap"
)

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`                 // 消息类型
	SessionID string          `json:"session_id,omitempty"` // 会话ID
	Data      json.RawMessage `json:"data,omitempty"`       // 消息数据
	Timestamp int64           `json:"timestamp"`            // 毫秒时间戳
}

// MessageType 消息类型
const (
	// 系统消息
	MessageTypeConnected = "connected"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeError     = "error"

	// 指令应答
	MessageTypeResponse = "response"
)

// Options 连接参数
type Options struct {
	ReadBufferSize    int
	WriteBufferSize   int
	MaxMessageSize    int64
	PingInterval      time.Duration
	PongTimeout       time.Duration
	WriteTimeout      time.Duration
	EnableCompression bool
	SendBufferSize    int
}

// DefaultOptions 默认连接参数
func DefaultOptions() Options {
	return Options{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		MaxMessageSize:  64 * 1024,
		PingInterval:    54 * time.Second,
		PongTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		SendBufferSize:  256,
	}
}

// OptionsFromConfig 由配置生成连接参数，未设置的字段使用默认值
func OptionsFromConfig(cfg config.WebSocketConfig) Options {
	o := DefaultOptions()
	if cfg.ReadBufferSize > 0 {
		o.ReadBufferSize = cfg.ReadBufferSize
	}
	if cfg.WriteBufferSize > 0 {
		o.WriteBufferSize = cfg.WriteBufferSize
	}
	if cfg.MaxMessageSize > 0 {
		o.MaxMessageSize = cfg.MaxMessageSize
	}
	if cfg.PingInterval > 0 {
		o.PingInterval = cfg.PingInterval
	}
	if cfg.PongTimeout > 0 {
		o.PongTimeout = cfg.PongTimeout
	}
	if cfg.WriteTimeout > 0 {
		o.WriteTimeout = cfg.WriteTimeout
	}
	o.EnableCompression = cfg.EnableCompression
	// ping 周期必须小于 pong 超时
	if o.PingInterval >= o.PongTimeout {
		o.PingInterval = o.PongTimeout * 9 / 10
	}
	return o
}

// Hub WebSocket连接管理中心
//
// 会话事件会广播给所有连接，客户端发来的指令交给分发器执行。
type Hub struct {
	clients   map[string]*Client
	clientsMu sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	dispatcher  *game.Dispatcher
	unsubscribe func()
	upgrader    websocket.Upgrader
	opts        Options
	logger      *zap.Logger
}

// NewHub 创建Hub并订阅会话事件
func NewHub(dispatcher *game.Dispatcher, opts Options) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger.GetModuleLogger("websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:    opts.ReadBufferSize,
			WriteBufferSize:   opts.WriteBufferSize,
			EnableCompression: opts.EnableCompression,
			// 单机本地玩家，不限制来源
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	h.unsubscribe = dispatcher.Session().Subscribe(h.onEvent)
	return h
}

// Run 运行Hub直到 ctx 结束
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case data := <-h.broadcast:
			h.broadcastMessage(data)
		}
	}
}

// ServeWS 升级HTTP连接并启动读写协程
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败", zap.Error(err))
		return
	}

	client := NewClient(h, conn)
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// onEvent 会话事件监听器，在会话锁内调用，只做序列化和非阻塞投递
func (h *Hub) onEvent(ev game.Event) {
	msg, err := newMessage(string(ev.Type), ev.SessionID, ev.Data)
	if err != nil {
		h.logger.Error("序列化会话事件失败", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}
	msg.Timestamp = ev.Timestamp.UnixMilli()

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("广播队列已满，丢弃事件", zap.String("type", msg.Type))
	}
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接", zap.String("client_id", client.ID))

	client.SendMessage(MessageTypeConnected, map[string]string{"client_id": client.ID})
	client.SendMessage(string(game.EventTypeState), h.dispatcher.Session().Snapshot())
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.Send)
	}
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端断开", zap.String("client_id", client.ID))
}

// broadcastMessage 广播消息
func (h *Hub) broadcastMessage(data []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("客户端发送缓冲区满", zap.String("client_id", client.ID))
		}
	}
}

// handleCommand 执行客户端指令并应答
func (h *Hub) handleCommand(ctx context.Context, client *Client, msg *Message) {
	cmd := game.Command{Type: game.CommandType(msg.Type)}
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			client.SendError(apperrors.Wrap(err, apperrors.ErrMessageFormat))
			return
		}
		cmd.Type = game.CommandType(msg.Type)
	}

	out, err := h.dispatcher.Dispatch(ctx, cmd)
	if err != nil {
		h.logger.Debug("指令执行失败",
			zap.String("client_id", client.ID),
			zap.String("type", msg.Type),
			zap.Error(err))
		client.SendError(err)
		return
	}
	client.SendMessage(MessageTypeResponse, out)
}

// Unregister 注销客户端，Hub 已停止时直接返回
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// shutdown 关闭所有连接并取消订阅
func (h *Hub) shutdown() {
	close(h.done)
	if h.unsubscribe != nil {
		h.unsubscribe()
	}

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.Send)
	}
}

// GetOnlineCount 获取在线连接数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// sendTo 投递到指定客户端
func (h *Hub) sendTo(client *Client, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrMessageFormat)
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	if _, ok := h.clients[client.ID]; !ok {
		return apperrors.New(apperrors.ErrWebSocketClosed, client.ID)
	}

	select {
	case client.Send <- data:
		logger.LogWebSocketMessage("send", message.Type, len(data))
		return nil
	default:
		return apperrors.New(apperrors.ErrWebSocketSend, "发送缓冲区已满")
	}
}

func newMessage(msgType, sessionID string, data interface{}) (*Message, error) {
	msg := &Message{
		Type:      msgType,
		SessionID: sessionID,
		Timestamp: time.Now().UnixMilli(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return msg, nil
}
