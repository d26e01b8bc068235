package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	apperrors "github.com/wfunc/fruity-slot/internal/errors"
	"github.com/wfunc/fruity-slot/internal/game"
	"github.com/wfunc/fruity-slot/internal/logger"
	"go.uber.org/zap"
)

// Client WebSocket客户端
type Client struct {
	ID   string          // 客户端ID
	Hub  *Hub            // Hub引用
	Conn *websocket.Conn // WebSocket连接
	Send chan []byte     // 发送通道
}

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.New().String(),
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, hub.opts.SendBufferSize),
	}
}

// ReadPump 读取消息
func (c *Client) ReadPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	opts := c.Hub.opts
	c.Conn.SetReadLimit(opts.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(opts.PongTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(opts.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Error("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			break
		}

		c.handleMessage(ctx, message)
	}
}

// WritePump 写入消息
func (c *Client) WritePump() {
	opts := c.Hub.opts
	ticker := time.NewTicker(opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
			if !ok {
				// Hub关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// 每条消息单独一帧，客户端按帧解析 JSON
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理接收到的消息
func (c *Client) handleMessage(ctx context.Context, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.Hub.logger.Warn("解析WebSocket消息失败",
			zap.String("client_id", c.ID),
			zap.Error(err))
		c.SendError(apperrors.Wrap(err, apperrors.ErrMessageFormat))
		return
	}
	logger.LogWebSocketMessage("receive", msg.Type, len(data))

	switch msg.Type {
	case "":
		c.SendError(apperrors.New(apperrors.ErrMessageFormat, "消息类型不能为空"))

	case MessageTypePing:
		c.SendMessage(MessageTypePong, nil)

	case MessageTypePong:
		c.Hub.logger.Debug("收到pong", zap.String("client_id", c.ID))

	default:
		c.Hub.handleCommand(ctx, c, &msg)
	}
}

// SendError 发送错误消息
func (c *Client) SendError(err error) {
	code := apperrors.GetCode(err)
	c.SendMessage(MessageTypeError, game.ErrorData{Code: code, Message: err.Error()})
}

// SendMessage 发送消息给客户端
func (c *Client) SendMessage(msgType string, data interface{}) error {
	msg, err := newMessage(msgType, c.Hub.dispatcher.Session().ID(), data)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrMessageFormat)
	}
	if err := c.Hub.sendTo(c, msg); err != nil {
		c.Hub.logger.Warn("发送消息失败",
			zap.String("client_id", c.ID),
			zap.String("type", msgType),
			zap.Error(err))
		return err
	}
	return nil
}
