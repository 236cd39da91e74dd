package api

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/keigobridge/service/internal/services"
	"github.com/keigobridge/service/internal/utils"
)

// WebSocket升级器
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 允许所有来源的连接（生产环境中应该限制）
		return true
	},
}

// ProgressHub 转换进度事件的WebSocket分发中心
// 尽力而为的扇出：慢速/断开的客户端直接剔除，绝不阻塞转换流程
type ProgressHub struct {
	clients map[*websocket.Conn]bool
	mutex   sync.Mutex
}

// NewProgressHub 创建进度分发中心
func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		clients: make(map[*websocket.Conn]bool),
	}
}

// Publish 向所有已连接客户端广播进度事件（services.ProgressPublisher实现）
func (hub *ProgressHub) Publish(event services.ProgressEvent) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	for conn := range hub.clients {
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("🔗 [进度推送] 客户端写入失败，移除连接: %v", err)
			conn.Close()
			delete(hub.clients, conn)
		}
	}
}

// ClientCount 当前连接数
func (hub *ProgressHub) ClientCount() int {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	return len(hub.clients)
}

// register 登记新连接
func (hub *ProgressHub) register(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = true
}

// unregister 注销连接
func (hub *ProgressHub) unregister(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	if _, ok := hub.clients[conn]; ok {
		delete(hub.clients, conn)
		conn.Close()
	}
}

// HandleProgressWebSocket 处理进度订阅的WebSocket连接
func (h *Handler) HandleProgressWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("🔗 [进度推送] WebSocket升级失败: %v", err)
		return
	}

	clientID := utils.GenerateRandomString(8)
	h.hub.register(conn)
	log.Printf("🔗 [进度推送] 新客户端已连接: id=%s，当前连接数: %d", clientID, h.hub.ClientCount())

	// 读循环只用于感知断开，收到的消息一律丢弃
	go func() {
		defer func() {
			h.hub.unregister(conn)
			log.Printf("🔗 [进度推送] 客户端已断开: id=%s，当前连接数: %d", clientID, h.hub.ClientCount())
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
