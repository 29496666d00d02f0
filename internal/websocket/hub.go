package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/udonggeum-checkout/internal/engine/cart"
	"github.com/ikkim/udonggeum-checkout/pkg/logger"
)

const (
	// CartSnapshotType 장바구니 변경 푸시
	CartSnapshotType = "cart_snapshot"
	// PongType ping 응답
	PongType = "pong"

	sendBufferSize = 64
)

// CartRenderer 스냅샷을 클라이언트에 보낼 페이로드로 변환
type CartRenderer func(shopperID string, snapshot cart.Snapshot) (interface{}, error)

// CartMessage 서버가 보내는 장바구니 메시지
type CartMessage struct {
	Type    string      `json:"type"`
	Version uint64      `json:"version,omitempty"`
	Cart    interface{} `json:"cart,omitempty"`
}

// ClientMessage 클라이언트로부터 받은 메시지
type ClientMessage struct {
	Type string `json:"type"` // ping
}

// Client WebSocket 클라이언트
type Client struct {
	Hub           *Hub
	Conn          *Conn
	ShopperID     string
	Send          chan []byte
	MessageCount  int       // 최근 1초간 받은 메시지 수
	LastResetTime time.Time // 마지막 카운터 리셋 시간
	RateMu        sync.Mutex
}

// Hub 쇼퍼별 WebSocket 연결 관리자
type Hub struct {
	// ShopperID -> []*Client (멀티 디바이스 지원)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	render CartRenderer
	mu     sync.RWMutex
}

// BroadcastMessage 한 쇼퍼의 모든 세션에 보낼 메시지
type BroadcastMessage struct {
	ShopperID string
	Message   []byte
}

// NewHub Hub 생성
func NewHub(render CartRenderer) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
		done:       make(chan struct{}),
		render:     render,
	}
}

// Run Hub 실행. ctx가 끝나면 모든 세션을 닫고 반환
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for shopperID, clientList := range h.clients {
				for _, client := range clientList {
					close(client.Send)
				}
				delete(h.clients, shopperID)
			}
			h.mu.Unlock()
			logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ShopperID] = append(h.clients[client.ShopperID], client)
			sessions := len(h.clients[client.ShopperID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"shopper_id":     client.ShopperID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients[message.ShopperID] {
				select {
				case client.Send <- message.Message:
				default:
					// Send 채널이 막혀있음 - 비동기로 정리
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"shopper_id": message.ShopperID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// remove 세션 하나를 제거. 이미 제거된 세션은 무시
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientList := h.clients[client.ShopperID]
	newList := make([]*Client, 0, len(clientList))
	found := false
	for _, c := range clientList {
		if c == client {
			found = true
			continue
		}
		newList = append(newList, c)
	}
	if !found {
		return
	}

	if len(newList) == 0 {
		delete(h.clients, client.ShopperID)
	} else {
		h.clients[client.ShopperID] = newList
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"shopper_id":         client.ShopperID,
		"remaining_sessions": len(newList),
	})
}

// PublishCart 새 장바구니 스냅샷을 쇼퍼의 모든 세션에 전송
func (h *Hub) PublishCart(shopperID string, snapshot cart.Snapshot) {
	if !h.IsShopperOnline(shopperID) {
		return
	}

	payload, err := h.render(shopperID, snapshot)
	if err != nil {
		logger.Error("Failed to render cart snapshot", err, map[string]interface{}{
			"shopper_id": shopperID,
			"version":    snapshot.Version(),
		})
		return
	}
	data, err := json.Marshal(CartMessage{Type: CartSnapshotType, Version: snapshot.Version(), Cart: payload})
	if err != nil {
		logger.Error("Failed to marshal message", err, nil)
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{ShopperID: shopperID, Message: data}:
	default:
		// 메시지 손실을 허용 (다음 스냅샷이 덮어씀)
		logger.Warn("Broadcast channel full, message dropped", map[string]interface{}{
			"shopper_id": shopperID,
			"version":    snapshot.Version(),
		})
	}
}

// Attach 업그레이드된 연결을 등록하고 읽기/쓰기 루프를 시작. initial은 등록 전에 먼저 큐에 넣음
func (h *Hub) Attach(conn *websocket.Conn, shopperID string, initial interface{}) (*Client, error) {
	client := &Client{
		Hub:           h,
		Conn:          &Conn{Conn: conn},
		ShopperID:     shopperID,
		Send:          make(chan []byte, sendBufferSize),
		LastResetTime: time.Now(),
	}

	if initial != nil {
		data, err := json.Marshal(initial)
		if err != nil {
			return nil, err
		}
		client.Send <- data
	}

	h.Register(client)
	go client.WritePump()
	go client.ReadPump()
	return client, nil
}

// Register 클라이언트 등록
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister 클라이언트 등록 해제
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// IsShopperOnline 쇼퍼의 연결 여부 확인
func (h *Hub) IsShopperOnline(shopperID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[shopperID]
	return ok
}

// HandleClientMessage 클라이언트 메시지 처리
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	// Rate limiting 체크
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"shopper_id": client.ShopperID,
			"count":      count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"shopper_id": client.ShopperID,
			"error":      err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		data, _ := json.Marshal(CartMessage{Type: PongType})
		select {
		case h.broadcast <- &BroadcastMessage{ShopperID: client.ShopperID, Message: data}:
		default:
		}
	}
}
