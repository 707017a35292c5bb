package websocket

import (
	"sync"

	"github.com/Haiikyu/reveelbox-sub005/pkg/logger"
)

// Hub 배틀별 WebSocket 구독 관리 및 팬아웃
// 이벤트 원본은 Redis pub/sub이고 Hub는 이 프로세스에 붙은 클라이언트에게만 전달한다
type Hub struct {
	// 배틀별 구독자 (battleID -> clients)
	rooms map[string]map[*Client]bool
	mu    sync.RWMutex

	broadcast  chan *roomMessage
	register   chan *Client
	unregister chan *Client
}

type roomMessage struct {
	battleID string
	data     []byte
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *roomMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run Hub 실행
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToRoom(message)
		}
	}
}

// Dispatch 배틀 채널 이벤트를 해당 배틀 구독자에게 전달
// Redis 구독 브리지가 수신 즉시 호출한다
func (h *Hub) Dispatch(battleID string, data []byte) {
	h.broadcast <- &roomMessage{battleID: battleID, data: data}
}

// registerClient 구독자 등록
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.battleID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[client.battleID] = room
	}
	room[client] = true

	logger.Debug("Battle subscriber registered",
		"battleId", client.battleID,
		"subscribers", len(room),
	)
}

// unregisterClient 구독자 해제 (마지막 구독자가 나가면 방 제거)
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.battleID]
	if !ok || !room[client] {
		return
	}

	delete(room, client)
	close(client.send)

	if len(room) == 0 {
		delete(h.rooms, client.battleID)
	}
}

// broadcastToRoom 방의 모든 구독자에게 전달 (밀린 클라이언트는 끊는다)
func (h *Hub) broadcastToRoom(message *roomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[message.battleID] {
		select {
		case client.send <- message.data:
		default:
			logger.Warn("Subscriber send buffer full, dropping client",
				"battleId", message.battleID,
			)
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

// SubscriberCount 배틀 구독자 수 (테스트/모니터링용)
func (h *Hub) SubscriberCount(battleID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[battleID])
}
