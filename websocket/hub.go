package websocket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types pushed to connected retailers
const (
	NotificationTypeActivationStatus = "activation_status"
	NotificationTypeRechargeResult   = "recharge_result"
	NotificationTypeWalletUpdate     = "wallet_update"
)

// Notification represents a message sent over WebSocket
type Notification struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userID,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID primitive.ObjectID
	Conn   *websocket.Conn
}

// Hub maintains the set of active clients keyed by user
type Hub struct {
	clients    map[primitive.ObjectID]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[primitive.ObjectID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.clients[client.UserID]; ok && existing == client {
				delete(h.clients, client.UserID)
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// SendToUser sends a message to a specific user
func (h *Hub) SendToUser(userID primitive.ObjectID, notification Notification) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user not connected")
	}

	return client.Conn.WriteJSON(notification)
}

// NotifyActivationStatus pushes an activation status transition to the
// retailer who submitted it. Errors only mean the retailer is not
// currently connected.
func (h *Hub) NotifyActivationStatus(userID primitive.ObjectID, activationData interface{}) error {
	return h.SendToUser(userID, Notification{
		Type:    NotificationTypeActivationStatus,
		Message: "Activation status updated",
		Data:    activationData,
	})
}

// NotifyRechargeResult pushes a completed recharge to the retailer
func (h *Hub) NotifyRechargeResult(userID primitive.ObjectID, rechargeData interface{}) error {
	return h.SendToUser(userID, Notification{
		Type:    NotificationTypeRechargeResult,
		Message: "Recharge completed",
		Data:    rechargeData,
	})
}

// NotifyWalletUpdate pushes a balance change to the affected user
func (h *Hub) NotifyWalletUpdate(userID primitive.ObjectID, walletData interface{}) error {
	return h.SendToUser(userID, Notification{
		Type:    NotificationTypeWalletUpdate,
		Message: "Wallet balance updated",
		Data:    walletData,
	})
}
