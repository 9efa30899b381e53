package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/yusufturaev707/faceid/internal/infrastructure/config"
	"github.com/yusufturaev707/faceid/pkg/logger"
)

// InterfaceBroadcastService defines the live monitor broadcaster interface
type InterfaceBroadcastService interface {
	Broadcaster
	Connect() error
	Disconnect()
	HandleWebSocket(w http.ResponseWriter, r *http.Request) error
}

// monitorMessage is the wire format pushed to monitor screens
type monitorMessage struct {
	Type        string                 `json:"type"`
	TurnstileID uint                   `json:"turnstile_id"`
	Payload     map[string]interface{} `json:"payload"`
}

// selectRequest is what a monitor client sends to pick its turnstile
type selectRequest struct {
	Action      string `json:"action"`
	TurnstileID uint   `json:"turnstile_id"`
}

// BroadcastService fans every terminal decision out on two legs: the
// WebSocket hub for the venue monitor screens, and a best-effort MQTT
// publish per turnstile topic. Both legs swallow their failures; nothing
// here may ever delay or fail the device response.
type BroadcastService struct {
	cfg  *config.Config
	mqtt mqtt.Client

	mu      sync.RWMutex
	clients map[*monitorClient]bool
}

type monitorClient struct {
	conn *websocket.Conn
	send chan []byte

	mu          sync.RWMutex
	turnstileID uint // 0 until the client selects
}

func (c *monitorClient) selected() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.turnstileID
}

func (c *monitorClient) selectTurnstile(id uint) {
	c.mu.Lock()
	c.turnstileID = id
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewBroadcastService creates the broadcaster. Call Connect to bring up the
// MQTT leg; the WebSocket hub needs no setup.
func NewBroadcastService(cfg *config.Config) InterfaceBroadcastService {
	return &BroadcastService{
		cfg:     cfg,
		clients: make(map[*monitorClient]bool),
	}
}

// Connect establishes the MQTT connection. A broker outage only disables
// the MQTT leg; the hub keeps working.
func (s *BroadcastService) Connect() error {
	opts := mqtt.NewClientOptions().
		AddBroker(s.cfg.MQTTBrokerURL).
		SetClientID(s.cfg.MQTTClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(10 * time.Second).
		SetKeepAlive(30 * time.Second)
	if s.cfg.MQTTUsername != "" {
		opts.SetUsername(s.cfg.MQTTUsername)
		opts.SetPassword(s.cfg.MQTTPassword)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warning("mqtt connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		return fmt.Errorf("mqtt connect: %v", token.Error())
	}
	s.mqtt = client
	logger.Info("mqtt connected to %s", s.cfg.MQTTBrokerURL)
	return nil
}

// Disconnect tears down the MQTT connection
func (s *BroadcastService) Disconnect() {
	if s.mqtt != nil && s.mqtt.IsConnected() {
		s.mqtt.Disconnect(250)
	}
}

// Publish fans one decision out to every monitor subscribed to the
// turnstile, plus the MQTT topic. Non-blocking: slow subscribers miss
// messages instead of stalling the hot path.
func (s *BroadcastService) Publish(turnstileID uint, payload map[string]interface{}) {
	msg := monitorMessage{Type: "access_event", TurnstileID: turnstileID, Payload: payload}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("broadcast marshal: %v", err)
		return
	}

	s.mu.RLock()
	for client := range s.clients {
		if client.selected() != turnstileID {
			continue
		}
		select {
		case client.send <- data:
		default:
			// subscriber is not draining, drop the message
		}
	}
	s.mu.RUnlock()

	if s.mqtt != nil && s.mqtt.IsConnected() {
		topic := fmt.Sprintf("access_event/%d", turnstileID)
		token := s.mqtt.Publish(topic, byte(s.cfg.MQTTQoS), s.cfg.MQTTRetained, data)
		go func() {
			if token.WaitTimeout(3*time.Second) && token.Error() != nil {
				logger.Warning("mqtt publish %s: %v", topic, token.Error())
			}
		}()
	}
}

// HandleWebSocket upgrades a monitor connection and runs its pumps. Clients
// send {action: "select_turnstile", turnstile_id} to pick their channel.
func (s *BroadcastService) HandleWebSocket(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &monitorClient{conn: conn, send: make(chan []byte, 32)}
	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	go s.writePump(client)
	go s.readPump(client)
	return nil
}

func (s *BroadcastService) remove(client *monitorClient) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		close(client.send)
	}
	s.mu.Unlock()
	client.conn.Close()
}

func (s *BroadcastService) readPump(client *monitorClient) {
	defer s.remove(client)
	client.conn.SetReadLimit(512)
	client.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var req selectRequest
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}
		if req.Action == "select_turnstile" {
			client.selectTurnstile(req.TurnstileID)
		}
	}
}

func (s *BroadcastService) writePump(client *monitorClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ Broadcaster = (*BroadcastService)(nil)
