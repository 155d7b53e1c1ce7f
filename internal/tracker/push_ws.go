package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"ride-track/internal/general/contracts"
	"ride-track/internal/general/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// WSPushChannel receives status updates over the tracking WebSocket. It
// redials with exponential backoff and re-joins all rooms after each
// reconnect, so a flaky connection degrades latency but never correctness.
type WSPushChannel struct {
	wsURL string
	token string
	log   *logger.Logger

	mu    sync.Mutex
	rooms map[string]struct{}
	conn  *websocket.Conn

	started   bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewWSPushChannel builds a push channel for the given WebSocket URL
// (e.g. "ws://localhost:3002/ws/tracking").
func NewWSPushChannel(wsURL, token string, log *logger.Logger) *WSPushChannel {
	if log == nil {
		log = logger.New("ride-tracker")
	}
	return &WSPushChannel{
		wsURL: wsURL,
		token: token,
		log:   log,
		rooms: make(map[string]struct{}),
		done:  make(chan struct{}),
	}
}

// Start launches the dial/read loop. The sink receives every decoded
// status message; location frames are ignored here.
func (p *WSPushChannel) Start(ctx context.Context, sink func(contracts.PushStatusMessage)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New("push channel already started")
	}
	p.started = true

	go p.run(ctx, sink)
	return nil
}

// Join subscribes to a room, now and after every reconnect.
func (p *WSPushChannel) Join(room string) {
	if room == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rooms[room] = struct{}{}
	if p.conn != nil {
		p.sendFrameLocked(contracts.ClientFrame{Action: contracts.ActionJoinRoom, Room: room})
	}
}

// Leave unsubscribes from a room.
func (p *WSPushChannel) Leave(room string) {
	if room == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.rooms, room)
	if p.conn != nil {
		p.sendFrameLocked(contracts.ClientFrame{Action: contracts.ActionLeaveRoom, Room: room})
	}
}

// Close stops the dial loop and drops the connection. Idempotent.
func (p *WSPushChannel) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		p.mu.Lock()
		if p.conn != nil {
			_ = p.conn.Close()
			p.conn = nil
		}
		p.mu.Unlock()
	})
	return nil
}

func (p *WSPushChannel) run(ctx context.Context, sink func(contracts.PushStatusMessage)) {
	redial := backoff.NewExponentialBackOff()
	redial.InitialInterval = time.Second
	redial.MaxInterval = 30 * time.Second
	redial.MaxElapsedTime = 0 // keep retrying for the life of the tracker

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		default:
		}

		conn, err := p.dial(ctx)
		if err != nil {
			wait := redial.NextBackOff()
			p.log.Error(ctx, "push_dial_failed", "WebSocket dial failed, retrying", err,
				map[string]any{"url": p.wsURL, "retry_in": wait.String()})
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return
			case <-p.done:
				return
			}
		}

		redial.Reset()
		p.attach(conn)
		p.readLoop(ctx, conn, sink)
		p.detach(conn)
	}
}

func (p *WSPushChannel) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	header := map[string][]string{"Authorization": {"Bearer " + p.token}}
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, p.wsURL, header)
	return conn, err
}

// attach publishes the live connection and replays room joins.
func (p *WSPushChannel) attach(conn *websocket.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn = conn
	for room := range p.rooms {
		p.sendFrameLocked(contracts.ClientFrame{Action: contracts.ActionJoinRoom, Room: room})
	}
}

func (p *WSPushChannel) detach(conn *websocket.Conn) {
	p.mu.Lock()
	if p.conn == conn {
		p.conn = nil
	}
	p.mu.Unlock()
	_ = conn.Close()
}

func (p *WSPushChannel) sendFrameLocked(frame contracts.ClientFrame) {
	if err := p.conn.WriteJSON(frame); err != nil {
		p.log.Error(context.Background(), "push_frame_failed",
			"Failed to send room frame", err, map[string]any{"action": frame.Action})
	}
}

func (p *WSPushChannel) readLoop(ctx context.Context, conn *websocket.Conn, sink func(contracts.PushStatusMessage)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		default:
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-p.done:
			default:
				p.log.Debug(ctx, "push_read_closed", "WebSocket read ended, will redial",
					map[string]any{"error": err.Error()})
			}
			return
		}

		// peek the type tag before committing to a message shape
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(payload, &head); err != nil || head.Type != contracts.PushTypeStatusUpdate {
			continue
		}

		var msg contracts.PushStatusMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			p.log.Error(ctx, "push_decode_failed", "Malformed status push ignored", err,
				map[string]any{"size": len(payload)})
			continue
		}
		sink(msg)
	}
}
