package server

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/parlourlabs/holdem/internal/game"
	"github.com/parlourlabs/holdem/internal/room"
)

// Connection is one authenticated session over a websocket. It implements
// room.Subscriber; snapshot delivery never blocks the room, a slow reader
// just misses intermediate frames.
type Connection struct {
	name     string
	ws       *websocket.Conn
	registry *room.Registry
	logger   *log.Logger

	send chan []byte
	done chan struct{}

	room *room.Room // current room, nil until joined
}

// NewConnection wraps an upgraded websocket for a named session.
func NewConnection(name string, ws *websocket.Conn, registry *room.Registry, logger *log.Logger) *Connection {
	return &Connection{
		name:     name,
		ws:       ws,
		registry: registry,
		logger:   logger.WithPrefix("conn").With("player", name),
		send:     make(chan []byte, 32),
		done:     make(chan struct{}),
	}
}

// Deliver implements room.Subscriber.
func (c *Connection) Deliver(snap game.Snapshot) {
	c.enqueue(Message{Type: MessageTypeSnapshot, Snapshot: &snap})
}

func (c *Connection) enqueue(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("marshal failed", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("send buffer full, dropping frame", "type", msg.Type)
	}
}

// Run pumps the connection until it closes, then detaches the player from
// their room via the disconnect path.
func (c *Connection) Run() {
	go c.writeLoop()
	c.readLoop()

	close(c.done)
	if c.room != nil {
		c.room.Disconnect(c.name)
	}
	_ = c.ws.Close()
}

func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Connection) readLoop() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.enqueue(Message{Type: MessageTypeError, Error: "malformed message"})
			continue
		}
		c.handle(msg)
	}
}

func (c *Connection) handle(msg Message) {
	switch msg.Type {
	case MessageTypeJoin:
		r, ok := c.registry.Get(strings.ToUpper(msg.Room))
		if !ok {
			r, ok = c.registry.Get(msg.Room)
		}
		if !ok {
			c.fail("no room with code %s", msg.Room)
			return
		}
		c.switchRoom(r)
		c.enqueue(Message{Type: MessageTypeJoined, Room: r.Code})

	case MessageTypeCreateRoom:
		r, err := c.registry.Create(msg.Name, c.name)
		if err != nil {
			c.fail("%v", err)
			return
		}
		c.switchRoom(r)
		c.enqueue(Message{Type: MessageTypeJoined, Room: r.Code})

	case MessageTypeSeat:
		if c.room == nil {
			c.fail("join a room first")
			return
		}
		seat, err := c.room.Seat(c.name, false)
		if err != nil {
			c.fail("%v", err)
			return
		}
		c.enqueue(Message{Type: MessageTypeSeated, Seat: seat})

	case MessageTypeStart:
		if c.room == nil {
			c.fail("join a room first")
			return
		}
		if err := c.room.Start(); err != nil {
			c.fail("%v", err)
		}

	case MessageTypeStop:
		if c.room != nil {
			c.room.Stop()
		}

	case MessageTypeAction:
		if c.room == nil {
			c.fail("join a room first")
			return
		}
		act, err := parseAction(msg.Action, msg.Amount)
		if err != nil {
			c.fail("%v", err)
			return
		}
		if err := c.room.Apply(c.name, act); err != nil {
			c.fail("%v", err)
		}

	case MessageTypeLeave:
		if c.room == nil {
			return
		}
		if err := c.room.Leave(c.name); err != nil {
			c.fail("%v", err)
			return
		}
		c.room.Unsubscribe(c.name)
		c.room = nil

	case MessageTypeListRooms:
		infos := make([]RoomInfo, 0)
		for _, r := range c.registry.List() {
			infos = append(infos, RoomInfo{
				Code:             r.Code,
				Name:             r.Name,
				Players:          len(r.Players()),
				HandInProgress:   r.HandInProgress(),
				MinutesRemaining: int(r.TimeRemaining().Minutes()),
			})
		}
		c.enqueue(Message{Type: MessageTypeRooms, Rooms: infos})

	case MessageTypeExtend:
		if c.room == nil {
			c.fail("join a room first")
			return
		}
		c.room.Extend(30 * time.Minute)

	case MessageTypeDelete:
		if c.room == nil {
			c.fail("join a room first")
			return
		}
		code := c.room.Code
		if err := c.registry.Delete(code, c.name); err != nil {
			c.fail("%v", err)
			return
		}
		c.room = nil

	default:
		c.fail("unknown message type %q", msg.Type)
	}
}

func (c *Connection) switchRoom(r *room.Room) {
	if c.room != nil {
		c.room.Unsubscribe(c.name)
	}
	c.room = r
	r.Subscribe(c.name, c)
	r.Reconnect(c.name)
	c.Deliver(r.SnapshotFor(c.name))
}

func (c *Connection) fail(format string, args ...any) {
	c.enqueue(Message{Type: MessageTypeError, Error: fmt.Sprintf(format, args...)})
}

// parseAction converts the wire action name into the gateway's form.
// Amount is the total street bet for "bet", ignored otherwise.
func parseAction(name string, amount int) (game.Action, error) {
	switch name {
	case "fold":
		return game.Action{Kind: game.Fold}, nil
	case "check":
		return game.Action{Kind: game.Check}, nil
	case "call":
		return game.Action{Kind: game.Call}, nil
	case "bet", "raise":
		if amount <= 0 {
			return game.Action{}, fmt.Errorf("bet requires a positive amount")
		}
		return game.Action{Kind: game.Bet, Amount: amount}, nil
	default:
		return game.Action{}, fmt.Errorf("unknown action %q", name)
	}
}
