package server

import (
	"github.com/parlourlabs/holdem/internal/game"
)

// MessageType discriminates websocket messages in both directions.
type MessageType string

const (
	// Client -> server.
	MessageTypeJoin       MessageType = "join"
	MessageTypeCreateRoom MessageType = "create_room"
	MessageTypeSeat       MessageType = "seat"
	MessageTypeStart      MessageType = "start"
	MessageTypeStop       MessageType = "stop"
	MessageTypeAction     MessageType = "action"
	MessageTypeLeave      MessageType = "leave"
	MessageTypeListRooms  MessageType = "list_rooms"
	MessageTypeExtend     MessageType = "extend"
	MessageTypeDelete     MessageType = "delete_room"

	// Server -> client.
	MessageTypeSnapshot MessageType = "snapshot"
	MessageTypeRooms    MessageType = "rooms"
	MessageTypeJoined   MessageType = "joined"
	MessageTypeSeated   MessageType = "seated"
	MessageTypeError    MessageType = "error"
)

// Message is the websocket envelope. Fields are populated per type.
type Message struct {
	Type MessageType `json:"type"`

	Room   string `json:"room,omitempty"`
	Name   string `json:"name,omitempty"`
	Action string `json:"action,omitempty"`
	Amount int    `json:"amount,omitempty"`
	Seat   int    `json:"seat,omitempty"`
	Error  string `json:"error,omitempty"`

	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
	Rooms    []RoomInfo     `json:"rooms,omitempty"`
}

// RoomInfo is the public listing entry for a room.
type RoomInfo struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	Players          int    `json:"players"`
	HandInProgress   bool   `json:"hand_in_progress"`
	MinutesRemaining int    `json:"minutes_remaining"` // 0 for permanent rooms
}
