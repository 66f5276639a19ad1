package domain

import (
	"encoding/json"
	"time"
)

// Inbound event types accepted on a connection.
const (
	EventJoinRoom          = "join-room"
	EventLeaveRoom         = "leave-room"
	EventSendMessage       = "send-message"
	EventMarkRead          = "mark-read"
	EventDeleteMessage     = "delete-message"
	EventRequestOnlineList = "request-online-list"
	EventActivityPing      = "activity-ping"
	EventActivityStop      = "activity-stop"
)

// Pushed (hub → client) event types.
const (
	PushOnline           = "online"
	PushOffline          = "offline"
	PushAway             = "away"
	PushNewMessage       = "new-message"
	PushMessageDelivered = "message-delivered"
	PushMessageRead      = "message-read"
	PushRoomJoinAck      = "room-join-ack"
	PushRoomLeave        = "room-leave"
	PushOnlineList       = "online-list"
	PushError            = "error"
)

type JoinRoomEvent struct {
	RoomID string `json:"room_id"`
}

type LeaveRoomEvent struct {
	RoomID string `json:"room_id"`
}

type SendMessageEvent struct {
	RoomID  string `json:"room_id"`
	Content string `json:"content"`
	// Type is the content kind (text, image, file), not the envelope
	// discriminator; it defaults to text when absent.
	Type string `json:"message_type,omitempty"`
}

type MarkReadEvent struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
}

type DeleteMessageEvent struct {
	RoomID    string `json:"room_id"`
	MessageID string `json:"message_id"`
}

type RequestOnlineListEvent struct{}

type ActivityPingEvent struct{}

type ActivityStopEvent struct{}

// DecodeEvent parses one inbound frame into its typed variant. Unknown or
// malformed shapes are rejected uniformly before any component logic runs.
func DecodeEvent(data []byte) (string, any, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.Type == "" {
		return "", nil, ErrMalformedEvent
	}
	switch head.Type {
	case EventJoinRoom:
		var ev JoinRoomEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.RoomID == "" {
			return head.Type, nil, ErrMalformedEvent
		}
		return head.Type, ev, nil
	case EventLeaveRoom:
		var ev LeaveRoomEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.RoomID == "" {
			return head.Type, nil, ErrMalformedEvent
		}
		return head.Type, ev, nil
	case EventSendMessage:
		var ev SendMessageEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.RoomID == "" {
			return head.Type, nil, ErrMalformedEvent
		}
		return head.Type, ev, nil
	case EventMarkRead:
		var ev MarkReadEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.RoomID == "" || ev.MessageID == "" {
			return head.Type, nil, ErrMalformedEvent
		}
		return head.Type, ev, nil
	case EventDeleteMessage:
		var ev DeleteMessageEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.RoomID == "" || ev.MessageID == "" {
			return head.Type, nil, ErrMalformedEvent
		}
		return head.Type, ev, nil
	case EventRequestOnlineList:
		return head.Type, RequestOnlineListEvent{}, nil
	case EventActivityPing:
		return head.Type, ActivityPingEvent{}, nil
	case EventActivityStop:
		return head.Type, ActivityStopEvent{}, nil
	default:
		return head.Type, nil, ErrUnknownEvent
	}
}

// PresencePush announces an online transition to a contact.
type PresencePush struct {
	Type        string `json:"type"` // "online"
	IdentityID  string `json:"identity_id"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
}

// AbsencePush announces an away or offline transition with the identity's
// last recorded activity.
type AbsencePush struct {
	Type         string    `json:"type"` // "away" | "offline"
	IdentityID   string    `json:"identity_id"`
	LastActivity time.Time `json:"last_activity"`
}

// NewMessagePush carries the full persisted message record.
type NewMessagePush struct {
	Type    string   `json:"type"` // "new-message"
	RoomID  string   `json:"room_id"`
	Message *Message `json:"message"`
}

// DeliveredPush is the sender's delivery ack carrying the canonical id and
// the timestamp assigned at persistence time.
type DeliveredPush struct {
	Type      string    `json:"type"` // "message-delivered"
	RoomID    string    `json:"room_id"`
	MessageID string    `json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageReadPush struct {
	Type      string    `json:"type"` // "message-read"
	RoomID    string    `json:"room_id"`
	MessageID string    `json:"message_id"`
	ReaderID  string    `json:"reader_id"`
	ReadAt    time.Time `json:"read_at"`
}

type RoomJoinAckPush struct {
	Type   string `json:"type"` // "room-join-ack"
	RoomID string `json:"room_id"`
}

type RoomLeavePush struct {
	Type       string `json:"type"` // "room-leave"
	RoomID     string `json:"room_id"`
	IdentityID string `json:"identity_id"`
}

type OnlineListPush struct {
	Type   string         `json:"type"` // "online-list"
	Online []OnlineEntry `json:"online"`
}

type OnlineEntry struct {
	IdentityID  string `json:"identity_id"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
}

// ErrorPush is the generic error envelope. The connection stays usable
// after it is sent.
type ErrorPush struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func NewErrorPush(err error) ErrorPush {
	return ErrorPush{
		Type:    PushError,
		Code:    ErrorCode(err),
		Message: err.Error(),
	}
}
