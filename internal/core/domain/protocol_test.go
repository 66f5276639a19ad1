package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDecodeEvent(t *testing.T) {
	t.Run("join room", func(t *testing.T) {
		typ, ev, err := DecodeEvent([]byte(`{"type":"join-room","room_id":"r1"}`))
		if err != nil {
			t.Fatalf("DecodeEvent: %v", err)
		}
		if typ != EventJoinRoom {
			t.Errorf("type = %s, want %s", typ, EventJoinRoom)
		}
		join, ok := ev.(JoinRoomEvent)
		if !ok || join.RoomID != "r1" {
			t.Errorf("event = %#v, want JoinRoomEvent{r1}", ev)
		}
	})

	t.Run("send message", func(t *testing.T) {
		_, ev, err := DecodeEvent([]byte(`{"type":"send-message","room_id":"r1","content":"hi"}`))
		if err != nil {
			t.Fatalf("DecodeEvent: %v", err)
		}
		send := ev.(SendMessageEvent)
		if send.RoomID != "r1" || send.Content != "hi" || send.Type != "" {
			t.Errorf("event = %#v", send)
		}
	})

	t.Run("send message with explicit content kind", func(t *testing.T) {
		_, ev, err := DecodeEvent([]byte(`{"type":"send-message","room_id":"r1","content":"cat.png","message_type":"image"}`))
		if err != nil {
			t.Fatalf("DecodeEvent: %v", err)
		}
		if send := ev.(SendMessageEvent); send.Type != "image" {
			t.Errorf("content kind = %q, want image", send.Type)
		}
	})

	t.Run("mark read", func(t *testing.T) {
		_, ev, err := DecodeEvent([]byte(`{"type":"mark-read","room_id":"r1","message_id":"m1"}`))
		if err != nil {
			t.Fatalf("DecodeEvent: %v", err)
		}
		mr := ev.(MarkReadEvent)
		if mr.RoomID != "r1" || mr.MessageID != "m1" {
			t.Errorf("event = %#v", mr)
		}
	})

	t.Run("payload-free events", func(t *testing.T) {
		for _, typ := range []string{EventRequestOnlineList, EventActivityPing, EventActivityStop} {
			if _, _, err := DecodeEvent([]byte(fmt.Sprintf(`{"type":%q}`, typ))); err != nil {
				t.Errorf("DecodeEvent(%s): %v", typ, err)
			}
		}
	})

	t.Run("rejections", func(t *testing.T) {
		cases := []struct {
			name string
			data string
			want error
		}{
			{"invalid json", `{`, ErrMalformedEvent},
			{"missing type", `{"room_id":"r1"}`, ErrMalformedEvent},
			{"unknown type", `{"type":"launch-missiles"}`, ErrUnknownEvent},
			{"join without room", `{"type":"join-room"}`, ErrMalformedEvent},
			{"mark-read without message", `{"type":"mark-read","room_id":"r1"}`, ErrMalformedEvent},
			{"delete without room", `{"type":"delete-message","message_id":"m1"}`, ErrMalformedEvent},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, ev, err := DecodeEvent([]byte(tc.data))
				if !errors.Is(err, tc.want) {
					t.Errorf("err = %v, want %v", err, tc.want)
				}
				if ev != nil {
					t.Errorf("rejected event must carry no payload, got %#v", ev)
				}
			})
		}
	})
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrMissingToken, CodeAuthentication},
		{ErrInvalidToken, CodeAuthentication},
		{ErrIdentityNotFound, CodeAuthentication},
		{ErrEmptyContent, CodeValidation},
		{ErrUnknownEvent, CodeValidation},
		{ErrRoomNotFound, CodeNotFound},
		{ErrMessageNotFound, CodeNotFound},
		{ErrNotAParticipant, CodeForbidden},
		{ErrNotSender, CodeForbidden},
		{ErrStore, CodeStoreFailure},
		{fmt.Errorf("%w: connection refused", ErrStore), CodeStoreFailure},
		{errors.New("something else"), CodeInternal},
	}
	for _, tc := range cases {
		if got := ErrorCode(tc.err); got != tc.want {
			t.Errorf("ErrorCode(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

func TestNewErrorPush(t *testing.T) {
	push := NewErrorPush(ErrNotAParticipant)
	if push.Type != PushError {
		t.Errorf("type = %s, want %s", push.Type, PushError)
	}
	if push.Code != CodeForbidden {
		t.Errorf("code = %s, want %s", push.Code, CodeForbidden)
	}
	if push.Message == "" {
		t.Error("message must not be empty")
	}
}

func TestMessageTypeValid(t *testing.T) {
	for _, typ := range []MessageType{MessageText, MessageImage, MessageFile} {
		if !typ.Valid() {
			t.Errorf("%s should be valid", typ)
		}
	}
	if MessageType("video").Valid() {
		t.Error("unknown type should be invalid")
	}
	if MessageType("").Valid() {
		t.Error("empty type should be invalid")
	}
}

func TestRoomHasParticipant(t *testing.T) {
	room := &Room{Participants: []string{"alice", "bob"}}
	if !room.HasParticipant("alice") {
		t.Error("alice is a participant")
	}
	if room.HasParticipant("eve") {
		t.Error("eve is not a participant")
	}
}
