package handlers

import (
	"chathub/internal/app/server/ws"
	"chathub/internal/core/domain"
	"chathub/internal/core/services"
	"chathub/internal/platform/metrics"
	"chathub/pkg/logging"
	"chathub/pkg/middleware"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type WSHandler struct {
	presence *services.PresenceRegistry
	rooms    *services.RoomManager
	dispatch *services.Dispatcher
}

func NewWSHandler(
	presence *services.PresenceRegistry,
	rooms *services.RoomManager,
	dispatch *services.Dispatcher,
) *WSHandler {
	return &WSHandler{
		presence: presence,
		rooms:    rooms,
		dispatch: dispatch,
	}
}

// Handler upgrades the already-authenticated request, admits the identity
// into the presence registry, and pumps events until disconnect. Teardown
// order is fixed: room subscriptions and the registry entry are released
// before the offline broadcast can fire.
func (s *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	span := trace.SpanFromContext(r.Context())
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		log.ErrorContext(r.Context(), "ws handler - unauthorised, identity missing")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	span.SetAttributes(attribute.String("identity.id", identity.ID))

	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // tighten later
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade failed", "err", err)
		cancel()
		return
	}
	conn.SetCloseHandler(func(code int, text string) error {
		cancel()
		return nil
	})

	socket := ws.NewWebSocket(ctx, conn)
	client := ws.NewClient(ctx, socket, identity.ID)

	s.presence.Admit(ctx, *identity, client)
	log.InfoContext(ctx, "ws handler - connection admitted", "identity_id", identity.ID)
	defer func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cleanupCancel()
		s.rooms.DropAll(cleanupCtx, client)
		s.presence.Evict(cleanupCtx, identity.ID, client)
		client.Close()
		cancel()
		log.InfoContext(cleanupCtx, "ws handler - connection closed", "identity_id", identity.ID)
	}()

	socket.ReadLoop(func(data []byte) {
		s.handleEvent(ctx, log, client, data)
	})
}

// handleEvent processes one inbound frame. A panic or error inside one
// event answers with an error envelope and leaves the connection usable.
func (s *WSHandler) handleEvent(ctx context.Context, log *slog.Logger, client *ws.RuntimeClient, data []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			log.ErrorContext(ctx, "ws handler - event panic", "identity_id", client.IdentityID(), "panic", rec)
			s.pushError(ctx, client, domain.ErrorPush{
				Type:    domain.PushError,
				Code:    domain.CodeInternal,
				Message: "internal error",
			})
		}
	}()

	evType, ev, err := domain.DecodeEvent(data)
	if err != nil {
		s.pushError(ctx, client, domain.NewErrorPush(err))
		return
	}
	metrics.WsEventsTotal.WithLabelValues(evType).Inc()

	switch ev := ev.(type) {
	case domain.JoinRoomEvent:
		if err := s.rooms.Join(ctx, client, ev.RoomID); err != nil {
			s.pushError(ctx, client, domain.NewErrorPush(err))
			return
		}
		s.push(ctx, client, domain.RoomJoinAckPush{Type: domain.PushRoomJoinAck, RoomID: ev.RoomID})
	case domain.LeaveRoomEvent:
		// fire-and-forget
		s.rooms.Leave(ctx, client, ev.RoomID)
	case domain.SendMessageEvent:
		if _, err := s.dispatch.Send(ctx, client, ev); err != nil {
			s.pushError(ctx, client, domain.NewErrorPush(err))
		}
	case domain.MarkReadEvent:
		if err := s.dispatch.MarkRead(ctx, client, ev); err != nil {
			s.pushError(ctx, client, domain.NewErrorPush(err))
		}
	case domain.DeleteMessageEvent:
		if err := s.dispatch.Delete(ctx, client, ev); err != nil {
			s.pushError(ctx, client, domain.NewErrorPush(err))
		}
	case domain.RequestOnlineListEvent:
		online, err := s.dispatch.OnlineList(ctx, client)
		if err != nil {
			s.pushError(ctx, client, domain.NewErrorPush(err))
			return
		}
		s.push(ctx, client, domain.OnlineListPush{Type: domain.PushOnlineList, Online: online})
	case domain.ActivityPingEvent:
		s.presence.Touch(ctx, client.IdentityID())
	case domain.ActivityStopEvent:
		s.presence.MarkAway(ctx, client.IdentityID())
	}
}

func (s *WSHandler) push(ctx context.Context, client *ws.RuntimeClient, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = client.Send(ctx, data)
}

func (s *WSHandler) pushError(ctx context.Context, client *ws.RuntimeClient, env domain.ErrorPush) {
	s.push(ctx, client, env)
}
