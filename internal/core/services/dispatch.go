package services

import (
	"chathub/internal/app/registry"
	"chathub/internal/core/contracts"
	"chathub/internal/core/domain"
	"chathub/internal/platform/metrics"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("dispatcher")

// Dispatcher validates outgoing messages, persists them durably, then fans
// them out to participants who are live right now. The ordering guarantee
// is strict per message: nothing is announced unless persistence
// succeeded, and the sender's ack goes out before any recipient push.
type Dispatcher struct {
	rooms      domain.RoomStore
	messages   domain.MessageRepository
	identities domain.IdentityRepository
	presence   *PresenceRegistry
	roster     *registry.Registry
	summaries  contracts.SummaryCache
	tx         contracts.TxManager
	summaryTTL time.Duration
	log        *slog.Logger
}

func NewDispatcher(
	log *slog.Logger,
	rooms domain.RoomStore,
	messages domain.MessageRepository,
	identities domain.IdentityRepository,
	presence *PresenceRegistry,
	roster *registry.Registry,
	summaries contracts.SummaryCache,
	tx contracts.TxManager,
	summaryTTL time.Duration,
) *Dispatcher {
	return &Dispatcher{
		log:        log,
		rooms:      rooms,
		messages:   messages,
		identities: identities,
		presence:   presence,
		roster:     roster,
		summaries:  summaries,
		tx:         tx,
		summaryTTL: summaryTTL,
	}
}

// Send persists the message and delivers it: delivery ack to the sender
// first, then the full record to every other participant with a live
// connection. Offline participants get nothing; they fetch history later.
func (d *Dispatcher) Send(ctx context.Context, c contracts.Client, ev domain.SendMessageEvent) (*domain.Message, error) {
	ctx, span := tracer.Start(ctx, "Dispatcher.Send", trace.WithAttributes(
		attribute.String("room_id", ev.RoomID),
		attribute.String("sender_id", c.IdentityID()),
	))
	defer span.End()

	if ev.Content == "" {
		return nil, domain.ErrEmptyContent
	}
	mtype := domain.MessageType(ev.Type)
	if ev.Type == "" {
		mtype = domain.MessageText
	}
	if !mtype.Valid() {
		return nil, domain.ErrInvalidMessageType
	}
	rid, err := uuid.Parse(ev.RoomID)
	if err != nil {
		return nil, domain.ErrInvalidRoomID
	}

	room, err := d.rooms.GetRoom(ctx, rid)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	if !room.HasParticipant(c.IdentityID()) {
		return nil, domain.ErrNotAParticipant
	}

	msg := &domain.Message{
		ID:       uuid.New(),
		RoomID:   rid,
		SenderID: c.IdentityID(),
		Content:  ev.Content,
		Type:     mtype,
	}
	if err := d.tx.WithTx(ctx, func(txCtx context.Context) error {
		return d.messages.Append(txCtx, msg)
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		d.log.ErrorContext(ctx, "dispatch - persist failed", "room_id", ev.RoomID, "sender_id", c.IdentityID(), "err", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	msg.ReadBy = []domain.ReadReceipt{{IdentityID: msg.SenderID, ReadAt: msg.CreatedAt}}
	span.SetAttributes(attribute.String("message_id", msg.ID.String()))

	if err := d.summaries.SetLastMessage(ctx, ev.RoomID, domain.RoomSummary{
		MessageID: msg.ID.String(),
		SenderID:  msg.SenderID,
		Preview:   msg.Content,
		Type:      msg.Type,
		CreatedAt: msg.CreatedAt,
	}, d.summaryTTL); err != nil {
		d.log.WarnContext(ctx, "dispatch - summary cache update failed", "room_id", ev.RoomID, "err", err)
	}

	// Ack before fan-out: recipients must never observe a message whose
	// sender has not been confirmed to.
	if err := push(ctx, c, domain.DeliveredPush{
		Type:      domain.PushMessageDelivered,
		RoomID:    ev.RoomID,
		MessageID: msg.ID.String(),
		CreatedAt: msg.CreatedAt,
	}); err != nil {
		d.log.WarnContext(ctx, "dispatch - sender ack failed", "message_id", msg.ID.String(), "err", err)
	}

	out := domain.NewMessagePush{Type: domain.PushNewMessage, RoomID: ev.RoomID, Message: msg}
	for _, participant := range room.Participants {
		if participant == c.IdentityID() {
			continue
		}
		cli, ok := d.presence.ClientOf(participant)
		if !ok {
			continue
		}
		if err := push(ctx, cli, out); err != nil {
			d.log.WarnContext(ctx, "dispatch - recipient push failed", "message_id", msg.ID.String(), "recipient_id", participant, "err", err)
			continue
		}
		metrics.WsMessagesTotal.Inc()
	}
	d.log.InfoContext(ctx, "dispatch - message delivered", "message_id", msg.ID.String(), "room_id", ev.RoomID, "sender_id", c.IdentityID())
	return msg, nil
}

// MarkRead records an idempotent read receipt and broadcasts the read
// event to the room's live subscribers only.
func (d *Dispatcher) MarkRead(ctx context.Context, c contracts.Client, ev domain.MarkReadEvent) error {
	ctx, span := tracer.Start(ctx, "Dispatcher.MarkRead", trace.WithAttributes(
		attribute.String("message_id", ev.MessageID),
		attribute.String("reader_id", c.IdentityID()),
	))
	defer span.End()

	mid, err := uuid.Parse(ev.MessageID)
	if err != nil {
		return domain.ErrInvalidMessageID
	}
	msg, err := d.getMessage(ctx, mid)
	if err != nil {
		return err
	}
	if msg.RoomID.String() != ev.RoomID {
		return domain.ErrMessageNotFound
	}

	now := time.Now()
	if err := d.tx.WithTx(ctx, func(txCtx context.Context) error {
		return d.messages.MarkRead(txCtx, mid, c.IdentityID(), now)
	}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", domain.ErrStore, err)
	}

	data, _ := json.Marshal(domain.MessageReadPush{
		Type:      domain.PushMessageRead,
		RoomID:    ev.RoomID,
		MessageID: ev.MessageID,
		ReaderID:  c.IdentityID(),
		ReadAt:    now,
	})
	d.roster.Broadcast(ctx, ev.RoomID, data, "")
	return nil
}

// Delete removes a message; only the original sender may do so. No
// real-time fan-out: clients observe deletion by re-fetching history. The
// cached last-message summary is demoted.
func (d *Dispatcher) Delete(ctx context.Context, c contracts.Client, ev domain.DeleteMessageEvent) error {
	mid, err := uuid.Parse(ev.MessageID)
	if err != nil {
		return domain.ErrInvalidMessageID
	}
	msg, err := d.getMessage(ctx, mid)
	if err != nil {
		return err
	}
	if msg.RoomID.String() != ev.RoomID {
		return domain.ErrMessageNotFound
	}
	if msg.SenderID != c.IdentityID() {
		return domain.ErrNotSender
	}
	if err := d.tx.WithTx(ctx, func(txCtx context.Context) error {
		return d.messages.Delete(txCtx, mid)
	}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	if err := d.summaries.DropLastMessage(ctx, ev.RoomID); err != nil {
		d.log.WarnContext(ctx, "dispatch - summary demote failed", "room_id", ev.RoomID, "err", err)
	}
	d.log.InfoContext(ctx, "dispatch - message deleted", "message_id", ev.MessageID, "sender_id", c.IdentityID())
	return nil
}

// OnlineList answers "who of my contacts is reachable right now" with
// their display data.
func (d *Dispatcher) OnlineList(ctx context.Context, c contracts.Client) ([]domain.OnlineEntry, error) {
	contacts, err := d.identities.ListContacts(ctx, c.IdentityID())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	statuses := d.presence.Snapshot(contacts)
	out := make([]domain.OnlineEntry, 0, len(contacts))
	for _, id := range contacts {
		if statuses[id] == domain.StatusOffline {
			continue
		}
		identity, err := d.identities.GetIdentity(ctx, id)
		if err != nil {
			d.log.WarnContext(ctx, "dispatch - online list lookup failed", "identity_id", id, "err", err)
			continue
		}
		out = append(out, domain.OnlineEntry{
			IdentityID:  identity.ID,
			DisplayName: identity.DisplayName,
			AvatarRef:   identity.AvatarRef,
		})
	}
	return out, nil
}

func (d *Dispatcher) getMessage(ctx context.Context, mid uuid.UUID) (*domain.Message, error) {
	msg, err := d.messages.GetMessage(ctx, mid)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStore, err)
	}
	return msg, nil
}
