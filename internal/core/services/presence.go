package services

import (
	"chathub/internal/core/contracts"
	"chathub/internal/core/domain"
	"chathub/internal/platform/metrics"
	"context"
	"log/slog"
	"sync"
	"time"
)

// PresenceRegistry is the process-wide source of truth for which
// identities are reachable right now. Admission and eviction for the same
// identity are serialized on a per-entry lock; there is no global lock
// across identities.
//
// Invariant: an entry exists iff the identity has a live connection. At
// most one connection is recorded per identity; a newer connection
// displaces the older one, which is told why and closed.
type PresenceRegistry struct {
	mu         sync.RWMutex
	entries    map[string]*presenceEntry
	identities domain.IdentityRepository
	awayAfter  time.Duration
	log        *slog.Logger
}

type presenceEntry struct {
	mu           sync.Mutex
	identity     domain.Identity
	client       contracts.Client
	status       domain.PresenceStatus
	lastActivity time.Time
	awayTimer    *time.Timer
	gone         bool
}

func NewPresenceRegistry(
	log *slog.Logger,
	identities domain.IdentityRepository,
	awayAfter time.Duration,
) *PresenceRegistry {
	return &PresenceRegistry{
		log:        log,
		entries:    make(map[string]*presenceEntry),
		identities: identities,
		awayAfter:  awayAfter,
	}
}

// Admit records the connection for the identity and reports whether it is
// the identity's first live connection, which controls the online
// broadcast. A previously recorded connection is displaced: it receives a
// session_replaced envelope and is closed, with no presence transition.
func (r *PresenceRegistry) Admit(ctx context.Context, identity domain.Identity, c contracts.Client) bool {
	for {
		r.mu.Lock()
		e := r.entries[identity.ID]
		if e == nil {
			e = &presenceEntry{status: domain.StatusOffline}
			r.entries[identity.ID] = e
		}
		r.mu.Unlock()

		e.mu.Lock()
		if e.gone {
			// Lost a race with eviction; the map slot is being removed.
			e.mu.Unlock()
			continue
		}
		displaced := e.client
		first := displaced == nil
		e.identity = identity
		e.client = c
		e.status = domain.StatusOnline
		e.lastActivity = time.Now()
		r.rearmLocked(e, identity.ID)
		e.mu.Unlock()

		if displaced != nil && displaced != c {
			push(ctx, displaced, domain.ErrorPush{
				Type:    domain.PushError,
				Code:    domain.CodeSessionReplaced,
				Message: "connection replaced by a newer session",
			})
			displaced.Close()
			r.log.InfoContext(ctx, "presence - displaced previous connection", "identity_id", identity.ID)
		}
		if first {
			metrics.OnlineIdentities.Inc()
			metrics.PresenceTransitions.WithLabelValues(string(domain.StatusOnline)).Inc()
			r.announce(ctx, identity.ID, domain.PresencePush{
				Type:        domain.PushOnline,
				IdentityID:  identity.ID,
				DisplayName: identity.DisplayName,
				AvatarRef:   identity.AvatarRef,
			})
			r.log.InfoContext(ctx, "presence - identity online", "identity_id", identity.ID)
		}
		r.backfill(ctx, identity.ID, c)
		return first
	}
}

// Evict removes the entry if this connection is still the recorded one and
// reports whether the identity is now fully offline. Cleanup always wins:
// notification failures are logged and never block removal.
func (r *PresenceRegistry) Evict(ctx context.Context, identityID string, c contracts.Client) bool {
	r.mu.RLock()
	e := r.entries[identityID]
	r.mu.RUnlock()
	if e == nil {
		return false
	}

	e.mu.Lock()
	if e.gone || e.client != c {
		// A newer connection was admitted for this identity; nothing to do.
		e.mu.Unlock()
		return false
	}
	e.gone = true
	e.status = domain.StatusOffline
	if e.awayTimer != nil {
		e.awayTimer.Stop()
		e.awayTimer = nil
	}
	last := e.lastActivity
	e.mu.Unlock()

	r.mu.Lock()
	if r.entries[identityID] == e {
		delete(r.entries, identityID)
	}
	r.mu.Unlock()

	metrics.OnlineIdentities.Dec()
	metrics.PresenceTransitions.WithLabelValues(string(domain.StatusOffline)).Inc()
	r.announce(ctx, identityID, domain.AbsencePush{
		Type:         domain.PushOffline,
		IdentityID:   identityID,
		LastActivity: last,
	})
	r.log.InfoContext(ctx, "presence - identity offline", "identity_id", identityID)
	return true
}

// Touch refreshes the identity's last-activity timestamp and rearms the
// inactivity window. An away identity is promoted back to online and
// re-announced.
func (r *PresenceRegistry) Touch(ctx context.Context, identityID string) {
	r.mu.RLock()
	e := r.entries[identityID]
	r.mu.RUnlock()
	if e == nil {
		return
	}

	e.mu.Lock()
	if e.gone {
		e.mu.Unlock()
		return
	}
	e.lastActivity = time.Now()
	promoted := e.status == domain.StatusAway
	e.status = domain.StatusOnline
	r.rearmLocked(e, identityID)
	identity := e.identity
	e.mu.Unlock()

	if promoted {
		metrics.PresenceTransitions.WithLabelValues(string(domain.StatusOnline)).Inc()
		r.announce(ctx, identityID, domain.PresencePush{
			Type:        domain.PushOnline,
			IdentityID:  identity.ID,
			DisplayName: identity.DisplayName,
			AvatarRef:   identity.AvatarRef,
		})
	}
}

// MarkAway demotes an online identity to away, keeping the connection
// handle and the last-activity timestamp. Driven by the inactivity timer
// and by explicit activity-stop events.
func (r *PresenceRegistry) MarkAway(ctx context.Context, identityID string) {
	r.mu.RLock()
	e := r.entries[identityID]
	r.mu.RUnlock()
	if e == nil {
		return
	}

	e.mu.Lock()
	if e.gone || e.status != domain.StatusOnline {
		e.mu.Unlock()
		return
	}
	e.status = domain.StatusAway
	last := e.lastActivity
	e.mu.Unlock()

	metrics.PresenceTransitions.WithLabelValues(string(domain.StatusAway)).Inc()
	r.announce(ctx, identityID, domain.AbsencePush{
		Type:         domain.PushAway,
		IdentityID:   identityID,
		LastActivity: last,
	})
	r.log.InfoContext(ctx, "presence - identity away", "identity_id", identityID)
}

// Snapshot reports the current status for each requested identity;
// identities without an entry are offline.
func (r *PresenceRegistry) Snapshot(identityIDs []string) map[string]domain.PresenceStatus {
	out := make(map[string]domain.PresenceStatus, len(identityIDs))
	for _, id := range identityIDs {
		out[id] = r.statusOf(id)
	}
	return out
}

func (r *PresenceRegistry) statusOf(identityID string) domain.PresenceStatus {
	r.mu.RLock()
	e := r.entries[identityID]
	r.mu.RUnlock()
	if e == nil {
		return domain.StatusOffline
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return domain.StatusOffline
	}
	return e.status
}

// ClientOf returns the identity's live connection if one is recorded.
// Away identities still hold a live connection and remain addressable.
func (r *PresenceRegistry) ClientOf(identityID string) (contracts.Client, bool) {
	r.mu.RLock()
	e := r.entries[identityID]
	r.mu.RUnlock()
	if e == nil {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone || e.client == nil {
		return nil, false
	}
	return e.client, true
}

// rearmLocked resets the inactivity timer; the caller holds e.mu. The
// timer is owned by the entry and dies with it.
func (r *PresenceRegistry) rearmLocked(e *presenceEntry, identityID string) {
	if e.awayTimer != nil {
		e.awayTimer.Stop()
	}
	e.awayTimer = time.AfterFunc(r.awayAfter, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r.MarkAway(ctx, identityID)
	})
}

// backfill tells a freshly admitted connection which of its contacts are
// already present, so the client starts from a complete presence picture
// instead of waiting for the next transition.
func (r *PresenceRegistry) backfill(ctx context.Context, identityID string, c contracts.Client) {
	contacts, err := r.identities.ListContacts(ctx, identityID)
	if err != nil {
		r.log.ErrorContext(ctx, "presence - contact lookup failed", "identity_id", identityID, "err", err)
		return
	}
	for _, contact := range contacts {
		r.mu.RLock()
		e := r.entries[contact]
		r.mu.RUnlock()
		if e == nil {
			continue
		}
		e.mu.Lock()
		if e.gone || e.client == nil {
			e.mu.Unlock()
			continue
		}
		status := e.status
		identity := e.identity
		last := e.lastActivity
		e.mu.Unlock()

		var payload any
		switch status {
		case domain.StatusOnline:
			payload = domain.PresencePush{
				Type:        domain.PushOnline,
				IdentityID:  identity.ID,
				DisplayName: identity.DisplayName,
				AvatarRef:   identity.AvatarRef,
			}
		case domain.StatusAway:
			payload = domain.AbsencePush{
				Type:         domain.PushAway,
				IdentityID:   identity.ID,
				LastActivity: last,
			}
		default:
			continue
		}
		if err := push(ctx, c, payload); err != nil {
			r.log.WarnContext(ctx, "presence - backfill failed", "identity_id", identityID, "contact_id", contact, "err", err)
		}
	}
}

// announce fans a presence event out to every contact of the identity who
// is currently reachable. Best-effort by design of the eviction path.
func (r *PresenceRegistry) announce(ctx context.Context, identityID string, payload any) {
	contacts, err := r.identities.ListContacts(ctx, identityID)
	if err != nil {
		r.log.ErrorContext(ctx, "presence - contact lookup failed", "identity_id", identityID, "err", err)
		return
	}
	for _, contact := range contacts {
		if cli, ok := r.ClientOf(contact); ok {
			if err := push(ctx, cli, payload); err != nil {
				r.log.WarnContext(ctx, "presence - notify contact failed", "identity_id", identityID, "contact_id", contact, "err", err)
			}
		}
	}
}
