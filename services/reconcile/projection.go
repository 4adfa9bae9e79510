package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"therapy/apperrors"
	"therapy/models"

	"go.uber.org/zap"
)

// Projection is safe for concurrent use.
type Projection struct {
	mu      sync.RWMutex
	src     Source
	selfID  string
	base    Snapshot
	view    Snapshot
	pending map[Token]*mutation
	next    Token
	notices []Notice
	stale   bool
	logger  *zap.Logger
	now     func() time.Time
}

// NewProjection builds an empty projection for the user selfID. Call Refresh
// to load it.
func NewProjection(src Source, selfID string, logger *zap.Logger) *Projection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projection{
		src:     src,
		selfID:  selfID,
		pending: make(map[Token]*mutation),
		stale:   true,
		logger:  logger,
		now:     time.Now,
	}
}

// Available returns the projected bookable slots.
func (p *Projection) Available() []models.Slot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.Slot(nil), p.view.Available...)
}

// Sessions returns the projected sessions.
func (p *Projection) Sessions() []models.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.Session, len(p.view.Sessions))
	for i := range p.view.Sessions {
		out[i] = *p.view.Sessions[i].Clone()
	}
	return out
}

func (p *Projection) Session(id string) (models.Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for i := range p.view.Sessions {
		if p.view.Sessions[i].ID == id {
			return *p.view.Sessions[i].Clone(), true
		}
	}
	return models.Session{}, false
}

// NeedsRefresh reports whether the view should be re-read before it is
// trusted, either because it was never loaded or a mutation was rolled back.
func (p *Projection) NeedsRefresh() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stale
}

// DrainNotices returns and clears the pending notices.
func (p *Projection) DrainNotices() []Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.notices
	p.notices = nil
	return out
}

// BeginBooking removes slotID from the available list until the booking is
// resolved and confirmed by a later read.
func (p *Projection) BeginBooking(slotID string) Token {
	return p.begin(&mutation{kind: mutBook, slotID: slotID})
}

// BeginStatus shows sessionID in the target status until resolved.
func (p *Projection) BeginStatus(sessionID string, status models.SessionStatus) Token {
	return p.begin(&mutation{kind: mutStatus, sessionID: sessionID, status: status})
}

func (p *Projection) begin(m *mutation) Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	m.token = p.next
	m.state = inFlight
	m.startedAt = p.now()
	p.pending[m.token] = m
	p.rebuild()
	return m.token
}

// Resolve records the outcome of the request behind tok. A definite
// rejection rolls the mutation back at once and returns the notice. A
// success, or a failure that leaves the outcome unknown, is kept until the
// next Refresh checks it against the store.
func (p *Projection) Resolve(tok Token, s *models.Session, err error) *Notice {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.pending[tok]
	if !ok {
		return nil
	}
	switch {
	case err == nil:
		m.state = acknowledged
		if s != nil {
			m.session = s.Clone()
			m.sessionID = s.ID
		}
	case apperrors.KindOf(err) == apperrors.KindInternal:
		m.state = unknown
		p.stale = true
		p.logger.Warn("Mutation outcome unknown, will verify on refresh",
			zap.Uint64("token", uint64(tok)), zap.Error(err))
	default:
		n := p.rollback(m, apperrors.KindOf(err), err.Error())
		p.rebuild()
		return &n
	}
	p.rebuild()
	return nil
}

// Refresh replaces the base snapshot with an authoritative read and checks
// every resolved mutation against it; the ones it does not show are rolled
// back with a notice. On a read error the current view is kept and marked
// stale.
func (p *Projection) Refresh(ctx context.Context) error {
	snap, err := p.src.Fetch(ctx)
	if err != nil {
		p.mu.Lock()
		p.stale = true
		p.mu.Unlock()
		return fmt.Errorf("refresh projection: %w", err)
	}
	if snap.ReadAt.IsZero() {
		snap.ReadAt = p.now()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = Snapshot{
		Available: append([]models.Slot(nil), snap.Available...),
		Sessions:  append([]models.Session(nil), snap.Sessions...),
		ReadAt:    snap.ReadAt,
	}
	for _, m := range p.sorted() {
		if m.state == inFlight {
			continue
		}
		if p.durable(m) {
			delete(p.pending, m.token)
			continue
		}
		kind := apperrors.KindConflict
		if m.kind == mutBook {
			kind = apperrors.KindSlotUnavailable
		}
		p.rollback(m, kind, "change was not applied by the server")
	}
	p.stale = false
	p.rebuild()
	return nil
}

// durable reports whether the base snapshot shows m took effect.
func (p *Projection) durable(m *mutation) bool {
	switch m.kind {
	case mutBook:
		for i := range p.base.Sessions {
			s := &p.base.Sessions[i]
			if s.SlotID != m.slotID || s.PatientID != p.selfID {
				continue
			}
			if m.sessionID != "" {
				if s.ID == m.sessionID {
					return true
				}
				continue
			}
			if bookedBy(s, m.startedAt) {
				return true
			}
		}
	case mutStatus:
		for i := range p.base.Sessions {
			s := &p.base.Sessions[i]
			if s.ID == m.sessionID {
				// An acknowledged change may since have been followed by
				// another party's terminal transition.
				if m.state == acknowledged && s.Status.Terminal() {
					return true
				}
				return reached(s.Status, m.status)
			}
		}
	}
	return false
}

// bookingSkew is how far a server's CreatedAt may trail the local clock and
// still count as the outcome of a booking begun at startedAt.
const bookingSkew = 2 * time.Minute

// bookedBy reports whether s can be the session created by a booking whose
// id never reached the client. Earlier sessions on the same slot, and ones
// that are already finished, do not count.
func bookedBy(s *models.Session, startedAt time.Time) bool {
	if s.Status.Terminal() || s.CreatedAt.IsZero() {
		return false
	}
	return !s.CreatedAt.Before(startedAt.Add(-bookingSkew))
}

// reached reports whether current is target or a status only reachable
// through target.
func reached(current, target models.SessionStatus) bool {
	if current == target {
		return true
	}
	return target == models.SessionConfirmed && current == models.SessionCompleted
}

func (p *Projection) rollback(m *mutation, kind apperrors.Kind, msg string) Notice {
	delete(p.pending, m.token)
	p.stale = true
	n := Notice{
		Token:     m.token,
		Kind:      kind,
		SlotID:    m.slotID,
		SessionID: m.sessionID,
		Message:   msg,
		At:        p.now(),
	}
	p.notices = append(p.notices, n)
	p.logger.Warn("Rolled back optimistic change",
		zap.Uint64("token", uint64(m.token)),
		zap.String("kind", string(kind)),
		zap.String("slotID", m.slotID),
		zap.String("sessionID", m.sessionID))
	return n
}

// rebuild derives the view from the base snapshot and the pending mutations.
// The view is always rebuilt into fresh slices so readers never observe a
// partial update.
func (p *Projection) rebuild() {
	hidden := make(map[string]bool)
	statuses := make(map[string]models.SessionStatus)
	var added []models.Session
	for _, m := range p.sorted() {
		switch m.kind {
		case mutBook:
			hidden[m.slotID] = true
			if m.session != nil {
				added = append(added, *m.session)
			}
		case mutStatus:
			statuses[m.sessionID] = m.status
		}
	}

	view := Snapshot{ReadAt: p.base.ReadAt}
	for _, sl := range p.base.Available {
		if !hidden[sl.ID] {
			view.Available = append(view.Available, sl)
		}
	}
	seen := make(map[string]bool)
	for _, s := range p.base.Sessions {
		c := s.Clone()
		if st, ok := statuses[c.ID]; ok {
			c.Status = st
		}
		view.Sessions = append(view.Sessions, *c)
		seen[c.ID] = true
	}
	for _, s := range added {
		if !seen[s.ID] {
			view.Sessions = append(view.Sessions, *s.Clone())
		}
	}
	p.view = view
}

func (p *Projection) sorted() []*mutation {
	out := make([]*mutation, 0, len(p.pending))
	for _, m := range p.pending {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].token < out[j].token })
	return out
}
