package negotiation

import (
	"context"
	"errors"
	"time"

	"therapy/apperrors"
	"therapy/database"
	sessionRepo "therapy/database/repository/session"
	"therapy/models"
	"therapy/services/notification"

	"go.uber.org/zap"
)

const casAttempts = 3

// Request opens a new request cycle. It is allowed from none and declined,
// and from pending once the cooldown has passed since the last request.
func (n *DefaultNegotiator) Request(ctx context.Context, actor models.Actor, sessionID string) (s *models.Session, err error) {
	defer func() { n.Metrics.ObserveNegotiation("request", err) }()

	s, err = n.mutate(ctx, sessionID, func(s *models.Session) error {
		if err := precondition(s, actor); err != nil {
			return err
		}
		call := &s.Call
		if call.Lifecycle != models.CallScheduled {
			return apperrors.New(apperrors.KindInvalidTransition, "call for session %s is already %s", s.ID, call.Lifecycle)
		}
		now := n.Now().UTC()
		switch call.Negotiation.Status {
		case models.NegotiationNone, models.NegotiationDeclined, "":
		case models.NegotiationPending:
			if call.Negotiation.RequestedAt != nil {
				if wait := n.Cooldown - now.Sub(*call.Negotiation.RequestedAt); wait > 0 {
					return apperrors.New(apperrors.KindRequestInFlight,
						"a call request is already pending; retry in %s", wait.Round(time.Second))
				}
			}
		default:
			return apperrors.New(apperrors.KindInvalidTransition, "call request already %s", call.Negotiation.Status)
		}
		call.Negotiation = models.CallNegotiation{
			Status:      models.NegotiationPending,
			RequestedBy: actor.ID,
			RequestedAt: &now,
		}
		s.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	n.Logger.Info("Call requested", zap.String("sessionId", s.ID), zap.String("by", actor.ID))
	n.publish(models.EventCallRequested, s.Counterparty(actor.ID), s)
	return s, nil
}

// Respond records the counterparty's decision on a pending request.
func (n *DefaultNegotiator) Respond(ctx context.Context, actor models.Actor, sessionID string, decision models.CallDecision) (s *models.Session, err error) {
	defer func() { n.Metrics.ObserveNegotiation("respond", err) }()

	if decision != models.DecisionAccept && decision != models.DecisionDecline {
		return nil, apperrors.New(apperrors.KindInvalidInput, "decision must be accept or decline")
	}
	s, err = n.mutate(ctx, sessionID, func(s *models.Session) error {
		if err := precondition(s, actor); err != nil {
			return err
		}
		neg := &s.Call.Negotiation
		if neg.Status != models.NegotiationPending {
			return apperrors.New(apperrors.KindInvalidTransition, "no pending call request (status %s)", neg.Status)
		}
		if neg.RequestedBy == actor.ID {
			return apperrors.New(apperrors.KindForbidden, "only the counterparty can answer a call request")
		}
		now := n.Now().UTC()
		if decision == models.DecisionAccept {
			neg.Status = models.NegotiationAccepted
		} else {
			neg.Status = models.NegotiationDeclined
		}
		neg.RespondedAt = &now
		s.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := models.EventCallAccepted
	if decision == models.DecisionDecline {
		event = models.EventCallDeclined
	}
	n.Logger.Info("Call request answered", zap.String("sessionId", s.ID), zap.String("by", actor.ID),
		zap.String("decision", string(decision)))
	n.publish(event, s.Call.Negotiation.RequestedBy, s)
	return s, nil
}

// Activate provisions a room for an accepted call. Calling it on an active
// call returns the existing room. The caller first claims the activation
// with a short lease so concurrent callers do not each provision a room; they
// get RequestInFlight until the lease passes. A provider failure releases the
// claim and leaves the negotiation accepted, so activation may be retried.
func (n *DefaultNegotiator) Activate(ctx context.Context, actor models.Actor, sessionID string) (s *models.Session, err error) {
	defer func() { n.Metrics.ObserveNegotiation("activate", err) }()

	s, err = n.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, translate(err, sessionID)
	}
	if done, err := checkActivate(s, actor); err != nil || done {
		return s, err
	}

	var lease time.Time
	_, err = n.mutate(ctx, sessionID, func(s *models.Session) error {
		done, err := checkActivate(s, actor)
		if err != nil {
			return err
		}
		if done {
			return errAlreadyActive
		}
		now := n.Now().UTC()
		if until := s.Call.ActivatingUntil; until != nil && now.Before(*until) {
			return apperrors.New(apperrors.KindRequestInFlight,
				"call room for session %s is being provisioned; retry in %s", s.ID, until.Sub(now).Round(time.Second))
		}
		lease = now.Add(n.activationLease())
		s.Call.ActivatingUntil = &lease
		s.UpdatedAt = now
		return nil
	})
	if errors.Is(err, errAlreadyActive) {
		return n.stored(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	room, err := n.Provider.CreateRoom(ctx)
	if err != nil {
		n.Logger.Warn("Room provisioning failed", zap.String("sessionId", sessionID), zap.Error(err))
		n.releaseClaim(ctx, sessionID, lease)
		if apperrors.KindOf(err) == apperrors.KindProviderUnavailable {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.KindProviderUnavailable, err, "create room")
	}

	s, err = n.mutate(ctx, sessionID, func(s *models.Session) error {
		done, err := checkActivate(s, actor)
		if err != nil {
			return err
		}
		if done {
			return errAlreadyActive
		}
		now := n.Now().UTC()
		s.Call.RoomHandle = room
		s.Call.Lifecycle = models.CallActive
		s.Call.StartedAt = &now
		s.Call.ActivatingUntil = nil
		s.UpdatedAt = now
		return nil
	})
	if errors.Is(err, errAlreadyActive) {
		// Our lease ran out and another caller activated first.
		n.Metrics.ObserveNegotiation("discard_room", nil)
		n.Logger.Warn("Activation lease expired, discarding provisioned room", zap.String("sessionId", sessionID),
			zap.String("discardedRoom", room))
		return n.stored(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	n.Logger.Info("Call activated", zap.String("sessionId", s.ID), zap.String("room", room))
	n.publish(models.EventCallStarted, s.Counterparty(actor.ID), s)
	return s, nil
}

// releaseClaim clears an activation lease that is still ours. Failures are
// logged; the lease expires on its own.
func (n *DefaultNegotiator) releaseClaim(ctx context.Context, sessionID string, lease time.Time) {
	_, err := n.mutate(ctx, sessionID, func(s *models.Session) error {
		until := s.Call.ActivatingUntil
		if until == nil || !until.Equal(lease) {
			return errClaimGone
		}
		s.Call.ActivatingUntil = nil
		return nil
	})
	if err != nil && !errors.Is(err, errClaimGone) {
		n.Logger.Warn("Could not release activation claim", zap.String("sessionId", sessionID), zap.Error(err))
	}
}

func (n *DefaultNegotiator) activationLease() time.Duration {
	if n.ActivationLease <= 0 {
		return DefaultActivationLease
	}
	return n.ActivationLease
}

func (n *DefaultNegotiator) stored(ctx context.Context, sessionID string) (*models.Session, error) {
	s, err := n.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, translate(err, sessionID)
	}
	return s, nil
}

// End closes an active call. Ending an ended call is a no-op.
func (n *DefaultNegotiator) End(ctx context.Context, actor models.Actor, sessionID string) (s *models.Session, err error) {
	defer func() { n.Metrics.ObserveNegotiation("end", err) }()

	s, err = n.mutate(ctx, sessionID, func(s *models.Session) error {
		if !s.IsParty(actor.ID) {
			return apperrors.New(apperrors.KindForbidden, "not a party to session %s", s.ID)
		}
		switch s.Call.Lifecycle {
		case models.CallEnded:
			return errAlreadyEnded
		case models.CallActive:
		default:
			return apperrors.New(apperrors.KindInvalidTransition, "call for session %s is not active", s.ID)
		}
		now := n.Now().UTC()
		s.Call.Lifecycle = models.CallEnded
		s.Call.EndedAt = &now
		s.UpdatedAt = now
		return nil
	})
	if errors.Is(err, errAlreadyEnded) {
		return n.stored(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	n.Logger.Info("Call ended", zap.String("sessionId", s.ID), zap.String("by", actor.ID))
	n.publish(models.EventCallEnded, s.Counterparty(actor.ID), s)
	return s, nil
}

var (
	errAlreadyActive = errors.New("call already active")
	errAlreadyEnded  = errors.New("call already ended")
	errClaimGone     = errors.New("activation claim no longer held")
)

// checkActivate reports done=true when the call already has a room.
func checkActivate(s *models.Session, actor models.Actor) (bool, error) {
	if err := precondition(s, actor); err != nil {
		return false, err
	}
	call := s.Call
	switch {
	case call.Lifecycle == models.CallActive && call.RoomHandle != "":
		return true, nil
	case call.Lifecycle == models.CallEnded:
		return false, apperrors.New(apperrors.KindInvalidTransition, "call for session %s has ended", s.ID)
	case call.Negotiation.Status != models.NegotiationAccepted:
		return false, apperrors.New(apperrors.KindInvalidTransition, "call request is %s, not accepted", call.Negotiation.Status)
	}
	return false, nil
}

// precondition requires a party acting on a confirmed session.
func precondition(s *models.Session, actor models.Actor) error {
	if !s.IsParty(actor.ID) {
		return apperrors.New(apperrors.KindForbidden, "not a party to session %s", s.ID)
	}
	switch {
	case s.Status == models.SessionConfirmed:
		return nil
	case s.Status.Terminal():
		return apperrors.New(apperrors.KindTerminalState, "session %s is %s", s.ID, s.Status)
	}
	return apperrors.New(apperrors.KindInvalidTransition, "session %s is %s, not confirmed", s.ID, s.Status)
}

func (n *DefaultNegotiator) mutate(ctx context.Context, sessionID string, fn func(*models.Session) error) (*models.Session, error) {
	s, err := sessionRepo.Mutate(ctx, n.Sessions, sessionID, casAttempts, fn)
	if err != nil {
		return nil, translate(err, sessionID)
	}
	return s, nil
}

func (n *DefaultNegotiator) publish(eventType, recipientID string, s *models.Session) {
	n.Events.Publish(notification.SessionEvent(eventType, recipientID, s), nil)
}

func translate(err error, sessionID string) error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr), errors.Is(err, errAlreadyActive), errors.Is(err, errAlreadyEnded),
		errors.Is(err, errClaimGone):
		return err
	case errors.Is(err, database.ErrNotFound):
		return apperrors.New(apperrors.KindNotFound, "session %s not found", sessionID)
	case errors.Is(err, database.ErrVersionConflict):
		return apperrors.Wrap(apperrors.KindConflict, err, "session %s", sessionID)
	}
	return apperrors.Wrap(apperrors.KindInternal, err, "session %s", sessionID)
}
