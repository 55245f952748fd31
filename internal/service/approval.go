package service

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "github.com/iliyamo/festival-booking/internal/model"
    "github.com/iliyamo/festival-booking/internal/repository"
)

// ApprovalService moves festivals out of PENDING on an administrator's
// decision.
type ApprovalService struct {
    Festivals     FestivalStore
    Colleges      CollegeFinder
    Notifier      Notifier
    Log           zerolog.Logger
    NotifyTimeout time.Duration

    inflight sync.WaitGroup
}

// NewApprovalService wires an ApprovalService.  notifier may be nil.
func NewApprovalService(festivals FestivalStore, colleges CollegeFinder, notifier Notifier, log zerolog.Logger) *ApprovalService {
    return &ApprovalService{
        Festivals:     festivals,
        Colleges:      colleges,
        Notifier:      notifier,
        Log:           log,
        NotifyTimeout: defaultNotifyTimeout,
    }
}

// Approve makes a pending festival public.
func (s *ApprovalService) Approve(ctx context.Context, festivalID uint64) (*model.Festival, error) {
    return s.Decide(ctx, festivalID, model.ApprovalApproved)
}

// Reject closes a pending festival for good.
func (s *ApprovalService) Reject(ctx context.Context, festivalID uint64) (*model.Festival, error) {
    return s.Decide(ctx, festivalID, model.ApprovalRejected)
}

// Decide applies the transition PENDING -> to as a compare-and-set.  Of
// two concurrent decisions on the same festival exactly one wins; the
// other gets a ConflictError.
func (s *ApprovalService) Decide(ctx context.Context, festivalID uint64, to model.ApprovalStatus) (*model.Festival, error) {
    if !model.ApprovalPending.CanTransition(to) {
        return nil, ValidationError{Reason: ReasonInvalidTransition, Msg: fmt.Sprintf("cannot move a festival to %s", to)}
    }
    f, err := s.Festivals.GetByID(ctx, festivalID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, NotFoundError{Reason: ReasonFestivalNotFound, Resource: "festival", Err: err}
        }
        return nil, fmt.Errorf("load festival: %w", err)
    }
    if !f.ApprovalStatus.CanTransition(to) {
        return nil, ConflictError{
            Reason: ReasonInvalidTransition,
            Msg:    fmt.Sprintf("festival is already %s", f.ApprovalStatus),
        }
    }
    ok, err := s.Festivals.TransitionStatus(ctx, festivalID, model.ApprovalPending, to)
    if err != nil {
        return nil, fmt.Errorf("update festival status: %w", err)
    }
    if !ok {
        return nil, ConflictError{Reason: ReasonInvalidTransition, Msg: "festival was decided concurrently"}
    }
    f.ApprovalStatus = to
    f.IsPublic = to.Visible()

    s.Log.Info().
        Uint64("festival_id", f.ID).
        Str("status", string(to)).
        Msg("festival decided")

    s.dispatchDecision(*f)
    return f, nil
}

func (s *ApprovalService) dispatchDecision(f model.Festival) {
    if s.Notifier == nil || s.Colleges == nil {
        return
    }
    timeout := s.NotifyTimeout
    if timeout <= 0 {
        timeout = defaultNotifyTimeout
    }
    s.inflight.Add(1)
    go func() {
        defer s.inflight.Done()
        ctx, cancel := context.WithTimeout(context.Background(), timeout)
        defer cancel()
        college, err := s.Colleges.GetCollege(ctx, f.CollegeID)
        if err != nil {
            s.Log.Warn().Err(err).Uint64("festival_id", f.ID).Msg("festival decision: college lookup failed")
            return
        }
        if err := s.Notifier.NotifyFestivalDecision(ctx, *college, f, f.ApprovalStatus == model.ApprovalApproved); err != nil {
            s.Log.Warn().Err(err).Uint64("festival_id", f.ID).Msg("festival decision not sent")
        }
    }()
}

// Wait blocks until pending decision notifications have finished.
func (s *ApprovalService) Wait() { s.inflight.Wait() }
