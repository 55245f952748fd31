package service

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/iliyamo/festival-booking/internal/model"
    "github.com/iliyamo/festival-booking/internal/repository"
)

// ReviewService lets students rate programs they booked.
type ReviewService struct {
    Reviews  *repository.ReviewRepo
    Programs *repository.ProgramRepo
    Bookings *repository.BookingRepo
}

func NewReviewService(reviews *repository.ReviewRepo, programs *repository.ProgramRepo, bookings *repository.BookingRepo) *ReviewService {
    return &ReviewService{Reviews: reviews, Programs: programs, Bookings: bookings}
}

// Add stores a review.  Ratings run from 1 to 5 and each student may
// review a booked program once.
func (s *ReviewService) Add(ctx context.Context, studentID, programID uint64, rating int, comment string) (*model.Review, error) {
    if rating < 1 || rating > 5 {
        return nil, ValidationError{Reason: ReasonInvalidInput, Msg: "rating must be between 1 and 5"}
    }
    if _, err := s.Programs.GetDetail(ctx, programID); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, NotFoundError{Reason: ReasonProgramNotFound, Resource: "program", Err: err}
        }
        return nil, fmt.Errorf("load program: %w", err)
    }
    booked, err := s.Bookings.ExistsForStudentAndProgram(ctx, studentID, programID)
    if err != nil {
        return nil, fmt.Errorf("check booking: %w", err)
    }
    if !booked {
        return nil, ForbiddenError{Reason: ReasonNotBooked, Msg: "only students who booked this program can review it"}
    }
    rv := &model.Review{
        ProgramID: programID,
        StudentID: studentID,
        Rating:    uint8(rating),
        Comment:   strings.TrimSpace(comment),
    }
    if err := s.Reviews.Create(ctx, rv); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return nil, ConflictError{Reason: ReasonAlreadyReviewed, Msg: "you have already reviewed this program", Err: err}
        }
        return nil, fmt.Errorf("create review: %w", err)
    }
    return rv, nil
}

// List returns a program's reviews.
func (s *ReviewService) List(ctx context.Context, programID uint64) ([]model.Review, error) {
    return s.Reviews.ListByProgram(ctx, programID)
}
