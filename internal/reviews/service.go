package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/internal/catalog"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db"
	"github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/db/models"
	pkgerrors "github.com/nguyenxuantruong08032005-tech/BookStoreMWC/pkg/errors"
)

// CreateReviewInput carries the customer review payload.
type CreateReviewInput struct {
	UserID  uuid.UUID
	BookID  uuid.UUID
	Rating  int
	Comment *string
}

// BookRatingDTO summarizes the approved reviews for a book.
type BookRatingDTO struct {
	Reviews       []models.Review `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
	ReviewCount   int64           `json:"review_count"`
}

// Service exposes review submission and moderation.
type Service interface {
	CreateReview(ctx context.Context, input CreateReviewInput) (*models.Review, error)
	GetBookReviews(ctx context.Context, bookID uuid.UUID) (BookRatingDTO, error)

	AdminListPending(ctx context.Context) ([]models.Review, error)
	AdminApprove(ctx context.Context, reviewID uuid.UUID) error
	AdminDelete(ctx context.Context, reviewID uuid.UUID) error
}

type service struct {
	repo  *Repository
	books *catalog.Repository
}

// NewService builds a reviews service with the required dependencies.
func NewService(repo *Repository, books *catalog.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if books == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, books: books}, nil
}

// CreateReview accepts one review per user per book, and only after the
// user has received the book in a delivered order. New reviews start
// unapproved and stay hidden until moderation.
func (s *service) CreateReview(ctx context.Context, input CreateReviewInput) (*models.Review, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.BookID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if input.Comment != nil && strings.TrimSpace(*input.Comment) == "" {
		input.Comment = nil
	}

	if _, err := s.books.FindBookByID(ctx, input.BookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeBookNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}

	delivered, err := s.repo.HasDeliveredOrderWithBook(ctx, input.UserID, input.BookID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check purchase history")
	}
	if !delivered {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "reviews require a delivered order containing the book")
	}

	review := &models.Review{
		ID:      uuid.New(),
		UserID:  input.UserID,
		BookID:  input.BookID,
		Rating:  input.Rating,
		Comment: input.Comment,
	}
	created, err := s.repo.Create(ctx, review)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "book already reviewed")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	return created, nil
}

// GetBookReviews returns the approved reviews with the aggregate rating.
func (s *service) GetBookReviews(ctx context.Context, bookID uuid.UUID) (BookRatingDTO, error) {
	if bookID == uuid.Nil {
		return BookRatingDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "book id is required")
	}
	reviews, err := s.repo.ListApprovedByBook(ctx, bookID)
	if err != nil {
		return BookRatingDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	avg, count, err := s.repo.AverageRating(ctx, bookID)
	if err != nil {
		return BookRatingDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate rating")
	}
	return BookRatingDTO{
		Reviews:       reviews,
		AverageRating: avg,
		ReviewCount:   count,
	}, nil
}

// AdminListPending returns reviews waiting for moderation.
func (s *service) AdminListPending(ctx context.Context) ([]models.Review, error) {
	reviews, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending reviews")
	}
	return reviews, nil
}

// AdminApprove publishes a pending review.
func (s *service) AdminApprove(ctx context.Context, reviewID uuid.UUID) error {
	if reviewID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "review id is required")
	}
	approved, err := s.repo.Approve(ctx, reviewID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve review")
	}
	if !approved {
		if _, err := s.repo.FindByID(ctx, reviewID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
		}
		// Already approved; approving twice is a no-op.
	}
	return nil
}

// AdminDelete removes a review outright.
func (s *service) AdminDelete(ctx context.Context, reviewID uuid.UUID) error {
	if reviewID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "review id is required")
	}
	if _, err := s.repo.FindByID(ctx, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	if err := s.repo.Delete(ctx, reviewID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}
	return nil
}
