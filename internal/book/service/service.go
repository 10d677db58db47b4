package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/bookshare/server/internal/book/domain"
	bookrepo "github.com/bookshare/server/internal/book/repository"
	commonerrors "github.com/bookshare/server/internal/common/errors"
	"github.com/bookshare/server/internal/common/logger"
	"github.com/bookshare/server/internal/observability/metrics"
)

const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Notifier is the push-side contract: fire-and-forget, at most once. The
// service only calls it after the corresponding store mutation has
// completed, so a notification never races ahead of the state it describes.
type Notifier interface {
	Broadcast(ctx context.Context, event string, payload any)
	DeliverToOwner(ctx context.Context, username, event string, payload any)
}

// DeletedPayload is what a delete broadcast carries; the full record is gone
// by the time the event is routed.
type DeletedPayload struct {
	ID int64 `json:"id"`
}

type CreateInput struct {
	Title       string   `json:"title" validate:"required"`
	Author      string   `json:"author" validate:"required"`
	ReleaseDate string   `json:"releaseDate" validate:"required"`
	Quantity    int      `json:"quantity" validate:"gte=0"`
	IsRentable  bool     `json:"isRentable"`
	Image       *string  `json:"image"`
	Lat         *float64 `json:"lat"`
	Long        *float64 `json:"long"`
}

type UpdateInput struct {
	ID          int64    `json:"id" validate:"required,gt=0"`
	Title       string   `json:"title" validate:"required"`
	Author      string   `json:"author" validate:"required"`
	ReleaseDate string   `json:"releaseDate" validate:"required"`
	Quantity    int      `json:"quantity" validate:"gte=0"`
	IsRentable  bool     `json:"isRentable"`
	Image       *string  `json:"image"`
	Lat         *float64 `json:"lat"`
	Long        *float64 `json:"long"`
}

const defaultPageSize = 20

type Service struct {
	repo     bookrepo.Repository
	notifier Notifier
	validate *validator.Validate
	log      *logger.Logger
}

func NewService(repo bookrepo.Repository, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		validate: validator.New(),
		log:      log,
	}
}

func (s *Service) List(ctx context.Context, username, title string, page, limit int) ([]domain.Book, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, username, bookrepo.Filter{
		Title:  title,
		Offset: offset,
		Limit:  limit,
	})
}

func (s *Service) Get(ctx context.Context, username string, id int64) (domain.Book, error) {
	book, err := s.repo.GetByID(ctx, username, id)
	if err != nil {
		if errors.Is(err, bookrepo.ErrNotFound) {
			// Unknown id and foreign ownership are indistinguishable on
			// purpose: a 404 must not leak that the record exists.
			return domain.Book{}, commonerrors.ErrBookNotFound
		}
		return domain.Book{}, err
	}
	return book, nil
}

// Create inserts a record owned by the caller. There is no way to create a
// public book through this path, so the notification always goes to the
// owner's channel only.
func (s *Service) Create(ctx context.Context, username string, in CreateInput) (domain.Book, error) {
	if err := s.validate.Struct(in); err != nil {
		metrics.BookMutationsTotal.WithLabelValues("create", "invalid").Inc()
		return domain.Book{}, commonerrors.ErrInvalidInput.WithCause(err)
	}

	book := domain.Book{
		Title:       in.Title,
		Author:      in.Author,
		ReleaseDate: in.ReleaseDate,
		Quantity:    in.Quantity,
		IsRentable:  in.IsRentable,
		Owner:       &username,
		Image:       in.Image,
		Lat:         in.Lat,
		Long:        in.Long,
	}

	created, err := s.repo.Insert(ctx, book)
	if err != nil {
		if errors.Is(err, bookrepo.ErrConstraintViolation) {
			metrics.BookMutationsTotal.WithLabelValues("create", "invalid").Inc()
			return domain.Book{}, commonerrors.ErrInvalidInput.WithCause(err)
		}
		metrics.BookMutationsTotal.WithLabelValues("create", "error").Inc()
		return domain.Book{}, err
	}

	metrics.BookMutationsTotal.WithLabelValues("create", "ok").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"book_id":  created.ID,
		"username": username,
		"action":   "book_create",
	}).Info("book created")

	s.notifier.DeliverToOwner(ctx, username, EventCreated, created)
	return created, nil
}

func (s *Service) Update(ctx context.Context, username string, in UpdateInput) (domain.Book, error) {
	if err := s.validate.Struct(in); err != nil {
		metrics.BookMutationsTotal.WithLabelValues("update", "invalid").Inc()
		return domain.Book{}, commonerrors.ErrInvalidInput.WithCause(err)
	}

	rows, err := s.repo.Update(ctx, username, domain.Book{
		ID:          in.ID,
		Title:       in.Title,
		Author:      in.Author,
		ReleaseDate: in.ReleaseDate,
		Quantity:    in.Quantity,
		IsRentable:  in.IsRentable,
		Image:       in.Image,
		Lat:         in.Lat,
		Long:        in.Long,
	})
	if err != nil {
		if errors.Is(err, bookrepo.ErrConstraintViolation) {
			metrics.BookMutationsTotal.WithLabelValues("update", "invalid").Inc()
			return domain.Book{}, commonerrors.ErrInvalidInput.WithCause(err)
		}
		metrics.BookMutationsTotal.WithLabelValues("update", "error").Inc()
		return domain.Book{}, err
	}
	if rows == 0 {
		metrics.BookMutationsTotal.WithLabelValues("update", "miss").Inc()
		return domain.Book{}, commonerrors.ErrNothingChanged
	}

	updated, err := s.repo.GetByID(ctx, username, in.ID)
	if err != nil {
		return domain.Book{}, err
	}

	metrics.BookMutationsTotal.WithLabelValues("update", "ok").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"book_id":  in.ID,
		"username": username,
		"action":   "book_update",
	}).Info("book updated")

	// The routing decision re-reads the stored owner; the caller-supplied
	// payload is untrusted for it.
	owner, err := s.repo.OwnerOf(ctx, in.ID)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"book_id": in.ID,
			"action":  "book_update_owner_reread",
		}).Warnf("owner re-read failed, skipping notification: %v", err)
		return updated, nil
	}

	if owner == nil {
		s.notifier.Broadcast(ctx, EventUpdated, updated)
	} else {
		s.notifier.DeliverToOwner(ctx, *owner, EventUpdated, updated)
	}
	return updated, nil
}

// Delete broadcasts to every open channel regardless of the deleted
// record's owner. That is asymmetric with Update's owner-aware routing;
// the behavior is load-bearing for existing clients and kept as-is.
func (s *Service) Delete(ctx context.Context, username string, id int64) error {
	rows, err := s.repo.Delete(ctx, username, id)
	if err != nil {
		metrics.BookMutationsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}
	if rows == 0 {
		metrics.BookMutationsTotal.WithLabelValues("delete", "miss").Inc()
		return commonerrors.ErrNothingChanged
	}

	metrics.BookMutationsTotal.WithLabelValues("delete", "ok").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"book_id":  id,
		"username": username,
		"action":   "book_delete",
	}).Info("book deleted")

	s.notifier.Broadcast(ctx, EventDeleted, DeletedPayload{ID: id})
	return nil
}
