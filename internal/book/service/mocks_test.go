package service

import (
	"context"
	"io"

	"github.com/bookshare/server/internal/book/domain"
	bookrepo "github.com/bookshare/server/internal/book/repository"
	"github.com/bookshare/server/internal/common/logger"
)

type mockBookRepository struct {
	listFunc    func(ctx context.Context, username string, f bookrepo.Filter) ([]domain.Book, error)
	getByIDFunc func(ctx context.Context, username string, id int64) (domain.Book, error)
	insertFunc  func(ctx context.Context, book domain.Book) (domain.Book, error)
	updateFunc  func(ctx context.Context, username string, book domain.Book) (int64, error)
	deleteFunc  func(ctx context.Context, username string, id int64) (int64, error)
	ownerOfFunc func(ctx context.Context, id int64) (*string, error)
}

func (m *mockBookRepository) List(ctx context.Context, username string, f bookrepo.Filter) ([]domain.Book, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, username, f)
	}
	return nil, nil
}

func (m *mockBookRepository) GetByID(ctx context.Context, username string, id int64) (domain.Book, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, username, id)
	}
	return domain.Book{}, bookrepo.ErrNotFound
}

func (m *mockBookRepository) Insert(ctx context.Context, book domain.Book) (domain.Book, error) {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, book)
	}
	book.ID = 1
	return book, nil
}

func (m *mockBookRepository) Update(ctx context.Context, username string, book domain.Book) (int64, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, username, book)
	}
	return 0, nil
}

func (m *mockBookRepository) Delete(ctx context.Context, username string, id int64) (int64, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, username, id)
	}
	return 0, nil
}

func (m *mockBookRepository) OwnerOf(ctx context.Context, id int64) (*string, error) {
	if m.ownerOfFunc != nil {
		return m.ownerOfFunc(ctx, id)
	}
	return nil, nil
}

type notification struct {
	event    string
	username string
	payload  any
}

type mockNotifier struct {
	broadcasts []notification
	deliveries []notification
}

func (m *mockNotifier) Broadcast(ctx context.Context, event string, payload any) {
	m.broadcasts = append(m.broadcasts, notification{event: event, payload: payload})
}

func (m *mockNotifier) DeliverToOwner(ctx context.Context, username, event string, payload any) {
	m.deliveries = append(m.deliveries, notification{event: event, username: username, payload: payload})
}

func setupBookService() (*Service, *mockBookRepository, *mockNotifier) {
	repo := &mockBookRepository{}
	notifier := &mockNotifier{}
	log := logger.New(io.Discard, "test", logger.CRITICAL)
	return NewService(repo, notifier, log), repo, notifier
}

func validCreateInput() CreateInput {
	return CreateInput{
		Title:       "The Go Programming Language",
		Author:      "Donovan, Kernighan",
		ReleaseDate: "2015-10-26",
		Quantity:    2,
		IsRentable:  true,
	}
}

func validUpdateInput(id int64) UpdateInput {
	return UpdateInput{
		ID:          id,
		Title:       "The Go Programming Language",
		Author:      "Donovan, Kernighan",
		ReleaseDate: "2015-10-26",
		Quantity:    1,
	}
}
