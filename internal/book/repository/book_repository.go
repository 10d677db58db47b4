package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/bookshare/server/internal/book/domain"
)

var (
	ErrNotFound = pgx.ErrNoRows

	// ErrConstraintViolation wraps NOT NULL and CHECK violations; the
	// service maps it to invalid input.
	ErrConstraintViolation = errors.New("constraint violation")
)

type Filter struct {
	Title  string
	Offset int
	Limit  int
}

// Repository is the book store. Every read and write is scoped to rows the
// caller may touch: their own plus public ones (owner IS NULL).
type Repository interface {
	List(ctx context.Context, username string, f Filter) ([]domain.Book, error)
	GetByID(ctx context.Context, username string, id int64) (domain.Book, error)
	Insert(ctx context.Context, book domain.Book) (domain.Book, error)
	Update(ctx context.Context, username string, book domain.Book) (int64, error)
	Delete(ctx context.Context, username string, id int64) (int64, error)
	OwnerOf(ctx context.Context, id int64) (*string, error)
}

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const bookColumns = `id, title, author, release_date, quantity, is_rentable, owner, image, lat, long`

func (r *PgRepository) List(ctx context.Context, username string, f Filter) ([]domain.Book, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT `+bookColumns+` FROM books
		 WHERE (owner = $1 OR owner IS NULL)
		   AND ($2 = '' OR title ILIKE '%' || $2 || '%')
		 ORDER BY id
		 LIMIT $3 OFFSET $4`,
		username,
		f.Title,
		f.Limit,
		f.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]domain.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

func (r *PgRepository) GetByID(ctx context.Context, username string, id int64) (domain.Book, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+bookColumns+` FROM books
		 WHERE id = $1 AND (owner = $2 OR owner IS NULL)`,
		id,
		username,
	)
	return scanBook(row)
}

func (r *PgRepository) Insert(ctx context.Context, book domain.Book) (domain.Book, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO books (title, author, release_date, quantity, is_rentable, owner, image, lat, long)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		book.Title,
		book.Author,
		book.ReleaseDate,
		book.Quantity,
		book.IsRentable,
		book.Owner,
		book.Image,
		book.Lat,
		book.Long,
	)
	if err := row.Scan(&book.ID); err != nil {
		return domain.Book{}, mapConstraintError(err)
	}
	return book, nil
}

// Update never touches the owner column: ownership is immutable after
// creation.
func (r *PgRepository) Update(ctx context.Context, username string, book domain.Book) (int64, error) {
	ct, err := r.pool.Exec(
		ctx,
		`UPDATE books
		 SET title = $3, author = $4, release_date = $5, quantity = $6,
		     is_rentable = $7, image = $8, lat = $9, long = $10
		 WHERE id = $1 AND (owner = $2 OR owner IS NULL)`,
		book.ID,
		username,
		book.Title,
		book.Author,
		book.ReleaseDate,
		book.Quantity,
		book.IsRentable,
		book.Image,
		book.Lat,
		book.Long,
	)
	if err != nil {
		return 0, mapConstraintError(err)
	}
	return ct.RowsAffected(), nil
}

func (r *PgRepository) Delete(ctx context.Context, username string, id int64) (int64, error) {
	ct, err := r.pool.Exec(
		ctx,
		`DELETE FROM books WHERE id = $1 AND (owner = $2 OR owner IS NULL)`,
		id,
		username,
	)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *PgRepository) OwnerOf(ctx context.Context, id int64) (*string, error) {
	var owner *string
	err := r.pool.QueryRow(ctx, `SELECT owner FROM books WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		return nil, err
	}
	return owner, nil
}

func scanBook(row pgx.Row) (domain.Book, error) {
	var b domain.Book
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.ReleaseDate,
		&b.Quantity,
		&b.IsRentable,
		&b.Owner,
		&b.Image,
		&b.Lat,
		&b.Long,
	)
	if err != nil {
		return domain.Book{}, err
	}
	return b, nil
}

func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23502 not_null_violation, 23514 check_violation
		if pgErr.Code == "23502" || pgErr.Code == "23514" {
			return ErrConstraintViolation
		}
	}
	return err
}
