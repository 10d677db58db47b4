package main

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/bookshare/server/internal/common/logger"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	username   TEXT PRIMARY KEY,
	password   TEXT NOT NULL,
	logged_out BOOLEAN NOT NULL DEFAULT false
)`

const booksSchema = `
CREATE TABLE IF NOT EXISTS books (
	id           BIGSERIAL PRIMARY KEY,
	title        TEXT NOT NULL,
	author       TEXT NOT NULL,
	release_date TEXT NOT NULL,
	quantity     INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	is_rentable  BOOLEAN NOT NULL DEFAULT false,
	owner        TEXT REFERENCES users (username),
	image        TEXT,
	lat          DOUBLE PRECISION,
	long         DOUBLE PRECISION
)`

type seedUser struct {
	username string
	password string
}

type seedBook struct {
	title       string
	author      string
	releaseDate string
	quantity    int
	isRentable  bool
	owner       *string
}

func strPtr(s string) *string { return &s }

func main() {
	log := logger.New(os.Stdout, "bookshare-seed", logger.INFO)

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	for _, schema := range []string{usersSchema, booksSchema} {
		if _, err := conn.Exec(ctx, schema); err != nil {
			log.Fatalf("failed to create schema: %v", err)
		}
	}

	users := []seedUser{
		{username: "alice", password: "alice-password"},
		{username: "bob", password: "bob-password"},
	}
	for _, u := range users {
		_, err := conn.Exec(ctx,
			`INSERT INTO users (username, password) VALUES ($1, $2) ON CONFLICT (username) DO NOTHING`,
			u.username, u.password,
		)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.username, err)
		}
	}

	books := []seedBook{
		{title: "The Go Programming Language", author: "Donovan, Kernighan", releaseDate: "2015-10-26", quantity: 3, isRentable: true, owner: strPtr("alice")},
		{title: "Designing Data-Intensive Applications", author: "Martin Kleppmann", releaseDate: "2017-03-16", quantity: 2, isRentable: true, owner: strPtr("bob")},
		{title: "Structure and Interpretation of Computer Programs", author: "Abelson, Sussman", releaseDate: "1985-07-01", quantity: 1, isRentable: false, owner: nil},
	}
	for _, b := range books {
		var exists bool
		err := conn.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM books WHERE title = $1)`, b.title,
		).Scan(&exists)
		if err != nil {
			log.Fatalf("failed to check book %q: %v", b.title, err)
		}
		if exists {
			continue
		}
		_, err = conn.Exec(ctx,
			`INSERT INTO books (title, author, release_date, quantity, is_rentable, owner)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			b.title, b.author, b.releaseDate, b.quantity, b.isRentable, b.owner,
		)
		if err != nil {
			log.Fatalf("failed to seed book %q: %v", b.title, err)
		}
	}

	log.Infof("seed completed: %d users, %d books", len(users), len(books))
}
