package repository_test

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/fusaf/fusaf-service/internal/config"
	"github.com/fusaf/fusaf-service/internal/repository"
)

func TestMapPgError(t *testing.T) {
	other := errors.New("boom")
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, repository.ErrAlreadyExists},
		{"foreign key", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, repository.ErrConflict},
		{"check", &pgconn.PgError{Code: pgerrcode.CheckViolation}, repository.ErrConflict},
		{"passthrough", other, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, repository.MapPgError(tc.in))
		})
	}
}

func TestWindow(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	res := repository.Window(all, repository.Page{Limit: 2, Offset: 1})
	assert.Equal(t, []int{2, 3}, res.Items)
	assert.Equal(t, 5, res.Total)

	res = repository.Window(all, repository.Page{Limit: 10, Offset: 4})
	assert.Equal(t, []int{5}, res.Items)

	res = repository.Window(all, repository.Page{Offset: 9})
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 5, res.Total)

	res = repository.Window(all, repository.Page{})
	assert.Len(t, res.Items, 5)
}

func TestDSN_EscapesCredentials(t *testing.T) {
	dsn := repository.DSN(config.Postgres{
		Host: "db", Port: 5432, User: "fusaf", Password: "p@ss/word", DBName: "fusaf", SSLMode: "disable",
	})
	assert.Equal(t, "postgres://fusaf:p%40ss%2Fword@db:5432/fusaf?sslmode=disable", dsn)
}
