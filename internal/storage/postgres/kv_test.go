package postgres

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsOutOfSpace(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "disk full", err: &pgconn.PgError{Code: "53100"}, want: true},
		{name: "program limit", err: &pgconn.PgError{Code: "54000"}, want: true},
		{name: "wrapped disk full", err: errors.Wrap(&pgconn.PgError{Code: "53100"}, "exec"), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isOutOfSpace(tt.err))
		})
	}
}
