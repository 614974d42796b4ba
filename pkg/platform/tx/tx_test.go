package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrFallsBackToDB(t *testing.T) {
	db := &sql.DB{}
	assert.Same(t, db, Or(context.Background(), db))
}

func TestOrPrefersContextTx(t *testing.T) {
	tx := &sql.Tx{}
	ctx := WithTx(context.Background(), tx)

	got, ok := From(ctx)
	assert.True(t, ok)
	assert.Same(t, tx, got)
	assert.Same(t, tx, Or(ctx, &sql.DB{}))
}

func TestWithNilTx(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithTx(ctx, nil))
	_, ok := From(ctx)
	assert.False(t, ok)
}
