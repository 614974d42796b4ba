//go:build integration

package verification

import (
	"context"
	"testing"
	"time"

	"compliance/internal/identity/models"
	"compliance/internal/identity/saidnumber"
	id "compliance/pkg/domain"
	"compliance/pkg/platform/sentinel"
	txcontext "compliance/pkg/platform/tx"
	"compliance/pkg/testutil/containers"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresStore(t *testing.T) (*PostgresStore, *containers.PostgresContainer) {
	t.Helper()
	pg := containers.GetManager().GetPostgres(t)
	require.NoError(t, pg.Truncate(context.Background()))
	return NewPostgres(pg.DB), pg
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	store, _ := newPostgresStore(t)
	ctx := context.Background()
	operator := id.OperatorID(id.NewVerificationID())
	checkedAt := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	v, err := models.NewVerification(id.NewVerificationID(), "subject-a", "800101*******",
		saidnumber.Validate("8001015009087"), checkedAt, "req-1", operator)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, v))

	found, err := store.FindByID(ctx, v.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(v, found); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	assert.ErrorIs(t, store.Save(ctx, v), sentinel.ErrConflict)

	_, err = store.FindByID(ctx, id.NewVerificationID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresStoreListingAndCounts(t *testing.T) {
	store, _ := newPostgresStore(t)
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	raws := []string{"8001015009087", "8001015009088", "123", "8013015009081"}
	var ids []id.VerificationID
	for i, raw := range raws {
		v, err := models.NewVerification(id.NewVerificationID(), "subject-x", models.MaskedNumber(raw),
			saidnumber.Validate(raw), base.Add(time.Duration(i)*time.Minute), "", id.OperatorID{})
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, v))
		ids = append(ids, v.ID)
	}

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[3], recent[0].ID)
	assert.Equal(t, saidnumber.InvalidDate, recent[0].Result.Error)

	bySubject, err := store.ListBySubject(ctx, "subject-x", 10)
	require.NoError(t, err)
	assert.Len(t, bySubject, 4)

	counts, err := store.CountByOutcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"valid": 1, "InvalidChecksum": 1, "InvalidLength": 1, "InvalidDate": 1,
	}, counts)
}

func TestPostgresStoreUsesContextTransaction(t *testing.T) {
	store, pg := newPostgresStore(t)
	ctx := context.Background()

	tx, err := pg.DB.BeginTx(ctx, nil)
	require.NoError(t, err)

	v, err := models.NewVerification(id.NewVerificationID(), "subject-tx", "***",
		saidnumber.Validate("123"), time.Now(), "", id.OperatorID{})
	require.NoError(t, err)
	require.NoError(t, store.Save(txcontext.WithTx(ctx, tx), v))
	require.NoError(t, tx.Rollback())

	_, err = store.FindByID(ctx, v.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
