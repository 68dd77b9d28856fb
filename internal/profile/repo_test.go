package profile_test

import (
	"context"
	"testing"

	"github.com/2beens/fitmate/internal/profile"
	"github.com/2beens/fitmate/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	repo := profile.NewRepo(store)

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)

	p := validProfile()
	p.Injuries = []string{"Knee Pain"}
	require.NoError(t, repo.Save(ctx, "u1", p))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, p, *got)

	// stored under the user's namespace
	raw, err := store.Get(ctx, "fitmate_u1_profile")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"primaryGoal":"weight_loss"`)

	_, err = repo.Get(ctx, "u2")
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}

func TestRepo_Get_Malformed(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(0)
	require.NoError(t, store.Put(ctx, "fitmate_u1_profile", []byte("{broken")))

	repo := profile.NewRepo(store)
	_, err := repo.Get(ctx, "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, profile.ErrProfileNotFound)
}
