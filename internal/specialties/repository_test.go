package specialties

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCRUD(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	sp := &Specialty{Name: "Cardiology", Color: "#e91e63"}
	require.NoError(t, repo.Create(ctx, sp))
	require.NotEmpty(t, sp.ID)

	stored, err := repo.GetByID(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", stored.Name)

	require.NoError(t, repo.Create(ctx, &Specialty{Name: "Allergy"}))
	out, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Allergy", out[0].Name)

	require.NoError(t, repo.Delete(ctx, sp.ID))
	_, err = repo.GetByID(ctx, sp.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRequestValidate(t *testing.T) {
	assert.ErrorIs(t, (&CreateRequest{Name: "  "}).Validate(), ErrMissingName)
	assert.NoError(t, (&CreateRequest{Name: "Dermatology"}).Validate())
}
