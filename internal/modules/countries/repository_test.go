package countries

import (
	"testing"

	"github.com/aristath/marketglobe/internal/domain"
	testingdb "github.com/aristath/marketglobe/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	db, cleanup := testingdb.NewTestDB(t, "countries")
	t.Cleanup(cleanup)
	return NewRepository(db.Conn(), quietLog())
}

func TestRepository_ReplaceAllKeepsOrder(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.ReplaceAll([]domain.Country{
		{ID: "b", Name: "Beta", ISOCode: "BBB", Performance: domain.Float(1.5)},
		{ID: "a", Name: "Alpha", ISOCode: "AAA"},
	}))

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, 1.5, *all[0].Performance)
	assert.Nil(t, all[1].Performance, "null performance round-trips as no data")
}

func TestRepository_ReplaceAllReplaces(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.ReplaceAll([]domain.Country{{ID: "a", Name: "Alpha"}}))
	require.NoError(t, repo.ReplaceAll([]domain.Country{{ID: "c", Name: "Gamma"}}))

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "c", all[0].ID)
}

func TestRepository_ReplaceAllRollsBackOnDuplicate(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.ReplaceAll([]domain.Country{{ID: "a", Name: "Alpha"}}))

	err := repo.ReplaceAll([]domain.Country{{ID: "x", Name: "X"}, {ID: "x", Name: "X again"}})
	require.Error(t, err)

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a", all[0].ID)
}

func TestRepository_GetByID(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.ReplaceAll([]domain.Country{{ID: "a", Name: "Alpha", ISOCode: "AAA"}}))

	c, err := repo.GetByID("a")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", c.Name)

	_, err = repo.GetByID("missing")
	assert.ErrorIs(t, err, domain.ErrCountryNotFound)
}
