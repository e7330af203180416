package storage

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERO-TECHNOLOGIE/godabeg/database"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

// Needs a disposable PostgreSQL database in TEST_DATABASE_URL
func newTestDatabaseStore(t *testing.T) *DatabaseStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, db.Exec("TRUNCATE TABLE representatives").Error)
	t.Cleanup(func() { database.Close(db) })
	return NewDatabaseStore(db)
}

func TestDatabaseStore_RoundTrip(t *testing.T) {
	s := newTestDatabaseStore(t)

	created, err := s.CreateRepresentative(representative("22997000000", "2290197000000", "1234"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "DOE", created.Nom)

	got, err := s.GetRepresentativeByWhatsApp("22997000000")
	require.NoError(t, err)
	assert.Equal(t, "1234", got.IdentificationCode)

	exists, err := s.IdentificationCodeExists("1234")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.GetRepresentativeByWhatsApp("22990000000")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateRepresentative(&models.Representative{
		WhatsApp: "22990000001", Telephone: "2290100000001", IdentificationCode: "1234",
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	count, err := s.CountRepresentatives()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
