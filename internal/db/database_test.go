package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/epinhell/internal/models"
)

func TestOpenRejectsEmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), DriverSQLite, "")
	require.Error(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestMigrateCreatesTables(t *testing.T) {
	gdb := OpenTest(t)

	for _, m := range models.All() {
		assert.True(t, gdb.Migrator().HasTable(m), "%T", m)
	}
	require.NoError(t, Ping(context.Background(), gdb))
}

func TestIsDuplicateKey(t *testing.T) {
	gdb := OpenTest(t)

	require.NoError(t, gdb.Create(&models.Cart{UserID: "u-1"}).Error)
	err := gdb.Create(&models.Cart{UserID: "u-1"}).Error
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))

	assert.True(t, IsDuplicateKey(fmt.Errorf("wrapped: %w", &pq.Error{Code: "23505"})))
	assert.True(t, IsDuplicateKey(gorm.ErrDuplicatedKey))
	assert.False(t, IsDuplicateKey(&pq.Error{Code: "23503"}))
	assert.False(t, IsDuplicateKey(errors.New("boom")))
	assert.False(t, IsDuplicateKey(nil))
}
