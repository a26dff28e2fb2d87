package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forensix/aff4/errors"
)

func TestIsDatabaseClosed(t *testing.T) {
	assert.False(t, IsDatabaseClosed(nil))
	assert.False(t, IsDatabaseClosed(errors.New("disk I/O error")))
	assert.True(t, IsDatabaseClosed(ErrDatabaseClosed))
	assert.True(t, IsDatabaseClosed(errors.Wrap(ErrDatabaseClosed, "flush")))
	assert.True(t, IsDatabaseClosed(errors.New("sql: database is closed")))
}
