package main

import (
	"context"
	"errors"
	"testing"

	"quantsim/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	calls int
	err   error
}

func (f *fakeMigrator) Migrate(context.Context) error {
	f.calls++
	return f.err
}

func TestRequirePostgres(t *testing.T) {
	assert.NoError(t, requirePostgres(config.Data{Source: config.SourcePostgres, DatabaseURL: "postgres://localhost/q"}))

	err := requirePostgres(config.Data{Source: config.SourceParquet, DataDir: "data"})
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestApplySchema(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, applySchema(context.Background(), m))
	assert.Equal(t, 1, m.calls)

	broken := errors.New("permission denied")
	err := applySchema(context.Background(), &fakeMigrator{err: broken})
	assert.True(t, errors.Is(err, broken))
}
