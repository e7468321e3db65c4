// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dossier/internal/platform/apperr"
	"github.com/taibuivan/dossier/internal/platform/dberr"
)

/*
TestWrap classifies the database errors repositories care about.
*/
func TestWrap(t *testing.T) {
	assert.Nil(t, dberr.Wrap(nil, "noop"))

	t.Run("no_rows", func(t *testing.T) {
		err := dberr.Wrap(fmt.Errorf("scan: %w", pgx.ErrNoRows), "find")
		assert.Equal(t, dberr.ErrNotFound, err)
	})

	t.Run("unique_violation", func(t *testing.T) {
		pgError := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "principal_username_key"}
		err := dberr.Wrap(pgError, "insert")

		constraint, ok := dberr.AsUniqueViolation(err)
		require.True(t, ok)
		assert.Equal(t, "principal_username_key", constraint)
	})

	t.Run("other", func(t *testing.T) {
		err := dberr.Wrap(errors.New("connection reset"), "insert")

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "INTERNAL_ERROR", ae.Code)
		assert.Contains(t, ae.Cause.Error(), "insert: connection reset")

		_, ok := dberr.AsUniqueViolation(err)
		assert.False(t, ok)
	})
}
