package repository

import (
	"context"
	"errors"
	"testing"

	"teamchat/internal/shared"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceSetOnline_WithoutMirror(t *testing.T) {
	gdb, mock := newGormWithMock(t)
	repo := NewPresenceRepository(gdb, nil, nil)

	mock.ExpectExec(`UPDATE "users" SET "online"=\$1 WHERE id = \$2`).
		WithArgs(true, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetOnline(context.Background(), 4, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPresenceSetOnline_FailureIsPersistence(t *testing.T) {
	gdb, mock := newGormWithMock(t)
	repo := NewPresenceRepository(gdb, nil, nil)

	mock.ExpectExec(`UPDATE "users"`).WillReturnError(errors.New("conn reset"))

	err := repo.SetOnline(context.Background(), 4, false)
	assert.True(t, errors.Is(err, shared.ErrPersistence))
}

func TestPresenceOnlineUsers_FallsBackToFlag(t *testing.T) {
	gdb, mock := newGormWithMock(t)
	repo := NewPresenceRepository(gdb, nil, nil)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE online = \$1`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "online"}).
			AddRow(int64(1), "Alice", "a@x.io", true))

	users, err := repo.OnlineUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice", users[0].Name)
}

func TestOnlineSetRedis_NilIsNoop(t *testing.T) {
	var mirror *OnlineSetRedis
	ctx := context.Background()

	assert.False(t, mirror.Enabled())
	assert.NoError(t, mirror.Mark(ctx, 1, true))
	assert.NoError(t, mirror.Reset(ctx))
	ids, err := mirror.Members(ctx)
	assert.NoError(t, err)
	assert.Nil(t, ids)
	assert.NoError(t, mirror.Close())
}
