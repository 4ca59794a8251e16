package command

import (
	"testing"

	"teamchat/cmd/cli/authentication"
	"teamchat/cmd/cli/dto"
	"teamchat/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestParseChannelID(t *testing.T) {
	id, err := parseChannelID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, bad := range []string{"", "0", "-3", "general"} {
		_, err := parseChannelID(bad)
		assert.Error(t, err, bad)
	}
}

func TestSaveToken(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, saveToken(&dto.AuthResponse{
		Token:     "tok",
		ExpiresIn: 3600,
		User:      models.User{ID: 7, Name: "ann", Email: "ann@example.com"},
	}))

	creds, err := authentication.GetTokens()
	require.NoError(t, err)
	assert.Equal(t, "tok", creds.Token)
	assert.Equal(t, int64(7), creds.UserID)
	assert.Positive(t, creds.ExpiresAt)
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"auth", "signup"},
		{"auth", "login"},
		{"channels", "list"},
		{"channels", "create"},
		{"channels", "join"},
		{"history"},
		{"chat"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
