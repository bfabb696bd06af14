package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider_GetToken(t *testing.T) {
	token, err := (&StaticProvider{Token: " tok_123\n"}).GetToken()
	require.NoError(t, err)
	assert.Equal(t, "tok_123", token)

	_, err = (&StaticProvider{}).GetToken()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestEnvProvider_GetToken_Success(t *testing.T) {
	t.Setenv(TokenEnv, "env_token_123")

	provider := &EnvProvider{}
	token, err := provider.GetToken()

	require.NoError(t, err)
	assert.Equal(t, "env_token_123", token)
}

func TestEnvProvider_GetToken_Missing(t *testing.T) {
	t.Setenv(TokenEnv, "")

	provider := &EnvProvider{}
	token, err := provider.GetToken()

	assert.ErrorIs(t, err, ErrNoToken)
	assert.Empty(t, token)
	assert.Contains(t, err.Error(), TokenEnv)
}

func TestFileProvider_GetToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token")
	require.NoError(t, os.WriteFile(path, []byte("file_token\n"), 0o600))

	token, err := (&FileProvider{Path: path}).GetToken()
	require.NoError(t, err)
	assert.Equal(t, "file_token", token)
}

func TestFileProvider_MissingOrEmpty(t *testing.T) {
	dir := t.TempDir()

	_, err := (&FileProvider{Path: filepath.Join(dir, "absent")}).GetToken()
	assert.ErrorIs(t, err, ErrNoToken)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
	_, err = (&FileProvider{Path: empty}).GetToken()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestFileProvider_DefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	path, err := DefaultTokenPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("xdg_token"), 0o600))

	token, err := (&FileProvider{}).GetToken()
	require.NoError(t, err)
	assert.Equal(t, "xdg_token", token)
}

type failingProvider struct{ err error }

func (f failingProvider) GetToken() (string, error) { return "", f.err }

func TestChain_FirstTokenWins(t *testing.T) {
	t.Setenv(TokenEnv, "from_env")

	token, err := Chain{&StaticProvider{}, &EnvProvider{}, &StaticProvider{Token: "later"}}.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "from_env", token)
}

func TestChain_NoToken(t *testing.T) {
	t.Setenv(TokenEnv, "")

	_, err := Chain{&StaticProvider{}, &EnvProvider{}}.GetToken()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestChain_StopsOnRealError(t *testing.T) {
	boom := errors.New("permission denied")

	_, err := Chain{failingProvider{err: boom}, &StaticProvider{Token: "unreached"}}.GetToken()
	assert.ErrorIs(t, err, boom)
}

func TestDefault_PrefersConfigured(t *testing.T) {
	t.Setenv(TokenEnv, "from_env")

	token, err := Default("from_config").GetToken()
	require.NoError(t, err)
	assert.Equal(t, "from_config", token)
}

func TestTokenProvider_Interface(t *testing.T) {
	var _ TokenProvider = &StaticProvider{}
	var _ TokenProvider = &EnvProvider{}
	var _ TokenProvider = &FileProvider{}
	var _ TokenProvider = Chain{}
}
