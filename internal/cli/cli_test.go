package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/sortinghat/internal/api"
	"github.com/mcoot/sortinghat/internal/api/middleware"
	"github.com/mcoot/sortinghat/internal/api/response"
	"github.com/mcoot/sortinghat/internal/factory"
	"github.com/mcoot/sortinghat/internal/testutil"
)

const testToken = "alohomora"

type cliEnv struct {
	app       *factory.TestApp
	server    *httptest.Server
	tokenFile string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	hash, err := middleware.HashToken(testToken)
	require.NoError(t, err)

	app := factory.NewTestApp()
	server := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Logger:         testutil.NopLogger(),
		Progression:    app.Progression,
		AdminTokenHash: hash,
	}))
	t.Cleanup(server.Close)

	return &cliEnv{
		app:       app,
		server:    server,
		tokenFile: filepath.Join(t.TempDir(), "token"),
	}
}

// run executes the CLI with the given args and returns stdout
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--server", e.server.URL, "--token-file", e.tokenFile}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestHealth(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Status: ok")
}

func TestCharacterListRequiresToken(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "character", "list")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
}

func TestCharacterListAndView(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.app.Progression.Register(t.Context(), "1001", "Luna")
	require.NoError(t, err)

	out, err := env.run(t, "--token", testToken, "character", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1001")
	assert.Contains(t, out, "Luna")

	out, err = env.run(t, "--token", testToken, "-o", "json", "character", "view", "1001")
	require.NoError(t, err)
	var sheet response.Character
	require.NoError(t, json.Unmarshal([]byte(out), &sheet))
	assert.Equal(t, "Luna", sheet.DisplayName)
	assert.Equal(t, 50, sheet.Attributes.Strength)
}

func TestCurrencyGrantAndDeduct(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.app.Progression.Register(t.Context(), "1001", "Luna")
	require.NoError(t, err)

	_, err = env.run(t, "--token", testToken, "currency", "grant", "1001", "500")
	require.NoError(t, err)

	out, err := env.run(t, "--token", testToken, "currency", "deduct", "1001", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "(493 Knuts)")

	_, err = env.run(t, "--token", testToken, "currency", "grant", "1001", "0")
	assert.Error(t, err)
}

func TestCharacterDelete(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.app.Progression.Register(t.Context(), "1001", "Luna")
	require.NoError(t, err)

	_, err = env.run(t, "--token", testToken, "character", "delete", "1001")
	require.Error(t, err)

	_, err = env.run(t, "--token", testToken, "character", "delete", "1001", "--yes")
	require.NoError(t, err)

	_, err = env.run(t, "--token", testToken, "character", "view", "1001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestTokenSaveIsUsedByLaterCommands(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "token", "save", testToken)
	require.NoError(t, err)

	out, err := env.run(t, "character", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No characters registered")
}

func TestCatalogOffline(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "Gryffindor")
	assert.Contains(t, out, "Library Use")
}
