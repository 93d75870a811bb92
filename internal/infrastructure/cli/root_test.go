package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliEnv struct {
	dir        string
	configPath string
	requests   atomic.Int32
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	env := &cliEnv{dir: t.TempDir()}
	t.Setenv("HOME", env.dir)

	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			fmt.Fprint(w, `{"models":[{"name":"llama3:latest"}]}`)
		case "/api/chat":
			env.requests.Add(1)
			var payload map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&payload)
			fmt.Fprintf(w, `{"message":{"role":"assistant","content":"A lone fox crossing fresh snow (%s)."}}`, payload["model"])
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ollama.Close)

	env.configPath = filepath.Join(env.dir, "config.yaml")
	env.writeConfig(t, fmt.Sprintf(`backends:
  ollama:
    enabled: true
    base_url: %s
  lmstudio:
    enabled: false
    base_url: http://127.0.0.1:1
discovery:
  persist_cache: false
history:
  enabled: true
  backend: json
  path: %s
  export_dir: %s
server:
  history_path: %s
logging:
  level: error
`, ollama.URL, filepath.Join(env.dir, "history.json"), env.dir, filepath.Join(env.dir, "node_history.json")))
	return env
}

func (e *cliEnv) writeConfig(t *testing.T, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(e.configPath, []byte(body), 0o600))
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(context.Background(), Options{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateRecordsHistory(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "generate", "a fox in the snow", "--model", "[Ollama] llama3:latest", "--target", "flux")
	require.NoError(t, err)
	assert.Contains(t, out, "A lone fox crossing fresh snow (llama3:latest).")
	assert.EqualValues(t, 1, env.requests.Load())

	out, err = env.run(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "a fox in the snow")

	out, err = env.run(t, "history", "load", "--json")
	require.NoError(t, err)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &entry))
	assert.Equal(t, "ollama", entry["service"])
	assert.Equal(t, "flux", entry["target_model"])
}

func TestGenerateFallsBackToDiscoveredModel(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "generate", "city at night", "--no-history", "--json")
	require.NoError(t, err)

	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Contains(t, res["positive_prompt"], "llama3:latest")

	out, err = env.run(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No history recorded yet.")
}

func TestGenerateRejectsEmptyInput(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "generate", "   ", "--model", "[Ollama] llama3:latest")
	require.Error(t, err)
	assert.Zero(t, env.requests.Load())
}

func TestModelsList(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "models", "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "[Ollama] llama3:latest")
}

func TestToolCommands(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "style", "a red fox", "--preset", "cinematic")
	require.NoError(t, err)
	assert.Equal(t, "Cinematic shot, a red fox, dramatic lighting, film grain\n", out)

	out, err = env.run(t, "negative", "text, logo", "--preset", "none")
	require.NoError(t, err)
	assert.Equal(t, "text, logo\n", out)

	out, err = env.run(t, "combine", "first", "second", "--separator", "period")
	require.NoError(t, err)
	assert.Equal(t, "first. second\n", out)

	_, err = env.run(t, "style", "a red fox", "--preset", "vaporwave")
	assert.Error(t, err)
}

func TestConfigCommandsTolerateInvalidConfig(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t, `backends:
  ollama:
    enabled: false
  lmstudio:
    enabled: false
`)

	out, err := env.run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, env.configPath+"\n", out)

	_, err = env.run(t, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one backend must be enabled")

	_, err = env.run(t, "style", "x")
	require.Error(t, err)
}

func TestConfigSetAndGet(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "config", "set", "generation.default_target", "wan2.2")
	require.NoError(t, err)

	out, err := env.run(t, "config", "get", "generation.default_target")
	require.NoError(t, err)
	assert.Equal(t, "wan2.2\n", out)

	_, err = env.run(t, "config", "set", "generation.no_such_key", "1")
	assert.Error(t, err)
}

func TestVersionSkipsConfig(t *testing.T) {
	env := newCLIEnv(t)
	env.writeConfig(t, "backends: [not, a, map")

	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "promptcraft version")
}
