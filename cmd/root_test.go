package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/meysamhadeli/aifiles/app_errors"
	"github.com/meysamhadeli/aifiles/providers"
	"github.com/meysamhadeli/aifiles/providers/contracts"
	provider_models "github.com/meysamhadeli/aifiles/providers/models"
	contracts_token "github.com/meysamhadeli/aifiles/token_management/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// summaryProvider answers SUMMARY:<file content> and fails for the contents listed in failFor.
type summaryProvider struct {
	mu      sync.Mutex
	calls   int
	failFor map[string]bool
}

func (p *summaryProvider) ChatCompletionRequest(_ context.Context, userInput string, _ string) <-chan provider_models.StreamResponse {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	content := strings.SplitN(userInput, "\n\n", 2)[0]
	responseChan := make(chan provider_models.StreamResponse)
	go func() {
		defer close(responseChan)
		if p.failFor[content] {
			responseChan <- provider_models.StreamResponse{Err: errors.New("500 Internal Server Error")}
			return
		}
		responseChan <- provider_models.StreamResponse{Content: "SUMMARY:" + content}
		responseChan <- provider_models.StreamResponse{Done: true}
	}()
	return responseChan
}

type harness struct {
	dir       string
	provider  *summaryProvider
	factories int
	stdout    bytes.Buffer
	stderr    bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, name := range []string{"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "AIFILES_ACTION", "AIFILES_IN_PLACE", "AIFILES_PROVIDER", "AIFILES_API_KEY", "AIFILES_MODEL", "AIFILES_USE_GITIGNORE"} {
		t.Setenv(name, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()
	t.Chdir(dir)
	return &harness{dir: dir, provider: &summaryProvider{}}
}

func (h *harness) write(t *testing.T, name string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(h.dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, name), []byte(content), 0o644))
}

func (h *harness) read(t *testing.T, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(h.dir, name))
	require.NoError(t, err)
	return string(content)
}

func (h *harness) run(args ...string) error {
	factory := func(*providers.AIProviderConfig, contracts_token.ITokenManagement) (contracts.IChatAIProvider, error) {
		h.factories++
		return h.provider, nil
	}

	rootCmd := NewRootCmd(WithProviderFactory(factory))
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&h.stdout)
	rootCmd.SetErr(&h.stderr)
	rootCmd.SetIn(strings.NewReader(""))
	return rootCmd.ExecuteContext(context.Background())
}

func (h *harness) scenario(t *testing.T) {
	t.Helper()
	h.write(t, "a.txt", "alpha")
	h.write(t, "b.txt", "bravo")
	h.write(t, "ignored.txt", "secret")
	h.write(t, ".gitignore", "ignored.txt\n")
}

func TestRoot_SummarizesSelectedFilesToStdout(t *testing.T) {
	h := newHarness(t)
	h.scenario(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	require.NoError(t, h.run("-a", "Summarize", "*.txt"))

	out := h.stdout.String()
	assert.Contains(t, out, "Output for a.txt:\nSUMMARY:alpha\n")
	assert.Contains(t, out, "Output for b.txt:\nSUMMARY:bravo\n")
	assert.NotContains(t, out, "ignored")
	assert.Less(t, strings.Index(out, "a.txt"), strings.Index(out, "b.txt"))
	assert.Equal(t, 2, h.provider.calls)

	assert.Equal(t, "alpha", h.read(t, "a.txt"))
	assert.Equal(t, "bravo", h.read(t, "b.txt"))
	assert.Contains(t, h.stderr.String(), "2 succeeded, 0 failed")
}

func TestRoot_InPlaceWritesExactResponse(t *testing.T) {
	h := newHarness(t)
	h.scenario(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	require.NoError(t, h.run("--in-place", "-a", "Summarize", "*.txt"))

	assert.Equal(t, "SUMMARY:alpha", h.read(t, "a.txt"))
	assert.Equal(t, "SUMMARY:bravo", h.read(t, "b.txt"))
	assert.Equal(t, "secret", h.read(t, "ignored.txt"))
	assert.Contains(t, h.stdout.String(), "Updated file: a.txt")
	assert.Contains(t, h.stdout.String(), "Updated file: b.txt")
}

func TestRoot_InteractiveDeclineKeepsFiles(t *testing.T) {
	h := newHarness(t)
	h.scenario(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	require.NoError(t, h.run("-i", "--interactive", "-a", "Summarize", "a.txt"))

	assert.Equal(t, "alpha", h.read(t, "a.txt"))
	assert.Contains(t, h.stdout.String(), "Skipped file: a.txt")
}

func TestRoot_DryRunMakesNoCallsAndNoWrites(t *testing.T) {
	h := newHarness(t)
	h.scenario(t)

	require.NoError(t, h.run("--dry", "--in-place", "-a", "Summarize", "*.txt"))

	assert.Equal(t, "Would modify: a.txt\nWould modify: b.txt\n", h.stdout.String())
	assert.Zero(t, h.factories)
	assert.Zero(t, h.provider.calls)
	assert.Equal(t, "alpha", h.read(t, "a.txt"))
}

func TestRoot_ZeroMatches(t *testing.T) {
	h := newHarness(t)
	h.scenario(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	require.NoError(t, h.run("-a", "Summarize", "*.nothing"))

	assert.Contains(t, h.stderr.String(), "No files matched")
	assert.Zero(t, h.provider.calls)
	assert.Empty(t, h.stdout.String())
}

func TestRoot_APIFailureContinuesWithOtherFiles(t *testing.T) {
	h := newHarness(t)
	h.write(t, "a.txt", "alpha")
	h.write(t, "b.txt", "bravo")
	h.write(t, "c.txt", "charlie")
	h.provider.failFor = map[string]bool{"bravo": true}
	t.Setenv("OPENAI_API_KEY", "sk-test")

	require.NoError(t, h.run("-a", "Summarize", "*.txt"))

	assert.Equal(t, 3, h.provider.calls)
	assert.Contains(t, h.stdout.String(), "SUMMARY:alpha")
	assert.Contains(t, h.stdout.String(), "SUMMARY:charlie")
	assert.Contains(t, h.stderr.String(), "2 succeeded, 1 failed")
	assert.Contains(t, h.stderr.String(), "b.txt")
}

func TestRoot_MissingAction(t *testing.T) {
	h := newHarness(t)
	h.scenario(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	err := h.run("*.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, app_errors.ErrConfig)
	assert.Zero(t, h.provider.calls)
}

func TestRoot_MissingAPIKey(t *testing.T) {
	h := newHarness(t)
	h.scenario(t)

	err := h.run("-a", "Summarize", "*.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, app_errors.ErrConfig)
	assert.Contains(t, err.Error(), "api_key")
}

func TestRoot_ActionFromConfigFile(t *testing.T) {
	h := newHarness(t)
	h.scenario(t)
	h.write(t, "aifiles-config.yaml", "action: Summarize\napi_key: sk-from-file\n")

	require.NoError(t, h.run("a.txt"))
	assert.Contains(t, h.stdout.String(), "SUMMARY:alpha")
}

func TestRoot_InvalidPattern(t *testing.T) {
	h := newHarness(t)
	h.scenario(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	err := h.run("-a", "Summarize", "[oops")
	require.Error(t, err)
	assert.ErrorIs(t, err, app_errors.ErrSelection)
	assert.Zero(t, h.provider.calls)
}

func TestRoot_RequiresPattern(t *testing.T) {
	h := newHarness(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	assert.Error(t, h.run("-a", "Summarize"))
}

func TestConfigCommand_PrintsRedactedYAML(t *testing.T) {
	h := newHarness(t)
	h.write(t, "aifiles-config.yaml", "action: Summarize\nmodel: gpt-4o\n")
	t.Setenv("OPENAI_API_KEY", "sk-abcdefghijklmnop")

	require.NoError(t, h.run("config"))

	out := h.stdout.String()
	assert.Contains(t, out, "# loaded from")
	assert.Contains(t, out, "model: gpt-4o")
	assert.Contains(t, out, "action: Summarize")
	assert.Contains(t, out, "api_key: sk-...mnop")
	assert.NotContains(t, out, "sk-abcdefghijklmnop")
}
