package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBundle = `
service: trino
access_policies:
  - name: analysts-sales
    resource:
      catalog: sales
    accesses: [use, select, show]
    groups: [analysts]
groups:
  - name: analysts
    members: [alice]
`

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// everything written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	return captureStdout(t, func() {
		rootCmd := newRootCmd()
		rootCmd.SetArgs(args)
		require.NoError(t, rootCmd.Execute())
	})
}

func testStorePaths(t *testing.T) (dbPath, bundlePath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "policies.sqlite")
	bundlePath = filepath.Join(dir, "bundle.yaml")
	require.NoError(t, os.WriteFile(bundlePath, []byte(testBundle), 0o600))
	return dbPath, bundlePath
}

func TestVersionJSON(t *testing.T) {
	out := runCLI(t, "--output", "json", "version")

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "dev", body["version"])
}

func TestImportThenList(t *testing.T) {
	dbPath, bundlePath := testStorePaths(t)

	out := runCLI(t, "--db", dbPath, "--output", "json", "import", "--bundle", bundlePath)
	var result map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result["imported"])
	assert.Equal(t, 0, result["skipped"])

	out = runCLI(t, "--db", dbPath, "policies", "list")
	assert.Contains(t, out, "analysts-sales")
	assert.Contains(t, out, "catalog=sales")
}

func TestImportIdempotent(t *testing.T) {
	dbPath, bundlePath := testStorePaths(t)

	runCLI(t, "--db", dbPath, "import", "--bundle", bundlePath)
	out := runCLI(t, "--db", dbPath, "--output", "json", "import", "--bundle", bundlePath)

	var result map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 0, result["imported"])
	assert.Equal(t, 1, result["skipped"])
}

func TestCheckAllowed(t *testing.T) {
	dbPath, bundlePath := testStorePaths(t)
	runCLI(t, "--db", dbPath, "import", "--bundle", bundlePath)

	out := runCLI(t, "--db", dbPath, "check",
		"--user", "alice", "--groups", "analysts",
		"--operation", "ShowSchemas", "--catalog", "sales")
	assert.Contains(t, out, "ALLOWED")
}

func TestCheckWithStoreGroups(t *testing.T) {
	dbPath, bundlePath := testStorePaths(t)
	runCLI(t, "--db", dbPath, "import", "--bundle", bundlePath)

	// alice's membership comes from the imported groups, not the flags.
	out := runCLI(t, "--db", dbPath, "check",
		"--user", "alice", "--use-db-groups",
		"--operation", "ShowSchemas", "--catalog", "sales")
	assert.Contains(t, out, "ALLOWED")
}

func TestCheckUnknownOperation(t *testing.T) {
	dbPath, _ := testStorePaths(t)

	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"--db", dbPath, "check",
		"--user", "alice", "--operation", "NukeTable"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NukeTable")
}

func TestCommandsIntrospection(t *testing.T) {
	out := runCLI(t, "--output", "json", "commands")

	var entries []CommandEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))

	byPath := make(map[string]CommandEntry, len(entries))
	for _, e := range entries {
		byPath[e.Path] = e
	}
	require.Contains(t, byPath, "check")
	require.Contains(t, byPath, "policies list")
	require.Contains(t, byPath, "import")

	var bundleFlag FlagEntry
	for _, f := range byPath["import"].Flags {
		if f.Name == "bundle" {
			bundleFlag = f
		}
	}
	require.Equal(t, "bundle", bundleFlag.Name)
	assert.True(t, bundleFlag.Required)
}

func TestImportMissingBundleFlag(t *testing.T) {
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"import"})
	require.Error(t, rootCmd.Execute())
}
