package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk-dev/ledgerdesk/internal/policy"
	"github.com/ledgerdesk-dev/ledgerdesk/internal/store"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "ledgerdesk-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "ledgerdesk")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/ledgerdesk")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runLedgerdesk(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runLedgerdesk(t, args...)
	require.NoError(t, err, "ledgerdesk %v: %s", args, out)
	return out
}

func initWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mustRun(t, "init", dir, "--name", "Test Biz")
	return dir
}

// upsert runs record upsert and returns the new record's id.
func upsert(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out := mustRun(t, append([]string{"record", "upsert", "--dir", dir}, args...)...)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if before, after, found := strings.Cut(line, "/"); found && !strings.Contains(before, " ") {
			return strings.TrimSpace(after)
		}
	}
	t.Fatalf("no record id in output: %s", out)
	return ""
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, "init", dir, "--name", "Test Biz")

	expectedDirs := []string{
		"data",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, "init", dir, "--name", "My Company")

	data, err := os.ReadFile(filepath.Join(dir, "ledgerdesk.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: My Company")
	assert.Contains(t, contents, "currency: USD")
	assert.Contains(t, contents, "amount_tolerance_pct: 2")
}

func TestInit_Snapshot(t *testing.T) {
	dir := initWorkspace(t)

	require.FileExists(t, filepath.Join(dir, "data", "records.json"))

	st, err := store.Load(dir, policy.NewValidationPolicy(nil))
	require.NoError(t, err)
	records, err := st.List("leads")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInit_GitRepo(t *testing.T) {
	dir := initWorkspace(t)

	_, err := os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git should exist")

	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "init:")

	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = dir
	out, err = authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "LedgerDesk <bot@ledgerdesk.dev>")
}

func TestInit_Gitignore(t *testing.T) {
	dir := initWorkspace(t)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)

	for _, pattern := range []string{"exports/", ".ledgerdesk-cache/"} {
		assert.Contains(t, string(data), pattern, ".gitignore should contain %s", pattern)
	}
}

func TestInit_RequiresName(t *testing.T) {
	dir := t.TempDir()
	_, err := runLedgerdesk(t, "init", dir)
	require.Error(t, err, "init without --name should fail")
}

func TestRecord_Lifecycle(t *testing.T) {
	dir := initWorkspace(t)

	acctID := upsert(t, dir, "--type", "accounts", "--set", "name=Acme")

	out := mustRun(t, "record", "show", acctID, "--dir", dir, "--type", "accounts")
	assert.Contains(t, out, `"name": "Acme"`)

	// Update keeps the id.
	out = mustRun(t, "record", "upsert", "--dir", dir, "--type", "accounts", "--id", acctID, "--set", "city=Berlin")
	assert.Contains(t, out, acctID)

	out = mustRun(t, "record", "list", "--dir", dir, "--type", "accounts")
	assert.Contains(t, out, acctID)

	mustRun(t, "record", "delete", acctID, "--dir", dir, "--type", "accounts")
	_, err := runLedgerdesk(t, "record", "show", acctID, "--dir", dir, "--type", "accounts")
	require.Error(t, err)
}

func TestRecord_ValidationFailure(t *testing.T) {
	dir := initWorkspace(t)

	// Default policy requires lead name, company, email, phone.
	out, err := runLedgerdesk(t, "record", "upsert", "--dir", dir, "--type", "leads", "--set", "name=Jo")
	require.Error(t, err)
	assert.Contains(t, out, "company")
}

func TestRecord_Related(t *testing.T) {
	dir := initWorkspace(t)

	acctID := upsert(t, dir, "--type", "accounts", "--set", "name=Acme")
	taskID := upsert(t, dir, "--type", "tasks",
		"--set", "relatedToType=accounts",
		"--set", "relatedToId="+acctID,
		"--set", "subject=follow up")

	out := mustRun(t, "record", "related", acctID, "--dir", dir, "--type", "accounts", "--from", "tasks")
	assert.Contains(t, out, taskID)
}

func TestImportAndReconcile_Flow(t *testing.T) {
	dir := initWorkspace(t)

	acctID := upsert(t, dir, "--type", "accounts", "--set", "name=Acme")
	invID := upsert(t, dir, "--type", "invoices",
		"--set", "relatedToType=accounts",
		"--set", "relatedToId="+acctID,
		"--set", "total=1000")

	statement := "date,description,amount,reference\n" +
		"2025-01-05,ACME CORP PAYMENT,1000.00,wire-778\n" +
		"2025-01-03,GITHUB INC,-49.00,gh-123\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "jan.csv"), []byte(statement), 0o644))

	out := mustRun(t, "import", "--dir", dir, "--format", "statement")
	assert.Contains(t, out, "2 imported, 0 skipped")
	assert.FileExists(t, filepath.Join(dir, "import", "processed", "jan.csv"))

	// Find the credit transaction.
	st, err := store.Load(dir, policy.NewValidationPolicy(nil))
	require.NoError(t, err)
	records, err := st.List("banktransactions")
	require.NoError(t, err)
	require.Len(t, records, 2)
	var txnID string
	for _, rec := range records {
		if rec.Field("bankReference") == "wire-778" {
			txnID = rec.ID
		}
	}
	require.NotEmpty(t, txnID)

	out = mustRun(t, "reconcile", "suggest", txnID, "--dir", dir)
	assert.Contains(t, out, "green")
	assert.Contains(t, out, invID)

	out = mustRun(t, "reconcile", "match", txnID, "--dir", dir, "--to", invID)
	assert.Contains(t, out, "is now matched")

	// Idempotent re-match reports the current state without a new log row.
	out = mustRun(t, "reconcile", "match", txnID, "--dir", dir, "--to", invID)
	assert.Contains(t, out, "already matched")

	logData, err := os.ReadFile(filepath.Join(dir, "logs", "activity-log.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(logData), txnID), "one log row for one state change")

	out = mustRun(t, "reconcile", "summary", "--dir", dir)
	assert.Contains(t, out, "Unmatched: 1")
	assert.Contains(t, out, "Inflow:    1000.00")
	assert.Contains(t, out, "Outflow:   49.00")

	out = mustRun(t, "audit", "--dir", dir)
	assert.Contains(t, out, "No findings")
}

func TestAudit_ReportsOrphans(t *testing.T) {
	dir := initWorkspace(t)

	upsert(t, dir, "--type", "tasks",
		"--set", "relatedToType=leads",
		"--set", "relatedToId=ghost")

	out, err := runLedgerdesk(t, "audit", "--dir", dir, "--fail")
	require.Error(t, err)
	assert.Contains(t, out, "orphan-reference")
}
