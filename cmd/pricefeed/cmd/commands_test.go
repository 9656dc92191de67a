package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paw-chain/pricefeed/x/pricefeed/types"
)

const samplePublishTime = 1_700_000_000

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := Execute(root)
	return stdout.String(), stderr.String(), err
}

func encodeSample(t *testing.T, extra ...string) string {
	t.Helper()

	args := append([]string{
		"encode",
		"--feed", solUSDHex,
		"--price", "445713929913",
		"--conf", "188943660",
		"--expo", "-8",
		"--publish-time", fmt.Sprint(samplePublishTime),
	}, extra...)
	out, _, err := execute(t, "", args...)
	require.NoError(t, err)
	return strings.TrimSpace(out)
}

func TestFeedIDCmd(t *testing.T) {
	out, _, err := execute(t, "", "feed-id", strings.ToUpper(solUSDHex[2:]))
	require.NoError(t, err)
	require.Equal(t, solUSDHex+"\n", out)

	_, stderr, err := execute(t, "", "feed-id", "0xef0d")
	require.Error(t, err)
	require.Contains(t, stderr, "rejected: MalformedFeedId")
	require.Contains(t, stderr, "suggestion: Feed id must be 32 bytes")
}

func TestEncodeCmd(t *testing.T) {
	full := encodeSample(t)
	partial := encodeSample(t, "--partial", "3")

	// one extra signature-count byte, two hex characters
	require.Len(t, partial, len(full)+2)
	require.NotContains(t, full, " ")

	_, stderr, err := execute(t, "", "encode", "--feed", solUSDHex, "--publish-time", "0")
	require.Error(t, err)
	require.Contains(t, stderr, "rejected: InvalidPriceUpdate")
}

func TestVerifyCmdInlinePolicy(t *testing.T) {
	account := encodeSample(t)

	out, _, err := execute(t, account,
		"verify", "--account", "-", "--feed", solUSDHex, "--now", fmt.Sprint(samplePublishTime+10))
	require.NoError(t, err)
	require.Contains(t, out, "feed_id: "+solUSDHex)
	require.Contains(t, out, "price: 4457.13929913")
	require.Contains(t, out, "confidence: 1.88943660")
	require.Contains(t, out, "exponent: -8")
	require.Contains(t, out, "age_seconds: 10")
}

func TestVerifyCmdConfigPolicy(t *testing.T) {
	dir := t.TempDir()
	accountPath := filepath.Join(dir, "update.hex")
	require.NoError(t, os.WriteFile(accountPath, []byte("0x"+encodeSample(t)+"\n"), 0o600))
	configPath := writeConfig(t, "policies.yaml", policiesYAML)

	out, _, err := execute(t, "",
		"verify", "--config", configPath, "--account", accountPath, "--now", fmt.Sprint(samplePublishTime+60))
	require.NoError(t, err)
	require.Contains(t, out, "price: 4457.13929913")

	_, stderr, err := execute(t, "",
		"verify", "--config", configPath, "--account", accountPath, "--now", fmt.Sprint(samplePublishTime+61))
	require.Error(t, err)
	require.Contains(t, stderr, "rejected: StalePrice")

	_, stderr, err = execute(t, "",
		"verify", "--config", configPath, "--policy", "eth_usd", "--account", accountPath, "--now", fmt.Sprint(samplePublishTime))
	require.Error(t, err)
	require.Contains(t, stderr, "rejected: UnknownFeed")
}

func TestVerifyCmdRejections(t *testing.T) {
	now := fmt.Sprint(samplePublishTime)

	tests := []struct {
		name     string
		account  string
		args     []string
		wantKind string
	}{
		{"partial verification", encodeSample(t, "--partial", "5"), nil, "InsufficientVerification"},
		{"zero price", encodeSample(t, "--price", "0"), nil, "ZeroPrice"},
		{"wide confidence", encodeSample(t, "--price", "5854321", "--conf", "120000"), nil, "WideConfidence"},
		{"not hex", "zz", nil, "InvalidPriceUpdate"},
		{"truncated", encodeSample(t)[:40], nil, "InvalidPriceUpdate"},
		{"bad min verification", encodeSample(t), []string{"--min-verification", "most"}, "InvalidPolicy"},
		{"partial accepted only when allowed", encodeSample(t, "--partial", "2"), []string{"--min-verification", "partial:3"}, "InsufficientVerification"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"verify", "--account", "-", "--feed", solUSDHex, "--now", now}, tt.args...)
			out, stderr, err := execute(t, tt.account, args...)
			require.Error(t, err)
			require.Empty(t, out)
			require.Contains(t, stderr, "rejected: "+tt.wantKind)
			require.Contains(t, stderr, "suggestion: ")
		})
	}
}

func TestVerifyCmdPartialWithinPolicy(t *testing.T) {
	out, _, err := execute(t, encodeSample(t, "--partial", "5"),
		"verify", "--account", "-", "--feed", solUSDHex, "--min-verification", "partial:3", "--now", fmt.Sprint(samplePublishTime))
	require.NoError(t, err)
	require.Contains(t, out, "price: 4457.13929913")
}

func TestVerifyCmdJSONLogging(t *testing.T) {
	_, stderr, err := execute(t, encodeSample(t),
		"--log-format", "json",
		"verify", "--account", "-", "--feed", solUSDHex, "--now", fmt.Sprint(samplePublishTime))
	require.NoError(t, err)
	require.Contains(t, stderr, `"message":"price verified"`)
	require.Contains(t, stderr, `"price":445713929913`)

	_, _, err = execute(t, "", "--log-format", "xml", "feed-id", solUSDHex)
	require.Error(t, err)
	_, _, err = execute(t, "", "--log-level", "loud", "feed-id", solUSDHex)
	require.Error(t, err)
}

func TestFailuresReachStderrOnce(t *testing.T) {
	_, stderr, err := execute(t, encodeSample(t, "--price", "0"),
		"verify", "--account", "-", "--feed", solUSDHex, "--now", fmt.Sprint(samplePublishTime))
	require.ErrorIs(t, err, types.ErrZeroPrice)
	require.Equal(t, 1, strings.Count(stderr, "rejected: ZeroPrice"))
	require.NotContains(t, stderr, "Error:")

	_, stderr, err = execute(t, "", "feed-id", solUSDHex, "--no-such-flag")
	require.Error(t, err)
	require.Equal(t, 1, strings.Count(stderr, "Error: unknown flag: --no-such-flag"))
	require.NotContains(t, stderr, "Usage:")
}

func TestMetricsAddrFlag(t *testing.T) {
	out, stderr, err := execute(t, encodeSample(t),
		"--metrics-addr", "127.0.0.1:0",
		"verify", "--account", "-", "--feed", solUSDHex, "--now", fmt.Sprint(samplePublishTime))
	require.NoError(t, err)
	require.Contains(t, out, "price: 4457.13929913")
	require.Contains(t, stderr, "serving metrics")
	require.Contains(t, stderr, "path=/metrics")

	_, stderr, err = execute(t, "", "--metrics-addr", "localhost", "feed-id", solUSDHex)
	require.Error(t, err)
	require.Equal(t, 1, strings.Count(stderr, "Error: invalid telemetry config"))

	t.Setenv("PRICEFEED_METRICS_ADDR", "localhost")
	_, _, err = execute(t, "", "feed-id", solUSDHex)
	require.ErrorContains(t, err, "invalid metrics address")
}

func TestVerifyCmdState(t *testing.T) {
	dir := t.TempDir()
	bz, err := json.Marshal(types.GenesisState{Accounts: []string{encodeSample(t)}})
	require.NoError(t, err)
	statePath := filepath.Join(dir, "genesis.json")
	require.NoError(t, os.WriteFile(statePath, bz, 0o600))

	now := fmt.Sprint(samplePublishTime + 5)
	out, _, err := execute(t, "", "verify", "--state", statePath, "--feed", solUSDHex, "--now", now)
	require.NoError(t, err)
	require.Contains(t, out, "age_seconds: 5")

	// the same publish time again is not newer than the seeded account
	_, stderr, err := execute(t, encodeSample(t),
		"verify", "--state", statePath, "--account", "-", "--feed", solUSDHex, "--now", now)
	require.ErrorIs(t, err, types.ErrUpdateNotNewer)
	require.Contains(t, stderr, "rejected: UpdateNotNewer")

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte(`{"accounts":["00"]}`), 0o600))
	_, stderr, err = execute(t, "", "verify", "--state", badPath, "--feed", solUSDHex, "--now", now)
	require.ErrorIs(t, err, types.ErrInvalidPriceUpdate)
	require.Contains(t, stderr, "rejected: InvalidPriceUpdate")

	_, stderr, err = execute(t, "", "verify", "--feed", solUSDHex)
	require.Error(t, err)
	require.Contains(t, stderr, "Error: at least one of the flags")
	require.Contains(t, stderr, "[account state]")
}
