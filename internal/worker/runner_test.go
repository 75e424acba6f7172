package worker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearviewfp/report-engine/internal/observability"
)

func testRunner(t *testing.T, timeout time.Duration) *Runner {
	t.Helper()
	return NewRunner(observability.DefaultLogger(), timeout)
}

// shWorker builds a Request that runs the given shell script as the worker.
func shWorker(script string, payload []byte) Request {
	return Request{Command: "/bin/sh", Args: []string{"-c", script}, Payload: payload}
}

func TestRunner_Invoke_CollectsStdout(t *testing.T) {
	r := testRunner(t, 10*time.Second)

	raw := <-r.Invoke(context.Background(), shWorker(
		`cat >/dev/null; echo '{"provider":"AJ Bell","client_name":"Mr John Smith","accounts":[],"total_value":0}'`,
		[]byte("statement text"),
	))

	require.NoError(t, raw.Err)
	res := DecodeStatement(raw)
	assert.Equal(t, "AJ Bell", res.Provider)
	assert.Equal(t, "Mr John Smith", res.ClientName)
	assert.Empty(t, res.Accounts)
}

func TestRunner_Invoke_PayloadReachesStdin(t *testing.T) {
	r := testRunner(t, 10*time.Second)

	// The worker only terminates once stdin is closed, so this also proves
	// the single-write-then-close contract.
	raw := <-r.Invoke(context.Background(), shWorker(
		`p=$(cat); printf '{"client_name":"%s","accounts":[],"total_value":0}' "$p"`,
		[]byte("Mrs Jane Doe"),
	))

	require.NoError(t, raw.Err)
	res := DecodeStatement(raw)
	assert.Equal(t, "Mrs Jane Doe", res.ClientName)
}

func TestRunner_Invoke_StderrTagsAreAdvisory(t *testing.T) {
	r := testRunner(t, 10*time.Second)

	raw := <-r.Invoke(context.Background(), shWorker(
		`echo "PROVIDER:AJ_BELL" >&2; echo "random log noise" >&2; echo '{"provider":"AJ Bell","accounts":[],"total_value":0}'`,
		nil,
	))

	require.NoError(t, raw.Err)
	assert.Equal(t, []string{"PROVIDER:AJ_BELL"}, raw.Tags)

	// Noise on the diagnostic channel never corrupts the result.
	res := DecodeStatement(raw)
	assert.Equal(t, "AJ Bell", res.Provider)
}

func TestRunner_Invoke_MalformedOutputDegrades(t *testing.T) {
	r := testRunner(t, 10*time.Second)

	raw := <-r.Invoke(context.Background(), shWorker(`echo 'this is not json {'`, nil))

	require.NoError(t, raw.Err)
	res := DecodeStatement(raw)
	assert.Empty(t, res.Accounts)
	assert.True(t, res.TotalValue.IsZero())

	chart := DecodeCharts(raw)
	assert.False(t, chart.ChartsExtracted)
}

func TestRunner_Invoke_ExitStatusNotAuthoritative(t *testing.T) {
	r := testRunner(t, 10*time.Second)

	// Non-zero exit with a decodable buffer still yields the decoded result.
	raw := <-r.Invoke(context.Background(), shWorker(
		`echo '{"provider":"Morningstar","accounts":[{"type":"ISA","provider":"Morningstar","value":"5000","contributions":"4000","return":"1000","performance":4.2}],"total_value":"5000"}'; exit 3`,
		nil,
	))

	require.Error(t, raw.Err)
	assert.Equal(t, 3, raw.ExitCode)

	res := DecodeStatement(raw)
	require.Len(t, res.Accounts, 1)
	assert.True(t, res.Accounts[0].Value.Equal(decimal.NewFromInt(5000)))
	assert.True(t, res.TotalValue.Equal(decimal.NewFromInt(5000)))
}

func TestRunner_Invoke_TimeoutDegrades(t *testing.T) {
	r := testRunner(t, 200*time.Millisecond)

	start := time.Now()
	raw := <-r.Invoke(context.Background(), shWorker(`sleep 5; echo '{"accounts":[]}'`, nil))

	require.Error(t, raw.Err)
	assert.Less(t, time.Since(start), 3*time.Second)

	// Timeout follows the decode-failure path.
	res := DecodeStatement(raw)
	assert.Empty(t, res.Accounts)
	assert.True(t, res.TotalValue.IsZero())
}

func TestRunner_Invoke_MissingCommand(t *testing.T) {
	r := testRunner(t, time.Second)

	raw := <-r.Invoke(context.Background(), Request{Command: "/no/such/worker"})

	require.Error(t, raw.Err)
	assert.Empty(t, raw.Stdout)
	assert.False(t, DecodeCharts(raw).ChartsExtracted)
}

func TestScanTags(t *testing.T) {
	stderr := []byte(
		"starting up\n" +
			"PROVIDER:MORNINGSTAR\n" +
			"2026/01/15 chart written CHART:money_in_vs_out.png\n" +
			"plain noise with no tag\n",
	)

	tags := ScanTags(stderr)
	assert.Equal(t, []string{"PROVIDER:MORNINGSTAR", "CHART:money_in_vs_out.png"}, tags)
}

func TestScanTags_Empty(t *testing.T) {
	assert.Empty(t, ScanTags(nil))
	assert.Empty(t, ScanTags([]byte("just logs\nmore logs\n")))
}

func TestDecodeStatement_NullFields(t *testing.T) {
	raw := Raw{Stdout: []byte(`{"provider":"Unknown","error":"provider not recognised","client_name":null,"accounts":[],"total_value":0}`)}

	res := DecodeStatement(raw)
	assert.Equal(t, "Unknown", res.Provider)
	assert.Empty(t, res.ClientName)
	assert.NotNil(t, res.Accounts)
	assert.True(t, res.TotalValue.IsZero())
}

func TestDecodeStatement_NilAccountsNormalized(t *testing.T) {
	raw := Raw{Stdout: []byte(`{"provider":"AJ Bell","total_value":0}`)}

	res := DecodeStatement(raw)
	assert.NotNil(t, res.Accounts)
	assert.Empty(t, res.Accounts)
}
