package sandbox_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appsheetkit/appsheet_sdk_go/internal/sandbox"
	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet/mock"
)

func newSandbox(t *testing.T, cfg sandbox.Config) (*httptest.Server, *mock.Store) {
	t.Helper()
	store := mock.New()
	require.NoError(t, store.DefineTable("Sales Orders", "OrderID"))
	require.NoError(t, store.DefineTable("Lines", "OrderID", "Line"))
	srv := httptest.NewServer(sandbox.New(store, cfg).Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func newClient(t *testing.T, srv *httptest.Server, key string) *appsheet.Client {
	t.Helper()
	client, err := appsheet.New(appsheet.Config{
		AppID:     "app-1",
		AccessKey: key,
		BaseURL:   srv.URL + "/api/v2/",
	})
	require.NoError(t, err)
	return client
}

func TestSandboxRoundTrip(t *testing.T) {
	srv, store := newSandbox(t, sandbox.Config{AppID: "app-1", AccessKey: "k"})
	client := newClient(t, srv, "k")
	ctx := context.Background()

	_, err := client.Add(ctx, "Sales Orders", []appsheet.Row{
		{"OrderID": "A1", "Customer": "Acme", "Total": "10"},
		{"OrderID": "A2", "Customer": "Globex", "Total": "25"},
	})
	require.NoError(t, err)

	rows, err := client.Find(ctx, "Sales Orders", &appsheet.Query{
		Selector: appsheet.BuildSelectorOp("Sales Orders", "Total", appsheet.OpGreater, 12),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Globex", rows[0]["Customer"])

	_, err = client.Edit(ctx, "Sales Orders", "OrderID", appsheet.Row{"OrderID": "A1", "Total": "11"})
	require.NoError(t, err)

	_, err = client.Delete(ctx, "Sales Orders", appsheet.SingleKey("OrderID", "A2"))
	require.NoError(t, err)

	stored, err := store.Rows("Sales Orders")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "11", stored[0]["Total"])
}

func TestSandboxCompositeDelete(t *testing.T) {
	srv, store := newSandbox(t, sandbox.Config{})
	client := newClient(t, srv, "any")
	ctx := context.Background()

	_, err := client.Add(ctx, "Lines", []appsheet.Row{
		{"OrderID": "A1", "Line": "1"},
		{"OrderID": "A1", "Line": "2"},
	})
	require.NoError(t, err)

	_, err = client.Delete(ctx, "Lines", appsheet.CompositeKey(appsheet.Row{"OrderID": "A1", "Line": "2"}))
	require.NoError(t, err)
	rows, err := store.Rows("Lines")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A1: 1", rows[0][appsheet.ComputedKeyColumn])
}

func TestSandboxRejectsWrongAccessKey(t *testing.T) {
	srv, _ := newSandbox(t, sandbox.Config{AccessKey: "right"})
	client := newClient(t, srv, "wrong")

	_, err := client.FindAll(context.Background(), "Lines")
	var herr *appsheet.HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusForbidden, herr.StatusCode)
	assert.Equal(t, "invalid application access key", herr.Message())
}

func TestSandboxUnknownAppAndTable(t *testing.T) {
	srv, _ := newSandbox(t, sandbox.Config{AppID: "other"})
	client := newClient(t, srv, "k")

	_, err := client.FindAll(context.Background(), "Lines")
	var herr *appsheet.HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusNotFound, herr.StatusCode)

	srv, _ = newSandbox(t, sandbox.Config{})
	client = newClient(t, srv, "k")
	_, err = client.FindAll(context.Background(), "Missing Table")
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusNotFound, herr.StatusCode)
	assert.Contains(t, herr.Message(), "Missing Table")
}

func TestSandboxFailureInjection(t *testing.T) {
	srv, _ := newSandbox(t, sandbox.Config{Fail: sandbox.FailConfig{Rate: 1, Code: http.StatusServiceUnavailable}})
	client := newClient(t, srv, "k")

	_, err := client.FindAll(context.Background(), "Lines")
	var herr *appsheet.HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusServiceUnavailable, herr.StatusCode)
	assert.True(t, herr.Retryable())
}

func TestSandboxLatencyHonoursContext(t *testing.T) {
	srv, _ := newSandbox(t, sandbox.Config{Latency: time.Second})
	client := newClient(t, srv, "k")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.FindAll(ctx, "Lines")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseFailConfig(t *testing.T) {
	cfg, err := sandbox.ParseFailConfig("")
	require.NoError(t, err)
	assert.Zero(t, cfg)

	cfg, err = sandbox.ParseFailConfig("rate=0.25")
	require.NoError(t, err)
	assert.Equal(t, sandbox.FailConfig{Rate: 0.25, Code: http.StatusInternalServerError}, cfg)

	cfg, err = sandbox.ParseFailConfig(" rate=1 , code=429 ")
	require.NoError(t, err)
	assert.Equal(t, sandbox.FailConfig{Rate: 1, Code: 429}, cfg)

	for _, bad := range []string{"rate", "rate=x", "rate=2", "code=200", "color=red"} {
		_, err := sandbox.ParseFailConfig(bad)
		assert.Error(t, err, bad)
	}
}

func TestConfigBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8787/api/v2/", sandbox.Config{Addr: ":8787"}.BaseURL())
	assert.Equal(t, "http://127.0.0.1:9000/api/v2/", sandbox.Config{Addr: "127.0.0.1:9000"}.BaseURL())
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	store := mock.New()
	require.NoError(t, store.DefineTable("T", "ID"))
	srv := sandbox.New(store, sandbox.Config{Addr: ln.Addr().String()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client, err := appsheet.New(appsheet.Config{
		AppID:     "a",
		AccessKey: "k",
		BaseURL:   "http://" + ln.Addr().String() + "/api/v2/",
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := client.FindAll(context.Background(), "T")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
