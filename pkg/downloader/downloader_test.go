package downloader

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhonben94/fide-Scraper/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(logger.Config{Level: "error", Environment: "development", ServiceName: "test"})
	require.NoError(t, err)
	return l
}

func zipWith(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create(name)
	require.NoError(t, err)
	_, err = f.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func fastRetry(c *Client) {
	c.retryOpts.MaxAttempts = 2
	c.retryOpts.InitialInterval = time.Millisecond
	c.retryOpts.MaxInterval = time.Millisecond
}

func TestFetchExtractsXML(t *testing.T) {
	xmlContent := []byte(`<playerslist><player><fideid>1</fideid></player></playerslist>`)

	var gotPeriod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPeriod = r.URL.Query().Get("period")
		w.Write(zipWith(t, "players_list_xml_foa.xml", xmlContent))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger(t))
	fastRetry(c)

	got, err := c.Fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, xmlContent, got)
	assert.Empty(t, gotPeriod)

	period := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)
	_, err = c.Fetch(context.Background(), &period)
	require.NoError(t, err)
	assert.Equal(t, "2023-12-01", gotPeriod)
}

func TestFetchNoXMLInArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(zipWith(t, "readme.txt", []byte("nothing here")))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger(t))
	fastRetry(c)

	_, err := c.Fetch(context.Background(), nil)
	assert.ErrorContains(t, err, "no xml file")
}

func TestFetchBadArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("definitely not a zip"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger(t))
	fastRetry(c)

	_, err := c.Fetch(context.Background(), nil)
	assert.ErrorContains(t, err, "open archive")
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger(t))
	fastRetry(c)

	_, err := c.Fetch(context.Background(), nil)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	calls := 0
	xmlContent := []byte(`<playerslist/>`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		w.Write(zipWith(t, "list.xml", xmlContent))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger(t))
	fastRetry(c)

	got, err := c.Fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, xmlContent, got)
	assert.Equal(t, 2, calls)
}
