package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/foomo/tagsoup"
	"github.com/foomo/tagsoup/extract"
	"github.com/foomo/tagsoup/record"
	"github.com/foomo/tagsoup/source"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/a.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title>Page A</title></head><body><h2>Welcome <a href="/b.html">b</a></h2><a href="/">home</a></body></html>`)
	})
	mux.HandleFunc("/latin1.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<title>Caf\xe9</title><h2>Men\xfc</h2>"))
	})
	return httptest.NewServer(mux)
}

func newExtractor(t *testing.T) *extract.Extractor {
	e, errNew := extract.New(extract.DefaultFields())
	require.NoError(t, errNew)
	return e
}

func TestRun(t *testing.T) {
	server := newTestServer()
	defer server.Close()
	dir := t.TempDir()
	filename := filepath.Join(dir, "c.html")
	require.NoError(t, os.WriteFile(filename, []byte("<title>Page C</title>\n<p>no headline</p>"), 0o644))

	buf := &bytes.Buffer{}
	reg := prometheus.NewRegistry()
	p, errNew := New(
		source.NewFetcher(),
		newExtractor(t),
		record.NewCSVWriter(buf),
		WithLogger(zaptest.NewLogger(t)),
		WithRegisterer(reg),
		WithParseOptions(tagsoup.WithNormalizedWhitespace()),
	)
	require.NoError(t, errNew)

	stats, errRun := p.Run(context.Background(), []string{
		server.URL + "/a.html",
		server.URL + "/missing.html",
		server.URL + "/latin1.html",
		filename,
	})
	require.NoError(t, errRun)
	assert.Equal(t, Stats{Documents: 4, Records: 3, Failed: 1}, stats)
	assert.Equal(t, "title_text,h2_text,num_links\nPage A,Welcome b,2\nCafé,Menü,0\nPage C,,0\n", buf.String())

	assert.Equal(t, float64(3), testutil.ToFloat64(p.metrics.documents.WithLabelValues(statusOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.metrics.documents.WithLabelValues(statusFetchError)))
	assert.Equal(t, float64(3), testutil.ToFloat64(p.metrics.records))
	count, errCount := testutil.GatherAndCount(reg, "tagsoup_parse_duration_seconds")
	require.NoError(t, errCount)
	assert.Equal(t, 1, count)
}

func TestRunFailFast(t *testing.T) {
	server := newTestServer()
	defer server.Close()
	collector := &record.Collector{}
	p, errNew := New(source.NewFetcher(), newExtractor(t), collector, WithFailFast())
	require.NoError(t, errNew)
	stats, errRun := p.Run(context.Background(), []string{
		server.URL + "/a.html",
		server.URL + "/missing.html",
		server.URL + "/latin1.html",
	})
	assert.True(t, errors.Is(errRun, source.ErrUnexpectedStatus))
	assert.Equal(t, Stats{Documents: 2, Records: 1, Failed: 1}, stats)
	assert.Len(t, collector.Records, 1)
}

func TestRunExtractError(t *testing.T) {
	server := newTestServer()
	defer server.Close()
	e, errNew := extract.New([]extract.Field{{Name: "table", Tag: "table", Missing: extract.MissingFail}})
	require.NoError(t, errNew)
	collector := &record.Collector{}
	p, errNew := New(source.NewFetcher(), e, collector)
	require.NoError(t, errNew)
	stats, errRun := p.Run(context.Background(), []string{server.URL + "/a.html"})
	require.NoError(t, errRun)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, float64(1), testutil.ToFloat64(p.metrics.documents.WithLabelValues(statusExtractError)))
	assert.Len(t, collector.Records, 0)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, errNew := New(source.NewFetcher(), newExtractor(t), &record.Collector{})
	require.NoError(t, errNew)
	stats, errRun := p.Run(ctx, []string{"a.html"})
	assert.True(t, errors.Is(errRun, context.Canceled))
	assert.Equal(t, 0, stats.Documents)
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, errNew := New(source.NewFetcher(), newExtractor(t), &record.Collector{}, WithRegisterer(reg))
	require.NoError(t, errNew)
	_, errNew = New(source.NewFetcher(), newExtractor(t), &record.Collector{}, WithRegisterer(reg))
	assert.Error(t, errNew)
}
