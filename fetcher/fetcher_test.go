package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/tbmm-scraper/config"
	"github.com/use-agent/tbmm-scraper/engine"
	"github.com/use-agent/tbmm-scraper/models"
)

var goodPage = "<html><body>" + strings.Repeat("<p>teklif</p>", engine.MinContentBytes/10) + "</body></html>"

type scriptedLoader struct {
	results []string
	errs    []error
	calls   int
	rereads int
	reread  string
}

func (l *scriptedLoader) Load(_ context.Context, _ string) (string, error) {
	i := l.calls
	l.calls++
	if i < len(l.errs) && l.errs[i] != nil {
		return "", l.errs[i]
	}
	if i < len(l.results) {
		return l.results[i], nil
	}
	return "", errors.New("no scripted result")
}

type rereadLoader struct {
	scriptedLoader
}

func (l *rereadLoader) Reread(context.Context) (string, error) {
	l.rereads++
	return l.reread, nil
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func testConfig() config.FetchConfig {
	return config.FetchConfig{MaxRetries: 3, BaseDelay: 4 * time.Second, SoftFailureWait: 5 * time.Second}
}

func TestFetch_RetryExhaustion(t *testing.T) {
	boom := errors.New("connection reset")
	loader := &scriptedLoader{errs: []error{boom, boom, boom, boom}}
	rec := &sleepRecorder{}
	f := New(loader, testConfig(), WithSleep(rec.sleep))

	_, err := f.Fetch(context.Background(), "https://www.tbmm.gov.tr/x")
	require.Error(t, err)

	assert.Equal(t, models.ErrCodeNetwork, models.ErrorCode(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, loader.calls)

	require.Len(t, rec.delays, 2)
	for i := 1; i < len(rec.delays); i++ {
		assert.Greater(t, rec.delays[i], rec.delays[i-1])
	}
	assert.Equal(t, []time.Duration{4 * time.Second, 8 * time.Second}, rec.delays)
}

func TestFetch_SucceedsAfterFailure(t *testing.T) {
	loader := &scriptedLoader{
		errs:    []error{errors.New("timeout"), nil},
		results: []string{"", goodPage},
	}
	rec := &sleepRecorder{}
	f := New(loader, testConfig(), WithSleep(rec.sleep))

	got, err := f.Fetch(context.Background(), "https://www.tbmm.gov.tr/x")
	require.NoError(t, err)
	assert.Equal(t, goodPage, got)
	assert.Equal(t, 2, loader.calls)
	assert.Len(t, rec.delays, 1)
}

func TestFetch_SoftFailureRereadsOnce(t *testing.T) {
	loader := &rereadLoader{}
	loader.results = []string{"<html>Checking your browser</html>"}
	loader.reread = goodPage
	rec := &sleepRecorder{}
	f := New(loader, testConfig(), WithSleep(rec.sleep))

	got, err := f.Fetch(context.Background(), "https://www.tbmm.gov.tr/x")
	require.NoError(t, err)
	assert.Equal(t, goodPage, got)
	assert.Equal(t, 1, loader.calls, "a re-read is not a new retrieval")
	assert.Equal(t, 1, loader.rereads)
	assert.Equal(t, []time.Duration{5 * time.Second}, rec.delays)
}

func TestFetch_SoftFailureAcceptedWithoutRereader(t *testing.T) {
	loader := &scriptedLoader{results: []string{"<html>short</html>"}}
	rec := &sleepRecorder{}
	f := New(loader, testConfig(), WithSleep(rec.sleep))

	got, err := f.Fetch(context.Background(), "https://www.tbmm.gov.tr/x")
	require.NoError(t, err)
	assert.Equal(t, "<html>short</html>", got)
	assert.Empty(t, rec.delays)
}

func TestFetch_CanceledDuringBackoff(t *testing.T) {
	loader := &scriptedLoader{errs: []error{errors.New("down"), errors.New("down")}}
	ctx, cancel := context.WithCancel(context.Background())
	f := New(loader, testConfig(), WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := f.Fetch(ctx, "https://www.tbmm.gov.tr/x")
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeCanceled, models.ErrorCode(err))
	assert.Equal(t, 1, loader.calls)
}

func TestBackoff(t *testing.T) {
	f := New(&scriptedLoader{}, config.FetchConfig{MaxRetries: 5, BaseDelay: time.Second})
	assert.Equal(t, time.Second, f.Backoff(1))
	assert.Equal(t, 2*time.Second, f.Backoff(2))
	assert.Equal(t, 8*time.Second, f.Backoff(4))
}

func TestSleep_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetch_HTTPOnlyShortPageAccepted(t *testing.T) {
	const short = `<html><body><table class="sonucTablo"><tr><td>1</td></tr></table></body></html>`
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(short))
	}))
	defer srv.Close()

	d := engine.NewDispatcher([]engine.Engine{engine.NewHTTPEngine(5 * time.Second)}, 5*time.Second, nil)
	rec := &sleepRecorder{}
	f := New(d, testConfig(), WithSleep(rec.sleep))

	got, err := f.Fetch(context.Background(), srv.URL+"/liste")
	require.NoError(t, err)
	assert.Equal(t, short, got)
	assert.Equal(t, 1, hits, "a short page is not fetched again")
	assert.Equal(t, []time.Duration{5 * time.Second}, rec.delays, "one wait before the re-read")
}
