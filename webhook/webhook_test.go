package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify_SignsAndDelivers(t *testing.T) {
	var gotSig string
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		assert.Equal(t, "sha256="+Sign("s3cret", body), gotSig)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := New(srv.URL, "s3cret")
	err := n.Notify(context.Background(), &Event{
		Type:      EventCompleted,
		Timestamp: 1700000000,
		Data:      CompletedData{Records: 3},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, gotSig)
	assert.Equal(t, EventCompleted, got.Type)
}

func TestNotify_RetriesThenGivesUp(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := New(srv.URL, "")
	var waits []time.Duration
	n.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	err := n.Notify(context.Background(), &Event{Type: EventCompleted})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second}, waits)
}

func TestNotify_RecoversOnRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get(SignatureHeader) != "" {
			t.Error("unsigned notifier sent a signature")
		}
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, "")
	n.sleep = func(context.Context, time.Duration) error { return nil }

	require.NoError(t, n.Notify(context.Background(), &Event{Type: EventCompleted}))
	assert.Equal(t, 2, calls)
}

func TestNew_EmptyURL(t *testing.T) {
	n := New("", "secret")
	assert.Nil(t, n)
	assert.NoError(t, n.Notify(context.Background(), &Event{Type: EventCompleted}))
}
