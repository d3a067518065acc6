package intake_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-registration/internal/intake"
	"github.com/noah-isme/event-registration/internal/lock"
)

func sampleSubmission(id string) intake.Submission {
	return intake.Submission{
		RegistrationID: id,
		Event:          intake.EventInfo{Slug: "retiro", Name: "Retiro"},
		Participants: []intake.Participant{{
			Name:    "Ana",
			Lodging: decimal.RequireFromString("200.00"),
			Event:   decimal.Zero,
			Total:   decimal.RequireFromString("200.00"),
		}},
		Pricing:     intake.Pricing{Currency: "BRL", Total: decimal.RequireFromString("200.00")},
		SubmittedAt: time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC),
	}
}

func TestSubmitPostsJSONAndParsesLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var got map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "reg-1", got["registration_id"])
		assert.Equal(t, "200", got["pricing"].(map[string]any)["total"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok!","pagamento_link":"https://pay.example/1"}`))
	}))
	t.Cleanup(srv.Close)

	client := intake.NewClient(intake.Config{URL: srv.URL, Timeout: time.Second, Logger: zerolog.Nop()})
	res, err := client.Submit(context.Background(), sampleSubmission("reg-1"))
	require.NoError(t, err)
	require.Equal(t, "ok!", res.Message)
	require.Equal(t, "https://pay.example/1", res.Link)
}

func TestSubmitRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := intake.NewClient(intake.Config{URL: srv.URL, MaxAttempts: 2, BaseBackoff: time.Millisecond, Logger: zerolog.Nop()})
	_, err := client.Submit(context.Background(), sampleSubmission("reg-2"))
	require.Error(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestSubmitReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnprocessableEntity)
	}))
	t.Cleanup(srv.Close)

	client := intake.NewClient(intake.Config{URL: srv.URL, Logger: zerolog.Nop()})
	_, err := client.Submit(context.Background(), sampleSubmission("reg-3"))
	require.ErrorIs(t, err, intake.ErrRejected)
}

func TestSubmitGuardsDuplicateInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		_, _ = w.Write([]byte("received"))
	}))
	t.Cleanup(srv.Close)

	client := intake.NewClient(intake.Config{URL: srv.URL, Logger: zerolog.Nop()})
	done := make(chan error, 1)
	go func() {
		_, err := client.Submit(context.Background(), sampleSubmission("reg-4"))
		done <- err
	}()
	<-entered

	_, err := client.Submit(context.Background(), sampleSubmission("reg-4"))
	require.ErrorIs(t, err, intake.ErrSubmissionInProgress)

	close(release)
	require.NoError(t, <-done)

	_, err = client.Submit(context.Background(), sampleSubmission(""))
	require.ErrorIs(t, err, intake.ErrInvalidSubmission)
}

func TestSubmitSharedGuardAcrossClients(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("received"))
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	guard := lock.Locker{R: rdb}

	// Another replica is mid-submission for the same registration.
	held, err := guard.TryAcquire(context.Background(), "intake:inflight:reg-5", time.Minute)
	require.NoError(t, err)

	client := intake.NewClient(intake.Config{URL: srv.URL, Guard: guard, Logger: zerolog.Nop()})
	_, err = client.Submit(context.Background(), sampleSubmission("reg-5"))
	require.ErrorIs(t, err, intake.ErrSubmissionInProgress)
	require.Zero(t, calls.Load())

	held()
	res, err := client.Submit(context.Background(), sampleSubmission("reg-5"))
	require.NoError(t, err)
	require.Equal(t, "received", res.Message)
	require.False(t, mr.Exists("intake:inflight:reg-5"))
}

func TestParseResponse(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		want        intake.Result
	}{
		{name: "json link", contentType: "application/json; charset=utf-8", body: `{"message":"done","link":"L"}`, want: intake.Result{Message: "done", Link: "L"}},
		{name: "payment link fallback", contentType: "application/json", body: `{"payment_link":"P"}`, want: intake.Result{Message: intake.DefaultMessage, Link: "P"}},
		{name: "json in text body", contentType: "text/plain", body: ` {"message":"hi"}`, want: intake.Result{Message: "hi"}},
		{name: "plain text", contentType: "text/plain", body: "Inscrição recebida\n", want: intake.Result{Message: "Inscrição recebida"}},
		{name: "empty", contentType: "", body: "", want: intake.Result{Message: intake.DefaultMessage}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, intake.ParseResponse(tc.contentType, []byte(tc.body)))
		})
	}
}
