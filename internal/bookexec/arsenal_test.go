package bookexec

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/court-scheduler/internal/booking"
	"github.com/example/court-scheduler/internal/creds"
	"github.com/stretchr/testify/require"
)

func writeCredentials(t *testing.T) *creds.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	data := `{"dasspiel": {"username": "player@example.com", "password": "secret"},
		"postsv": {"username": "player", "password": "secret"}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return creds.NewStore(path)
}

const arsenalCSRF = "tok-123"

// fakeArsenal mimics the signin and rent-squares endpoints. rent is called
// with the form the strategy submitted so tests can inspect it.
func fakeArsenal(t *testing.T, rent http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/signin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`<html><head><meta name="csrf-token" content="` + arsenalCSRF + `"></head></html>`))
			return
		}
		if r.Header.Get("X-CSRF-TOKEN") != arsenalCSRF {
			http.Error(w, "bad token", http.StatusForbidden)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "laravel_session", Value: "sess-1"})
		w.Write([]byte(`{"state":"signed-in"}`))
	})
	mux.HandleFunc("/reservations/rent-squares", rent)
	return httptest.NewServer(mux)
}

func TestArsenalAPIBooksSlot(t *testing.T) {
	var gotForm map[string]string
	srv := fakeArsenal(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		require.Equal(t, arsenalCSRF, r.Header.Get("X-CSRF-TOKEN"))
		w.Write([]byte(`{"status":1}`))
	})
	defer srv.Close()

	strat := NewArsenalAPI(srv.URL, writeCredentials(t), 5*time.Second, discard())
	res := strat.Attempt(context.Background(), arsenalSlot())

	require.Equal(t, booking.OutcomeSuccess, res.Outcome)
	require.Contains(t, res.Message, "Platz 3")
	require.Equal(t, "abc-123", gotForm["square_id"])
	require.Equal(t, "18:00", gotForm["time_start"])
	require.Equal(t, "19:00", gotForm["time_end"])
	require.Equal(t, "2", gotForm["players"])
	require.Equal(t, arsenalCSRF, gotForm["_token"])
}

func TestArsenalAPIRedirectIsSuccess(t *testing.T) {
	srv := fakeArsenal(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/")
		w.WriteHeader(http.StatusFound)
	})
	defer srv.Close()

	strat := NewArsenalAPI(srv.URL, writeCredentials(t), 5*time.Second, discard())
	res := strat.Attempt(context.Background(), arsenalSlot())

	require.Equal(t, booking.OutcomeSuccess, res.Outcome)
}

func TestArsenalAPIValidationRejection(t *testing.T) {
	srv := fakeArsenal(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"status":0,"message":"Der Platz ist bereits vergeben."}`))
	})
	defer srv.Close()

	strat := NewArsenalAPI(srv.URL, writeCredentials(t), 5*time.Second, discard())
	res := strat.Attempt(context.Background(), arsenalSlot())

	require.Equal(t, booking.OutcomeFailed, res.Outcome)
	require.Equal(t, booking.CodeValidation, res.Code)
	require.False(t, res.Code.Retryable())
	require.Contains(t, res.Message, "bereits vergeben")
}

func TestArsenalAPIServerErrorIsRetryable(t *testing.T) {
	srv := fakeArsenal(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	defer srv.Close()

	strat := NewArsenalAPI(srv.URL, writeCredentials(t), 5*time.Second, discard())
	res := strat.Attempt(context.Background(), arsenalSlot())

	require.Equal(t, booking.OutcomeFailed, res.Outcome)
	require.True(t, res.Code.Retryable())
}

func TestArsenalAPIJSONRejectionOn200(t *testing.T) {
	srv := fakeArsenal(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":0,"message":"Zeitraum nicht verfügbar"}`))
	})
	defer srv.Close()

	strat := NewArsenalAPI(srv.URL, writeCredentials(t), 5*time.Second, discard())
	res := strat.Attempt(context.Background(), arsenalSlot())

	require.Equal(t, booking.OutcomeFailed, res.Outcome)
	require.Equal(t, booking.CodeValidation, res.Code)
}

func TestArsenalAPIMissingSquareID(t *testing.T) {
	strat := NewArsenalAPI("http://unreachable.invalid", writeCredentials(t), time.Second, discard())
	slot := arsenalSlot()
	slot.SquareID = ""

	res := strat.Attempt(context.Background(), slot)

	require.Equal(t, booking.OutcomeFailed, res.Outcome)
	require.Equal(t, booking.CodeMissingToken, res.Code)
}

func TestArsenalAPINoCredentials(t *testing.T) {
	store := creds.NewStore(filepath.Join(t.TempDir(), "missing.json"))
	strat := NewArsenalAPI("http://unreachable.invalid", store, time.Second, discard())

	res := strat.Attempt(context.Background(), arsenalSlot())

	require.Equal(t, booking.OutcomeFailed, res.Outcome)
	require.Equal(t, booking.CodeNoCredentials, res.Code)
}

func TestArsenalAPILoginRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/signin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`<html><head><meta name="csrf-token" content="tok"></head></html>`))
			return
		}
		w.Write([]byte(`{"state":"invalid-credentials"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	strat := NewArsenalAPI(srv.URL, writeCredentials(t), 5*time.Second, discard())
	res := strat.Attempt(context.Background(), arsenalSlot())

	require.Equal(t, booking.OutcomeFailed, res.Outcome)
	require.Equal(t, booking.CodeLoginFailed, res.Code)
}
