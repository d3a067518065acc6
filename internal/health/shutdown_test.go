package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-registration/internal/health"
)

func TestReadyFlipsOffDuringDrain(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "retiro.json"), []byte(`{}`), 0o600))
	handler := health.Handler{Checker: health.Probe{EventsDir: dir}, EventsTimeout: time.Second}
	t.Cleanup(func() { health.SetReady(true) })

	ready := func() (int, map[string]string) {
		rr := httptest.NewRecorder()
		handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		var status map[string]string
		if rr.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
		}
		return rr.Code, status
	}

	health.SetReady(true)
	code, status := ready()
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", status["events"])
	require.Equal(t, "ok", status["redis"])

	health.SetReady(false)
	code, _ = ready()
	require.Equal(t, http.StatusServiceUnavailable, code)

	// The events directory going away keeps the instance out of rotation
	// even after the drain flag is cleared.
	health.SetReady(true)
	require.NoError(t, os.RemoveAll(dir))
	code, _ = ready()
	require.Equal(t, http.StatusServiceUnavailable, code)
}
