package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contribsvc "github.com/contribhub/sync-functions/internal/contributors/service"
	projectsvc "github.com/contribhub/sync-functions/internal/projects/service"
	"github.com/contribhub/sync-functions/internal/store/memstore"
	"github.com/contribhub/sync-functions/internal/triggers"
	"github.com/contribhub/sync-functions/internal/triggers/ledger"
	usersvc "github.com/contribhub/sync-functions/internal/users/service"
)

func newLedgerRouter(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	l := ledger.NewRedisLedger(client, time.Hour)

	docs := memstore.NewDocuments()
	dispatcher := triggers.NewDispatcher(triggers.Services{
		Projects:     projectsvc.NewProjectService(docs, memstore.NewBlobs()),
		Contributors: contribsvc.NewContributorService(docs),
		Users:        usersvc.NewUserService(docs),
	}, triggers.WithLedger(l))

	return BuildRouter(RouterDeps{
		ServiceName:   "test-service",
		Version:       "1.0.0",
		TriggerSecret: secret,
		Dispatcher:    dispatcher,
		Ledger:        l,
		Events:        l,
	})
}

func getEvent(router *gin.Engine, eventID string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/events/"+eventID, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestGetEvent(t *testing.T) {
	t.Run("reports attempts and last outcome", func(t *testing.T) {
		router := newLedgerRouter(t, "")
		body := `{"eventId":"e1","params":{"uid":"u1"}}`

		for i := 0; i < 2; i++ {
			rr := postTrigger(router, "users.delete", body, nil)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		}

		rr := getEvent(router, "e1", nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var rec ledger.Record
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
		assert.Equal(t, "e1", rec.EventID)
		assert.Equal(t, "users.delete", rec.Trigger)
		assert.Equal(t, int64(2), rec.Attempts)
		assert.Equal(t, "applied", rec.Outcome)
		assert.Empty(t, rec.LastError)
	})

	t.Run("unknown event", func(t *testing.T) {
		router := newLedgerRouter(t, "")

		rr := getEvent(router, "missing", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("secret required when configured", func(t *testing.T) {
		router := newLedgerRouter(t, "s3cret")

		rr := getEvent(router, "e1", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		rr = getEvent(router, "e1", map[string]string{"X-Trigger-Secret": "s3cret"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("route absent without a ledger", func(t *testing.T) {
		router := newTestRouter(t, memstore.NewDocuments(), "", nil)

		rr := getEvent(router, "e1", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.NotContains(t, rr.Body.String(), "event not found")
	})
}
