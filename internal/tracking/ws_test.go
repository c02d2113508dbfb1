package tracking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/internal/apperr"
	"delivery-service/internal/auth"
	"delivery-service/internal/events"
)

var driver = auth.Identity{UserID: "d1", Role: auth.RoleDriver, Active: true}

func withIdentity(id auth.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func onlyJob(allowed string) ViewFunc {
	return func(_ context.Context, _ auth.Identity, jobID string) error {
		if jobID != allowed {
			return apperr.Forbidden("Forbidden")
		}
		return nil
	}
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Routes(withIdentity(driver), onlyJob("job-1")))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/jobs/job-1"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return hub.Subscribers("job-1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), events.JobEvent{JobID: "job-2", Status: "ASSIGNED"}))
	require.NoError(t, hub.Publish(context.Background(), events.JobEvent{
		Type: events.JobStatusChanged, JobID: "job-1", Status: "PICKED_UP", PreviousStatus: "ASSIGNED",
		AssignedDriver: "d1",
	}))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got events.JobEvent
	require.NoError(t, ws.ReadJSON(&got))
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, "PICKED_UP", got.Status)
	assert.Equal(t, events.JobStatusChanged, got.Type)

	ws.Close()
	require.Eventually(t, func() bool { return hub.Subscribers("job-1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func dial(t *testing.T, srv *httptest.Server, jobID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/jobs/" + jobID
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return ws
}

func TestHub_ReassignedDriverStopsReceiving(t *testing.T) {
	hub := NewHub(nil)
	adminID := auth.Identity{UserID: "a1", Role: auth.RoleAdmin, Active: true}
	driverSrv := httptest.NewServer(hub.Routes(withIdentity(driver), onlyJob("job-1")))
	defer driverSrv.Close()
	adminSrv := httptest.NewServer(hub.Routes(withIdentity(adminID), onlyJob("job-1")))
	defer adminSrv.Close()

	driverWS := dial(t, driverSrv, "job-1")
	defer driverWS.Close()
	adminWS := dial(t, adminSrv, "job-1")
	defer adminWS.Close()
	require.Eventually(t, func() bool { return hub.Subscribers("job-1") == 2 }, 2*time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, events.JobEvent{
		Type: events.JobAssigned, JobID: "job-1", Status: "ASSIGNED", AssignedDriver: "d2", PreviousStatus: "ON_ROUTE",
	}))
	require.NoError(t, hub.Publish(ctx, events.JobEvent{
		Type: events.JobStatusChanged, JobID: "job-1", Status: "PICKED_UP", AssignedDriver: "d2",
	}))

	assert.Equal(t, 1, hub.Subscribers("job-1"))

	require.NoError(t, driverWS.SetReadDeadline(time.Now().Add(2*time.Second)))
	var leaked events.JobEvent
	assert.Error(t, driverWS.ReadJSON(&leaked))
	assert.Empty(t, leaked.JobID)

	require.NoError(t, adminWS.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got events.JobEvent
	require.NoError(t, adminWS.ReadJSON(&got))
	assert.Equal(t, "d2", got.AssignedDriver)
	require.NoError(t, adminWS.ReadJSON(&got))
	assert.Equal(t, "PICKED_UP", got.Status)
}

func TestHub_ClientSeesOnlyOwnJob(t *testing.T) {
	client := auth.Identity{UserID: "c1", Role: auth.RoleClient, Active: true}
	c := &safeConn{actor: client, scope: auth.ScopeOwned}
	assert.True(t, c.canSee(events.JobEvent{JobID: "j", CreatedBy: "c1"}))
	assert.False(t, c.canSee(events.JobEvent{JobID: "j", CreatedBy: "c2"}))

	d := &safeConn{actor: driver, scope: auth.ScopeAssigned}
	assert.True(t, d.canSee(events.JobEvent{JobID: "j", AssignedDriver: "d1"}))
	assert.False(t, d.canSee(events.JobEvent{JobID: "j"}))
}

func TestHub_RejectsInvisibleJobBeforeUpgrade(t *testing.T) {
	hub := NewHub(nil)
	h := hub.Routes(withIdentity(driver), onlyJob("job-1"))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/job-9", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, hub.Subscribers("job-9"))
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(nil)
	assert.NoError(t, hub.Publish(context.Background(), events.JobEvent{JobID: "nobody"}))
}
