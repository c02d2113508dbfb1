package jobs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/internal/auth"
	"delivery-service/internal/httpx"
	"delivery-service/pkg/jwt"
	"delivery-service/pkg/storage"
)

type apiFixture struct {
	srv    http.Handler
	tokens map[string]string
	dir    string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	directory := staticDirectory{
		admin.UserID: admin, driverA.UserID: driverA, driverB.UserID: driverB,
		client1.UserID: client1, client2.UserID: client2,
	}
	signer, err := jwt.NewSigner("test-secret", time.Hour)
	require.NoError(t, err)

	dir := t.TempDir()
	svc := NewService(ServiceOptions{
		Store:     NewMemStore(),
		Directory: directory,
		Blobs:     storage.NewDiskStore(dir),
	})
	h := NewHandler(svc, nil)
	authn := signer.Middleware(directory)

	r := chi.NewRouter()
	r.Mount("/jobs", h.Routes(authn))
	r.Mount("/client", h.ClientRoutes(authn))

	tokens := map[string]string{}
	for id, ident := range directory {
		tok, err := signer.Generate(ident)
		require.NoError(t, err)
		tokens[id] = tok
	}
	return &apiFixture{srv: r, tokens: tokens, dir: dir}
}

func (a *apiFixture) do(t *testing.T, as auth.Identity, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as.UserID != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[as.UserID])
	}
	w := httptest.NewRecorder()
	a.srv.ServeHTTP(w, req)
	return w
}

func (a *apiFixture) upload(t *testing.T, as auth.Identity, jobID, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="photo"; filename="pod.jpg"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/jobs/"+jobID+"/pod/photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.tokens[as.UserID])
	w := httptest.NewRecorder()
	a.srv.ServeHTTP(w, req)
	return w
}

func decodeJob(t *testing.T, w *httptest.ResponseRecorder) *Job {
	t.Helper()
	var j Job
	require.NoError(t, json.NewDecoder(w.Body).Decode(&j))
	return &j
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpx.ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return string(body.Code)
}

func TestAPI_DeliveryLifecycle(t *testing.T) {
	api := newAPI(t)

	w := api.do(t, admin, http.MethodPost, "/jobs", jobRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	job := decodeJob(t, w)
	assert.Equal(t, StatusCreated, job.Status)
	assert.Nil(t, job.AssignedDriver)

	w = api.do(t, admin, http.MethodPatch, "/jobs/"+job.ID+"/assign-driver", AssignRequest{DriverID: driverA.UserID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, StatusAssigned, decodeJob(t, w).Status)

	w = api.upload(t, driverA, job.ID, "image/jpeg", []byte("jpeg-bytes"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_state", errorCode(t, w))

	w = api.do(t, driverA, http.MethodPatch, "/jobs/"+job.ID+"/status", StatusRequest{Status: "DELIVERED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_transition", errorCode(t, w))

	w = api.do(t, driverB, http.MethodPatch, "/jobs/"+job.ID+"/status", StatusRequest{Status: "PICKED_UP"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, driverA, http.MethodPatch, "/jobs/"+job.ID+"/status", StatusRequest{Status: "PICKED_UP"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.upload(t, driverA, job.ID, "image/jpeg", []byte("jpeg-bytes"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var proof ProofResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&proof))
	assert.Equal(t, "POD photo uploaded", proof.Message)
	require.NotNil(t, proof.Job.ProofOfDelivery)
	assert.True(t, strings.HasPrefix(proof.Job.ProofOfDelivery.PhotoURL, "/uploads/"))

	stored, err := os.ReadFile(filepath.Join(api.dir, filepath.Base(proof.Job.ProofOfDelivery.PhotoURL)))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), stored)

	w = api.upload(t, driverA, job.ID, "image/jpeg", []byte("again"))
	assert.Equal(t, http.StatusConflict, w.Code)

	for _, s := range []string{"ON_ROUTE", "DELIVERED"} {
		w = api.do(t, driverA, http.MethodPatch, "/jobs/"+job.ID+"/status", StatusRequest{Status: s})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = api.do(t, driverA, http.MethodGet, "/jobs/"+job.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusDelivered, decodeJob(t, w).Status)
}

func TestAPI_UploadRejectsNonImage(t *testing.T) {
	api := newAPI(t)
	w := api.do(t, admin, http.MethodPost, "/jobs", jobRequest())
	require.Equal(t, http.StatusCreated, w.Code)
	job := decodeJob(t, w)
	api.do(t, admin, http.MethodPatch, "/jobs/"+job.ID+"/assign-driver", AssignRequest{DriverID: driverA.UserID})
	api.do(t, driverA, http.MethodPatch, "/jobs/"+job.ID+"/status", StatusRequest{Status: "PICKED_UP"})

	w = api.upload(t, driverA, job.ID, "application/pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.upload(t, driverA, job.ID, "image/png", bytes.Repeat([]byte{1}, storage.MaxPhotoBytes+1))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	entries, err := os.ReadDir(api.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAPI_RoleGates(t *testing.T) {
	api := newAPI(t)

	w := api.do(t, auth.Identity{}, http.MethodGet, "/jobs", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, client1, http.MethodPost, "/jobs", jobRequest())
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, client1, http.MethodGet, "/jobs", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, admin, http.MethodPost, "/client/jobs", jobRequest())
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, driverA, http.MethodPatch, "/jobs/x/assign-driver", AssignRequest{DriverID: driverA.UserID})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAPI_ClientSelfService(t *testing.T) {
	api := newAPI(t)

	req := jobRequest()
	req.ClientName = ""
	w := api.do(t, client1, http.MethodPost, "/client/jobs", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	own := decodeJob(t, w)
	assert.Equal(t, "Client One", own.ClientName)

	w = api.do(t, client1, http.MethodGet, "/client/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []*Job
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, own.ID, list[0].ID)

	w = api.do(t, client2, http.MethodGet, "/client/jobs/"+own.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, client1, http.MethodGet, "/client/jobs/"+own.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, client1, http.MethodGet, "/client/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_ValidationErrors(t *testing.T) {
	api := newAPI(t)

	req := jobRequest()
	req.Pickup.ContactPhone = ""
	w := api.do(t, admin, http.MethodPost, "/jobs", req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body httpx.ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "pickup.contactPhone", body.Field)

	w = api.do(t, admin, http.MethodPost, "/jobs", jobRequest())
	job := decodeJob(t, w)

	w = api.do(t, admin, http.MethodPatch, "/jobs/"+job.ID+"/assign-driver", AssignRequest{DriverID: client1.UserID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_reference", errorCode(t, w))

	w = api.do(t, admin, http.MethodPatch, fmt.Sprintf("/jobs/%s/assign-driver", "missing"), AssignRequest{DriverID: driverA.UserID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_reference", errorCode(t, w))

	w = api.do(t, admin, http.MethodPatch, "/jobs/"+job.ID+"/assign-driver", AssignRequest{DriverID: driverA.UserID})
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(t, driverA, http.MethodPatch, "/jobs/"+job.ID+"/status", StatusRequest{Status: "TELEPORTED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_transition", errorCode(t, w))
}
