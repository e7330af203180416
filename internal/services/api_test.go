package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) (*APIClient, *TokenCache, *clockwork.FakeClock) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	clock := clockwork.NewFakeClock()
	tokens := NewTokenCache(100, time.Hour, clock)
	return NewAPIClient(srv.URL+"/api/", 5*time.Second, tokens, clock), tokens, clock
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// waitForBackoff blocks until the retry loop sleeps, then advances past it
func waitForBackoff(t *testing.T, clock *clockwork.FakeClock, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(d)
}

func TestAPIClient_AuthenticateCachesToken(t *testing.T) {
	api, tokens, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/whatsapp/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "22997000000", body["whatsapp"])

		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok-1",
			"user":  map[string]any{"id": 7, "nom": "Doe", "prenom": "John"},
		})
	})

	user, err := api.Authenticate(context.Background(), "22997000000")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "Doe John", user.FullName())

	token, ok := tokens.Get("22997000000")
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)
}

func TestAPIClient_AuthenticateNotFound(t *testing.T) {
	var calls atomic.Int32
	api, _, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	})

	user, err := api.Authenticate(context.Background(), "22997000000")
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAPIClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	api, _, clock := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "nom": "Atlantique"}})
	})

	type result struct {
		nodes []models.LocationNode
		err   error
	}
	done := make(chan result, 1)
	go func() {
		nodes, err := api.GetLocations(context.Background(), models.LevelDepartment, 0, "u1")
		done <- result{nodes, err}
	}()

	waitForBackoff(t, clock, 2*time.Second)

	res := <-done
	require.NoError(t, res.err)
	require.Len(t, res.nodes, 1)
	assert.Equal(t, "Atlantique", res.nodes[0].Name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAPIClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	api, _, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "forbidden"})
	})

	_, err := api.SubmitResults(context.Background(), models.SubmissionPayload{}, "u1")

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusForbidden, remoteErr.Status)
	assert.Equal(t, "submit_results", remoteErr.Op)
	assert.Contains(t, remoteErr.Body, "forbidden")
	assert.Equal(t, int32(1), calls.Load())
}

func TestAPIClient_UnauthorizedDropsTokenAndRetries(t *testing.T) {
	var (
		calls      atomic.Int32
		authHeader atomic.Value
	)
	api, tokens, clock := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			authHeader.Store(r.Header.Get("Authorization"))
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "expired"})
	})
	tokens.Set("u1", "stale")

	done := make(chan error, 1)
	go func() {
		_, err := api.CheckSubmissionStatus(context.Background(), models.LocationFilter{ElectionType: models.ElectionCommunales}, "u1")
		done <- err
	}()

	waitForBackoff(t, clock, 2*time.Second)
	waitForBackoff(t, clock, 4*time.Second)

	err := <-done
	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, http.StatusUnauthorized, remoteErr.Status)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "Bearer stale", authHeader.Load())

	_, ok := tokens.Get("u1")
	assert.False(t, ok)
}

func TestAPIClient_GetLocationsPaths(t *testing.T) {
	var path atomic.Value
	api, _, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		writeJSON(w, http.StatusOK, []any{})
	})

	_, err := api.GetLocations(context.Background(), models.LevelDepartment, 99, "u1")
	require.NoError(t, err)
	assert.Equal(t, "/api/locations/departments", path.Load())

	_, err = api.GetLocations(context.Background(), models.LevelPoste, 12, "u1")
	require.NoError(t, err)
	assert.Equal(t, "/api/locations/postes/12", path.Load())
}

func TestAPIClient_CheckSubmissionStatusQuery(t *testing.T) {
	api, _, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/results/status/check", r.URL.Path)
		assert.Equal(t, "locales", r.URL.Query().Get("election_type"))
		assert.Equal(t, "55", r.URL.Query().Get("village_id"))
		assert.False(t, r.URL.Query().Has("arrondissement_id"))

		writeJSON(w, http.StatusOK, map[string]any{
			"exists":            true,
			"submitted_by_self": false,
			"user":              map[string]any{"id": 3, "nom": "Agbo", "prenom": "Paul"},
		})
	})

	id := int64(55)
	status, err := api.CheckSubmissionStatus(context.Background(), models.LocationFilter{
		ElectionType: models.ElectionLocales,
		VillageID:    &id,
	}, "u1")
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.False(t, status.SubmittedBySelf)
	assert.Equal(t, "Agbo Paul", status.User.FullName())
}

func TestAPIClient_CheckPhoneExists(t *testing.T) {
	api, _, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]bool{"exists": body["telephone"] == "2290197000000"})
	})

	assert.True(t, api.CheckPhoneExists(context.Background(), "2290197000000"))
	assert.False(t, api.CheckPhoneExists(context.Background(), "2290197000001"))
}

func TestAPIClient_CheckPhoneExistsFailureIsFalse(t *testing.T) {
	var calls atomic.Int32
	api, _, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.False(t, api.CheckPhoneExists(context.Background(), "2290197000000"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestAPIClient_UploadAttachment(t *testing.T) {
	api, tokens, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/results/photo", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "legislatives", r.FormValue("election_type"))
		assert.Equal(t, "100", r.FormValue("arrondissement_id"))

		file, header, err := r.FormFile("pv_photo")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "pv.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		assert.Equal(t, []byte("jpeg-bytes"), data)

		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	tokens.Set("u1", "tok")

	id := int64(100)
	conf, err := api.UploadAttachment(context.Background(), []byte("jpeg-bytes"), "pv.jpg", "image/jpeg",
		models.LocationFilter{ElectionType: models.ElectionLegislatives, ArrondissementID: &id}, "u1")
	require.NoError(t, err)
	assert.True(t, conf.Success)
}

func TestAPIClient_RegisterUser(t *testing.T) {
	api, tokens, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/whatsapp/register", r.URL.Path)
		var req models.RegistrationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Doe", req.Nom)

		writeJSON(w, http.StatusCreated, map[string]any{
			"token": "new-token",
			"user":  map[string]any{"id": 9, "nom": req.Nom, "prenom": req.Prenom},
		})
	})

	user, err := api.RegisterUser(context.Background(), models.RegistrationRequest{
		Nom: "Doe", Prenom: "John", Telephone: "2290197000000", WhatsApp: "22997000000",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), user.ID)

	token, ok := tokens.Get("22997000000")
	assert.True(t, ok)
	assert.Equal(t, "new-token", token)

	api.Logout("22997000000")
	_, ok = tokens.Get("22997000000")
	assert.False(t, ok)
}

func TestAPIClient_GetPoliticalParties(t *testing.T) {
	api, _, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/locations/parties", r.URL.Path)
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "nom": "Union Progressiste le Renouveau", "sigle": "UPR"}})
	})

	parties, err := api.GetPoliticalParties(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, parties, 1)
	assert.Equal(t, "UPR", parties[0].Sigle)
}

func TestRemoteError_Retryable(t *testing.T) {
	assert.True(t, (&RemoteError{Err: errors.New("dial")}).Retryable())
	assert.True(t, (&RemoteError{Status: 502}).Retryable())
	assert.True(t, (&RemoteError{Status: 401}).Retryable())
	assert.False(t, (&RemoteError{Status: 400}).Retryable())
	assert.False(t, (&RemoteError{Status: 404}).Retryable())
}

func TestIsAuthFailure(t *testing.T) {
	assert.True(t, IsAuthFailure(&RemoteError{Status: 401}))
	assert.True(t, IsAuthFailure(fmt.Errorf("submit: %w", &RemoteError{Status: 403})))
	assert.False(t, IsAuthFailure(&RemoteError{Status: 500}))
	assert.False(t, IsAuthFailure(errors.New("dial")))
}
