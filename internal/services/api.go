package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/metrics"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/utils"
)

// maxErrorBody caps how much of a failed response is kept for logs
const maxErrorBody = 4 << 10

// Backend is what the conversation engine needs from the results backend
type Backend interface {
	Authenticate(ctx context.Context, userID string) (*models.UserProfile, error)
	RegisterUser(ctx context.Context, req models.RegistrationRequest) (*models.UserProfile, error)
	CheckPhoneExists(ctx context.Context, phone string) bool
	GetLocations(ctx context.Context, level models.Level, parentID int64, userID string) ([]models.LocationNode, error)
	CheckSubmissionStatus(ctx context.Context, filter models.LocationFilter, userID string) (*models.SubmissionStatus, error)
	SubmitResults(ctx context.Context, payload models.SubmissionPayload, userID string) (*models.Confirmation, error)
	UploadAttachment(ctx context.Context, data []byte, filename, contentType string, filter models.LocationFilter, userID string) (*models.Confirmation, error)
	Logout(userID string)
}

// APIClient talks to the results backend. It owns the bearer tokens and the
// retry policy; callers only see profiles, payloads and *RemoteError.
type APIClient struct {
	baseURL string
	http    *http.Client
	tokens  *TokenCache
	policy  utils.RetryPolicy
}

var _ Backend = (*APIClient)(nil)

// NewAPIClient creates a backend client
func NewAPIClient(baseURL string, timeout time.Duration, tokens *TokenCache, clock clockwork.Clock) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		policy:  utils.DefaultRetryPolicy(clock),
	}
}

// apiRequest describes one logical backend call. body is rebuilt for every
// attempt because a reader can only be consumed once.
type apiRequest struct {
	op     string
	level  string
	method string
	path   string
	userID string // sends the user's bearer token when set
	body   func() (io.Reader, string, error)
	single bool // no retries
}

type authResponse struct {
	Token string              `json:"token"`
	User  *models.UserProfile `json:"user"`
}

// Authenticate exchanges a WhatsApp id for a profile and token.
// A backend 404 means no account: it returns nil, nil.
func (c *APIClient) Authenticate(ctx context.Context, userID string) (*models.UserProfile, error) {
	var resp authResponse
	err := c.do(ctx, apiRequest{
		op:     "authenticate",
		method: http.MethodPost,
		path:   "/whatsapp/login",
		body:   jsonBody(map[string]string{"whatsapp": userID}),
	}, &resp)
	if IsNotFound(err) {
		log.Printf("👤 No account for WhatsApp %s", userID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, &RemoteError{Op: "authenticate", Status: http.StatusOK, Err: errors.New("response without token or user")}
	}

	c.tokens.Set(userID, resp.Token)
	log.Printf("✅ Authenticated %s (%s)", resp.User.FullName(), userID)
	return resp.User, nil
}

// RegisterUser creates a representative account and caches its token
func (c *APIClient) RegisterUser(ctx context.Context, req models.RegistrationRequest) (*models.UserProfile, error) {
	var resp authResponse
	err := c.do(ctx, apiRequest{
		op:     "register",
		method: http.MethodPost,
		path:   "/whatsapp/register",
		body:   jsonBody(req),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, &RemoteError{Op: "register", Status: http.StatusOK, Err: errors.New("response without token or user")}
	}

	c.tokens.Set(req.WhatsApp, resp.Token)
	log.Printf("✅ Registered %s (%s)", resp.User.FullName(), req.WhatsApp)
	return resp.User, nil
}

// CheckPhoneExists reports whether phone is already registered. Any failure
// yields false: registration goes on and the backend stays the final arbiter
// when RegisterUser is called.
func (c *APIClient) CheckPhoneExists(ctx context.Context, phone string) bool {
	var resp struct {
		Exists bool `json:"exists"`
	}
	err := c.do(ctx, apiRequest{
		op:     "check_phone",
		method: http.MethodPost,
		path:   "/whatsapp/check-phone",
		body:   jsonBody(map[string]string{"telephone": phone}),
		single: true,
	}, &resp)
	if err != nil {
		log.Printf("⚠️  Phone check failed for %s, assuming unregistered: %v", phone, err)
		return false
	}
	return resp.Exists
}

// GetLocations fetches one hierarchy level. Departments have no parent.
func (c *APIClient) GetLocations(ctx context.Context, level models.Level, parentID int64, userID string) ([]models.LocationNode, error) {
	path := "/locations/" + string(level)
	if level != models.LevelDepartment {
		path += "/" + strconv.FormatInt(parentID, 10)
	}

	var nodes []models.LocationNode
	err := c.do(ctx, apiRequest{
		op:     "get_locations",
		level:  string(level),
		method: http.MethodGet,
		path:   path,
		userID: userID,
	}, &nodes)
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// GetPoliticalParties lists the parties known to the backend
func (c *APIClient) GetPoliticalParties(ctx context.Context, userID string) ([]models.Party, error) {
	var parties []models.Party
	err := c.do(ctx, apiRequest{
		op:     "get_parties",
		method: http.MethodGet,
		path:   "/locations/parties",
		userID: userID,
	}, &parties)
	if err != nil {
		return nil, err
	}
	return parties, nil
}

// CheckSubmissionStatus asks whether results already exist for a location
func (c *APIClient) CheckSubmissionStatus(ctx context.Context, filter models.LocationFilter, userID string) (*models.SubmissionStatus, error) {
	var status models.SubmissionStatus
	err := c.do(ctx, apiRequest{
		op:     "check_status",
		method: http.MethodGet,
		path:   "/results/status/check?" + filterQuery(filter).Encode(),
		userID: userID,
	}, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// SubmitResults posts a tally
func (c *APIClient) SubmitResults(ctx context.Context, payload models.SubmissionPayload, userID string) (*models.Confirmation, error) {
	var conf models.Confirmation
	err := c.do(ctx, apiRequest{
		op:     "submit_results",
		method: http.MethodPost,
		path:   "/results/submit",
		userID: userID,
		body:   jsonBody(payload),
	}, &conf)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Results submitted for %s", userID)
	return &conf, nil
}

// UploadAttachment posts the photo of the tally sheet as multipart form data
func (c *APIClient) UploadAttachment(ctx context.Context, data []byte, filename, contentType string, filter models.LocationFilter, userID string) (*models.Confirmation, error) {
	form, formType, err := buildPhotoForm(data, filename, contentType, filter)
	if err != nil {
		return nil, &RemoteError{Op: "upload_photo", Err: err}
	}

	var conf models.Confirmation
	err = c.do(ctx, apiRequest{
		op:     "upload_photo",
		method: http.MethodPost,
		path:   "/results/photo",
		userID: userID,
		body: func() (io.Reader, string, error) {
			return bytes.NewReader(form), formType, nil
		},
	}, &conf)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Photo uploaded for %s (%d bytes)", userID, len(data))
	return &conf, nil
}

// Logout forgets the cached token of userID
func (c *APIClient) Logout(userID string) {
	c.tokens.Invalidate(userID)
}

func (c *APIClient) do(ctx context.Context, req apiRequest, out any) error {
	policy := c.policy
	if req.single {
		policy.MaxAttempts = 1
	}
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		metrics.BackendRetriesTotal.WithLabelValues(req.op).Inc()
		log.Printf("🔁 Backend %s retry %d/%d in %v: %v", req.op, attempt, policy.MaxAttempts, backoff, err)
	}

	_, err := utils.Retry(ctx, policy, classifyRemote, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.once(ctx, req, out)
	})
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(req.op, "error").Inc()
		log.Printf("❌ Backend %s %s failed: %v", req.method, req.op, err)
		return err
	}
	metrics.BackendRequestsTotal.WithLabelValues(req.op, "success").Inc()
	return nil
}

func (c *APIClient) once(ctx context.Context, req apiRequest, out any) error {
	var (
		body        io.Reader
		contentType string
	)
	if req.body != nil {
		var err error
		body, contentType, err = req.body()
		if err != nil {
			return &RemoteError{Op: req.op, Level: req.level, Err: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return &RemoteError{Op: req.op, Level: req.level, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.userID != "" {
		if token, ok := c.tokens.Get(req.userID); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &RemoteError{Op: req.op, Level: req.level, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && req.userID != "" {
		log.Printf("🔑 Token rejected for %s, dropping it", req.userID)
		c.tokens.Invalidate(req.userID)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RemoteError{Op: req.op, Level: req.level, Status: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &RemoteError{Op: req.op, Level: req.level, Status: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func classifyRemote(err error) utils.RetryAction {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) && remoteErr.Retryable() {
		return utils.RetryAgain
	}
	return utils.RetryStop
}

func jsonBody(v any) func() (io.Reader, string, error) {
	return func() (io.Reader, string, error) {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("encoding request: %w", err)
		}
		return bytes.NewReader(raw), "application/json", nil
	}
}

func filterQuery(f models.LocationFilter) url.Values {
	q := url.Values{}
	if f.ElectionType != "" {
		q.Set("election_type", string(f.ElectionType))
	}
	if f.ArrondissementID != nil {
		q.Set("arrondissement_id", strconv.FormatInt(*f.ArrondissementID, 10))
	}
	if f.VillageID != nil {
		q.Set("village_id", strconv.FormatInt(*f.VillageID, 10))
	}
	if f.PosteVoteID != nil {
		q.Set("poste_vote_id", strconv.FormatInt(*f.PosteVoteID, 10))
	}
	return q
}

func buildPhotoForm(data []byte, filename, contentType string, filter models.LocationFilter) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="pv_photo"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	for key, values := range filterQuery(filter) {
		if err := w.WriteField(key, values[0]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
