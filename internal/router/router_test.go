package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"testing"
	"time"

	"radar/config"
	"radar/internal/domain"
	"radar/internal/repository/memory"

	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeUploader struct {
	folder string
	got    []byte
}

func (f *fakeUploader) UploadImage(_ context.Context, r io.Reader, folder, publicID string) (string, error) {
	f.folder = folder
	f.got, _ = io.ReadAll(r)
	return "https://cdn.example.com/" + folder + "/" + publicID, nil
}

type testServer struct {
	t     *testing.T
	store *memory.Store
	h     http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		JWT:        config.JWTConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "radar"},
		Location:   config.LocationConfig{CandidateCap: 1000},
		CORS:       config.CORSConfig{AllowOrigins: []string{"*"}},
		Cloudinary: config.CloudinaryConfig{Folder: "avatars"},
	}
}

func newTestServer(t *testing.T, d Deps) *testServer {
	store := memory.New()
	return &testServer{t: t, store: store, h: Setup(testConfig(), MemoryStores(store), d)}
}

func (s *testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			s.t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

type createdUser struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

func (s *testServer) createUser(name string) createdUser {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/users", map[string]string{"name": name, "email": name + "@example.com"}, "")
	if w.Code != http.StatusCreated {
		s.t.Fatalf("create %s: %d %s", name, w.Code, w.Body.String())
	}
	return decode[createdUser](s.t, w)
}

func (s *testServer) report(userID string, lat, lng float64) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/users/location", map[string]any{"user_id": userID, "latitude": lat, "longitude": lng}, "")
	if w.Code != http.StatusOK {
		s.t.Fatalf("report %s: %d %s", userID, w.Code, w.Body.String())
	}
}

func TestCreateUser(t *testing.T) {
	s := newTestServer(t, Deps{})
	u := s.createUser("ada")
	if u.User.ID == "" || u.Token == "" || u.User.Email != "ada@example.com" {
		t.Fatalf("created = %+v", u)
	}

	tests := []struct {
		name string
		body any
		code int
	}{
		{"duplicate email", map[string]string{"name": "x", "email": "ADA@example.com"}, http.StatusConflict},
		{"missing name", map[string]string{"email": "y@example.com"}, http.StatusBadRequest},
		{"not json", "nope", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := s.do(http.MethodPost, "/api/v1/users", tt.body, ""); w.Code != tt.code {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.code, w.Body.String())
			}
		})
	}

	w := s.do(http.MethodGet, "/api/v1/users?user_id="+u.User.ID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get user: %d", w.Code)
	}
	got := decode[struct {
		User struct {
			ID      string `json:"id"`
			Privacy struct {
				Visibility string `json:"visibility"`
			} `json:"privacy_settings"`
		} `json:"user"`
	}](t, w)
	if got.User.ID != u.User.ID || got.User.Privacy.Visibility != domain.VisibilityFriends {
		t.Errorf("user = %+v", got.User)
	}
	if w := s.do(http.MethodGet, "/api/v1/users?user_id=missing", nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("missing user status = %d", w.Code)
	}
}

func TestLocationEndpoints(t *testing.T) {
	s := newTestServer(t, Deps{})
	u := s.createUser("walker")

	if w := s.do(http.MethodGet, "/api/v1/users/location?user_id="+u.User.ID, nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("location before report: %d", w.Code)
	}

	w := s.do(http.MethodPost, "/api/v1/users/location", map[string]any{"user_id": u.User.ID, "latitude": 10.5, "longitude": -20.25, "accuracy": 8}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("upsert: %d %s", w.Code, w.Body.String())
	}
	s.report(u.User.ID, 11, -21)

	w = s.do(http.MethodGet, "/api/v1/users/location?user_id="+u.User.ID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get location: %d", w.Code)
	}
	got := decode[struct {
		Location struct {
			Latitude  float64  `json:"latitude"`
			Longitude float64  `json:"longitude"`
			Accuracy  *float64 `json:"accuracy"`
			IsActive  bool     `json:"is_active"`
			User      struct {
				Name string `json:"name"`
			} `json:"user"`
		} `json:"location"`
	}](t, w)
	if got.Location.Latitude != 11 || got.Location.Longitude != -21 || !got.Location.IsActive {
		t.Errorf("location = %+v", got.Location)
	}
	if got.Location.Accuracy != nil {
		t.Errorf("accuracy = %v, want cleared by the last report", *got.Location.Accuracy)
	}
	if got.Location.User.Name != "walker" {
		t.Errorf("user projection = %+v", got.Location.User)
	}
	if n := s.store.Locations().Count(u.User.ID); n != 1 {
		t.Errorf("location rows = %d", n)
	}

	tests := []struct {
		name string
		body map[string]any
		code int
	}{
		{"missing latitude", map[string]any{"user_id": u.User.ID, "longitude": 1}, http.StatusBadRequest},
		{"missing user", map[string]any{"latitude": 1, "longitude": 1}, http.StatusBadRequest},
		{"out of range", map[string]any{"user_id": u.User.ID, "latitude": 95, "longitude": 1}, http.StatusBadRequest},
		{"unknown user", map[string]any{"user_id": "ghost", "latitude": 1, "longitude": 1}, http.StatusNotFound},
		{"zero coordinates", map[string]any{"user_id": u.User.ID, "latitude": 0, "longitude": 0}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := s.do(http.MethodPost, "/api/v1/users/location", tt.body, ""); w.Code != tt.code {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.code, w.Body.String())
			}
		})
	}
}

type privacyBody struct {
	Settings struct {
		Visibility        string `json:"visibility"`
		ShowDistance      bool   `json:"show_distance"`
		ShowLastSeen      bool   `json:"show_last_seen"`
		AllowNearbySearch bool   `json:"allow_nearby_search"`
	} `json:"privacy_settings"`
}

func TestPrivacyEndpoints(t *testing.T) {
	s := newTestServer(t, Deps{})
	u := s.createUser("private")
	s.store.Privacy().DeleteForUser(u.User.ID)

	w := s.do(http.MethodGet, "/api/v1/users/privacy?user_id="+u.User.ID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get privacy: %d", w.Code)
	}
	got := decode[privacyBody](t, w).Settings
	if got.Visibility != "FRIENDS" || !got.ShowDistance || !got.ShowLastSeen || !got.AllowNearbySearch {
		t.Errorf("defaults = %+v", got)
	}

	w = s.do(http.MethodPut, "/api/v1/users/privacy", map[string]any{"user_id": u.User.ID, "show_last_seen": false}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("put privacy: %d %s", w.Code, w.Body.String())
	}
	got = decode[privacyBody](t, w).Settings
	if got.ShowLastSeen || !got.ShowDistance || got.Visibility != "FRIENDS" {
		t.Errorf("after patch = %+v", got)
	}

	if w := s.do(http.MethodPut, "/api/v1/users/privacy", map[string]any{"user_id": u.User.ID, "visibility": "SECRET"}, ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad visibility status = %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/api/v1/users/privacy", nil, ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing user status = %d", w.Code)
	}
}

type nearbyBody struct {
	Users []domain.NearbyUser `json:"users"`
}

func TestNearbyEndpoint(t *testing.T) {
	s := newTestServer(t, Deps{})
	viewer := s.createUser("viewer")
	a := s.createUser("alice")
	b := s.createUser("bob")
	c := s.createUser("carol")
	s.report(viewer.User.ID, 37.7749, -122.4194)
	s.report(a.User.ID, 37.7750, -122.4195)
	s.report(b.User.ID, 37.7750, -122.4195)
	s.report(c.User.ID, 37.8000, -122.4194)
	if w := s.do(http.MethodPut, "/api/v1/users/privacy", map[string]any{"user_id": b.User.ID, "allow_nearby_search": false}, ""); w.Code != http.StatusOK {
		t.Fatalf("put privacy: %d", w.Code)
	}

	q := url.Values{"lat": {"37.7749"}, "lng": {"-122.4194"}, "radius": {"1000"}, "user_id": {viewer.User.ID}}
	w := s.do(http.MethodGet, "/api/v1/users/nearby?"+q.Encode(), nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("nearby: %d %s", w.Code, w.Body.String())
	}
	got := decode[nearbyBody](t, w).Users
	if len(got) != 1 || got[0].ID != a.User.ID || got[0].Distance == nil || *got[0].Distance != 14 {
		t.Fatalf("users = %+v", got)
	}

	// the device token names the viewer even when user_id is absent
	q.Del("user_id")
	q.Set("lat", "37.7750")
	q.Set("lng", "-122.4195")
	w = s.do(http.MethodGet, "/api/v1/users/nearby?"+q.Encode(), nil, a.Token)
	got = decode[nearbyBody](t, w).Users
	if len(got) != 1 || got[0].ID != viewer.User.ID {
		t.Fatalf("users for alice = %+v", got)
	}

	w = s.do(http.MethodGet, "/api/v1/users/nearby?lat=0&lng=0", nil, "")
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"users":[]`)) {
		t.Errorf("empty result = %d %s", w.Code, w.Body.String())
	}

	bad := []string{
		"lng=1",
		"lat=1",
		"lat=abc&lng=1",
		"lat=91&lng=1",
		"lat=1&lng=1&radius=0",
		"lat=1&lng=1&radius=-10",
		"lat=1&lng=1&limit=x",
	}
	for _, raw := range bad {
		if w := s.do(http.MethodGet, "/api/v1/users/nearby?"+raw, nil, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", raw, w.Code)
		}
	}
	if w := s.do(http.MethodGet, "/api/v1/users/nearby?lat=1&lng=1", nil, "garbage"); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d", w.Code)
	}
}

func TestStorageFailureIsRetryable(t *testing.T) {
	s := newTestServer(t, Deps{})
	s.store.SetFailure(errors.New("connection refused"))
	w := s.do(http.MethodGet, "/api/v1/users/nearby?lat=1&lng=1", nil, "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("connection refused")) {
		t.Errorf("internal error leaked: %s", w.Body.String())
	}
}

func avatarRequest(t *testing.T, userID string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("user_id", userID); err != nil {
		t.Fatal(err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="me.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("\x89PNG fake"))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAvatarUpload(t *testing.T) {
	up := &fakeUploader{}
	s := newTestServer(t, Deps{Cloud: up})
	u := s.createUser("pic")

	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, avatarRequest(t, u.User.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	got := decode[struct {
		User struct {
			Avatar string `json:"avatar"`
		} `json:"user"`
	}](t, w)
	if got.User.Avatar == "" || up.folder != "avatars/"+u.User.ID || string(up.got) != "\x89PNG fake" {
		t.Errorf("avatar = %q folder = %q", got.User.Avatar, up.folder)
	}

	w = httptest.NewRecorder()
	s.h.ServeHTTP(w, avatarRequest(t, "ghost"))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d", w.Code)
	}

	noCloud := newTestServer(t, Deps{})
	w = httptest.NewRecorder()
	noCloud.h.ServeHTTP(w, avatarRequest(t, u.User.ID))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured status = %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, Deps{})
	if w := s.do(http.MethodGet, "/healthz", nil, ""); w.Code != http.StatusOK {
		t.Errorf("healthz = %d", w.Code)
	}
	s.do(http.MethodGet, "/api/v1/users/nearby?lat=1&lng=1", nil, "")
	w := s.do(http.MethodGet, "/metrics", nil, "")
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("radar_http_requests_total")) {
		t.Errorf("metrics = %d", w.Code)
	}
}
