package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/peermesh/videomesh/internal/middleware"
	"github.com/peermesh/videomesh/internal/relay"
)

const testSecret = "test-secret"

func newTestRouter(hub *relay.Relay, requireAuth bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/healthz", Health("test"))
	router.POST("/api/token", IssueToken(testSecret))
	router.GET("/api/rooms/:roomId", RoomInfo(hub))
	router.GET("/ws/signal", Signaling(hub, requireAuth, testSecret))
	return router
}

func TestHealth(t *testing.T) {
	router := newTestRouter(relay.New(nil), false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d want 200", w.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Status != "ok" || resp.Tag != "test" || resp.Timestamp == "" {
		t.Fatalf("health: got %+v", resp)
	}
}

func TestIssueTokenRoundTrip(t *testing.T) {
	router := newTestRouter(relay.New(nil), false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/token", strings.NewReader(`{"name":"ada","lang":"en"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d want 200, body %s", w.Code, w.Body.String())
	}
	var resp TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	claims, err := middleware.ParseGuestToken(resp.Token, testSecret)
	if err != nil {
		t.Fatalf("ParseGuestToken: %v", err)
	}
	if claims.Name != "ada" || claims.Lang != "en" {
		t.Fatalf("claims: got %+v", claims)
	}
}

func TestIssueTokenRequiresName(t *testing.T) {
	router := newTestRouter(relay.New(nil), false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/token", strings.NewReader(`{"lang":"en"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d want 400", w.Code)
	}
}

func TestRoomInfoUnknownRoomIsEmpty(t *testing.T) {
	router := newTestRouter(relay.New(nil), false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/nowhere", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d want 200", w.Code)
	}
	var resp RoomInfoResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.ID != "nowhere" || resp.Participants != 0 {
		t.Fatalf("room info: got %+v", resp)
	}
}

func TestOriginFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(OriginFilter([]string{"http://allowed.example"}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		origin string
		want   int
	}{
		{"", http.StatusOK},
		{"http://allowed.example", http.StatusOK},
		{"http://evil.example", http.StatusForbidden},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		router.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("origin %q: got %d want %d", tc.origin, w.Code, tc.want)
		}
	}
}
