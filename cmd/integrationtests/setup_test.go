package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	bidding "auction-house/internal/biddingService"
	"auction-house/internal/blacklist"
	"auction-house/internal/config"
	"auction-house/internal/eligibility"
	"auction-house/internal/lifecycle"
	model "auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/server"
	handler "auction-house/services/auction/handler"

	"github.com/gin-gonic/gin"
)

const testAdminToken = "test-admin-token"

// testStack bundles the full wiring so scenarios can reach past HTTP when
// seeding state.
type testStack struct {
	router *gin.Engine
	repo   *repository.MemoryRepo
	bans   *blacklist.Manager
}

// SetupTestStack wires the whole service against the in-memory repository,
// without Redis or Kafka.
func SetupTestStack() *testStack {
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	bans := blacklist.NewManager(repo)
	gate := eligibility.NewGate(repo, bans)
	svc := bidding.NewBiddingService(repo, gate, nil)
	lifecycleMgr := lifecycle.NewManager(repo, bans, 72*time.Hour)

	h := handler.NewAuctionHandler(svc, lifecycleMgr, bans, repo)
	cfg := config.AppConfig{AdminToken: testAdminToken}
	return &testStack{
		router: server.SetupRouter(h, nil, cfg),
		repo:   repo,
		bans:   bans,
	}
}

// SeedUser stores a user directly in the repository.
func (s *testStack) SeedUser(t *testing.T, userID string, verified bool) {
	t.Helper()
	u := model.User{UserID: userID, Username: userID, EmailVerified: verified, CreatedAt: time.Now().UTC()}
	if err := s.repo.PutUser(context.Background(), u); err != nil {
		t.Fatalf("failed to seed user %s: %v", userID, err)
	}
}

// SeedAuction stores an auction directly in the repository with the given
// stored status and window.
func (s *testStack) SeedAuction(t *testing.T, id string, status model.AuctionStatus, start, end time.Time) {
	t.Helper()
	a := &model.Auction{
		AuctionID:    id,
		Title:        id,
		StartPrice:   1000,
		CurrentPrice: 1000,
		BidIncrement: 100,
		StartTime:    start,
		EndTime:      end,
		Status:       status,
	}
	if err := s.repo.CreateAuction(context.Background(), a); err != nil {
		t.Fatalf("failed to seed auction %s: %v", id, err)
	}
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func (s *testStack) ExecuteRequest(t *testing.T, method, url string, body any, admin bool) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Admin-Token", testAdminToken)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes a request and parses the JSON response.
func (s *testStack) ExecuteRequestAndParse(t *testing.T, method, url string, body any, admin bool) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	w := s.ExecuteRequest(t, method, url, body, admin)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// data extracts the success envelope payload.
func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %v", resp)
	}
	return d
}
