package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"SOULKNOT_BACK-END/internal/config"
	"SOULKNOT_BACK-END/internal/dto"
	"SOULKNOT_BACK-END/internal/handlers"
	"SOULKNOT_BACK-END/internal/middleware"
	"SOULKNOT_BACK-END/internal/models"
	"SOULKNOT_BACK-END/internal/store"
	"SOULKNOT_BACK-END/internal/store/memstore"
)

type mockIntents struct {
	mock.Mock
}

func (m *mockIntents) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	args := m.Called(ctx, amount, currency)
	return args.String(0), args.Error(1)
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	st      store.Store
	jwt     *config.JWTConfig
	intents *mockIntents
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithStore(t, memstore.New())
}

func newTestServerWithStore(t *testing.T, st store.Store) *testServer {
	t.Helper()
	log := zap.NewNop()
	jwtCfg := &config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour}
	intents := &mockIntents{}
	gate := middleware.NewGate(jwtCfg, st, log)

	mux := SetupRoutes(Handlers{
		Auth:      handlers.NewAuthHandler(jwtCfg, log),
		Health:    handlers.NewHealthHandler(st),
		Users:     handlers.NewUsersHandler(st, log),
		Biodata:   handlers.NewBiodataHandler(st, gate, log),
		Favorites: handlers.NewFavoritesHandler(st, gate, log),
		Premium:   handlers.NewPremiumHandler(st, gate, log),
		Payments:  handlers.NewPaymentsHandler(st, intents, "usd", gate, log),
		Stories:   handlers.NewStoriesHandler(st, log),
		Admin:     handlers.NewAdminHandler(st, log),
	}, gate)

	return &testServer{
		t:       t,
		handler: middleware.Logging(log, mux),
		st:      st,
		jwt:     jwtCfg,
		intents: intents,
	}
}

// do sends a request as email; an empty email sends no token.
func (s *testServer) do(method, path, email string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		tok, err := middleware.GenerateToken(email, "", s.jwt)
		if err != nil {
			panic(err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seedUser(email, role, memberType string) string {
	s.t.Helper()
	res, err := s.st.Collection(store.CollectionUsers).InsertOne(context.Background(), models.User{
		Email:      email,
		Role:       role,
		MemberType: memberType,
		CreatedAt:  "2024-01-01T00:00:00Z",
	}.Document())
	require.NoError(s.t, err)
	return res.InsertedID
}

func (s *testServer) findOne(collection string, filter store.Document) store.Document {
	s.t.Helper()
	doc, err := s.st.Collection(collection).FindOne(context.Background(), filter)
	require.NoError(s.t, err)
	return doc
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func insertedID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[dto.InsertResponse](t, rec)
	require.NotNil(t, resp.InsertedID, rec.Body.String())
	return *resp.InsertedID
}

const (
	admin = "admin@soulknot.test"
	alice = "alice@soulknot.test"
	bob   = "bob@soulknot.test"
)

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SoulKnot")

	for _, path := range []string{"/healthz", "/livez", "/readyz"} {
		rec := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "soulknot_http_requests_total")

	rec = s.do(http.MethodGet, "/no-such-route", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestIssuedTokenAuthenticates(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/jwt", "", dto.TokenRequest{Email: alice, Name: "Alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	tok := decodeBody[dto.TokenResponse](t, rec).Token
	require.NotEmpty(t, tok)

	req := httptest.NewRequest(http.MethodGet, "/biodata/missing", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	out := httptest.NewRecorder()
	s.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, "null\n", out.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/biodata/abc", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized access", decodeBody[dto.ErrorResponse](t, rec).Message)

	req := httptest.NewRequest(http.MethodGet, "/biodata/abc", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	out := httptest.NewRecorder()
	s.handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusUnauthorized, out.Code)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/users", "", map[string]any{"email": alice, "name": "Alice", "role": "admin"})
	id := insertedID(t, rec)
	assert.NotEmpty(t, id)

	rec = s.do(http.MethodPost, "/users", "", map[string]any{"email": alice})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"user already exists","insertedId":null}`, rec.Body.String())

	user := s.findOne(store.CollectionUsers, store.Document{"email": alice})
	assert.Equal(t, models.MemberStandard, user.String("memberType"))
	assert.Empty(t, user.String("role"), "clients cannot assign their own role")

	rec = s.do(http.MethodPost, "/users", "", map[string]any{"name": "nobody"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminGate(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(admin, models.RoleAdmin, models.MemberStandard)
	s.seedUser(alice, models.RoleNone, models.MemberStandard)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/users", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/users", alice, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/users", "ghost@soulknot.test", nil).Code)

	rec := s.do(http.MethodGet, "/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 2)
}

func TestAdminProbeIsSelfOnly(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(admin, models.RoleAdmin, models.MemberPremium)
	s.seedUser(alice, models.RoleNone, models.MemberStandard)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/users/admin/"+alice, admin, nil).Code)

	rec := s.do(http.MethodGet, "/users/admin/"+admin, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.AdminProbeResponse{Admin: true, Premium: true}, decodeBody[dto.AdminProbeResponse](t, rec))

	rec = s.do(http.MethodGet, "/users/admin/"+alice, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.AdminProbeResponse{}, decodeBody[dto.AdminProbeResponse](t, rec))
}

func TestUpdateRoleDefaultsToAdmin(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(admin, models.RoleAdmin, models.MemberStandard)
	aliceID := s.seedUser(alice, models.RoleNone, models.MemberStandard)

	rec := s.do(http.MethodPut, "/users/role/"+aliceID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), decodeBody[dto.UpdateResponse](t, rec).ModifiedCount)
	assert.Equal(t, models.RoleAdmin, s.findOne(store.CollectionUsers, store.Document{"email": alice}).String("role"))

	rec = s.do(http.MethodPut, "/users/role/"+aliceID, admin, map[string]any{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.RoleAdmin, s.findOne(store.CollectionUsers, store.Document{"email": alice}).String("role"))

	rec = s.do(http.MethodPut, "/users/role/"+aliceID, admin, map[string]any{"role": ""})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), decodeBody[dto.UpdateResponse](t, rec).ModifiedCount)
	assert.Empty(t, s.findOne(store.CollectionUsers, store.Document{"email": alice}).String("role"))
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/users", alice, nil).Code)
}

func TestBiodataCreateAssignsSequentialIDs(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(alice, models.RoleNone, models.MemberStandard)
	s.seedUser(bob, models.RoleNone, models.MemberPremium)

	first := insertedID(t, s.do(http.MethodPost, "/biodata", alice, map[string]any{
		"name":         "Alice",
		"biodataType":  "Female",
		"_id":          "forged",
		"biodataId":    99,
		"contactEmail": "someone@else.test",
		"memberType":   models.MemberPremium,
	}))
	second := insertedID(t, s.do(http.MethodPost, "/biodata", bob, map[string]any{"name": "Bob", "biodataType": "Male"}))
	assert.NotEqual(t, "forged", first)

	rec := s.do(http.MethodGet, "/biodata/"+first, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeBody[map[string]any](t, rec)
	assert.EqualValues(t, 1, doc["biodataId"])
	assert.Equal(t, alice, doc["contactEmail"])
	assert.Equal(t, models.MemberStandard, doc["memberType"])
	assert.Equal(t, "Alice", doc["name"])

	rec = s.do(http.MethodGet, "/biodata/"+second, alice, nil)
	doc = decodeBody[map[string]any](t, rec)
	assert.EqualValues(t, 2, doc["biodataId"])
	assert.Equal(t, models.MemberPremium, doc["memberType"])

	rec = s.do(http.MethodGet, "/biodata", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 2)
}

func TestBiodataCreateRequiresUser(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/biodata", alice, map[string]any{"name": "Alice"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user not found", decodeBody[dto.ErrorResponse](t, rec).Message)
}

func TestBiodataConcurrentCreatesGetDistinctIDs(t *testing.T) {
	s := newTestServer(t)
	const n = 25
	for i := 0; i < n; i++ {
		s.seedUser(fmt.Sprintf("user%d@soulknot.test", i), models.RoleNone, models.MemberStandard)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := s.do(http.MethodPost, "/biodata", fmt.Sprintf("user%d@soulknot.test", i), map[string]any{"n": i})
			assert.Equal(t, http.StatusOK, rec.Code)
		}(i)
	}
	wg.Wait()

	docs, err := s.st.Collection(store.CollectionBiodata).Find(context.Background(), nil, nil)
	require.NoError(t, err)
	ids := make([]int, 0, len(docs))
	for _, d := range docs {
		id, ok := d.Int(models.BiodataIDField)
		require.True(t, ok)
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	want := make([]int, n)
	for i := range want {
		want[i] = i + 1
	}
	assert.Equal(t, want, ids)
}

func TestBiodataUpdateOwnership(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(admin, models.RoleAdmin, models.MemberStandard)
	s.seedUser(alice, models.RoleNone, models.MemberStandard)
	s.seedUser(bob, models.RoleNone, models.MemberStandard)
	id := insertedID(t, s.do(http.MethodPost, "/biodata", alice, map[string]any{"name": "Alice"}))

	rec := s.do(http.MethodPatch, "/biodata/"+id, bob, map[string]any{"name": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPatch, "/biodata/"+id, "ghost@soulknot.test", map[string]any{"name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPatch, "/biodata/"+id, alice, map[string]any{
		"age":          27,
		"contactEmail": bob,
		"biodataId":    42,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), decodeBody[dto.UpdateResponse](t, rec).MatchedCount)

	doc := s.findOne(store.CollectionBiodata, store.Document{store.IDField: id})
	assert.Equal(t, alice, doc.String("contactEmail"))
	n, _ := doc.Int("biodataId")
	assert.Equal(t, int64(1), n)
	age, _ := doc.Int("age")
	assert.Equal(t, int64(27), age)

	rec = s.do(http.MethodPatch, "/biodata/"+id, admin, map[string]any{"verified": true})
	require.Equal(t, http.StatusOK, rec.Code)
	doc = s.findOne(store.CollectionBiodata, store.Document{store.IDField: id})
	assert.Equal(t, true, doc["verified"])
	assert.Equal(t, models.MemberStandard, doc.String("memberType"))

	rec = s.do(http.MethodGet, "/biodata/email/"+alice, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodGet, "/biodata/email/"+alice, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decodeBody[map[string]any](t, rec)["_id"])
}

func TestFavorites(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(admin, models.RoleAdmin, models.MemberStandard)

	rec := s.do(http.MethodPost, "/favorites", alice, map[string]any{"userEmail": alice})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[dto.ErrorResponse](t, rec).Message, "biodataId is required")

	rec = s.do(http.MethodPost, "/favorites", alice, map[string]any{"biodataId": 3, "userEmail": bob})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	id := insertedID(t, s.do(http.MethodPost, "/favorites", alice, map[string]any{"biodataId": 3, "userEmail": alice}))

	rec = s.do(http.MethodPost, "/favorites", alice, map[string]any{"biodataId": 3, "userEmail": alice})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"already exists","insertedId":null}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/favorites/"+alice, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 1)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/favorites/"+alice, bob, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/favorites/"+alice, admin, nil).Code)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/favorites/"+id, bob, nil).Code)

	rec = s.do(http.MethodDelete, "/favorites/does-not-exist", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decodeBody[dto.DeleteResponse](t, rec).DeletedCount)

	rec = s.do(http.MethodDelete, "/favorites/"+id, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decodeBody[dto.DeleteResponse](t, rec).DeletedCount)
}

func TestPremiumWorkflow(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(admin, models.RoleAdmin, models.MemberStandard)
	s.seedUser(alice, models.RoleNone, models.MemberStandard)
	insertedID(t, s.do(http.MethodPost, "/biodata", alice, map[string]any{"name": "Alice"}))

	reqID := insertedID(t, s.do(http.MethodPost, "/premium/request", alice, map[string]any{"biodataId": 1, "name": "Alice"}))

	rec := s.do(http.MethodPost, "/premium/request", alice, map[string]any{"biodataId": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "premium request already sent", decodeBody[dto.ErrorResponse](t, rec).Message)

	rec = s.do(http.MethodGet, "/premium/request?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 1)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/premium/request", alice, nil).Code)

	rec = s.do(http.MethodGet, "/premium/request/"+reqID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PremiumPending, decodeBody[map[string]any](t, rec)["status"])
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/premium/request/"+reqID, bob, nil).Code)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPut, "/admin/approve-premium/"+reqID, alice, nil).Code)

	rec = s.do(http.MethodPut, "/admin/approve-premium/"+reqID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approval := decodeBody[dto.ApprovalResponse](t, rec)
	assert.Equal(t, alice, approval.UserEmail)
	assert.Equal(t, int64(1), approval.BiodataID)
	assert.Equal(t, int64(1), approval.User.ModifiedCount)
	assert.Equal(t, int64(1), approval.Biodata.ModifiedCount)
	assert.Equal(t, int64(1), approval.Request.ModifiedCount)

	assert.Equal(t, models.MemberPremium, s.findOne(store.CollectionUsers, store.Document{"email": alice}).String("memberType"))
	assert.Equal(t, models.MemberPremium, s.findOne(store.CollectionBiodata, store.Document{"biodataId": 1}).String("memberType"))
	assert.Equal(t, models.PremiumApproved, s.findOne(store.CollectionPremiumRequests, store.Document{store.IDField: reqID}).String("status"))

	// approving again changes nothing but still succeeds
	rec = s.do(http.MethodPut, "/admin/approve-premium/"+reqID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decodeBody[dto.ApprovalResponse](t, rec).User.ModifiedCount)

	rec = s.do(http.MethodPost, "/premium/request", alice, map[string]any{"biodataId": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "already premium", decodeBody[dto.ErrorResponse](t, rec).Message)

	rec = s.do(http.MethodPut, "/admin/approve-premium/missing", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPremiumStatusUpdate(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(admin, models.RoleAdmin, models.MemberStandard)
	reqID := insertedID(t, s.do(http.MethodPost, "/premium/request", bob, map[string]any{"biodataId": 7}))

	rec := s.do(http.MethodPut, "/premium/request/"+reqID, admin, map[string]any{"status": "rejected"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/premium/request/"+reqID, admin, map[string]any{"status": models.PremiumApproved})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decodeBody[dto.UpdateResponse](t, rec).ModifiedCount)
}

func TestCreatePaymentIntent(t *testing.T) {
	s := newTestServer(t)
	s.intents.On("CreateIntent", mock.Anything, int64(550), "usd").Return("pi_secret_123", nil).Once()
	s.intents.On("CreateIntent", mock.Anything, int64(1999), "usd").Return("", errors.New("card network down")).Once()

	rec := s.do(http.MethodPost, "/create-payment-intent", "", `{"price": 5.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "pi_secret_123", decodeBody[dto.PaymentIntentResponse](t, rec).ClientSecret)

	rec = s.do(http.MethodPost, "/create-payment-intent", "", `{"price": "19.999"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = s.do(http.MethodPost, "/create-payment-intent", "", `{"price": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.intents.AssertExpectations(t)
}

func TestPayments(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(admin, models.RoleAdmin, models.MemberStandard)

	rec := s.do(http.MethodPost, "/payments", alice, map[string]any{"biodataId": 4})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[dto.ErrorResponse](t, rec).Message, "paymentId is required")

	rec = s.do(http.MethodPost, "/payments", alice, map[string]any{"paymentId": "pi_1", "biodataId": 4, "requestEmail": bob})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	id := insertedID(t, s.do(http.MethodPost, "/payments", alice, map[string]any{"paymentId": "pi_1", "biodataId": 4, "price": 5}))
	stored := s.findOne(store.CollectionPayments, store.Document{store.IDField: id})
	assert.Equal(t, alice, stored.String("requestEmail"))
	assert.Equal(t, models.PaymentPending, stored.String("status"))
	assert.NotEmpty(t, stored.String("createdAt"))

	rec = s.do(http.MethodGet, "/check-payment-status?biodataId=4&email="+alice, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[dto.PaymentStatusResponse](t, rec).Paid)

	rec = s.do(http.MethodGet, "/check-payment-status?biodataId=5&email="+alice, alice, nil)
	assert.False(t, decodeBody[dto.PaymentStatusResponse](t, rec).Paid)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/check-payment-status?biodataId=4&email="+alice, bob, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/check-payment-status?biodataId=x&email="+alice, alice, nil).Code)

	rec = s.do(http.MethodGet, "/my-contact-requests", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 1)
	rec = s.do(http.MethodGet, "/my-contact-requests", bob, nil)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 0)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/payments", alice, nil).Code)
	rec = s.do(http.MethodGet, "/payments", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 1)

	rec = s.do(http.MethodPatch, "/payments/"+id, admin, map[string]any{"status": models.PaymentApproved})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PaymentApproved, s.findOne(store.CollectionPayments, store.Document{store.IDField: id}).String("status"))

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, "/payments/"+id, bob, nil).Code)

	rec = s.do(http.MethodDelete, "/delete-payment/"+id, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decodeBody[dto.DeleteResponse](t, rec).DeletedCount)

	rec = s.do(http.MethodDelete, "/payments/"+id, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decodeBody[dto.DeleteResponse](t, rec).DeletedCount)
}

func TestSuccessStories(t *testing.T) {
	s := newTestServer(t)

	insertedID(t, s.do(http.MethodPost, "/success-stories", alice, map[string]any{"review": "older", "createdAt": "2023-01-10T00:00:00Z"}))
	insertedID(t, s.do(http.MethodPost, "/success-stories", alice, map[string]any{"review": "middle", "createdAt": "2023-06-10T00:00:00Z"}))
	latest := insertedID(t, s.do(http.MethodPost, "/success-stories", bob, map[string]any{"review": "just now", "reviewStar": 5}))

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/success-stories", "", map[string]any{"review": "x"}).Code)

	for _, path := range []string{"/success-stories", "/stories"} {
		rec := s.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		stories := decodeBody[[]map[string]any](t, rec)
		require.Len(t, stories, 3)
		assert.Equal(t, "just now", stories[0]["review"], path)
		assert.Equal(t, "middle", stories[1]["review"], path)
		assert.Equal(t, "older", stories[2]["review"], path)
	}

	rec := s.do(http.MethodPatch, "/success-stories/"+latest, bob, map[string]any{"review": "edited", "extra": "ignored"})
	require.Equal(t, http.StatusOK, rec.Code)
	doc := s.findOne(store.CollectionStories, store.Document{store.IDField: latest})
	assert.Equal(t, "edited", doc["review"])
	assert.Nil(t, doc["reviewStar"])
	assert.NotContains(t, doc, "extra")
	assert.NotEmpty(t, doc.String("createdAt"))
}

func TestAdminStats(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(admin, models.RoleAdmin, models.MemberStandard)
	s.seedUser(alice, models.RoleNone, models.MemberStandard)
	s.seedUser(bob, models.RoleNone, models.MemberPremium)

	insertedID(t, s.do(http.MethodPost, "/biodata", alice, map[string]any{"biodataType": models.BiodataFemale}))
	insertedID(t, s.do(http.MethodPost, "/biodata", bob, map[string]any{"biodataType": models.BiodataMale}))
	insertedID(t, s.do(http.MethodPost, "/payments", alice, map[string]any{"paymentId": "pi_1", "biodataId": 2}))
	insertedID(t, s.do(http.MethodPost, "/success-stories", alice, map[string]any{"review": "hi"}))

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/admin/stats", alice, nil).Code)

	rec := s.do(http.MethodGet, "/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.AdminStatsResponse{
		TotalBiodata:   2,
		MaleBiodata:    1,
		FemaleBiodata:  1,
		PremiumBiodata: 1,
		TotalPayments:  1,
		SuccessStories: 1,
	}, decodeBody[dto.AdminStatsResponse](t, rec))
}

func TestSuccessStoryKeepsClientTimestamp(t *testing.T) {
	s := newTestServer(t)

	id := insertedID(t, s.do(http.MethodPost, "/success-stories", alice, map[string]any{"review": "epoch", "createdAt": 1700000000000}))

	doc := s.findOne(store.CollectionStories, store.Document{store.IDField: id})
	n, ok := doc.Int(models.CreatedAtField)
	require.True(t, ok, "createdAt = %v", doc[models.CreatedAtField])
	assert.Equal(t, int64(1700000000000), n)
}

// failingStore fails UpdateOne on one collection, after the calls made to
// other collections have already gone through.
type failingStore struct {
	store.Store
	collection string
	err        error
}

func (f *failingStore) Collection(name string) store.Collection {
	col := f.Store.Collection(name)
	if name != f.collection {
		return col
	}
	return &failingUpdates{Collection: col, err: f.err}
}

type failingUpdates struct {
	store.Collection
	err error
}

func (f *failingUpdates) UpdateOne(context.Context, store.Document, store.Document) (store.UpdateResult, error) {
	return store.UpdateResult{}, f.err
}

func TestPremiumApprovalFailureRollsBack(t *testing.T) {
	s := newTestServerWithStore(t, &failingStore{
		Store:      memstore.New(),
		collection: store.CollectionPremiumRequests,
		err:        errors.New("write conflict"),
	})
	s.seedUser(admin, models.RoleAdmin, models.MemberStandard)
	s.seedUser(alice, models.RoleNone, models.MemberStandard)
	insertedID(t, s.do(http.MethodPost, "/biodata", alice, map[string]any{"name": "Alice"}))
	reqID := insertedID(t, s.do(http.MethodPost, "/premium/request", alice, map[string]any{"biodataId": 1}))

	rec := s.do(http.MethodPut, "/admin/approve-premium/"+reqID, admin, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code, rec.Body.String())

	assert.Equal(t, models.MemberStandard, s.findOne(store.CollectionUsers, store.Document{"email": alice}).String("memberType"))
	assert.Equal(t, models.MemberStandard, s.findOne(store.CollectionBiodata, store.Document{"biodataId": 1}).String("memberType"))
	assert.Equal(t, models.PremiumPending, s.findOne(store.CollectionPremiumRequests, store.Document{store.IDField: reqID}).String("status"))
}
