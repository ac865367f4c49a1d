package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ebank_api/internal/cache"
	"ebank_api/internal/config"
	"ebank_api/internal/domain"
	"ebank_api/internal/middleware"
	"ebank_api/internal/storage"
	"ebank_api/internal/store"
	"ebank_api/internal/utils"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

// countingStore records how often the store is touched.
type countingStore struct {
	store.UserStore
	calls atomic.Int64
}

func (s *countingStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.calls.Add(1)
	return s.UserStore.FindByEmail(ctx, email)
}

func (s *countingStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	s.calls.Add(1)
	return s.UserStore.FindByID(ctx, id)
}

func (s *countingStore) Insert(ctx context.Context, u *domain.User) error {
	s.calls.Add(1)
	return s.UserStore.Insert(ctx, u)
}

func (s *countingStore) SetAvatar(ctx context.Context, id, ref string) (*domain.User, error) {
	s.calls.Add(1)
	return s.UserStore.SetAvatar(ctx, id, ref)
}

// failingStore fails every call with a backend fault.
type failingStore struct{}

var errBackend = errors.New("backend down")

func (failingStore) FindByEmail(context.Context, string) (*domain.User, error) { return nil, errBackend }
func (failingStore) FindByID(context.Context, string) (*domain.User, error)    { return nil, errBackend }
func (failingStore) Insert(context.Context, *domain.User) error                { return errBackend }
func (failingStore) SetAvatar(context.Context, string, string) (*domain.User, error) {
	return nil, errBackend
}

type testEnv struct {
	router    *gin.Engine
	users     *countingStore
	memory    *store.MemoryStore
	avatarDir string
	redis     *miniredis.Miniredis
	profiles  *cache.ProfileCache
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       testSecret,
		TokenTTL:        time.Hour,
		BcryptCost:      bcrypt.MinCost,
		AllowedOrigins:  []string{"http://localhost:5173"},
		MaxUploadMemory: 1 << 20,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mem := store.NewMemoryStore()
	users := &countingStore{UserStore: mem}
	dir := t.TempDir()

	profiles := cache.NewProfileCache(rdb, time.Minute)

	r, err := NewRouter(testConfig(), Dependencies{
		Users:    users,
		Avatars:  storage.NewLocalStore(dir),
		Profiles: profiles,
	})
	require.NoError(t, err)
	return &testEnv{router: r, users: users, memory: mem, avatarDir: dir, redis: mr, profiles: profiles}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func registerBody(email, password string) map[string]string {
	return map[string]string{
		"firstName":     "Ada",
		"lastName":      "Lovelace",
		"email":         email,
		"password":      password,
		"bank":          "First Bank",
		"dateOfBirth":   "1990-01-01",
		"accountNumber": "0123456789",
	}
}

func (e *testEnv) register(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, jsonRequest(t, http.MethodPost, "/register", registerBody(email, password)))
}

func (e *testEnv) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, jsonRequest(t, http.MethodPost, "/login", map[string]string{"email": email, "password": password}))
}

func (e *testEnv) token(t *testing.T, email, password string) string {
	t.Helper()
	require.Equal(t, http.StatusOK, e.register(t, email, password).Code)
	w := e.login(t, email, password)
	require.Equal(t, http.StatusOK, w.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set(middleware.TokenHeader, token)
	return req
}

func avatarRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(AvatarField, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/setAvatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func TestScenario(t *testing.T) {
	e := newTestEnv(t)

	w := e.register(t, "a@x.com", "p1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"User registered successfully!"}`, w.Body.String())

	w = e.register(t, "a@x.com", "p1")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Email already exists"}`, w.Body.String())
	assert.Equal(t, 1, e.memory.Len())

	w = e.login(t, "a@x.com", "wrong")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.login(t, "a@x.com", "p1")
	require.Equal(t, http.StatusOK, w.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Login successful!", resp.Message)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, resp.Token, w.Header().Get(middleware.TokenHeader))

	w = e.do(t, authed(httptest.NewRequest(http.MethodGet, "/user-details", nil), resp.Token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@x.com", decode(t, w)["email"])
}

func TestRegister_MissingFields(t *testing.T) {
	e := newTestEnv(t)
	body := registerBody("a@x.com", "p1")
	delete(body, "accountNumber")

	w := e.do(t, jsonRequest(t, http.MethodPost, "/register", body))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid request"}`, w.Body.String())
	assert.Equal(t, 0, e.memory.Len())
}

func TestRegister_StoresHashNotPassword(t *testing.T) {
	e := newTestEnv(t)
	require.Equal(t, http.StatusOK, e.register(t, "a@x.com", "p1").Code)

	u, err := e.memory.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", u.PasswordHash)
	assert.True(t, utils.CheckPassword(u.PasswordHash, "p1"))
	assert.False(t, u.IsAvatarImageSet)
}

func TestRegister_EmailIsCaseSensitive(t *testing.T) {
	e := newTestEnv(t)

	require.Equal(t, http.StatusOK, e.register(t, "a@x.com", "p1").Code)
	require.Equal(t, http.StatusOK, e.register(t, "A@x.com", "p1").Code)
	assert.Equal(t, 2, e.memory.Len())
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	e := newTestEnv(t)
	require.Equal(t, http.StatusOK, e.register(t, "a@x.com", "p1").Code)

	wrongPassword := e.login(t, "a@x.com", "nope")
	unknownEmail := e.login(t, "ghost@x.com", "p1")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.JSONEq(t, `{"error":"Invalid Credentials"}`, unknownEmail.Body.String())
	assert.Empty(t, wrongPassword.Header().Get(middleware.TokenHeader))
}

func TestRegister_LongPassword(t *testing.T) {
	e := newTestEnv(t)
	long := strings.Repeat("a", 73)

	w := e.register(t, "a@x.com", long)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"User registered successfully!"}`, w.Body.String())

	assert.Equal(t, http.StatusOK, e.login(t, "a@x.com", long).Code)
	assert.Equal(t, http.StatusUnauthorized, e.login(t, "a@x.com", long[:71]).Code)
}

func TestLogin_DummyHashUsesConfiguredCost(t *testing.T) {
	for _, want := range []int{bcrypt.MinCost, bcrypt.MinCost + 1} {
		cost, err := bcrypt.Cost([]byte(newDummyHash(want)()))
		require.NoError(t, err)
		assert.Equal(t, want, cost)
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")

	w := e.do(t, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_TokenResolvesToUser(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(t, "a@x.com", "p1")

	u, err := e.memory.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	id, err := utils.ParseJWT(tok, testSecret)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	w := e.do(t, authed(httptest.NewRequest(http.MethodGet, "/user-details", nil), tok))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, u.ID, decode(t, w)["_id"])
}

func TestProtectedRoutes_RejectBadTokens(t *testing.T) {
	e := newTestEnv(t)
	otherSecret, err := utils.GenerateJWT("someone", "different-secret", time.Hour)
	require.NoError(t, err)

	tokens := map[string]string{
		"missing":      "",
		"malformed":    "abc.def",
		"other secret": otherSecret,
	}
	for name, tok := range tokens {
		t.Run(name, func(t *testing.T) {
			before := e.users.calls.Load()

			details := httptest.NewRequest(http.MethodGet, "/user-details", nil)
			avatar := avatarRequest(t, "a.png", []byte("img"))
			if tok != "" {
				authed(details, tok)
				authed(avatar, tok)
			}

			assert.Equal(t, http.StatusUnauthorized, e.do(t, details).Code)
			assert.Equal(t, http.StatusUnauthorized, e.do(t, avatar).Code)
			assert.Equal(t, before, e.users.calls.Load(), "store must not be reached")
		})
	}
}

func TestUserDetails_HidesPasswordHash(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(t, "a@x.com", "p1")

	for i := 0; i < 2; i++ { // second read is served from cache
		w := e.do(t, authed(httptest.NewRequest(http.MethodGet, "/user-details", nil), tok))
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.NotContains(t, body, "password")
		assert.NotContains(t, w.Body.String(), "$2a$")
		assert.Equal(t, false, body["isAvatarImageSet"])
	}
}

func TestUserDetails_ServedFromCache(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(t, "a@x.com", "p1")
	req := func() *http.Request { return authed(httptest.NewRequest(http.MethodGet, "/user-details", nil), tok) }

	require.Equal(t, http.StatusOK, e.do(t, req()).Code)
	before := e.users.calls.Load()

	w := e.do(t, req())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before, e.users.calls.Load())
	assert.Equal(t, "a@x.com", decode(t, w)["email"])
}

func TestUserDetails_CacheDownFallsBackToStore(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(t, "a@x.com", "p1")
	e.redis.Close()

	w := e.do(t, authed(httptest.NewRequest(http.MethodGet, "/user-details", nil), tok))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@x.com", decode(t, w)["email"])
}

func TestUserDetails_UnknownUser(t *testing.T) {
	e := newTestEnv(t)
	tok, err := utils.GenerateJWT("deleted-user", testSecret, time.Hour)
	require.NoError(t, err)

	w := e.do(t, authed(httptest.NewRequest(http.MethodGet, "/user-details", nil), tok))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
}

func TestSetAvatar(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(t, "a@x.com", "p1")

	// Prime the cache so the upload has something to overwrite
	w := e.do(t, authed(httptest.NewRequest(http.MethodGet, "/user-details", nil), tok))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["isAvatarImageSet"])

	w = e.do(t, authed(avatarRequest(t, "me.png", []byte("png-bytes")), tok))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, user["isAvatarImageSet"])
	ref, _ := user["avatarImage"].(string)
	require.NotEmpty(t, ref)
	assert.NotContains(t, user, "password")

	data, err := os.ReadFile(filepath.FromSlash(ref))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	w = e.do(t, authed(httptest.NewRequest(http.MethodGet, "/user-details", nil), tok))
	require.Equal(t, http.StatusOK, w.Code)
	details := decode(t, w)
	assert.Equal(t, true, details["isAvatarImageSet"])
	assert.Equal(t, ref, details["avatarImage"])
}

func TestSetAvatar_StaleReadDoesNotRestoreOldProfile(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(t, "a@x.com", "p1")
	ctx := context.Background()

	// A profile read that started before the upload
	stale, err := e.memory.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	staleCopy := *stale

	w := e.do(t, authed(avatarRequest(t, "me.png", []byte("png-bytes")), tok))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// ...and finishes afterwards
	require.NoError(t, e.profiles.Fill(ctx, &staleCopy))

	before := e.users.calls.Load()
	w = e.do(t, authed(httptest.NewRequest(http.MethodGet, "/user-details", nil), tok))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before, e.users.calls.Load(), "served from cache")
	assert.Equal(t, true, decode(t, w)["isAvatarImageSet"])
}

func TestSetAvatar_NoFile(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(t, "a@x.com", "p1")
	req := authed(httptest.NewRequest(http.MethodPost, "/setAvatar", nil), tok)

	w := e.do(t, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestSetAvatar_UnknownUser(t *testing.T) {
	e := newTestEnv(t)
	tok, err := utils.GenerateJWT("deleted-user", testSecret, time.Hour)
	require.NoError(t, err)

	w := e.do(t, authed(avatarRequest(t, "a.png", []byte("img")), tok))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"User not found"}`, w.Body.String())

	entries, err := os.ReadDir(e.avatarDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no avatar is written for an unknown user")
}

func TestStoreFaultsMapToInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, err := NewRouter(testConfig(), Dependencies{
		Users:   failingStore{},
		Avatars: storage.NewLocalStore(t.TempDir()),
	})
	require.NoError(t, err)
	tok, err := utils.GenerateJWT("u-1", testSecret, time.Hour)
	require.NoError(t, err)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := serve(jsonRequest(t, http.MethodPost, "/register", registerBody("a@x.com", "p1")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())

	w = serve(jsonRequest(t, http.MethodPost, "/login", map[string]string{"email": "a@x.com", "password": "p1"}))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = serve(authed(httptest.NewRequest(http.MethodGet, "/user-details", nil), tok))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = serve(authed(avatarRequest(t, "a.png", []byte("img")), tok))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal Server Error"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
