package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jbrucker/home-log/internal/application/auth"
	"github.com/jbrucker/home-log/internal/application/logbook"
	"github.com/jbrucker/home-log/internal/application/ports"
	"github.com/jbrucker/home-log/internal/domain"
	infraauth "github.com/jbrucker/home-log/internal/infrastructure/auth"
	"github.com/jbrucker/home-log/internal/infrastructure/http/handlers"
	"github.com/jbrucker/home-log/internal/infrastructure/http/middleware"
	"github.com/jbrucker/home-log/internal/infrastructure/security"
)

// In-memory repositories backing the full router under test.

type memUserRepo struct {
	users  map[string]*domain.User
	hashes map[domain.UserID]string
}

var _ ports.UserRepository = (*memUserRepo)(nil)

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User), hashes: make(map[domain.UserID]string)}
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User, passwordHash string) error {
	cp := *user
	m.users[user.Email] = &cp
	if passwordHash != "" {
		m.hashes[user.ID] = passwordHash
	}
	return nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) GetByID(_ context.Context, userID domain.UserID) (*domain.User, error) {
	for _, u := range m.users {
		if u.ID == userID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) GetPasswordHash(_ context.Context, userID domain.UserID) (string, error) {
	return m.hashes[userID], nil
}

func (m *memUserRepo) SetPassword(_ context.Context, userID domain.UserID, passwordHash string) error {
	m.hashes[userID] = passwordHash
	return nil
}

type memSourceRepo struct {
	sources map[domain.SourceID]*domain.Source
}

var _ ports.SourceRepository = (*memSourceRepo)(nil)

func newMemSourceRepo() *memSourceRepo {
	return &memSourceRepo{sources: make(map[domain.SourceID]*domain.Source)}
}

func (m *memSourceRepo) Create(_ context.Context, source *domain.Source) error {
	cp := *source
	m.sources[source.ID] = &cp
	return nil
}

func (m *memSourceRepo) GetByID(_ context.Context, ownerID domain.UserID, id domain.SourceID) (*domain.Source, error) {
	s, ok := m.sources[id]
	if !ok || s.OwnerID != ownerID {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSourceRepo) List(_ context.Context, ownerID domain.UserID, limit, offset int) ([]domain.SourceListItem, error) {
	var items []domain.SourceListItem
	for _, s := range m.sources {
		if s.OwnerID == ownerID {
			items = append(items, domain.SourceListItem{ID: s.ID, Name: s.Name, Type: s.Type})
		}
	}
	return items, nil
}

func (m *memSourceRepo) Update(_ context.Context, source *domain.Source) error {
	cp := *source
	m.sources[source.ID] = &cp
	return nil
}

func (m *memSourceRepo) Delete(_ context.Context, ownerID domain.UserID, id domain.SourceID) (bool, error) {
	s, ok := m.sources[id]
	if !ok || s.OwnerID != ownerID {
		return false, nil
	}
	delete(m.sources, id)
	return true, nil
}

type memReadingRepo struct {
	readings map[domain.ReadingID]*domain.Reading
	changes  []*domain.ChangeEntry
}

var _ ports.ReadingRepository = (*memReadingRepo)(nil)

func newMemReadingRepo() *memReadingRepo {
	return &memReadingRepo{readings: make(map[domain.ReadingID]*domain.Reading)}
}

func (m *memReadingRepo) Create(_ context.Context, reading *domain.Reading) error {
	cp := *reading
	m.readings[reading.ID] = &cp
	return nil
}

func (m *memReadingRepo) GetByID(_ context.Context, sourceID domain.SourceID, id domain.ReadingID) (*domain.Reading, error) {
	r, ok := m.readings[id]
	if !ok || r.SourceID != sourceID {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memReadingRepo) List(_ context.Context, sourceID domain.SourceID, since, until time.Time, limit, offset int) ([]*domain.Reading, error) {
	var out []*domain.Reading
	for _, r := range m.readings {
		if r.SourceID != sourceID {
			continue
		}
		if !since.IsZero() && r.RecordedAt.Before(since) {
			continue
		}
		if !until.IsZero() && r.RecordedAt.After(until) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memReadingRepo) UpdateWithAudit(_ context.Context, reading *domain.Reading, entry *domain.ChangeEntry) error {
	cp := *reading
	m.readings[reading.ID] = &cp
	ce := *entry
	m.changes = append(m.changes, &ce)
	return nil
}

func (m *memReadingRepo) ListChanges(_ context.Context, sourceID domain.SourceID, limit, offset int) ([]*domain.ChangeEntry, error) {
	var out []*domain.ChangeEntry
	for _, c := range m.changes {
		if c.SourceID == sourceID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// testEnv wires the full router over in-memory repositories.
type testEnv struct {
	router   http.Handler
	users    *memUserRepo
	sources  *memSourceRepo
	readings *memReadingRepo
	hasher   ports.PasswordHasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newMemUserRepo()
	sources := newMemSourceRepo()
	readings := newMemReadingRepo()

	hasher := security.NewArgon2Hasher(security.Argon2Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	signer, err := infraauth.NewTokenSigner([]byte("test-secret"), "HS256", "home-log", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}

	log := zerolog.Nop()
	loginUC := auth.NewLogin(users, hasher, signer, 3600)
	registerUC := auth.NewRegisterUser(users, hasher)
	changePasswordUC := auth.NewChangePassword(users, hasher)
	createSourceUC := logbook.NewCreateSource(sources)
	updateSourceUC := logbook.NewUpdateSource(sources)
	deleteSourceUC := logbook.NewDeleteSource(sources)
	createReadingUC := logbook.NewCreateReading(sources, readings)
	editReadingUC := logbook.NewEditReading(sources, readings)

	router := NewRouter(RouterConfig{
		AuthHandler:     handlers.NewAuthHandler(loginUC, users, log),
		UsersHandler:    handlers.NewUsersHandler(registerUC, log),
		AccountHandler:  handlers.NewAccountHandler(users, changePasswordUC, log),
		SourcesHandler:  handlers.NewSourcesHandler(sources, readings, createSourceUC, updateSourceUC, deleteSourceUC, log),
		ReadingsHandler: handlers.NewReadingsHandler(sources, readings, createReadingUC, editReadingUC, log),
		RequireJWT:      middleware.NewAuthValidator(signer).Handler,
		Log:             log,
	})

	return &testEnv{router: router, users: users, sources: sources, readings: readings, hasher: hasher}
}

// seedUser inserts a user directly, bypassing registration so legacy
// passwords that predate the strength rules still work.
func (e *testEnv) seedUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:        domain.NewUserID(uuid.New()),
		Email:     email,
		Username:  email,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	hash, err := e.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := e.users.Create(context.Background(), user, hash); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (e *testEnv) seedSource(t *testing.T, owner domain.UserID, name string, metrics map[string]string) *domain.Source {
	t.Helper()
	source, err := logbook.NewCreateSource(e.sources).Execute(context.Background(), logbook.CreateSourceInput{
		OwnerID: owner,
		Name:    name,
		Type:    "electricity",
		Metrics: metrics,
	})
	if err != nil {
		t.Fatalf("seed source: %v", err)
	}
	return source
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func (e *testEnv) loginToken(t *testing.T, email, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPut, "/api/auth/login", "", map[string]string{
		"username": email,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	var res struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	decodeBody(t, rec, &res)
	if res.AccessToken == "" || res.TokenType != "bearer" || res.ExpiresIn != 3600 {
		t.Fatalf("unexpected login response: %+v", res)
	}
	return res.AccessToken
}

func TestLoginAndListOwnSources(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	jim := env.seedUser(t, "jim@hackers.com", "hackme2")
	sally := env.seedUser(t, "sally@hackers.com", "hackme2")
	env.seedSource(t, jim.ID, "jim electricity", nil)
	env.seedSource(t, jim.ID, "jim water", nil)
	env.seedSource(t, sally.ID, "sally gas", nil)

	token := env.loginToken(t, "jim@hackers.com", "hackme2")

	rec := env.do(t, http.MethodGet, "/api/sources", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list sources: status %d body %s", rec.Code, rec.Body.String())
	}
	var list []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decodeBody(t, rec, &list)
	if len(list) != 2 {
		t.Fatalf("expected jim's 2 sources, got %d: %v", len(list), list)
	}
	for _, it := range list {
		if it.Name != "jim electricity" && it.Name != "jim water" {
			t.Fatalf("foreign source in listing: %+v", it)
		}
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedUser(t, "jim@hackers.com", "hackme2")

	rec := env.do(t, http.MethodPut, "/api/auth/login", "", map[string]string{
		"username": "jim@hackers.com",
		"password": "hackme3",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("missing WWW-Authenticate header")
	}

	// Unknown account answers identically.
	rec2 := env.do(t, http.MethodPut, "/api/auth/login", "", map[string]string{
		"username": "nobody@hackers.com",
		"password": "hackme2",
	})
	if rec2.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec2.Code)
	}
	if rec.Body.String() != rec2.Body.String() {
		t.Fatalf("failure responses differ: %q vs %q", rec.Body.String(), rec2.Body.String())
	}
}

func TestGuard_RejectsMissingAndBadTokens(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	for name, token := range map[string]string{
		"missing":  "",
		"garbage":  "not-a-jwt",
		"fragment": "a.b.c",
	} {
		rec := env.do(t, http.MethodGet, "/api/sources", token, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s token: status = %d, want 401", name, rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Fatalf("%s token: missing WWW-Authenticate header", name)
		}
	}
}

func TestAuthValidate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	jim := env.seedUser(t, "jim@hackers.com", "hackme2")
	token := env.loginToken(t, "jim@hackers.com", "hackme2")

	rec := env.do(t, http.MethodGet, "/api/auth/validate", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Status string `json:"status"`
		UserID string `json:"user_id"`
	}
	decodeBody(t, rec, &res)
	if res.Status != "ok" || res.UserID != jim.ID.String() {
		t.Fatalf("unexpected response: %+v", res)
	}

	// A token whose subject no longer exists is rejected here even though
	// the signature still verifies.
	delete(env.users.users, "jim@hackers.com")
	rec = env.do(t, http.MethodGet, "/api/auth/validate", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 after user removal", rec.Code)
	}
}

func TestForeignSourceIsNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedUser(t, "jim@hackers.com", "hackme2")
	sally := env.seedUser(t, "sally@hackers.com", "hackme2")
	theirs := env.seedSource(t, sally.ID, "sally gas", nil)
	token := env.loginToken(t, "jim@hackers.com", "hackme2")

	for _, req := range []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/api/sources/" + theirs.ID.String(), nil},
		{http.MethodPut, "/api/sources/" + theirs.ID.String(), map[string]string{"name": "hijacked"}},
		{http.MethodDelete, "/api/sources/" + theirs.ID.String(), nil},
		{http.MethodGet, "/api/sources/" + theirs.ID.String() + "/readings", nil},
		{http.MethodPost, "/api/sources/" + theirs.ID.String() + "/readings", map[string]interface{}{"values": map[string]float64{"value": 1}}},
		{http.MethodGet, "/api/sources/" + theirs.ID.String() + "/history", nil},
	} {
		rec := env.do(t, req.method, req.path, token, req.body)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s %s: status = %d, want 404", req.method, req.path, rec.Code)
		}
	}

	// Non-uuid ids are equally absent.
	rec := env.do(t, http.MethodGet, "/api/sources/not-a-uuid", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("non-uuid id: status = %d, want 404", rec.Code)
	}
}

func TestRegistration(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email":    "new@example.com",
		"username": "newbie",
		"password": "Valid1pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Location") == "" {
		t.Fatalf("missing Location header")
	}

	// Duplicate email.
	rec = env.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email":    "new@example.com",
		"password": "Valid1pass",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: status = %d, want 409", rec.Code)
	}

	// Weak password (meets the min length but lacks an uppercase letter).
	rec = env.do(t, http.MethodPost, "/api/users", "", map[string]string{
		"email":    "weak@example.com",
		"password": "weakpass1",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("weak password: status = %d, want 422", rec.Code)
	}

	// The new account can log in.
	env.loginToken(t, "new@example.com", "Valid1pass")
}

func TestReadingLifecycleWithHistory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	jim := env.seedUser(t, "jim@hackers.com", "hackme2")
	source := env.seedSource(t, jim.ID, "electricity", map[string]string{"energy": "kWh"})
	token := env.loginToken(t, "jim@hackers.com", "hackme2")
	base := "/api/sources/" + source.ID.String()

	// Log a reading.
	rec := env.do(t, http.MethodPost, base+"/readings", token, map[string]interface{}{
		"timestamp": time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		"values":    map[string]float64{"energy": 100},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create reading: status %d body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID     string             `json:"id"`
		Values map[string]float64 `json:"values"`
	}
	decodeBody(t, rec, &created)
	if created.Values["energy"] != 100 {
		t.Fatalf("unexpected created values: %v", created.Values)
	}

	// A value for a metric the source does not define is rejected.
	rec = env.do(t, http.MethodPost, base+"/readings", token, map[string]interface{}{
		"values": map[string]float64{"volume": 3},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown metric: status = %d, want 400", rec.Code)
	}

	// Edit the reading.
	rec = env.do(t, http.MethodPut, base+"/readings/"+created.ID, token, map[string]interface{}{
		"values": map[string]float64{"energy": 110},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit reading: status %d body %s", rec.Code, rec.Body.String())
	}

	// The edit shows up once in the source history with both snapshots.
	rec = env.do(t, http.MethodGet, base+"/history", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status %d body %s", rec.Code, rec.Body.String())
	}
	var history []struct {
		ReadingID string             `json:"reading_id"`
		ChangedBy string             `json:"changed_by"`
		OldValues map[string]float64 `json:"old_values"`
		NewValues map[string]float64 `json:"new_values"`
	}
	decodeBody(t, rec, &history)
	if len(history) != 1 {
		t.Fatalf("expected one history entry, got %d", len(history))
	}
	h := history[0]
	if h.ReadingID != created.ID || h.ChangedBy != jim.ID.String() {
		t.Fatalf("history identity wrong: %+v", h)
	}
	if h.OldValues["energy"] != 100 || h.NewValues["energy"] != 110 {
		t.Fatalf("history snapshots wrong: %+v", h)
	}

	// The reading itself now carries the edited value.
	rec = env.do(t, http.MethodGet, base+"/readings/"+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get reading: status %d body %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Values map[string]float64 `json:"values"`
	}
	decodeBody(t, rec, &got)
	if got.Values["energy"] != 110 {
		t.Fatalf("reading not updated: %v", got.Values)
	}
}

func TestAccountEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	jim := env.seedUser(t, "jim@hackers.com", "hackme2")
	token := env.loginToken(t, "jim@hackers.com", "hackme2")

	rec := env.do(t, http.MethodGet, "/api/account", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("account: status %d body %s", rec.Code, rec.Body.String())
	}
	var me struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	decodeBody(t, rec, &me)
	if me.ID != jim.ID.String() || me.Email != "jim@hackers.com" {
		t.Fatalf("unexpected profile: %+v", me)
	}

	rec = env.do(t, http.MethodPut, "/api/account/password", token, map[string]string{"password": "Newpass1"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("change password: status %d body %s", rec.Code, rec.Body.String())
	}
	env.loginToken(t, "jim@hackers.com", "Newpass1")

	rec = env.do(t, http.MethodPut, "/api/account/password", token, map[string]string{"password": "weak"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("weak password: status = %d, want 422", rec.Code)
	}
}

func TestHealthFallback(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status = %d, want 200", rec.Code)
	}
}
