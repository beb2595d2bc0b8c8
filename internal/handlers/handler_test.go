// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared in-memory fakes for handler tests, so
// the capability and handoff flows are exercised without PostgreSQL or
// Valkey.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"themesandbox/internal/guardian"
	"themesandbox/internal/middleware"
	"themesandbox/internal/models"
	"themesandbox/internal/session"
)

var errFake = errors.New("fake failure")

// fakeThemes is an in-memory ThemeStore. It also satisfies the guardian's
// theme lookup.
type fakeThemes struct {
	byID   map[int64]*models.Theme
	nextID int64
}

func newFakeThemes() *fakeThemes {
	return &fakeThemes{byID: map[int64]*models.Theme{}, nextID: 1}
}

func (f *fakeThemes) add(userID uuid.UUID, name, key string) *models.Theme {
	t := &models.Theme{ID: f.nextID, Key: key, UserID: userID, Name: name}
	f.byID[t.ID] = t
	f.nextID++
	return t
}

func (f *fakeThemes) FindByID(id int64) (*models.Theme, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeThemes) FindByKey(key string) (*models.Theme, error) {
	for _, t := range f.byID {
		if t.Key == key {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeThemes) ListByUser(userID uuid.UUID) ([]models.Theme, error) {
	var out []models.Theme
	for id := int64(1); id < f.nextID; id++ {
		if t, ok := f.byID[id]; ok && t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeThemes) Create(userID uuid.UUID, name string) (*models.Theme, error) {
	return f.add(userID, name, fmt.Sprintf("key-%d", f.nextID)), nil
}

func (f *fakeThemes) UpdateName(id int64, name string) error {
	f.byID[id].Name = name
	return nil
}

func (f *fakeThemes) SetColorScheme(id int64, schemeID *int64) error {
	f.byID[id].ColorSchemeID = schemeID
	return nil
}

func (f *fakeThemes) RotateKey(id int64) (string, error) {
	key := fmt.Sprintf("rotated-%d", id)
	f.byID[id].Key = key
	return key, nil
}

func (f *fakeThemes) Delete(id int64) error {
	delete(f.byID, id)
	return nil
}

// fakeSchemes is an in-memory ColorSchemeStore.
type fakeSchemes struct {
	byID   map[int64]*models.ColorScheme
	nextID int64
}

func newFakeSchemes() *fakeSchemes {
	return &fakeSchemes{byID: map[int64]*models.ColorScheme{}, nextID: 1}
}

func (f *fakeSchemes) add(themeID *int64, name string) *models.ColorScheme {
	s := &models.ColorScheme{
		ID:      f.nextID,
		ThemeID: themeID,
		Name:    name,
		Colors:  []models.ColorEntry{{Name: "primary", Hex: "222222"}},
	}
	f.byID[s.ID] = s
	f.nextID++
	return s
}

func (f *fakeSchemes) FindByID(id int64) (*models.ColorScheme, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSchemes) FindDefault() (*models.ColorScheme, error) {
	for id := int64(1); id < f.nextID; id++ {
		if s, ok := f.byID[id]; ok && s.ThemeID == nil {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSchemes) ListByThemes(themeIDs []int64) ([]models.ColorScheme, error) {
	var out []models.ColorScheme
	for _, id := range themeIDs {
		for sid := int64(1); sid < f.nextID; sid++ {
			if s, ok := f.byID[sid]; ok && s.ThemeID != nil && *s.ThemeID == id {
				out = append(out, *s)
			}
		}
	}
	return out, nil
}

func (f *fakeSchemes) CreateFromDefault(themeID int64, name string) (*models.ColorScheme, error) {
	return f.add(&themeID, name), nil
}

func (f *fakeSchemes) Update(id int64, name string, colors []models.ColorEntry) (*models.ColorScheme, error) {
	s := f.byID[id]
	s.Name = name
	s.Colors = colors
	cp := *s
	return &cp, nil
}

func (f *fakeSchemes) Delete(id int64) error {
	delete(f.byID, id)
	return nil
}

// fakeFlags is an in-memory shared-flag store.
type fakeFlags struct {
	shared map[int64]bool
}

func newFakeFlags() *fakeFlags { return &fakeFlags{shared: map[int64]bool{}} }

func (f *fakeFlags) ThemeShared(themeID int64) bool { return f.shared[themeID] }

func (f *fakeFlags) SetThemeShared(themeID int64, shared bool) error {
	f.shared[themeID] = shared
	return nil
}

func (f *fakeFlags) ClearThemeShared(themeID int64) error {
	delete(f.shared, themeID)
	return nil
}

// fakeGroups answers group membership with a fixed allow set.
type fakeGroups struct {
	members map[uuid.UUID]bool
}

func (f *fakeGroups) InAnyGroup(userID uuid.UUID, _ []string) (bool, error) {
	return f.members[userID], nil
}

// fakeShadows provisions in-memory shadow users and registers them with a
// fakeUsers finder when one is attached.
type fakeShadows struct {
	users *fakeUsers
	calls int
	err   error
}

func (f *fakeShadows) Provision(realUser *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls++
	u := &models.User{
		ID:        uuid.New(),
		Email:     fmt.Sprintf("shadow-%d@sandbox.test", f.calls),
		Anonymous: true,
		Role:      models.RoleMember,
	}
	if realUser != nil {
		id := realUser.ID
		u.ShadowOf = &id
	}
	if f.users != nil {
		f.users.byID[u.ID] = u
	}
	return u, nil
}

// fakeTokens is an in-memory single-use token service.
type fakeTokens struct {
	issued map[string]uuid.UUID
	seq    int
}

func newFakeTokens() *fakeTokens { return &fakeTokens{issued: map[string]uuid.UUID{}} }

// issueRaw plants a token without going through Issue, for entry tests
// that need a known value.
func (f *fakeTokens) issueRaw(tok string, shadowID uuid.UUID) {
	f.issued[tok] = shadowID
}

func (f *fakeTokens) Issue(_ context.Context, shadowID uuid.UUID) (string, error) {
	f.seq++
	// 64 lowercase hex chars, the shape the real service produces.
	tok := fmt.Sprintf("%064x", f.seq)
	f.issued[tok] = shadowID
	return tok, nil
}

func (f *fakeTokens) Consume(_ context.Context, tok string) (uuid.UUID, error) {
	id, ok := f.issued[tok]
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid token")
	}
	delete(f.issued, tok)
	return id, nil
}

// fakeUsers is an in-memory user finder.
type fakeUsers struct {
	byID map[uuid.UUID]*models.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[uuid.UUID]*models.User{}} }

func (f *fakeUsers) FindByID(id uuid.UUID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

// fakeSessions records created sessions and hands out predictable ids.
type fakeSessions struct {
	created []*session.Data
}

func (f *fakeSessions) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	id := data.ID
	if id == "" {
		id = fmt.Sprintf("sess-%d", len(f.created)+1)
		data.ID = id
	}
	f.created = append(f.created, data)
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: id, Path: "/"})
	return id, nil
}

// fakeHandoff is an in-memory read-once handoff slot.
type fakeHandoff struct {
	slots map[string]string
	err   error
}

func newFakeHandoff() *fakeHandoff { return &fakeHandoff{slots: map[string]string{}} }

func (f *fakeHandoff) Set(_ context.Context, sessionID, themeKey string) error {
	if f.err != nil {
		return f.err
	}
	f.slots[sessionID] = themeKey
	return nil
}

func (f *fakeHandoff) Take(_ context.Context, sessionID string) (string, bool) {
	key, ok := f.slots[sessionID]
	if ok {
		delete(f.slots, sessionID)
	}
	return key, ok
}

// withIdentity attaches session data to the request context the way the
// identity middleware would.
func withIdentity(r *http.Request, data *session.Data) *http.Request {
	if data == nil {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), middleware.SessionKey, data))
}

// sessionFor builds session data matching a user.
func sessionFor(u *models.User) *session.Data {
	return &session.Data{
		ID:          "sess-" + u.ID.String()[:8],
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		Anonymous:   u.Anonymous,
		TwoFADone:   true,
	}
}

func memberUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "member@example.test", Role: models.RoleMember}
}

func adminUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "admin@example.test", Role: models.RoleAdmin}
}

// testGuardian wires a guardian over the shared fakes. An empty groups
// set with no share groups configured means everyone may share.
func testGuardian(flags *fakeFlags, themes *fakeThemes, shareGroups []string, members map[uuid.UUID]bool) *guardian.Guardian {
	return guardian.New(flags, &fakeGroups{members: members}, themes, shareGroups)
}

// withParam injects a chi URL parameter, as the router would.
func withParam(r *http.Request, key, val string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, val)
	return r
}

// do runs a request through a handler func and returns the recorder.
func do(t *testing.T, h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h(w, r)
	return w
}
