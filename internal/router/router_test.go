package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	mem "commontrust-web/internal/adapters/storage/memory"
	"commontrust-web/internal/config"
	"commontrust-web/internal/domain/deals"
	"commontrust-web/internal/domain/members"
	"commontrust-web/internal/domain/reviews"
	"commontrust-web/internal/middleware"
	"commontrust-web/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	var c config.Config
	c.LoadDefaults()
	c.AdminPassword = "hunter2"
	c.AdminCookieSecret = "cookie-secret"
	c.ReviewResponseSecret = "response-secret"
	c.PublicBaseURL = "https://trust.example"
	return c
}

// seedStore: deal_1 con ambas reviews (público), deal_2 con una sola (oculto).
func seedStore() *mem.Store {
	s := mem.NewStore()
	base := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)

	s.PutMember(members.Member{ID: "m_bob", TelegramID: 42424242, Username: "Bob_Seller"})
	s.PutMember(members.Member{ID: "m_alice", TelegramID: 1111, Username: "alice_buyer"})

	s.PutDeal(deals.Deal{ID: "deal_1", InitiatorID: "m_alice", CounterpartyID: "m_bob", Status: deals.StatusCompleted, Created: base})
	s.PutDeal(deals.Deal{ID: "deal_2", InitiatorID: "m_alice", CounterpartyID: "m_bob", Status: deals.StatusCompleted, Created: base.Add(time.Hour)})

	s.PutReview(reviews.Review{ID: "rev_1", DealID: "deal_1", ReviewerID: "m_alice", RevieweeID: "m_bob", Rating: 5, Comment: "great", Created: base})
	s.PutReview(reviews.Review{ID: "rev_2", DealID: "deal_1", ReviewerID: "m_bob", RevieweeID: "m_alice", Rating: 4, Created: base.Add(time.Minute)})
	s.PutReview(reviews.Review{ID: "rev_3", DealID: "deal_2", ReviewerID: "m_alice", RevieweeID: "m_bob", Rating: 1, Created: base.Add(2 * time.Hour)})
	return s
}

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	return router.NewRouter(router.Options{
		Config:  testConfig(),
		Storage: router.MemoryStorage(seedStore()),
	})
}

func do(h http.Handler, method, target string, body []byte, contentType string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	form := url.Values{"password": {"hunter2"}, "next": {"/admin"}}
	rec := do(h, http.MethodPost, "/api/admin/login", []byte(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AdminCookieName {
			return c
		}
	}
	t.Fatal("admin cookie not set")
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := do(newHandler(t), http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAdmin_GateAndLogin(t *testing.T) {
	h := newHandler(t)

	rec := do(h, http.MethodGet, "/admin", nil, "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/admin/login", loc.Path)
	assert.Equal(t, "/admin", loc.Query().Get("next"))

	rec = do(h, http.MethodGet, "/api/admin/deals", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// contraseña incorrecta: sin cookie
	form := url.Values{"password": {"nope"}, "next": {"//evil.example"}}
	rec = do(h, http.MethodPost, "/api/admin/login", []byte(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "err=invalid_password")
	assert.Contains(t, rec.Header().Get("Location"), "next=%2Fadmin")
	assert.Empty(t, rec.Result().Cookies())

	cookie := login(t, h)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)

	rec = do(h, http.MethodGet, "/admin", nil, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash map[string]any
	decode(t, rec, &dash)
	assert.EqualValues(t, 2, dash["members"])
	assert.EqualValues(t, 2, dash["deals"])
	assert.EqualValues(t, 3, dash["reviews"])

	forged := &http.Cookie{Name: middleware.AdminCookieName, Value: cookie.Value + "x"}
	rec = do(h, http.MethodGet, "/api/admin/deals", nil, "", forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_ListDealsByMember(t *testing.T) {
	h := newHandler(t)
	cookie := login(t, h)

	rec := do(h, http.MethodGet, "/api/admin/deals?q=@bob_seller&status=completed", nil, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []map[string]any
	decode(t, rec, &items)
	require.Len(t, items, 2)
	assert.Equal(t, "deal_2", items[0]["id"])

	rec = do(h, http.MethodGet, "/api/admin/deals?q=unknown_user", nil, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &items)
	assert.Empty(t, items)

	rec = do(h, http.MethodGet, "/api/admin/deals?status=bogus", nil, "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRespond_OneShot(t *testing.T) {
	h := newHandler(t)
	cookie := login(t, h)

	rec := do(h, http.MethodPost, "/api/admin/reviews/rev_1/response-link", nil, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var link struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}
	decode(t, rec, &link)
	require.NotEmpty(t, link.Token)
	assert.True(t, strings.HasPrefix(link.URL, "https://trust.example/respond/"))

	rec = do(h, http.MethodGet, "/respond/"+link.Token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	form := url.Values{"response": {"  thanks!  "}}
	rec = do(h, http.MethodPost, "/respond/"+link.Token, []byte(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/reviews/rev_1", rec.Header().Get("Location"))

	rec = do(h, http.MethodGet, "/reviews/rev_1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rv map[string]any
	decode(t, rec, &rv)
	assert.Equal(t, "thanks!", rv["response"])

	// segundo intento con el mismo token
	body, _ := json.Marshal(map[string]string{"token": link.Token, "response": "again"})
	rec = do(h, http.MethodPost, "/api/reviews/response", body, "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(h, http.MethodPost, "/respond/"+link.Token, []byte(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "err=already_responded")

	// ya respondida: no se emite otro link
	rec = do(h, http.MethodPost, "/api/admin/reviews/rev_1/response-link", nil, "", cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRespond_BadTokenIs404(t *testing.T) {
	h := newHandler(t)

	rec := do(h, http.MethodGet, "/respond/not-a-token", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body, _ := json.Marshal(map[string]string{"token": "not-a-token", "response": "hi"})
	rec = do(h, http.MethodPost, "/api/reviews/response", body, "application/json")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_token")
}

func TestProfile_RedirectAndGate(t *testing.T) {
	h := newHandler(t)

	rec := do(h, http.MethodGet, "/user/@Bob_Seller", nil, "")
	require.Equal(t, http.StatusPermanentRedirect, rec.Code)
	assert.Equal(t, "/user/42424242", rec.Header().Get("Location"))

	rec = do(h, http.MethodGet, "/user/42424242", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p struct {
		ReviewCount      int    `json:"review_count"`
		AvgRatingDisplay string `json:"avg_rating_display"`
		Reviews          []struct {
			ID string `json:"id"`
		} `json:"reviews"`
	}
	decode(t, rec, &p)
	// rev_3 sigue oculta: deal_2 tiene una sola review
	require.Equal(t, 1, p.ReviewCount)
	assert.Equal(t, "rev_1", p.Reviews[0].ID)
	assert.Equal(t, "5.00", p.AvgRatingDisplay)

	rec = do(h, http.MethodGet, "/user/ab", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfile_AverageIsStableAcrossPages(t *testing.T) {
	store := seedStore()
	// bob califica deal_2: rev_3 (rating 1) pasa a ser pública
	store.PutReview(reviews.Review{ID: "rev_4", DealID: "deal_2", ReviewerID: "m_bob", RevieweeID: "m_alice", Rating: 2, Created: time.Date(2025, 12, 1, 15, 0, 0, 0, time.UTC)})
	h := router.NewRouter(router.Options{Config: testConfig(), Storage: router.MemoryStorage(store)})

	type profile struct {
		ReviewCount      int    `json:"review_count"`
		AvgRatingDisplay string `json:"avg_rating_display"`
		Reviews          []struct {
			ID string `json:"id"`
		} `json:"reviews"`
	}

	cases := []struct {
		target string
		want   string
	}{
		{"/user/42424242", ""},
		{"/user/42424242?per_page=1", "rev_3"},
		{"/user/42424242?page=2&per_page=1", "rev_1"},
	}
	for _, tc := range cases {
		rec := do(h, http.MethodGet, tc.target, nil, "")
		require.Equal(t, http.StatusOK, rec.Code, tc.target)
		var p profile
		decode(t, rec, &p)
		// alice: (5+1)/2 = 3, sin importar la página pedida
		assert.Equal(t, "3.00", p.AvgRatingDisplay, tc.target)
		if tc.want != "" {
			require.Len(t, p.Reviews, 1, tc.target)
			assert.Equal(t, tc.want, p.Reviews[0].ID, tc.target)
		} else {
			assert.Equal(t, 2, p.ReviewCount)
		}
	}
}

func TestDealPage_Disclosure(t *testing.T) {
	h := newHandler(t)

	rec := do(h, http.MethodGet, "/deals/deal_1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Disclosed bool              `json:"disclosed"`
		Reviews   []json.RawMessage `json:"reviews"`
	}
	decode(t, rec, &page)
	assert.True(t, page.Disclosed)
	assert.Len(t, page.Reviews, 2)

	rec = do(h, http.MethodGet, "/deals/deal_2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	assert.False(t, page.Disclosed)
	assert.Empty(t, page.Reviews)

	rec = do(h, http.MethodGet, "/reviews/rev_3", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_MemberFlagsAndDeletes(t *testing.T) {
	h := newHandler(t)
	cookie := login(t, h)

	rec := do(h, http.MethodGet, "/api/admin/members?q=42424242", nil, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var m map[string]any
	decode(t, rec, &m)
	assert.Equal(t, "m_bob", m["id"])
	assert.Equal(t, "/user/42424242", m["href"])

	rec = do(h, http.MethodPost, "/api/admin/members/m_bob/scammer", []byte(`{"scammer":true}`), "application/json", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &m)
	assert.Equal(t, true, m["scammer"])
	assert.NotEmpty(t, m["scammer_at"])

	rec = do(h, http.MethodPost, "/api/admin/members/m_bob/scammer", []byte(`{"scammer":false}`), "application/json", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	m = map[string]any{}
	decode(t, rec, &m)
	assert.Equal(t, false, m["scammer"])
	assert.NotContains(t, m, "scammer_at")

	rec = do(h, http.MethodPatch, "/api/admin/deals/deal_2", []byte(`{"status":"disputed","description":"  late  "}`), "application/json", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var d map[string]any
	decode(t, rec, &d)
	assert.Equal(t, "disputed", d["status"])
	assert.Equal(t, "late", d["description"])

	rec = do(h, http.MethodDelete, "/api/admin/reviews/rev_1", nil, "", cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(h, http.MethodDelete, "/api/admin/reviews/rev_1", nil, "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// deal_1 queda con un solo reviewer: vuelve a ocultarse
	rec = do(h, http.MethodGet, "/reviews/rev_2", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodDelete, "/api/admin/deals/deal_1", nil, "", cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
