package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"neurothrive/internal/auth"
	"neurothrive/internal/config"
	"neurothrive/internal/database"
	"neurothrive/internal/interventions"
	"neurothrive/internal/repository"
	"neurothrive/internal/risk"
	"neurothrive/internal/screening"
	"neurothrive/internal/session"
	"neurothrive/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAnalyzer struct {
	res *screening.Result
	err error
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ string, video io.Reader) (*screening.Result, error) {
	_, _ = io.Copy(io.Discard, video)
	return s.res, s.err
}

type testEnv struct {
	t            *testing.T
	engine       *gin.Engine
	users        *repository.UserRepository
	plans        *repository.InterventionRepository
	patients     *repository.PatientRepository
	monitoring   *MonitoringHandler
	analyzer     *stubAnalyzer
	authCfg      config.AuthConfig
	screeningCfg config.ScreeningConfig
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	require.NoError(t, RegisterValidators())

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zap.NewNop()))

	routes, err := auth.DefaultRoutes()
	require.NoError(t, err)

	e := &testEnv{
		t:        t,
		users:    repository.NewUserRepository(db),
		plans:    repository.NewInterventionRepository(db),
		patients: repository.NewPatientRepository(db),
		analyzer: &stubAnalyzer{res: &screening.Result{Risk: 0.81, Indicators: json.RawMessage(`{"eye_contact":0.2}`)}},
		authCfg:  config.AuthConfig{JWTSecret: "handler-test-secret", JWTIssuer: "test", AccessTokenTTL: time.Hour},

		screeningCfg: config.ScreeningConfig{MaxUploadMB: 5},
	}
	screenings := repository.NewScreeningRepository(db)
	svc := screening.NewService(e.analyzer, screenings, risk.Fraction, zap.NewNop())
	log := zap.NewNop()

	r := gin.New()
	r.Use(sessions.Sessions("nt_session", cookie.NewStore([]byte("cookie-secret"))))
	r.Use(session.Loader(e.users, func() string { return e.authCfg.JWTSecret }, log))

	ah := NewAuthHandler(log, e.users, func() config.AuthConfig { return e.authCfg })
	r.POST("/register", ah.Register)
	r.POST("/login", ah.Login)
	r.POST("/logout", ah.Logout)
	r.GET("/me", session.Require(), ah.Me)

	nh := NewNavigationHandler(routes)
	r.GET("/landing", nh.Landing)
	r.GET("/resolve", nh.Resolve)
	r.GET("/items", session.Require(), nh.Items)

	r.GET("/risk", ClassifyRisk)

	sh := NewScreeningHandler(log, svc, screenings, func() config.ScreeningConfig { return e.screeningCfg })
	r.POST("/screening", session.Require(), sh.Upload)
	r.GET("/screening/history", session.Require(auth.RoleAdmin, auth.RoleClinician, auth.RoleTherapist), sh.History)

	ih := NewInterventionHandler(log, e.plans)
	r.POST("/generate", ih.Generate)
	r.GET("/interventions/:proto_patient_id", session.Require(), ih.List)
	r.GET("/plans/:plan_id", session.Require(), ih.Get)
	r.PATCH("/plans/:plan_id/accept", session.Require(auth.RoleClinician, auth.RoleAdmin), ih.Accept)
	r.PATCH("/plans/:plan_id/reject", session.Require(auth.RoleClinician, auth.RoleAdmin), ih.Reject)

	ph := NewPatientHandler(log, e.patients)
	r.GET("/patients", session.Require(), ph.List)
	r.POST("/patients", session.Require(), ph.Create)

	e.monitoring = NewMonitoringHandler(log, e.patients, repository.NewMonitoringRepository(db))
	mh := e.monitoring
	r.POST("/checkin", session.Require(), mh.SubmitCheckin)
	r.GET("/checkin/:patient_id", session.Require(), mh.ListCheckins)
	r.GET("/checkin/:patient_id/latest", session.Require(), mh.LatestCheckin)
	r.GET("/crisis/:patient_id", session.Require(), mh.ListCrisisEvents)
	r.POST("/crisis/:patient_id/log", session.Require(), mh.LogCrisis)
	r.PATCH("/crisis/:event_id/resolve", session.Require(auth.RoleClinician, auth.RoleAdmin), mh.ResolveCrisis)
	r.GET("/trends/:patient_id", session.Require(), mh.Trends)

	e.engine = r
	return e
}

func (e *testEnv) do(method, path string, body io.Reader, contentType, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postJSON(path, body, token string) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, path, strings.NewReader(body), "application/json", token)
}

// register creates an account and returns its access token.
func (e *testEnv) register(email string, role auth.Role) TokenResponse {
	e.t.Helper()
	rec := e.postJSON("/register", `{"email":"`+email+`","full_name":"Test User","password":"secret1","role":"`+string(role)+`"}`, "")
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp TokenResponse
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestRegister(t *testing.T) {
	e := newTestEnv(t)

	resp := e.register("Parent@Example.com", auth.RoleParent)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "parent@example.com", resp.User.Email)
	assert.Equal(t, auth.RoleParent, resp.User.Role)
	assert.True(t, resp.User.IsActive)

	claims, err := auth.ParseToken(e.authCfg.JWTSecret, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleParent, claims.Role)

	rec := e.postJSON("/register", `{"email":"parent@example.com","full_name":"Again","password":"secret1","role":"parent"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, auth.MsgEmailTaken, errorOf(t, rec))

	bad := map[string]string{
		"role case":      `{"email":"a@example.com","full_name":"A","password":"secret1","role":"Clinician"}`,
		"unknown role":   `{"email":"a@example.com","full_name":"A","password":"secret1","role":"nurse"}`,
		"blank name":     `{"email":"a@example.com","full_name":"   ","password":"secret1","role":"parent"}`,
		"short password": `{"email":"a@example.com","full_name":"A","password":"123","role":"parent"}`,
		"bad email":      `{"email":"nope","full_name":"A","password":"secret1","role":"parent"}`,
		"not json":       `{`,
	}
	for name, body := range bad {
		t.Run(name, func(t *testing.T) {
			rec := e.postJSON("/register", body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	reg := e.register("dr@example.com", auth.RoleClinician)

	rec := e.postJSON("/login", `{"email":"dr@example.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.MsgInvalidCredentials, errorOf(t, rec))

	rec = e.postJSON("/login", `{"email":"nobody@example.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.MsgInvalidCredentials, errorOf(t, rec))

	rec = e.postJSON("/login", `{"email":"DR@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, reg.User.ID, resp.User.ID)
	assert.NotEmpty(t, rec.Result().Cookies())

	require.NoError(t, e.users.SetActive(context.Background(), reg.User.ID, false))
	rec = e.postJSON("/login", `{"email":"dr@example.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, auth.MsgAccountDeactivated, errorOf(t, rec))
}

func TestMeAndLogout(t *testing.T) {
	e := newTestEnv(t)
	reg := e.register("admin@example.com", auth.RoleAdmin)

	rec := e.do(http.MethodGet, "/me", nil, "", reg.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		User         auth.SessionUser `json:"user"`
		DefaultRoute string           `json:"defaultRoute"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "admin@example.com", body.User.Email)
	assert.Empty(t, body.User.Token)
	assert.Equal(t, "/clinician/dashboard", body.DefaultRoute)

	rec = e.do(http.MethodGet, "/me", nil, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for range 2 {
		rec = e.do(http.MethodPost, "/logout", nil, "", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestNavigation(t *testing.T) {
	e := newTestEnv(t)
	parent := e.register("p@example.com", auth.RoleParent)
	clinician := e.register("c@example.com", auth.RoleClinician)
	therapist := e.register("t@example.com", auth.RoleTherapist)

	landing := func(token string) map[string]any {
		rec := e.do(http.MethodGet, "/landing", nil, "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}
	assert.Equal(t, "/login", landing("")["route"])
	assert.Equal(t, false, landing("")["authenticated"])
	assert.Equal(t, "/parent/dashboard", landing(parent.AccessToken)["route"])
	assert.Equal(t, "/clinician/dashboard", landing(clinician.AccessToken)["route"])
	assert.Equal(t, "/login", landing(therapist.AccessToken)["route"])

	rec := e.do(http.MethodGet, "/resolve", nil, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgPathRequired, errorOf(t, rec))

	resolve := func(path, token string) auth.Resolution {
		rec := e.do(http.MethodGet, "/resolve?path="+path, nil, "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		var res auth.Resolution
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		return res
	}
	res := resolve("/clinician", clinician.AccessToken)
	assert.True(t, res.Allowed)
	assert.Equal(t, "/clinician/dashboard", res.Path)

	res = resolve("/clinician/patients", parent.AccessToken)
	assert.False(t, res.Allowed)
	assert.Equal(t, auth.ReasonForbidden, res.Reason)
	assert.Equal(t, "/parent/dashboard", res.Redirect)

	res = resolve("/parent/screening", "")
	assert.Equal(t, auth.ReasonUnauthenticated, res.Reason)
	assert.Equal(t, "/login", res.Redirect)

	rec = e.do(http.MethodGet, "/items", nil, "", therapist.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var items struct {
		Role   auth.Role       `json:"role"`
		Groups []auth.NavGroup `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Equal(t, auth.RoleTherapist, items.Role)
	require.Len(t, items.Groups, 1)
	require.Len(t, items.Groups[0].Items, 1)
	assert.Equal(t, "/clinician/therapy", items.Groups[0].Items[0].Path)
}

func TestClassifyRisk(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		query string
		label risk.Label
	}{
		{"score=0.68", risk.Moderate},
		{"score=0.7", risk.High},
		{"score=0.39&unit=fraction", risk.Low},
		{"score=81&unit=percent", risk.High},
		{"score=40&unit=percent", risk.Moderate},
		{"score=-3", risk.Low},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := e.do(http.MethodGet, "/risk?"+tt.query, nil, "", "")
			require.Equal(t, http.StatusOK, rec.Code)
			var body classifyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.label, body.Label)
		})
	}

	for _, q := range []string{"", "score=abc", "score=NaN", "score=Inf", "score=0.5&unit=permille"} {
		rec := e.do(http.MethodGet, "/risk?"+q, nil, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func multipartVideo(t *testing.T, field string, fields map[string]string) (io.Reader, string) {
	t.Helper()
	return multipartFile(t, field, "clip.mp4", []byte("video-bytes"), fields)
}

func multipartFile(t *testing.T, field, filename string, content []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestScreeningUpload(t *testing.T) {
	e := newTestEnv(t)
	clinician := e.register("c@example.com", auth.RoleClinician)

	body, ct := multipartVideo(t, "video", map[string]string{"consent": "true"})
	rec := e.do(http.MethodPost, "/screening", body, ct, clinician.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		ID             string              `json:"screening_log_id"`
		Saved          bool                `json:"saved_to_database"`
		Risk           float64             `json:"risk"`
		Classification risk.Classification `json:"classification"`
		Indicators     map[string]float64  `json:"indicators"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.True(t, resp.Saved)
	assert.Equal(t, 0.81, resp.Risk)
	assert.Equal(t, risk.High, resp.Classification.Label)
	assert.Equal(t, 0.2, resp.Indicators["eye_contact"])

	rec = e.do(http.MethodGet, "/screening/history", nil, "", clinician.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Count      int             `json:"count"`
		Screenings []screeningItem `json:"screenings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Equal(t, 1, history.Count)
	assert.Equal(t, resp.ID, history.Screenings[0].ID.String())
	assert.Equal(t, risk.Danger, history.Screenings[0].Classification.SeverityTier)

	rec = e.do(http.MethodGet, "/screening/history?limit=0", nil, "", clinician.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScreeningUploadErrors(t *testing.T) {
	e := newTestEnv(t)
	parent := e.register("p@example.com", auth.RoleParent)

	body, ct := multipartVideo(t, "", map[string]string{"consent": "true"})
	rec := e.do(http.MethodPost, "/screening", body, ct, parent.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgVideoRequired, errorOf(t, rec))

	body, ct = multipartFile(t, "file", "notes.txt", []byte("text"), nil)
	rec = e.do(http.MethodPost, "/screening", body, ct, parent.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgUnsupportedFormat, errorOf(t, rec))

	e.analyzer.err = screening.ErrAnalyzerUnavailable
	body, ct = multipartVideo(t, "file", map[string]string{"consent": "on"})
	rec = e.do(http.MethodPost, "/screening", body, ct, parent.AccessToken)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	e.analyzer.err = screening.ErrAnalyzerFailed
	body, ct = multipartVideo(t, "file", map[string]string{"consent": "on"})
	rec = e.do(http.MethodPost, "/screening", body, ct, parent.AccessToken)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestScreeningUploadTooLarge(t *testing.T) {
	e := newTestEnv(t)
	e.screeningCfg.MaxUploadMB = 1
	parent := e.register("p@example.com", auth.RoleParent)

	body, ct := multipartFile(t, "file", "big.mp4", bytes.Repeat([]byte("x"), 3<<19), nil)
	rec := e.do(http.MethodPost, "/screening", body, ct, parent.AccessToken)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, MsgUploadTooLarge, errorOf(t, rec))

	e.screeningCfg.MaxUploadMB = 2
	body, ct = multipartFile(t, "file", "big.mp4", bytes.Repeat([]byte("x"), 3<<19), nil)
	rec = e.do(http.MethodPost, "/screening", body, ct, parent.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code, "limit is read per request")
}

func TestScreeningConsentIsOptionalByDefault(t *testing.T) {
	e := newTestEnv(t)
	parent := e.register("p@example.com", auth.RoleParent)

	body, ct := multipartVideo(t, "file", nil)
	rec := e.do(http.MethodPost, "/screening", body, ct, parent.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	e.screeningCfg.RequireConsent = true
	body, ct = multipartVideo(t, "file", nil)
	rec = e.do(http.MethodPost, "/screening", body, ct, parent.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, MsgConsentRequired, errorOf(t, rec))

	body, ct = multipartVideo(t, "file", map[string]string{"consent": "yes"})
	rec = e.do(http.MethodPost, "/screening", body, ct, parent.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScreeningHistoryListsAllUploads(t *testing.T) {
	e := newTestEnv(t)
	parent := e.register("p@example.com", auth.RoleParent)
	clinician := e.register("c@example.com", auth.RoleClinician)
	therapist := e.register("t@example.com", auth.RoleTherapist)

	for _, tok := range []string{parent.AccessToken, clinician.AccessToken} {
		body, ct := multipartVideo(t, "file", nil)
		rec := e.do(http.MethodPost, "/screening", body, ct, tok)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := e.do(http.MethodGet, "/screening/history", nil, "", parent.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(http.MethodGet, "/screening/history", nil, "", therapist.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Count      int             `json:"count"`
		Screenings []screeningItem `json:"screenings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Equal(t, 2, history.Count)
	uploaders := []uint{history.Screenings[0].UploadedBy, history.Screenings[1].UploadedBy}
	assert.ElementsMatch(t, []uint{parent.User.ID, clinician.User.ID}, uploaders)
	assert.JSONEq(t, `{"eye_contact":0.2}`, string(history.Screenings[0].Indicators))
}

func TestGenerateInterventions(t *testing.T) {
	e := newTestEnv(t)

	rec := e.postJSON("/generate", `{"severity":"severe","risk_score":0.8,"proto_patient_id":42}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var plans []interventions.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	require.Len(t, plans, 3)
	assert.True(t, plans[0].Recommended)
	assert.Equal(t, 91, plans[0].MilestoneProbability)

	saved, err := e.plans.ActivePlans(context.Background(), utils.HashIdentifier("proto:42"))
	require.NoError(t, err)
	require.Len(t, saved, 3)
	accepted := 0
	for _, p := range saved {
		if p.Accepted {
			accepted++
			assert.Equal(t, "A", p.PlanOption)
		}
	}
	assert.Equal(t, 1, accepted)

	rec = e.postJSON("/generate", `{}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plans))
	assert.True(t, plans[1].Recommended)

	rec = e.postJSON("/generate", `{"risk_score":"high"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviewInterventionPlans(t *testing.T) {
	e := newTestEnv(t)
	clinician := e.register("c@example.com", auth.RoleClinician)
	therapist := e.register("t@example.com", auth.RoleTherapist)

	rec := e.postJSON("/generate", `{"severity":"mild","risk_score":0.3,"proto_patient_id":"7"}`, clinician.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	list := func() []planResponse {
		rec := e.do(http.MethodGet, "/interventions/7", nil, "", therapist.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var out []planResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out
	}
	plans := list()
	require.Len(t, plans, 3)
	assert.Equal(t, "A", plans[0].PlanOption)
	recommended := 0
	for _, p := range plans {
		if p.Accepted {
			recommended++
		}
	}
	assert.Equal(t, 1, recommended)

	rec = e.do(http.MethodGet, fmt.Sprintf("/plans/%d", plans[1].ID), nil, "", therapist.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(http.MethodGet, "/plans/999", nil, "", therapist.AccessToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	acceptB := fmt.Sprintf("/plans/%d/accept", plans[1].ID)
	rec = e.do(http.MethodPatch, acceptB, nil, "", therapist.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(http.MethodPatch, acceptB, strings.NewReader(`{"clinician_notes":"family prefers fewer sessions"}`), "application/json", clinician.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var accepted planResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.True(t, accepted.Accepted)
	assert.Equal(t, "family prefers fewer sessions", accepted.ClinicianNotes)
	require.NotNil(t, accepted.ReviewedBy)
	assert.Equal(t, clinician.User.ID, *accepted.ReviewedBy)

	plans = list()
	assert.False(t, plans[0].Accepted)
	assert.True(t, plans[1].Accepted)
	assert.False(t, plans[2].Accepted)
	assert.Equal(t, "Auto-rejected: Plan B was accepted.", plans[0].ClinicianNotes)
	assert.Equal(t, "Auto-rejected: Plan B was accepted.", plans[2].ClinicianNotes)

	rec = e.do(http.MethodPatch, fmt.Sprintf("/plans/%d/reject", plans[1].ID), nil, "", clinician.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	plans = list()
	for _, p := range plans {
		assert.False(t, p.Accepted, p.PlanOption)
	}

	rec = e.do(http.MethodPatch, "/plans/999/reject", nil, "", clinician.AccessToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, MsgPlanNotFound, errorOf(t, rec))
}
