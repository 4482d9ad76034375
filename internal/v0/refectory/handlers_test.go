package refectory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campus/internal/auth"
	"campus/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T, fx *fixture) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mw := auth.NewMiddleware(auth.NewTokenStore(fx.users), zap.NewNop())
	RegisterRoutes(r.Group("/api/v0"), NewHandler(fx.engine), mw)
	return &apiClient{t: t, router: r}
}

func (a *apiClient) do(method, path, token, body string) (int, common.APIResponse) {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var resp common.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		a.t.Fatalf("%s %s: decode body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, resp
}

func (fx *fixture) token(t *testing.T, u *auth.User) string {
	t.Helper()
	tok, err := auth.NewTokenStore(fx.users).CreateToken(context.Background(), u.ID, "test", nil)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	return tok.RawToken
}

func TestHandlersFlow(t *testing.T) {
	fx := newFixture(t, time.Date(2025, 3, 10, 10, 0, 0, 0, campus), Options{})
	api := newAPI(t, fx)
	manager := fx.token(t, fx.user(t, "Manager", "manager@campus.test", auth.UserTypeEmployeeTae, auth.RoleRefectoryManager))
	student := fx.token(t, fx.user(t, "Ana", "ana@campus.test", auth.UserTypeStudent))

	createBody := `{"vigencyDates":[{"vigencyDate":"2025-03-11"},{"vigencyDate":"2025-03-14"}],"menuUrl":"https://menu.test/w11"}`
	if code, _ := api.do(http.MethodPost, "/api/v0/refectory", student, createBody); code != http.StatusForbidden {
		t.Errorf("student create: status = %d, want 403", code)
	}
	code, resp := api.do(http.MethodPost, "/api/v0/refectory", manager, createBody)
	if code != http.StatusCreated {
		t.Fatalf("create: status = %d errors = %v", code, resp.Errors)
	}
	if code, resp := api.do(http.MethodPost, "/api/v0/refectory", manager, createBody); code != http.StatusConflict {
		t.Errorf("duplicate create: status = %d errors = %v", code, resp.Errors)
	}

	code, resp = api.do(http.MethodGet, "/api/v0/refectory/current", student, "")
	if code != http.StatusOK {
		t.Fatalf("current: status = %d", code)
	}
	current := resp.Data.(map[string]any)
	id := current["id"].(string)
	if current["status"] != string(StatusOpenToAnswer) || current["hasAnswered"] != false {
		t.Errorf("current = %v", current)
	}

	answer := `{"breakfast":1,"lunch":0,"afternoonSnack":1,"dinner":0,"nightSnack":0}`
	if code, resp := api.do(http.MethodPost, "/api/v0/refectory/"+id+"/answers", student, answer); code != http.StatusCreated {
		t.Fatalf("answer: status = %d errors = %v", code, resp.Errors)
	}
	if code, _ := api.do(http.MethodPost, "/api/v0/refectory/"+id+"/answers", student, answer); code != http.StatusConflict {
		t.Errorf("second answer: status = %d, want 409", code)
	}
	if code, _ := api.do(http.MethodPost, "/api/v0/refectory/"+id+"/answers", student, `{"breakfast":3}`); code != http.StatusBadRequest {
		t.Errorf("bad flag: status = %d, want 400", code)
	}

	_, resp = api.do(http.MethodGet, "/api/v0/refectory/current", student, "")
	if resp.Data.(map[string]any)["hasAnswered"] != true {
		t.Errorf("hasAnswered not set: %v", resp.Data)
	}

	if code, _ := api.do(http.MethodGet, "/api/v0/refectory/current/answers", student, ""); code != http.StatusForbidden {
		t.Errorf("student report: status = %d, want 403", code)
	}
	code, resp = api.do(http.MethodGet, "/api/v0/refectory/current/answers", manager, "")
	if code != http.StatusOK {
		t.Fatalf("report: status = %d", code)
	}
	reports := resp.Data.([]any)
	if len(reports) != 1 {
		t.Fatalf("reports = %v", reports)
	}

	code, resp = api.do(http.MethodGet, "/api/v0/refectory?perPage=5", student, "")
	if code != http.StatusOK {
		t.Fatalf("list: status = %d", code)
	}
	page := resp.Data.(map[string]any)
	if page["totalItems"] != float64(2) || page["perPage"] != float64(5) {
		t.Errorf("page = %v", page)
	}
	if code, _ := api.do(http.MethodGet, "/api/v0/refectory?status=created", student, ""); code != http.StatusBadRequest {
		t.Errorf("unknown status: status = %d, want 400", code)
	}
	if code, _ := api.do(http.MethodGet, "/api/v0/refectory?vigencyDate=tomorrow", student, ""); code != http.StatusBadRequest {
		t.Errorf("bad date filter: status = %d, want 400", code)
	}
}

func TestHandlersUpdateAndDelete(t *testing.T) {
	fx := newFixture(t, time.Date(2025, 3, 10, 10, 0, 0, 0, campus), Options{})
	api := newAPI(t, fx)
	manager := fx.token(t, fx.user(t, "Manager", "manager@campus.test", auth.UserTypeEmployeeTae, auth.RoleRefectoryManager))
	forms := fx.create(t, day(2025, 3, 11), day(2025, 3, 14))

	code, resp := api.do(http.MethodPatch, "/api/v0/refectory/"+forms[1].ID, manager, `{"menu":{"lunch":"Feijoada"}}`)
	if code != http.StatusOK {
		t.Fatalf("update: status = %d errors = %v", code, resp.Errors)
	}
	if code, _ := api.do(http.MethodPatch, "/api/v0/refectory/"+forms[1].ID, manager, `{"vigencyDate":"2025-03-11"}`); code != http.StatusConflict {
		t.Errorf("colliding update: status = %d, want 409", code)
	}
	if code, _ := api.do(http.MethodPatch, "/api/v0/refectory/"+forms[1].ID, manager, `{"vigencyDate":null}`); code != http.StatusBadRequest {
		t.Errorf("cleared date: status = %d, want 400", code)
	}
	if code, _ := api.do(http.MethodPatch, "/api/v0/refectory/nope", manager, `{}`); code != http.StatusNotFound {
		t.Errorf("missing form: status = %d, want 404", code)
	}

	fx.clock.Set(time.Date(2025, 3, 11, 12, 0, 0, 0, campus))
	if err := fx.engine.RunServiceOpening(context.Background()); err != nil {
		t.Fatalf("RunServiceOpening: %v", err)
	}
	if code, _ := api.do(http.MethodPatch, "/api/v0/refectory/"+forms[0].ID, manager, `{"menuUrl":"https://menu.test/x"}`); code != http.StatusForbidden {
		t.Errorf("open form update: status = %d, want 403", code)
	}

	code, resp = api.do(http.MethodPut, "/api/v0/refectory/menu-url", manager, `{"menuUrl":"https://menu.test/all"}`)
	if code != http.StatusOK {
		t.Fatalf("menu url: status = %d errors = %v", code, resp.Errors)
	}
	if code, _ := api.do(http.MethodPut, "/api/v0/refectory/menu-url", manager, `{"menuUrl":"not a url"}`); code != http.StatusBadRequest {
		t.Errorf("invalid url: status = %d, want 400", code)
	}

	if code, _ := api.do(http.MethodDelete, "/api/v0/refectory/"+forms[1].ID, manager, ""); code != http.StatusOK {
		t.Errorf("delete: status = %d", code)
	}
	if code, _ := api.do(http.MethodGet, "/api/v0/refectory/"+forms[1].ID, manager, ""); code != http.StatusNotFound {
		t.Errorf("get deleted: status = %d, want 404", code)
	}
}

func TestCurrentWithoutForm(t *testing.T) {
	fx := newFixture(t, time.Date(2025, 3, 10, 10, 0, 0, 0, campus), Options{})
	api := newAPI(t, fx)
	student := fx.token(t, fx.user(t, "Ana", "ana@campus.test", auth.UserTypeStudent))

	code, resp := api.do(http.MethodGet, "/api/v0/refectory/current", student, "")
	if code != http.StatusOK || resp.Data != nil {
		t.Errorf("current = %d %v, want 200 with null data", code, resp.Data)
	}
	if code, _ := api.do(http.MethodGet, "/api/v0/refectory/current", "", ""); code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", code)
	}
}
