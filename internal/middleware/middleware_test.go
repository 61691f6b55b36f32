package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/academie/admission-backend/internal/model"
	"github.com/academie/admission-backend/internal/response"
	"github.com/academie/admission-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(tokens *service.TokenService, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append([]gin.HandlerFunc{RequireJWT(tokens)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		p := GetPrincipal(c)
		c.String(http.StatusOK, p.ID.String())
	})
	r.GET("/x", chain...)
	return r
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) response.ErrCode {
	t.Helper()
	var body response.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	if body.Error == nil {
		t.Fatalf("no error in body %q", rec.Body.String())
	}
	return body.Error.Code
}

func TestRequireJWT(t *testing.T) {
	tokens := service.NewTokenService("mw-secret", time.Hour)
	p := model.Principal{ID: uuid.New(), Role: model.RoleCandidate}
	tok, _ := tokens.Issue(p)
	expired, _ := service.NewTokenService("mw-secret", -time.Minute).Issue(p)

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
		wantErr  response.ErrCode
	}{
		{name: "bearer header", header: "Bearer " + tok, wantCode: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + tok, wantCode: http.StatusOK},
		{name: "query fallback", query: tok, wantCode: http.StatusOK},
		{name: "missing", wantCode: http.StatusUnauthorized, wantErr: response.ErrTokenRequired},
		{name: "garbage", header: "Bearer nope", wantCode: http.StatusUnauthorized, wantErr: response.ErrTokenInvalid},
		{name: "expired", header: "Bearer " + expired, wantCode: http.StatusUnauthorized, wantErr: response.ErrTokenExpired},
	}

	r := newAuthRouter(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/x"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantErr != "" {
				if got := errorCode(t, rec); got != tt.wantErr {
					t.Errorf("code = %s, want %s", got, tt.wantErr)
				}
				return
			}
			if rec.Body.String() != p.ID.String() {
				t.Errorf("principal id = %s, want %s", rec.Body.String(), p.ID)
			}
		})
	}
}

func TestRoleAndPermissionGuards(t *testing.T) {
	tokens := service.NewTokenService("mw-secret", time.Hour)

	tests := []struct {
		name     string
		role     model.Role
		guard    gin.HandlerFunc
		wantCode int
		wantErr  response.ErrCode
	}{
		{"candidate route as candidate", model.RoleCandidate, RequireCandidate(), http.StatusOK, ""},
		{"candidate route as staff", model.RoleInstructor, RequireCandidate(), http.StatusForbidden, response.ErrCandidateAccessOnly},
		{"staff route as candidate", model.RoleCandidate, RequireStaff(), http.StatusForbidden, response.ErrStaffAccessOnly},
		{"staff route as director", model.RoleDirector, RequireStaff(), http.StatusOK, ""},
		{"finalize as instructor", model.RoleInstructor, RequirePermission(model.PermissionCandidatesFinalize), http.StatusForbidden, response.ErrPermissionDenied},
		{"finalize as supervisor", model.RoleSupervisor, RequirePermission(model.PermissionCandidatesFinalize), http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, _ := tokens.Issue(model.Principal{ID: uuid.New(), Role: tt.role})
			r := newAuthRouter(tokens, tt.guard)

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantErr != "" {
				if got := errorCode(t, rec); got != tt.wantErr {
					t.Errorf("code = %s, want %s", got, tt.wantErr)
				}
			}
		})
	}
}

func TestGuardsWithoutPrincipal(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequirePermission(model.PermissionMonitorRead), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestCompression(t *testing.T) {
	big := strings.Repeat("candidat ", 400)

	r := gin.New()
	r.Use(Compression("/api/v1/candidate/beacon"))
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/api/v1/candidate/beacon", func(c *gin.Context) { c.String(http.StatusOK, big) })

	tests := []struct {
		path    string
		accept  string
		wantEnc string
	}{
		{"/big", "gzip, br;q=1.0", "br"},
		{"/big", "gzip", ""},
		{"/small", "br", ""},
		{"/api/v1/candidate/beacon", "br", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		req.Header.Set("Accept-Encoding", tt.accept)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if got := rec.Header().Get("Content-Encoding"); got != tt.wantEnc {
			t.Errorf("%s with %q: Content-Encoding = %q, want %q", tt.path, tt.accept, got, tt.wantEnc)
		}
		if tt.wantEnc == "" && tt.path != "/small" && rec.Body.String() != big {
			t.Errorf("%s: uncompressed body altered", tt.path)
		}
	}
}
