package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/interfaces/http/middleware"
)

var (
	adminActor  = identity.Actor{UserID: "admin-1", OrgID: "org-1", OrgRole: identity.OrgRoleAdmin}
	memberActor = identity.Actor{UserID: "user-m", OrgID: "org-1", OrgRole: identity.OrgRoleMember}
)

// newActorRouter returns a router that authenticates every request as actor
func newActorRouter(actor *identity.Actor) *gin.Engine {
	middleware.SetupValidator()
	r := gin.New()
	r.Use(middleware.RequestID())
	if actor != nil {
		a := *actor
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ActorKey, a)
			c.Set(middleware.UserIDKey, a.UserID)
			c.Next()
		})
	}
	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
