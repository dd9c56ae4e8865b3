package router

import (
	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/interfaces/http/handler"
	"github.com/taskflow/backend/internal/interfaces/http/middleware"
)

// Handlers bundles every HTTP handler mounted by RegisterRoutes
type Handlers struct {
	Tasks         *handler.TaskHandler
	Activities    *handler.ActivityHandler
	Projects      *handler.ProjectHandler
	Notifications *handler.NotificationHandler
	Users         *handler.UserHandler
	AdminActions  *handler.AdminActionHandler
	Webhooks      *handler.WebhookHandler
	Sweep         *handler.SweepHandler
	Sockets       *handler.SocketHandler
	Health        *handler.HealthHandler
}

// Guards are the authentication middlewares for the two kinds of clients.
// Session authenticates API calls; Socket additionally accepts ?token= on
// the websocket upgrade.
type Guards struct {
	Session gin.HandlerFunc
	Socket  gin.HandlerFunc
}

// RegisterRoutes mounts the full route table on engine
func RegisterRoutes(engine *gin.Engine, h Handlers, guards Guards) {
	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}
	if h.Sockets != nil {
		engine.GET("/ws", guards.Socket, middleware.TracingAttributeInjector(), h.Sockets.Connect)
	}

	// Provider webhooks and the external sweep trigger authenticate
	// themselves (signature and shared token).
	public := NewRouter(engine)
	if h.Webhooks != nil {
		public.Register(NewDomainGroup("webhooks", "/webhooks").
			POST("/identity", h.Webhooks.HandleIdentityEvent))
	}
	if h.Sweep != nil {
		public.Register(NewDomainGroup("internal", "/internal").
			POST("/sweep", h.Sweep.Run))
	}
	public.Setup()

	api := NewRouter(engine, WithMiddleware(guards.Session, middleware.TracingAttributeInjector()))
	api.Register(domainGroups(h)...)
	api.Setup()
}

func domainGroups(h Handlers) []RouteRegistrar {
	admin := middleware.RequireAdmin()
	groups := make([]RouteRegistrar, 0, 6)

	if h.Tasks != nil {
		tasks := NewDomainGroup("tasks", "/tasks").
			POST("", admin, h.Tasks.Create).
			GET("/project/:projectId", h.Tasks.ListByProject).
			GET("/user/:userId", h.Tasks.ListByAssignee).
			GET("/:id", h.Tasks.Get).
			PUT("/:id", h.Tasks.Update).
			PUT("/:id/approve", admin, h.Tasks.Approve).
			PUT("/:id/disapprove", admin, h.Tasks.Disapprove).
			DELETE("/:id", admin, h.Tasks.Delete)
		if h.Activities != nil {
			tasks.GET("/:id/activities", h.Activities.List).
				POST("/:id/comments", h.Activities.AddComment).
				POST("/:id/uploads", h.Activities.RecordUpload)
		}
		groups = append(groups, tasks)
	}
	if h.Activities != nil {
		groups = append(groups, NewDomainGroup("activities", "/activities").
			DELETE("/:id", h.Activities.Delete))
	}

	if h.Projects != nil {
		groups = append(groups, NewDomainGroup("projects", "/projects").
			GET("", h.Projects.List).
			POST("", admin, h.Projects.Create).
			GET("/:id", h.Projects.Get).
			PUT("/:id/settings", admin, h.Projects.UpdateSettings).
			DELETE("/:id", admin, h.Projects.Delete).
			GET("/:id/members", h.Projects.ListMembers).
			PUT("/:id/members", h.Projects.AddMember).
			DELETE("/:id/members/:userId", admin, h.Projects.RemoveMember).
			GET("/:id/events", h.Projects.ListMeetings).
			POST("/:id/events", h.Projects.CreateMeeting))
	}

	if h.Notifications != nil {
		groups = append(groups, NewDomainGroup("notifications", "/notifications").
			GET("", h.Notifications.List).
			PUT("/mark-read", h.Notifications.MarkAllRead).
			POST("/invite", h.Notifications.Invite).
			DELETE("/:id", h.Notifications.Dismiss).
			POST("/:id/respond", h.Notifications.Respond))
	}

	if h.Users != nil {
		groups = append(groups, NewDomainGroup("users", "/users").
			GET("", h.Users.List).
			GET("/me", h.Users.Me).
			PUT("/:id/role", admin, h.Users.UpdateRole))
	}

	if h.AdminActions != nil {
		actions := NewDomainGroup("admin-actions", "/admin-actions").Use(admin).
			GET("/pending", h.AdminActions.ListPending).
			POST("/promote", h.AdminActions.Promote).
			POST("/reject/:requestId", h.AdminActions.Reject)
		actions.Group("demote", "/demote").
			POST("/request", h.AdminActions.RequestDemotion).
			POST("/approve/:requestId", h.AdminActions.ApproveDemotion)
		actions.Group("delete-org", "/delete-org").
			POST("/request", h.AdminActions.RequestOrgDeletion).
			POST("/approve/:requestId", h.AdminActions.ApproveOrgDeletion)
		groups = append(groups, actions)
	}

	return groups
}
