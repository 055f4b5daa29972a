package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"portfolio/internal/middleware"
	"portfolio/internal/models"
	"portfolio/internal/ratelimit"
	"portfolio/internal/service"
)

type Services struct {
	Projects       *service.RecordService[models.Project, *models.Project]
	Blog           *service.RecordService[models.BlogPost, *models.BlogPost]
	Certifications *service.RecordService[models.Certification, *models.Certification]
	Messages       *service.MessageService
	Skills         *service.RecordService[models.Skill, *models.Skill]
	Media          *service.MediaService
	Auth           *service.AuthService
}

type Deps struct {
	Log         zerolog.Logger
	Environment string
	JWTSecret   string
	Services    Services
	Sessions    middleware.SessionReader
	Operators   middleware.OperatorReader

	// Optional collaborators. A nil limiter disables limiting.
	ContactLimiter ratelimit.Allower
	LoginLimiter   ratelimit.Allower
	Tasks          Enqueuer
	Checks         map[string]Check
}

type HandlerSet struct {
	log         zerolog.Logger
	environment string
	jwtSecret   string
	svc         Services
	sessions    middleware.SessionReader
	operators   middleware.OperatorReader
	contact     ratelimit.Allower
	login       ratelimit.Allower
	tasks       Enqueuer
	checks      map[string]Check
}

func NewHandlerSet(deps Deps) HandlerSet {
	return HandlerSet{
		log:         deps.Log,
		environment: deps.Environment,
		jwtSecret:   deps.JWTSecret,
		svc:         deps.Services,
		sessions:    deps.Sessions,
		operators:   deps.Operators,
		contact:     deps.ContactLimiter,
		login:       deps.LoginLimiter,
		tasks:       deps.Tasks,
		checks:      deps.Checks,
	}
}

// Register mounts the whole API under router, which is normally /api.
func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	authed := router.Group("", middleware.Auth(h.jwtSecret, h.sessions, h.operators))
	admin := authed.Group("", middleware.RequireRoles(models.OperatorRoleAdmin))

	auth := router.Group("/auth")
	auth.POST("/login", ratelimit.Middleware(h.login, h.log), h.Login)
	auth.POST("/refresh", h.Refresh)
	authed.POST("/auth/logout", h.Logout)
	authed.GET("/auth/me", h.Me)

	registerCollection(router, admin, "/projects", newCollection(h.svc.Projects, h.log), publicRead|slugRoutes)
	registerCollection(router, admin, "/blog", newCollection(h.svc.Blog, h.log), publicRead|slugRoutes)
	registerCollection(router, admin, "/certifications", newCollection(h.svc.Certifications, h.log), publicRead)
	registerCollection(router, admin, "/skills", newCollection(h.svc.Skills, h.log), publicRead)
	registerCollection(router, admin, "/messages", newCollection(h.svc.Messages, h.log), 0)
	admin.PATCH("/messages", h.SetMessageStatus)

	router.POST("/contact", ratelimit.Middleware(h.contact, h.log), h.Contact)

	admin.GET("/upload", h.ListAssets)
	admin.POST("/upload", h.UploadAsset)
	admin.DELETE("/upload", h.DeleteAsset)

	admin.GET("/admin/summary", h.Summary)
	admin.POST("/admin/maintenance/reconcile", h.Reconcile)
}
