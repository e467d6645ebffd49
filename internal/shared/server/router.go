package server

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Mubi-byte/thinktank/internal/chat"
	"github.com/Mubi-byte/thinktank/internal/documents"
	"github.com/Mubi-byte/thinktank/internal/shared/config"
	"github.com/Mubi-byte/thinktank/internal/shared/metrics"
	"github.com/Mubi-byte/thinktank/internal/shared/server/middleware"
	"github.com/Mubi-byte/thinktank/internal/shared/server/respond"
	"github.com/Mubi-byte/thinktank/internal/users"
)

// RouterDeps carries the wired handlers routed by NewRouter.
type RouterDeps struct {
	Config    config.Config
	Users     *users.Handler
	Documents *documents.Handler
	Chat      *chat.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/", liveness)
	r.GET("/healthz", liveness)
	r.GET("/metrics", metrics.Handler())

	root := r.Group("")
	deps.Documents.RegisterRoutes(root)
	deps.Chat.RegisterRoutes(root)

	// Credential endpoints take a tighter rate limit than the rest of the
	// surface to slow down online guessing.
	auth := r.Group("")
	auth.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"AUTH": {Rate: 1, Burst: 10},
		},
		DefaultGroup: "AUTH",
	}))
	deps.Users.RegisterRoutes(auth)

	if !deps.Config.IsProduction() {
		r.GET("/debug/env", debugEnv(deps.Config))
	}

	return r
}

func liveness(c *gin.Context) {
	respond.OK(c, gin.H{"status": "ok"})
}

// debugEnv reports which required variables are set, never their values.
func debugEnv(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		present := make(map[string]bool)
		for _, name := range cfg.RequiredVars() {
			present[name] = strings.TrimSpace(os.Getenv(name)) != ""
		}
		respond.OK(c, gin.H{"env": cfg.Env, "required": present})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
