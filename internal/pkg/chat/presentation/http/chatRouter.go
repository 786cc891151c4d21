package http

import (
	nethttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	cacheport "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/cache/port"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/config"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/logging"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/infrastructure/realtime"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/application/task"
	repository "github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/persistence/repository/port"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/presentation/controller"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/chat/presentation/middleware"
	"github.com/IlanDeVinci/mercurjs-for-railway-boilerplate/internal/pkg/token"
)

// Deps carries everything the gateway routes need. Cache and Refresher may be
// nil when Redis is not configured.
type Deps struct {
	Cfg       config.Config
	Store     repository.ChatStore
	Tokens    *token.Service
	Cache     cacheport.Cache
	Registry  *realtime.Registry
	Refresher *task.UnreadsRefresher
	Logger    zerolog.Logger
}

// NewRouter builds the gin engine with the full gateway surface: health,
// token issuance, the authenticated /api group, and the websocket endpoint.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinMiddleware(d.Logger))
	r.Use(corsMiddleware(d.Cfg))

	healthCtl := controller.NewHealthController(d.Store)
	tokenCtl := controller.NewTokenController(d.Tokens)
	createRoomCtl := controller.NewCreateRoomController(d.Store)
	listRoomsCtl := controller.NewListRoomsController(d.Store)
	getMsgCtl := controller.NewGetMessageController(d.Store)
	sendMsgCtl := controller.NewSendMessageController(d.Store, d.Registry, d.Refresher)
	markReadCtl := controller.NewMarkReadController(d.Store, d.Registry, d.Refresher)
	unreadsCtl := controller.NewUnreadsController(d.Store, d.Cache)
	socketCtl := controller.NewChatSocketController(d.Store, d.Tokens, d.Registry, d.Refresher, originChecker(d.Cfg), d.Logger)

	r.GET("/health", healthCtl.Handle())

	// Token issuance authenticates against the upstream commerce backend, not
	// against a chat session, so it sits outside the authed group.
	r.POST("/api/token", tokenCtl.Handle())

	api := r.Group("/api", middleware.RequireChatAuth(d.Tokens))
	{
		api.GET("/rooms", listRoomsCtl.Handle())
		api.POST("/rooms", createRoomCtl.Handle())
		api.GET("/messages", getMsgCtl.Handle())
		api.POST("/messages", sendMsgCtl.Handle())
		api.POST("/read", markReadCtl.Handle())
		api.GET("/unreads", unreadsCtl.Handle())
	}

	// The websocket handshake carries its token as a query parameter and is
	// verified inside the controller.
	r.GET("/ws", socketCtl.Handle())

	return r
}

func corsMiddleware(cfg config.Config) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := cfg.AllowedOrigins(); origins != nil {
		cc.AllowOrigins = origins
	} else {
		cc.AllowOriginFunc = func(string) bool { return true }
	}
	return cors.New(cc)
}

// originChecker mirrors the HTTP CORS policy for the websocket handshake.
func originChecker(cfg config.Config) func(*nethttp.Request) bool {
	origins := cfg.AllowedOrigins()
	if origins == nil {
		return func(*nethttp.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(req *nethttp.Request) bool {
		origin := req.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
