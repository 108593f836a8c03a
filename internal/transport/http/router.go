package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quiztaker/internal/app"
	"quiztaker/internal/domain"
	"quiztaker/internal/identity"
)

// APIHandler serves the REST catalog endpoints.
type APIHandler struct {
	catalog  *app.Catalog
	identity *identity.Verifier
}

func NewAPIHandler(catalog *app.Catalog, verifier *identity.Verifier) *APIHandler {
	return &APIHandler{catalog: catalog, identity: verifier}
}

// NewRouter mounts health, metrics, profiling, the websocket endpoint and the REST API.
func NewRouter(ws *WSHandler, api *APIHandler) *gin.Engine {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery(), requestLog())

	e.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	e.GET("/ws", gin.WrapF(ws.ServeWS))

	g := e.Group("/api")
	g.GET("/quizzes", api.listQuizzes)
	g.GET("/me/dashboard", api.dashboard)
	return e
}

func (h *APIHandler) listQuizzes(c *gin.Context) {
	quizzes, err := h.catalog.ListQuizzes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

func (h *APIHandler) dashboard(c *gin.Context) {
	user, err := h.identity.CurrentUser(identity.TokenFromRequest(c.Request))
	if err != nil {
		h.fail(c, err)
		return
	}
	dash, err := h.catalog.Dashboard(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *APIHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrUnauthenticated) {
		status = http.StatusUnauthorized
	} else {
		slog.ErrorContext(c.Request.Context(), "api: request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errorPayload{Code: errorCode(err), Message: err.Error()}})
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.DebugContext(c.Request.Context(), "http: request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
