package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vchirila/billchat/internal/chat"
	"github.com/vchirila/billchat/internal/directory"
	"github.com/vchirila/billchat/internal/export"
	"github.com/vchirila/billchat/internal/extract"
	"github.com/vchirila/billchat/internal/store"
)

// Server bundles the API handlers and their dependencies.
type Server struct {
	store     *store.Store
	directory *directory.Directory
	pdf       *extract.PDFText
	extractor *extract.Extractor
	exporter  *export.Service
	driver    *chat.Driver
	logger    *zap.Logger
}

// New wires a Server.
func New(st *store.Store, dir *directory.Directory, pdf *extract.PDFText, extractor *extract.Extractor, exporter *export.Service, driver *chat.Driver, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:     st,
		directory: dir,
		pdf:       pdf,
		extractor: extractor,
		exporter:  exporter,
		driver:    driver,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.logger))
	r.Use(CORS())

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	{
		api.POST("/validate", s.handleValidate)
		api.GET("/quick-actions", s.handleQuickActions)

		users := api.Group("/users/:id")
		{
			users.POST("/bills", s.handleUploadBill)
			users.GET("/bills", s.handleListBills)
			users.DELETE("/bills", s.handleClearBills)
			users.GET("/bills/export", s.handleExportBills)
		}

		api.POST("/chat", s.handleChat)
		api.POST("/chat/reset", s.handleChatReset)
	}
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
