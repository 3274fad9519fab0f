package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/roffe/rigsync"
)

// Syncer is the part of rigsync.Sync the API drives.
type Syncer interface {
	Status() rigsync.Status
	Step(delta rigsync.Frequency) rigsync.Frequency
	SetOffset(o rigsync.Frequency)
	Watch() (<-chan rigsync.Status, func())
}

type Server struct {
	sync   Syncer
	log    *log.Logger
	router *gin.Engine
}

// OffsetRequest sets the offset absolutely or moves it by a step. Exactly
// one of the fields must be present.
type OffsetRequest struct {
	Offset *int64 `json:"offset"`
	Step   *int64 `json:"step"`
}

const wsWriteTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func New(s Syncer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	srv := &Server{
		sync:   s,
		log:    logger.WithPrefix("api"),
		router: gin.New(),
	}
	srv.router.Use(srv.requestLogger(), gin.Recovery())

	v1 := srv.router.Group("/api/v1")
	{
		v1.GET("/status", srv.handleGetStatus)
		v1.PUT("/offset", srv.handleSetOffset)
		v1.GET("/ws", srv.handleWebSocket)
	}
	return srv
}

func (srv *Server) Handler() http.Handler {
	return srv.router
}

// Run serves on addr until ctx is done.
func (srv *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:    addr,
		Handler: srv.router,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	errChan := make(chan error, 1)
	go func() {
		srv.log.Info("listening", "addr", addr)
		errChan <- hs.ListenAndServe()
	}()
	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errChan; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (srv *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		srv.log.Debug(c.Request.Method+" "+c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start),
		)
	}
}

func (srv *Server) handleGetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, srv.sync.Status())
}

func (srv *Server) handleSetOffset(c *gin.Context) {
	var req OffsetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch {
	case req.Offset != nil && req.Step != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset and step are mutually exclusive"})
		return
	case req.Offset != nil:
		srv.sync.SetOffset(rigsync.Frequency(*req.Offset))
	case req.Step != nil:
		srv.sync.Step(rigsync.Frequency(*req.Step))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset or step is required"})
		return
	}
	c.JSON(http.StatusOK, srv.sync.Status())
}

// handleWebSocket streams a status snapshot on every change.
func (srv *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		srv.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates, cancel := srv.sync.Watch()
	defer cancel()

	// the client never sends anything, reading only detects the close
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(wsWriteTimeout))
			return
		case <-gone:
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(st); err != nil {
				srv.log.Debug("websocket write failed", "err", err)
				return
			}
		}
	}
}
