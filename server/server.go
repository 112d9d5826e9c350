package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"heatsink/config"
	"heatsink/correction"
	"heatsink/model"
)

type Server struct {
	cfg      config.ServerConfig
	upgrader websocket.Upgrader
	// nil 表示修正模型加载失败，predict 不可用，analyze 不受影响
	predictor *correction.Model
	loadErr   error
}

func NewServer(cfg config.ServerConfig, upgrader websocket.Upgrader, predictor *correction.Model) *Server {
	return &Server{
		cfg:       cfg,
		upgrader:  upgrader,
		predictor: predictor,
	}
}

// SetLoadError records why the predictor is missing; predict replies carry it.
func (s *Server) SetLoadError(err error) {
	s.loadErr = err
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.analyze)
	mux.HandleFunc("POST /api/predict", s.predict)
	mux.HandleFunc("GET /api/default", s.defaults)
	mux.HandleFunc("/ws", s.serveWs)
	return mux
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	hub := NewHub(s, conn)
	go hub.handleRequest()
	go hub.handleResponse()
	defer close(hub.done)

	for {
		var msg model.Msg
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("websocket read")
			}
			return
		}
		hub.msg <- msg
	}
}

// Serve blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":    s.cfg.Addr,
			"predict": s.predictor != nil,
		}).Info("服务启动")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("服务关闭")
		return srv.Shutdown(shutdownCtx)
	}
}
