package cli

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"heatsink/correction"
	"heatsink/server"
)

var (
	serveAddr    string
	requireModel bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyze/predict/default API over HTTP and websocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		predictor, loadErr := correction.Load(cfg.Model.Checkpoint)
		if loadErr != nil {
			if requireModel {
				return loadErr
			}
			log.WithError(loadErr).Error("修正模型不可用，仅提供 analyze/default")
			predictor = nil
		}

		upgrader := websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		}
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
		s := server.NewServer(cfg.Server, upgrader, predictor)
		s.SetLoadError(loadErr)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return s.Serve(ctx)
		})
		g.Go(func() error {
			<-ctx.Done()
			log.Info("收到退出信号")
			return nil
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides [server] addr)")
	serveCmd.Flags().BoolVar(&requireModel, "require-model", false, "fail to start when the checkpoint cannot be loaded")
}
