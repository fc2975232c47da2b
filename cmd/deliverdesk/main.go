package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/deliverdesk/deliverdesk/config"
	"github.com/deliverdesk/deliverdesk/internal/adminapi"
	"github.com/deliverdesk/deliverdesk/internal/app"
	"github.com/deliverdesk/deliverdesk/internal/webserver"
)

var (
	confFile = flag.String("c", "/etc/deliverdesk.yml", "config file")
	initDB   = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
)

func main() {
	flag.Parse()

	cfg := config.LoadConfig(*confFile)
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initDB {
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	webserver.Init(application)
	adminapi.Setup(application.CatalogService(), application.DispatchService(), application.Feed())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	application.StartBackgroundJobs(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return webserver.Instance().Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		return webserver.Instance().Echo().Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("server exited", zap.Error(err))
	}
}
