package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/deltapad/go-deltapad/app"
	"github.com/deltapad/go-deltapad/app/logger"
	"github.com/deltapad/go-deltapad/config"
	"github.com/deltapad/go-deltapad/metric"
	"github.com/deltapad/go-deltapad/service/document"
	"github.com/deltapad/go-deltapad/service/history"
	"github.com/deltapad/go-deltapad/service/stream"
)

var log = logger.NewNamed("main")

var (
	flagConfigFile = flag.String("c", "etc/config.yml", "path to config file")
	flagHelp       = flag.Bool("h", false, "show help and exit")
)

func main() {
	flag.Parse()

	if *flagHelp {
		flag.PrintDefaults()
		return
	}

	ctx := context.Background()
	a := app.New()

	conf, err := config.NewFromFile(*flagConfigFile)
	if err != nil {
		log.Fatal("can't open config file", zap.Error(err))
	}

	a.Register(conf)
	Bootstrap(a)

	if err = a.Start(ctx); err != nil {
		log.Fatal("can't start app", zap.Error(err))
	}
	log.Info("app started")

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-exit
	log.Info("received exit signal, stop app", zap.String("signal", fmt.Sprint(sig)))

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err = a.Close(ctx); err != nil {
		log.Fatal("close error", zap.Error(err))
	}
}

func Bootstrap(a *app.App) {
	a.Register(metric.New()).
		Register(stream.New()).
		Register(document.New()).
		Register(history.New())
}
