package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jd3nn1s/forzadash"
	"github.com/jd3nn1s/forzadash/carinfo"
	"github.com/jd3nn1s/forzadash/config"
	"github.com/jd3nn1s/forzadash/gateway"
	"github.com/jd3nn1s/forzadash/hub"
	"github.com/jd3nn1s/forzadash/listener"
	log "github.com/sirupsen/logrus"
)

var configFile = flag.String("config", "", "config file, defaults to forzadash.toml next to the binary")
var testMode = flag.Bool("testmode", false, "generate test data")

func main() {
	log.SetLevel(log.InfoLevel)
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatal("unable to load configuration: ", err)
	}
	if err = setupLogging(&cfg.Log); err != nil {
		log.Fatal("unable to set up logging: ", err)
	}

	cars, err := carinfo.Load(cfg.CarInfo.Files...)
	if err != nil {
		// car names are cosmetic, the snapshot falls back to error labels
		log.WithField("err", err).Warn("unable to load car list")
		cars = carinfo.New()
	}

	state := forzadash.NewLiveState()
	static := forzadash.NewStaticExtractor(cars)

	udp, err := listener.Listen(&cfg.Listener, state, static)
	if err != nil {
		log.Fatal("unable to start telemetry listener: ", err)
	}

	encoder, err := hub.EncoderByName(cfg.Broadcast.Encoding)
	if err != nil {
		log.Fatal(err)
	}
	wsHub := hub.New(state, cfg.Broadcast.Interval.Duration, encoder)
	srv := gateway.NewServer(cfg.HTTP.Address, wsHub, state, static, &cfg.WebSocket)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := udp.Start(ctx); err != nil && err != context.Canceled {
			log.Fatal("telemetry listener stopped: ", err)
		}
	}()
	go func() {
		_ = wsHub.Run(ctx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Fatal(err)
		}
	}()
	if *testMode {
		go runTestMode(ctx, udp.Addr().String())
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithField("err", err).Warn("http shutdown")
	}
}

func loadConfig(fileName string) (*config.Config, error) {
	if fileName == "" {
		var err error
		if fileName, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return config.Load(fileName)
}
