package main

import (
	"context"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/salvo/config"
	"github.com/zucenko/salvo/server"
)

type Server struct {
	router     *way.Router
	GameServer *server.GameServer
}

func main() {
	configDir := flag.String("config", ".", "directory holding "+config.FileName)
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		log.Fatalln(err)
	}
	log.SetLevel(config.GetLogLevel())

	setup, err := config.GetGameSetup()
	if err != nil {
		log.Fatalf("game setup: %v", err)
	}
	seed := config.GetSeed()
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sc := config.GetServerConfig()

	gs, err := server.NewGameServer(setup, rand.New(rand.NewSource(seed)), sc)
	if err != nil {
		log.Fatalf("game server: %v", err)
	}
	s := Server{GameServer: gs}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go s.GameServer.Table.Loop(ctx)
	s.routes()

	httpServer := &http.Server{Addr: ":" + sc.Port, Handler: s.router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warnf("shutdown: %v", err)
		}
	}()

	log.WithFields(log.Fields{
		"port":   sc.Port,
		"field":  setup.Field,
		"mirror": setup.MirrorOwnShots,
	}).Info("salvo table listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalln(err)
	}
}
