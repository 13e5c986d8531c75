package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talkincode/warelay/config"
	"github.com/talkincode/warelay/internal/app"
	"github.com/talkincode/warelay/internal/assistant"
	"github.com/talkincode/warelay/internal/botapi"
	"github.com/talkincode/warelay/internal/connstate"
	"github.com/talkincode/warelay/internal/relay"
	"github.com/talkincode/warelay/internal/sessionstore"
	"github.com/talkincode/warelay/internal/sessionsync"
	"github.com/talkincode/warelay/internal/webserver"
	"github.com/talkincode/warelay/internal/whatsapp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownSnapshotTimeout = 5 * time.Second

func main() {
	cfile := flag.String("c", "warelay.yml", "configuration file")
	showVersion := flag.Bool("v", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("warelay")
		os.Exit(0)
	}

	cfg := config.LoadConfig(*cfile)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := sessionstore.NewStore(application.DB())
	sync := sessionsync.New(store, cfg.SessionDir())

	// Restore must finish before the client is constructed: the client reads
	// its session files synchronously at startup.
	if err := sync.RestoreOnBoot(ctx); err != nil {
		zap.L().Error("session restore failed", zap.Error(err))
		os.Exit(1)
	}

	machine := connstate.NewMachine(sessionstore.NewStatusStore(store), sync)

	svc, err := whatsapp.New(application, machine)
	if err != nil {
		zap.L().Error("whatsapp client init failed", zap.Error(err))
		os.Exit(1)
	}

	rly, err := relay.New(application, svc, assistant.NewClient(cfg.Assistant))
	if err != nil {
		zap.L().Error("relay init failed", zap.Error(err))
		os.Exit(1)
	}
	defer rly.Release()

	webserver.Init(application)
	botapi.Setup(svc)

	application.StartBackgroundJobs(sync)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Start(gctx)
	})
	g.Go(func() error {
		return webserver.Listen()
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownSnapshotTimeout)
		defer cancel()
		return webserver.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("service stopped with error", zap.Error(err))
	}

	finalSnapshot(sync)
}

// finalSnapshot persists the session one last time with a bounded wait; a
// hung remote call must not keep the process from exiting.
func finalSnapshot(sync *sessionsync.Synchronizer) {
	sctx, cancel := context.WithTimeout(context.Background(), shutdownSnapshotTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sync.SnapshotNow(sctx)
	}()
	select {
	case err := <-done:
		if err != nil {
			zap.L().Warn("final session snapshot failed", zap.Error(err))
		} else {
			zap.L().Info("final session snapshot stored")
		}
	case <-sctx.Done():
		zap.L().Warn("final session snapshot timed out")
	}
}
