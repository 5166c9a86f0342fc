package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"herosync/config"
	"herosync/netctl"
	"herosync/server"
	"herosync/transport"
)

// herosync 入口：无主机参数时作为主机等待对端，否则连接指定主机
func main() {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [host]\n", os.Args[0])
		fs.PrintDefaults()
	}
	config.RegisterFlags(fs)
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, level, err := server.NewLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer server.SyncLogger(log)
	id := uuid.NewString()
	log = log.With("session", id)

	// 优雅退出（Ctrl+C）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, id, log, level); err != nil {
		log.Errorf("session ended: %v", err)
		server.SyncLogger(log)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, id string, log *zap.SugaredLogger, level zap.AtomicLevel) (err error) {
	tr, err := transport.Listen(cfg.ListenAddr())
	if err != nil {
		return err
	}

	opts := netctl.Options{
		HeartbeatTicks:   cfg.Heartbeat,
		ProbeEvery:       cfg.Probe,
		HandshakeTimeout: cfg.Handshake,
		Logger:           log.Named("net"),
	}
	var nc *netctl.Controller
	if cfg.IsClient() {
		log.Infof("host: %s", cfg.HostAddr())
		addr, rerr := net.ResolveUDPAddr("udp", cfg.HostAddr())
		if rerr != nil {
			_ = tr.Close()
			return fmt.Errorf("%w: resolve %s: %v", transport.ErrTransport, cfg.HostAddr(), rerr)
		}
		nc, err = netctl.Join(ctx, tr, addr, opts)
	} else {
		nc, err = netctl.Host(ctx, tr, opts)
	}
	if err != nil {
		_ = tr.Close()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("handshake: %w", err)
	}
	defer func() {
		err = multierr.Append(err, nc.Close())
	}()

	session, err := server.NewSession(nc, server.Options{
		ID:             id,
		TickInterval:   cfg.TickInterval(),
		SpectatorEvery: cfg.Spectate,
		Logger:         log.Named("server"),
	})
	if err != nil {
		return err
	}
	defer session.Close()

	if cfg.AdminAddr != "" {
		srv := &http.Server{Addr: cfg.AdminAddr, Handler: session.Routes(level)}
		go func() {
			log.Infof("admin listening on %s; spectate at ws://localhost%s/ws", cfg.AdminAddr, cfg.AdminAddr)
			if lerr := srv.ListenAndServe(); lerr != nil && lerr != http.ErrServerClosed {
				log.Errorf("admin listen: %v", lerr)
			}
		}()
		defer func() {
			shCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			err = multierr.Append(err, srv.Shutdown(shCtx))
		}()
	}

	return session.Run(ctx)
}
