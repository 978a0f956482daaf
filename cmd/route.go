// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brindlebrook/mavrelay/internal/connstr"
	"github.com/brindlebrook/mavrelay/internal/mavcommon"
	"github.com/brindlebrook/mavrelay/internal/mavlog"
	"github.com/brindlebrook/mavrelay/internal/router"
	"github.com/brindlebrook/mavrelay/internal/serialpool"
	"github.com/brindlebrook/mavrelay/internal/subscription"
	"github.com/brindlebrook/mavrelay/internal/transport"
	"github.com/brindlebrook/mavrelay/internal/wire"
)

var (
	routeLinks        []string
	routeSystemID     uint8
	routeComponentID  uint8
	routeSerialPool   int
	routeAdmin        bool
	routeAdminAddr    string
)

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Run the router against one or more connection links",
	Long: `route starts the router actor, opens one adapter per --link, and blocks
until interrupted. Each --link is a connection string; repeat the flag or
comma-separate multiple links on one value.`,
	RunE: runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)
	routeCmd.Flags().StringArrayVar(&routeLinks, "link", nil, "connection string, e.g. serial:/dev/ttyACM0:57600 (repeatable)")
	routeCmd.Flags().Uint8Var(&routeSystemID, "system-id", 255, "system id the router uses for locally originated messages")
	routeCmd.Flags().Uint8Var(&routeComponentID, "component-id", 0, "component id the router uses for locally originated messages")
	routeCmd.Flags().IntVar(&routeSerialPool, "serial-pool-size", 4, "maximum concurrently open serial handles")
	routeCmd.Flags().BoolVar(&routeAdmin, "admin", false, "serve a read-only debug websocket mirror of every frame delivered to local subscribers")
	routeCmd.Flags().StringVar(&routeAdminAddr, "admin-addr", "127.0.0.1:14551", "listen address for --admin")
	routeCmd.MarkFlagRequired("link")
}

func runRoute(cmd *cobra.Command, args []string) error {
	endpoints, err := connstr.ParseAll(routeLinks)
	if err != nil {
		return fmt.Errorf("route: %w", err)
	}
	if len(endpoints) == 0 {
		return fmt.Errorf("route: at least one --link is required")
	}

	var adminToken string
	if routeAdmin {
		adminToken, err = getAdminToken()
		if err != nil {
			return fmt.Errorf("route: %w", err)
		}
	}

	r := router.New(mavcommon.Dispatcher, routeSystemID, routeComponentID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go r.Run(ctx)

	pool := serialpool.New(routeSerialPool)
	for _, ep := range endpoints {
		startAdapter(ctx, ep, r, pool)
	}

	if routeAdmin {
		mirror := transport.NewWSDebugMirror()
		handle, deliver := r.Subscribe(subscription.Query{AsFrame: true})
		go func() {
			for d := range deliver {
				if frame, ok := d.Frame.(*wire.Frame); ok {
					mirror.Mirror(frame)
				}
			}
		}()
		defer r.Unsubscribe(handle)

		mux := http.NewServeMux()
		mux.Handle("/debug/frames", requireToken(adminToken, mirror))
		srv := &http.Server{Addr: routeAdminAddr, Handler: mux}
		go func() {
			mavlog.L().Info("route: admin mirror listening", zap.String("addr", routeAdminAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				mavlog.L().Error("route: admin mirror stopped", zap.Error(err))
			}
		}()
		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()
	}

	mavlog.L().Info("route: running", zap.Int("links", len(endpoints)))
	<-ctx.Done()
	mavlog.L().Info("route: shutting down")
	return nil
}

func startAdapter(ctx context.Context, ep connstr.Endpoint, r *router.Router, pool *serialpool.Pool) {
	switch ep.Protocol {
	case connstr.Serial:
		a := transport.NewSerialAdapter(ep, pool)
		go a.Run(ctx, r, r, mavcommon.Dispatcher)
	case connstr.TCPOut:
		a := transport.NewTCPOutAdapter(ep)
		go a.Run(ctx, r, r, mavcommon.Dispatcher)
	case connstr.UDPIn:
		a := transport.NewUDPInAdapter(ep)
		go a.Run(ctx, r, r, mavcommon.Dispatcher)
	case connstr.UDPOut:
		a := transport.NewUDPOutAdapter(ep)
		go a.Run(ctx, r, r, mavcommon.Dispatcher)
	}
}

// requireToken gates h behind a static bearer token, checked against the
// Sec-WebSocket-Protocol header since browsers cannot set Authorization on a
// websocket upgrade request.
func requireToken(token string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Sec-WebSocket-Protocol") != token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, req)
	})
}
