package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/tracelog"
	"github.com/lixenwraith/tracelog/compat"
)

func main() {
	listener, err := tracelog.NewBuilder().
		Filename("/var/log/fasthttp/server.log").
		MaxSizeMB(50).
		SizeOverAction(tracelog.ActionResetSize).
		SavedPercent(20).
		LinePrefix("${AppName} ").
		AppName("fasthttp-demo").
		Build()
	if err != nil {
		panic(err)
	}
	defer listener.Close()

	// Create fasthttp adapter with custom level detection
	fasthttpAdapter := compat.NewFastHTTPAdapter(
		listener,
		compat.WithDefaultLevel(compat.LevelInfo),
		compat.WithLevelDetector(customLevelDetector),
	)

	server := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			listener.WriteLine(fmt.Sprintf("%s %s", ctx.Method(), ctx.Path()))
			ctx.SetContentType("text/plain")
			fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
		},
		Logger: fasthttpAdapter,

		Name:         "MyServer",
		Concurrency:  fasthttp.DefaultConcurrency,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		TCPKeepalive: true,
	}

	fmt.Println("Starting server on :8080")
	if err := server.ListenAndServe(":8080"); err != nil {
		panic(err)
	}
}

func customLevelDetector(msg string) (compat.Level, bool) {
	if strings.Contains(msg, "connection cannot be served") {
		return compat.LevelWarn, true
	}
	if strings.Contains(msg, "error when serving connection") {
		return compat.LevelError, true
	}

	// Use default detection
	return compat.DetectLogLevel(msg)
}
