package compat

import (
	"fmt"

	"github.com/lixenwraith/tracelog"
)

// Builder creates gnet and fasthttp adapters that share one trace listener.
// It can use an existing *tracelog.Listener or create one from an
// initialization string.
type Builder struct {
	listener *tracelog.Listener
	init     string
	opts     []tracelog.Option
	err      error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithListener specifies an existing listener to use for the adapters.
// If this is set WithInit is ignored.
func (b *Builder) WithListener(l *tracelog.Listener) *Builder {
	if l == nil {
		b.err = fmt.Errorf("tracelog/compat: provided listener cannot be nil")
		return b
	}
	b.listener = l
	return b
}

// WithInit provides an initialization string for a new listener. It is used
// only if no listener was provided via WithListener.
func (b *Builder) WithInit(init string, opts ...tracelog.Option) *Builder {
	b.init = init
	b.opts = opts
	return b
}

// getListener resolves the listener to be used, creating one if necessary
func (b *Builder) getListener() (*tracelog.Listener, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.listener != nil {
		return b.listener, nil
	}

	s := tracelog.ParseSettings(b.init)
	if err := s.Validate(); err != nil {
		return nil, err
	}

	// Cache the new listener for subsequent builds with this builder
	b.listener = tracelog.NewWithSettings(s, b.opts...)
	return b.listener, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.getListener()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.getListener()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// Listener returns the underlying listener, creating it if needed
func (b *Builder) Listener() (*tracelog.Listener, error) {
	return b.getListener()
}

// --- Example Usage ---
//
//	listener := tracelog.New("/var/log/app/net.log;MaxFileSize=10mb;LogSizeOverAction=Rename")
//	defer listener.Close()
//
//	builder := compat.NewBuilder().WithListener(listener)
//
//	gnetLogger, err := builder.BuildGnet()
//	if err != nil { /* handle error */ }
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	fasthttpLogger, err := builder.BuildFastHTTP()
//	if err != nil { /* handle error */ }
//	server := &fasthttp.Server{Handler: handler, Logger: fasthttpLogger}
//	go server.ListenAndServe(":8080")
