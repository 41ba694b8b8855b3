package main

import (
	"github.com/panjf2000/gnet/v2"

	"github.com/lixenwraith/tracelog"
	"github.com/lixenwraith/tracelog/compat"
)

// Example gnet event handler that traces every connection
type echoServer struct {
	gnet.BuiltinEventEngine
	trace *tracelog.Listener
}

func (es *echoServer) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	es.trace.WriteLine("open " + c.RemoteAddr().String())
	return nil, gnet.None
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	es.trace.WriteValue(buf)
	c.Write(buf)
	return gnet.None
}

func (es *echoServer) OnClose(c gnet.Conn, err error) gnet.Action {
	es.trace.WriteLine("close " + c.RemoteAddr().String())
	return gnet.None
}

func main() {
	listener := tracelog.New("/var/log/gnet/echo-${TimeRoute}.log;" +
		"TimeRouteFilenamePattern=%Y%m%d;MaxFileSize=10mb;LogSizeOverAction=Rename;" +
		"LinePrefix=[${PID}:${TID}] ;CleanupOlderThan=7d")
	defer listener.Close()

	gnetAdapter := compat.NewGnetAdapter(listener, compat.WithGnetMinLevel(compat.LevelInfo))

	err := gnet.Run(
		&echoServer{trace: listener},
		"tcp://127.0.0.1:9000",
		gnet.WithMulticore(true),
		gnet.WithLogger(gnetAdapter),
		gnet.WithReusePort(true),
	)
	if err != nil {
		panic(err)
	}
}
