package services

import (
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/athapong/graph-bridge/pkg/config"
	"github.com/athapong/graph-bridge/pkg/explorer"
	"github.com/athapong/graph-bridge/pkg/graph/display"
	"github.com/athapong/graph-bridge/pkg/table/sources"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var DefaultBridgeConfig = sync.OnceValue(func() config.Bridge {
	bridge, err := config.BridgeFromEnv(os.Getenv)
	if err != nil {
		logrus.WithError(err).Warn("Falling back to defaults for invalid Graph Explorer settings")
	}
	return bridge
})

var DefaultHttpClient = sync.OnceValue(func() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
})

var DefaultLogger = sync.OnceValue(func() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)
	return logger
})

var DefaultBrowser = sync.OnceValue(func() *display.Browser {
	bridge := DefaultBridgeConfig()
	return display.NewBrowser(
		display.WithLogger(DefaultLogger()),
		display.WithPreference(bridge.Display),
		display.WithLinger(bridge.HostLinger),
	)
})

var DefaultExplorer = sync.OnceValue(func() *explorer.Explorer {
	return explorer.New(
		explorer.WithLogger(DefaultLogger()),
		explorer.WithSink(DefaultBrowser()),
	)
})

var DefaultNeo4jSource = sync.OnceValues(func() (*sources.Neo4jSource, error) {
	n := DefaultBridgeConfig().Neo4j
	if !n.Configured() {
		return nil, errors.New("NEO4J_URI is not set, please set it in MCP Config")
	}
	return sources.NewNeo4jSource(n.URI, n.Username, n.Password, n.Database)
})
