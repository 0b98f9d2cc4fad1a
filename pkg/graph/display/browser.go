// Package display delivers payloads to the graph viewer through the local
// web browser.
package display

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/athapong/graph-bridge/pkg/graph/delivery"
	"github.com/athapong/graph-bridge/pkg/graph/visualizer"
	"github.com/gin-gonic/gin"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultLinger is how long a host page stays served after it is opened
const DefaultLinger = 30 * time.Second

// Preference overrides display detection
type Preference string

const (
	PreferenceAuto Preference = "auto"
	PreferenceOn   Preference = "on"
	PreferenceOff  Preference = "off"
)

// ParsePreference reads auto, on or off. Empty means auto.
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PreferenceAuto, nil
	case "on", "true", "1", "yes":
		return PreferenceOn, nil
	case "off", "false", "0", "no":
		return PreferenceOff, nil
	}
	return "", errors.Errorf("invalid display preference %q", s)
}

var _ delivery.Sink = (*Browser)(nil)

// Opener opens a URL in a browsing context
type Opener func(url string) error

func init() {
	gin.SetMode(gin.ReleaseMode)
}

// Browser is a delivery.Sink backed by the system browser. Live injection
// serves a page carrying the injection script from a loopback server and
// opens it; the server is shut down once the linger period has passed.
type Browser struct {
	open       Opener
	logger     *logrus.Logger
	linger     time.Duration
	preference Preference
	listenAddr string
	getenv     func(string) string
	goos       string

	mu      sync.Mutex
	servers map[*http.Server]struct{}
	wg      sync.WaitGroup
}

// Option configures a Browser
type Option func(*Browser)

// WithOpener replaces browser.OpenURL
func WithOpener(open Opener) Option {
	return func(b *Browser) {
		if open != nil {
			b.open = open
		}
	}
}

// WithLogger replaces the sink's logger
func WithLogger(logger *logrus.Logger) Option {
	return func(b *Browser) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithLinger sets how long host pages stay served
func WithLinger(d time.Duration) Option {
	return func(b *Browser) {
		if d > 0 {
			b.linger = d
		}
	}
}

// WithPreference forces display detection on or off
func WithPreference(p Preference) Option {
	return func(b *Browser) {
		b.preference = p
	}
}

// WithListenAddr sets the host page server address
func WithListenAddr(addr string) Option {
	return func(b *Browser) {
		b.listenAddr = addr
	}
}

func withEnvironment(getenv func(string) string, goos string) Option {
	return func(b *Browser) {
		b.getenv = getenv
		b.goos = goos
	}
}

// NewBrowser creates a browser sink
func NewBrowser(opts ...Option) *Browser {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	b := &Browser{
		open:       browser.OpenURL,
		logger:     logger,
		linger:     DefaultLinger,
		preference: PreferenceAuto,
		listenAddr: "127.0.0.1:0",
		getenv:     os.Getenv,
		goos:       runtime.GOOS,
		servers:    make(map[*http.Server]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Interactive reports whether a graphical browser can be expected
func (b *Browser) Interactive() bool {
	switch b.preference {
	case PreferenceOn:
		return true
	case PreferenceOff:
		return false
	}
	switch b.goos {
	case "darwin", "windows":
		return true
	}
	return b.getenv("DISPLAY") != "" || b.getenv("WAYLAND_DISPLAY") != ""
}

// DeliverViaURL opens url
func (b *Browser) DeliverViaURL(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Wrap(b.open(url), "open browser")
}

// DeliverViaLiveInjection serves the injection page and opens it. When the
// page cannot be opened the server is stopped and nothing is delivered.
func (b *Browser) DeliverViaLiveInjection(ctx context.Context, inj *delivery.Injection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var page bytes.Buffer
	err := visualizer.RenderPage(&page, visualizer.Page{
		Script:      inj.Script,
		RecordCount: inj.RecordCount,
		URL:         inj.URL,
	})
	if err != nil {
		return err
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
	})

	ln, err := net.Listen("tcp", b.listenAddr)
	if err != nil {
		return errors.Wrap(err, "listen for host page")
	}
	srv := &http.Server{Handler: engine, ReadHeaderTimeout: 5 * time.Second}
	b.track(srv)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			b.logger.WithError(err).Error("Host page server stopped")
		}
	}()

	hostURL := "http://" + ln.Addr().String() + "/"
	log := b.logger.WithFields(logrus.Fields{"delivery_id": inj.ID, "host_url": hostURL})

	if err := b.open(hostURL); err != nil {
		b.shutdown(srv)
		return errors.Wrap(err, "open host page")
	}
	log.WithField("linger", b.linger.String()).Info("Serving injection page")

	time.AfterFunc(b.linger, func() {
		b.shutdown(srv)
		log.Debug("Injection page server closed")
	})
	return nil
}

func (b *Browser) track(srv *http.Server) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.servers[srv] = struct{}{}
}

func (b *Browser) shutdown(srv *http.Server) {
	b.mu.Lock()
	_, ok := b.servers[srv]
	delete(b.servers, srv)
	b.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		b.logger.WithError(err).Warn("Host page server shutdown")
	}
}

// Wait blocks until every host page server has stopped
func (b *Browser) Wait() {
	b.wg.Wait()
}

// Close stops all host page servers immediately
func (b *Browser) Close() error {
	b.mu.Lock()
	servers := make([]*http.Server, 0, len(b.servers))
	for srv := range b.servers {
		servers = append(servers, srv)
	}
	b.mu.Unlock()

	for _, srv := range servers {
		b.shutdown(srv)
	}
	b.wg.Wait()
	return nil
}
