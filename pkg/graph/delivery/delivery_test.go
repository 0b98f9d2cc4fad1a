package delivery

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/athapong/graph-bridge/pkg/graph"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu          sync.Mutex
	interactive bool
	urlErr      error
	injectErr   error
	urls        []string
	injections  []*Injection
}

func (s *fakeSink) DeliverViaURL(_ context.Context, u string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, u)
	return s.urlErr
}

func (s *fakeSink) DeliverViaLiveInjection(_ context.Context, inj *Injection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.injections = append(s.injections, inj)
	return s.injectErr
}

func (s *fakeSink) Interactive() bool { return s.interactive }

const payload = `[{"Source":"Alice","Target":"Bob","RelationshipType":"friend"}]`

func newTestDispatcher(sink Sink) (*Dispatcher, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return NewDispatcher(sink, WithLogger(logger)), hook
}

func TestBuildURL(t *testing.T) {
	u := BuildURL("http://localhost:3000/", `[{"a":"x y+z&w"}]`)

	assert.True(t, strings.HasPrefix(u, "http://localhost:3000/?data="))
	assert.NotContains(t, u, " ")
	assert.Contains(t, u, "x%20y%2Bz%26w")

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, `[{"a":"x y+z&w"}]`, parsed.Query().Get("data"))
}

func TestBuildURL_TrimsOneTrailingSlash(t *testing.T) {
	assert.Equal(t, "http://x/?data=%5B%5D", BuildURL("http://x", "[]"))
	assert.Equal(t, "http://x/?data=%5B%5D", BuildURL("http://x/", "[]"))
	assert.Equal(t, "http://x//?data=%5B%5D", BuildURL("http://x//", "[]"))
	assert.Equal(t, "http://x/?data=%22a%2Fb%22", BuildURL("http://x", `"a/b"`))
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeURL, "url": ModeURL, "js": ModeLiveInjection, "LIVE": ModeLiveInjection, "live-injection": ModeLiveInjection} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("carrier-pigeon")
	assert.True(t, errors.Is(err, ErrUnsupportedMode))
}

func TestDispatch_URLMode(t *testing.T) {
	sink := &fakeSink{}
	d, _ := newTestDispatcher(sink)

	res, err := d.Dispatch(context.Background(), Request{Payload: payload, RecordCount: 1, AppURL: "http://localhost:3000", Mode: ModeURL})
	require.NoError(t, err)

	assert.Equal(t, ModeURL, res.Mode)
	assert.Equal(t, BuildURL("http://localhost:3000", payload), res.URL)
	assert.Equal(t, []string{res.URL}, sink.urls)
	assert.Empty(t, sink.injections)
	assert.Empty(t, res.Advisories)
	assert.NotEmpty(t, res.DeliveryID)
}

func TestDispatch_LongURLAdvisory(t *testing.T) {
	sink := &fakeSink{}
	d, hook := newTestDispatcher(sink)

	big := "[" + strings.Repeat(`{"Source":"a"},`, 200) + `{"Source":"a"}]`
	res, err := d.Dispatch(context.Background(), Request{Payload: big, AppURL: "http://localhost:3000"})
	require.NoError(t, err)

	require.Len(t, res.Advisories, 1)
	assert.Equal(t, graph.AdvisoryURLLength, res.Advisories[0].Kind)
	assert.Contains(t, res.Advisories[0].Message, "live-injection")
	assert.Len(t, sink.urls, 1, "delivery proceeds despite the advisory")

	var warned bool
	for _, e := range hook.AllEntries() {
		warned = warned || e.Level == logrus.WarnLevel
	}
	assert.True(t, warned)
}

func TestDispatch_LiveInjection(t *testing.T) {
	sink := &fakeSink{interactive: true}
	d, _ := newTestDispatcher(sink)

	res, err := d.Dispatch(context.Background(), Request{Payload: payload, RecordCount: 1, AppURL: "http://localhost:3000", Mode: ModeLiveInjection, Display: true})
	require.NoError(t, err)

	assert.Equal(t, ModeLiveInjection, res.Mode)
	assert.Equal(t, BuildURL("http://localhost:3000", payload), res.URL, "URL is computed for live mode too")
	assert.Contains(t, res.Script, "loadGraphData")
	assert.Empty(t, sink.urls)
	require.Len(t, sink.injections, 1)

	inj := sink.injections[0]
	assert.Equal(t, res.DeliveryID, inj.ID)
	assert.Equal(t, payload, inj.Payload)
	assert.Equal(t, res.Script, inj.Script)
	assert.Equal(t, res.URL, inj.URL)
}

func TestDispatch_LiveFallsBackWithoutDisplay(t *testing.T) {
	sink := &fakeSink{interactive: false}
	d, _ := newTestDispatcher(sink)

	res, err := d.Dispatch(context.Background(), Request{Payload: payload, AppURL: "http://localhost:3000", Mode: "js", Display: true})
	require.NoError(t, err)

	assert.Equal(t, ModeURL, res.Mode)
	assert.Empty(t, res.Script)
	require.Len(t, res.Advisories, 1)
	assert.Equal(t, graph.AdvisoryDisplayFallback, res.Advisories[0].Kind)
	assert.Equal(t, []string{res.URL}, sink.urls)
	assert.Empty(t, sink.injections)
}

func TestDispatch_LiveWithDisplayDisabledUsesURL(t *testing.T) {
	sink := &fakeSink{interactive: true}
	d, _ := newTestDispatcher(sink)

	res, err := d.Dispatch(context.Background(), Request{Payload: payload, AppURL: "http://localhost:3000", Mode: ModeLiveInjection})
	require.NoError(t, err)

	assert.Equal(t, ModeURL, res.Mode)
	assert.Empty(t, res.Advisories)
	assert.Len(t, sink.urls, 1)
}

func TestDispatch_SinkFailuresAreSwallowed(t *testing.T) {
	sink := &fakeSink{interactive: true, urlErr: errors.New("no browser"), injectErr: errors.New("window closed")}
	d, hook := newTestDispatcher(sink)

	res, err := d.Dispatch(context.Background(), Request{Payload: payload, AppURL: "http://localhost:3000"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.URL)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	res, err = d.Dispatch(context.Background(), Request{Payload: payload, AppURL: "http://localhost:3000", Mode: ModeLiveInjection, Display: true})
	require.NoError(t, err)
	assert.Equal(t, ModeLiveInjection, res.Mode)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestDispatch_Errors(t *testing.T) {
	d, _ := newTestDispatcher(nil)

	_, err := d.Dispatch(context.Background(), Request{Payload: payload, AppURL: "http://localhost:3000", Mode: "fax"})
	assert.True(t, errors.Is(err, ErrUnsupportedMode))

	_, err = d.Dispatch(context.Background(), Request{Payload: payload})
	assert.Error(t, err)
}

func TestDispatch_NopSinkStillReturnsURL(t *testing.T) {
	d, _ := newTestDispatcher(NopSink{})

	res, err := d.Dispatch(context.Background(), Request{Payload: "[]", AppURL: "http://viewer", Mode: ModeLiveInjection, Display: true})
	require.NoError(t, err)
	assert.Equal(t, "http://viewer/?data=%5B%5D", res.URL)
	assert.Equal(t, ModeURL, res.Mode)
}
