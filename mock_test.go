package replies_test

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarmac-project/replies"
	"github.com/tarmac-project/replies/urlmatch"
)

type outcomes struct {
	mu  sync.Mutex
	got []string
}

func (o *outcomes) Observe(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.got = append(o.got, outcome)
}

func (o *outcomes) list() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.got...)
}

// newMock returns a mock bound to a private client so tests can run in parallel.
func newMock(t *testing.T, cfg replies.Config) (*replies.Mock, *http.Client) {
	t.Helper()
	client := &http.Client{}
	cfg.Target = replies.ClientTarget(client)
	if cfg.Logger == nil {
		logger, _ := logtest.NewNullLogger()
		cfg.Logger = logger
	}
	return replies.New(cfg), client
}

func get(t *testing.T, c *http.Client, rawURL string) (*http.Response, string, error) {
	t.Helper()
	resp, err := c.Get(rawURL)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b), nil
}

func TestStaticReply(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name        string
		opts        replies.Options
		wantStatus  string
		wantCode    int
		wantBody    string
		wantType    string
		wantHeaders map[string]string
	}{
		{
			name:       "defaults",
			opts:       replies.Options{Body: []byte("test")},
			wantStatus: "200 OK",
			wantCode:   200,
			wantBody:   "test",
			wantType:   "text/plain",
		},
		{
			name:       "json",
			opts:       replies.Options{JSON: map[string]string{"name": "ada"}, Status: http.StatusCreated},
			wantStatus: "201 Created",
			wantCode:   201,
			wantBody:   `{"name":"ada"}`,
			wantType:   "application/json",
		},
		{
			name:       "custom content type and headers",
			opts:       replies.Options{Body: []byte("<p/>"), ContentType: "text/html", Header: map[string]string{"X-Trace": "1"}},
			wantStatus: "200 OK",
			wantCode:   200,
			wantBody:   "<p/>",
			wantType:   "text/html",
			wantHeaders: map[string]string{
				"X-Trace": "1",
			},
		},
		{
			name:       "header overrides content type",
			opts:       replies.Options{Header: map[string]string{"Content-Type": "application/xml"}},
			wantStatus: "200 OK",
			wantCode:   200,
			wantType:   "application/xml",
		},
		{
			name:       "no content type",
			opts:       replies.Options{Body: []byte("raw"), NoContentType: true},
			wantStatus: "200 OK",
			wantCode:   200,
			wantBody:   "raw",
		},
		{
			name:       "unknown status has no reason",
			opts:       replies.Options{Status: 599},
			wantStatus: "599",
			wantCode:   599,
			wantType:   "text/plain",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m, client := newMock(t, replies.Config{AssertAllFired: true})
			require.NoError(t, m.Add(replies.GET, "http://example.com/resource", tc.opts))
			m.Activate(t)

			resp, body, err := get(t, client, "http://example.com/resource")
			require.NoError(t, err)

			assert.Equal(t, tc.wantStatus, resp.Status)
			assert.Equal(t, tc.wantCode, resp.StatusCode)
			assert.Equal(t, tc.wantBody, body)
			assert.Equal(t, tc.wantType, resp.Header.Get("Content-Type"))
			for k, v := range tc.wantHeaders {
				assert.Equal(t, v, resp.Header.Get(k))
			}
			assert.Equal(t, 1, m.Rules()[0].CallCount())
		})
	}
}

func TestInvalidReply(t *testing.T) {
	t.Parallel()

	m, _ := newMock(t, replies.Config{})
	err := m.Add(replies.GET, "http://example.com", replies.Options{JSON: 1, Body: []byte("x")})
	assert.ErrorIs(t, err, replies.ErrInvalidRule)

	err = m.Add(replies.GET, "http://example.com", replies.Options{JSON: func() {}})
	assert.ErrorIs(t, err, replies.ErrInvalidRule)

	err = m.AddCallback(replies.GET, "http://example.com", nil, replies.CallbackOptions{})
	assert.ErrorIs(t, err, replies.ErrInvalidRule)

	assert.Empty(t, m.Rules())
}

func TestLooseQuerystringAndCallLog(t *testing.T) {
	t.Parallel()

	m, client := newMock(t, replies.Config{})
	require.NoError(t, m.Add(replies.GET, "http://example.com", replies.Options{Body: []byte("test")}))
	m.Activate(t)

	for _, u := range []string{"http://example.com?foo=bar", "http://example.com"} {
		_, body, err := get(t, client, u)
		require.NoError(t, err)
		assert.Equal(t, "test", body)
	}

	calls := m.Calls().All()
	require.Len(t, calls, 2)
	assert.Equal(t, "http://example.com/?foo=bar", urlmatch.RequestURL(calls[0].Request.URL))
	assert.Equal(t, "http://example.com/", urlmatch.RequestURL(calls[1].Request.URL))
	assert.NotEqual(t, calls[0].ID, calls[1].ID)

	m.Calls().Reset()
	assert.Zero(t, m.Calls().Len())
}

func TestStrictQuerystring(t *testing.T) {
	t.Parallel()

	tt := []struct {
		url     string
		matches bool
	}{
		{"http://x/?b=2&a=1", true},
		{"http://x/?a=1&b=2", true},
		{"http://x/?a=1", false},
		{"http://x/?a=1&b=2&c=3", false},
	}

	for _, tc := range tt {
		t.Run(tc.url, func(t *testing.T) {
			t.Parallel()

			m, client := newMock(t, replies.Config{})
			require.NoError(t, m.Add(replies.GET, "http://x/?a=1&b=2", replies.Options{MatchQuerystring: true}))
			m.Activate(t)

			_, _, err := get(t, client, tc.url)
			if tc.matches {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, replies.ErrConnectionRefused)
			}
		})
	}
}

func TestConnectionRefused(t *testing.T) {
	t.Parallel()

	rec := &outcomes{}
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	m, client := newMock(t, replies.Config{Logger: logger, Metrics: rec})
	require.NoError(t, m.Add(replies.GET, "http://example.com/found", replies.Options{}))
	m.Activate(t)

	_, _, err := get(t, client, "http://example.com/missing?x=1")
	require.Error(t, err)
	assert.ErrorIs(t, err, replies.ErrConnectionRefused)

	var connErr *replies.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "Connection refused: GET http://example.com/missing?x=1", connErr.Error())
	assert.Equal(t, "/missing", connErr.Request.URL.Path)

	_, _, err = get(t, client, "http://example.com/found")
	require.NoError(t, err)

	calls := m.Calls().All()
	require.Len(t, calls, 2)
	assert.ErrorIs(t, calls[0].Err, replies.ErrConnectionRefused)
	assert.Nil(t, calls[0].Response)
	assert.NoError(t, calls[1].Err)

	if diff := cmp.Diff([]string{"refused", "matched"}, rec.list()); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}

	entry := hook.AllEntries()[0]
	assert.Equal(t, "no rule matches request", entry.Message)
	assert.Equal(t, calls[0].ID, entry.Data["call_id"])
	assert.Equal(t, "GET", entry.Data["method"])
}

func TestRuleError(t *testing.T) {
	t.Parallel()

	ruleErr := errors.New("connection reset")
	rec := &outcomes{}
	m, client := newMock(t, replies.Config{Metrics: rec})
	require.NoError(t, m.Add(replies.GET, "http://example.com", replies.Options{Error: ruleErr}))
	m.Activate(t)

	_, _, err := get(t, client, "http://example.com")
	assert.ErrorIs(t, err, ruleErr)
	assert.NotErrorIs(t, err, replies.ErrConnectionRefused)

	require.Equal(t, 1, m.Calls().Len())
	assert.ErrorIs(t, m.Calls().At(0).Err, ruleErr)
	assert.Equal(t, 1, m.Rules()[0].CallCount())
	assert.Equal(t, []string{"rule_error"}, rec.list())
}

func TestMultipleRepliesReplayLast(t *testing.T) {
	t.Parallel()

	m, client := newMock(t, replies.Config{})
	for i := 1; i <= 3; i++ {
		require.NoError(t, m.Add(replies.GET, "http://example.com", replies.Options{Body: []byte(strconv.Itoa(i))}))
	}
	m.Activate(t)

	var got []string
	for range 5 {
		_, body, err := get(t, client, "http://example.com")
		require.NoError(t, err)
		got = append(got, body)
	}

	if diff := cmp.Diff([]string{"1", "2", "3", "3", "3"}, got); diff != "" {
		t.Errorf("bodies mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveAndReplace(t *testing.T) {
	t.Parallel()

	m, client := newMock(t, replies.Config{})
	require.NoError(t, m.Add(replies.GET, "http://example.com/one", replies.Options{Body: []byte("one")}))
	require.NoError(t, m.Add(replies.GET, "http://example.com/two", replies.Options{Body: []byte("two")}))
	require.NoError(t, m.Add(replies.GET, "http://example.com/one", replies.Options{Body: []byte("again")}))

	require.NoError(t, m.Replace(replies.GET, "http://example.com/two", replies.Options{Body: []byte("replaced")}))
	assert.ErrorIs(t, m.Replace(replies.GET, "http://example.com/three", replies.Options{}), replies.ErrRuleNotFound)

	re, err := replies.NewReply(replies.GET, urlmatch.MustCompile(`http://example\.com/two`), replies.Options{})
	require.NoError(t, err)
	assert.ErrorIs(t, m.ReplaceRule(re), replies.ErrRuleNotFound)

	m.Remove(replies.GET, "http://example.com/one")
	require.Len(t, m.Rules(), 1)

	m.Activate(t)
	_, body, err := get(t, client, "http://example.com/two")
	require.NoError(t, err)
	assert.Equal(t, "replaced", body)

	_, _, err = get(t, client, "http://example.com/one")
	assert.ErrorIs(t, err, replies.ErrConnectionRefused)
}

func TestRegexRule(t *testing.T) {
	t.Parallel()

	m, client := newMock(t, replies.Config{})
	r, err := replies.NewReply(replies.GET, urlmatch.MustCompile(`http://\w+\.example\.com/items/\d+`), replies.Options{Body: []byte("item")})
	require.NoError(t, err)
	m.AddRule(r)
	m.Activate(t)

	_, body, err := get(t, client, "http://api.example.com/items/42?verbose=1")
	require.NoError(t, err)
	assert.Equal(t, "item", body)

	_, _, err = get(t, client, "http://api.example.com/items/abc")
	assert.ErrorIs(t, err, replies.ErrConnectionRefused)

	m.RemoveRule(r)
	assert.Empty(t, m.Rules())
}

func TestUnicodeHost(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name    string
		pattern string
		request string
	}{
		{"unicode rule, ascii request", "http://例え.テスト/", "http://xn--r8jz45g.xn--zckzah/"},
		{"ascii rule, unicode request", "http://xn--r8jz45g.xn--zckzah/", "http://例え.テスト/"},
		{"unicode path", "http://example.com/test?type=2&ie=utf8&query=汉字", "http://example.com/test?type=2&ie=utf8&query=汉字"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m, _ := newMock(t, replies.Config{})
			require.NoError(t, m.Add(replies.GET, tc.pattern, replies.Options{Body: []byte("ok"), MatchQuerystring: true}))

			req, err := http.NewRequest(http.MethodGet, tc.request, nil)
			require.NoError(t, err)

			resp, err := m.RoundTrip(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestCallback(t *testing.T) {
	t.Parallel()

	m, client := newMock(t, replies.Config{})
	require.NoError(t, m.AddCallback(replies.POST, "http://example.com/echo", func(req *http.Request) (replies.Result, error) {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return replies.Result{}, err
		}
		return replies.Result{
			Status: http.StatusAccepted,
			Header: map[string]string{"X-Echo": "yes"},
			Body:   []byte(strings.ToUpper(string(b))),
		}, nil
	}, replies.CallbackOptions{ContentType: "application/json"}))
	require.NoError(t, m.AddCallback(replies.GET, "http://example.com/bare", func(*http.Request) (replies.Result, error) {
		return replies.Result{}, nil
	}, replies.CallbackOptions{NoContentType: true}))
	m.Activate(t)

	resp, err := client.Post("http://example.com/echo", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "HELLO", string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "yes", resp.Header.Get("X-Echo"))
	assert.Equal(t, "hello", string(m.Calls().At(0).RequestBody))

	resp, _, err = get(t, client, "http://example.com/bare")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Values("Content-Type"))
}

func TestCallbackError(t *testing.T) {
	t.Parallel()

	cbErr := errors.New("callback failed")
	m, client := newMock(t, replies.Config{})
	require.NoError(t, m.AddCallback(replies.GET, "http://example.com", func(*http.Request) (replies.Result, error) {
		return replies.Result{}, cbErr
	}, replies.CallbackOptions{}))
	m.Activate(t)

	_, _, err := get(t, client, "http://example.com")
	assert.ErrorIs(t, err, cbErr)
	assert.ErrorIs(t, m.Calls().At(0).Err, cbErr)
	assert.Equal(t, 1, m.Rules()[0].CallCount())
}

func TestRedirectChain(t *testing.T) {
	t.Parallel()

	m, client := newMock(t, replies.Config{})
	cb := func(req *http.Request) (replies.Result, error) {
		n, err := strconv.Atoi(strings.TrimPrefix(req.URL.Path, "/redirect/"))
		if err != nil {
			return replies.Result{}, err
		}
		if n < 3 {
			return replies.Result{
				Status: http.StatusFound,
				Header: map[string]string{"Location": fmt.Sprintf("/redirect/%d", n+1)},
			}, nil
		}
		return replies.Result{Body: []byte("done")}, nil
	}
	r, err := replies.NewCallbackReply(replies.GET, urlmatch.MustCompile(`http://example\.com/redirect/\d+`), cb, replies.CallbackOptions{})
	require.NoError(t, err)
	m.AddRule(r)
	m.Activate(t)

	resp, body, err := get(t, client, "http://example.com/redirect/1")
	require.NoError(t, err)
	assert.Equal(t, "done", body)
	assert.Equal(t, "/redirect/3", resp.Request.URL.Path)

	calls := m.Calls().All()
	require.Len(t, calls, 3)
	for i, c := range calls {
		assert.Equal(t, fmt.Sprintf("/redirect/%d", i+1), c.Request.URL.Path)
	}
	assert.Equal(t, 3, r.CallCount())
}

func TestCookies(t *testing.T) {
	t.Parallel()

	m, client := newMock(t, replies.Config{})
	require.NoError(t, m.Add(replies.GET, "http://example.com", replies.Options{
		Header: map[string]string{"Set-Cookie": "session=12345; Domain=example.com; Path=/"},
	}))
	require.NoError(t, m.Add(replies.GET, "http://example.com/bad", replies.Options{
		Header: map[string]string{"Set-Cookie": "=broken"},
	}))
	m.Activate(t)

	_, _, err := get(t, client, "http://example.com")
	require.NoError(t, err)

	cookies := m.Calls().At(0).Cookies
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "12345", cookies[0].Value)

	_, _, err = get(t, client, "http://example.com/bad")
	require.NoError(t, err)
	assert.Empty(t, m.Calls().At(1).Cookies)
}

func TestResponseCallback(t *testing.T) {
	t.Parallel()

	m, client := newMock(t, replies.Config{
		ResponseCallback: func(resp *http.Response, err error) (*http.Response, error) {
			if err != nil {
				return nil, fmt.Errorf("processed: %w", err)
			}
			resp.Header.Set("X-Processed", "true")
			return resp, nil
		},
	})
	require.NoError(t, m.Add(replies.GET, "http://example.com", replies.Options{}))
	require.NoError(t, m.Add(replies.GET, "http://example.com/fail", replies.Options{Error: io.ErrUnexpectedEOF}))
	m.Activate(t)

	resp, _, err := get(t, client, "http://example.com")
	require.NoError(t, err)
	assert.Equal(t, "true", resp.Header.Get("X-Processed"))
	assert.Equal(t, "true", m.Calls().At(0).Response.Header.Get("X-Processed"))

	_, _, err = get(t, client, "http://example.com/fail")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.ErrorContains(t, m.Calls().At(1).Err, "processed:")

	_, _, err = get(t, client, "http://example.com/missing")
	assert.ErrorIs(t, err, replies.ErrConnectionRefused)
	assert.ErrorContains(t, err, "processed: Connection refused: GET http://example.com/missing")
	require.Equal(t, 3, m.Calls().Len())
	assert.ErrorContains(t, m.Calls().At(2).Err, "processed:")
}

func TestResponseCallbackRefusal(t *testing.T) {
	t.Parallel()

	invocations := 0
	m, client := newMock(t, replies.Config{
		ResponseCallback: func(resp *http.Response, err error) (*http.Response, error) {
			invocations++
			if errors.Is(err, replies.ErrConnectionRefused) {
				return &http.Response{
					StatusCode: http.StatusServiceUnavailable,
					Header:     http.Header{},
					Body:       io.NopCloser(strings.NewReader("offline")),
				}, nil
			}
			return resp, err
		},
	})
	m.Activate(t)

	resp, body, err := get(t, client, "http://example.com/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "offline", body)
	assert.Equal(t, 1, invocations)

	require.Equal(t, 1, m.Calls().Len())
	assert.NoError(t, m.Calls().At(0).Err)
	assert.Equal(t, http.StatusServiceUnavailable, m.Calls().At(0).Response.StatusCode)
}

func TestResponseCallbackNilResult(t *testing.T) {
	t.Parallel()

	m, _ := newMock(t, replies.Config{
		ResponseCallback: func(*http.Response, error) (*http.Response, error) { return nil, nil },
	})
	require.NoError(t, m.Add(replies.GET, "http://example.com", replies.Options{}))

	tt := []struct {
		name string
		url  string
	}{
		{"matched", "http://example.com"},
		{"refused", "http://example.com/missing"},
	}

	for i, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := m.RoundTrip(httptestRequest(t, replies.GET, tc.url))
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, replies.ErrNilResponse)
			assert.ErrorIs(t, m.Calls().At(i).Err, replies.ErrNilResponse)
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestRequestBodyReadFailure(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name      string
		url       string
		wantFired int
	}{
		{"matched rule", "http://example.com/upload", 1},
		{"no rule", "http://example.com/other", 0},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m, _ := newMock(t, replies.Config{})
			require.NoError(t, m.Add(replies.POST, "http://example.com/upload", replies.Options{}))

			req, err := http.NewRequest(http.MethodPost, tc.url, failingReader{})
			require.NoError(t, err)

			_, err = m.RoundTrip(req)
			assert.ErrorIs(t, err, replies.ErrReadBody)
			assert.ErrorContains(t, err, "boom")

			require.Equal(t, 1, m.Calls().Len())
			call := m.Calls().At(0)
			assert.Same(t, req, call.Request)
			assert.ErrorIs(t, call.Err, replies.ErrReadBody)
			assert.Equal(t, tc.wantFired, m.Rules()[0].CallCount())
		})
	}
}

func TestBodyReader(t *testing.T) {
	t.Parallel()

	t.Run("read eagerly and replayed", func(t *testing.T) {
		t.Parallel()

		m, client := newMock(t, replies.Config{})
		require.NoError(t, m.Add(replies.GET, "http://example.com", replies.Options{BodyReader: strings.NewReader("from file")}))
		m.Activate(t)

		for range 2 {
			resp, body, err := get(t, client, "http://example.com")
			require.NoError(t, err)
			assert.Equal(t, "from file", body)
			assert.Equal(t, int64(len("from file")), resp.ContentLength)
		}
	})

	t.Run("streamed", func(t *testing.T) {
		t.Parallel()

		m, client := newMock(t, replies.Config{})
		require.NoError(t, m.Add(replies.GET, "http://example.com", replies.Options{BodyReader: strings.NewReader("chunked"), Stream: true}))
		m.Activate(t)

		resp, body, err := get(t, client, "http://example.com")
		require.NoError(t, err)
		assert.Equal(t, "chunked", body)
		assert.Equal(t, int64(-1), resp.ContentLength)
	})
}

func TestPassthrough(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "real")
	}))
	t.Cleanup(srv.Close)

	rec := &outcomes{}
	m, client := newMock(t, replies.Config{PassthroughPrefixes: []string{srv.URL + "/real"}, Metrics: rec})
	require.NoError(t, m.Add(replies.GET, srv.URL+"/mocked", replies.Options{Body: []byte("mocked")}))
	require.NoError(t, m.Add(replies.GET, srv.URL+"/real/shadowed", replies.Options{Body: []byte("shadowed")}))
	m.Activate(t)

	_, body, err := get(t, client, srv.URL+"/real/data")
	require.NoError(t, err)
	assert.Equal(t, "real", body)

	_, body, err = get(t, client, srv.URL+"/mocked")
	require.NoError(t, err)
	assert.Equal(t, "mocked", body)

	_, body, err = get(t, client, srv.URL+"/real/shadowed")
	require.NoError(t, err)
	assert.Equal(t, "shadowed", body)

	_, _, err = get(t, client, srv.URL+"/other")
	assert.ErrorIs(t, err, replies.ErrConnectionRefused)

	assert.Equal(t, 3, m.Calls().Len())
	assert.Equal(t, []string{"passthrough", "matched", "matched", "refused"}, rec.list())
}

func TestLifecycle(t *testing.T) {
	t.Parallel()

	m, client := newMock(t, replies.Config{})
	assert.ErrorIs(t, m.Stop(false), replies.ErrNotActive)

	require.NoError(t, m.Start())
	assert.True(t, m.Active())
	assert.Same(t, m, client.Transport)
	assert.ErrorIs(t, m.Start(), replies.ErrAlreadyActive)

	require.NoError(t, m.Stop(true))
	assert.False(t, m.Active())
	assert.Nil(t, client.Transport)
}

func TestRunAssertAllFired(t *testing.T) {
	t.Parallel()

	t.Run("reports unfired rules", func(t *testing.T) {
		t.Parallel()

		m, _ := newMock(t, replies.Config{AssertAllFired: true})
		require.NoError(t, m.Add(replies.GET, "http://example.com", replies.Options{}))
		require.NoError(t, m.Add(replies.POST, "http://example.com/used", replies.Options{}))

		err := m.Run(func() error {
			_, err := m.RoundTrip(httptestRequest(t, replies.POST, "http://example.com/used"))
			return err
		})

		var notFired *replies.NotFiredError
		require.ErrorAs(t, err, &notFired)
		assert.ErrorIs(t, err, replies.ErrNotAllFired)
		require.Len(t, notFired.Rules, 1)
		assert.Contains(t, err.Error(), "(GET, http://example.com/)")

		assert.False(t, m.Active())
		assert.Empty(t, m.Rules())
		assert.Zero(t, m.Calls().Len())
	})

	t.Run("user error wins", func(t *testing.T) {
		t.Parallel()

		userErr := errors.New("test body failed")
		m, _ := newMock(t, replies.Config{AssertAllFired: true})
		require.NoError(t, m.Add(replies.GET, "http://example.com", replies.Options{}))

		err := m.Run(func() error { return userErr })
		assert.ErrorIs(t, err, userErr)
		assert.NotErrorIs(t, err, replies.ErrNotAllFired)
		assert.False(t, m.Active())
		assert.Empty(t, m.Rules())
	})

	t.Run("panic restores transport", func(t *testing.T) {
		t.Parallel()

		m, client := newMock(t, replies.Config{AssertAllFired: true})
		require.NoError(t, m.Add(replies.GET, "http://example.com", replies.Options{}))

		assert.PanicsWithValue(t, "boom", func() {
			_ = m.Run(func() error { panic("boom") })
		})
		assert.False(t, m.Active())
		assert.Nil(t, client.Transport)
	})

	t.Run("disabled by default", func(t *testing.T) {
		t.Parallel()

		m, _ := newMock(t, replies.Config{})
		require.NoError(t, m.Add(replies.GET, "http://example.com", replies.Options{}))
		assert.NoError(t, m.Run(func() error { return nil }))
	})
}

func TestReset(t *testing.T) {
	t.Parallel()

	m, _ := newMock(t, replies.Config{PassthroughPrefixes: []string{"http://real"}})
	require.NoError(t, m.Add(replies.GET, "http://example.com", replies.Options{}))
	_, err := m.RoundTrip(httptestRequest(t, replies.GET, "http://example.com"))
	require.NoError(t, err)

	m.Reset()
	assert.Empty(t, m.Rules())
	assert.Empty(t, m.Passthroughs())
	assert.Zero(t, m.Calls().Len())
}

func httptestRequest(t *testing.T, method, rawURL string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, rawURL, nil)
	require.NoError(t, err)
	return req
}
