package schemafetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmosel/schemafetch/fetcherrors"
	"github.com/rmosel/schemafetch/schema"
)

// passthrough is an adapter that accepts everything unchanged.
var passthrough = schema.AdapterFunc(func(_ schema.Schema, data any) (any, error) {
	return data, nil
})

// captured records what the test server received.
type captured struct {
	hits   int
	method string
	header http.Header
	body   []byte
}

func startCapture(t *testing.T) (*httptest.Server, *captured) {
	t.Helper()
	rec := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.hits++
		rec.method = r.Method
		rec.header = r.Header.Clone()
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		rec.body = body
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestClient(t *testing.T, adapter schema.Adapter, opts ...Option) *Client {
	t.Helper()
	c, err := New(adapter, opts...)
	require.NoError(t, err)
	return c
}

func TestDoDropIn(t *testing.T) {
	t.Run("no validation passes everything through unchanged", func(t *testing.T) {
		srv, rec := startCapture(t)
		c := newTestClient(t, passthrough)

		resp, err := c.Do(context.Background(), Request{
			Method: http.MethodPut,
			URL:    srv.URL + "/pets/1",
			Body:   String(`{"name":"tibbs"}`),
			Headers: HeaderMap(map[string]string{
				"Content-Type": "application/json",
				"X-Custom":     "yes",
			}),
		})
		require.NoError(t, err)
		defer resp.Close()

		assert.Equal(t, http.MethodPut, rec.method)
		assert.Equal(t, `{"name":"tibbs"}`, string(rec.body))
		assert.Equal(t, "application/json", rec.header.Get("Content-Type"))
		assert.Equal(t, "yes", rec.header.Get("X-Custom"))
	})

	t.Run("method defaults to GET", func(t *testing.T) {
		srv, rec := startCapture(t)
		c := newTestClient(t, passthrough)

		resp, err := c.Do(context.Background(), Request{URL: srv.URL})
		require.NoError(t, err)
		defer resp.Close()
		assert.Equal(t, http.MethodGet, rec.method)
	})

	t.Run("missing URL and base is a config error", func(t *testing.T) {
		c := newTestClient(t, passthrough)
		_, err := c.Do(context.Background(), Request{Method: http.MethodGet})
		assert.ErrorIs(t, err, fetcherrors.ErrConfig)
	})
}

func TestDoContentTypeDecision(t *testing.T) {
	t.Run("structured body without content-type gets application/json", func(t *testing.T) {
		srv, rec := startCapture(t)
		c := newTestClient(t, passthrough)

		resp, err := c.Do(context.Background(), Request{
			Method: http.MethodPost,
			URL:    srv.URL,
			Body:   JSON(map[string]any{"name": "tibbs"}),
		})
		require.NoError(t, err)
		defer resp.Close()

		assert.Equal(t, "application/json", rec.header.Get("Content-Type"))
		assert.JSONEq(t, `{"name":"tibbs"}`, string(rec.body))
	})

	t.Run("caller-set vendor JSON content-type survives", func(t *testing.T) {
		srv, rec := startCapture(t)
		c := newTestClient(t, passthrough)

		resp, err := c.Do(context.Background(), Request{
			Method:  http.MethodPost,
			URL:     srv.URL,
			Body:    JSON(map[string]any{"name": "tibbs"}),
			Headers: HeaderMap(map[string]string{"Content-Type": "application/vnd.api+json"}),
		})
		require.NoError(t, err)
		defer resp.Close()

		assert.Equal(t, "application/vnd.api+json", rec.header.Get("Content-Type"))
	})

	t.Run("url-encoded body sets its content-type only when absent", func(t *testing.T) {
		srv, rec := startCapture(t)
		c := newTestClient(t, passthrough)

		resp, err := c.Do(context.Background(), Request{
			Method: http.MethodPost,
			URL:    srv.URL,
			Body:   Values(url.Values{"q": {"x"}}),
		})
		require.NoError(t, err)
		defer resp.Close()

		assert.Equal(t, "application/x-www-form-urlencoded", rec.header.Get("Content-Type"))
		assert.Equal(t, "q=x", string(rec.body))
	})
}

func TestDoStringBody(t *testing.T) {
	t.Run("text body with string schema is sent as-is", func(t *testing.T) {
		srv, rec := startCapture(t)
		c := newTestClient(t, passthrough)

		resp, err := c.Do(context.Background(), Request{
			Method:   http.MethodPost,
			URL:      srv.URL,
			Body:     String("hello world"),
			Headers:  HeaderMap(map[string]string{"Content-Type": "text/plain"}),
			Validate: Validate{RequestBody: "any"},
		})
		require.NoError(t, err)
		defer resp.Close()

		assert.Equal(t, "hello world", string(rec.body))
	})

	t.Run("invalid JSON with explicit JSON content-type fails before the network call", func(t *testing.T) {
		srv, rec := startCapture(t)
		c := newTestClient(t, passthrough)

		_, err := c.Do(context.Background(), Request{
			Method:   http.MethodPost,
			URL:      srv.URL,
			Body:     String(`{"broken":`),
			Headers:  HeaderMap(map[string]string{"Content-Type": "application/json"}),
			Validate: Validate{RequestBody: "any"},
		})
		require.ErrorIs(t, err, fetcherrors.ErrSerialization)
		assert.Contains(t, err.Error(), "invalid JSON request body")
		assert.Zero(t, rec.hits)
	})

	t.Run("valid JSON string is decoded for validation and re-encoded", func(t *testing.T) {
		srv, rec := startCapture(t)
		var seen any
		adapter := schema.AdapterFunc(func(_ schema.Schema, data any) (any, error) {
			seen = data
			return data, nil
		})
		c := newTestClient(t, adapter)

		resp, err := c.Do(context.Background(), Request{
			Method:   http.MethodPost,
			URL:      srv.URL,
			Body:     String(`{"name":"tibbs"}`),
			Headers:  HeaderMap(map[string]string{"Content-Type": "application/json"}),
			Validate: Validate{RequestBody: "any"},
		})
		require.NoError(t, err)
		defer resp.Close()

		assert.Equal(t, map[string]any{"name": "tibbs"}, seen)
		assert.JSONEq(t, `{"name":"tibbs"}`, string(rec.body))
	})

	t.Run("undecodable string with unset content-type validates as opaque scalar", func(t *testing.T) {
		srv, rec := startCapture(t)
		var seen any
		adapter := schema.AdapterFunc(func(_ schema.Schema, data any) (any, error) {
			seen = data
			return data, nil
		})
		c := newTestClient(t, adapter)

		resp, err := c.Do(context.Background(), Request{
			Method:   http.MethodPost,
			URL:      srv.URL,
			Body:     String("not json at all"),
			Validate: Validate{RequestBody: "any"},
		})
		require.NoError(t, err)
		defer resp.Close()

		assert.Equal(t, "not json at all", seen)
		require.Equal(t, 1, rec.hits)
	})
}

func TestDoBinaryBody(t *testing.T) {
	t.Run("binary bodies pass through and are never validated", func(t *testing.T) {
		srv, rec := startCapture(t)
		adapterCalls := 0
		adapter := schema.AdapterFunc(func(_ schema.Schema, data any) (any, error) {
			adapterCalls++
			return data, nil
		})
		c := newTestClient(t, adapter)

		payload := []byte{0x1f, 0x8b, 0x00, 0xff}
		resp, err := c.Do(context.Background(), Request{
			Method:   http.MethodPost,
			URL:      srv.URL,
			Body:     Bytes(payload),
			Validate: Validate{RequestBody: "any"},
		})
		require.NoError(t, err)
		defer resp.Close()

		assert.Equal(t, payload, rec.body)
		assert.Zero(t, adapterCalls)
	})

	t.Run("stream bodies pass through", func(t *testing.T) {
		srv, rec := startCapture(t)
		c := newTestClient(t, passthrough)

		resp, err := c.Do(context.Background(), Request{
			Method: http.MethodPost,
			URL:    srv.URL,
			Body:   Reader(strings.NewReader("streamed")),
		})
		require.NoError(t, err)
		defer resp.Close()
		assert.Equal(t, "streamed", string(rec.body))
	})
}

func TestDoFormBody(t *testing.T) {
	t.Run("repeated form keys survive the validation round trip in order", func(t *testing.T) {
		var got []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			got = r.MultipartForm.Value["tags"]
		}))
		t.Cleanup(srv.Close)

		c := newTestClient(t, passthrough)
		resp, err := c.Do(context.Background(), Request{
			Method:   http.MethodPost,
			URL:      srv.URL,
			Body:     Form(url.Values{"tags": {"a", "b", "c"}}),
			Validate: Validate{RequestBody: "any"},
		})
		require.NoError(t, err)
		defer resp.Close()

		assert.Equal(t, []string{"a", "b", "c"}, got)
	})

	t.Run("form validation failure prevents the network call", func(t *testing.T) {
		srv, rec := startCapture(t)
		boom := errors.New("tags required")
		adapter := schema.AdapterFunc(func(_ schema.Schema, _ any) (any, error) {
			return nil, boom
		})
		c := newTestClient(t, adapter)

		_, err := c.Do(context.Background(), Request{
			Method:   http.MethodPost,
			URL:      srv.URL,
			Body:     Values(url.Values{"q": {"x"}}),
			Validate: Validate{RequestBody: "any"},
		})
		require.ErrorIs(t, err, fetcherrors.ErrValidation)
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, rec.hits)
	})

	t.Run("non-mapping validated result fails instead of sending originals", func(t *testing.T) {
		srv, rec := startCapture(t)
		adapter := schema.AdapterFunc(func(_ schema.Schema, _ any) (any, error) {
			return "scalar", nil
		})
		c := newTestClient(t, adapter)

		_, err := c.Do(context.Background(), Request{
			Method:   http.MethodPost,
			URL:      srv.URL,
			Body:     Values(url.Values{"q": {"x"}}),
			Validate: Validate{RequestBody: "any"},
		})
		require.ErrorIs(t, err, fetcherrors.ErrUnrepresentable)
		assert.Zero(t, rec.hits)
	})
}

func TestDoHeaderValidation(t *testing.T) {
	headerSchema := schema.AdapterFunc(func(_ schema.Schema, data any) (any, error) {
		// Emits only "a" with a fixed value, like a schema that strips
		// unknown keys.
		return map[string]any{"a": "validated"}, nil
	})

	t.Run("preserve mode keeps headers the schema did not emit", func(t *testing.T) {
		srv, rec := startCapture(t)
		c := newTestClient(t, headerSchema)

		resp, err := c.Do(context.Background(), Request{
			Method:   http.MethodGet,
			URL:      srv.URL,
			Headers:  HeaderMap(map[string]string{"a": "1", "b": "2"}),
			Validate: Validate{RequestHeaders: "any"},
		})
		require.NoError(t, err)
		defer resp.Close()

		assert.Equal(t, "validated", rec.header.Get("A"))
		assert.Equal(t, "2", rec.header.Get("B"))
	})

	t.Run("strict mode drops headers the schema did not emit", func(t *testing.T) {
		srv, rec := startCapture(t)
		c := newTestClient(t, headerSchema, WithHeaderMode(HeaderModeStrict))

		resp, err := c.Do(context.Background(), Request{
			Method:   http.MethodGet,
			URL:      srv.URL,
			Headers:  HeaderMap(map[string]string{"a": "1", "b": "2"}),
			Validate: Validate{RequestHeaders: "any"},
		})
		require.NoError(t, err)
		defer resp.Close()

		assert.Equal(t, "validated", rec.header.Get("A"))
		assert.Empty(t, rec.header.Get("B"))
	})

	t.Run("nil schema value removes the header entirely", func(t *testing.T) {
		srv, rec := startCapture(t)
		adapter := schema.AdapterFunc(func(_ schema.Schema, _ any) (any, error) {
			return map[string]any{"x-secret": nil}, nil
		})
		c := newTestClient(t, adapter)

		resp, err := c.Do(context.Background(), Request{
			Method:   http.MethodGet,
			URL:      srv.URL,
			Headers:  HeaderMap(map[string]string{"X-Secret": "token", "X-Keep": "1"}),
			Validate: Validate{RequestHeaders: "any"},
		})
		require.NoError(t, err)
		defer resp.Close()

		_, present := rec.header["X-Secret"]
		assert.False(t, present)
		assert.Equal(t, "1", rec.header.Get("X-Keep"))
	})

	t.Run("header validation failure prevents the network call", func(t *testing.T) {
		srv, rec := startCapture(t)
		boom := errors.New("missing authorization")
		adapter := schema.AdapterFunc(func(_ schema.Schema, _ any) (any, error) {
			return nil, boom
		})
		c := newTestClient(t, adapter)

		_, err := c.Do(context.Background(), Request{
			Method:   http.MethodGet,
			URL:      srv.URL,
			Validate: Validate{RequestHeaders: "any"},
		})
		require.ErrorIs(t, err, fetcherrors.ErrValidation)
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, rec.hits)
	})

	t.Run("header schema owns content-type over the body step", func(t *testing.T) {
		srv, rec := startCapture(t)
		adapter := schema.AdapterFunc(func(_ schema.Schema, data any) (any, error) {
			return map[string]any{"content-type": "application/vnd.api+json"}, nil
		})
		c := newTestClient(t, adapter)

		resp, err := c.Do(context.Background(), Request{
			Method:   http.MethodPost,
			URL:      srv.URL,
			Body:     JSON(map[string]any{"a": 1}),
			Validate: Validate{RequestHeaders: "any"},
		})
		require.NoError(t, err)
		defer resp.Close()

		assert.Equal(t, "application/vnd.api+json", rec.header.Get("Content-Type"))
	})
}

func TestDoTransport(t *testing.T) {
	t.Run("transport errors pass through unchanged", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		c := newTestClient(t, passthrough)
		_, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
		require.Error(t, err)

		var uerr *url.Error
		assert.ErrorAs(t, err, &uerr)
		assert.NotErrorIs(t, err, fetcherrors.ErrValidation)
	})

	t.Run("context cancellation is delegated to the transport", func(t *testing.T) {
		srv, _ := startCapture(t)
		c := newTestClient(t, passthrough)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.Do(ctx, Request{Method: http.MethodGet, URL: srv.URL})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("default user agent is sent when the caller set none", func(t *testing.T) {
		srv, rec := startCapture(t)
		c := newTestClient(t, passthrough)

		resp, err := c.Get(context.Background(), srv.URL)
		require.NoError(t, err)
		defer resp.Close()
		assert.Equal(t, UserAgent(), rec.header.Get("User-Agent"))
	})

	t.Run("caller user agent wins over the default", func(t *testing.T) {
		srv, rec := startCapture(t)
		c := newTestClient(t, passthrough)

		resp, err := c.Do(context.Background(), Request{
			URL:     srv.URL,
			Headers: HeaderMap(map[string]string{"User-Agent": "custom/1.0"}),
		})
		require.NoError(t, err)
		defer resp.Close()
		assert.Equal(t, "custom/1.0", rec.header.Get("User-Agent"))
	})
}

func TestDoWithBaseRequest(t *testing.T) {
	srv, rec := startCapture(t)
	c := newTestClient(t, passthrough)

	base, err := http.NewRequest(http.MethodPost, srv.URL, nil)
	require.NoError(t, err)
	base.Header.Set("X-From-Base", "yes")

	resp, err := c.Do(context.Background(), Request{
		Base: base,
		Body: String("payload"),
	})
	require.NoError(t, err)
	defer resp.Close()

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "payload", string(rec.body))
	assert.Equal(t, "yes", rec.header.Get("X-From-Base"))
}

func TestDoBaseRequestRedirectReplaysBody(t *testing.T) {
	var got []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		got = body
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newTestClient(t, passthrough)
	base, err := http.NewRequest(http.MethodPost, srv.URL+"/old", nil)
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), Request{
		Base: base,
		Body: JSON(map[string]any{"name": "tibbs"}),
	})
	require.NoError(t, err)
	defer resp.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"name":"tibbs"}`, string(got))
}

func TestGetPostHelpers(t *testing.T) {
	srv, rec := startCapture(t)
	c := newTestClient(t, passthrough)

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Close()
	assert.Equal(t, http.MethodGet, rec.method)

	resp, err = c.Post(context.Background(), srv.URL, JSON(map[string]any{"a": 1}))
	require.NoError(t, err)
	resp.Close()
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "application/json", rec.header.Get("Content-Type"))
}
