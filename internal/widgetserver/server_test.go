package widgetserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nkeys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kithttp "github.com/mcosta74/opstack/adapters/http"
	natsadapter "github.com/mcosta74/opstack/adapters/nats"
	"github.com/mcosta74/opstack/adapters/websocket"
	"github.com/mcosta74/opstack/example/widgets"
	"github.com/mcosta74/opstack/interceptors"
	kittesting "github.com/mcosta74/opstack/internal/testing"
	"github.com/mcosta74/opstack/internal/widgetserver"
	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

func startHTTP(t *testing.T, opts ...widgetserver.Option) (*httptest.Server, *widgetserver.Server) {
	t.Helper()
	s := widgetserver.New(widgetserver.NewStore(), opts...)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, s
}

func httpClient(t *testing.T, srv *httptest.Server, opts ...widgets.Option) *widgets.Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	opts = append([]widgets.Option{widgets.WithEndpoint("http", u.Hostname(), port)}, opts...)
	c, err := widgets.New(kithttp.NewClient(), opts...)
	require.NoError(t, err)
	return c
}

func exerciseCRUD(t *testing.T, c *widgets.Client) {
	t.Helper()
	ctx := context.Background()

	put, err := c.PutWidget(ctx, &widgets.PutWidgetInput{ID: "w1", Name: "gear", Color: "blue"})
	require.NoError(t, err)
	assert.True(t, put.Created)
	assert.Equal(t, 1, put.Widget.Version)

	put, err = c.PutWidget(ctx, &widgets.PutWidgetInput{ID: "w1", Name: "gear", Color: "red"})
	require.NoError(t, err)
	assert.False(t, put.Created)
	assert.Equal(t, 2, put.Widget.Version)

	get, err := c.GetWidget(ctx, &widgets.GetWidgetInput{ID: "w1"})
	require.NoError(t, err)
	assert.Equal(t, widgets.Widget{ID: "w1", Name: "gear", Color: "red", Version: 2}, get.Widget)
	assert.Equal(t, `"2"`, get.ETag)

	_, err = c.DeleteWidget(ctx, &widgets.DeleteWidgetInput{ID: "w1"})
	require.NoError(t, err)

	_, err = c.GetWidget(ctx, &widgets.GetWidgetInput{ID: "w1"})
	var nf *widgets.WidgetNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "w1", nf.WidgetID)
	assert.True(t, middleware.IsServiceError(err))
}

func TestCRUDOverHTTP(t *testing.T) {
	srv, _ := startHTTP(t)
	exerciseCRUD(t, httpClient(t, srv))
}

func TestCRUDOverNATS(t *testing.T) {
	_, nc := kittesting.NewNATSServerAndConn(t)
	s := widgetserver.New(widgetserver.NewStore())

	sub, err := nc.QueueSubscribe("widgets.>", "widgets", natsadapter.NewSubscriber(s.Transport()).ServeMsg(nc))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })

	c, err := widgets.New(natsadapter.NewTransport(nc, natsadapter.WithTimeout(3*time.Second)), widgets.WithEndpoint("nats", "widgets", 0))
	require.NoError(t, err)
	exerciseCRUD(t, c)
}

func TestCRUDOverWebSocket(t *testing.T) {
	srv, _ := startHTTP(t)

	ws, err := websocket.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	c, err := widgets.New(ws, widgets.WithEndpoint("ws", "widgets", 0))
	require.NoError(t, err)
	exerciseCRUD(t, c)
}

func TestReservedCharactersInID(t *testing.T) {
	srv, _ := startHTTP(t)

	ws, err := websocket.Dial(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	wsClient, err := widgets.New(ws, widgets.WithEndpoint("ws", "widgets", 0))
	require.NoError(t, err)

	clients := map[string]*widgets.Client{
		"http":      httpClient(t, srv),
		"websocket": wsClient,
	}
	for name, c := range clients {
		t.Run(name, func(t *testing.T) {
			id := name + "/a b?c=%2F"
			put, err := c.PutWidget(context.Background(), &widgets.PutWidgetInput{ID: id, Name: "gear"})
			require.NoError(t, err)
			assert.True(t, put.Created)
			assert.Equal(t, id, put.Widget.ID)

			get, err := c.GetWidget(context.Background(), &widgets.GetWidgetInput{ID: id})
			require.NoError(t, err)
			assert.Equal(t, id, get.Widget.ID)

			_, err = c.GetWidget(context.Background(), &widgets.GetWidgetInput{ID: name})
			assert.True(t, middleware.IsServiceError(err))
		})
	}
}

func TestValidation(t *testing.T) {
	srv, _ := startHTTP(t)
	c := httpClient(t, srv)

	_, err := c.PutWidget(context.Background(), &widgets.PutWidgetInput{ID: "w1"})

	var ve *widgets.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
}

func TestDryRunDoesNotStore(t *testing.T) {
	srv, _ := startHTTP(t)
	c := httpClient(t, srv)

	out, err := c.PutWidget(context.Background(), &widgets.PutWidgetInput{ID: "w1", Name: "gear", DryRun: true})
	require.NoError(t, err)
	assert.False(t, out.Created)
	assert.Equal(t, "gear", out.Widget.Name)

	_, err = c.GetWidget(context.Background(), &widgets.GetWidgetInput{ID: "w1"})
	assert.True(t, middleware.IsServiceError(err))
}

func TestCompressedBodies(t *testing.T) {
	srv, _ := startHTTP(t)
	var encodings []string
	record := func(next ports.Transport) ports.Transport {
		return ports.TransportFunc(func(ctx context.Context, req *ports.Request) (*ports.Response, error) {
			encodings = append(encodings, req.Header.Get("Content-Encoding"))
			return next.RoundTrip(ctx, req)
		})
	}
	c := httpClient(t, srv, widgets.WithCompression(1), widgets.WithTransportMiddleware(record))

	out, err := c.PutWidget(context.Background(), &widgets.PutWidgetInput{ID: "w1", Name: strings.Repeat("g", 64)})

	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("g", 64), out.Widget.Name)
	assert.Equal(t, []string{"gzip"}, encodings)
}

func TestContentMD5Mismatch(t *testing.T) {
	srv, _ := startHTTP(t)
	tamper := func(next ports.Transport) ports.Transport {
		return ports.TransportFunc(func(ctx context.Context, req *ports.Request) (*ports.Response, error) {
			req.Body = []byte(`{"name":"tampered"}`)
			return next.RoundTrip(ctx, req)
		})
	}
	c := httpClient(t, srv, widgets.WithTransportMiddleware(tamper))

	_, err := c.PutWidget(context.Background(), &widgets.PutWidgetInput{ID: "w1", Name: "gear"})

	var ve *widgets.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Content-MD5", ve.Field)
}

func TestIdempotentReplay(t *testing.T) {
	srv, _ := startHTTP(t)
	c := httpClient(t, srv)
	in := &widgets.PutWidgetInput{ID: "w1", Name: "gear", ClientToken: "same"}

	first, err := c.PutWidget(context.Background(), in)
	require.NoError(t, err)
	second, err := c.PutWidget(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, second.Created)
	assert.Equal(t, first.Widget, second.Widget)

	third, err := c.PutWidget(context.Background(), &widgets.PutWidgetInput{ID: "w1", Name: "gear", ClientToken: "other"})
	require.NoError(t, err)
	assert.Equal(t, 2, third.Widget.Version)
}

func TestSignedRequests(t *testing.T) {
	kp, err := nkeys.CreateUser()
	require.NoError(t, err)
	seed, err := kp.Seed()
	require.NoError(t, err)
	pub, err := kp.PublicKey()
	require.NoError(t, err)
	signer, err := interceptors.NewNKeySigner(seed)
	require.NoError(t, err)

	srv, _ := startHTTP(t, widgetserver.WithSignedRequests(pub))

	t.Run("signed", func(t *testing.T) {
		c := httpClient(t, srv, widgets.WithSigner(signer), widgets.WithCompression(1))
		_, err := c.PutWidget(context.Background(), &widgets.PutWidgetInput{ID: "w1", Name: "gear"})
		require.NoError(t, err)

		_, err = c.PutWidget(context.Background(), &widgets.PutWidgetInput{ID: "a/b c", Name: "gear"})
		require.NoError(t, err)
	})

	t.Run("unsigned", func(t *testing.T) {
		c := httpClient(t, srv)
		_, err := c.GetWidget(context.Background(), &widgets.GetWidgetInput{ID: "w1"})
		var oe *middleware.OperationError
		require.ErrorAs(t, err, &oe)
		assert.Equal(t, middleware.KindUnknown, oe.Kind)
		assert.Equal(t, http.StatusUnauthorized, oe.Response.StatusCode)
	})

	t.Run("foreign key", func(t *testing.T) {
		other, err := nkeys.CreateUser()
		require.NoError(t, err)
		otherSeed, err := other.Seed()
		require.NoError(t, err)
		otherSigner, err := interceptors.NewNKeySigner(otherSeed)
		require.NoError(t, err)

		c := httpClient(t, srv, widgets.WithSigner(otherSigner))
		_, err = c.GetWidget(context.Background(), &widgets.GetWidgetInput{ID: "w1"})
		assert.True(t, middleware.IsUnknownError(err))
	})
}

func TestHealthz(t *testing.T) {
	srv, _ := startHTTP(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
