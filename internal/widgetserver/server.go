// Package widgetserver implements the Widgets service used by the example
// client and the widgetctl command.
package widgetserver

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-json-experiment/json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	kithttp "github.com/mcosta74/opstack/adapters/http"
	"github.com/mcosta74/opstack/adapters/websocket"
	"github.com/mcosta74/opstack/example/widgets"
	"github.com/mcosta74/opstack/ports"
)

type options struct {
	logger        *slog.Logger
	signers       []string
	requireSigned bool
	tokenTTL      time.Duration
	tracing       bool
}

// Option sets optional parameter for the server.
type Option func(o *options)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSignedRequests requires every widget request to be signed by one of
// the given nkey public keys. With no key any valid signature is accepted.
func WithSignedRequests(publicKeys ...string) Option {
	return func(o *options) {
		o.requireSigned = true
		o.signers = publicKeys
	}
}

// WithTokenTTL sets how long client tokens are remembered.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.tokenTTL = ttl
	}
}

// WithTracing wraps the router with otelhttp instrumentation.
func WithTracing() Option {
	return func(o *options) {
		o.tracing = true
	}
}

type Server struct {
	Router *chi.Mux
	api    *chi.Mux
	store  *Store
	logger *slog.Logger
}

// New returns a server backed by store. The widget routes are also served
// over WebSocket at /ws.
func New(store *Store, opts ...Option) *Server {
	o := options{
		logger:   slog.New(slog.DiscardHandler),
		tokenTTL: defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{store: store, logger: o.logger}

	api := chi.NewRouter()
	api.Use(middleware.Recoverer)
	if o.requireSigned {
		api.Use(verifySignature(o.signers))
	}
	api.Use(decompress)
	api.Use(checkContentMD5)
	api.Use(newTokenCache(o.tokenTTL).Middleware)
	api.Get("/widgets/{id}", s.getWidget)
	api.Put("/widgets/{id}", s.putWidget)
	api.Delete("/widgets/{id}", s.deleteWidget)

	r := chi.NewRouter()
	r.Use(loggingMiddleware(o.logger))
	if o.tracing {
		r.Use(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, widgets.ServiceName)
		})
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/ws", websocket.NewServer(s.Transport(), websocket.WithServerErrorLogger(o.logger)))
	r.Mount("/", api)

	s.api = api
	s.Router = r
	return s
}

// Transport serves the widget routes in process. It backs the WebSocket
// endpoint and the NATS adapters.
func (s *Server) Transport() ports.Transport {
	return kithttp.HandlerTransport(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Requests arriving through /ws carry the route context of the outer router.
		ctx := context.WithValue(r.Context(), chi.RouteCtxKey, nil)
		s.api.ServeHTTP(w, r.WithContext(ctx))
	}))
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.Router }

func (s *Server) getWidget(w http.ResponseWriter, r *http.Request) {
	id := widgetID(r)
	widget, err := s.store.Get(id)
	if err != nil {
		writeNotFound(w, id)
		return
	}
	w.Header().Set("ETag", etag(widget))
	writeJSON(w, http.StatusOK, widget)
}

type putBody struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func (s *Server) putWidget(w http.ResponseWriter, r *http.Request) {
	id := widgetID(r)

	var body putBody
	if err := json.UnmarshalRead(r.Body, &body); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", validationBody("malformed body: "+err.Error(), ""))
		return
	}
	if body.Name == "" {
		writeError(w, http.StatusBadRequest, "ValidationError", validationBody("name is required", "name"))
		return
	}

	widget := widgets.Widget{ID: id, Name: body.Name, Color: body.Color}
	if r.URL.Query().Get("dryRun") == "true" {
		writeJSON(w, http.StatusOK, widget)
		return
	}

	widget, created := s.store.Put(widget)
	s.logger.Debug("widget stored", slog.String("id", id), slog.Int("version", widget.Version))

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	w.Header().Set("ETag", etag(widget))
	writeJSON(w, status, widget)
}

func (s *Server) deleteWidget(w http.ResponseWriter, r *http.Request) {
	id := widgetID(r)
	if err := s.store.Delete(id); err != nil {
		writeNotFound(w, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// widgetID returns the unescaped id label. chi matches on the raw path when
// the request path holds escaped separators.
func widgetID(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id
	}
	if v, err := url.PathUnescape(id); err == nil {
		return v
	}
	return id
}

func etag(w widgets.Widget) string {
	return strconv.Quote(strconv.Itoa(w.Version))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, errorType string, v any) {
	w.Header().Set(widgets.ErrorTypeHeader, errorType)
	writeJSON(w, status, v)
}

func writeNotFound(w http.ResponseWriter, id string) {
	writeError(w, http.StatusNotFound, "WidgetNotFound", &widgets.WidgetNotFound{Message: "no such widget", WidgetID: id})
}

func validationBody(message, field string) *widgets.ValidationError {
	return &widgets.ValidationError{Message: message, Field: field}
}
