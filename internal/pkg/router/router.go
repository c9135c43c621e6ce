package router

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/fintrack/internal/pkg/config"
	"github.com/shandysiswandi/fintrack/internal/pkg/i18n"
	"github.com/shandysiswandi/fintrack/internal/pkg/instrument"
	"github.com/shandysiswandi/fintrack/internal/pkg/jwt"
	"github.com/shandysiswandi/fintrack/internal/pkg/uid"
)

// Handler returns the payload to wrap in the success envelope, or an error
// rendered by the error codec.
type Handler func(r *Request) (any, error)

type Config struct {
	Config     config.Config
	UUID       uid.StringID
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
	// Enforcer backs Permission. Routes without a permission never use it.
	Enforcer Authorizer
	// Translator resolves the request language; nil keeps the default.
	Translator *i18n.Translator
}

// Router serves JSON endpoints. Every route runs behind recovery, client IP,
// correlation id, locale, observability and maintenance middlewares, and behind
// bearer authentication unless it was registered with Public.
type Router struct {
	hr         *httprouter.Router
	base       []Middleware
	authn      Middleware
	authorizer Authorizer
}

func NewRouter(cfg Config) *Router {
	ins := cfg.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}

	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound:               messageHandler(http.StatusNotFound, "endpoint not found"),
		MethodNotAllowed:       messageHandler(http.StatusMethodNotAllowed, "method not allowed"),
	}
	hr.Handler(http.MethodGet, "/", messageHandler(http.StatusOK, "Welcome to API Fintrack"))
	hr.Handler(http.MethodGet, "/health", messageHandler(http.StatusOK, "ok"))

	return &Router{
		hr: hr,
		base: []Middleware{
			recoverer,
			clientIP,
			correlationID(cfg.UUID),
			locale(cfg.Translator),
			observability(ins),
			maintenance(cfg.Config),
		},
		authn:      authentication(cfg.JWT),
		authorizer: cfg.Enforcer,
	}
}

// Option customizes a single route.
type Option func(*route)

type route struct {
	public bool
	mws    []Middleware
}

// Public skips bearer authentication for the route.
func Public() Option {
	return func(rt *route) { rt.public = true }
}

// With appends route specific middlewares. They run after authentication.
func With(mws ...Middleware) Option {
	return func(rt *route) { rt.mws = append(rt.mws, mws...) }
}

func (r *Router) GET(path string, h Handler, opts ...Option) {
	r.Handle(http.MethodGet, path, h, opts...)
}

func (r *Router) POST(path string, h Handler, opts ...Option) {
	r.Handle(http.MethodPost, path, h, opts...)
}

func (r *Router) PUT(path string, h Handler, opts ...Option) {
	r.Handle(http.MethodPut, path, h, opts...)
}

func (r *Router) PATCH(path string, h Handler, opts ...Option) {
	r.Handle(http.MethodPatch, path, h, opts...)
}

func (r *Router) DELETE(path string, h Handler, opts ...Option) {
	r.Handle(http.MethodDelete, path, h, opts...)
}

func (r *Router) Handle(method, path string, h Handler, opts ...Option) {
	var rt route
	for _, opt := range opts {
		opt(&rt)
	}

	mws := make([]Middleware, 0, len(r.base)+1+len(rt.mws))
	mws = append(mws, r.base...)
	if !rt.public {
		mws = append(mws, r.authn)
	}
	mws = append(mws, rt.mws...)

	r.hr.Handler(method, path, Chain(serve(h), mws...))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func serve(h Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if rec, ok := w.(*responseRecorder); ok {
				rec.err = err
			}
			writeError(w, err)
			return
		}
		writeSuccess(w, resp)
	})
}
