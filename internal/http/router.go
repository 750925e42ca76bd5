package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"

	"jobapply/internal/http/handlers"
	"jobapply/internal/http/metrics"
	httpmw "jobapply/internal/http/middleware"
)

type RouterDependencies struct {
	ApplicationHandler *handlers.ApplicationHandler
	MetricsHandler     *metrics.Handler
	Metrics            *metrics.Collector
	RequestTimeout     time.Duration
	MaxBodyBytes       int64
}

type Router struct {
	deps RouterDependencies
	cors *cors.Cors
}

func NewRouter(deps RouterDependencies) http.Handler {
	return &Router{deps: deps, cors: cors.AllowAll()}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := httpmw.Chain(r.baseHandler(), httpmw.RequestID, httpmw.Logging, httpmw.BodyLimit(r.deps.MaxBodyBytes), httpmw.Recover, httpmw.Metrics(r.deps.Metrics), httpmw.Timeout(r.deps.RequestTimeout))
	r.cors.Handler(handler).ServeHTTP(w, req)
}

func (r *Router) baseHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path

		switch {
		case req.Method == http.MethodGet && path == "/health":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		case req.Method == http.MethodGet && path == "/metrics":
			r.deps.MetricsHandler.ServeHTTP(w, req)
			return
		case req.Method == http.MethodPost && path == "/api/check-duplicate":
			r.deps.ApplicationHandler.CheckDuplicate(w, req)
			return
		case req.Method == http.MethodPost && path == "/api/applications":
			r.deps.ApplicationHandler.Create(w, req)
			return
		case req.Method == http.MethodGet && path == "/api/applications":
			r.deps.ApplicationHandler.List(w, req)
			return
		case req.Method == http.MethodDelete && path == "/api/applications":
			r.deps.ApplicationHandler.Delete(w, req)
			return
		case req.Method == http.MethodGet && strings.HasPrefix(path, "/api/applications/") && strings.HasSuffix(path, "/document/offerLetter"):
			r.deps.ApplicationHandler.DownloadOfferLetter(w, req)
			return
		case req.Method == http.MethodPut && strings.HasPrefix(path, "/api/applications/") && strings.HasSuffix(path, "/status"):
			r.deps.ApplicationHandler.UpdateStatus(w, req)
			return
		case req.Method == http.MethodPut && strings.HasPrefix(path, "/api/applications/") && strings.HasSuffix(path, "/offer-letter"):
			r.deps.ApplicationHandler.AttachOfferLetter(w, req)
			return
		case req.Method == http.MethodGet && strings.HasPrefix(path, "/api/applications/"):
			r.deps.ApplicationHandler.Get(w, req)
			return
		}

		http.NotFound(w, req)
	})
}
