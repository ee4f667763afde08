package webhandlers

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/lexalign/concordance/pkg/server/handlertools"
)

// ProxyHandler streams requests to the document comparison service. The
// incoming path is replaced by the target's path; the query string is kept.
func ProxyHandler(target string) (http.Handler, error) {
	if target == "" {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlertools.RenderError(w, fmt.Errorf("compare service URL is not configured"), http.StatusBadGateway)
		}), nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy target %q: %w", target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy target %q: scheme and host are required", target)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.Out.URL.Path = u.Path
			pr.Out.URL.RawPath = u.RawPath
			pr.Out.URL.RawQuery = joinQuery(u.RawQuery, pr.In.URL.RawQuery)
			pr.SetXForwarded()
		},
		// flush immediately so streamed responses are not buffered
		FlushInterval: -1,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Errorf("proxy to %s failed: %s", u.Host, err)
			handlertools.RenderError(w, fmt.Errorf("failed to proxy request: %w", err), http.StatusBadGateway)
		},
	}
	return proxy, nil
}

func joinQuery(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "&" + b
	}
}
