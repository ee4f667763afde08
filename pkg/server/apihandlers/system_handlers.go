package apihandlers

import (
	"net"
	"net/http"
	"os"

	"github.com/lexalign/concordance/pkg/models"
	"github.com/lexalign/concordance/pkg/server/handlertools"
)

// HealthHandler reports that the service is up.
//
//	GET /health
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	if err := handlertools.EncodeJSON(w, map[string]string{"health": "OK"}); err != nil {
		handlertools.RenderError(w, err, http.StatusInternalServerError)
	}
}

type RequestEcho struct {
	Path     string              `json:"path"`
	Method   string              `json:"method"`
	Headers  map[string][]string `json:"headers"`
	Query    map[string][]string `json:"query"`
	Hostname string              `json:"hostname"`
	Protocol string              `json:"protocol"`
	ServerOS string              `json:"server_hostname"`
}

type EnvironmentResponse struct {
	AppName  string      `json:"app_name"`
	ClientIP string      `json:"client_ip"`
	Echo     RequestEcho `json:"echo"`
}

// GetEnvironmentHandler describes the service and echoes the request.
//
//	GET /getEnvironment
func GetEnvironmentHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hostname, _ := os.Hostname()
		protocol := "http"
		if r.TLS != nil {
			protocol = "https"
		}

		resp := EnvironmentResponse{
			AppName:  appState.Config.Concordance.AppName,
			ClientIP: clientIP(r),
			Echo: RequestEcho{
				Path:     r.URL.Path,
				Method:   r.Method,
				Headers:  r.Header,
				Query:    r.URL.Query(),
				Hostname: r.Host,
				Protocol: protocol,
				ServerOS: hostname,
			},
		}
		if err := handlertools.EncodeJSON(w, resp); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
		}
	}
}

// clientIP strips the port from RemoteAddr, which RealIP may already have
// replaced with a bare address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
