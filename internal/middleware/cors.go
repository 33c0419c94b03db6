package middleware

import (
	"net/http"
	"strings"
)

type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

var defaultCORSMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"}

// CORS answers preflight requests and decorates simple ones. A "*" entry
// in any list allows everything; with credentials enabled a wildcard origin
// is echoed back, since browsers reject "*" on credentialed responses.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	anyOrigin := contains(opts.AllowedOrigins, "*")
	anyMethod := contains(opts.AllowedMethods, "*")
	anyHeader := contains(opts.AllowedHeaders, "*")

	methods := opts.AllowedMethods
	if anyMethod || len(methods) == 0 {
		methods = defaultCORSMethods
	}

	originAllowed := func(origin string) bool {
		if anyOrigin {
			return true
		}
		for _, o := range opts.AllowedOrigins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if !originAllowed(origin) {
				if preflight {
					writeError(w, http.StatusBadRequest, "CORS_REJECTED", "Disallowed CORS origin", r)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if anyOrigin && !opts.AllowCredentials {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			if opts.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if !preflight {
				next.ServeHTTP(w, r)
				return
			}

			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))
			if anyHeader {
				if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
					h.Set("Access-Control-Allow-Headers", reqHeaders)
				}
			} else if len(opts.AllowedHeaders) > 0 {
				h.Set("Access-Control-Allow-Headers", strings.Join(opts.AllowedHeaders, ", "))
			}
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusOK)
		})
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
