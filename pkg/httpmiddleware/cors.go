package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins permitted to make cross-origin requests.
	// Empty, or a single "*" entry, allows every origin.
	AllowOrigins []string

	// AllowMethods lists methods clients may use in actual requests. When
	// empty the storefront defaults apply: GET, POST, PATCH, OPTIONS.
	AllowMethods []string

	// AllowHeaders lists request headers clients may send. When empty the
	// preflight's Access-Control-Request-Headers value is echoed back.
	AllowHeaders []string

	// ExposeHeaders lists response headers the browser may read.
	ExposeHeaders []string

	// AllowCredentials permits cookies and authorization headers on
	// cross-origin requests. Incompatible with the wildcard origin, so when
	// both are set the middleware echoes the specific origin instead.
	AllowCredentials bool

	// MaxAge is how long, in seconds, browsers may cache preflight results.
	// Zero omits the header.
	MaxAge int
}

// corsHeaders holds the precomputed header values shared by every request.
type corsHeaders struct {
	allowAll bool
	// origins maps the lowercased origin to its configured spelling, which is
	// what gets echoed back.
	origins       map[string]string
	methods       string
	headers       string
	exposeHeaders string
	credentials   bool
	maxAge        string
}

// CORS returns a middleware handling cross-origin resource sharing for the
// storefront API. Origin matching is case-insensitive, and Vary headers are
// set so shared caches never serve one origin's response to another.
func CORS(cfg CORSConfig) Middleware {
	hdr := precomputeCORS(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Same-origin request. Still vary on Origin when matching is
			// origin-specific, so caches keep responses apart.
			if origin == "" {
				if !hdr.allowAll {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			allowOrigin := hdr.resolveOrigin(origin)

			if isPreflight(r) {
				hdr.writePreflight(w, r, allowOrigin)
				return
			}

			if !hdr.allowAll {
				w.Header().Add("Vary", "Origin")
			}
			if allowOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
				if hdr.credentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if hdr.exposeHeaders != "" {
					w.Header().Set("Access-Control-Expose-Headers", hdr.exposeHeaders)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func precomputeCORS(cfg CORSConfig) corsHeaders {
	hdr := corsHeaders{
		allowAll:      len(cfg.AllowOrigins) == 0,
		origins:       make(map[string]string, len(cfg.AllowOrigins)),
		methods:       strings.Join(cfg.AllowMethods, ", "),
		headers:       strings.Join(cfg.AllowHeaders, ", "),
		exposeHeaders: strings.Join(cfg.ExposeHeaders, ", "),
		credentials:   cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			hdr.allowAll = true
			break
		}
		hdr.origins[strings.ToLower(o)] = o
	}
	if hdr.credentials {
		// The wildcard origin is forbidden with credentials.
		hdr.allowAll = false
	}
	if hdr.methods == "" {
		hdr.methods = "GET, POST, PATCH, OPTIONS"
	}
	if cfg.MaxAge > 0 {
		hdr.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return hdr
}

// isPreflight reports whether r is a CORS preflight request: OPTIONS carrying
// an Access-Control-Request-Method header.
func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
}

// resolveOrigin returns the Access-Control-Allow-Origin value for the given
// request origin, or "" when the origin is not allowed.
func (h corsHeaders) resolveOrigin(origin string) string {
	if h.allowAll {
		return "*"
	}
	return h.origins[strings.ToLower(origin)]
}

func (h corsHeaders) writePreflight(w http.ResponseWriter, r *http.Request, allowOrigin string) {
	w.Header().Add("Vary", "Origin")
	w.Header().Add("Vary", "Access-Control-Request-Method")
	w.Header().Add("Vary", "Access-Control-Request-Headers")

	// Disallowed origin: answer the preflight with no CORS headers and let
	// the browser enforce the block.
	if allowOrigin == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
	w.Header().Set("Access-Control-Allow-Methods", h.methods)

	if h.headers != "" {
		w.Header().Set("Access-Control-Allow-Headers", h.headers)
	} else if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
		w.Header().Set("Access-Control-Allow-Headers", rh)
	}

	if h.credentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if h.maxAge != "" {
		w.Header().Set("Access-Control-Max-Age", h.maxAge)
	}

	w.WriteHeader(http.StatusNoContent)
}
