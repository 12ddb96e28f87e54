package gate

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func (g *Gate) writeJSON(w http.ResponseWriter, status int, body map[string]string) {
	raw, _ := json.Marshal(body)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.WriteHeader(status)
	w.Write(raw)
}

func (g *Gate) reject401(w http.ResponseWriter) {
	g.writeJSON(w, http.StatusUnauthorized, map[string]string{
		"error": "API key required",
		"docs":  g.DocsURL,
	})
}

func (g *Gate) reject402QueryTooLong(w http.ResponseWriter) {
	g.writeJSON(w, http.StatusPaymentRequired, map[string]string{
		"error":       "query_too_long",
		"message":     "Search queries this long require an API key.",
		"get_api_key": g.SignupURL,
	})
}

func (g *Gate) reject402RateLimit(w http.ResponseWriter) {
	g.writeJSON(w, http.StatusPaymentRequired, map[string]string{
		"error":       "rate_limit_exceeded",
		"message":     "Too many requests. Get an API key for higher limits.",
		"get_api_key": g.SignupURL,
	})
}

// redirectHome sends unregistered subdomains to the marketing site with an
// empty body.
func (g *Gate) redirectHome(w http.ResponseWriter) {
	w.Header().Set("Location", g.HomeURL)
	w.WriteHeader(http.StatusFound)
}

const notFoundPage = `<!DOCTYPE html>
<html>
<head><title>Page not found</title></head>
<body>
<h1>Page not found</h1>
<p>The page you were looking for doesn't exist. <a href="/">Back to the front page.</a></p>
</body>
</html>
`

// notFoundWriter replaces a backend 404 with a friendly HTML page instead
// of leaking the backend's own error rendering. Used only on non-JSON
// dispatches.
type notFoundWriter struct {
	http.ResponseWriter
	intercepted bool
	wroteHeader bool
}

func (nw *notFoundWriter) WriteHeader(code int) {
	nw.wroteHeader = true
	if code == http.StatusNotFound {
		nw.intercepted = true
		h := nw.Header()
		h.Del("Content-Length")
		h.Set("Content-Type", "text/html; charset=utf-8")
		nw.ResponseWriter.WriteHeader(http.StatusNotFound)
		nw.ResponseWriter.Write([]byte(notFoundPage))
		return
	}
	nw.ResponseWriter.WriteHeader(code)
}

func (nw *notFoundWriter) Write(b []byte) (int, error) {
	if !nw.wroteHeader {
		nw.WriteHeader(http.StatusOK)
	}
	if nw.intercepted {
		// Swallow the backend's own 404 body.
		return len(b), nil
	}
	return nw.ResponseWriter.Write(b)
}

func (nw *notFoundWriter) Flush() {
	if f, ok := nw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// aiCrawlers is the robots.txt blocklist of AI-training crawlers.
var aiCrawlers = []string{
	"Google-Extended",
	"GPTBot",
	"ChatGPT-User",
	"CCBot",
	"PerplexityBot",
	"anthropic-ai",
	"Claude-Web",
	"ClaudeBot",
	"Amazonbot",
	"FacebookBot",
	"Omgilibot",
	"Diffbot",
	"Bytespider",
	"ImagesiftBot",
}

func (g *Gate) writeRobots(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, agent := range aiCrawlers {
		w.Write([]byte("User-agent: " + agent + "\nDisallow: /\n\n"))
	}
	w.Write([]byte("User-agent: *\nAllow: /\n"))
}
