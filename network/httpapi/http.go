package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/justinas/alice"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/spikeekips/votebox/util"
)

func HTTPLogHandler(handler http.Handler, logger *zerolog.Logger) http.Handler {
	c := alice.New().
		Append(hlog.NewHandler(*logger)).
		Append(hlog.RemoteAddrHandler("ip")).
		Append(hlog.UserAgentHandler("user_agent")).
		Append(hlog.RequestIDHandler("req_id", "Request-Id")).
		Append(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			url := r.RequestURI
			if url == "" {
				url = r.URL.RequestURI()
			}

			e := hlog.FromRequest(r).Debug().
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Str("method", r.Method).
				Str("remote", r.RemoteAddr).
				Str("url", url)

			if s := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); len(s) > 0 {
				e = e.Strs("x-forwarded-for", strings.Split(s, ","))
			}

			e.Msg("request")
		}))

	return c.Then(handler)
}

type problem struct {
	Message string `json:"message"`
}

// HTTPError writes the status text as json body.
func HTTPError(w http.ResponseWriter, statusCode int) {
	text := http.StatusText(statusCode)
	if len(text) < 1 {
		statusCode = http.StatusInternalServerError
		text = http.StatusText(statusCode)
	}

	writeJSON(w, statusCode, problem{Message: text})
}

func writeJSON(w http.ResponseWriter, statusCode int, i interface{}) {
	b, err := util.JSONMarshal(i)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(b)
}
