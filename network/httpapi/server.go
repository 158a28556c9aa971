package httpapi

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/spikeekips/votebox/util"
	"github.com/spikeekips/votebox/util/logging"
	"github.com/spikeekips/votebox/voting"
)

var (
	HandlerPathState         = "/state"
	HandlerPathCandidates    = "/candidates"
	HandlerPathStatus        = "/status"
	HandlerPathVote          = "/vote"
	HandlerPathRefresh       = "/refresh"
	HandlerPathSwitchNetwork = "/network/switch"
)

var (
	MaxRequestBodySize  int64 = 1 << 12
	ReadHeaderTimeout         = time.Second * 5
	ShutdownTimeout           = time.Second * 5
)

// Client is the part of voting.Client served by the api.
type Client interface {
	State() voting.State
	Vote(context.Context, uint64) (voting.VoteReceipt, error)
	Refresh(context.Context) error
	SwitchNetwork(context.Context) error
}

type Server struct {
	sync.RWMutex
	*logging.Logging
	bind     string
	client   Client
	limiter  *RateLimitMiddleware
	router   *mux.Router
	daemon   *util.ContextDaemon
	listener net.Listener
	addr     net.Addr
}

// NewServer serves the client. POST /vote goes through the given rate limit
// middleware; nil means no limit.
func NewServer(bind string, client Client, lm *RateLimitMiddleware) *Server {
	sv := &Server{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "httpapi")
		}),
		bind:    bind,
		client:  client,
		limiter: lm,
		router:  mux.NewRouter(),
	}

	sv.setHandlers()
	sv.daemon = util.NewContextDaemon("httpapi", sv.serve)

	return sv
}

func (sv *Server) SetLogging(l *logging.Logging) *logging.Logging {
	_ = sv.daemon.SetLogging(l)

	return sv.Logging.SetLogging(l)
}

func (sv *Server) Handler() http.Handler {
	return HTTPLogHandler(sv.router, sv.Log())
}

// Start listens the bind address and serves in background.
func (sv *Server) Start() error {
	sv.Lock()
	defer sv.Unlock()

	if sv.daemon.IsStarted() {
		return util.DaemonAlreadyStartedError
	}

	ln, err := net.Listen("tcp", sv.bind)
	if err != nil {
		return errors.Wrapf(err, "failed to listen, %q", sv.bind)
	}

	sv.addr = ln.Addr()
	sv.listener = ln

	return sv.daemon.Start()
}

func (sv *Server) Stop() error {
	return sv.daemon.Stop()
}

// Addr is the listening address after Start.
func (sv *Server) Addr() net.Addr {
	sv.RLock()
	defer sv.RUnlock()

	return sv.addr
}

func (sv *Server) serve(ctx context.Context) error {
	sv.RLock()
	ln := sv.listener
	sv.RUnlock()

	srv := &http.Server{
		Handler:           sv.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ErrorLog: log.New(logging.NewZerologSTDLoggingWriter(func() *zerolog.Event {
			return sv.Log().Error()
		}), "", 0),
	}

	errch := make(chan error, 1)

	go func() {
		errch <- srv.Serve(ln)
	}()

	sv.Log().Info().Stringer("addr", ln.Addr()).Msg("api started")

	select {
	case err := <-errch:
		return errors.Wrap(err, "api stopped")
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return errors.Wrap(err, "failed to shutdown api")
	}

	if err := <-errch; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	sv.Log().Info().Msg("api stopped")

	return nil
}

func (sv *Server) setHandlers() {
	_ = sv.router.HandleFunc(HandlerPathState, sv.handleState).Methods(http.MethodGet)
	_ = sv.router.HandleFunc(HandlerPathCandidates, sv.handleCandidates).Methods(http.MethodGet)
	_ = sv.router.HandleFunc(HandlerPathStatus, sv.handleStatus).Methods(http.MethodGet)
	_ = sv.router.HandleFunc(HandlerPathRefresh, sv.handleRefresh).Methods(http.MethodPost)
	_ = sv.router.HandleFunc(HandlerPathSwitchNetwork, sv.handleSwitchNetwork).Methods(http.MethodPost)

	var vote http.Handler = http.HandlerFunc(sv.handleVote)
	if sv.limiter != nil {
		vote = sv.limiter.Middleware(vote)
	}

	_ = sv.router.Handle(HandlerPathVote, vote).Methods(http.MethodPost)
}

func (sv *Server) readBody(w http.ResponseWriter, r *http.Request, i interface{}) error {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxRequestBodySize))
	if err != nil {
		return errors.Wrap(err, "failed to read body")
	}

	if len(b) < 1 {
		return errors.Errorf("empty body")
	}

	return util.JSONUnmarshal(b, i)
}
