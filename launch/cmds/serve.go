package cmds

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/network/httpapi"
	"github.com/spikeekips/votebox/util"
)

type ServeCommand struct {
	*ClientCommand
	Bind      string        `name:"bind" help:"api bind address"`
	VoteRate  string        `name:"vote-rate" help:"rate limit of vote request per ip, like '6-M'"`
	ExitAfter time.Duration `name:"exit-after" help:"exit after the given duration"`
}

func NewServeCommand() ServeCommand {
	return ServeCommand{ClientCommand: NewClientCommand("serve")}
}

func (cmd *ServeCommand) Run(version util.Version) error {
	if err := cmd.Initialize(cmd, version); err != nil {
		return errors.Wrap(err, "failed to initialize command")
	}
	defer cmd.Done()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.start(ctx); err != nil {
		if cmd.client == nil {
			return err
		}

		// NOTE the api serves the placeholder state; POST /refresh connects
		// again.
		cmd.Log().Error().Err(err).Msg("failed to connect; serving without connection")
	}

	sv, err := cmd.server()
	if err != nil {
		return err
	}

	if err := sv.Start(); err != nil {
		return err
	}

	defer func() {
		_ = sv.Stop()
	}()

	cmd.Log().Info().Stringer("bind", sv.Addr()).Msg("serving")

	if cmd.ExitAfter > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, cmd.ExitAfter)

		defer cancel()
	}

	<-ctx.Done()

	cmd.Log().Info().Msg("stopping")

	return nil
}

func (cmd *ServeCommand) server() (*httpapi.Server, error) {
	api := cmd.conf.API()

	if len(cmd.Bind) > 0 {
		if err := api.SetBind(cmd.Bind); err != nil {
			return nil, err
		}
	}

	if len(cmd.VoteRate) > 0 {
		if err := api.SetVoteRate(cmd.VoteRate); err != nil {
			return nil, err
		}
	}

	store, err := httpapi.RateLimitStoreFromURI(api.RateLimitStore())
	if err != nil {
		return nil, err
	}

	sv := httpapi.NewServer(api.Bind(), cmd.client, httpapi.NewRateLimitMiddleware(api.VoteRate(), store))
	_ = sv.SetLogging(cmd.Logging)

	return sv, nil
}
