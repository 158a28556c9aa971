package cmds

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/util"
	"github.com/spikeekips/votebox/voting"
)

type VoteCommand struct {
	*ClientCommand
	Ordinal uint64 `arg:"" name:"ordinal" help:"ordinal of candidate, starts from 0"`
}

func NewVoteCommand() VoteCommand {
	return VoteCommand{ClientCommand: NewClientCommand("vote")}
}

func (cmd *VoteCommand) Run(version util.Version) error {
	if err := cmd.Initialize(cmd, version); err != nil {
		return errors.Wrap(err, "failed to initialize command")
	}
	defer cmd.Done()

	if err := cmd.start(context.Background()); err != nil {
		return err
	}

	ch := make(chan voting.PendingVote, 8)
	sub := cmd.client.SubscribePendingVotes(ch)

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for {
			select {
			case <-sub.Err():
				return
			case pv := <-ch:
				e := cmd.Log().Info().
					Str("attempt", pv.ID).
					Uint64("ordinal", pv.Ordinal).
					Str("account", util.ShortAddress(pv.Account.Hex())).
					Str("state", string(pv.State))
				if pv.TxHash != nil {
					e = e.Stringer("tx", pv.TxHash)
				}

				e.Msg("vote")
			}
		}
	}()

	// NOTE timeout bounds the status check; the confirmation is waited
	// without timeout.
	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	receipt, err := cmd.client.Vote(ctx, cmd.Ordinal)

	sub.Unsubscribe()
	wg.Wait()

	if err != nil {
		ce := voting.Classify(err)

		_ = cmd.print(ce)

		return ce
	}

	return cmd.print(receipt)
}
