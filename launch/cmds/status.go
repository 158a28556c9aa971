package cmds

import (
	"context"

	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/util"
	"github.com/spikeekips/votebox/voting"
)

type StatusCommand struct {
	*ClientCommand
}

func NewStatusCommand() StatusCommand {
	return StatusCommand{ClientCommand: NewClientCommand("status")}
}

type statusOutput struct {
	Account     string                  `json:"account"`
	Network     voting.Network          `json:"network"`
	VoteStatus  voting.VoteStatus       `json:"vote_status"`
	Error       *voting.ClassifiedError `json:"error,omitempty"`
	Diagnostics []voting.Diagnostic     `json:"diagnostics"`
}

func (cmd *StatusCommand) Run(version util.Version) error {
	if err := cmd.Initialize(cmd, version); err != nil {
		return errors.Wrap(err, "failed to initialize command")
	}
	defer cmd.Done()

	if err := cmd.start(context.Background()); err != nil {
		return err
	}

	st := cmd.client.State()

	cmd.Log().Debug().
		Str("account", util.ShortAddress(st.Account)).
		Bool("voted", st.VoteStatus.Voted).
		Msg("vote status")

	return cmd.print(statusOutput{
		Account:     st.Account,
		Network:     st.Network,
		VoteStatus:  st.VoteStatus,
		Error:       st.Error,
		Diagnostics: st.Diagnostics,
	})
}
