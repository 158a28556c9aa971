package cmds

import (
	"context"

	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/util"
	"github.com/spikeekips/votebox/voting"
)

type CandidatesCommand struct {
	*ClientCommand
}

func NewCandidatesCommand() CandidatesCommand {
	return CandidatesCommand{ClientCommand: NewClientCommand("candidates")}
}

type candidatesOutput struct {
	Network     voting.Network         `json:"network"`
	Contract    string                 `json:"contract"`
	Candidates  []voting.Candidate     `json:"candidates"`
	Source      voting.CandidateSource `json:"source"`
	TotalVotes  uint64                 `json:"total_votes"`
	Diagnostics []voting.Diagnostic    `json:"diagnostics"`
}

// Run prints the candidates. Without connection the placeholder candidates
// are printed with the connection diagnostic.
func (cmd *CandidatesCommand) Run(version util.Version) error {
	if err := cmd.Initialize(cmd, version); err != nil {
		return errors.Wrap(err, "failed to initialize command")
	}
	defer cmd.Done()

	if err := cmd.start(context.Background()); err != nil {
		if cmd.client == nil {
			return err
		}

		cmd.Log().Debug().Err(err).Msg("failed to connect")
	}

	st := cmd.client.State()

	return cmd.print(candidatesOutput{
		Network:     st.Network,
		Contract:    st.Contract.Hex(),
		Candidates:  st.Candidates,
		Source:      st.Source,
		TotalVotes:  st.TotalVotes,
		Diagnostics: st.Diagnostics,
	})
}
