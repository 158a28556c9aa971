package cmds

import (
	"context"

	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/util"
	"github.com/spikeekips/votebox/voting"
)

type SwitchNetworkCommand struct {
	*ClientCommand
}

func NewSwitchNetworkCommand() SwitchNetworkCommand {
	return SwitchNetworkCommand{ClientCommand: NewClientCommand("switch-network")}
}

// Run asks the wallet to switch to the configured chain; the chain is
// registered first if the wallet does not know it.
func (cmd *SwitchNetworkCommand) Run(version util.Version) error {
	if err := cmd.Initialize(cmd, version); err != nil {
		return errors.Wrap(err, "failed to initialize command")
	}
	defer cmd.Done()

	if err := cmd.start(context.Background()); err != nil {
		if cmd.client == nil {
			return err
		}

		// NOTE switching does not need the account access
		cmd.Log().Debug().Err(err).Msg("failed to connect")
	}

	if st := cmd.client.State(); !st.Network.Mismatch && st.Network.ChainID != nil {
		cmd.Log().Info().Stringer("chain_id", st.Network.ChainID).Msg("already on target network")

		return cmd.print(st.Network)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	if err := cmd.client.SwitchNetwork(ctx); err != nil {
		ce := voting.Classify(err)

		_ = cmd.print(ce)

		return ce
	}

	params := cmd.conf.Network().ChainParams()

	return cmd.print(voting.Network{
		ChainID: params.ChainID,
		Name:    params.ChainName,
		Target:  params.ChainID,
	})
}
