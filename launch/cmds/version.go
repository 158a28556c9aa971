package cmds

import (
	"runtime"

	"github.com/spikeekips/votebox/util"
)

type VersionCommand struct {
	*BaseCommand
}

func NewVersionCommand() VersionCommand {
	return VersionCommand{BaseCommand: NewBaseCommand("version")}
}

func (cmd *VersionCommand) Run(version util.Version) error {
	if err := cmd.Initialize(cmd, version); err != nil {
		return err
	}

	return cmd.print(map[string]string{
		"version": version.String(),
		"go":      runtime.Version(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	})
}
