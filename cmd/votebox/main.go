package main

import (
	"fmt"
	"os"

	"github.com/spikeekips/votebox/launch/cmds"
	"github.com/spikeekips/votebox/util"
)

// Version is set by ldflags, "-X main.Version=v0.1.0".
var Version = "v0.0.0-dev"

var mainflags = struct {
	Candidates    cmds.CandidatesCommand    `cmd:"" help:"show candidates and vote counts"`
	Status        cmds.StatusCommand        `cmd:"" help:"show whether the account has voted"`
	Vote          cmds.VoteCommand          `cmd:"" help:"vote for the candidate"`
	SwitchNetwork cmds.SwitchNetworkCommand `cmd:"" name:"switch-network" help:"switch the wallet to the configured network"`
	Serve         cmds.ServeCommand         `cmd:"" help:"serve the state and vote api"`
	Version       cmds.VersionCommand       `cmd:"" help:"print version"`
}{
	Candidates:    cmds.NewCandidatesCommand(),
	Status:        cmds.NewStatusCommand(),
	Vote:          cmds.NewVoteCommand(),
	SwitchNetwork: cmds.NewSwitchNetworkCommand(),
	Serve:         cmds.NewServeCommand(),
	Version:       cmds.NewVersionCommand(),
}

func main() {
	kctx, err := cmds.Context(os.Args[1:], &mainflags)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %+v\n", err)

		os.Exit(1)
	}

	version := util.Version(Version)

	if err := kctx.Run(version); err != nil {
		kctx.FatalIfErrorf(err)
	}

	os.Exit(0)
}
