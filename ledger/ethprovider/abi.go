package ethprovider

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/abi"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/util"
)

//go:embed voting.abi.json
var votingABIJSON []byte

const (
	methodGetCandidates      = "getCandidates"
	methodGetCandidatesCount = "getCandidatesCount"
	methodCandidates         = "candidates"
	methodHasVoted           = "hasVoted"
	methodVoters             = "voters"
	methodVote               = "vote"
	eventVoted               = "Voted"
)

// VotingABI is the built-in ABI of the voting contract.
func VotingABI() abi.ABI {
	a, err := abi.JSON(bytes.NewReader(votingABIJSON))
	if err != nil {
		panic(errors.Wrap(err, "failed to parse built-in voting abi"))
	}

	return a
}

// LoadABI reads the ABI from file. The file may be the plain ABI array or the
// compiled artifact which has the "abi" field.
func LoadABI(f string) (abi.ABI, error) {
	b, err := os.ReadFile(filepath.Clean(f))
	if err != nil {
		return abi.ABI{}, errors.Wrapf(err, "failed to read abi file, %q", f)
	}

	b = bytes.TrimSpace(b)

	if len(b) > 0 && b[0] == '{' {
		var artifact struct {
			ABI jsoniter.RawMessage `json:"abi"`
		}

		if err := util.JSONUnmarshal(b, &artifact); err != nil {
			return abi.ABI{}, errors.Wrapf(err, "failed to parse artifact, %q", f)
		}

		b = artifact.ABI
	}

	a, err := abi.JSON(bytes.NewReader(b))
	if err != nil {
		return abi.ABI{}, errors.Wrapf(err, "failed to parse abi, %q", f)
	}

	return a, nil
}
