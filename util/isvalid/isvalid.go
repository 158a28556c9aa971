package isvalid

import "github.com/spikeekips/votebox/util"

var InvalidError = util.NewError("invalid")

type IsValider interface {
	IsValid([]byte) error
}
