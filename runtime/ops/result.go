package ops

import (
	"errors"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/runtime/operation"
)

// checkResult reports res to the context's Report sink (if any), then
// applies the check contract (spec's `check` parameter, default
// enabled): a failed result is returned verbatim when noCheck is true,
// otherwise it is additionally converted into an error whose caller
// site points at the user script line that invoked the operation, not
// this helper or the operation function itself.
func (c *Context) checkResult(res *types.OperationResult, noCheck bool) (*types.OperationResult, error) {
	if c.Report != nil {
		c.Report(res)
	}
	if res.Success || noCheck {
		return res, nil
	}
	return res, operation.FailWith(errors.New(res.FailureMessage), 3)
}
