package harness

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Overclock-Validator/nacre/pkg/accounts"
	"github.com/Overclock-Validator/nacre/pkg/cu"
	"github.com/Overclock-Validator/nacre/pkg/sealevel"
	"github.com/gagliardetto/solana-go"
)

// AccountCheck asserts the post-execution state of one working-set account
// after a chain step. Nil fields are not checked.
type AccountCheck struct {
	Pubkey     solana.PublicKey
	Lamports   *uint64
	Data       []byte
	Owner      *solana.PublicKey
	Executable *bool
}

// ChainStep pairs one instruction with its expected outcome. A nil
// ExpectedErr means the step must succeed.
type ChainStep struct {
	Instruction sealevel.Instruction
	ExpectedErr error
	Checks      []AccountCheck
}

// RunChain executes instructions in order against one shared compute budget.
// Each instruction commits or rolls back individually; the chain halts after
// the first failing instruction, whose outcome is still included. Effects of
// earlier successful instructions stay committed - a chain is a sequence of
// atomic steps, not one atomic unit.
func (h *Harness) RunChain(ixs []sealevel.Instruction) []ExecutionOutcome {
	meter := cu.NewComputeMeter(h.ComputeBudget)

	outcomes := make([]ExecutionOutcome, 0, len(ixs))
	for _, ix := range ixs {
		outcome := h.execute(ix, &meter)
		outcomes = append(outcomes, outcome)
		if outcome.Err != nil {
			break
		}
	}
	return outcomes
}

// RunCheckedChain is RunChain with per-step validation: after each executed
// step the outcome is matched against the step's expected error and account
// checks, and the first mismatch stops the chain with a descriptive error.
// A failure the step expected is not a mismatch, though it still halts the
// chain like any other failure.
func (h *Harness) RunCheckedChain(steps []ChainStep) ([]ExecutionOutcome, error) {
	meter := cu.NewComputeMeter(h.ComputeBudget)

	outcomes := make([]ExecutionOutcome, 0, len(steps))
	for idx, step := range steps {
		outcome := h.execute(step.Instruction, &meter)
		outcomes = append(outcomes, outcome)
		if err := checkOutcome(idx, step, outcome); err != nil {
			return outcomes, err
		}
		if outcome.Err != nil {
			break
		}
	}
	return outcomes, nil
}

func checkOutcome(stepIdx int, step ChainStep, outcome ExecutionOutcome) error {
	if !errors.Is(outcome.Err, step.ExpectedErr) {
		return fmt.Errorf("step %d: error %v, expected %v", stepIdx, outcome.Err, step.ExpectedErr)
	}

	for _, check := range step.Checks {
		acct, found := postAccount(outcome, check.Pubkey)
		if !found {
			return fmt.Errorf("step %d: account %s not in the working set", stepIdx, check.Pubkey)
		}
		if check.Lamports != nil && acct.Lamports != *check.Lamports {
			return fmt.Errorf("step %d: account %s holds %d lamports, expected %d", stepIdx, check.Pubkey, acct.Lamports, *check.Lamports)
		}
		if check.Data != nil && !bytes.Equal(acct.Data, check.Data) {
			return fmt.Errorf("step %d: account %s data mismatch", stepIdx, check.Pubkey)
		}
		if check.Owner != nil && acct.Owner != *check.Owner {
			return fmt.Errorf("step %d: account %s owned by %s, expected %s", stepIdx, check.Pubkey, acct.Owner, *check.Owner)
		}
		if check.Executable != nil && acct.Executable != *check.Executable {
			return fmt.Errorf("step %d: account %s executable=%v, expected %v", stepIdx, check.Pubkey, acct.Executable, *check.Executable)
		}
	}
	return nil
}

func postAccount(outcome ExecutionOutcome, pubkey solana.PublicKey) (accounts.Account, bool) {
	for _, acct := range outcome.PostAccounts {
		if acct.Key == pubkey {
			return acct, true
		}
	}
	return accounts.Account{}, false
}
