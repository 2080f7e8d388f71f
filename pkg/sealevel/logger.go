package sealevel

import "fmt"

// ProgramLog records a message from the currently executing program into the
// transaction's log collector. Harness-internal diagnostics go through klog
// instead and never reach the outcome. Logging is metered; once the budget
// is gone messages are dropped rather than recorded for free.
func (execCtx *ExecutionCtx) ProgramLog(format string, args ...any) {
	if err := execCtx.ComputeMeter.Consume(CULogUnits); err != nil {
		return
	}
	txCtx := execCtx.TransactionContext
	txCtx.logs = append(txCtx.logs, fmt.Sprintf(format, args...))
}
