package sealevel

import (
	"github.com/Overclock-Validator/nacre/pkg/base58"
	"github.com/gagliardetto/solana-go"
)

const SystemProgramAddrStr = "11111111111111111111111111111111"

var SystemProgramAddr = base58.MustDecodeFromString(SystemProgramAddrStr)

const NativeLoaderAddrStr = "NativeLoader1111111111111111111111111111111"

var NativeLoaderAddr = base58.MustDecodeFromString(NativeLoaderAddrStr)

const IncineratorAddrStr = "1nc1nerator11111111111111111111111111111111"

var IncineratorAddr = base58.MustDecodeFromString(IncineratorAddrStr)

// ProgramFn is the handler callback for one program. It receives the full
// execution context and mutates accounts only through borrowed handles.
type ProgramFn func(execCtx *ExecutionCtx) error

// ProgramRegistry maps program ids to handlers: builtins plus any handlers a
// test registers. It replaces bytecode loading; the VM is an external
// collaborator the harness never sees.
type ProgramRegistry struct {
	handlers map[solana.PublicKey]ProgramFn
}

func NewProgramRegistry() *ProgramRegistry {
	registry := &ProgramRegistry{handlers: make(map[solana.PublicKey]ProgramFn)}
	registry.Register(SystemProgramAddr, SystemProgramExecute)
	return registry
}

func (registry *ProgramRegistry) Register(programId solana.PublicKey, fn ProgramFn) {
	registry.handlers[programId] = fn
}

func (registry *ProgramRegistry) Resolve(programId solana.PublicKey) (ProgramFn, error) {
	fn, ok := registry.handlers[programId]
	if !ok {
		return nil, InstrErrUnsupportedProgramId
	}
	return fn, nil
}

func verifySigner(authorized solana.PublicKey, signers []solana.PublicKey) error {
	for _, signer := range signers {
		if signer == authorized {
			return nil
		}
	}
	return InstrErrMissingRequiredSignature
}
