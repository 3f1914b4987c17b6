package vm

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kristofer/smog/pkg/opcode"
)

// trace logs the instruction about to execute and the current stack
// contents at debug level. It's the non-interactive replacement for
// the teacher's step debugger: the spec's Non-goals exclude
// source-level breakpoint debugging, but instruction-level tracing
// through the structured logger is still useful for diagnosing a
// stuck program, so it's gated on log level rather than removed.
func (v *VM) trace(frame *CallFrame) {
	if !v.logger.Core().Enabled(zapcore.DebugLevel) {
		return
	}

	stack := make([]string, v.stackTop)
	for i := 0; i < v.stackTop; i++ {
		stack[i] = v.stack[i].String()
	}

	op := opcode.Op(frame.Closure.Function.Chunk.Code[frame.IP])
	v.logger.Debug("trace",
		zap.Int("ip", frame.IP),
		zap.Stringer("op", op),
		zap.Strings("stack", stack),
	)
}
