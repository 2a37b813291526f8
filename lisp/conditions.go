// Copyright © 2018 The ELPS authors

package lisp

// Condition names of the errors raised by the runtime.  A try clause
// catches a condition by the keyword with the same name, e.g.
// :type-error.
const (
	CondError              = "error"
	CondParseError         = "parse-error"
	CondCompileError       = "compile-error"
	CondUndefinedSymbol    = "undefined-symbol"
	CondNoApplicableMethod = "no-applicable-method"
	CondHostError          = "host-error"
	CondStackOverflow      = "stack-overflow"
	CondControlError       = "control-error"
	CondPanic              = "panic"
	CondTypeError          = "type-error"
	CondArityError         = "arity-error"
	CondArgumentError      = "argument-error"
	CondArithmeticError    = "arithmetic-error"
	CondAssignmentError    = "assignment-error"
	CondDefineError        = "define-error"
	CondFormatError        = "format-error"
	CondIndexError         = "index-error"
	CondMemberError        = "member-error"
	CondGeneratorExhausted = "generator-exhausted"
)
