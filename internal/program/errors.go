// internal/program/errors.go
package program

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Code is a custom program error returned by the arbitrage program.
// Values are part of the on-chain ABI: do not reorder.
type Code uint32

const (
	// ErrInstructionDataTooShort means the payload is shorter than its fixed layout.
	ErrInstructionDataTooShort Code = iota
	// ErrInvalidTradeAmount means the trade amount is zero.
	ErrInvalidTradeAmount
	// ErrUnsupportedPoolType means a pool tag outside 0..6.
	ErrUnsupportedPoolType
	// ErrNotEnoughAccounts means the account list is shorter than header plus hop groups.
	ErrNotEnoughAccounts
	// ErrInvalidTokenAccountData means a token account balance could not be read.
	ErrInvalidTokenAccountData
	// ErrArbitrageFailed means the final reference balance did not clear the minimum profit.
	ErrArbitrageFailed
	// ErrInsufficientBalance means the reference account cannot fund the first hop.
	ErrInsufficientBalance
	// ErrInvalidPoolConfiguration means a route or pool account group is malformed.
	ErrInvalidPoolConfiguration
	// ErrCpiCallFailed means an invoked AMM program returned an error.
	ErrCpiCallFailed
	// ErrAccountOwnerMismatch means an account is not owned by the expected program.
	ErrAccountOwnerMismatch
	// ErrPumpNotSupported means the Pump AMM was used as the middle hop.
	ErrPumpNotSupported
)

var codeMessages = map[Code]string{
	ErrInstructionDataTooShort:  "instruction data too short",
	ErrInvalidTradeAmount:       "invalid trade amount: amount cannot be zero",
	ErrUnsupportedPoolType:      "unsupported pool type",
	ErrNotEnoughAccounts:        "not enough accounts provided",
	ErrInvalidTokenAccountData:  "invalid token account data",
	ErrArbitrageFailed:          "arbitrage failed: final balance not greater than initial plus min profit",
	ErrInsufficientBalance:      "insufficient token balance",
	ErrInvalidPoolConfiguration: "invalid pool configuration",
	ErrCpiCallFailed:            "cross-program invocation failed",
	ErrAccountOwnerMismatch:     "account owner mismatch",
	ErrPumpNotSupported:         "pump not supported in step 2",
}

var codeNames = [...]string{
	"InstructionDataTooShort",
	"InvalidTradeAmount",
	"UnsupportedPoolType",
	"NotEnoughAccounts",
	"InvalidTokenAccountData",
	"ArbitrageFailed",
	"InsufficientBalance",
	"InvalidPoolConfiguration",
	"CpiCallFailed",
	"AccountOwnerMismatch",
	"PumpNotSupported",
}

// Name returns the identifier of the code, e.g. "ArbitrageFailed".
func (c Code) Name() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("Custom%d", uint32(c))
}

// Error implements the error interface.
func (c Code) Error() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return fmt.Sprintf("custom program error: 0x%x", uint32(c))
}

// Error attaches a cause to a Code. errors.Is matches it against the bare Code.
type Error struct {
	Code  Code
	Cause error
}

// Wrap returns err tagged with code. A nil cause yields the bare code.
func Wrap(code Code, cause error) error {
	if cause == nil {
		return code
	}
	return &Error{Code: code, Cause: cause}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Code.Error(), e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the same Code.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

// CodeOf extracts the outermost program error code from err.
func CodeOf(err error) (Code, bool) {
	var wrapped *Error
	if errors.As(err, &wrapped) {
		return wrapped.Code, true
	}
	var code Code
	if errors.As(err, &code) {
		return code, true
	}
	return 0, false
}

const customErrorMarker = "custom program error: 0x"

// ParseCustomError finds "custom program error: 0x.." in an RPC error message or
// simulation log line and returns the code.
func ParseCustomError(msg string) (Code, bool) {
	idx := strings.Index(msg, customErrorMarker)
	if idx < 0 {
		return 0, false
	}
	hex := msg[idx+len(customErrorMarker):]
	end := 0
	for end < len(hex) && strings.ContainsRune("0123456789abcdefABCDEF", rune(hex[end])) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseUint(hex[:end], 16, 32)
	if err != nil {
		return 0, false
	}
	return Code(v), true
}
