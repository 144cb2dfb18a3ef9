// errors.go: Error codes for the Hypnos command and configuration manager
//
// All errors produced by this package carry a structured code from the
// go-errors library, so callers can branch on failure class without
// matching message text.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hypnos

import (
	"github.com/agilira/go-errors"
)

// Error codes for all Hypnos operations
const (
	// ErrCodeDeclaration covers invalid command or parameter declarations:
	// duplicate names, malformed inline parameters, registration after wake.
	ErrCodeDeclaration = "HYPNOS_DECLARATION_ERROR"

	// ErrCodeHookProtocol covers malformed hook values: unresolvable
	// sentinels, shared slots deferring to themselves, unknown leaves.
	ErrCodeHookProtocol = "HYPNOS_HOOK_PROTOCOL"

	// ErrCodeUnknownConfig is raised when an override prefix matches no
	// tracked configuration, or a prefixed override cannot be accepted
	// by its target.
	ErrCodeUnknownConfig = "HYPNOS_UNKNOWN_CONFIG"

	// ErrCodeAmbiguousPrefix is raised when an override prefix matches
	// more than one configuration in exclusive-prefixed mode.
	ErrCodeAmbiguousPrefix = "HYPNOS_AMBIGUOUS_PREFIX"

	// ErrCodeNonExclusiveOverride is raised when an unprefixed override
	// is accepted by more than one configuration in exclusive-shared mode.
	ErrCodeNonExclusiveOverride = "HYPNOS_NON_EXCLUSIVE_OVERRIDE"

	// ErrCodeDuplicateOverride is raised when the same resolved override
	// key is supplied more than once and uniqueness is enforced.
	ErrCodeDuplicateOverride = "HYPNOS_DUPLICATE_OVERRIDE"

	// ErrCodeTypeValidation is raised when a value cannot be coerced to a
	// strongly-typed field's declared type.
	ErrCodeTypeValidation = "HYPNOS_TYPE_VALIDATION"

	// ErrCodeParameterCollision is raised when a resolved call argument
	// name collides with a declared parameter or configuration id.
	ErrCodeParameterCollision = "HYPNOS_PARAMETER_COLLISION"

	// ErrCodeInvocation covers wake-time failures: no command selected,
	// unknown command, hook pipeline aborts.
	ErrCodeInvocation = "HYPNOS_INVOCATION_ERROR"

	ErrCodeFileNotFound  = "HYPNOS_FILE_NOT_FOUND"
	ErrCodeIO            = "HYPNOS_IO_ERROR"
	ErrCodeInvalidFormat = "HYPNOS_INVALID_FORMAT"
)

// errorCode extracts the structured code from an error, or "" when the
// error carries none.
func errorCode(err error) string {
	if coder, ok := err.(errors.ErrorCoder); ok {
		return string(coder.ErrorCode())
	}
	return ""
}

// hasErrorCode reports whether err carries the given structured code.
func hasErrorCode(err error, code string) bool {
	return err != nil && errorCode(err) == code
}
