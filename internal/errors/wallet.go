package errors

var (
	ErrInvalidAmount = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_AMOUNT",
		Message: "amount must be strictly positive",
	}
	ErrMissingIdempotencyKey = &DomainError{
		Kind:    KindValidation,
		Code:    "MISSING_IDEMPOTENCY_KEY",
		Message: "idempotency key is required",
	}
	ErrInvalidIdempotencyKey = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_IDEMPOTENCY_KEY",
		Message: "invalid idempotency key",
	}
	ErrSameAccount = &DomainError{
		Kind:    KindValidation,
		Code:    "SAME_ACCOUNT",
		Message: "source and destination must differ",
	}
	ErrInvalidOperation = &DomainError{
		Kind:    KindValidation,
		Code:    "INVALID_OPERATION",
		Message: "invalid operation kind",
	}
	ErrBalanceLimit = &DomainError{
		Kind:    KindValidation,
		Code:    "BALANCE_LIMIT",
		Message: "balance would exceed the supported precision",
	}
	ErrMissingTenant = &DomainError{
		Kind:    KindValidation,
		Code:    "MISSING_TENANT",
		Message: "tenant is required",
	}
	ErrRollbackOfRollback = &DomainError{
		Kind:    KindValidation,
		Code:    "ROLLBACK_OF_ROLLBACK",
		Message: "a rollback entry cannot be rolled back",
	}
	ErrRequestCanceled = &DomainError{
		Kind:    KindInternal,
		Code:    "REQUEST_CANCELED",
		Message: "request canceled before execution",
	}

	ErrAccountNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "account not found",
	}
	ErrTransactionNotFound = &DomainError{
		Kind:    KindNotFound,
		Code:    "TRANSACTION_NOT_FOUND",
		Message: "original transaction not found",
	}

	ErrInsufficientFunds = &DomainError{
		Kind:    KindInsufficientFunds,
		Code:    "INSUFFICIENT_FUNDS",
		Message: "insufficient funds",
	}

	ErrIdempotencyConflict = &DomainError{
		Kind:    KindConflict,
		Code:    "IDEMPOTENCY_KEY_REUSED",
		Message: "idempotency key reused with a different payload",
	}
	ErrTxConflict = &DomainError{
		Kind:    KindInternal,
		Code:    "TX_CONFLICT",
		Message: "transaction could not be serialized, retry later",
	}
)

// Forbidden builds an authorization error for the given policy reason code.
func Forbidden(reason, detail string) *DomainError {
	return &DomainError{
		Kind:    KindAuthorization,
		Code:    reason,
		Message: "operation not permitted",
		Detail:  detail,
	}
}
