package domain

import "errors"

var (
	ErrDuplicateIdentity  = errors.New("duplicate identity")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrCallNotAllowed     = errors.New("calls are disabled in anonymized mode")
	ErrCallInProgress     = errors.New("another call is already active")
	ErrNoSuchCallState    = errors.New("call is not in a state that allows this transition")
)
