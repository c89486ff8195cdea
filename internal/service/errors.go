package service

import "errors"

var (
	ErrValidation           = errors.New("validation failed")
	ErrCardNotFound         = errors.New("card not found")
	ErrCardAlreadyExists    = errors.New("card already exists")
	ErrCardNotActivated     = errors.New("card not activated")
	ErrCardAlreadyActivated = errors.New("card already activated")
	ErrStoreUnavailable     = errors.New("card store unavailable")
	ErrUpstream             = errors.New("upstream service failure")

	ErrBatchAttemptsExhausted = errors.New("exhausted attempts generating unique card ids")
	ErrBatchInsertFailed      = errors.New("batch insert rejected by store")
)
