package types

import "errors"

// Store lifecycle errors.
var (
	ErrStoreClosed  = errors.New("store is closed")
	ErrAlreadyOpen  = errors.New("store is already open")
	ErrDataDirEmpty = errors.New("data directory must not be empty")
)

// Catalog operation errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidName   = errors.New("invalid name")
	ErrDuplicateName = errors.New("name already in use")
	ErrProjectCycle  = errors.New("project parent cycle")
)

// Field and record operation errors.
var (
	ErrInvalidFieldType = errors.New("invalid field type")
	ErrInvalidValue     = errors.New("invalid field value")
)

// View operation errors.
var (
	ErrLastView      = errors.New("cannot delete the last view")
	ErrDuplicateView = errors.New("view name already in use")
)

// Config validation errors.
var (
	ErrRecordLimitInvalid = errors.New("record limit must not be negative")
)
