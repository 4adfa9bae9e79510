package database

import "errors"

// Storage-level errors returned by every repository backend. Services map
// them onto apperrors kinds.
var (
	ErrNotFound        = errors.New("document not found")
	ErrVersionConflict = errors.New("document version changed")
	ErrDuplicate       = errors.New("duplicate document")
	ErrReserved        = errors.New("slot already reserved")
)
