package repository

import "errors"

var (
	ErrNotFound                 = errors.New("record not found")
	ErrDuplicateEmail           = errors.New("email already registered")
	ErrDuplicateNationalID      = errors.New("national id already registered in clinic")
	ErrDuplicateToken           = errors.New("verification token collision")
	ErrDuplicateSlug            = errors.New("clinic slug already taken")
	ErrDuplicateDocumentVersion = errors.New("legal document version already exists")
	ErrActiveDocumentConflict   = errors.New("another document of this type is already active")
)
