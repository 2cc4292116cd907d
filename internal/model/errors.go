package model

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrPresensiNotFound = errors.New("presensi not found")
	ErrAlreadyCheckedIn = errors.New("open check-in already exists")
	ErrNoOpenSession    = errors.New("no open check-in")
	ErrPhotoNotFound    = errors.New("photo not found")
)
