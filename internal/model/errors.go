package model

import (
	"errors"
)

var (
	ErrNoCommand    = errors.New("no command given")
	ErrNoRecipients = errors.New("mail enabled but no recipients given")
)
