package models

import "errors"

// ErrPaymentImmutable is returned by GORM hooks when something tries to rewrite a loan payment.
var ErrPaymentImmutable = errors.New("loan payments are append-only")
