package entity

import "errors"

var (
	ErrUnknownProduct  = errors.New("unknown product type")
	ErrSelectionFailed = errors.New("dashboard selection failed")
	ErrDownloadFailed  = errors.New("download failed")
	ErrFinalizeFailed  = errors.New("download succeeded, finalize failed")
)
