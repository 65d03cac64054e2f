package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotConfigured     = errors.New("not configured")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrRateLimited       = errors.New("rate limited")
	ErrQueueFull         = errors.New("worker queue full")

	// ErrAllCredentialsBusy is returned once every LLM credential in the pool
	// rejected the same logical call for quota reasons.
	ErrAllCredentialsBusy = errors.New("Semua koneksi API sedang sibuk karena batas penggunaan telah tercapai. Silakan coba lagi dalam satu menit.")
)
