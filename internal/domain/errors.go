package domain

import "errors"

var (
	ErrRemoteFetch = errors.New("remote fetch failed")
	ErrRemoteWrite = errors.New("remote write failed")
	ErrCompletion  = errors.New("completion request failed")

	ErrNoActiveSession     = errors.New("no active session")
	ErrSessionNotFound     = errors.New("session not found")
	ErrActiveRequest       = errors.New("active request exists")
	ErrTaskNotFound        = errors.New("task not found")
	ErrSubtaskNotFound     = errors.New("subtask not found")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrIntegrationNotFound = errors.New("integration not found")
	ErrUnknownService      = errors.New("unknown integration service")
	ErrEmptyMessage        = errors.New("empty message content")
)
