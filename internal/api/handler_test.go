package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nova-hq/nova/internal/domain"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrSessionNotFound, http.StatusNotFound},
		{domain.ErrTaskNotFound, http.StatusNotFound},
		{domain.ErrUnknownService, http.StatusNotFound},
		{domain.ErrNoActiveSession, http.StatusBadRequest},
		{domain.ErrEmptyMessage, http.StatusBadRequest},
		{domain.ErrActiveRequest, http.StatusTooManyRequests},
		{domain.ErrCompletion, http.StatusBadGateway},
		{domain.ErrRemoteFetch, http.StatusBadGateway},
		{domain.ErrRemoteWrite, http.StatusBadGateway},
		{errors.New("anything else"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), "error %v", tc.err)
	}
}

func TestStatusForUnwrapsChains(t *testing.T) {
	// Service errors arrive wrapped; the mapping must see through.
	err := fmt.Errorf("%w: %w", domain.ErrRemoteWrite, domain.ErrSessionNotFound)
	assert.Equal(t, http.StatusNotFound, statusFor(err))

	err = fmt.Errorf("%w: %w", domain.ErrCompletion, errors.New("endpoint returned 503"))
	assert.Equal(t, http.StatusBadGateway, statusFor(err))
}
