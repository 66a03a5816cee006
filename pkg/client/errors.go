package client

import (
	"errors"
	"net/http"
	"sync"
)

// ErrorHandler holds the last failed call so a UI can show it until the
// user dismisses it. Any new request clears it.
type ErrorHandler struct {
	mu  sync.Mutex
	err error

	client   *Client
	reqID    int
	resID    int
	attached bool
}

// Attach installs the handler's interceptors on c.
func (h *ErrorHandler) Attach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.attached {
		return
	}
	h.client = c
	h.reqID = c.UseRequest(func(*http.Request) error {
		h.set(nil)
		return nil
	})
	h.resID = c.UseResponse(func(_ *http.Response, err error) error {
		if err != nil {
			h.set(err)
		}
		return err
	})
	h.attached = true
}

// Detach removes the interceptors installed by Attach.
func (h *ErrorHandler) Detach() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.attached {
		return
	}
	h.client.Eject(h.reqID)
	h.client.Eject(h.resID)
	h.client = nil
	h.attached = false
}

func (h *ErrorHandler) set(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

func (h *ErrorHandler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Confirm dismisses the current error.
func (h *ErrorHandler) Confirm() {
	h.set(nil)
}

// Message is the text to display, or "" when there is nothing to show.
func (h *ErrorHandler) Message() string {
	err := h.Err()
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
