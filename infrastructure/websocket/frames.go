// Package websocket exposes the messaging services over a JSON websocket protocol.
package websocket

import (
	"altus-chat/domain/event"
	"altus-chat/errors"
	"encoding/json"
	"fmt"
)

const (
	RequestFrame  = "req"
	ResponseFrame = "res"
	EventFrame    = "event"
)

// Frame is the single envelope for requests, responses and pushed events.
type Frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Event   string          `json:"event,omitempty"`
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *FrameError     `json:"error,omitempty"`
}

type FrameError struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewRequest(id, method string, params any) (Frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: RequestFrame, ID: id, Method: method, Params: raw}, nil
}

func newResponse(id string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	ok := true
	return Frame{Type: ResponseFrame, ID: id, OK: &ok, Payload: raw}, nil
}

func newErrorResponse(id string, err error) Frame {
	ok := false
	return Frame{Type: ResponseFrame, ID: id, OK: &ok, Error: &FrameError{
		Code:    errors.CodeOf(err),
		Message: err.Error(),
	}}
}

func newEvent(evt event.DomainEvent) (Frame, error) {
	raw, err := json.Marshal(evt)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: EventFrame, Event: string(evt.Kind()), Payload: raw}, nil
}

func decodeFrame(raw []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Frame{}, fmt.Errorf("%w: malformed frame", errors.ErrInvalidInput)
	}
	if frame.Type == "" {
		frame.Type = RequestFrame
	}
	if frame.Type != RequestFrame {
		return Frame{}, fmt.Errorf("%w: unsupported frame type %q", errors.ErrInvalidInput, frame.Type)
	}
	if frame.Method == "" {
		return Frame{}, fmt.Errorf("%w: method is required", errors.ErrInvalidInput)
	}
	return frame, nil
}

// decodeParams unmarshals request params, an absent params object decodes to the zero value.
func decodeParams[T any](raw json.RawMessage) (T, error) {
	var params T
	if len(raw) == 0 || string(raw) == "null" {
		return params, nil
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return params, fmt.Errorf("%w: %s", errors.ErrInvalidInput, err)
	}
	return params, nil
}
