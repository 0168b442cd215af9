package errors

import (
	"errors"
	"fmt"
)

// RemoteFailure is implemented by errors that originate from a remote HTTP response.
type RemoteFailure interface {
	error
	StatusCode() int
	RemoteMessage() string
}

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	RemoteStatus  int    `json:"remote_status,omitempty"`
	RemoteMessage string `json:"remote_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var remote RemoteFailure
	if errors.As(err, &remote) {
		d.RemoteStatus = remote.StatusCode()
		d.RemoteMessage = remote.RemoteMessage()
	}

	return d
}
