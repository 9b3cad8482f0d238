// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieve

import "net/http"

// Messages used by Recovery for the built-in causes.
const (
	MessageNotFound           = "NOT_FOUND"
	MessageMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	MessagePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	MessageInvalidParameter   = "INVALID_PARAMETER"
	MessageUnhandledRejection = "UNHANDLED_REJECTION"
)

// ErrorMessage is the JSON body written for every rejected request.
type ErrorMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Recovery maps rejections onto HTTP responses.  The zero value is a usable
// Recovery that knows no custom tags.
//
// The mapping is total and deterministic:
//
//   - NotFound is 404 NOT_FOUND
//   - MethodNotAllowed is 405 METHOD_NOT_ALLOWED
//   - PayloadTooLarge is 413 PAYLOAD_TOO_LARGE
//   - InvalidParameter is 400 with the rejection's detail as the message
//   - Custom rejections whose tag is in Tags use that status and the tag as the message
//   - everything else is 500 UNHANDLED_REJECTION
type Recovery struct {
	// Tags maps Custom rejection tags onto status codes.
	Tags map[string]int
}

// NewRecovery creates a Recovery that owns a copy of tags.
func NewRecovery(tags map[string]int) Recovery {
	r := Recovery{
		Tags: make(map[string]int, len(tags)),
	}

	for tag, status := range tags {
		r.Tags[tag] = status
	}

	return r
}

// Recover computes the status code and body for a rejection.  A nil rejection is
// treated as Unhandled.
func (rc Recovery) Recover(r *Rejection) (int, ErrorMessage) {
	status, message := http.StatusInternalServerError, MessageUnhandledRejection
	if r != nil {
		switch r.Cause {
		case CauseNotFound:
			status, message = http.StatusNotFound, MessageNotFound

		case CauseMethodNotAllowed:
			status, message = http.StatusMethodNotAllowed, MessageMethodNotAllowed

		case CausePayloadTooLarge:
			status, message = http.StatusRequestEntityTooLarge, MessagePayloadTooLarge

		case CauseInvalidParameter:
			status, message = http.StatusBadRequest, MessageInvalidParameter
			if len(r.Detail) > 0 {
				message = r.Detail
			}

		case CauseCustom:
			if s, ok := rc.Tags[r.Tag]; ok {
				status, message = s, r.Tag
			}
		}
	}

	return status, ErrorMessage{
		Code:    status,
		Message: message,
	}
}

// Reply produces the Reply for a rejection.
func (rc Recovery) Reply(r *Rejection) Reply {
	status, body := rc.Recover(r)
	return WithStatus(status, body)
}
