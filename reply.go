// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package sieve

import (
	"encoding/json"
	"net/http"
	"reflect"
)

// Reply is the response produced by a matched route.  Functions passed to Map
// at the top of a route tree return Replies, or strings, which are treated as
// plain text.
type Reply interface {
	// WriteReply writes the response.  The request is available for replies
	// that need it, such as websocket upgrades.
	WriteReply(http.ResponseWriter, *http.Request)
}

// ReplyFunc is a closure type that implements Reply.
type ReplyFunc func(http.ResponseWriter, *http.Request)

// WriteReply implements Reply.
func (rf ReplyFunc) WriteReply(response http.ResponseWriter, request *http.Request) {
	rf(response, request)
}

var replyType = reflect.TypeOf((*Reply)(nil)).Elem()

// Text is a plain text Reply with a 200 status.
type Text string

// WriteReply implements Reply.
func (t Text) WriteReply(response http.ResponseWriter, _ *http.Request) {
	response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	response.WriteHeader(http.StatusOK)
	response.Write([]byte(t))
}

// Status is an empty Reply consisting only of a status code.
type Status int

// WriteReply implements Reply.
func (s Status) WriteReply(response http.ResponseWriter, _ *http.Request) {
	response.WriteHeader(int(s))
}

type jsonReply struct {
	status int
	value  interface{}
}

func (jr jsonReply) WriteReply(response http.ResponseWriter, _ *http.Request) {
	body, err := json.Marshal(jr.value)
	if err != nil {
		http.Error(response, err.Error(), http.StatusInternalServerError)
		return
	}

	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(jr.status)
	response.Write(body)
}

// JSONReply returns a Reply that marshals v as a JSON body with a 200 status.
func JSONReply(v interface{}) Reply {
	return jsonReply{status: http.StatusOK, value: v}
}

// WithStatus returns a JSON Reply with a custom status code.
func WithStatus(status int, v interface{}) Reply {
	return jsonReply{status: status, value: v}
}

// asReply converts a value extracted by a route tree into a Reply.
func asReply(v interface{}) Reply {
	switch r := v.(type) {
	case Reply:
		return r
	case string:
		return Text(r)
	case nil:
		return Status(http.StatusNoContent)
	default:
		return Text(reflect.ValueOf(v).String())
	}
}

// replyable determines whether a filter's extracted type can be converted to a Reply.
func replyable(t reflect.Type) bool {
	return t.Implements(replyType) || t.Kind() == reflect.String
}
