// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package sievews adds websocket routes to a sieve filter tree.  Upgrade extracts
// a Handshake from a websocket upgrade request, and Relay splices a connection's
// inbound messages back out to the same connection.
package sievews
