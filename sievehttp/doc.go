// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package sievehttp hosts a sieve Dispatcher in an http.Server bound to an
// fx.App lifecycle, with request ids, access logging, and configured response
// headers applied to every request.
package sievehttp
