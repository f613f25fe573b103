// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package oauth provides the protocol-neutral types shared between the HTTP
// middleware in pkg/authserver and an OAuth 2.0 protocol engine.
//
// An engine never sees a framework request. It receives a [Request], which is
// an immutable view over the method, lower-cased headers, query string and
// parsed body of the incoming call, and a [Response] that it is free to mutate
// (status, headers, body) even when it ultimately fails. The three verbs of
// the [Engine] interface return either a [Token] or an [AuthorizationCode], or
// a typed [Error].
//
// # Errors
//
// Every error an engine raises is expected to be an *[Error]. The Kind field
// is a closed set:
//
//   - [KindInvalidArgument]: misconfiguration, such as a model lacking a
//     capability a verb needs.
//   - [KindUnauthorizedRequest]: the request carried no usable credentials.
//     Per RFC 6750 Section 3.1 no error details are disclosed in the body.
//   - [KindOAuth]: every other protocol-level rejection (invalid_request,
//     invalid_grant, invalid_scope, ...).
//
// Errors of any other type are treated as server_error (500) by [ToError].
package oauth
