// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation implements the controller behind every sarathi
// front end.
//
// A Controller owns one session: the append-only message history seeded
// with Krishna's greeting, the selected language, the input buffer and the
// awaiting-reply flag. Front ends read state through accessors and change
// it only through the controller's methods.
//
// # Questions
//
// Submitting non-empty text appends the user message, marks the reply as
// awaited and sends exactly one request to the gateway. The answer, or
// FailureText when anything went wrong, is appended as a bot message and
// the awaiting flag is cleared in the same step. Submissions made while a
// reply is awaited are rejected.
//
// # Recovery
//
// FailureText carries the start-server action. ActivateLink routes it to
// the markdown renderer, which pings the gateway's keep-alive endpoint so
// a sleeping backend can start. The user then asks again.
package conversation
