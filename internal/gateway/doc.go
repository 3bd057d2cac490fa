// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway provides the HTTP client for the Sarathi Q&A gateway.
//
// The gateway exposes two endpoints:
//
//   - POST /ask          {"question": "...", "lang": "en"|"hi"} -> {"response": "..."}
//   - POST /keep-alive   wakes a suspended (cold) backend instance
//
// # Errors
//
// Every failure is a *ClientError whose Type tells connection, timeout,
// status and invalid-response failures apart. The sentinels ErrUnreachable,
// ErrTimeout, ErrBadStatus and ErrInvalidResponse match by type:
//
//	if errors.Is(err, gateway.ErrTimeout) { ... }
//
// Callers that only need success or failure, like the conversation
// controller, may ignore the distinction.
package gateway
