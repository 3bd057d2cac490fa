// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across sarathi.
//
// # Key Functions
//
// Text (display-width aware, so Hindi and emoji line up):
//   - Width: terminal column width of a string
//   - Truncate: width-bounded truncation with ellipsis
//   - Wrap: word wrapping to a column budget
//   - PadRight: pad to a column width
//
// Files:
//   - WriteFileAtomic: crash-safe write with fsync and rename
//   - ExpandHome: "~/" expansion for configured paths
//
// # Usage
//
//	for _, line := range util.Wrap(reply, 72) {
//		fmt.Println(line)
//	}
package util
