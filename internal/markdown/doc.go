// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown converts gateway replies into structured rich text.
//
// Replies are parsed with goldmark into a Document of blocks (paragraphs,
// headings, quotes, lists, code, rules) holding inline spans. Links are
// numbered in reading order so a terminal user can activate them by index.
//
// # Start-server action
//
// A link whose target is ActionStartServer is not a navigation. Renderer
// intercepts it and sends one keep-alive ping to the gateway in the
// background, throttled so repeated activations collapse into a single
// ping per WakeInterval. Nothing is added to the conversation.
//
// # Usage
//
//	r := markdown.New(gatewayClient, markdown.DefaultOptions())
//	doc := r.Render(reply)
//	fmt.Println(markdown.NewTerminal(80).Render(doc))
//
//	if link, ok := doc.Link(1); ok {
//		act := r.Activate(link)
//		fmt.Println(act.Notice)
//	}
package markdown
