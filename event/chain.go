// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package event

import "strings"

// ElementKind discriminates MessageChain elements.
type ElementKind string

const (
	ElementText  ElementKind = "text"
	ElementAt    ElementKind = "at"
	ElementImage ElementKind = "image"
)

// Element is one unit of a message payload. The populated fields depend
// on Kind; a flat struct keeps the wire form trivial for the engine
// bridge (no polymorphic JSON).
type Element struct {
	Kind ElementKind `json:"kind"`

	// Text is the content for ElementText.
	Text string `json:"text,omitempty"`

	// Target and Display describe an ElementAt mention. Target 0 is
	// an at-all mention.
	Target  int64  `json:"target,omitempty"`
	Display string `json:"display,omitempty"`

	// URL references an already-uploaded image for ElementImage.
	// Upload itself is an engine operation.
	URL string `json:"url,omitempty"`
}

// MessageChain is an ordered, composable message payload. The runtime
// treats it as opaque beyond construction and text rendering.
type MessageChain []Element

// Text returns a text element.
func Text(s string) Element {
	return Element{Kind: ElementText, Text: s}
}

// At returns a mention element.
func At(target int64, display string) Element {
	return Element{Kind: ElementAt, Target: target, Display: display}
}

// Image returns an image reference element.
func Image(url string) Element {
	return Element{Kind: ElementImage, URL: url}
}

// Plain builds a chain containing a single text element. This is the
// common case for bot replies.
func Plain(s string) MessageChain {
	return MessageChain{Text(s)}
}

// String renders the normalized textual view of the chain: text
// elements verbatim, mentions as their display form, images elided.
func (c MessageChain) String() string {
	var b strings.Builder
	for _, e := range c {
		switch e.Kind {
		case ElementText:
			b.WriteString(e.Text)
		case ElementAt:
			b.WriteString(e.Display)
		}
	}
	return b.String()
}
