package domain

import "bytes"

// DefaultStackLimit is the stack capacity used when a payload does not
// declare its own limit.
const DefaultStackLimit = 64

// ItemPayload describes one kind of tradeable item, independent of quantity.
// Kind is the stable type tag; DisplayName and Lore are decorative metadata;
// Meta carries any opaque platform bytes that survive the codec untouched.
type ItemPayload struct {
	Kind        string   `json:"kind"`
	DisplayName string   `json:"display_name,omitempty"`
	Lore        []string `json:"lore,omitempty"`
	Meta        []byte   `json:"meta,omitempty"`
	StackLimit  int      `json:"stack_limit,omitempty"`
}

// NewItemPayload creates a payload for the given kind with the default
// stack limit.
func NewItemPayload(kind string) ItemPayload {
	return ItemPayload{Kind: kind, StackLimit: DefaultStackLimit}
}

// MaxStackSize returns the stack capacity for this payload.
func (p ItemPayload) MaxStackSize() int {
	if p.StackLimit <= 0 {
		return DefaultStackLimit
	}
	return p.StackLimit
}

// ItemStack is a payload with a count. Used for price vector components and
// revenue entries.
type ItemStack struct {
	Payload ItemPayload `json:"payload"`
	Count   int         `json:"count"`
}

// Matcher decides whether two payloads are the same kind of item for
// stacking and payment purposes. Counts never participate.
type Matcher interface {
	Similar(a, b ItemPayload) bool
}

// DefaultMatcher compares type tag and display metadata byte-for-byte.
type DefaultMatcher struct{}

// Similar implements Matcher.
func (DefaultMatcher) Similar(a, b ItemPayload) bool {
	if a.Kind != b.Kind || a.DisplayName != b.DisplayName {
		return false
	}
	if len(a.Lore) != len(b.Lore) {
		return false
	}
	for i := range a.Lore {
		if a.Lore[i] != b.Lore[i] {
			return false
		}
	}
	return bytes.Equal(a.Meta, b.Meta)
}

// CloneStack returns a copy of the stack that shares no mutable state with
// the original.
func CloneStack(s ItemStack) ItemStack {
	return ItemStack{Payload: ClonePayload(s.Payload), Count: s.Count}
}

// ClonePayload deep-copies a payload.
func ClonePayload(p ItemPayload) ItemPayload {
	out := p
	if p.Lore != nil {
		out.Lore = append([]string(nil), p.Lore...)
	}
	if p.Meta != nil {
		out.Meta = append([]byte(nil), p.Meta...)
	}
	return out
}

// CloneStacks deep-copies a list of stacks.
func CloneStacks(stacks []ItemStack) []ItemStack {
	if stacks == nil {
		return nil
	}
	out := make([]ItemStack, len(stacks))
	for i, s := range stacks {
		out[i] = CloneStack(s)
	}
	return out
}
