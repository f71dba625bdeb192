package session

import "strings"

const (
	stdCapPrefix = "urn:ietf:params:netconf:capability"

	CapBase10          = "urn:ietf:params:netconf:base:1.0"
	CapBase11          = "urn:ietf:params:netconf:base:1.1"
	CapCandidate       = stdCapPrefix + ":candidate:1.0"
	CapWritableRunning = stdCapPrefix + ":writable-running:1.0"
	CapStartup         = stdCapPrefix + ":startup:1.0"
)

// Capabilities is a slice of strings denoting NETCONF capability URIs
type Capabilities []string

// Has returns true if uri is in the capabilities set. Any query part
// (?module=...) is ignored on both sides.
func (c Capabilities) Has(uri string) bool {
	uri = stripQuery(uri)
	for _, cap := range c {
		if uri == stripQuery(cap) {
			return true
		}
	}
	return false
}

// Add appends the expanded form of each capability not already present.
func (c Capabilities) Add(caps ...string) Capabilities {
	for _, cap := range caps {
		if cap = ExpandCapability(strings.TrimSpace(cap)); cap != "" && !c.Has(cap) {
			c = append(c, cap)
		}
	}
	return c
}

// ExpandCapability adds the standard capability prefix
// urn:ietf:params:netconf:capability to a shorthand capability such as
// ":candidate:1.0".
func ExpandCapability(s string) string {
	if s == "" || s[0] != ':' {
		return s
	}
	return stdCapPrefix + s
}

func stripQuery(uri string) string {
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		return uri[:i]
	}
	return uri
}
