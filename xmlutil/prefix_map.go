package xmlutil

import (
	"encoding/xml"
	"sort"
)

// PrefixMap is a prefix to namespace URI map, used to build the
// xmlns:<prefix> declarations of an outgoing message.
type PrefixMap map[string]string

// NewPrefixMap returns a PrefixMap containing the xmlns:<prefix>
// declarations among attrs. Other attributes are ignored.
func NewPrefixMap(attrs ...xml.Attr) PrefixMap {
	pmap := PrefixMap{}
	for _, attr := range attrs {
		if attr.Name.Space == "xmlns" {
			pmap[attr.Name.Local] = attr.Value
		}
	}
	return pmap
}

// Set maps prefix to nsURI unless prefix is already mapped, returning
// whether the map changed.
func (m PrefixMap) Set(prefix, nsURI string) bool {
	if _, ok := m[prefix]; ok {
		return false
	}
	m[prefix] = nsURI
	return true
}

// Attr returns the prefix map contents as a series of xmlns:<prefix>=<nsuri> attributes,
// sorted lexically by prefix.
func (m PrefixMap) Attr() (a []xml.Attr) {
	for k, v := range m {
		a = append(a, xml.Attr{Name: xml.Name{Space: "xmlns", Local: k}, Value: v})
	}
	sort.Slice(a, func(i int, j int) bool { return a[i].Name.Local < a[j].Name.Local })
	return a
}

// Namespace returns the namespace URI for the given prefix
func (m PrefixMap) Namespace(prefix string) string { return m[prefix] }

// Prefix returns the prefixes mapped to nsURI, sorted.
func (m PrefixMap) Prefix(nsURI string) (pfxes []string) {
	for k, v := range m {
		if nsURI == v {
			pfxes = append(pfxes, k)
		}
	}
	sort.Strings(pfxes)
	return pfxes
}
