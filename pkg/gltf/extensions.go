package gltf

const (
	keyExtensionsUsed     = "extensionsUsed"
	keyExtensionsRequired = "extensionsRequired"
)

// ExtensionsUsed returns the extensionsUsed list, if present.
func ExtensionsUsed(doc Document) ([]any, bool) {
	return Array(doc[keyExtensionsUsed])
}

// ExtensionsRequired returns the extensionsRequired list, if present.
func ExtensionsRequired(doc Document) ([]any, bool) {
	return Array(doc[keyExtensionsRequired])
}

// UsesExtension reports whether extensionsUsed lists name.
func UsesExtension(doc Document, name string) bool {
	used, ok := ExtensionsUsed(doc)
	if !ok {
		return false
	}
	return indexOf(used, name) >= 0
}

// RemoveExtensionsUsed removes every occurrence of name from extensionsUsed.
// The member is deleted once the list is empty.
func RemoveExtensionsUsed(doc Document, name string) {
	used, ok := ExtensionsUsed(doc)
	if !ok {
		return
	}
	kept := used[:0]
	for _, v := range used {
		if s, ok := v.(string); ok && s == name {
			continue
		}
		kept = append(kept, v)
	}
	if len(kept) == 0 {
		delete(doc, keyExtensionsUsed)
		return
	}
	doc[keyExtensionsUsed] = kept
}

// RenameInList replaces every occurrence of from with to, keeping positions.
// It returns the number of entries replaced.
func RenameInList(list []any, from, to string) int {
	n := 0
	for i, v := range list {
		if s, ok := v.(string); ok && s == from {
			list[i] = to
			n++
		}
	}
	return n
}

func indexOf(list []any, name string) int {
	for i, v := range list {
		if s, ok := v.(string); ok && s == name {
			return i
		}
	}
	return -1
}
