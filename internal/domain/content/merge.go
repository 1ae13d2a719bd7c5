package content

// Merge reconciles a canonical tree with a stored, loosely-typed document.
//
// The result always has the canonical shape: keys missing from stored are
// filled from canonical, keys only present in stored are dropped, and field
// specs take their metadata from canonical and their value from stored.
// Merge never fails; stored values of an unexpected shape are ignored.
func Merge(canonical *Node, stored any) *Node {
	if canonical == nil {
		return nil
	}
	return mergeNode(canonical, stored)
}

func mergeNode(canonical *Node, stored any) *Node {
	if stored == nil {
		return canonical.Clone()
	}

	switch canonical.Kind {
	case KindSection:
		return mergeSection(canonical, stored)
	case KindField:
		return mergeField(canonical, stored)
	case KindAttribute:
		return NewAttribute(clonePlain(stored))
	default:
		return canonical.Clone()
	}
}

func mergeSection(canonical *Node, stored any) *Node {
	storedMap, _ := stored.(map[string]any)

	out := NewSection()
	for _, key := range canonical.keys {
		child := canonical.children[key]
		storedChild, present := storedMap[key]
		if !present {
			out.Set(key, child.Clone())
			continue
		}
		out.Set(key, mergeNode(child, storedChild))
	}
	return out
}

// mergeField keeps the canonical metadata and the stored value when one exists.
func mergeField(canonical *Node, stored any) *Node {
	out := canonical.Clone()

	storedField, ok := stored.(map[string]any)
	if !ok {
		return out
	}
	if value, present := storedField["value"]; present && value != nil {
		out.Value = clonePlain(value)
	}
	return out
}
