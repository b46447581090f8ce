package forms

import "strconv"

// ControlPath returns the dotted path of a leaf control below root by
// identity search. It returns "" when target is not found.
func ControlPath(root, target AbstractControl) string {
	if root == nil || target == nil {
		return ""
	}
	path, _ := searchPath(root, target, "", false)
	return path
}

// GroupPath returns the dotted path of a group or array below root by
// identity search. It returns "" when target is not found or is root.
func GroupPath(root, target AbstractControl) string {
	if root == nil || target == nil {
		return ""
	}
	path, _ := searchPath(root, target, "", true)
	return path
}

// Path resolves any control, choosing the group or control traversal from
// the target kind.
func Path(root, target AbstractControl) string {
	if IsContainer(target) {
		return GroupPath(root, target)
	}
	return ControlPath(root, target)
}

func searchPath(node, target AbstractControl, prefix string, groups bool) (string, bool) {
	for _, entry := range Children(node) {
		path := entry.Key
		if prefix != "" {
			path = prefix + "." + entry.Key
		}
		child := entry.Control
		if IsContainer(child) {
			if groups && child == target {
				return path, true
			}
			if found, ok := searchPath(child, target, path, groups); ok {
				return found, true
			}
			continue
		}
		if !groups && child == target {
			return path, true
		}
	}
	return "", false
}

// IsContainer reports whether c is a group or an array.
func IsContainer(c AbstractControl) bool {
	switch c.(type) {
	case *Group, *Array:
		return true
	}
	return false
}

// Children lists the keyed children of a group or the indexed items of an
// array. Leaves have none.
func Children(c AbstractControl) []Entry {
	switch node := c.(type) {
	case *Group:
		out := make([]Entry, 0, len(node.keys))
		for _, key := range node.keys {
			out = append(out, Entry{Key: key, Control: node.controls[key]})
		}
		return out
	case *Array:
		out := make([]Entry, 0, len(node.items))
		for i, item := range node.items {
			out = append(out, Entry{Key: strconv.Itoa(i), Control: item})
		}
		return out
	}
	return nil
}
