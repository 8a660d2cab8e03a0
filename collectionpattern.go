package mon

import "github.com/mycelmon/mon/pkg/ast"

// splitCollectionPattern decomposes a "[T1, T2, T3..., T4]"-style type
// into its fixed prefix, its single optional variadic element, and its
// fixed suffix. ok is false when more than one element sets Variadic,
// which the caller reports as InvalidCollectionPattern.
func splitCollectionPattern(ty ast.CollectionType) (prefix []ast.TypeExpr, variadic *ast.TypeExpr, suffix []ast.TypeExpr, ok bool) {
	variadicIdx := -1
	for i, el := range ty.Elements {
		if el.Variadic {
			if variadicIdx != -1 {
				return nil, nil, nil, false
			}
			variadicIdx = i
		}
	}
	if variadicIdx == -1 {
		for _, el := range ty.Elements {
			prefix = append(prefix, el.Type)
		}
		return prefix, nil, nil, true
	}
	for i := 0; i < variadicIdx; i++ {
		prefix = append(prefix, ty.Elements[i].Type)
	}
	v := ty.Elements[variadicIdx].Type
	variadic = &v
	for i := variadicIdx + 1; i < len(ty.Elements); i++ {
		suffix = append(suffix, ty.Elements[i].Type)
	}
	return prefix, variadic, suffix, true
}
