// Pacote tree implementa as operacoes por caminho sobre a arvore JSON
// compartilhada pelos backends do store (memoria e Redis).
package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidValue = errors.New("tree: valor invalido")

// Split quebra "a/b/c" em segmentos; barras repetidas ou nas pontas sao ignoradas.
func Split(path string) []string {
	raw := strings.Split(path, "/")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Normalize converte structs e tipos Go para as formas JSON canonicas
// (map[string]any, []any, float64, string, bool, nil) e poda mapas vazios.
func Normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return prune(out), nil
}

func prune(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if p := prune(child); p == nil {
				delete(t, k)
			} else {
				t[k] = p
			}
		}
		if len(t) == 0 {
			return nil
		}
		return t
	case []any:
		for i := range t {
			t[i] = prune(t[i])
		}
		return t
	default:
		return v
	}
}

// Clone faz copia profunda; snapshots entregues nunca compartilham memoria com o estado interno.
func Clone(root map[string]any) map[string]any {
	if root == nil {
		return map[string]any{}
	}
	return cloneValue(root).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = cloneValue(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = cloneValue(child)
		}
		return out
	default:
		return v
	}
}

// Get devolve o valor no caminho, se existir.
func Get(root map[string]any, path string) (any, bool) {
	var cur any = root
	for _, seg := range Split(path) {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = node[seg]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// Set substitui o valor no caminho; nil remove. Alterar a raiz exige um objeto.
// root e modificado no lugar e devolvido.
func Set(root map[string]any, path string, value any) (map[string]any, error) {
	if root == nil {
		root = map[string]any{}
	}
	norm, err := Normalize(value)
	if err != nil {
		return root, err
	}

	segs := Split(path)
	if len(segs) == 0 {
		if norm == nil {
			return map[string]any{}, nil
		}
		obj, ok := norm.(map[string]any)
		if !ok {
			return root, fmt.Errorf("%w: raiz precisa ser objeto", ErrInvalidValue)
		}
		return obj, nil
	}

	setIn(root, segs, norm)
	return root, nil
}

// Merge aplica cada campo como um Set relativo ao caminho; campos ausentes ficam intactos.
func Merge(root map[string]any, path string, fields map[string]any) (map[string]any, error) {
	if root == nil {
		root = map[string]any{}
	}
	base := Split(path)
	for k, v := range fields {
		norm, err := Normalize(v)
		if err != nil {
			return root, err
		}
		segs := append(append([]string{}, base...), Split(k)...)
		if len(segs) == 0 {
			continue
		}
		setIn(root, segs, norm)
	}
	return root, nil
}

// Remove apaga o caminho. Remover a raiz esvazia a arvore.
func Remove(root map[string]any, path string) map[string]any {
	segs := Split(path)
	if len(segs) == 0 {
		return map[string]any{}
	}
	if root == nil {
		return map[string]any{}
	}
	setIn(root, segs, nil)
	return root
}

func setIn(node map[string]any, segs []string, value any) {
	key := segs[0]
	if len(segs) == 1 {
		if value == nil {
			delete(node, key)
		} else {
			node[key] = value
		}
		return
	}

	child, ok := node[key].(map[string]any)
	if !ok {
		if value == nil {
			return
		}
		child = map[string]any{}
		node[key] = child
	}
	setIn(child, segs[1:], value)
	if len(child) == 0 {
		delete(node, key)
	}
}
