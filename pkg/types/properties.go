package types

// Properties is the open key-value container for variant attributes on a cart
// line (size, color, serial, ...). Schema-free on purpose; persisted as jsonb.
type Properties map[string]string

// Clone returns an independent copy so cached carts cannot be mutated through
// shared maps.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
