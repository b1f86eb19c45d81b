package enums

// CartEventAction labels the mutation notification emitted after a cart write.
type CartEventAction string

const (
	CartEventUpdated CartEventAction = "updated"
	CartEventRemoved CartEventAction = "removed"
)

// String implements fmt.Stringer.
func (a CartEventAction) String() string {
	return string(a)
}
