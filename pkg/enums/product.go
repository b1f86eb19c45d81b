package enums

import "fmt"

// ProductType distinguishes how stock and quantity rules apply to a product.
type ProductType string

const (
	ProductTypePhysical     ProductType = "physical"
	ProductTypeSubscription ProductType = "subscription"
)

var validProductTypes = []ProductType{
	ProductTypePhysical,
	ProductTypeSubscription,
}

// String implements fmt.Stringer.
func (p ProductType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductType.
func (p ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductType converts raw input into a ProductType.
func ParseProductType(value string) (ProductType, error) {
	for _, candidate := range validProductTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}

// ProductSubtype refines the delivery shape of a product.
type ProductSubtype string

const (
	ProductSubtypeStandard ProductSubtype = "standard"
	ProductSubtypeDigital  ProductSubtype = "digital"
)

var validProductSubtypes = []ProductSubtype{
	ProductSubtypeStandard,
	ProductSubtypeDigital,
}

// String implements fmt.Stringer.
func (p ProductSubtype) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductSubtype.
func (p ProductSubtype) IsValid() bool {
	for _, candidate := range validProductSubtypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductSubtype converts raw input into a ProductSubtype.
func ParseProductSubtype(value string) (ProductSubtype, error) {
	for _, candidate := range validProductSubtypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product subtype %q", value)
}
