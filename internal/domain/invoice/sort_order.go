package invoice

// SortOrder selects how the cached invoice view is ordered.
type SortOrder string

const (
	SortIssueDateDesc   SortOrder = "ISSUE_DATE_DESC"
	SortIDDesc          SortOrder = "ID_DESC"
	SortCustomerNameAsc SortOrder = "CUSTOMER_NAME_ASC"
)

// DefaultSortOrder is used when no preference has been persisted.
const DefaultSortOrder = SortIssueDateDesc

// IsValid checks if the value is a known SortOrder
func (s SortOrder) IsValid() bool {
	switch s {
	case SortIssueDateDesc, SortIDDesc, SortCustomerNameAsc:
		return true
	}
	return false
}

// String returns the string representation of SortOrder
func (s SortOrder) String() string {
	return string(s)
}

// ParseSortOrder maps a persisted setting value back to a SortOrder,
// falling back to the default for unknown or empty values.
func ParseSortOrder(value string) SortOrder {
	s := SortOrder(value)
	if !s.IsValid() {
		return DefaultSortOrder
	}
	return s
}
