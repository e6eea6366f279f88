package expiry

import "strings"

// Kind is the notification type.
type Kind string

const (
	KindInsurance   Kind = "insurance"
	KindTax         Kind = "tax"
	KindInspection  Kind = "inspection"
	KindService     Kind = "service"
	KindMaintenance Kind = "maintenance"
)

// ParseKind accepts a notification type.
func ParseKind(value string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(value))); k {
	case KindInsurance, KindTax, KindInspection, KindService, KindMaintenance:
		return k, true
	}
	return "", false
}

// aggregateKey is the scope key shared by notifications that are not bound to
// a single source record.
const aggregateKey = "aggregate"

// Scope identifies which notification row a deadline belongs to: a row per
// source record, or one aggregated row per (vehicle, type).
type Scope struct {
	sourceType string
	sourceID   string
}

// ItemScoped binds a notification to one source record.
func ItemScoped(sourceType, sourceID string) Scope {
	return Scope{sourceType: sourceType, sourceID: sourceID}
}

// Aggregated is the scope of seed notifications with no source record.
func Aggregated() Scope { return Scope{} }

// IsAggregated reports whether the scope has no source record.
func (s Scope) IsAggregated() bool { return s.sourceType == "" || s.sourceID == "" }

// Source returns the source back-reference of an item-scoped notification.
func (s Scope) Source() (sourceType, sourceID string, ok bool) {
	if s.IsAggregated() {
		return "", "", false
	}
	return s.sourceType, s.sourceID, true
}

// Key is the value stored in the unique scope column.
func (s Scope) Key() string {
	if s.IsAggregated() {
		return aggregateKey
	}
	return s.sourceType + ":" + s.sourceID
}

// ScopeOf rebuilds a scope from nullable source columns.
func ScopeOf(sourceType, sourceID *string) Scope {
	if sourceType == nil || sourceID == nil {
		return Aggregated()
	}
	return ItemScoped(*sourceType, *sourceID)
}
