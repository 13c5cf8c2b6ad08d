package contracts

import "time"

// DateLayout is the wire and storage format of a batch date
const DateLayout = "2006-01-02"

// Day truncates t to UTC midnight of its calendar date
// ⭐ SSOT: every batch date and load date is normalised through here
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD batch date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// DaysBetween returns the whole calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// GroupKey identifies an (asset class, product, entity) group
type GroupKey struct {
	AssetClass string `json:"asset_class"`
	Product    string `json:"product"`
	Entity     string `json:"entity"`
}

// Less orders group keys by asset class, then product, then entity
func (k GroupKey) Less(o GroupKey) bool {
	if k.AssetClass != o.AssetClass {
		return k.AssetClass < o.AssetClass
	}
	if k.Product != o.Product {
		return k.Product < o.Product
	}
	return k.Entity < o.Entity
}

// ScenarioKey identifies a single scenario within a group
type ScenarioKey struct {
	GroupKey
	Scenario string `json:"scenario"`
}

// Less orders scenario keys by group, then scenario
func (k ScenarioKey) Less(o ScenarioKey) bool {
	if k.GroupKey != o.GroupKey {
		return k.GroupKey.Less(o.GroupKey)
	}
	return k.Scenario < o.Scenario
}

// ExpectedScenario is one entry of the expectation catalog
// ⭐ SSOT: the catalog is the only producer of expected scenarios
type ExpectedScenario struct {
	AssetClass string `json:"asset_class" yaml:"asset_class"`
	Product    string `json:"product" yaml:"product"`
	Entity     string `json:"entity" yaml:"entity"`
	Scenario   string `json:"scenario" yaml:"scenario"`
}

// GroupKey returns the scenario's group
func (e ExpectedScenario) GroupKey() GroupKey {
	return GroupKey{AssetClass: e.AssetClass, Product: e.Product, Entity: e.Entity}
}

// FullKey returns the scenario's full key
func (e ExpectedScenario) FullKey() ScenarioKey {
	return ScenarioKey{GroupKey: e.GroupKey(), Scenario: e.Scenario}
}

// LoadedRecord is one row of the pipeline's batch record table
type LoadedRecord struct {
	ID         int64     `json:"id"`
	AssetClass string    `json:"asset_class"`
	Product    string    `json:"product"`
	Entity     string    `json:"entity"`
	Scenario   string    `json:"scenario"`
	BatchDate  time.Time `json:"batch_date"`
	LoadedAt   time.Time `json:"loaded_at"` // ingestion timestamp, zero if unknown
}

// GroupKey returns the record's group
func (r LoadedRecord) GroupKey() GroupKey {
	return GroupKey{AssetClass: r.AssetClass, Product: r.Product, Entity: r.Entity}
}

// FullKey returns the record's full key
func (r LoadedRecord) FullKey() ScenarioKey {
	return ScenarioKey{GroupKey: r.GroupKey(), Scenario: r.Scenario}
}
