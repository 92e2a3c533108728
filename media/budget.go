package media

// Tier is the destination size-limit class (platform boost level).
type Tier int

const (
	Tier0 Tier = iota
	Tier1
	Tier2
	Tier3
)

// MiB in bytes.
const MiB = int64(1) << 20

// BudgetFor maps a destination tier to its upload byte ceiling. Tier0 and
// Tier1 share the base ceiling; unknown tiers fall back to it.
func BudgetFor(t Tier) int64 {
	switch t {
	case Tier2:
		return 50 * MiB
	case Tier3:
		return 100 * MiB
	default:
		return 8 * MiB
	}
}
