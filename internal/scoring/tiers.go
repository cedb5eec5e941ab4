package scoring

// Tier is a named band of the overall score range. Bands are closed on
// the lower edge: a score exactly at Min belongs to that band.
type Tier struct {
	Name        string  `json:"name"`
	Min         float64 `json:"min_score"`
	Max         float64 `json:"max_score"`
	Description string  `json:"description"`
}

// Tiers lists the four power tiers, highest first.
var Tiers = []Tier{
	{
		Name:        "Tier 1: Hegemon",
		Min:         80,
		Max:         100,
		Description: "Full-stack sovereignty. Controls atoms (chips/power) and bits (models/data).",
	},
	{
		Name:        "Tier 2: Strategic Specialist",
		Min:         50,
		Max:         79,
		Description: "World-class in specific layers but dependent on hegemons for others.",
	},
	{
		Name:        "Tier 3: Adopter",
		Min:         30,
		Max:         49,
		Description: "Good infrastructure and talent, but largely consumes foreign AI technology.",
	},
	{
		Name:        "Tier 4: Consumer",
		Min:         0,
		Max:         29,
		Description: "Reliant on imported hardware, software, and models. High risk of digital dependency.",
	},
}

// TierFor returns the tier name for an overall score.
func TierFor(score float64) string {
	for _, t := range Tiers {
		if score >= t.Min {
			return t.Name
		}
	}
	return Tiers[len(Tiers)-1].Name
}

// TierDescription returns the description for a tier name, or "".
func TierDescription(name string) string {
	for _, t := range Tiers {
		if t.Name == name {
			return t.Description
		}
	}
	return ""
}
