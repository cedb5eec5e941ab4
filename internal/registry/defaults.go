package registry

import "github.com/naaf-labs/naaf-cli/internal/model"

// defaultDimensions returns the built-in 8-layer rubric. Benchmarks are the
// published global reference values for the current rubric revision: the
// leader value for higher-is-better metrics, the global minimum for
// lower-is-better ones.
func defaultDimensions() []model.Dimension {
	return []model.Dimension{
		{
			Number:      1,
			Name:        "Power & Electricity",
			ShortName:   "Power",
			Description: "Ability to supply cheap, stable, and sustainable electricity to industrial consumers, specifically data centers.",
			Weight:      20,
			Domains:     []string{"iea.org", "worldbank.org", "globalpetrolprices.com", "oecd.org", "eia.gov", "irena.org"},
			Metrics: []model.Metric{
				{
					Name:        "Industrial Capacity",
					Description: "Total electricity generation capacity",
					Unit:        "TWh",
					Weight:      8,
					Direction:   model.HigherIsBetter,
					Benchmark:   9456,
					Queries: []string{
						"{entity} electricity generation TWh {year}",
						"{entity} total power output capacity {year}",
					},
				},
				{
					Name:        "Cost Efficiency",
					Description: "Industrial electricity price",
					Unit:        "USD/kWh",
					Weight:      4,
					Direction:   model.LowerIsBetter,
					Benchmark:   0.05,
					Queries: []string{
						"{entity} industrial electricity price kWh {year}",
						"{entity} electricity tariff industrial {year}",
					},
				},
				{
					Name:        "Grid Reliability & Clean Mix",
					Description: "Grid stability and renewable energy percentage",
					Unit:        "%",
					Weight:      4,
					Direction:   model.HigherIsBetter,
					Benchmark:   100,
					Queries: []string{
						"{entity} renewable energy mix percentage {year}",
						"{entity} clean energy solar wind nuclear hydro {year}",
					},
				},
				{
					Name:        "National Output Percentile",
					Description: "Percentile rank of total electricity generation",
					Unit:        "percentile",
					Weight:      4,
					Direction:   model.HigherIsBetter,
					Benchmark:   100,
					Queries: []string{
						"{entity} electricity generation ranking world {year}",
						"{entity} share of global electricity production {year}",
					},
				},
			},
		},
		{
			Number:      2,
			Name:        "Chipset Manufacturers",
			ShortName:   "Chips",
			Description: "Control over the semiconductor supply chain, distinguishing design IP from fabrication capability.",
			Weight:      15,
			Domains:     []string{"semi.org", "chips.gov", "oecd.org", "asml.com", "tsmc.com", "intel.com"},
			Metrics: []model.Metric{
				{
					Name:        "Fabrication Capacity",
					Description: "Leading domestic semiconductor process node",
					Unit:        "nm",
					Weight:      10,
					Direction:   model.LowerIsBetter,
					Benchmark:   3,
					Queries: []string{
						"{entity} semiconductor fab capacity {year}",
						"{entity} chip manufacturing plants nanometer {year}",
					},
				},
				{
					Name:        "Equipment & Supply Chain Control",
					Description: "Control of critical chipmaking equipment and materials (0-5 scale)",
					Unit:        "score",
					Weight:      5,
					Direction:   model.HigherIsBetter,
					Benchmark:   5,
					Queries: []string{
						"{entity} semiconductor equipment manufacturers {year}",
						"{entity} lithography etching chip equipment {year}",
					},
				},
			},
		},
		{
			Number:      3,
			Name:        "Cloud & Data Centers",
			ShortName:   "Cloud",
			Description: "Physical housing and networking for AI workloads, and whether compute is sovereign.",
			Weight:      15,
			Domains:     []string{"datacentermap.com", "telegeography.com", "itu.int", "synergyrg.com", "cloudscene.com"},
			Metrics: []model.Metric{
				{
					Name:        "Compute Density",
					Description: "Hyperscale data center count",
					Unit:        "count",
					Weight:      10,
					Direction:   model.HigherIsBetter,
					Benchmark:   2700,
					Queries: []string{
						"{entity} hyperscale data centers count {year}",
						"{entity} data center capacity MW {year}",
					},
				},
				{
					Name:        "Sovereign Cloud",
					Description: "Domestic cloud provider market share",
					Unit:        "%",
					Weight:      5,
					Direction:   model.HigherIsBetter,
					Benchmark:   100,
					Queries: []string{
						"{entity} sovereign cloud providers market share {year}",
						"{entity} domestic cloud vs AWS Azure {year}",
					},
				},
			},
		},
		{
			Number:      4,
			Name:        "Model Developers",
			ShortName:   "Models",
			Description: "Ability to train foundation models domestically rather than only consuming foreign APIs.",
			Weight:      10,
			Domains:     []string{"top500.org", "wipo.int", "aiindex.stanford.edu", "arxiv.org", "github.com"},
			Metrics: []model.Metric{
				{
					Name:        "Frontier Model Capacity",
					Description: "Domestic foundation models on public leaderboards",
					Unit:        "count",
					Weight:      10,
					Direction:   model.HigherIsBetter,
					Benchmark:   60,
					Queries: []string{
						"{entity} large language models LLM {year}",
						"{entity} foundation models AI {year}",
						"{entity} TOP500 supercomputer {year}",
					},
				},
			},
		},
		{
			Number:      5,
			Name:        "Platform & Data",
			ShortName:   "Data",
			Description: "Quality, accessibility, and governance of the data needed to feed AI models.",
			Weight:      10,
			Domains:     []string{"oecd.org", "worldbank.org", "opendatawatch.com", "thegovlab.org"},
			Metrics: []model.Metric{
				{
					Name:        "Data Openness",
					Description: "Open government data accessibility index",
					Unit:        "index",
					Weight:      5,
					Direction:   model.HigherIsBetter,
					Benchmark:   1,
					Queries: []string{
						"{entity} open data index score {year}",
						"{entity} government data portal {year}",
					},
				},
				{
					Name:        "Data Volume Potential",
					Description: "Internet population as proxy for data generation",
					Unit:        "millions",
					Weight:      5,
					Direction:   model.HigherIsBetter,
					Benchmark:   1050,
					Queries: []string{
						"{entity} internet users millions {year}",
						"{entity} internet penetration rate {year}",
					},
				},
			},
		},
		{
			Number:      6,
			Name:        "Applications & Startups",
			ShortName:   "Apps",
			Description: "Commercial ecosystem that turns infrastructure into economic value.",
			Weight:      10,
			Domains:     []string{"dealroom.co", "crunchbase.com", "cbinsights.com", "pitchbook.com"},
			Metrics: []model.Metric{
				{
					Name:        "Capital Depth",
					Description: "Annual AI venture capital investment",
					Unit:        "USD billions",
					Weight:      10,
					Direction:   model.HigherIsBetter,
					Benchmark:   67.2,
					Queries: []string{
						"{entity} AI startup funding venture capital {year}",
						"{entity} AI investment billions {year}",
						"{entity} AI unicorn companies {year}",
					},
				},
			},
		},
		{
			Number:      7,
			Name:        "Education & Consulting",
			ShortName:   "Talent",
			Description: "Human capital required to build and maintain AI systems.",
			Weight:      10,
			Domains:     []string{"unesco.org", "uis.unesco.org", "topuniversities.com", "timeshighereducation.com"},
			Metrics: []model.Metric{
				{
					Name:        "Talent Pool",
					Description: "Annual CS/AI graduates",
					Unit:        "thousands",
					Weight:      5,
					Direction:   model.HigherIsBetter,
					Benchmark:   470,
					Queries: []string{
						"{entity} computer science graduates {year}",
						"{entity} STEM graduates statistics {year}",
					},
				},
				{
					Name:        "Research Impact",
					Description: "Top university research quality",
					Unit:        "h-index",
					Weight:      5,
					Direction:   model.HigherIsBetter,
					Benchmark:   300,
					Queries: []string{
						"{entity} top university computer science ranking {year}",
						"{entity} AI research publications citations {year}",
					},
				},
			},
		},
		{
			Number:      8,
			Name:        "Implementation",
			ShortName:   "Adoption",
			Description: "How widely AI is used by government and traditional industries.",
			Weight:      10,
			Domains:     []string{"oxfordinsights.com", "eurostat.ec.europa.eu", "oecd.org", "worldbank.org"},
			Metrics: []model.Metric{
				{
					Name:        "Government Readiness",
					Description: "Government AI readiness index",
					Unit:        "index",
					Weight:      10,
					Direction:   model.HigherIsBetter,
					Benchmark:   100,
					Queries: []string{
						"{entity} government AI readiness index {year}",
						"{entity} national AI strategy {year}",
						"{entity} AI adoption rate businesses {year}",
					},
				},
			},
		},
	}
}
