package testutil

// MarketMasterData is a /masterdata body in the nested region shape.
// NO1 and NO2 belong to Norway only, SE1 and SE2 to Sweden only.
const MarketMasterData = `{
  "scenario": ["Base", "Technotopia"],
  "groups": [
    {"group": "Real prices", "indicators": [
      {"indicator": "Gas price", "unit": "EUR/MWh"},
      {"indicator": "Base price", "unit": "EUR/MWh"}
    ]},
    {"group": "Generation", "indicators": [
      {"indicator": "Nuclear", "unit": "TWh"}
    ]}
  ],
  "regions": [
    {"region": "Nordics",
     "edition": ["March 2022", "garbage", "September 2022"],
     "countries": [
       {"country": "Norway", "zone": ["NO1", "NO2"]},
       {"country": "Sweden", "zone": ["SE1", "SE2"]}
     ]},
    {"region": "Continental",
     "edition": ["December 2023", "June 2024"],
     "countries": [
       {"country": "Germany", "zone": ["DE"]}
     ]}
  ]
}`

// TechnologyMasterData is a /technology/masterdata body in the flat shape.
const TechnologyMasterData = `{
  "scenario": ["Base"],
  "edition": ["October 2023", "April 2024"],
  "country": ["Germany", "Spain"],
  "indicator": [
    {"indicator": "Generation", "unit": "TWh"},
    {"indicator": "Capacity", "unit": "GW"}
  ],
  "technologies": [
    {"technology": "Wind Onshore", "category": ["Low wind", "High wind"]},
    {"technology": "Wind Offshore", "category": ["Bottomfixed", "Floating"]}
  ]
}`

// GOMasterData is a /go/masterdata body with flat zones.
const GOMasterData = `{
  "scenario": ["Base"],
  "edition": ["May 2024"],
  "zone": ["Spain", "Portugal"],
  "groups": [
    {"group": "Supply", "indicators": [{"indicator": "Bio", "unit": "TWh"}, {"indicator": "Hydro", "unit": "TWh"}]},
    {"group": "Demand", "indicators": [{"indicator": "Total", "unit": "TWh"}]}
  ]
}`

// HydrogenMasterData is a /hydrogen/masterdata body using a keyed map.
const HydrogenMasterData = `{
  "scenario": ["Base"],
  "editions": ["January 2025"],
  "technologies": {"Electrolysis": ["PEM", "Alkaline"], "SMR": []}
}`
