package seed

import "dataspace-connector/internal/metadata"

// Sample ids.
const (
	WeatherAssetID    = "weather-api-asset"
	AllowAllPolicyID  = "allow-all-policy"
	WeatherContractID = "weather-contract-def"

	MarketDataAssetID    = "market-data-2025-q1"
	ResearchPolicyID     = "financial-research-policy"
	MarketDataContractID = "market-data-contract-def"
)

// Samples returns the demo data set: a public weather API offered under an
// allow-all policy, and a market data export restricted to research use.
func Samples() Document {
	return Document{
		Assets: []metadata.Asset{
			{
				ID: WeatherAssetID,
				Properties: map[string]any{
					metadata.PropertyName:        "Public Weather API",
					metadata.PropertyDescription: "Provides current weather data for cities worldwide",
					metadata.PropertyContentType: "application/json",
					"type":                       "API",
					"category":                   "weather",
				},
				DataAddress: metadata.DataAddress{
					Type: "HttpData",
					Properties: map[string]any{
						"baseUrl": "https://api.weatherapi.com/v1/current.json",
						"method":  "GET",
					},
				},
			},
			{
				ID: MarketDataAssetID,
				Properties: map[string]any{
					metadata.PropertyName:        "Market Data 2025 Q1",
					metadata.PropertyDescription: "Quarterly equity market data for research and portfolio analytics",
					metadata.PropertyContentType: "text/csv",
					"category":                   "finance",
				},
				DataAddress: metadata.DataAddress{
					Type: "HttpData",
					Properties: map[string]any{
						"baseUrl": "https://data.example.com/market/2025-q1.csv",
					},
				},
			},
		},
		PolicyDefinitions: []metadata.PolicyDefinition{
			{
				ID:     AllowAllPolicyID,
				Policy: metadata.Policy{Type: metadata.PolicyTypeSet},
			},
			{
				ID: ResearchPolicyID,
				Policy: metadata.Policy{
					Type: metadata.PolicyTypeSet,
					Permissions: []metadata.Rule{{
						Action: "use",
						Constraints: []metadata.Constraint{{
							LeftOperand:  "purpose",
							Operator:     "eq",
							RightOperand: "research",
						}},
					}},
					Prohibitions: []metadata.Rule{{Action: "distribute"}},
				},
			},
		},
		ContractDefinitions: []metadata.ContractDefinition{
			{
				ID:               WeatherContractID,
				AccessPolicyID:   AllowAllPolicyID,
				ContractPolicyID: AllowAllPolicyID,
				AssetsSelector: []metadata.Criterion{
					metadata.NewCriterion(metadata.PropertyID, "=", WeatherAssetID),
				},
			},
			{
				ID:               MarketDataContractID,
				AccessPolicyID:   ResearchPolicyID,
				ContractPolicyID: ResearchPolicyID,
				AssetsSelector: []metadata.Criterion{
					metadata.NewCriterion(metadata.PropertyID, "=", MarketDataAssetID),
				},
			},
		},
	}
}
