package mock

import "github.com/sunpark20/lightstock/internal/domain/models"

type staticQuote struct {
	name          string
	exchange      string
	price         float64
	change        float64
	changePercent float64
	dayHigh       float64
	dayLow        float64
}

var staticQuotes = map[string]staticQuote{
	"AAPL":  {"Apple Inc.", "NASDAQ", 182.33, -0.85, -0.46, 183.69, 180.44},
	"MSFT":  {"Microsoft Corporation", "NASDAQ", 415.56, 2.74, 0.66, 416.78, 412.03},
	"GOOGL": {"Alphabet Inc.", "NASDAQ", 170.35, 0.78, 0.46, 171.19, 168.72},
	"AMZN":  {"Amazon.com, Inc.", "NASDAQ", 182.68, 0.45, 0.25, 183.95, 181.33},
	"TSLA":  {"Tesla, Inc.", "NASDAQ", 175.33, -3.28, -1.83, 179.45, 174.01},
}

type searchGroup struct {
	key     string
	results []models.SearchResult
}

// searchGroups is ordered so the first matching key wins.
var searchGroups = []searchGroup{
	{"apple", []models.SearchResult{
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "AAPL.SW", Name: "Apple Inc. (Switzerland)"},
	}},
	{"microsoft", []models.SearchResult{
		{Symbol: "MSFT", Name: "Microsoft Corporation"},
		{Symbol: "MSFT.MX", Name: "Microsoft Corporation (Mexico)"},
	}},
	{"google", []models.SearchResult{
		{Symbol: "GOOGL", Name: "Alphabet Inc. Class A"},
		{Symbol: "GOOG", Name: "Alphabet Inc. Class C"},
	}},
	{"amazon", []models.SearchResult{
		{Symbol: "AMZN", Name: "Amazon.com, Inc."},
		{Symbol: "AMZN.MX", Name: "Amazon.com, Inc. (Mexico)"},
	}},
	{"tesla", []models.SearchResult{
		{Symbol: "TSLA", Name: "Tesla, Inc."},
		{Symbol: "TSLA.MX", Name: "Tesla, Inc. (Mexico)"},
	}},
}

var knownInstruments = []models.SearchResult{
	{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ", Type: "EQUITY"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Exchange: "NASDAQ", Type: "EQUITY"},
	{Symbol: "AMZN", Name: "Amazon.com, Inc.", Exchange: "NASDAQ", Type: "EQUITY"},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Exchange: "NASDAQ", Type: "EQUITY"},
	{Symbol: "FB", Name: "Meta Platforms, Inc.", Exchange: "NASDAQ", Type: "EQUITY"},
	{Symbol: "TSLA", Name: "Tesla, Inc.", Exchange: "NASDAQ", Type: "EQUITY"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Exchange: "NASDAQ", Type: "EQUITY"},
	{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Exchange: "NYSE", Type: "EQUITY"},
	{Symbol: "V", Name: "Visa Inc.", Exchange: "NYSE", Type: "EQUITY"},
	{Symbol: "JNJ", Name: "Johnson & Johnson", Exchange: "NYSE", Type: "EQUITY"},
}
