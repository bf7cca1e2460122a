package group

// Template 為內建的起始群組，可一鍵建立成 Group。
type Template struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Symbols     []string `json:"symbols"`
}

var templates = []Template{
	{ID: "mega-cap-tech", Name: "MegaCap Tech", Category: "Technology", Description: "Largest US technology platforms.", Symbols: []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META"}},
	{ID: "semiconductors", Name: "Semiconductors", Category: "Technology", Description: "Chip designers, foundries and equipment makers.", Symbols: []string{"NVDA", "AMD", "AVGO", "TSM", "INTC", "QCOM", "ASML"}},
	{ID: "us-banks", Name: "US Banks", Category: "Financials", Description: "Money-center and large regional banks.", Symbols: []string{"JPM", "BAC", "WFC", "C", "GS", "MS"}},
	{ID: "energy-majors", Name: "Energy Majors", Category: "Energy", Description: "Integrated oil and gas producers.", Symbols: []string{"XOM", "CVX", "COP", "SHEL", "BP"}},
	{ID: "consumer-staples", Name: "Consumer Staples", Category: "Consumer", Description: "Household and food brands.", Symbols: []string{"PG", "KO", "PEP", "COST", "WMT"}},
	{ID: "healthcare-leaders", Name: "Healthcare Leaders", Category: "Healthcare", Description: "Large pharma and managed care.", Symbols: []string{"UNH", "JNJ", "LLY", "PFE", "MRK", "ABBV"}},
	{ID: "broad-market-etfs", Name: "Broad Market ETFs", Category: "ETFs", Description: "Index trackers for a market baseline.", Symbols: []string{"SPY", "QQQ", "IWM", "DIA", "VTI"}},
}

// Templates 回傳內建起始群組（複本，呼叫端可自由修改）。
func Templates() []Template {
	out := make([]Template, len(templates))
	for i, t := range templates {
		t.Symbols = append([]string(nil), t.Symbols...)
		out[i] = t
	}
	return out
}

// Defaults 為啟動時確保存在的預設群組。
func Defaults() []Group {
	return []Group{
		{ID: "mega-cap-tech", Name: "MegaCap Tech", Type: TypeManual, Symbols: []string{"AAPL", "MSFT", "NVDA", "AMZN"}},
		{ID: "my-watchlist", Name: "My Watchlist", Type: TypeManual, Symbols: []string{"AAPL", "GOOGL"}},
	}
}
