package resolve

// DefaultPolicy covers the field names used by the quote and statement
// payloads the tool is usually fed: Yahoo-style summaries, DART financial
// statements (Korean account names) and flattened exports.
//
// Book value means shareholders' equity. Total assets and per-share book
// value are deliberately not sources for it.
func DefaultPolicy() Policy {
	return Policy{
		CurrentPrice: {
			{Name: "price", Path: "price"},
			{Name: "close", Path: "close"},
			{Name: "regularMarketPrice", Path: "quote.regularMarketPrice"},
			{Name: "currentPrice", Path: "financialData.currentPrice"},
			{Name: "종가", Path: "종가"},
		},
		SharesOutstanding: {
			{Name: "sharesOutstanding", Path: "sharesOutstanding"},
			{Name: "defaultKeyStatistics", Path: "defaultKeyStatistics.sharesOutstanding"},
			{Name: "total_stock_sts", Path: "shares.total_stock_sts"},
			{Name: "발행주식총수", Path: "발행주식총수"},
		},
		NetIncome: {
			{Name: "netIncome", Path: "netIncome"},
			{Name: "netIncomeToCommon", Path: "defaultKeyStatistics.netIncomeToCommon"},
			{Name: "incomeStatement.netIncome", Path: "incomeStatement.netIncome"},
			{Name: "당기순이익", Path: "당기순이익"},
			{Name: "지배기업 소유주지분 순이익", Path: "지배기업 소유주지분 순이익"},
		},
		Revenue: {
			{Name: "revenue", Path: "revenue"},
			{Name: "totalRevenue", Path: "financialData.totalRevenue"},
			{Name: "incomeStatement.totalRevenue", Path: "incomeStatement.totalRevenue"},
			{Name: "매출액", Path: "매출액"},
			{Name: "수익(매출액)", Path: "수익(매출액)"},
			{Name: "영업수익", Path: "영업수익"},
		},
		Equity: {
			{Name: "equity", Path: "equity"},
			{Name: "totalStockholderEquity", Path: "balanceSheet.totalStockholderEquity"},
			{Name: "stockholdersEquity", Path: "balanceSheet.stockholdersEquity"},
			{Name: "자본총계", Path: "자본총계"},
			{Name: "지배기업 소유주지분", Path: "지배기업 소유주지분"},
		},
	}
}
