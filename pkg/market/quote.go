package market

// Charts holds the chart image URLs returned alongside a quote.
type Charts struct {
	Minute string `json:"minurl,omitempty"`
	Day    string `json:"dayurl,omitempty"`
	Week   string `json:"weekurl,omitempty"`
	Month  string `json:"monthurl,omitempty"`
}

// Quote is a normalized real-time quote. JSON names follow the upstream
// field names so the stock proxy route stays wire compatible.
type Quote struct {
	Market Market `json:"_market"`
	Code   string `json:"gid,omitempty"`
	Name   string `json:"name"`

	// Price is taken from nowPri, or lastestpri on markets that use it.
	Price         string `json:"nowPri"`
	ChangePercent string `json:"limit,omitempty"`
	ChangeAmount  string `json:"uppic,omitempty"`
	Open          string `json:"openpri,omitempty"`
	PrevClose     string `json:"formpri,omitempty"`
	High          string `json:"maxpri,omitempty"`
	Low           string `json:"minpri,omitempty"`
	Volume        string `json:"traNumber,omitempty"`
	Turnover      string `json:"traAmount,omitempty"`

	// US and HK only.
	PE     string `json:"priearn,omitempty"`
	EPS    string `json:"EPS,omitempty"`
	High52 string `json:"max52,omitempty"`
	Low52  string `json:"min52,omitempty"`

	// Shanghai/Shenzhen only.
	Bid string `json:"competitivePri,omitempty"`
	Ask string `json:"reservePri,omitempty"`

	Charts
}
