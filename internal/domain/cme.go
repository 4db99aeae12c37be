package domain

// CmeQuote — первая заполненная строка таблицы котировок CME.
type CmeQuote struct {
	Last    string `json:"last"`
	Change  string `json:"change"`
	High    string `json:"high"`
	Low     string `json:"low"`
	Volume  string `json:"volume"`
	Updated string `json:"updated"`
}

// Complete — все поля заполнены.
func (q CmeQuote) Complete() bool {
	return q.Last != "" && q.Change != "" && q.High != "" &&
		q.Low != "" && q.Volume != "" && q.Updated != ""
}
