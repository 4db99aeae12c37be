package domain

import (
	"fmt"
	"net/url"
)

// Параметры отчёта PTAX.
const (
	ptaxMethod               = "consultarBoletim"
	ptaxTradedRatesReport    = "3"
	ptaxUSDollarCurrencyCode = "61"
)

// PtaxRate — строка бюллетеня PTAX.
type PtaxRate struct {
	Time     string `json:"time"`
	Type     string `json:"type"`
	BuyRate  string `json:"buyRateValue"`
	SellRate string `json:"sellRateValue"`
	Date     string `json:"date"`
}

// PtaxURL строит URL бюллетеня курса доллара за дату.
func PtaxURL(baseURL, date string) (string, error) {
	if baseURL == "" {
		return "", fmt.Errorf("cannot build ptax url: %w", ErrMissingBaseURL)
	}

	dmy, err := DayMonthYear(date)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("method", ptaxMethod)
	params.Set("DATAINI", dmy)
	params.Set("RadOpcao", ptaxTradedRatesReport)
	params.Set("ChkMoeda", ptaxUSDollarCurrencyCode)

	return baseURL + "?" + params.Encode(), nil
}
