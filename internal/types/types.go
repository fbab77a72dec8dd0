package types

import (
	"time"
)

const dartViewerURL = "https://dart.fss.or.kr/dsaf001/main.do?rcpNo="

// Disclosure is a single filing as listed by the DART feed.
type Disclosure struct {
	ReceiptNo   string `json:"rcept_no"`
	CorpName    string `json:"corp_name"`
	CorpCode    string `json:"corp_code"`
	StockCode   string `json:"stock_code"`
	CorpClass   string `json:"corp_cls"`
	Title       string `json:"report_nm"`
	FilerName   string `json:"flr_nm"`
	ReceiptDate string `json:"rcept_dt"`
	Remark      string `json:"rm"`
}

// ViewerURL links to the public DART viewer page for the filing.
func (d Disclosure) ViewerURL() string {
	return dartViewerURL + d.ReceiptNo
}

// Filed parses ReceiptDate (YYYYMMDD) in loc. The zero time is returned when
// the feed omitted or garbled the date.
func (d Disclosure) Filed(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("20060102", d.ReceiptDate, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}
