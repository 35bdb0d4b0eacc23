package entity

import "time"

// DashboardLayout is the set of fixed locators on the report page.
type DashboardLayout struct {
	URL string

	StateDropdown string
	RTODropdown   string
	YAxisDropdown string
	YAxisOption   string
	XAxisDropdown string
	XAxisOption   string
	YearDropdown  string

	RefreshButton       string
	FilterPanelToggle   string
	FilterRefreshButton string
	DownloadButton      string
}

func DefaultDashboardLayout() DashboardLayout {
	return DashboardLayout{
		URL: "https://vahan.parivahan.gov.in/vahan4dashboard/vahan/view/reportview.xhtml",

		StateDropdown: "/html/body/form/div[2]/div/div/div[1]/div[2]/div[3]/div/div[3]/span",
		RTODropdown:   "//*[@id='selectedRto']/div[3]/span",
		YAxisDropdown: "//*[@id='yaxisVar']/div[3]/span",
		YAxisOption:   "//*[@id='yaxisVar_4']",
		XAxisDropdown: "//*[@id='xaxisVar']/div[3]/span",
		XAxisOption:   "//*[@id='xaxisVar_7']",
		YearDropdown:  "//*[@id='selectedYear']/div[3]/span",

		RefreshButton:       "/html/body/form/div[2]/div/div/div[1]/div[3]/div[3]/div/button",
		FilterPanelToggle:   "//*[@id='filterLayout-toggler']/span/a/span",
		FilterRefreshButton: "/html/body/form/div[2]/div/div/div[3]/div/div[1]/div[1]/span/button",
		DownloadButton:      "/html/body/form/div[2]/div/div/div[3]/div/div[2]/div/div/div[1]/div[1]/a/img",
	}
}

// RetryPolicy bounds a retried UI operation: at most MaxAttempts tries with
// Delay between them.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}
