package views

import "time"

type Resource struct {
	Text  string
	Title string
	URL   string
}

// Resources are the reference links shown on every dashboard.
var Resources = []Resource{
	{
		Text:  "For more information on irrigation and crop management in Alberta, visit the",
		Title: "Alberta Ministry of Agriculture and Irrigation",
		URL:   "https://www.alberta.ca/agriculture-and-irrigation.aspx",
	},
	{
		Text:  "For weather data and climate information relevant to Calgary, check",
		Title: "Environment Canada",
		URL:   "https://www.weather.gc.ca/",
	},
	{
		Text:  "For further information on optimal irrigation practices in Alberta, visit the",
		Title: "Alberta Irrigation Manual",
		URL:   "https://www.alberta.ca/system/files/custom_downloaded_images/af-alberta-irrigation-management-manual.pdf",
	},
}

type ObservationRow struct {
	Time        time.Time
	TimeSlot    string
	Temperature *float64
	Humidity    *float64
	LightLevel  *float64
}

type SummaryRow struct {
	Date            string
	MeanTemperature *float64
	MeanHumidity    *float64
	MeanLightLevel  *float64
	Samples         int
}

type RecommendationView struct {
	Code      string
	Headline  string
	Rationale string
}

type ChartLink struct {
	Title string
	URL   string
}

// HourlyData is the view model of the per-day fragment.
type HourlyData struct {
	Date  string
	Error string
	Empty bool

	Rows            []ObservationRow
	MeanTemperature *float64
	MeanHumidity    *float64
	MeanLightLevel  *float64

	Recommendation     *RecommendationView
	RecommendationInfo string
	Charts             []ChartLink
}

type DashboardData struct {
	BannerURL string
	Resources []Resource
	Error     string

	HasUpload bool
	Filename  string
	Rows      []ObservationRow

	NoDates      bool
	MinDate      string
	MaxDate      string
	SelectedDate string
	Hourly       *HourlyData

	Summary    []SummaryRow
	RecentDate string
	Recent     *RecommendationView
	RecentInfo string
}
