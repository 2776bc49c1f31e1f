package types

import "time"

type Upload struct {
	Key       string    `json:"key"`
	Filename  string    `json:"filename"`
	SizeBytes int       `json:"sizeBytes"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session tracks the one upload a browser session is looking at. Filename is
// the name this session uploaded the content under.
type Session struct {
	ID           string    `json:"id"`
	UploadKey    string    `json:"uploadKey,omitempty"`
	Filename     string    `json:"filename,omitempty"`
	SelectedDate string    `json:"selectedDate,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type DailySummaryRow struct {
	Date            string   `json:"date"`
	MeanTemperature *float64 `json:"meanTemperature"`
	MeanHumidity    *float64 `json:"meanHumidity"`
	MeanLightLevel  *float64 `json:"meanLightLevel"`
	Samples         int      `json:"samples"`
}

type ObservationRow struct {
	Time        time.Time `json:"time"`
	TimeSlot    string    `json:"timeSlot"`
	Temperature *float64  `json:"temperature"`
	Humidity    *float64  `json:"humidity"`
	LightLevel  *float64  `json:"lightLevel"`
}

type Recommendation struct {
	Category  string `json:"category"`
	Code      string `json:"code"`
	Headline  string `json:"headline"`
	Rationale string `json:"rationale"`
}

// RecommendationMessage is published to MQTT after each upload.
type RecommendationMessage struct {
	UploadKey       string    `json:"upload_key"`
	Date            string    `json:"date"`
	Category        string    `json:"category"`
	Rationale       string    `json:"rationale"`
	MeanTemperature *float64  `json:"mean_temperature_c,omitempty"`
	MeanHumidity    *float64  `json:"mean_humidity_pct,omitempty"`
	MeanLightLevel  *float64  `json:"mean_light_lux,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
}
