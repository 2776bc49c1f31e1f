package analysis

// Category is the outcome of the irrigation rules.
type Category int

const (
	NoIrrigation Category = iota
	IrrigateEarlyMorning
	IrrigateEarlyMorningOrLateAfternoon
)

func (c Category) String() string {
	switch c {
	case IrrigateEarlyMorning:
		return "Irrigate early morning"
	case IrrigateEarlyMorningOrLateAfternoon:
		return "Irrigate early morning or late afternoon"
	default:
		return "No irrigation needed"
	}
}

// Code is the stable machine-readable form used in JSON and MQTT payloads.
func (c Category) Code() string {
	switch c {
	case IrrigateEarlyMorning:
		return "irrigate_early_morning"
	case IrrigateEarlyMorningOrLateAfternoon:
		return "irrigate_early_morning_or_late_afternoon"
	default:
		return "no_irrigation"
	}
}

// Recommendation is a rendering-neutral irrigation advice. Presentation
// (emphasis, colour) is left to the caller.
type Recommendation struct {
	Category  Category
	Headline  string
	Rationale string
}

var recommendations = map[Category]Recommendation{
	IrrigateEarlyMorning: {
		Category:  IrrigateEarlyMorning,
		Headline:  "Irrigation is recommended early in the morning",
		Rationale: "Watering before temperatures rise minimizes evaporation and water wastage and helps water reach the plant roots effectively.",
	},
	IrrigateEarlyMorningOrLateAfternoon: {
		Category:  IrrigateEarlyMorningOrLateAfternoon,
		Headline:  "Irrigation is recommended early in the morning or late afternoon",
		Rationale: "Depending on current temperature and humidity, this balances effective watering with minimizing water loss due to evaporation.",
	},
	NoIrrigation: {
		Category:  NoIrrigation,
		Headline:  "No irrigation needed",
		Rationale: "Based on the current data no watering is required. Continue to monitor conditions regularly to optimize watering schedules.",
	},
}

// RecommendIrrigation applies the irrigation rules in order, first match wins:
//
//	temperature > 25 and humidity < 40  -> IrrigateEarlyMorning
//	temperature > 20 and humidity < 50  -> IrrigateEarlyMorningOrLateAfternoon
//	otherwise                           -> NoIrrigation
//
// Comparisons are strict. meanLight does not take part in the decision.
// NaN inputs fail every comparison and therefore yield NoIrrigation.
func RecommendIrrigation(meanTemperature, meanHumidity, meanLight float64) Recommendation {
	switch {
	case meanTemperature > 25 && meanHumidity < 40:
		return recommendations[IrrigateEarlyMorning]
	case meanTemperature > 20 && meanHumidity < 50:
		return recommendations[IrrigateEarlyMorningOrLateAfternoon]
	default:
		return recommendations[NoIrrigation]
	}
}

// recommendFromMeans is RecommendIrrigation over optional means. A missing
// temperature or humidity mean yields ErrInsufficientData.
func recommendFromMeans(temperature, humidity, light *float64) (Recommendation, error) {
	if temperature == nil || humidity == nil {
		return Recommendation{}, ErrInsufficientData
	}
	l := 0.0
	if light != nil {
		l = *light
	}
	return RecommendIrrigation(*temperature, *humidity, l), nil
}
