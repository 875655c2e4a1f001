package classifymessage

type Input struct {
	Text string `json:"text"`
}

type Output struct {
	IntentAnalysis IntentAnalysis `json:"intentAnalysis"`
	OrderNumber    string         `json:"orderNumber,omitempty"`
}

type IntentAnalysis struct {
	PrimaryIntent string  `json:"primaryIntent"`
	Confidence    float64 `json:"confidence"`
}
