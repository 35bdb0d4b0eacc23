package entity

// CategoryResult is the verification outcome for one checkbox table.
type CategoryResult struct {
	Expected []string `json:"expected"`
	Verified []string `json:"verified"`
	Failed   []string `json:"failed"`
	Unwanted []string `json:"unwanted"`
}

type VerificationReport struct {
	Product        ProductType    `json:"product"`
	Fuel           CategoryResult `json:"fuel_filters"`
	VehicleClasses CategoryResult `json:"vehicle_classes"`
	SuccessRate    float64        `json:"success_rate"`
	UnwantedCount  int            `json:"unwanted_count"`
	Passed         bool           `json:"passed"`
}

func (r *VerificationReport) ExpectedTotal() int {
	return len(r.Fuel.Expected) + len(r.VehicleClasses.Expected)
}

func (r *VerificationReport) VerifiedTotal() int {
	return len(r.Fuel.Verified) + len(r.VehicleClasses.Verified)
}
