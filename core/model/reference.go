package model

// ReferenceScenario returns the 24 hour operating day of the reference
// microgrid. It is used when no scenario file is supplied.
func ReferenceScenario() HorizonParameters {
	return HorizonParameters{
		DG1Cost: 80,
		DG2Cost: 90,
		Load: []float64{
			169, 175, 179, 171, 181, 172, 270, 264, 273, 281, 193, 158,
			161, 162, 250, 260, 267, 271, 284, 167, 128, 134, 144, 150,
		},
		GridBuyPrice: []float64{
			90, 90, 90, 90, 90, 90, 110, 110, 110, 110, 110, 125,
			125, 125, 125, 125, 125, 125, 110, 110, 110, 110, 110, 110,
		},
		GridSellPrice: []float64{
			70, 70, 70, 70, 70, 70, 90, 90, 90, 90, 90, 105,
			105, 105, 105, 105, 105, 105, 90, 90, 90, 90, 90, 90,
		},
		Renewable1: []float64{
			0, 0, 0, 0, 0, 0, 0, 10, 15, 20, 23, 28,
			33, 35, 34, 31, 28, 10, 0, 0, 0, 0, 0, 0,
		},
		Renewable2: []float64{
			0, 0, 0, 0, 0, 0, 0, 10, 15, 20, 23, 28,
			33, 35, 34, 31, 28, 10, 0, 0, 0, 0, 0, 0,
		},
		SoCInitial:    0.2,
		ESSCapacity:   200,
		ESSEfficiency: 0.95,
		Ratings:       DefaultRatings(),
	}
}
