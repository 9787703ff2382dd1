package domain

import (
	"database/sql/driver"
)

// Rating category keys collected by the last wizard step.
const (
	RatingCapitalAppreciation      = "capitalAppreciation"
	RatingPaymentPlan              = "paymentPlan"
	RatingServiceCharges           = "serviceCharges"
	RatingProximity                = "proximity"
	RatingConnectivity             = "connectivity"
	RatingGovernmentInfrastructure = "governmentInfrastructure"
	RatingRecord                   = "record"
	RatingStability                = "stability"
	RatingReputation               = "reputation"
	RatingQuality                  = "quality"
	RatingAmenities                = "amenities"
	RatingRentalDemand             = "rentalDemand"
	RatingResale                   = "resale"
)

var RatingCategories = []string{
	RatingCapitalAppreciation,
	RatingPaymentPlan,
	RatingServiceCharges,
	RatingProximity,
	RatingConnectivity,
	RatingGovernmentInfrastructure,
	RatingRecord,
	RatingStability,
	RatingReputation,
	RatingQuality,
	RatingAmenities,
	RatingRentalDemand,
	RatingResale,
}

// Ratings maps a category key to a 1..5 score. Missing keys are simply absent.
type Ratings map[string]int

func (r *Ratings) Scan(value interface{}) error {
	return scanJSON(value, r, "Ratings")
}

func (r Ratings) Value() (driver.Value, error) {
	if r == nil {
		return "{}", nil
	}
	return jsonValue(map[string]int(r))
}
