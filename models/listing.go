package models

// Listing is a caregiver listing; only its booking metadata matters here.
type Listing struct {
	ID       string          `json:"id" bson:"id"`
	Metadata ListingMetadata `json:"metadata" bson:"metadata"`
	Version  int64           `json:"version" bson:"version"`
}

type ListingMetadata struct {
	SchemaVersion int                `json:"schemaVersion" bson:"schemaVersion"`
	BookedDates   []Timestamp        `json:"bookedDates" bson:"bookedDates"`
	BookedDays    []BookedDaysRecord `json:"bookedDays" bson:"bookedDays" validate:"dive"`
}

// BookedDaysRecord is a recurring booking's claim on the listing.
type BookedDaysRecord struct {
	TxID       string       `json:"txId" bson:"txId" validate:"required"`
	StartDate  Timestamp    `json:"startDate" bson:"startDate"`
	EndDate    *Timestamp   `json:"endDate" bson:"endDate"`
	Days       []Weekday    `json:"days" bson:"days" validate:"dive,weekday"`
	Exceptions ExceptionSet `json:"exceptions" bson:"exceptions"`
}

// BookingCandidate is a booking being checked against a listing before it is
// created. One-time candidates carry Dates; recurring candidates carry the
// schedule window.
type BookingCandidate struct {
	Type       BookingType    `json:"type" binding:"required,oneof=oneTime recurring"`
	Dates      []Timestamp    `json:"dates,omitempty"`
	Schedule   []WeekdayEntry `json:"schedule,omitempty"`
	StartDate  Timestamp      `json:"startDate"`
	EndDate    *Timestamp     `json:"endDate"`
	Exceptions ExceptionSet   `json:"exceptions"`
}
