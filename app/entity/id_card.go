package entity

import "time"

const (
	SexMale   = "férfi"
	SexFemale = "nő"
)

type IDCard struct {
	ID                uint64
	UserID            uint64
	IDNumber          string
	FirstName         string
	LastName          string
	Sex               string
	CANNumber         string
	PlaceOfBirth      string
	MothersMaidenName string
	DateOfBirth       time.Time
	DateOfExpiry      time.Time
	CreatedAt         time.Time
	ModifiedAt        time.Time
}
