package model

import (
	"slices"
	"time"
)

type Category string

const (
	CategoryIllegalCutting Category = "illegal-cutting"
	CategoryWasteDumping   Category = "waste-dumping"
	CategoryPollution      Category = "pollution"
	CategoryOther          Category = "other"
)

var Categories = []Category{
	CategoryIllegalCutting,
	CategoryWasteDumping,
	CategoryPollution,
	CategoryOther,
}

func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

type Status string

const (
	StatusPending     Status = "PENDING"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusVerified    Status = "VERIFIED"
	StatusRejected    Status = "REJECTED"
	StatusResolved    Status = "RESOLVED"
)

var Statuses = []Status{
	StatusPending,
	StatusUnderReview,
	StatusVerified,
	StatusRejected,
	StatusResolved,
}

func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

type Location struct {
	Latitude  float64 `gorm:"not null" json:"latitude"`
	Longitude float64 `gorm:"not null" json:"longitude"`
	Address   string  `gorm:"not null" json:"address"`
}

type Report struct {
	ID          string    `gorm:"primaryKey;size:16" json:"id"`
	UserID      string    `gorm:"index;not null;size:16" json:"userId"`
	Category    Category  `gorm:"index;not null" json:"category"`
	Description string    `gorm:"not null" json:"description"`
	Location    Location  `gorm:"embedded" json:"location"`
	Photo       string    `json:"photo,omitempty"`
	PhotoKey    string    `json:"photoKey,omitempty"` // Set when the photo lives in object storage
	Status      Status    `gorm:"index;default:PENDING;not null" json:"status"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

type Reporter struct {
	Name string `json:"name"`
}

// CommunityReport is a report as shown to anyone, with the owner reduced to
// a display name.
type CommunityReport struct {
	ID          string    `json:"id"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	Location    Location  `json:"location"`
	Photo       string    `json:"photo,omitempty"`
	PhotoKey    string    `json:"photoKey,omitempty"`
	Status      Status    `json:"status"`
	Reporter    Reporter  `json:"reporter"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r *Report) Community() CommunityReport {
	c := CommunityReport{
		ID:          r.ID,
		Category:    r.Category,
		Description: r.Description,
		Location:    r.Location,
		Photo:       r.Photo,
		PhotoKey:    r.PhotoKey,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	if r.User != nil {
		c.Reporter.Name = r.User.Name
	}

	return c
}
