package models

import "time"

// SaveRecord is one entry of the section save history
type SaveRecord struct {
	ID         int       `json:"id"`
	SectionID  int       `json:"sectionId"`
	Layout     string    `json:"layout"`
	OperatorID int       `json:"operatorId"`
	Changes    []string  `json:"changes"`
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}
