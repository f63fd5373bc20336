package models

import (
	"time"

	"github.com/google/uuid"
)

// Job is a posting owned by the user who created it.
type Job struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	Category        string    `json:"category"`
	Salary          string    `json:"salary"`
	RequiredSkills  []string  `json:"required_skills"`
	ExperienceLevel string    `json:"experience_level"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// JobFields is the client-editable part of a Job.
type JobFields struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Company         string   `json:"company" validate:"required,max=200"`
	Description     string   `json:"description" validate:"required"`
	Location        string   `json:"location" validate:"required,max=200"`
	Category        string   `json:"category" validate:"max=100"`
	Salary          string   `json:"salary" validate:"max=100"`
	RequiredSkills  []string `json:"required_skills" validate:"max=50,dive,required,max=100"`
	ExperienceLevel string   `json:"experience_level" validate:"max=100"`
}

// Apply copies editable fields onto the job. Owner and timestamps are untouched.
func (j *Job) Apply(f JobFields) {
	j.Title = f.Title
	j.Company = f.Company
	j.Description = f.Description
	j.Location = f.Location
	j.Category = f.Category
	j.Salary = f.Salary
	j.RequiredSkills = f.RequiredSkills
	j.ExperienceLevel = f.ExperienceLevel
}

// JobFilter narrows GET /api/jobs. Empty strings match everything.
type JobFilter struct {
	OwnerID         *uuid.UUID
	Category        string
	Location        string
	ExperienceLevel string
	Limit           int
	Offset          int
}
