package dto

import "github.com/hongminglow/jobportal-be/internal/models"

type JobListResponse struct {
	Jobs   []models.Job `json:"jobs"`
	Count  int          `json:"count"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}
