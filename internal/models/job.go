package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Job is a posting stored in the jobs collection.
// Budget bounds are independent: either, both or neither may be set.
type Job struct {
	ID              string    `json:"id,omitempty"`
	Title           string    `json:"title"`
	CompanyName     string    `json:"companyName,omitempty"`
	Location        string    `json:"location,omitempty"`
	Description     string    `json:"description"`
	SalaryRange     string    `json:"salaryRange,omitempty"`
	PostedByUserID  string    `json:"postedByUserId,omitempty"`
	Timestamp       int64     `json:"timestamp"` // epoch milliseconds
	BudgetMin       *float64  `json:"budgetMin,omitempty"`
	BudgetMax       *float64  `json:"budgetMax,omitempty"`
	CategoryDisplay string    `json:"categoryDisplay,omitempty"`
	Category        string    `json:"category,omitempty"`
	ImageKey        string    `json:"imageKey,omitempty"`
	Skills          []string  `json:"skills,omitempty"`
	ExperienceLevel string    `json:"experienceLevel,omitempty"`
	PostedAt        time.Time `json:"postedAt,omitzero"`
}

// JobDraft is what a poster fills in before the job exists.
type JobDraft struct {
	Title           string
	CompanyName     string
	Location        string
	Description     string
	PostedByUserID  string
	BudgetMin       *float64
	BudgetMax       *float64
	CategoryDisplay string
	Skills          []string
	ExperienceLevel string
}

var (
	ErrTitleRequired       = errors.New("job title is required")
	ErrDescriptionRequired = errors.New("job description is required")
	ErrCategoryRequired    = errors.New("a category is required")
)

// Experience levels offered when posting.
var ExperienceLevels = []string{"Entry", "Intermediate", "Expert"}

// Categories maps display labels to stored category codes.
var Categories = map[string]string{
	"Graphic Design":     "GRAPHIC_DESIGN",
	"Writing & Content":  "WRITING",
	"Programming":        "PROGRAMMING",
	"Video Editing":      "VIDEO_EDITING",
	"Marketing":          "MARKETING",
	"Data Entry":         "DATA_ENTRY",
	"Translation":        "TRANSLATION",
	"Web Design":         "WEB_DESIGN",
	"Mobile Development": "MOBILE_DEV",
	"Consulting":         "CONSULTING",
	"Other":              "OTHER",
}

// CategoryKey returns the code for a display label. Unknown labels map to OTHER.
func CategoryKey(display string) string {
	if key, ok := Categories[display]; ok {
		return key
	}
	return "OTHER"
}

// NewJob validates d and builds an unsaved job stamped with now.
func NewJob(d JobDraft, now time.Time) (*Job, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.CategoryDisplay = strings.TrimSpace(d.CategoryDisplay)

	if d.Title == "" {
		return nil, ErrTitleRequired
	}
	if d.Description == "" {
		return nil, ErrDescriptionRequired
	}
	if d.CategoryDisplay == "" {
		return nil, ErrCategoryRequired
	}

	key := CategoryKey(d.CategoryDisplay)
	return &Job{
		Title:           d.Title,
		CompanyName:     d.CompanyName,
		Location:        strings.TrimSpace(d.Location),
		Description:     d.Description,
		SalaryRange:     FormatBudgetRange(d.BudgetMin, d.BudgetMax),
		PostedByUserID:  d.PostedByUserID,
		Timestamp:       now.UnixMilli(),
		BudgetMin:       d.BudgetMin,
		BudgetMax:       d.BudgetMax,
		CategoryDisplay: d.CategoryDisplay,
		Category:        key,
		ImageKey:        key,
		Skills:          ParseSkills(strings.Join(d.Skills, ",")),
		ExperienceLevel: d.ExperienceLevel,
	}, nil
}

// ParseSkills splits a comma separated list, trimming and dropping empty entries.
func ParseSkills(input string) []string {
	var out []string
	for _, s := range strings.Split(input, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FormatBudgetRange renders the budget text shown with a job.
func FormatBudgetRange(low, high *float64) string {
	switch {
	case low != nil && high != nil:
		return fmt.Sprintf("₱%.2f - ₱%.2f", *low, *high)
	case low != nil:
		return fmt.Sprintf("₱%.2f+", *low)
	case high != nil:
		return fmt.Sprintf("Up to ₱%.2f", *high)
	}
	return "Negotiable"
}

// PostedTime converts the epoch-millisecond timestamp.
func (j *Job) PostedTime() time.Time {
	return time.UnixMilli(j.Timestamp).UTC()
}
