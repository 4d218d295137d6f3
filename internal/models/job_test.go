package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestFormatBudgetRange(t *testing.T) {
	require.Equal(t, "₱500.00 - ₱1500.00", FormatBudgetRange(ptr(500), ptr(1500)))
	require.Equal(t, "₱500.00+", FormatBudgetRange(ptr(500), nil))
	require.Equal(t, "Up to ₱1500.50", FormatBudgetRange(nil, ptr(1500.5)))
	require.Equal(t, "Negotiable", FormatBudgetRange(nil, nil))
}

func TestNewJob(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	job, err := NewJob(JobDraft{
		Title:           "  Logo design ",
		Description:     "Need a logo",
		CategoryDisplay: "Graphic Design",
		Skills:          []string{" illustrator", "", "branding "},
		BudgetMin:       ptr(500),
		PostedByUserID:  "uid-1",
	}, now)
	require.NoError(t, err)
	require.Empty(t, job.ID)
	require.Equal(t, "Logo design", job.Title)
	require.Equal(t, now.UnixMilli(), job.Timestamp)
	require.Equal(t, now, job.PostedTime())
	require.Equal(t, "GRAPHIC_DESIGN", job.Category)
	require.Equal(t, job.Category, job.ImageKey)
	require.Equal(t, []string{"illustrator", "branding"}, job.Skills)
	require.Equal(t, "₱500.00+", job.SalaryRange)
	require.Nil(t, job.BudgetMax)
}

func TestNewJobValidation(t *testing.T) {
	_, err := NewJob(JobDraft{Description: "d", CategoryDisplay: "Other"}, time.Now())
	require.ErrorIs(t, err, ErrTitleRequired)
	_, err = NewJob(JobDraft{Title: "t", CategoryDisplay: "Other"}, time.Now())
	require.ErrorIs(t, err, ErrDescriptionRequired)
	_, err = NewJob(JobDraft{Title: "t", Description: "d"}, time.Now())
	require.ErrorIs(t, err, ErrCategoryRequired)
}

func TestCategoryKeyDefaultsToOther(t *testing.T) {
	require.Equal(t, "MOBILE_DEV", CategoryKey("Mobile Development"))
	require.Equal(t, "OTHER", CategoryKey("Basket Weaving"))
}
