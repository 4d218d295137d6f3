package services

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Lllllllleong/jobboard/internal/async"
	"github.com/Lllllllleong/jobboard/internal/docstore"
	"github.com/Lllllllleong/jobboard/internal/models"
)

// Order selects how ListAllOrdered sorts jobs by timestamp.
type Order int

const (
	Descending Order = iota
	Ascending
)

// ParseOrder accepts "asc" or "desc"; anything else is Descending.
func ParseOrder(s string) Order {
	if s == "asc" || s == "ascending" {
		return Ascending
	}
	return Descending
}

// JobRepository maps jobs to documents in one collection.
type JobRepository struct {
	store      docstore.Store
	collection string
	now        func() time.Time
	logger     *slog.Logger
}

type RepositoryOption func(*JobRepository)

// WithClock replaces time.Now for timestamp stamping.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *JobRepository) { r.now = now }
}

func WithRepositoryLogger(l *slog.Logger) RepositoryOption {
	return func(r *JobRepository) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewJobRepository(store docstore.Store, collection string, opts ...RepositoryOption) *JobRepository {
	if collection == "" {
		collection = "jobs"
	}
	r := &JobRepository{
		store:      store,
		collection: collection,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *JobRepository) Collection() string { return r.collection }

// Add stores job and, on success, writes the new ID back onto it.
func (r *JobRepository) Add(ctx context.Context, job *models.Job) (string, error) {
	if job == nil {
		return "", fmt.Errorf("job must not be nil")
	}
	now := r.now()
	if job.Timestamp <= 0 {
		job.Timestamp = now.UnixMilli()
	}
	if job.PostedAt.IsZero() {
		job.PostedAt = now.UTC()
	}

	fields, err := JobFields(job)
	if err != nil {
		return "", fmt.Errorf("failed to encode job: %w", err)
	}

	id, err := r.store.CreateDocument(ctx, r.collection, fields)
	if err != nil {
		r.logger.Error("Failed to add job", "collection", r.collection, "title", job.Title, "error", err)
		return "", fmt.Errorf("failed to add job: %w", err)
	}
	job.ID = id
	r.logger.Info("Job added", "collection", r.collection, "job_id", id)
	return id, nil
}

// ListAll returns every job, newest first.
func (r *JobRepository) ListAll(ctx context.Context) ([]*models.Job, error) {
	return r.ListAllOrdered(ctx, Descending)
}

// ListAllOrdered returns every job sorted by timestamp. Equal timestamps keep the
// order the store returned them in.
func (r *JobRepository) ListAllOrdered(ctx context.Context, order Order) ([]*models.Job, error) {
	docs, err := r.store.ListCollection(ctx, r.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]*models.Job, 0, len(docs))
	for _, doc := range docs {
		jobs = append(jobs, JobFromDocument(doc))
	}
	slices.SortStableFunc(jobs, func(a, b *models.Job) int {
		if order == Ascending {
			return cmp.Compare(a.Timestamp, b.Timestamp)
		}
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return jobs, nil
}

// AddAsync runs Add in the background. job.ID is only safe to read once the future
// has completed.
func (r *JobRepository) AddAsync(ctx context.Context, job *models.Job) *async.Future[string] {
	return async.Go(ctx, func(ctx context.Context) (string, error) {
		return r.Add(ctx, job)
	})
}

func (r *JobRepository) ListAllAsync(ctx context.Context) *async.Future[[]*models.Job] {
	return r.ListAllOrderedAsync(ctx, Descending)
}

func (r *JobRepository) ListAllOrderedAsync(ctx context.Context, order Order) *async.Future[[]*models.Job] {
	return async.Go(ctx, func(ctx context.Context) ([]*models.Job, error) {
		return r.ListAllOrdered(ctx, order)
	})
}

// JobFields encodes a job into document fields. Empty optional fields are omitted.
func JobFields(job *models.Job) (docstore.Fields, error) {
	native := map[string]any{
		"title":       job.Title,
		"description": job.Description,
		"timestamp":   job.Timestamp,
	}
	optional := map[string]string{
		"companyName":     job.CompanyName,
		"location":        job.Location,
		"salaryRange":     job.SalaryRange,
		"postedByUserId":  job.PostedByUserID,
		"categoryDisplay": job.CategoryDisplay,
		"category":        job.Category,
		"imageKey":        job.ImageKey,
		"experienceLevel": job.ExperienceLevel,
	}
	for name, value := range optional {
		if value != "" {
			native[name] = value
		}
	}
	if job.BudgetMin != nil {
		native["budgetMin"] = *job.BudgetMin
	}
	if job.BudgetMax != nil {
		native["budgetMax"] = *job.BudgetMax
	}
	if job.Skills != nil {
		native["skills"] = job.Skills
	}
	if !job.PostedAt.IsZero() {
		native["postedAt"] = job.PostedAt
	}
	return docstore.EncodeMap(native)
}

// JobFromDocument decodes a stored job. Missing or malformed fields stay at their zero
// value.
func JobFromDocument(doc docstore.Document) *models.Job {
	f := doc.Fields
	job := &models.Job{
		ID:              doc.ID,
		Title:           f.String("title"),
		CompanyName:     f.String("companyName"),
		Location:        f.String("location"),
		Description:     f.String("description"),
		SalaryRange:     f.String("salaryRange"),
		PostedByUserID:  f.String("postedByUserId"),
		Timestamp:       f.Int("timestamp"),
		CategoryDisplay: f.String("categoryDisplay"),
		Category:        f.String("category"),
		ImageKey:        f.String("imageKey"),
		Skills:          f.Strings("skills"),
		ExperienceLevel: f.String("experienceLevel"),
		PostedAt:        f.Time("postedAt"),
	}
	if v, ok := f.Float("budgetMin"); ok {
		job.BudgetMin = &v
	}
	if v, ok := f.Float("budgetMax"); ok {
		job.BudgetMax = &v
	}
	return job
}
