package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/openmat/matdir/internal/csvio"
	"github.com/openmat/matdir/internal/domain"
	"github.com/openmat/matdir/internal/observability"
)

// ValidationError reports a submission field that failed validation.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q", e.Field)
}

// EventSubmission is one event row from the admin form.
type EventSubmission struct {
	Event string `json:"event" validate:"required"`
	For   string `json:"for"`
	Where string `json:"where"`
	City  string `json:"city" validate:"required"`
	State string `json:"state" validate:"required,len=2,alpha"`
	Date  string `json:"date" validate:"required"`
	Type  string `json:"type"`
}

// DirectorySubmission is one gym row from the admin form. Coordinates are
// filled in later by the geocode backfill, so LAT/LON stay blank.
type DirectorySubmission struct {
	Name      string `json:"name" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required,len=2,alpha"`
	Instagram string `json:"instagram"`
	Sat       string `json:"sat"`
	Sun       string `json:"sun"`
	OpenToAll string `json:"open_to_all" validate:"omitempty,oneof=Y N"`
}

// Service validates admin submissions and commits them as appended CSV rows.
type Service struct {
	client        *Client
	validate      *validator.Validate
	directoryPath string
	eventsPath    string
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewService creates a Service committing to the given in-repo CSV paths.
func NewService(client *Client, directoryPath, eventsPath string, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		client:        client,
		validate:      validator.New(),
		directoryPath: directoryPath,
		eventsPath:    eventsPath,
		metrics:       metrics,
		logger:        logger,
	}
}

// SubmitEvent appends one event row. DAY and YEAR derive from the submitted
// date; CREATED is stamped with today's date.
func (s *Service) SubmitEvent(ctx context.Context, token string, sub EventSubmission) error {
	if err := s.check(sub); err != nil {
		return err
	}

	day, year := "", ""
	if d, ok := domain.ParseDate(sub.Date); ok {
		day = d.Weekday().String()[:3]
		year = strconv.Itoa(d.Year())
	}

	row := csvio.EncodeRow([]string{
		strings.TrimSpace(sub.Event),
		strings.TrimSpace(sub.For),
		strings.TrimSpace(sub.Where),
		strings.TrimSpace(sub.City),
		strings.ToUpper(strings.TrimSpace(sub.State)),
		day,
		strings.TrimSpace(sub.Date),
		domain.CreatedStamp(),
		year,
		strings.TrimSpace(sub.Type),
	})

	message := fmt.Sprintf("Add event: %s", strings.TrimSpace(sub.Event))
	err := s.client.ValidateToken(ctx, token)
	if err == nil {
		err = s.client.AppendRow(ctx, token, s.eventsPath, message, row)
	}
	s.record("events", err)
	return err
}

// SubmitDirectory appends one gym row.
func (s *Service) SubmitDirectory(ctx context.Context, token string, sub DirectorySubmission) error {
	if err := s.check(sub); err != nil {
		return err
	}

	row := csvio.EncodeRow([]string{
		strings.ToUpper(strings.TrimSpace(sub.State)),
		strings.TrimSpace(sub.City),
		strings.TrimSpace(sub.Name),
		strings.TrimSpace(sub.Instagram),
		strings.TrimSpace(sub.Sat),
		strings.TrimSpace(sub.Sun),
		strings.ToUpper(strings.TrimSpace(sub.OpenToAll)),
		domain.CreatedStamp(),
		"",
		"",
	})

	message := fmt.Sprintf("Add gym: %s", strings.TrimSpace(sub.Name))
	err := s.client.ValidateToken(ctx, token)
	if err == nil {
		err = s.client.AppendRow(ctx, token, s.directoryPath, message, row)
	}
	s.record("directory", err)
	return err
}

func (s *Service) check(sub any) error {
	err := s.validate.Struct(sub)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ValidationError{Field: strings.ToLower(verrs[0].Field())}
	}
	return err
}

func (s *Service) record(table string, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, ErrConflict):
		outcome = "conflict"
	case errors.Is(err, ErrUnauthorized):
		outcome = "unauthorized"
	case err != nil:
		outcome = "error"
	}
	s.metrics.AdminCommits.WithLabelValues(table, outcome).Inc()
}
