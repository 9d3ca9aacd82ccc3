package handler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rezkam/taskly/internal/domain"
)

// fieldError is a request problem the domain has no sentinel for.
type fieldError struct {
	field string
	issue string
}

func (e *fieldError) Error() string {
	return e.field + ": " + e.issue
}

// parseListQuery turns the query string of GET /v1/tasks into listing parameters.
// Enum values are matched case-insensitively by the domain constructors.
func parseListQuery(q url.Values) (domain.ListTasksParams, error) {
	start, err := parseTimeParam(q, "start")
	if err != nil {
		return domain.ListTasksParams{}, err
	}
	end, err := parseTimeParam(q, "end")
	if err != nil {
		return domain.ListTasksParams{}, err
	}

	filters, err := domain.NewTaskFilters(domain.TaskFiltersInput{
		Status:      q.Get("status"),
		DateFilter:  q.Get("date_filter"),
		CustomStart: start,
		CustomEnd:   end,
		SortOption:  q.Get("sort"),
	})
	if err != nil {
		return domain.ListTasksParams{}, err
	}

	loc, err := domain.LoadLocation(q.Get("timezone"))
	if err != nil {
		return domain.ListTasksParams{}, err
	}

	limit := 0
	if raw := strings.TrimSpace(q.Get("page_size")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return domain.ListTasksParams{}, fmt.Errorf("%w: %s", domain.ErrInvalidPageSize, raw)
		}
	}

	return domain.ListTasksParams{
		Filters:  filters,
		Query:    q.Get("q"),
		Location: loc,
		Offset:   parsePageToken(q.Get("page_token")),
		Limit:    limit,
	}, nil
}

// parseTimeParam reads an optional RFC 3339 timestamp.
func parseTimeParam(q url.Values, name string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, &fieldError{field: name, issue: "must be an RFC 3339 timestamp"}
	}
	return &t, nil
}
