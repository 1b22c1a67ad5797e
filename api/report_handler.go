package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"projector/models"
	"projector/service"
)

const dateLayout = "2006-01-02"

// ReportHandler serves manager reports over permanent results
type ReportHandler struct {
	reports service.ReportService
}

func NewReportHandler(reports service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) EndingBalance(w http.ResponseWriter, r *http.Request) {
	id, err := analysisID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	balance, err := h.reports.LatestEndingBalance(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// Reports lists analyses with their permanent breakdown. Dates are whole days in the given timezone.
func (h *ReportHandler) Reports(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	loc, err := location(query.Get("timezone"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter := models.ReportFilter{Username: query.Get("username")}
	if filter.CreatedFrom, err = parseDay(query, "start_date", loc, false); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.CreatedTo, err = parseDay(query, "end_date", loc, true); err != nil {
		writeError(w, r, err)
		return
	}

	reports, err := h.reports.AnalysisReports(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// Results lists permanent rows matching the query parameters
func (h *ReportHandler) Results(w http.ResponseWriter, r *http.Request) {
	filter, err := resultFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := h.reports.QueryResults(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func resultFilter(query url.Values) (models.ResultFilter, error) {
	filter := models.ResultFilter{
		Username:            query.Get("username"),
		DescriptionContains: query.Get("description"),
	}

	floats := []struct {
		name string
		dst  **float64
	}{
		{"principal_gt", &filter.PrincipalGT},
		{"principal_lt", &filter.PrincipalLT},
		{"ending_balance_gt", &filter.EndingBalanceGT},
		{"ending_balance_lt", &filter.EndingBalanceLT},
	}
	for _, f := range floats {
		v, err := parseFloat(query, f.name)
		if err != nil {
			return filter, err
		}
		*f.dst = v
	}

	var err error
	if filter.GeneratedFrom, err = parseTimestamp(query, "generated_from"); err != nil {
		return filter, err
	}
	if filter.GeneratedTo, err = parseTimestamp(query, "generated_to"); err != nil {
		return filter, err
	}

	if raw := query.Get("final_week_only"); raw != "" {
		finalOnly, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, &service.ValidationError{Field: "final_week_only", Reason: "must be a boolean"}
		}
		filter.FinalWeekOnly = finalOnly
	}

	return filter, nil
}

func location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &service.ValidationError{Field: "timezone", Reason: "unknown time zone " + strconv.Quote(name)}
	}
	return loc, nil
}

// parseDay parses a YYYY-MM-DD parameter; endOfDay selects the last instant of that day
func parseDay(query url.Values, name string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	raw := query.Get(name)
	if raw == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, &service.ValidationError{Field: name, Reason: "must be a date in YYYY-MM-DD format"}
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	utc := day.UTC()
	return &utc, nil
}

func parseTimestamp(query url.Values, name string) (*time.Time, error) {
	raw := query.Get(name)
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, &service.ValidationError{Field: name, Reason: "must be an RFC 3339 timestamp"}
	}
	utc := ts.UTC()
	return &utc, nil
}

func parseFloat(query url.Values, name string) (*float64, error) {
	raw := query.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &service.ValidationError{Field: name, Reason: "must be a number"}
	}
	return &v, nil
}
