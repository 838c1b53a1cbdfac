package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/diabetes-care-api/internal/analysis"
	"github.com/couchcryptid/diabetes-care-api/internal/domain"
	"github.com/couchcryptid/diabetes-care-api/internal/render"
	"github.com/couchcryptid/diabetes-care-api/internal/report"
	"github.com/couchcryptid/diabetes-care-api/internal/validation"
)

// Query defaults.
const (
	defaultDPI         = 100
	defaultMapWidth    = 10
	defaultMapHeight   = 12
	defaultChartWidth  = 10
	defaultChartHeight = 6
	defaultPointColor  = "steelblue"
	defaultRankings    = 10
)

// SelectionParams choose the indicator rows shared by most endpoints.
type SelectionParams struct {
	IndicatorID int    `query:"indicator_id" validate:"indicator"`
	AreaType    string `query:"area_type" validate:"area_type"`
	TimePeriod  string `query:"time_period"`
}

func (p SelectionParams) query() report.Query {
	return report.Query{
		IndicatorID: domain.IndicatorID(p.IndicatorID),
		AreaType:    domain.AreaType(p.AreaType),
		TimePeriod:  p.TimePeriod,
	}
}

type dataParams struct {
	SelectionParams
	AreaNameContains string   `query:"area_name_contains"`
	MinValue         *float64 `query:"min_value" validate:"omitnil,gte=0,lte=100"`
	MaxValue         *float64 `query:"max_value" validate:"omitnil,gte=0,lte=100"`
	Limit            *int     `query:"limit" validate:"omitnil,gte=1,lte=10000"`
}

func (p dataParams) listOptions() analysis.ListOptions {
	opts := analysis.ListOptions{
		AreaNameContains: p.AreaNameContains,
		MinValue:         p.MinValue,
		MaxValue:         p.MaxValue,
	}
	if p.Limit != nil {
		opts.Limit = *p.Limit
	}
	return opts
}

type rankingsParams struct {
	SelectionParams
	N     int    `query:"n" validate:"gte=1,lte=100"`
	Order string `query:"order" validate:"oneof=top bottom"`
}

// ImageParams size and encode a rendered figure.
type ImageParams struct {
	Width  float64 `query:"figsize_width"`
	Height float64 `query:"figsize_height"`
	DPI    int     `query:"dpi" validate:"gte=50,lte=300"`
	Title  string  `query:"title"`
	Format string  `query:"format" validate:"image_format"`
}

func (p ImageParams) size() render.Size {
	return render.Size{Width: p.Width, Height: p.Height, DPI: p.DPI}
}

type mapParams struct {
	IndicatorID int    `query:"indicator_id" validate:"indicator"`
	TimePeriod  string `query:"time_period"`
	Cmap        string `query:"cmap" validate:"color_scheme"`
	ImageParams
}

type chartParams struct {
	SelectionParams
	PointColor     string `query:"point_color" validate:"plot_color"`
	ShowRegression bool   `query:"show_regression"`
	ImageParams
}

func (p chartParams) request() report.ChartRequest {
	// validated by plot_color
	c, _ := render.ParseColor(p.PointColor)
	return report.ChartRequest{
		Query:          p.query(),
		Size:           p.size(),
		Title:          p.Title,
		PointColor:     c,
		ShowRegression: p.ShowRegression,
	}
}

// queryReader reads typed query parameters, accepting aliases for each
// name and collecting parse failures.
type queryReader struct {
	values url.Values
	errs   []validation.FieldError
}

func newQueryReader(values url.Values) *queryReader {
	return &queryReader{values: values}
}

// lookup returns the first non-empty value among names.
func (q *queryReader) lookup(names ...string) (string, bool) {
	for _, name := range names {
		if v := strings.TrimSpace(q.values.Get(name)); v != "" {
			return v, true
		}
	}
	return "", false
}

func (q *queryReader) fail(field, tag, raw, message string) {
	q.errs = append(q.errs, validation.FieldError{Field: field, Tag: tag, Value: raw, Message: message})
}

func (q *queryReader) string(dst *string, names ...string) {
	if v, ok := q.lookup(names...); ok {
		*dst = v
	}
}

func (q *queryReader) int(dst *int, names ...string) {
	raw, ok := q.lookup(names...)
	if !ok {
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.fail(names[0], "int", raw, fmt.Sprintf("%s must be an integer", names[0]))
		return
	}
	*dst = n
}

func (q *queryReader) optionalInt(dst **int, names ...string) {
	if _, ok := q.lookup(names...); !ok {
		return
	}
	var n int
	before := len(q.errs)
	q.int(&n, names...)
	if len(q.errs) == before {
		*dst = &n
	}
}

func (q *queryReader) float(dst *float64, names ...string) {
	raw, ok := q.lookup(names...)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		q.fail(names[0], "number", raw, fmt.Sprintf("%s must be a number", names[0]))
		return
	}
	*dst = f
}

func (q *queryReader) optionalFloat(dst **float64, names ...string) {
	if _, ok := q.lookup(names...); !ok {
		return
	}
	var f float64
	before := len(q.errs)
	q.float(&f, names...)
	if len(q.errs) == before {
		*dst = &f
	}
}

func (q *queryReader) bool(dst *bool, names ...string) {
	raw, ok := q.lookup(names...)
	if !ok {
		return
	}
	b, ok := parseBool(raw)
	if !ok {
		q.fail(names[0], "bool", raw, fmt.Sprintf("%s must be true or false", names[0]))
		return
	}
	*dst = b
}

// parseBool accepts the usual query-string spellings of a boolean, case-insensitively.
func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, true
	case "0", "f", "false", "n", "no", "off":
		return false, true
	}
	return false, false
}

// err returns the parse failures, or nil when every value parsed.
func (q *queryReader) err() *validation.RequestValidationError {
	if len(q.errs) == 0 {
		return nil
	}
	return &validation.RequestValidationError{Fields: q.errs}
}

// finish validates s unless parsing already failed.
func (q *queryReader) finish(s any) *validation.RequestValidationError {
	if err := q.err(); err != nil {
		return err
	}
	return validation.ValidateStruct(s)
}

func readSelection(q *queryReader) SelectionParams {
	p := SelectionParams{
		IndicatorID: int(domain.DefaultIndicator),
		AreaType:    string(domain.DefaultAreaType),
	}
	q.int(&p.IndicatorID, "indicator_id", "indicatorId")
	q.string(&p.AreaType, "area_type", "areaType")
	q.string(&p.TimePeriod, "time_period", "timePeriod")
	return p
}

func readImage(q *queryReader, width, height float64) ImageParams {
	p := ImageParams{Width: width, Height: height, DPI: defaultDPI, Format: string(render.FormatPNG)}
	q.float(&p.Width, "figsize_width", "width")
	q.float(&p.Height, "figsize_height", "height")
	q.int(&p.DPI, "dpi")
	q.string(&p.Title, "title")
	q.string(&p.Format, "format")
	return p
}

// checkRange rejects a figure dimension outside [lo, hi]. The bounds differ
// per endpoint so they are not expressed as struct tags.
func checkRange(field string, v, lo, hi float64) *validation.RequestValidationError {
	if v < lo || v > hi {
		return validation.NewError(field, "range", v,
			fmt.Sprintf("%s must be between %s and %s", field, formatBound(lo), formatBound(hi)))
	}
	return nil
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseSelection(values url.Values) (SelectionParams, *validation.RequestValidationError) {
	q := newQueryReader(values)
	p := readSelection(q)
	return p, q.finish(p)
}

func parseTimePeriods(values url.Values) (domain.IndicatorID, domain.AreaType, *validation.RequestValidationError) {
	q := newQueryReader(values)
	p := readSelection(q)
	if err := q.finish(p); err != nil {
		return 0, "", err
	}
	return domain.IndicatorID(p.IndicatorID), domain.AreaType(p.AreaType), nil
}

func parseData(values url.Values) (dataParams, *validation.RequestValidationError) {
	q := newQueryReader(values)
	p := dataParams{SelectionParams: readSelection(q)}
	q.string(&p.AreaNameContains, "area_name_contains", "areaNameContains")
	q.optionalFloat(&p.MinValue, "min_value", "minValue")
	q.optionalFloat(&p.MaxValue, "max_value", "maxValue")
	q.optionalInt(&p.Limit, "limit")
	if err := q.finish(p); err != nil {
		return p, err
	}
	if p.MinValue != nil && p.MaxValue != nil && *p.MinValue > *p.MaxValue {
		return p, validation.NewError("min_value", "ltefield", *p.MinValue, "min_value must not exceed max_value")
	}
	return p, nil
}

func parseRankings(values url.Values) (rankingsParams, *validation.RequestValidationError) {
	q := newQueryReader(values)
	p := rankingsParams{
		SelectionParams: readSelection(q),
		N:               defaultRankings,
		Order:           string(analysis.OrderTop),
	}
	q.int(&p.N, "n")
	q.string(&p.Order, "order")
	return p, q.finish(p)
}

func parseMap(values url.Values) (mapParams, *validation.RequestValidationError) {
	q := newQueryReader(values)
	p := mapParams{
		IndicatorID: int(domain.DefaultIndicator),
		Cmap:        string(domain.SchemeRdYlGn),
	}
	q.int(&p.IndicatorID, "indicator_id", "indicatorId")
	q.string(&p.TimePeriod, "time_period", "timePeriod")
	q.string(&p.Cmap, "cmap", "color_scheme", "colorScheme")
	p.ImageParams = readImage(q, defaultMapWidth, defaultMapHeight)
	if err := q.finish(p); err != nil {
		return p, err
	}
	if err := checkRange("figsize_width", p.Width, 5, 20); err != nil {
		return p, err
	}
	return p, checkRange("figsize_height", p.Height, 5, 24)
}

func parseChart(values url.Values) (chartParams, *validation.RequestValidationError) {
	q := newQueryReader(values)
	p := chartParams{
		SelectionParams: readSelection(q),
		PointColor:      defaultPointColor,
		ShowRegression:  true,
	}
	q.string(&p.PointColor, "point_color", "pointColor")
	q.bool(&p.ShowRegression, "show_regression", "showRegression")
	p.ImageParams = readImage(q, defaultChartWidth, defaultChartHeight)
	if err := q.finish(p); err != nil {
		return p, err
	}
	if err := checkRange("figsize_width", p.Width, 5, 20); err != nil {
		return p, err
	}
	return p, checkRange("figsize_height", p.Height, 4, 12)
}
