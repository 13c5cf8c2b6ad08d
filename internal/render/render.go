// Package render turns a reconciliation report into HTML.
//
// Two variants exist: Full is the interactive browser page with collapsible
// sections, Email is a table layout with inline styles that survives mail
// clients. Both share one view model so they always show the same numbers.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joefrost01/batch-report/internal/contracts"
)

// ChartCID is the Content-ID the email variant references for the trend chart
const ChartCID = "statusChart"

// Default limits
const (
	DefaultDetailLimit  = 20
	DefaultLookbackDays = 7
)

const humanDate = "January 2, 2006"

// outlookHead makes Outlook honour PNG images at 96 DPI. html/template strips
// comments from templates, so it is injected as a trusted value.
const outlookHead = `<!--[if gte mso 9]><xml><o:OfficeDocumentSettings><o:AllowPNG/><o:PixelsPerInch>96</o:PixelsPerInch></o:OfficeDocumentSettings></xml><![endif]-->`

//go:embed templates/*.html
var templateFS embed.FS

// Variant selects the HTML layout
type Variant string

const (
	VariantFull  Variant = "full"
	VariantEmail Variant = "email"
)

// ParseVariant accepts "full" and "email"
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantFull, VariantEmail:
		return Variant(s), nil
	default:
		return "", fmt.Errorf("unknown report variant %q", s)
	}
}

// Options tunes what the renderer shows
type Options struct {
	DetailLimit  int // email only; rows of the details table
	LookbackDays int // shown in the backdated empty state
}

// Renderer renders reports. Safe for concurrent use.
type Renderer struct {
	full    *template.Template
	email   *template.Template
	printer *message.Printer
	opts    Options
}

// New parses the embedded templates
func New(opts Options) (*Renderer, error) {
	if opts.DetailLimit <= 0 {
		opts.DetailLimit = DefaultDetailLimit
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultLookbackDays
	}

	full, err := template.ParseFS(templateFS, "templates/full.html")
	if err != nil {
		return nil, fmt.Errorf("parse full template: %w", err)
	}
	email, err := template.ParseFS(templateFS, "templates/email.html")
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}

	return &Renderer{
		full:    full,
		email:   email,
		printer: message.NewPrinter(language.English),
		opts:    opts,
	}, nil
}

// Render dispatches on variant
func (r *Renderer) Render(report *contracts.Report, v Variant) ([]byte, error) {
	switch v {
	case VariantEmail:
		return r.RenderEmail(report)
	case VariantFull:
		return r.RenderFull(report)
	default:
		return nil, fmt.Errorf("unknown report variant %q", v)
	}
}

// RenderFull renders the interactive browser page
func (r *Renderer) RenderFull(report *contracts.Report) ([]byte, error) {
	return r.execute(r.full, r.buildView(report, false))
}

// RenderEmail renders the mail-client-safe page referencing cid:statusChart
func (r *Renderer) RenderEmail(report *contracts.Report) ([]byte, error) {
	return r.execute(r.email, r.buildView(report, true))
}

func (r *Renderer) execute(t *template.Template, v *view) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.Bytes(), nil
}

// view is the template model; every value is pre-formatted
type view struct {
	Title       string
	BatchDate   string
	BatchISO    string
	GeneratedOn string
	OutlookHead template.HTML
	ChartSrc    template.URL

	Overview overviewView

	Summaries []summaryRow
	Details   []detailRow
	Backdated []backdatedRow

	DetailsTotal     int
	DetailsTruncated bool
	MissingDetails   int
	LookbackDays     int
	TrendDays        int
}

type overviewView struct {
	TotalLoaded         string
	TotalExpected       string
	CompletionRate      string
	CompleteGroups      string
	TotalGroups         string
	MissingScenarios    string
	UnexpectedScenarios string
	AssetClasses        string
	ReportStatus        string
	ReportStatusCSS     string
}

type summaryRow struct {
	AssetClass string
	Product    string
	Entity     string
	Loaded     string
	Expected   string
	Completion string
	Label      string
	CSS        string
	Icon       string
	Even       bool
}

type detailRow struct {
	AssetClass string
	Product    string
	Entity     string
	Scenario   string
	Label      string
	CSS        string
	Icon       string
	Even       bool
}

type backdatedRow struct {
	AssetClass  string
	Product     string
	Entity      string
	Scenario    string
	BatchDate   string
	LoadedDate  string
	DaysLate    int
	LateCSS     string
	Severity    string
	SeverityCSS string
	Description string
	Even        bool
}

func (r *Renderer) buildView(report *contracts.Report, email bool) *view {
	o := report.Overview
	v := &view{
		Title:        report.Subject(),
		BatchDate:    report.BatchDate.Format(humanDate),
		BatchISO:     report.BatchDate.Format(contracts.DateLayout),
		GeneratedOn:  generatedOn(report.GeneratedAt),
		OutlookHead:  template.HTML(outlookHead),
		ChartSrc:     template.URL("cid:" + ChartCID),
		LookbackDays: r.opts.LookbackDays,
		TrendDays:    len(report.DailyCounts),
		DetailsTotal: len(report.Details),
		Overview: overviewView{
			TotalLoaded:         r.printer.Sprintf("%d", o.TotalLoaded),
			TotalExpected:       r.printer.Sprintf("%d", o.TotalExpected),
			CompletionRate:      fmt.Sprintf("%.1f%%", o.CompletionRate),
			CompleteGroups:      r.printer.Sprintf("%d", o.CompleteGroups),
			TotalGroups:         r.printer.Sprintf("%d", len(report.Summaries)),
			MissingScenarios:    r.printer.Sprintf("%d", o.MissingScenarios),
			UnexpectedScenarios: r.printer.Sprintf("%d", o.UnexpectedScenarios),
			AssetClasses:        r.printer.Sprintf("%d", o.AssetClasses),
		},
	}

	if o.MissingScenarios == 0 && o.TotalExpected > 0 {
		v.Overview.ReportStatus, v.Overview.ReportStatusCSS = "Complete", "success"
	} else {
		v.Overview.ReportStatus, v.Overview.ReportStatusCSS = "Attention", "warning"
	}

	for i, s := range report.Summaries {
		label, css, icon := GroupBadge(s.Status)
		completion := "N/A"
		if pct, ok := s.CompletionPercent(); ok {
			completion = fmt.Sprintf("%.0f%%", pct)
		}
		v.Summaries = append(v.Summaries, summaryRow{
			AssetClass: s.AssetClass,
			Product:    s.Product,
			Entity:     s.Entity,
			Loaded:     r.printer.Sprintf("%d", s.LoadedCount),
			Expected:   r.printer.Sprintf("%d", s.ExpectedCount),
			Completion: completion,
			Label:      label,
			CSS:        css,
			Icon:       icon,
			Even:       i%2 == 0,
		})
	}

	for _, d := range report.Details {
		if d.Status() == contracts.ScenarioMissing {
			v.MissingDetails++
		}
	}
	details := report.Details
	if email && len(details) > r.opts.DetailLimit {
		details = details[:r.opts.DetailLimit]
		v.DetailsTruncated = true
	}
	for i, d := range details {
		label, css, icon := ScenarioBadge(d.Status())
		v.Details = append(v.Details, detailRow{
			AssetClass: d.AssetClass,
			Product:    d.Product,
			Entity:     d.Entity,
			Scenario:   d.Scenario,
			Label:      label,
			CSS:        css,
			Icon:       icon,
			Even:       i%2 == 0,
		})
	}

	for i, b := range report.Backdated {
		days := b.DaysLate()
		sev := b.Severity()
		label, desc := SeverityLabel(sev)
		v.Backdated = append(v.Backdated, backdatedRow{
			AssetClass:  b.AssetClass,
			Product:     b.Product,
			Entity:      b.Entity,
			Scenario:    b.Scenario,
			BatchDate:   b.BatchDate.Format(contracts.DateLayout),
			LoadedDate:  b.LoadedDate.Format(contracts.DateLayout),
			DaysLate:    days,
			LateCSS:     latenessCSS(days),
			Severity:    label,
			SeverityCSS: severities[sev].CSS,
			Description: desc,
			Even:        i%2 == 0,
		})
	}

	return v
}

func generatedOn(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format(humanDate)
}
