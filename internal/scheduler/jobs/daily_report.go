package jobs

import (
	"context"
	"time"

	"github.com/joefrost01/batch-report/internal/contracts"
	"github.com/joefrost01/batch-report/pkg/logger"
)

// DailyReportJobName is the registered name of the report job
const DailyReportJobName = "daily_batch_report"

// ReportSender delivers the report for one batch date
type ReportSender interface {
	SendReport(ctx context.Context, batchDate time.Time) error
}

// DailyReportJob mails the report for the previous business day
type DailyReportJob struct {
	sender   ReportSender
	schedule string
	location *time.Location
	now      func() time.Time
	logger   *logger.Logger
}

// NewDailyReportJob creates the report job. A nil location means UTC.
func NewDailyReportJob(sender ReportSender, schedule string, loc *time.Location, log *logger.Logger) *DailyReportJob {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DailyReportJob{
		sender:   sender,
		schedule: schedule,
		location: loc,
		now:      time.Now,
		logger:   log,
	}
}

// Name returns the job name
func (j *DailyReportJob) Name() string {
	return DailyReportJobName
}

// Schedule returns the configured cron expression
func (j *DailyReportJob) Schedule() string {
	return j.schedule
}

// Run sends the report. The scheduler retries on error.
func (j *DailyReportJob) Run(ctx context.Context) error {
	batchDate := PreviousBusinessDay(j.now().In(j.location))

	j.logger.WithField("batch_date", batchDate.Format(contracts.DateLayout)).Info("Starting scheduled batch report")

	return j.sender.SendReport(ctx, batchDate)
}

// PreviousBusinessDay returns the last weekday strictly before t's calendar day
func PreviousBusinessDay(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
