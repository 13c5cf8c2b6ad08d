package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joefrost01/batch-report/internal/scheduler"
	"github.com/joefrost01/batch-report/internal/scheduler/jobs"
)

const timestampLayout = "2006-01-02 15:04:05 MST"

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the report scheduler",
	Long: `Starts the scheduler daemon or inspects its jobs.

Subcommands:
  start   - Start the scheduler
  list    - List registered jobs
  run     - Run a job now and wait for it
  status  - Show schedule and next run

Example:
  go run ./cmd/batchreport scheduler start
  go run ./cmd/batchreport scheduler list
  go run ./cmd/batchreport scheduler run daily_batch_report`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and registers every job.

Registered jobs:
- daily_batch_report: REPORT_SCHEDULE in REPORT_TIMEZONE (default 07:00 on weekdays)
- cache_cleanup: every 5 minutes, only when Redis is disabled

Stop with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job now",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show job schedules",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Batch Report Scheduler ===")
	fmt.Println()

	a, sched, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	sched.Start()

	fmt.Println()
	PrintSuccess("Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	PrintList(sched.GetAllJobs())
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	fmt.Println("Registered jobs:")
	PrintList(sched.GetAllJobs())
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	a, sched, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	result, err := sched.RunJobSync(cmd.Context(), jobName)
	if err != nil {
		PrintError(fmt.Sprintf("%s failed after %d attempt(s): %v", jobName, result.Attempts, err))
		return fmt.Errorf("run job: %w", err)
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", jobName, result.Duration))
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler(cmd)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	// next run times are only known once cron is running
	sched.Start()
	stats := sched.GetJobStats()
	sched.Stop()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for _, jobName := range sched.GetAllJobs() {
		stat := stats[jobName]
		fmt.Printf("📊 %s\n", jobName)
		PrintKeyValue("Schedule", stat.Schedule, 10)
		PrintKeyValue("Timezone", a.cfg.Location().String(), 10)
		if stat.NextRun != nil {
			PrintKeyValue("Next Run", stat.NextRun.In(a.cfg.Location()).Format(timestampLayout), 10)
		}
		fmt.Println()
	}

	return nil
}

func initScheduler(cmd *cobra.Command) (*app, *scheduler.Scheduler, error) {
	// 1. Wire config, storage and the report service
	a, err := newApp(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	// 2. Create scheduler in the report timezone
	sched := scheduler.New(a.log, scheduler.WithLocation(a.cfg.Location()))

	// 3. Register jobs
	job := jobs.NewDailyReportJob(a.service, a.cfg.Report.Schedule, a.cfg.Location(), a.log)
	if err := sched.AddJob(job); err != nil {
		a.Close()
		return nil, nil, err
	}
	if a.memo != nil {
		if err := sched.AddJob(jobs.NewCacheCleanupJob(a.memo, a.log)); err != nil {
			a.Close()
			return nil, nil, err
		}
	}

	return a, sched, nil
}
