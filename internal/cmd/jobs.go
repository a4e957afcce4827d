package cmd

import (
	"fmt"

	"github.com/dyike/patvec/internal/format"
	"github.com/dyike/patvec/pkg/store"
	"github.com/spf13/cobra"
)

// jobs 命令 - 嵌入任务管理
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List embedding jobs",
	Args:  cobra.NoArgs,
	RunE:  runJobs,
}

// jobs cancel 子命令
var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a pending embedding job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsCancel,
}

var (
	jobsState string
	jobsLimit int
)

func init() {
	jobsCmd.Flags().StringVarP(&jobsState, "state", "s", "", "Filter by state (pending|running|succeeded|failed|cancelled)")
	jobsCmd.Flags().IntVarP(&jobsLimit, "num", "n", 50, "Number of jobs")

	jobsCmd.AddCommand(jobsCancelCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	p, err := getPatVec()
	if err != nil {
		return err
	}
	defer p.Close()

	jobs, err := p.ListJobs(store.JobState(jobsState), jobsLimit)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs")
		return nil
	}

	return format.OutputJobs(jobs, format.Format(outputFormat))
}

func runJobsCancel(cmd *cobra.Command, args []string) error {
	p, err := getPatVec()
	if err != nil {
		return err
	}
	defer p.Close()

	ok, err := p.CancelJob(args[0])
	if err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}
	if !ok {
		return fmt.Errorf("job %s is not pending (already running or finished)", args[0])
	}

	fmt.Printf("Cancelled job %s\n", args[0])
	return nil
}
