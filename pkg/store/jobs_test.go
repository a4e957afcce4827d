package store

import (
	"testing"
)

func TestJobLifecycle(t *testing.T) {
	s := newTestStore(t)

	pid, err := s.CreatePatent(Patent{Title: "p", Content: "c"})
	if err != nil {
		t.Fatal(err)
	}

	jobID, err := s.CreateJob(pid)
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}

	j, err := s.GetJob(jobID)
	if err != nil {
		t.Fatal(err)
	}
	if j.State != JobPending {
		t.Errorf("Expected pending, got %s", j.State)
	}

	claimed, err := s.ClaimJob(jobID)
	if err != nil {
		t.Fatal(err)
	}
	if !claimed {
		t.Fatal("Expected to claim pending job")
	}

	// 已在运行的任务不能再次claim
	claimed, err = s.ClaimJob(jobID)
	if err != nil {
		t.Fatal(err)
	}
	if claimed {
		t.Error("Running job should not be claimable")
	}

	if err := s.IncrementJobAttempt(jobID, "provider timeout"); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkJobSucceeded(jobID); err != nil {
		t.Fatal(err)
	}

	j, err = s.GetJob(jobID)
	if err != nil {
		t.Fatal(err)
	}
	if j.State != JobSucceeded {
		t.Errorf("Expected succeeded, got %s", j.State)
	}
	if j.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", j.Attempts)
	}
}

func TestCancelJobOnlyPending(t *testing.T) {
	s := newTestStore(t)

	pid, _ := s.CreatePatent(Patent{Title: "p", Content: "c"})

	jobID, err := s.CreateJob(pid)
	if err != nil {
		t.Fatal(err)
	}

	// pending任务可以取消
	ok, err := s.CancelJob(jobID)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Expected to cancel pending job")
	}

	j, _ := s.GetJob(jobID)
	if j.State != JobCancelled {
		t.Errorf("Expected cancelled, got %s", j.State)
	}

	// 运行中的任务不能取消
	runningID, err := s.CreateJob(pid)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ClaimJob(runningID); err != nil {
		t.Fatal(err)
	}

	ok, err = s.CancelJob(runningID)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Running job should not be cancellable")
	}
}

func TestListJobsFiltered(t *testing.T) {
	s := newTestStore(t)

	pid, _ := s.CreatePatent(Patent{Title: "p", Content: "c"})

	id1, _ := s.CreateJob(pid)
	if _, err := s.CreateJob(pid); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ClaimJob(id1); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkJobFailed(id1, "all providers failed"); err != nil {
		t.Fatal(err)
	}

	failed, err := s.ListJobs(JobFailed, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 {
		t.Fatalf("Expected 1 failed job, got %d", len(failed))
	}
	if failed[0].LastError != "all providers failed" {
		t.Errorf("Unexpected last error: %s", failed[0].LastError)
	}

	all, err := s.ListJobs("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 jobs total, got %d", len(all))
	}

	n, err := s.CountJobs(JobPending)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Expected 1 pending job, got %d", n)
	}
}
