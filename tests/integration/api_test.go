// Package integration 提供HTTP处理器层的集成测试
package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paiban/rosterplan/internal/cpsat"
	"github.com/paiban/rosterplan/internal/handler"
	"github.com/paiban/rosterplan/pkg/model"
)

func newTestMux() *http.ServeMux {
	h := handler.NewScheduleHandler(nil)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate-plan", h.Generate)
	mux.HandleFunc("GET /api/job-status/{job_id}", h.JobStatusHandler)
	mux.HandleFunc("DELETE /api/job/{job_id}", h.DeleteJob)
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("POST /api/stats/fairness", handler.GetFairnessHandler)
	mux.HandleFunc("POST /api/stats/coverage", handler.GetCoverageHandler)
	return mux
}

func smallGenerateRequest() handler.GenerateRequest {
	return handler.GenerateRequest{
		Employees: []model.Employee{
			{Initials: "AM", Name: "员工1", Qualifications: []string{"Facharzt"}},
			{Initials: "PS", Name: "员工2"},
		},
		Shifts: []model.Shift{
			{Name: "Früh", TimeStart: "06:00", TimeEnd: "14:00"},
		},
		Days:             []string{"1", "2", "3"},
		OptimizationMode: cpsat.ModeQuick,
	}
}

func TestGenerate_AcceptsAndRegistersJob(t *testing.T) {
	mux := newTestMux()

	body, err := json.Marshal(smallGenerateRequest())
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/generate-plan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 Accepted, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp handler.GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID == "" {
		t.Fatal("expected a non-empty job_id")
	}
}

func TestGenerate_RejectsNonPost(t *testing.T) {
	mux := newTestMux()
	req := httptest.NewRequest(http.MethodGet, "/api/generate-plan", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code == http.StatusAccepted {
		t.Fatal("expected GET on /api/generate-plan to be rejected")
	}
}

func TestJobStatusHandler_UnknownJob(t *testing.T) {
	mux := newTestMux()
	req := httptest.NewRequest(http.MethodGet, "/api/job-status/does-not-exist", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d", rec.Code)
	}
}

func TestJobLifecycle_CompletesSuccessfully(t *testing.T) {
	mux := newTestMux()

	body, _ := json.Marshal(smallGenerateRequest())
	genReq := httptest.NewRequest(http.MethodPost, "/api/generate-plan", bytes.NewReader(body))
	genRec := httptest.NewRecorder()
	mux.ServeHTTP(genRec, genReq)

	var genResp handler.GenerateResponse
	if err := json.Unmarshal(genRec.Body.Bytes(), &genResp); err != nil {
		t.Fatalf("decode generate response: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	var status handler.JobStatusResponse
	for time.Now().Before(deadline) {
		statusReq := httptest.NewRequest(http.MethodGet, "/api/job-status/"+genResp.JobID, nil)
		statusRec := httptest.NewRecorder()
		mux.ServeHTTP(statusRec, statusReq)

		if err := json.Unmarshal(statusRec.Body.Bytes(), &status); err != nil {
			t.Fatalf("decode job status: %v", err)
		}
		if status.Status == handler.JobCompleted || status.Status == handler.JobFailed {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if status.Status != handler.JobCompleted {
		t.Fatalf("expected job to complete, got status=%s error=%s", status.Status, status.Error)
	}
	if status.Result == nil {
		t.Fatal("expected a result on a completed job")
	}
	if len(status.Result.Assignments) == 0 {
		t.Error("expected at least one assignment in the completed result")
	}
}

func TestDeleteJob_CancelsAndPreventsOverwrite(t *testing.T) {
	mux := newTestMux()

	body, _ := json.Marshal(smallGenerateRequest())
	genReq := httptest.NewRequest(http.MethodPost, "/api/generate-plan", bytes.NewReader(body))
	genRec := httptest.NewRecorder()
	mux.ServeHTTP(genRec, genReq)

	var genResp handler.GenerateResponse
	json.Unmarshal(genRec.Body.Bytes(), &genResp)

	delReq := httptest.NewRequest(http.MethodDelete, "/api/job/"+genResp.JobID, nil)
	delRec := httptest.NewRecorder()
	mux.ServeHTTP(delRec, delReq)

	if delRec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", delRec.Code)
	}

	time.Sleep(200 * time.Millisecond)

	statusReq := httptest.NewRequest(http.MethodGet, "/api/job-status/"+genResp.JobID, nil)
	statusRec := httptest.NewRecorder()
	mux.ServeHTTP(statusRec, statusReq)

	var status handler.JobStatusResponse
	json.Unmarshal(statusRec.Body.Bytes(), &status)
	if status.Status != handler.JobFailed {
		t.Fatalf("expected cancelled job to remain failed, got %s", status.Status)
	}
}

func TestHealthEndpoint(t *testing.T) {
	mux := newTestMux()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp handler.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status=ok, got %s", resp.Status)
	}
}

func TestFairnessEndpoint_ReturnsMetrics(t *testing.T) {
	mux := newTestMux()

	req := handler.StatsRequest{
		Employees: []model.Employee{
			{Initials: "AM", Name: "员工1"},
			{Initials: "PS", Name: "员工2"},
		},
		Shifts: []model.Shift{
			{Name: "Früh", TimeStart: "06:00", TimeEnd: "14:00"},
		},
		Days: []string{"1", "2"},
		Assignments: []model.Assignment{
			{Employee: "AM", Day: "1", Shift: "Früh"},
			{Employee: "PS", Day: "2", Shift: "Früh"},
		},
	}
	body, _ := json.Marshal(req)

	httpReq := httptest.NewRequest(http.MethodPost, "/api/stats/fairness", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httpReq)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp handler.FairnessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode fairness response: %v", err)
	}
	if resp.Data == nil {
		t.Fatal("expected fairness data")
	}
	if len(resp.Data.EmployeeStats) != 2 {
		t.Errorf("expected 2 employee stats, got %d", len(resp.Data.EmployeeStats))
	}
}
