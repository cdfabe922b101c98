// Package remote implements the Remote Runner (C6): a standalone HTTP service
// exposing POST /task/{task_name} and GET /job/{uuid} so a task configured as
// remote in RemoteConfig can run on separate hardware from the process driving
// the Task Engine's drain loop (§4.6). Grounded on the teacher's gin-based
// internal/api/handler/asset_handler.go upload handler (ParseMultipartForm +
// FormFile idiom) and internal/api/response.go's status-helper set.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lumina/internal/api"
	"lumina/internal/apperr"
	"lumina/internal/catalog"
	"lumina/internal/format"
	"lumina/internal/task"
)

// Server is the single-slot remote task runner described in §4.6: at most one
// task.Run executes at a time, any caller that arrives while the slot is held
// gets 409.
type Server struct {
	cat  *catalog.Catalog
	slot chan struct{}

	// asyncThreshold is how long handleTask waits for a task to finish inline
	// before answering 201 and continuing the run in the background.
	asyncThreshold time.Duration
}

func NewServer(cat *catalog.Catalog) *Server {
	return &Server{cat: cat, slot: make(chan struct{}, 1), asyncThreshold: 5 * time.Second}
}

func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.POST("/task/:name", s.handleTask)
	r.GET("/job/:uuid", s.handleJob)
	return r
}

// Start transitions every Job left running by a previous process lifetime to
// cancelled (§4.6): a runner that crashed or was redeployed mid-job must never
// leave a client polling a job that will never complete.
func (s *Server) Start(ctx context.Context) error {
	_, err := s.cat.CancelAllRunning(ctx, "runner restarted")
	return err
}

// Shutdown cancels every job still running at the moment the process stops.
func (s *Server) Shutdown(ctx context.Context) error {
	_, err := s.cat.CancelAllRunning(ctx, "runner shutdown")
	return err
}

type taskResult struct {
	data task.Data
	err  error
}

func (s *Server) handleTask(c *gin.Context) {
	name := c.Param("name")
	t, ok := task.Get(name)
	if !ok {
		api.GinFromError(c, apperr.NotFound(fmt.Errorf("remote: unknown task %q", name)))
		return
	}

	select {
	case s.slot <- struct{}{}:
	default:
		api.GinFromError(c, apperr.Busy(fmt.Errorf("remote: runner busy")))
		return
	}
	// An asynchronous run outlives this handler; its goroutine releases the slot.
	releaseSlot := true
	defer func() {
		if releaseSlot {
			<-s.slot
		}
	}()

	if err := c.Request.ParseMultipartForm(64 << 20); err != nil {
		api.GinFromError(c, apperr.Validation(fmt.Errorf("remote: parse multipart form: %w", err)))
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		api.GinFromError(c, apperr.Validation(fmt.Errorf("remote: missing file field: %w", err)))
		return
	}
	defer file.Close()

	m, tmpDir, err := materializeUpload(file, header.Filename, c.Request.FormValue("media_uuid"))
	if err != nil {
		api.GinFromError(c, apperr.Validation(err))
		return
	}
	defer os.RemoveAll(tmpDir)

	if !t.Compatible(m) {
		api.GinFromError(c, apperr.Validation(fmt.Errorf("remote: task %q not compatible with uploaded file", name)))
		return
	}

	done := make(chan taskResult, 1)
	go func() {
		data, err := t.Run(context.Background(), m)
		done <- taskResult{data, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			api.GinInternalError(c, res.err, "task failed")
			return
		}
		c.JSON(http.StatusOK, res.data)
	case <-time.After(s.asyncThreshold):
		releaseSlot = false
		job := &catalog.Job{MediaUUID: m.UUID, TaskName: name, Status: catalog.JobRunning}
		if err := s.cat.CreateJob(c.Request.Context(), job); err != nil {
			go func() { <-done; <-s.slot }()
			api.GinInternalError(c, err)
			return
		}
		go func() {
			s.finishJob(job, done)
			<-s.slot
		}()
		c.JSON(http.StatusCreated, gin.H{"uuid": job.UUID.String()})
	}
}

// materializeUpload copies the request's file part into a fresh temp directory
// and builds just enough of a Media row for Task.Run to operate against: a
// remote runner has no catalog row for this file, only the bytes it was sent.
func materializeUpload(file io.Reader, filename, mediaUUID string) (*catalog.Media, string, error) {
	tmpDir, err := os.MkdirTemp("", "remote-task-*")
	if err != nil {
		return nil, "", fmt.Errorf("mktemp: %w", err)
	}
	tmpPath := filepath.Join(tmpDir, filepath.Base(filename))
	out, err := os.Create(tmpPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.RemoveAll(tmpDir)
		return nil, "", fmt.Errorf("copy upload: %w", err)
	}
	out.Close()

	tag := format.Detect(filepath.Ext(tmpPath))
	m := &catalog.Media{Path: tmpPath, Format: string(tag), Name: filename}
	if mediaUUID != "" {
		id, err := uuid.Parse(mediaUUID)
		if err != nil {
			os.RemoveAll(tmpDir)
			return nil, "", fmt.Errorf("invalid media_uuid: %w", err)
		}
		m.UUID = id
	}
	return m, tmpDir, nil
}

func (s *Server) finishJob(job *catalog.Job, done <-chan taskResult) {
	res := <-done
	ctx := context.Background()

	if res.err != nil {
		job.Status = catalog.JobFailed
		job.FailureData = res.err.Error()
	} else if serialized, err := json.Marshal(res.data); err != nil {
		job.Status = catalog.JobFailed
		job.FailureData = err.Error()
	} else {
		job.Status = catalog.JobSuccess
		job.SuccessData = string(serialized)
	}
	_ = s.cat.UpdateJob(ctx, job)
}

func (s *Server) handleJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		api.GinFromError(c, apperr.Validation(fmt.Errorf("remote: invalid job uuid: %w", err)))
		return
	}
	job, err := s.cat.JobFromUUID(c.Request.Context(), id)
	if err != nil {
		api.GinFromError(c, apperr.NotFound(err))
		return
	}
	c.JSON(http.StatusOK, job)
}
