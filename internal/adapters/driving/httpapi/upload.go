package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/bookingest/internal/core/domain"
)

// multipartMemory is how much of a form is held in memory before spilling to disk.
const multipartMemory = 32 << 20

// handleIngest accepts one zip bundle (single job) or several files with a
// metadata spreadsheet (batch job) under the "files" form field.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ports.Jobs == nil {
		writeMessage(w, http.StatusServiceUnavailable, "ingest is not enabled")
		return
	}
	form, ok := s.parseForm(w, r)
	if !ok {
		return
	}
	defer form.RemoveAll() //nolint:errcheck

	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		writeMessage(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	job, err := s.newJob(form)
	if err != nil {
		writeError(w, err)
		return
	}
	paths, err := s.saveFiles(job.ID, headers)
	if err != nil {
		writeError(w, err)
		return
	}

	if len(paths) == 1 && strings.EqualFold(filepath.Ext(paths[0]), ".zip") {
		job.Kind = domain.JobSingle
		job.BundlePath = paths[0]
		job.BundleName = filepath.Base(paths[0])
	} else {
		job.Kind = domain.JobBatch
		job.Files = paths
	}
	s.submit(w, job, paths)
}

// handleIngestCloud accepts a spreadsheet of pids ("metadata") and the
// source bucket ("bucket") to copy them from.
func (s *Server) handleIngestCloud(w http.ResponseWriter, r *http.Request) {
	if s.ports.Jobs == nil {
		writeMessage(w, http.StatusServiceUnavailable, "ingest is not enabled")
		return
	}
	form, ok := s.parseForm(w, r)
	if !ok {
		return
	}
	defer form.RemoveAll() //nolint:errcheck

	bucket := formValue(form, "bucket")
	headers := form.File["metadata"]
	if bucket == "" || len(headers) != 1 {
		writeMessage(w, http.StatusBadRequest, "one metadata file and a bucket are required")
		return
	}

	job, err := s.newJob(form)
	if err != nil {
		writeError(w, err)
		return
	}
	paths, err := s.saveFiles(job.ID, headers)
	if err != nil {
		writeError(w, err)
		return
	}
	job.Kind = domain.JobCloud
	job.MetadataPath = paths[0]
	job.BundleName = filepath.Base(paths[0])
	job.SourceBucket = bucket
	s.submit(w, job, paths)
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeMessage(w, http.StatusRequestEntityTooLarge, "upload too large")
			return nil, false
		}
		writeMessage(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return nil, false
	}
	return r.MultipartForm, true
}

// newJob reads the fields shared by every upload kind.
func (s *Server) newJob(form *multipart.Form) (*domain.IngestJob, error) {
	job := &domain.IngestJob{
		ID: uuid.NewString(),
		Creator: domain.Creator{
			Name:  formValue(form, "name"),
			Email: formValue(form, "email"),
		},
	}
	if raw := formValue(form, "image_server_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: image_server_id %q", domain.ErrInvalidInput, raw)
		}
		job.ImageServerID = id
	}
	for _, v := range form.Value["collections"] {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				job.Collections = append(job.Collections, c)
			}
		}
	}
	return job, nil
}

// saveFiles copies uploaded parts into {uploadDir}/{jobID}/.
func (s *Server) saveFiles(jobID string, headers []*multipart.FileHeader) ([]string, error) {
	dir := filepath.Join(s.uploadDir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	paths := make([]string, 0, len(headers))
	for _, fh := range headers {
		name := filepath.Base(filepath.Clean("/" + fh.Filename))
		if name == "/" || name == "." {
			return nil, fmt.Errorf("%w: file name %q", domain.ErrInvalidInput, fh.Filename)
		}
		dest := filepath.Join(dir, name)
		if err := saveFile(fh, dest); err != nil {
			return nil, err
		}
		paths = append(paths, dest)
	}
	return paths, nil
}

func saveFile(fh *multipart.FileHeader, dest string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	return out.Close()
}

func (s *Server) submit(w http.ResponseWriter, job *domain.IngestJob, paths []string) {
	if err := s.ports.Jobs.Submit(job); err != nil {
		os.RemoveAll(filepath.Join(s.uploadDir, job.ID)) //nolint:errcheck
		writeMessage(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	writeJSON(w, http.StatusAccepted, acceptedView{JobID: job.ID, Kind: string(job.Kind), Files: names})
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}
