package apiclient

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"

	"github.com/itchan-dev/strapikit/shared/api"
	"github.com/itchan-dev/strapikit/shared/errors"
	"github.com/itchan-dev/strapikit/shared/utils"
	"github.com/itchan-dev/strapikit/shared/validation"
)

var (
	ErrNoFileSelected  = stderrors.New("please select a file first")
	ErrNoFilesSelected = stderrors.New("please select at least one file")
)

// uploadField is the multipart field the upload plugin reads files from.
const uploadField = "files"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// File is one file to upload. ContentType is detected from Name when empty.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type UploadOptions struct {
	// Info links the files to an entry field.
	Info     *api.FileInfo
	ForAdmin bool
	// Path is the endpoint below the base URL, "upload" when empty.
	Path string
	// Progress is called with the number of body bytes sent so far.
	Progress func(written int64)
}

// Media uploads files and keeps the current selection. It shares the token
// of the client that created it.
type Media struct {
	client *APIClient

	mu            sync.Mutex
	selectedFile  *File
	selectedFiles []File
}

func (c *APIClient) Media() *Media {
	return c.media
}

func (m *Media) SetSelectedFile(f *File) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectedFile = f
}

func (m *Media) SelectedFile() *File {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectedFile
}

func (m *Media) SetSelectedFiles(files []File) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectedFiles = files
}

func (m *Media) SelectedFiles() []File {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectedFiles
}

// UploadSingle uploads file, or the selected file when file is nil.
func (m *Media) UploadSingle(ctx context.Context, file *File, opts UploadOptions) ([]api.UploadedFile, error) {
	if file == nil {
		file = m.SelectedFile()
	}
	if file == nil {
		m.client.log.Error("upload failed", "error", ErrNoFileSelected)
		return nil, ErrNoFileSelected
	}
	return m.upload(ctx, []File{*file}, opts)
}

// UploadMultiple uploads files, or the selected files when files is empty.
func (m *Media) UploadMultiple(ctx context.Context, files []File, opts UploadOptions) ([]api.UploadedFile, error) {
	if len(files) == 0 {
		files = m.SelectedFiles()
	}
	if len(files) == 0 {
		m.client.log.Error("upload failed", "error", ErrNoFilesSelected)
		return nil, ErrNoFilesSelected
	}
	return m.upload(ctx, files, opts)
}

// upload streams a multipart/form-data body to the upload endpoint.
func (m *Media) upload(ctx context.Context, files []File, opts UploadOptions) ([]api.UploadedFile, error) {
	c := m.client
	if opts.Info != nil {
		if err := utils.Validate(opts.Info); err != nil {
			return nil, fmt.Errorf("invalid file info: %w", err)
		}
	}

	path := opts.Path
	if path == "" {
		path = "upload"
	}
	base := c.cfg.UserURL()
	if opts.ForAdmin {
		base = c.cfg.AdminURL()
	}
	url := base + "/" + strings.TrimLeft(path, "/")

	pipeReader, pipeWriter := io.Pipe()
	writer := multipart.NewWriter(&progressWriter{w: pipeWriter, onWrite: opts.Progress})

	go func() {
		err := writeUploadForm(writer, files, opts.Info)
		if err == nil {
			err = writer.Close()
		}
		pipeWriter.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pipeReader)
	if err != nil {
		pipeReader.CloseWithError(err)
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	c.authorize(ctx, req)

	resp, err := c.HttpClient.Do(req)
	// unblocks the writer goroutine if the transport stopped reading early
	pipeReader.Close()
	if err != nil {
		c.log.Error("upload failed", "url", url, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := &errors.ErrorWithStatusCode{
			Message:    fmt.Sprintf("POST %s: %s", path, http.StatusText(resp.StatusCode)),
			StatusCode: resp.StatusCode,
			Body:       body,
		}
		c.log.Error("upload failed", "url", url, "status", resp.StatusCode, "error", err)
		return nil, err
	}

	var uploaded []api.UploadedFile
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return nil, fmt.Errorf("cannot decode upload response: %w", err)
	}
	c.log.Debug("files uploaded", "url", url, "count", len(uploaded))
	return uploaded, nil
}

func writeUploadForm(writer *multipart.Writer, files []File, info *api.FileInfo) error {
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, uploadField, escapeQuotes(f.Name)))
		h.Set("Content-Type", validation.DetectMimeType(f.Name, f.ContentType))

		part, err := writer.CreatePart(h)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
	}

	if info == nil {
		return nil
	}
	fields := [][2]string{{"ref", info.Ref}, {"refId", info.RefId}, {"field", info.Field}}
	if info.Source != "" {
		fields = append(fields, [2]string{"source", info.Source})
	}
	if info.Path != "" {
		fields = append(fields, [2]string{"path", info.Path})
	}
	for _, kv := range fields {
		if err := writer.WriteField(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// progressWriter reports the running byte count after every write.
type progressWriter struct {
	w       io.Writer
	written int64
	onWrite func(int64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.onWrite != nil && n > 0 {
		p.onWrite(p.written)
	}
	return n, err
}

// UpdateFileInfo patches name, caption or alternative text of an uploaded
// file through upload?id={fileId}.
func (m *Media) UpdateFileInfo(ctx context.Context, info api.FileInfoUpdate, forAdmin bool) (*api.UploadedFile, error) {
	c := m.client
	if err := utils.Validate(&info); err != nil {
		return nil, fmt.Errorf("file info is required: %w", err)
	}

	var file api.UploadedFile
	path := fmt.Sprintf("upload?id=%d", info.FileId)
	err := c.Request(ctx, path, RequestOptions{
		Method: http.MethodPost,
		Data:   map[string]any{"fileInfo": info},
	}, forAdmin, &file)
	if err != nil {
		c.log.Error("file info update failed", "file_id", info.FileId, "error", err)
		return nil, err
	}
	if err := utils.Validate(&file); err != nil {
		return nil, fmt.Errorf("%w from %s: %v", ErrInvalidEnvelope, path, err)
	}
	return &file, nil
}

// MediaURL resolves a file url returned by the CMS against the server root.
func (m *Media) MediaURL(path string) string {
	return m.client.cfg.MediaURL(path)
}
