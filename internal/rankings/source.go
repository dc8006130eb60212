package rankings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"

	"github.com/svipsc/ranking/internal/models"
)

// MetadataFile is written by the publish tool next to the ranking files
const MetadataFile = "metadata.json"

// Source loads one division's full ranking list
type Source interface {
	Load(ctx context.Context, division string) ([]models.PlayerRankingEntry, error)
}

// MetadataSource is implemented by sources that can report data freshness.
// A nil Metadata with a nil error means none is available.
type MetadataSource interface {
	Metadata(ctx context.Context) (*models.Metadata, error)
}

// HTTPSource fetches ranking files from a static file host
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource creates a source rooted at baseURL (e.g. https://host/data)
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{BaseURL: strings.TrimSuffix(baseURL, "/"), Client: client}
}

// Load implements Source
func (s *HTTPSource) Load(ctx context.Context, division string) ([]models.PlayerRankingEntry, error) {
	body, err := s.get(ctx, models.DataFileName(division))
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return Decode(body)
}

// Metadata implements MetadataSource
func (s *HTTPSource) Metadata(ctx context.Context) (*models.Metadata, error) {
	body, err := s.get(ctx, MetadataFile)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return decodeMetadata(body)
}

func (s *HTTPSource) get(ctx context.Context, name string) (io.ReadCloser, error) {
	u := s.BaseURL + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: u, Code: resp.StatusCode}
	}
	return resp.Body, nil
}

// DirSource reads ranking files from a directory
type DirSource struct {
	FS fs.FS
}

// NewDirSource creates a source over fsys, usually os.DirFS(dataDir)
func NewDirSource(fsys fs.FS) *DirSource {
	return &DirSource{FS: fsys}
}

// Load implements Source
func (s *DirSource) Load(ctx context.Context, division string) ([]models.PlayerRankingEntry, error) {
	if strings.ContainsAny(division, `/\`) {
		return nil, fmt.Errorf("division %q: %w", division, ErrNotFound)
	}
	f, err := s.open(models.DataFileName(division))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Metadata implements MetadataSource
func (s *DirSource) Metadata(ctx context.Context) (*models.Metadata, error) {
	f, err := s.open(MetadataFile)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeMetadata(f)
}

func (s *DirSource) open(name string) (fs.File, error) {
	f, err := s.FS.Open(name)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}

func decodeMetadata(r io.Reader) (*models.Metadata, error) {
	var m models.Metadata
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", MetadataFile, err)
	}
	return &m, nil
}
