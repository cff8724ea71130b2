package meta

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"gopkg.in/yaml.v3"
)

// Service loads configuration documents from any location the virtual file
// system supports (file, embed, mem, http, s3, gs, ...).
type Service struct {
	fs        afs.Service
	baseURL   string
	fsOptions []storage.Option
}

// New creates a meta service; fsOptions are passed to every download (for
// example an *embed.FS when the base URL uses the embed scheme).
func New(fs afs.Service, baseURL string, fsOptions ...storage.Option) *Service {
	return &Service{fs: fs, baseURL: baseURL, fsOptions: fsOptions}
}

// Load downloads a document, expands ${env.KEY} and ${env.KEY:fallback}
// expressions and decodes the result into target. Documents are decoded as
// YAML, which covers JSON as well. A relative URL is joined with the
// service base URL.
func (s *Service) Load(ctx context.Context, URL string, target interface{}) error {
	location := URL
	if s.baseURL != "" && url.IsRelative(URL) {
		location = url.Join(s.baseURL, URL)
	}
	data, err := s.fs.DownloadWithURL(ctx, location, s.fsOptions...)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", location, err)
	}
	expanded := expandEnvExpr(string(data))
	if err = yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", location, err)
	}
	return nil
}
