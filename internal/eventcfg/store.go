package eventcfg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrEventNotFound is returned when no document exists for a slug.
	ErrEventNotFound = errors.New("event not found")
	// ErrInvalidSlug is returned for slugs that cannot name a document file.
	ErrInvalidSlug = errors.New("invalid event slug")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,127}$`)

// Store loads event documents from "<Dir>/<slug>.json", optionally through a Redis cache.
type Store struct {
	Dir    string
	Cache  *Cache
	Logger zerolog.Logger
}

// Load returns the validated document for slug. The slug found in the file
// name wins over any slug declared in the document.
func (s *Store) Load(ctx context.Context, slug string) (*Document, error) {
	if s == nil || strings.TrimSpace(s.Dir) == "" {
		return nil, errors.New("event store not configured")
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugPattern.MatchString(slug) {
		return nil, ErrInvalidSlug
	}

	data, hit, err := s.Cache.Get(ctx, slug)
	if err != nil {
		s.Logger.Warn().Err(err).Str("slug", slug).Msg("event config cache read")
	}
	if !hit {
		data, err = os.ReadFile(filepath.Join(s.Dir, slug+".json"))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, ErrEventNotFound
			}
			return nil, fmt.Errorf("read event config: %w", err)
		}
	}

	doc, err := Parse(data)
	if err != nil {
		if hit {
			_ = s.Cache.Invalidate(ctx, slug)
		}
		return nil, err
	}
	doc.Event.Slug = slug

	if !hit {
		if err := s.Cache.Set(ctx, slug, data); err != nil {
			s.Logger.Warn().Err(err).Str("slug", slug).Msg("event config cache write")
		}
	}
	return doc, nil
}
