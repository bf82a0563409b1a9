package pilot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ironsheep/linefollow-vision/internal/frame"
)

// Source yields frames in order. Next returns io.EOF when the stream ends.
type Source interface {
	Next(ctx context.Context) (*frame.Frame, error)
}

// SliceSource replays a fixed list of frames.
type SliceSource struct {
	Frames []*frame.Frame
	pos    int
}

// Next returns the next frame or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.Frames) {
		return nil, io.EOF
	}
	f := s.Frames[s.pos]
	s.pos++
	return f, nil
}

// frameExtensions are the file types DirSource picks up.
var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// DirSource replays the image files of a directory in lexical order. Each
// frame is loaded through the cache and evicted once handed out, so memory
// stays bounded on long recordings.
type DirSource struct {
	cache   *frame.Cache
	mode    frame.Mode
	paths   []string
	pos     int
	current string
}

// NewDirSource lists dir and prepares to load its frames with mode.
func NewDirSource(dir string, cache *frame.Cache, mode frame.Mode) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no frames found in %s", dir)
	}
	return &DirSource{cache: cache, mode: mode, paths: paths}, nil
}

// Next loads the next file.
func (s *DirSource) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.paths) {
		return nil, io.EOF
	}
	path := s.paths[s.pos]
	s.pos++
	s.current = path

	f, err := s.cache.Load(path, s.mode)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}
	s.cache.Evict(path)
	return f, nil
}

// Current returns the path of the frame most recently returned by Next.
func (s *DirSource) Current() string { return s.current }

// Len returns the number of frames in the directory.
func (s *DirSource) Len() int { return len(s.paths) }
