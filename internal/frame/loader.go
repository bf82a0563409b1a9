package frame

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/imgio"
)

// Mode selects how an image file on disk is turned into a Frame.
type Mode string

const (
	// ModeMask treats the file as an already-binary mask (threshold 128).
	ModeMask Mode = "mask"

	// ModeEdges treats the file as a camera frame and runs Preprocess.
	ModeEdges Mode = "edges"
)

// ParseMode converts a string to a Mode. The empty string selects ModeMask.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case "", ModeMask:
		return ModeMask, nil
	case ModeEdges:
		return ModeEdges, nil
	default:
		return "", fmt.Errorf("unknown frame mode %q (want %q or %q)", s, ModeMask, ModeEdges)
	}
}

// maskLevel is the threshold used for ModeMask files.
const maskLevel = 128

type cacheKey struct {
	path string
	mode Mode
}

// Cache provides thread-safe caching of decoded frames to avoid redundant
// disk reads and preprocessing.
//
// Frames are keyed by their exact path string and Mode. Different paths to
// the same file result in separate entries. Cached frames remain in memory
// until Evict or Clear is called.
type Cache struct {
	mu     sync.RWMutex
	opts   PreprocessOptions
	frames map[cacheKey]*Frame
}

// NewCache creates an empty cache that preprocesses ModeEdges files with opts.
func NewCache(opts PreprocessOptions) *Cache {
	return &Cache{
		opts:   opts,
		frames: make(map[cacheKey]*Frame),
	}
}

// Load returns the frame for path, decoding and converting it on first use.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be decoded
//   - Returns error if preprocessing options are invalid
func (c *Cache) Load(path string, mode Mode) (*Frame, error) {
	if mode == "" {
		mode = ModeMask
	}
	key := cacheKey{path: path, mode: mode}

	c.mu.RLock()
	if f, ok := c.frames[key]; ok {
		c.mu.RUnlock()
		return f, nil
	}
	c.mu.RUnlock()

	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}

	var f *Frame
	switch mode {
	case ModeEdges:
		f, err = Preprocess(img, c.opts)
		if err != nil {
			return nil, err
		}
	case ModeMask:
		f = FromImage(img, maskLevel)
	default:
		return nil, fmt.Errorf("unknown frame mode %q", mode)
	}

	c.mu.Lock()
	c.frames[key] = f
	c.mu.Unlock()

	return f, nil
}

// Evict removes every cached frame for path.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	for key := range c.frames {
		if key.path == path {
			delete(c.frames, key)
		}
	}
	c.mu.Unlock()
}

// Clear removes all cached frames.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.frames = make(map[cacheKey]*Frame)
	c.mu.Unlock()
}

// Len returns the number of cached frames.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// Info contains metadata about a frame file.
type Info struct {
	// Width is the frame width in pixels.
	Width int `json:"width"`

	// Height is the frame height in pixels.
	Height int `json:"height"`

	// Format is "png", "jpeg" or "unknown", based on the file extension.
	Format string `json:"format"`

	// Mode is the conversion used to build the mask.
	Mode Mode `json:"mode"`

	// ForegroundPixels counts the set pixels of the resulting mask.
	ForegroundPixels int `json:"foreground_pixels"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadInfo loads a frame through the cache and describes it.
func LoadInfo(cache *Cache, path string, mode Mode) (*Info, error) {
	if mode == "" {
		mode = ModeMask
	}
	f, err := cache.Load(path, mode)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	}

	count := 0
	for _, v := range f.gray.Pix {
		if v != 0 {
			count++
		}
	}

	return &Info{
		Width:            f.Width(),
		Height:           f.Height(),
		Format:           format,
		Mode:             mode,
		ForegroundPixels: count,
		FileSizeBytes:    stat.Size(),
	}, nil
}
