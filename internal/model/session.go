package model

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/sync/singleflight"

	"github.com/sleepysunflower/traffic-collisions/internal/monitoring/logging"
)

// Session is a loaded, ready-to-run model. Loaded once per URL, reused
// across predictions, never mutated after load.
type Session struct {
	URL        string
	InputName  string
	OutputName string

	// Download and Init report the two load phases independently, each as
	// a non-decreasing percentage ending at 100.
	Download *Progress
	Init     *Progress

	mu   sync.Mutex
	sess *ort.DynamicAdvancedSession
}

// CacheConfig configures the process-wide session cache.
type CacheConfig struct {
	// LibraryPath points at the onnxruntime shared library. Empty means the
	// runtime default lookup.
	LibraryPath string
	// Dir receives downloaded weights files.
	Dir string
	// Client fetches remote artifacts; nil uses a 60s-timeout default.
	Client *http.Client
}

// Cache loads sessions once per URL. Concurrent first calls for the same
// URL share a single fetch and initialization.
type Cache struct {
	cfg  CacheConfig
	log  logging.Logger
	envOnce sync.Once
	envErr  error

	group singleflight.Group

	mu       sync.Mutex
	sessions map[string]*Session
	pending  map[string]*Session
}

// NewCache returns an empty session cache.
func NewCache(cfg CacheConfig, log logging.Logger) *Cache {
	if log == nil {
		log = logging.NopLogger{}
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Cache{
		cfg:      cfg,
		log:      log,
		sessions: map[string]*Session{},
		pending:  map[string]*Session{},
	}
}

func (c *Cache) environment() error {
	c.envOnce.Do(func() {
		if c.cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(c.cfg.LibraryPath)
		}
		c.envErr = ort.InitializeEnvironment()
	})
	return c.envErr
}

// Progress returns the progress channels for url, creating the pending
// entry if no load has started, so subscribers may attach before or during
// a load.
func (c *Cache) Progress(url string) (download, init *Progress) {
	s := c.slot(url)
	return s.Download, s.Init
}

func (c *Cache) slot(url string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[url]; ok {
		return s
	}
	if s, ok := c.pending[url]; ok {
		return s
	}
	s := &Session{URL: url, Download: &Progress{}, Init: &Progress{}}
	c.pending[url] = s
	return s
}

// Load returns the cached session for url, fetching and initializing it on
// first call. A second caller during the first's flight awaits the same
// result rather than re-fetching. inputName overrides the model's declared
// first input when non-empty.
func (c *Cache) Load(ctx context.Context, url, inputName string) (*Session, error) {
	c.mu.Lock()
	if s, ok := c.sessions[url]; ok {
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(url, func() (any, error) {
		s := c.slot(url)
		if err := c.load(ctx, s, inputName); err != nil {
			// Failed loads leave the cache cold so a retry can start over.
			c.mu.Lock()
			delete(c.pending, url)
			c.mu.Unlock()
			return nil, err
		}
		c.mu.Lock()
		delete(c.pending, url)
		c.sessions[url] = s
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (c *Cache) load(ctx context.Context, s *Session, inputName string) error {
	if err := c.environment(); err != nil {
		return fmt.Errorf("initializing onnx runtime: %w", err)
	}
	s.Init.Publish(5)

	path, err := c.fetch(ctx, s)
	if err != nil {
		return err
	}
	s.Download.Publish(100)

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return fmt.Errorf("reading model signature: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("model %s: no input or output tensors", s.URL)
	}
	s.InputName = inputs[0].Name
	if inputName != "" {
		s.InputName = inputName
	}
	s.OutputName = outputs[0].Name
	s.Init.Publish(50)

	sess, err := ort.NewDynamicAdvancedSession(path,
		[]string{s.InputName}, []string{s.OutputName}, nil)
	if err != nil {
		return fmt.Errorf("creating session for %s: %w", s.URL, err)
	}
	s.sess = sess
	s.Init.Publish(100)
	c.log.Info("model session ready",
		logging.String("url", s.URL),
		logging.String("input", s.InputName),
		logging.String("output", s.OutputName))
	return nil
}

// fetch resolves the weights to a local path: remote URLs download into the
// cache dir with byte-level progress, local paths are used in place.
func (c *Cache) fetch(ctx context.Context, s *Session) (string, error) {
	if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
		if _, err := os.Stat(s.URL); err != nil {
			return "", fmt.Errorf("model weights: %w", err)
		}
		return s.URL, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.cfg.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching model: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching model: %s returned %s", s.URL, resp.Status)
	}

	dir := c.cfg.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	dest := filepath.Join(dir, filepath.Base(s.URL))
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("caching model: %w", err)
	}
	defer f.Close()

	total := resp.ContentLength
	var written int64
	buf := make([]byte, 256<<10)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return "", fmt.Errorf("caching model: %w", werr)
			}
			written += int64(n)
			if total > 0 {
				s.Download.Publish(float64(written) * 100 / float64(total))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", fmt.Errorf("downloading model: %w", rerr)
		}
	}
	return dest, nil
}

// Run executes one forward pass over a [1, len(vector)] float32 tensor and
// returns the first value of the first named output.
func (s *Session) Run(vector []float32) (float64, error) {
	if s.sess == nil {
		return 0, fmt.Errorf("session %s not initialized", s.URL)
	}
	if len(vector) == 0 {
		return 0, fmt.Errorf("empty feature vector")
	}
	input, err := ort.NewTensor(ort.NewShape(1, int64(len(vector))), vector)
	if err != nil {
		return 0, fmt.Errorf("building input tensor: %w", err)
	}
	defer input.Destroy()

	// One run at a time per session; the runtime session is not documented
	// as concurrency-safe for Run.
	s.mu.Lock()
	outputs := []ort.Value{nil}
	err = s.sess.Run([]ort.Value{input}, outputs)
	s.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("running model: %w", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return 0, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}
	defer out.Destroy()
	data := out.GetData()
	if len(data) == 0 {
		return 0, fmt.Errorf("model produced an empty output")
	}
	return float64(data[0]), nil
}

// Close releases every loaded session.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var first error
	for _, s := range c.sessions {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	c.sessions = map[string]*Session{}
	return first
}

// Close releases the underlying runtime session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess != nil {
		err := s.sess.Destroy()
		s.sess = nil
		return err
	}
	return nil
}
