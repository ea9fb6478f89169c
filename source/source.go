// Package source loads markup from files and web servers.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

const (
	// DefaultMaxBodySize limits documents to 10MB
	DefaultMaxBodySize = 10 * 1024 * 1024
	DefaultAgent       = "foomo-tagsoup"
)

var (
	ErrDisallowed       = errors.New("disallowed by robots.txt")
	ErrUnexpectedStatus = errors.New("unexpected response code")
	ErrTooLarge         = errors.New("document too large")
)

// Markup as it was loaded, the content type is empty for files
type Markup struct {
	Location    *url.URL
	ContentType string
	Body        []byte
}

type Fetcher struct {
	client      *http.Client
	agent       string
	robots      bool
	maxBodySize int64
	logger      *zap.Logger

	robotsLock   sync.Mutex
	robotsGroups map[string]*robotstxt.Group
}

type Option func(f *Fetcher)

func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

func WithAgent(agent string) Option {
	return func(f *Fetcher) {
		f.agent = agent
	}
}

// WithRobots makes the fetcher obey robots.txt
func WithRobots() Option {
	return func(f *Fetcher) {
		f.robots = true
	}
}

func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:       http.DefaultClient,
		agent:        DefaultAgent,
		maxBodySize:  DefaultMaxBodySize,
		logger:       zap.NewNop(),
		robotsGroups: map[string]*robotstxt.Group{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Location parses a path, a file:// or an http(s):// url
func Location(location string) (*url.URL, error) {
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		// url.Parse lower cases the scheme
		return url.Parse(location)
	}
	filename := location
	if strings.HasPrefix(lower, "file://") {
		filename = location[len("file://"):]
	}
	absFilename, errAbs := filepath.Abs(filename)
	if errAbs != nil {
		return nil, errAbs
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(absFilename)}, nil
}

// Fetch the markup at location
func (f *Fetcher) Fetch(ctx context.Context, location string) (*Markup, error) {
	u, errLocation := Location(location)
	if errLocation != nil {
		return nil, errLocation
	}
	if u.Scheme == "file" {
		return f.fetchFile(u)
	}
	return f.fetchHTTP(ctx, u)
}

func (f *Fetcher) fetchFile(u *url.URL) (*Markup, error) {
	file, errOpen := os.Open(filepath.FromSlash(u.Path))
	if errOpen != nil {
		return nil, errOpen
	}
	defer file.Close()
	body, errRead := f.readBody(file)
	if errRead != nil {
		return nil, errRead
	}
	return &Markup{Location: u, Body: body}, nil
}

func (f *Fetcher) readBody(r io.Reader) ([]byte, error) {
	body, errRead := io.ReadAll(io.LimitReader(r, f.maxBodySize+1))
	if errRead != nil {
		return nil, errRead
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBodySize)
	}
	return body, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, u *url.URL) (*Markup, error) {
	if f.robots {
		group, errRobots := f.robotsGroup(ctx, u)
		if errRobots != nil {
			return nil, errRobots
		}
		if !group.Test(u.Path) {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, u)
		}
	}
	req, errRequest := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if errRequest != nil {
		return nil, errRequest
	}
	req.Header.Set("User-Agent", f.agent)
	f.logger.Debug("fetching", zap.String("url", u.String()))
	resp, errGet := f.client.Do(req)
	if errGet != nil {
		return nil, errGet
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d, status: %s", ErrUnexpectedStatus, resp.StatusCode, resp.Status)
	}
	body, errRead := f.readBody(resp.Body)
	if errRead != nil {
		return nil, errRead
	}
	return &Markup{
		Location:    resp.Request.URL,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (f *Fetcher) robotsGroup(ctx context.Context, u *url.URL) (*robotstxt.Group, error) {
	key := u.Scheme + "://" + u.Host
	f.robotsLock.Lock()
	defer f.robotsLock.Unlock()
	if group, ok := f.robotsGroups[key]; ok {
		return group, nil
	}
	req, errRequest := http.NewRequestWithContext(ctx, http.MethodGet, key+"/robots.txt", nil)
	if errRequest != nil {
		return nil, errRequest
	}
	req.Header.Set("User-Agent", f.agent)
	resp, errGet := f.client.Do(req)
	if errGet != nil {
		return nil, errGet
	}
	defer resp.Body.Close()
	data, errFromResponse := robotstxt.FromResponse(resp)
	if errFromResponse != nil {
		return nil, errFromResponse
	}
	group := data.FindGroup(f.agent)
	f.robotsGroups[key] = group
	f.logger.Debug("loaded robots.txt", zap.String("host", key))
	return group, nil
}
