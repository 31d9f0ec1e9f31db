package catalog

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mark3labs/oascompose/internal/logging"
	"github.com/mark3labs/oascompose/internal/spec"
)

// Option configures a Catalog. Filters only narrow OperationsByTag; with no
// filters every operation is listed.
type Option func(*config)

type config struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[spec.HttpMethod]struct{}
	pathRes     []*regexp.Regexp
	logger      *slog.Logger
	errs        []error
}

func newConfig(opts []Option) *config {
	c := &config{logger: logging.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithIncludeTags keeps only operations filed under at least one of tags.
func WithIncludeTags(tags []string) Option {
	return func(c *config) { c.includeTags = addTags(c.includeTags, tags) }
}

// WithExcludeTags drops operations filed under any of tags.
func WithExcludeTags(tags []string) Option {
	return func(c *config) { c.excludeTags = addTags(c.excludeTags, tags) }
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// WithMethods keeps only operations using one of methods.
func WithMethods(methods []spec.HttpMethod) Option {
	return func(c *config) {
		for _, m := range methods {
			if c.methods == nil {
				c.methods = make(map[spec.HttpMethod]struct{}, len(methods))
			}
			c.methods[spec.HttpMethod(strings.ToLower(string(m)))] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only operations whose path template matches at
// least one regular expression. Invalid patterns make New fail.
func WithPathPatterns(patterns []string) Option {
	return func(c *config) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				c.errs = append(c.errs, fmt.Errorf("path pattern %q: %w", p, err))
				continue
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func (c *config) allowMethod(m spec.HttpMethod) bool {
	if len(c.methods) == 0 {
		return true
	}
	_, ok := c.methods[m]
	return ok
}

func (c *config) allowPath(path string) bool {
	if len(c.pathRes) == 0 {
		return true
	}
	for _, re := range c.pathRes {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func (c *config) allowTags(tags []string) bool {
	if len(c.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := c.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := c.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}
