package config

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	format "github.com/go-git/go-remote/plumbing/format/config"
	"github.com/go-git/go-remote/plumbing/storer"
)

// Raw is a ConfigStorer over a parsed configuration document. Every change
// is made on a copy of the document and handed to the flush function, if
// any; the copy replaces the document only once the flush succeeds.
type Raw struct {
	mu    sync.Mutex
	cfg   *format.Config
	flush func(*format.Config) error
}

// NewRaw returns a Raw storer over cfg, a nil cfg is an empty document.
func NewRaw(cfg *format.Config, flush func(*format.Config) error) *Raw {
	if cfg == nil {
		cfg = format.New()
	}

	return &Raw{cfg: cfg, flush: flush}
}

// Document returns the current configuration document. The next successful
// change replaces it with a new one.
func (r *Raw) Document() *format.Config {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cfg
}

func (r *Raw) GetString(key string) (string, error) {
	k, err := format.ParseKey(key)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.cfg.LookupOption(k.Section, k.Subsection, k.Name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, k)
	}

	return v, nil
}

func (r *Raw) SetString(key, value string) error {
	k, err := format.ParseKey(key)
	if err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.cfg.Copy()
	next.SetOption(k.Section, k.Subsection, k.Name, value)
	return r.save(next)
}

func (r *Raw) Delete(key string) error {
	k, err := format.ParseKey(key)
	if err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.cfg.Copy()
	if !next.RemoveOption(k.Section, k.Subsection, k.Name) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, k)
	}

	return r.save(next)
}

func (r *Raw) RenameSection(oldPrefix, newPrefix string) error {
	oldSection, oldSub := splitSection(oldPrefix)
	newSection, newSub := splitSection(newPrefix)
	if !strings.EqualFold(oldSection, newSection) || oldSub == "" || newSub == "" {
		return fmt.Errorf("%w: cannot rename %q to %q", ErrInvalidKey, oldPrefix, newPrefix)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.cfg.Copy()
	if !next.RenameSubsection(oldSection, oldSub, newSub) {
		return nil
	}

	return r.save(next)
}

func (r *Raw) ForEach(pattern string, fn func(*Entry) error) error {
	var re *regexp.Regexp
	if pattern != "" {
		var err error
		if re, err = regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%w: pattern %q: %s", ErrInvalidKey, pattern, err)
		}
	}

	r.mu.Lock()
	entries := entries(r.cfg)
	r.mu.Unlock()

	for _, e := range entries {
		if re != nil && !re.MatchString(e.Key) {
			continue
		}

		if err := fn(e); err != nil {
			if err == storer.ErrStop {
				return nil
			}

			return err
		}
	}

	return nil
}

// save flushes next and makes it the current document. On a flush error the
// current document is left untouched.
func (r *Raw) save(next *format.Config) error {
	if r.flush != nil {
		if err := r.flush(next); err != nil {
			return err
		}
	}

	r.cfg = next
	return nil
}

func entries(cfg *format.Config) []*Entry {
	var result []*Entry
	add := func(k format.Key, opts format.Options) {
		for _, o := range opts {
			k.Name = strings.ToLower(o.Key)
			result = append(result, &Entry{Key: k.String(), Value: o.Value})
		}
	}

	for _, s := range cfg.Sections {
		name := strings.ToLower(s.Name)
		add(format.Key{Section: name}, s.Options)
		for _, ss := range s.Subsections {
			add(format.Key{Section: name, Subsection: ss.Name}, ss.Options)
		}
	}

	return result
}

func splitSection(prefix string) (section, subsection string) {
	if i := strings.Index(prefix, "."); i != -1 {
		return prefix[:i], prefix[i+1:]
	}

	return prefix, ""
}
