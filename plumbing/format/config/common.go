// Package config implements the git-config file format: a document model of
// sections, subsections and options, together with a decoder and an encoder.
package config

// New creates a new config instance.
func New() *Config {
	return &Config{}
}

// Config contains all the sections and comments from a config file.
type Config struct {
	Comment  *Comment
	Sections Sections
}

// Copy returns a deep copy of the config, sharing nothing with c.
func (c *Config) Copy() *Config {
	cp := &Config{}
	if c.Comment != nil {
		comment := *c.Comment
		cp.Comment = &comment
	}

	for _, s := range c.Sections {
		section := &Section{Name: s.Name, Options: s.Options.copy()}
		for _, ss := range s.Subsections {
			section.Subsections = append(section.Subsections, &Subsection{
				Name:    ss.Name,
				Options: ss.Options.copy(),
			})
		}

		cp.Sections = append(cp.Sections, section)
	}

	return cp
}

// Comment string without the prefix '#' or ';'.
type Comment string

const (
	// NoSubsection token is passed to Config.Section and Config.SetSection to
	// represent the absence of a section.
	NoSubsection = ""
)

// Section returns a existing section with the given name or creates a new one.
func (c *Config) Section(name string) *Section {
	for i := len(c.Sections) - 1; i >= 0; i-- {
		s := c.Sections[i]
		if s.IsName(name) {
			return s
		}
	}

	s := &Section{Name: name}
	c.Sections = append(c.Sections, s)
	return s
}

// HasSection checks if the Config has a section with the specified name.
func (c *Config) HasSection(name string) bool {
	for _, s := range c.Sections {
		if s.IsName(name) {
			return true
		}
	}
	return false
}

// RemoveSection removes a section from a config file.
func (c *Config) RemoveSection(name string) *Config {
	result := Sections{}
	for _, s := range c.Sections {
		if !s.IsName(name) {
			result = append(result, s)
		}
	}

	c.Sections = result
	return c
}

// RemoveSubsection remove a subsection from a config file.
func (c *Config) RemoveSubsection(section string, subsection string) *Config {
	for _, s := range c.Sections {
		if s.IsName(section) {
			result := Subsections{}
			for _, ss := range s.Subsections {
				if !ss.IsName(subsection) {
					result = append(result, ss)
				}
			}
			s.Subsections = result
		}
	}

	return c
}

// RenameSubsection renames every subsection old of the given section to new,
// merging the options into an already existing subsection new. It reports
// whether any subsection was renamed.
func (c *Config) RenameSubsection(section, old, new string) bool {
	var renamed bool
	for _, s := range c.Sections {
		if !s.IsName(section) {
			continue
		}

		result := Subsections{}
		var target *Subsection
		for _, ss := range s.Subsections {
			if ss.IsName(new) && target == nil {
				target = ss
			}
		}

		for _, ss := range s.Subsections {
			if !ss.IsName(old) {
				result = append(result, ss)
				continue
			}

			renamed = true
			if target != nil {
				target.Options = append(target.Options, ss.Options...)
				continue
			}

			ss.Name = new
			target = ss
			result = append(result, ss)
		}

		s.Subsections = result
	}

	return renamed
}

// AddOption adds an option to a given section and subsection. Use the
// NoSubsection constant for the subsection argument if no subsection is wanted.
func (c *Config) AddOption(section string, subsection string, key string, value string) *Config {
	if subsection == NoSubsection {
		c.Section(section).AddOption(key, value)
	} else {
		c.Section(section).Subsection(subsection).AddOption(key, value)
	}

	return c
}

// SetOption sets an option to a given section and subsection. Use the
// NoSubsection constant for the subsection argument if no subsection is wanted.
func (c *Config) SetOption(section string, subsection string, key string, value ...string) *Config {
	if subsection == NoSubsection {
		c.Section(section).SetOption(key, value...)
	} else {
		c.Section(section).Subsection(subsection).SetOption(key, value...)
	}

	return c
}

// RemoveOption removes every value of the option from the given section and
// subsection, reporting whether the option was present.
func (c *Config) RemoveOption(section string, subsection string, key string) bool {
	if !c.HasSection(section) {
		return false
	}

	s := c.Section(section)
	if subsection == NoSubsection {
		if !s.HasOption(key) {
			return false
		}

		s.RemoveOption(key)
		return true
	}

	if !s.HasSubsection(subsection) {
		return false
	}

	ss := s.Subsection(subsection)
	if !ss.HasOption(key) {
		return false
	}

	ss.RemoveOption(key)
	return true
}

// GetOption gets the value of a named Option from the Section and Subsection. Use the
// NoSubsection constant for the subsection argument if no subsection is wanted. If the
// option does not exist or is not set, it returns the empty string. Note that there
// is no difference. This matches git behaviour since git v1.8.1-rc1, if there are
// multiple definitions of a key, the last one wins.
func (c *Config) GetOption(section string, subsection string, key string) string {
	if subsection == NoSubsection {
		return c.Section(section).GetOption(key)
	}

	return c.Section(section).Subsection(subsection).GetOption(key)
}

// LookupOption behaves like GetOption but does not create missing sections
// and reports whether the option was found.
func (c *Config) LookupOption(section string, subsection string, key string) (string, bool) {
	if !c.HasSection(section) {
		return "", false
	}

	s := c.Section(section)
	opts := s.Options
	if subsection != NoSubsection {
		if !s.HasSubsection(subsection) {
			return "", false
		}

		opts = s.Subsection(subsection).Options
	}

	if !opts.Has(key) {
		return "", false
	}

	return opts.Get(key), true
}

// GetAllOptions gets all the values of a named Option from the Section. Use the
// NoSubsection constant for the subsection argument if no subsection is wanted.
// If the option does not exist or is not set, it returns an empty slice.
// This matches git behaviour since git v1.8.1-rc1.
func (c *Config) GetAllOptions(section string, subsection string, key string) []string {
	if subsection == NoSubsection {
		return c.Section(section).GetAllOptions(key)
	}

	return c.Section(section).Subsection(subsection).GetAllOptions(key)
}
