package filesystem

import (
	"bytes"
	"errors"
	"os"

	"github.com/go-git/go-remote/config"
	format "github.com/go-git/go-remote/plumbing/format/config"
	"github.com/go-git/go-remote/storage/filesystem/dotgit"
	"github.com/go-git/go-remote/utils/ioutil"
)

// ConfigStorage keeps the config file of the repository in memory, every
// change is written back to disk.
type ConfigStorage struct {
	dir *dotgit.DotGit
	raw *config.Raw
}

func (c *ConfigStorage) load() error {
	cfg, err := c.unmarshal()
	if err != nil {
		return err
	}

	c.raw = config.NewRaw(cfg, c.marshal)
	return nil
}

func (c *ConfigStorage) unmarshal() (cfg *format.Config, err error) {
	cfg = format.New()

	f, err := c.dir.Config()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return nil, err
	}

	defer ioutil.CheckClose(f, &err)

	d := format.NewDecoder(f)
	if err := d.Decode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *ConfigStorage) marshal(cfg *format.Config) error {
	var buf bytes.Buffer
	if err := format.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}

	return c.dir.WriteConfig(buf.Bytes())
}
