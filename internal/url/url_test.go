package url

import (
	"testing"

	. "gopkg.in/check.v1"
)

func Test(t *testing.T) { TestingT(t) }

type URLSuite struct{}

var _ = Suite(&URLSuite{})

func (s *URLSuite) TestMatchesScheme(c *C) {
	c.Check(MatchesScheme("https://example.com/repo.git"), Equals, true)
	c.Check(MatchesScheme("file:///srv/repo.git"), Equals, true)
	c.Check(MatchesScheme("git@example.com:repo.git"), Equals, false)
	c.Check(MatchesScheme("/srv/repo.git"), Equals, false)
}

func (s *URLSuite) TestParseScpLike(c *C) {
	for url, expected := range map[string]SCPLike{
		"git@github.com:james/bond":        {User: "git", Host: "github.com", Path: "james/bond"},
		"git@github.com:007/bond":          {User: "git", Host: "github.com", Path: "007/bond"},
		"git@github.com:22:james/bond":     {User: "git", Host: "github.com", Port: "22", Path: "james/bond"},
		"example.com:2222/mirrors/repo.git": {Host: "example.com", Port: "2222", Path: "mirrors/repo.git"},
	} {
		scp, ok := ParseScpLike(url)
		c.Assert(ok, Equals, true, Commentf("url: %s", url))
		c.Check(scp, DeepEquals, expected, Commentf("url: %s", url))
	}
}

func (s *URLSuite) TestParseScpLikeRejects(c *C) {
	for _, url := range []string{
		"https://example.com/repo.git",
		"/srv/repo.git",
		"repo.git",
	} {
		_, ok := ParseScpLike(url)
		c.Check(ok, Equals, false, Commentf("url: %s", url))
	}
}

func (s *URLSuite) TestIsLocalEndpoint(c *C) {
	c.Check(IsLocalEndpoint("/srv/repo.git"), Equals, true)
	c.Check(IsLocalEndpoint("../repo"), Equals, true)
	c.Check(IsLocalEndpoint("ssh://git@example.com/repo.git"), Equals, false)
	c.Check(IsLocalEndpoint("git@example.com:team/repo.git"), Equals, false)
}
