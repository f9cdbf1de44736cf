package config

type Fixture struct {
	Text   string
	Raw    string
	Config *Config
}

var fixtures = []*Fixture{
	{
		Raw:    "",
		Text:   "",
		Config: New(),
	},
	{
		Raw:    "#Comments only",
		Text:   "",
		Config: New(),
	},
	{
		Raw:    "[core]\nbare=false",
		Text:   "[core]\n\tbare = false\n",
		Config: New().AddOption("core", "", "bare", "false"),
	},
	{
		Raw: `[remote "origin"]
	url = git@github.com:go-git/go-remote.git
	fetch = +refs/heads/*:refs/remotes/origin/*
	tagopt = --no-tags
[branch "master"]
	remote = origin
	merge = refs/heads/master
`,
		Text: `[remote "origin"]
	url = git@github.com:go-git/go-remote.git
	fetch = +refs/heads/*:refs/remotes/origin/*
	tagopt = --no-tags
[branch "master"]
	remote = origin
	merge = refs/heads/master
`,
		Config: New().
			AddOption("remote", "origin", "url", "git@github.com:go-git/go-remote.git").
			AddOption("remote", "origin", "fetch", "+refs/heads/*:refs/remotes/origin/*").
			AddOption("remote", "origin", "tagopt", "--no-tags").
			AddOption("branch", "master", "remote", "origin").
			AddOption("branch", "master", "merge", "refs/heads/master"),
	},
	{
		Raw: `[section]
	option1 = "has # hash"
	option2 = "has \" quote"
	option3 = "  has leading spaces"
	option4 = has no special characters
`,
		Text: `[section]
	option1 = "has # hash"
	option2 = "has \" quote"
	option3 = "  has leading spaces"
	option4 = has no special characters
`,
		Config: New().
			AddOption("section", "", "option1", `has # hash`).
			AddOption("section", "", "option2", `has " quote`).
			AddOption("section", "", "option3", `  has leading spaces`).
			AddOption("section", "", "option4", `has no special characters`),
	},
	{
		Raw: `[branch "feature/a.b"]
	remote = upstream
`,
		Text: `[branch "feature/a.b"]
	remote = upstream
`,
		Config: New().AddOption("branch", "feature/a.b", "remote", "upstream"),
	},
}
