package veil

import (
	"fmt"

	"github.com/jinzhu/configor"
)

type Config struct {
	Store struct {
		// DBFile is the SQLite file holding all client state.
		DBFile string `default:"store.sqlite3"`
	}

	// Node is the remote node the sync component reconciles against.
	Node struct {
		Protocol string `default:"http"`
		Host     string `default:"localhost"`
		Port     int    `default:"57291"`
		// PollSeconds is the follower's polling interval.
		PollSeconds int `default:"10"`
	}

	Logging struct {
		Level string `default:"info"`
		// File enables a rotating log file in addition to stdout.
		File string
	}
}

func (c Config) NodeEndpoint() string {
	return fmt.Sprintf("%s://%s:%d", c.Node.Protocol, c.Node.Host, c.Node.Port)
}

func LoadConfig(confPath string) Config {
	c := Config{}
	if confPath == "" {
		configor.Load(&c)
	} else {
		configor.Load(&c, confPath)
	}
	return c
}
