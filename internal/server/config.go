package server

import "time"

// Config selects the storage backend: MongoURI set means Mongo, empty means
// the file store under DataDir. Accounts follow the same choice.
type Config struct {
	Addr      string
	MongoURI  string
	MongoDB   string
	DataDir   string
	JWTIssuer string
	TokenTTL  time.Duration
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8787"
	}
	if c.MongoDB == "" {
		c.MongoDB = "skillsync"
	}
	if c.DataDir == "" {
		c.DataDir = "./skillsync-data"
	}
	if c.JWTIssuer == "" {
		c.JWTIssuer = "skillsync"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 24 * time.Hour
	}
}
