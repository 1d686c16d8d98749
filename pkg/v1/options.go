package v1

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	configDir string
	seed      *uint64
}

// WithConfigDir stores config.json in dir instead of the platform config
// directory.
func WithConfigDir(dir string) Option {
	return func(c *clientConfig) {
		c.configDir = dir
	}
}

// WithSeed makes Random deterministic.
func WithSeed(seed uint64) Option {
	return func(c *clientConfig) {
		c.seed = &seed
	}
}
