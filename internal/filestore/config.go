package filestore

// Provider identifies the file storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config holds the settings needed to publish reports to object storage.
type Config struct {
	// Provider is the storage backend (e.g. ProviderMinIO).
	Provider Provider `mapstructure:"provider" default:"minio"`

	// Endpoint is the host:port of the storage server, e.g. "localhost:9000".
	// An empty endpoint disables object storage.
	Endpoint string `mapstructure:"endpoint"`

	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`

	// Region is used by region-aware backends. Setting it skips the bucket
	// location lookup.
	Region string `mapstructure:"region" default:"us-east-1"`

	// Bucket and Prefix locate published reports.
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix" default:"schemadiff"`
}

// DefaultConfig returns a local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:  ProviderMinIO,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Region:    "us-east-1",
		Prefix:    "schemadiff",
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Config) Enabled() bool {
	return c != nil && c.Endpoint != ""
}
