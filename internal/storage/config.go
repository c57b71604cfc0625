package storage

// MinIOConfig holds the object storage settings for uploaded review videos.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// Region is set explicitly so presigning never needs a bucket-location lookup.
	Region string
}

// Enabled reports whether an endpoint was configured.
func (c *MinIOConfig) Enabled() bool {
	return c != nil && c.Endpoint != ""
}
