package config

import (
	"os"
	"strconv"
	"strings"
)

// CanUse reports whether enough is configured to open an S3 client.
func (c S3Config) CanUse() bool {
	return strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

// Secure parses UseSSL; anything unparsable means TLS on.
func (c S3Config) Secure() bool {
	raw := strings.TrimSpace(c.UseSSL)
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

// resolveS3 fills local MinIO defaults the way the docker compose setup
// expects them.
func resolveS3(env string, in S3Config) S3Config {
	out := in
	if !strings.EqualFold(strings.TrimSpace(env), "local") {
		return out
	}
	out.Endpoint = firstNonEmpty(strings.TrimSpace(in.Endpoint), "minio:9000")
	out.AccessKey = firstNonEmpty(strings.TrimSpace(in.AccessKey), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER")))
	out.SecretKey = firstNonEmpty(strings.TrimSpace(in.SecretKey), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD")))
	if strings.TrimSpace(in.UseSSL) == "" {
		out.UseSSL = "false"
	}
	return out
}
