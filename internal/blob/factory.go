package blob

import (
	"context"
	"fmt"
	"os"
)

// Config selects and parameterizes the artifact storage backend.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open builds the store the config names. An empty driver defaults to the
// filesystem backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFilesystem, "":
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// OpenFromEnv selects a backend from the environment.
//
//	QCREPORT_BLOB_DRIVER: fs|s3|memory (default fs)
//	QCREPORT_BLOB_FS_ROOT: directory root when driver=fs (default ./reportdata)
//	(S3 variables documented in s3.go)
func OpenFromEnv(ctx context.Context) (Store, error) {
	cfg := Config{
		Driver: Driver(os.Getenv("QCREPORT_BLOB_DRIVER")),
		FSRoot: os.Getenv("QCREPORT_BLOB_FS_ROOT"),
	}
	if cfg.Driver == DriverS3 {
		s3cfg, err := s3ConfigFromEnv()
		if err != nil {
			return nil, err
		}
		cfg.S3 = s3cfg
	}
	return Open(ctx, cfg)
}
