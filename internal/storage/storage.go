package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/salesvelocity/pkg/logger"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal S3-compatible operations the pipeline needs.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}

// FetchPrefix downloads every object under prefix whose extension is ext into destDir
// and returns the local paths in key order. Object names are flattened to their base name.
func FetchPrefix(ctx context.Context, store ObjectStorage, prefix, ext, destDir string) ([]string, error) {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	var paths []string
	seen := make(map[string]string)
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, "/") || !strings.EqualFold(path.Ext(obj.Key), ext) {
			continue
		}
		name := path.Base(obj.Key)
		if other, ok := seen[name]; ok {
			return nil, fmt.Errorf("objects %s and %s share the file name %s", other, obj.Key, name)
		}
		seen[name] = obj.Key

		dest := filepath.Join(destDir, name)
		if err := store.DownloadObject(ctx, obj.Key, dest); err != nil {
			return nil, fmt.Errorf("download %s: %w", obj.Key, err)
		}
		logger.Log.Debug().Str("key", obj.Key).Int64("size", obj.Size).Str("path", dest).Msg("downloaded object")
		paths = append(paths, dest)
	}
	return paths, nil
}

// PublishFile uploads a local file under prefix/<subdir>/<base name>.
func PublishFile(ctx context.Context, store ObjectStorage, prefix, subdir, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", localPath, err)
	}

	key := path.Join(prefix, subdir, filepath.Base(localPath))
	if err := store.UploadObject(ctx, key, data); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	logger.Log.Info().Str("key", key).Int("bytes", len(data)).Msg("published object")
	return key, nil
}
