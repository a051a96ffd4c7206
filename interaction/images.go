package interaction

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// SavedImagePrefix starts the name of every image file written for clients
// that receive file pointers. The sweeper only removes files with it.
const SavedImagePrefix = "augment_image_"

const saveAttempts = 5

// ImageSaver persists a base64 image and returns its absolute path.
type ImageSaver interface {
	Save(data, mediaType string, index int) (string, error)
}

// TempImageSaver writes images into Dir.
type TempImageSaver struct {
	Dir string
}

// NewTempImageSaver creates a saver for the system temp directory.
func NewTempImageSaver() *TempImageSaver {
	return &TempImageSaver{Dir: os.TempDir()}
}

// Save decodes data and writes it to augment_image_<index+1>_<suffix>.<ext>.
// Files are created exclusively; a suffix collision retries with a new one.
func (s *TempImageSaver) Save(data, mediaType string, index int) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("Base64 解码失败: %w", err)
	}

	dir, err := filepath.Abs(s.Dir)
	if err != nil {
		return "", err
	}

	ext := imageExtension(mediaType)
	for range saveAttempts {
		path := filepath.Join(dir, fmt.Sprintf("%s%d_%s.%s", SavedImagePrefix, index+1, randomSuffix(), ext))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("保存图片文件失败: %w", err)
		}
		if _, err := f.Write(raw); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("保存图片文件失败: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("保存图片文件失败: %w", err)
		}
		return path, nil
	}
	return "", errors.New("保存图片文件失败: could not allocate a unique file name")
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

func imageExtension(mediaType string) string {
	switch mediaType {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/bmp":
		return "bmp"
	default:
		return "png"
	}
}

// imageType is the pointer "type" field: the media subtype, png when the
// media type is not an image/ type.
func imageType(mediaType string) string {
	if subtype, ok := strings.CutPrefix(mediaType, "image/"); ok {
		return subtype
	}
	return "png"
}
