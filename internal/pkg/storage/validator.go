package storage

import (
	"errors"
	"path"
	"strings"
)

var (
	ErrEmptyKey         = errors.New("image key is empty")
	ErrInvalidKey       = errors.New("image key is not a clean relative path")
	ErrInvalidExtension = errors.New("image type not allowed")
)

// AllowedImageExtensions are the card image formats accepted by the bucket.
var AllowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".gif":  {},
}

// ValidateImageKey checks that key names an image object inside the bucket.
func ValidateImageKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.HasPrefix(key, "../") || key == ".." {
		return ErrInvalidKey
	}
	if _, ok := AllowedImageExtensions[strings.ToLower(path.Ext(key))]; !ok {
		return ErrInvalidExtension
	}
	return nil
}
